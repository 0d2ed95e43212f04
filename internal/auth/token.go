package auth // package auth provides token issuing/verification and password hashing

import (
	"time" // time utilities for computing token expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Claims is the identity carried by an access token. It is what the
// middleware attaches to the request context after a successful verify.
type Claims struct {
	UserID uint64
	Email  string
	Role   Role
}

// Token pairs a signed JWT string with its expiration time so callers can
// report the expiry to clients without re-parsing the token.
type Token struct {
	Signed string
	Exp    time.Time
}

// IssueToken builds and signs an HS256 JWT for a user. The token carries the
// user id as the subject plus email and role claims, and expires after ttl.
func IssueToken(secret string, userID uint64, email string, role Role, ttl time.Duration) (Token, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  string(role),
		"exp":   exp.Unix(),
		"iat":   now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Signed: signed, Exp: exp}, nil
}

// VerifyToken parses and validates a raw token string. It returns the decoded
// claims and true on success. Any malformed, expired, tampered or wrongly
// signed token yields false; the function never panics and never returns an
// error to the caller.
func VerifyToken(secret, raw string) (Claims, bool) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC is acceptable; reject tokens signed with other methods.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Claims{}, false
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, false
	}

	var c Claims
	switch v := mc["sub"].(type) {
	case float64:
		c.UserID = uint64(v)
	case int64:
		c.UserID = uint64(v)
	case uint64:
		c.UserID = v
	default:
		return Claims{}, false
	}
	if email, ok := mc["email"].(string); ok {
		c.Email = email
	}
	if role, ok := mc["role"].(string); ok {
		c.Role = ParseRole(role)
	} else {
		c.Role = RoleCustomer
	}
	return c, true
}
