package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/velstore/storefront-api/internal/auth"
)

// User mirrors the 'users' table. PasswordHash never leaves the repository
// layer except for credential verification; handlers build their own response
// types without it.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	FullName     *string
	Phone        *string
	Role         auth.Role
	LastSignInAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries the admin-editable fields of a user. Nil pointers mean
// "leave unchanged".
type UserUpdate struct {
	FullName *string
	Phone    *string
	Role     *auth.Role
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id, email, password_hash, full_name, phone, role, last_sign_in_at, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone,
		&role, &u.LastSignInAt, &u.CreatedAt, &u.UpdatedAt)
	u.Role = auth.ParseRole(role)
	return u, err
}

// Create inserts a user with the customer role and returns the stored row.
// The email must already be normalized (lower-cased, trimmed) by the caller.
// A duplicate email yields ErrConflict.
func (r *UserRepo) Create(ctx context.Context, email, passwordHash string, fullName, phone *string) (User, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, full_name, phone, role) VALUES (?,?,?,?,?)",
		email, passwordHash, fullName, phone, string(auth.RoleCustomer))
	if err != nil {
		if isDuplicateKey(err) {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email. Returns ErrNotFound when the
// email does not exist.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// List returns all users, most recently created first.
func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update applies a partial merge of the supplied fields and refreshes
// updated_at. Returns the updated row, or ErrNotFound when the id does not
// resolve.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) (User, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return User{}, err
	}

	set := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}
	if upd.FullName != nil {
		set = append(set, "full_name = ?")
		args = append(args, *upd.FullName)
	}
	if upd.Phone != nil {
		set = append(set, "phone = ?")
		args = append(args, *upd.Phone)
	}
	if upd.Role != nil {
		set = append(set, "role = ?")
		args = append(args, string(*upd.Role))
	}
	args = append(args, id)

	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id = ?", args...); err != nil {
		return User{}, err
	}
	return r.GetByID(ctx, id)
}

// TouchLastSignIn records a successful login.
func (r *UserRepo) TouchLastSignIn(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_sign_in_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	return err
}

// Delete removes a user and their wishlist rows in one transaction. Returns
// ErrNotFound when the id does not resolve. The self-delete guard lives in
// the handler, which knows the caller's identity.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM wishlist_items WHERE user_id = ?", id); err != nil {
		return err
	}
	var res sql.Result
	if res, err = tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}
