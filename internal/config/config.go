package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits the CORS origin list
	"time"    // time parses duration tunables
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message; tunables fall
// back to sensible defaults.
type Config struct {
	Env           string   // application environment (e.g. "dev", "prod")
	Port          string   // HTTP port to listen on
	DBUser        string   // database username
	DBPass        string   // database password (optional)
	DBHost        string   // database host address
	DBPort        string   // database port number
	DBName        string   // database name
	JWTSecret     string   // secret used to sign access tokens
	TokenTTLHours int      // access token time-to-live in hours
	BcryptCost    int      // bcrypt cost for password hashing
	CORSOrigins   []string // allowed CORS origins; empty means allow all
}

// Load reads configuration values from environment variables and returns a
// Config. DB coordinates and the JWT secret are required; the token TTL
// defaults to 168 hours (7 days) and the bcrypt cost to 10.
func Load() Config {
	return Config{
		Env:           envStr("APP_ENV", "dev"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		TokenTTLHours: envInt("TOKEN_TTL_HOURS", 168),
		BcryptCost:    envInt("BCRYPT_COST", 10),
		CORSOrigins:   splitOrigins(os.Getenv("CORS_ORIGINS")),
	}
}

// TokenTTL returns the configured token lifetime as a duration.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// IsProd reports whether the app runs in production mode. Outside production
// internal error detail is included in 500 responses.
func (c Config) IsProd() bool { return c.Env == "prod" }

// splitOrigins parses a comma-separated origin list, dropping empty entries.
func splitOrigins(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
