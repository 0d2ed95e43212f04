// Package repository contains data access logic separated from HTTP
// handlers. This file defines sentinel errors shared by the repositories so
// handlers can map storage failures onto HTTP statuses without string
// matching.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a lookup does not resolve to an existing row.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update violates a uniqueness
// guarantee (duplicate slug, duplicate email, duplicate wishlist pair).
// Handlers translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is a MySQL duplicate-key violation
// (error 1062). The unique indexes declared in schema.sql make the store the
// final arbiter of uniqueness; a race that slips past an application-level
// pre-check still surfaces here.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
