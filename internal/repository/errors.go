// Package repository holds the raw-SQL data access layer plus the
// sentinel errors shared across its repos. Handlers translate these
// into HTTP statuses: ErrForbidden when a caller touches a resource
// owned by someone else, ErrConflict when an operation trips over
// conflicting state (a credit row that was spent while the booking
// transaction was in flight, a duplicate account).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or update cannot be
// performed because of conflicting state. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
