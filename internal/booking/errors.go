// Package booking implements the reservation ledger: creating tray
// bookings with commit-time revalidation, payment status transitions,
// cancellation and credit redemption.  These sentinel values let handlers
// distinguish failure scenarios; allocation-level errors live with the
// tray resolver and date-level errors with the calendar policy.
package booking

import "errors"

// ErrBelowMinimumThreshold is returned when a special-weekday date has not
// reached its minimum tray count and the request does not lift it there.
var ErrBelowMinimumThreshold = errors.New("below minimum tray threshold for this date")

// ErrTrayConflict is returned when a booking lost a race: between
// allocation and commit another booking claimed one of its trays.  The
// caller should re-run allocation and retry.
var ErrTrayConflict = errors.New("tray already claimed for this date")

// ErrInvalidTransition is returned on an illegal payment or lifecycle
// status change, such as failing a payment that already completed.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNotFound is returned when no booking or credit matches the given id.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized is returned when the caller does not own the booking and
// is not an admin.
var ErrUnauthorized = errors.New("not allowed")

// ErrStorageUnavailable wraps storage-layer failures that survived the
// bounded retries at the persistence boundary.  It is distinct from every
// domain error above so callers can surface a retryable condition.
var ErrStorageUnavailable = errors.New("storage unavailable")
