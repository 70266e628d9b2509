package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/devadeekshithgs-git/hukiciah/internal/booking"
)

// storageAttempts bounds how often a storage operation is retried on a
// transient failure before ErrStorageUnavailable surfaces to the caller.
const storageAttempts = 3

// storageBackoff is the pause between attempts.  A package var so tests
// can shorten it.
var storageBackoff = 100 * time.Millisecond

// isTransient reports whether a storage error is worth retrying: a dead
// connection, a network error, or a MySQL lock wait timeout (1205) /
// deadlock victim (1213).  Everything else, duplicate keys included,
// reflects state rather than luck and must reach the caller unchanged.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Error 1205") || strings.Contains(msg, "Error 1213")
}

// withRetry runs op up to storageAttempts times, backing off between
// transient failures.  Domain and sql errors pass through on the first
// attempt; only when the last attempt still fails transiently does the
// caller see ErrStorageUnavailable wrapping the final cause.
func withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < storageAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, ctx.Err())
			case <-time.After(storageBackoff):
			}
		}
		if err = op(); err == nil || !isTransient(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
}

// beginTx opens a transaction with the same retry discipline as the read
// paths.  BeginTx is where a recycled dead connection usually shows up.
func beginTx(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	var tx *sql.Tx
	err := withRetry(ctx, func() error {
		var beginErr error
		tx, beginErr = db.BeginTx(ctx, nil)
		return beginErr
	})
	if err != nil {
		if !errors.Is(err, booking.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %v", booking.ErrStorageUnavailable, err)
		}
		return nil, err
	}
	return tx, nil
}
