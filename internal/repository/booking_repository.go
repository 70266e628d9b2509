package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devadeekshithgs-git/hukiciah/internal/booking"
	"github.com/devadeekshithgs-git/hukiciah/internal/model"
)

// BookingRepo provides data access to the bookings, tray_slots and
// cancellation_credits tables.  Tray uniqueness is enforced by the
// UNIQUE (service_date, tray_number) key on tray_slots; every claim goes
// through an INSERT against that key, so two transactions can never hold
// the same tray for the same date regardless of what they read earlier.
//
// tray_slots rows exist for pending and paid active bookings.  Failed and
// cancelled bookings have their rows deleted, which is what frees the
// trays; occupancy is never stored as a counter anywhere.
type BookingRepo struct {
	DB *sql.DB

	// PendingTTL bounds how long an unpaid booking may keep its tray
	// claims.  Claims older than this are swept before any read or
	// insert against tray_slots, so an abandoned checkout cannot block
	// a date indefinitely.
	PendingTTL time.Duration
}

// NewBookingRepo returns a BookingRepo with the default pending-claim TTL.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{DB: db, PendingTTL: 30 * time.Minute}
}

// randomID generates a random hexadecimal string of n bytes (2n chars).
// Booking and credit IDs are opaque tokens rather than sequential ints so
// they cannot be enumerated from the public API.
func randomID(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// sweepStaleTx marks pending bookings on the date whose claims outlived
// PendingTTL as failed and deletes their tray_slots rows.  It runs inside
// the caller's transaction so the freed trays are visible to the insert
// that follows.
func (r *BookingRepo) sweepStaleTx(ctx context.Context, tx *sql.Tx, date string) error {
	cutoff := time.Now().UTC().Add(-r.PendingTTL).Format("2006-01-02 15:04:05")
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM bookings
		  WHERE service_date = ? AND payment_status = 'pending' AND created_at <= ?`,
		date, cutoff)
	if err != nil {
		return err
	}
	var stale []string
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return scanErr
		}
		stale = append(stale, id)
	}
	if err = rows.Close(); err != nil {
		return err
	}
	for _, id := range stale {
		if _, err = tx.ExecContext(ctx,
			`UPDATE bookings SET payment_status = 'failed' WHERE id = ? AND payment_status = 'pending'`,
			id); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM tray_slots WHERE booking_id = ?`, id); err != nil {
			return err
		}
		if err = returnCreditsTx(ctx, tx, id); err != nil {
			return err
		}
	}
	return nil
}

// returnCreditsTx hands back any credit rows the booking consumed.  An
// abandoned or failed checkout must not cost the customer their credits;
// a row stays spent only once its booking actually completes.
func returnCreditsTx(ctx context.Context, tx *sql.Tx, bookingID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE cancellation_credits
		    SET used = 0, used_in_booking_id = NULL
		  WHERE used_in_booking_id = ?`,
		bookingID)
	return err
}

// BookedTrays returns the tray numbers held by paid, active bookings on
// the date.  Pending checkouts do not appear here; they only matter for
// allocation, not for the availability a customer sees.
func (r *BookingRepo) BookedTrays(ctx context.Context, date string) ([]int, error) {
	var trays []int
	err := withRetry(ctx, func() error {
		rows, queryErr := r.DB.QueryContext(ctx,
			`SELECT ts.tray_number
			   FROM tray_slots ts
			   JOIN bookings b ON b.id = ts.booking_id
			  WHERE ts.service_date = ?
			    AND b.payment_status = 'completed' AND b.status = 'active'
			  ORDER BY ts.tray_number`,
			date)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		trays, queryErr = scanTrayNumbers(rows)
		return queryErr
	})
	if err != nil {
		return nil, err
	}
	return trays, nil
}

// ClaimedTrays returns every live claim on the date, pending checkouts
// included, after sweeping stale claims.  Allocation works against this
// set so concurrent checkouts are not handed the same trays.
func (r *BookingRepo) ClaimedTrays(ctx context.Context, date string) ([]int, error) {
	tx, err := beginTx(ctx, r.DB)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err = r.sweepStaleTx(ctx, tx, date); err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT tray_number FROM tray_slots WHERE service_date = ? ORDER BY tray_number`, date)
	if err != nil {
		return nil, err
	}
	trays, err := scanTrayNumbers(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return trays, nil
}

func scanTrayNumbers(rows *sql.Rows) ([]int, error) {
	var trays []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		trays = append(trays, n)
	}
	return trays, rows.Err()
}

// CreateBooking persists a booking and claims its trays in one
// transaction.  The tray claims are revalidated here by the unique key;
// a duplicate insert means another transaction won the race since the
// caller computed availability, and the whole booking rolls back with
// ErrTrayConflict.  Credit rows named in creditIDs are marked used in the
// same transaction; if any of them was already spent the booking fails
// with ErrConflict rather than double-counting the credit.
func (r *BookingRepo) CreateBooking(ctx context.Context, b *model.Booking, creditIDs []string) error {
	id, err := randomID(16)
	if err != nil {
		return err
	}
	dishesJSON, err := json.Marshal(b.Dishes)
	if err != nil {
		return err
	}
	traysJSON, err := json.Marshal(b.TrayNumbers)
	if err != nil {
		return err
	}
	var fdPackets, fdGrams sql.NullInt64
	if b.FreezeDried != nil {
		fdPackets = sql.NullInt64{Int64: int64(b.FreezeDried.Packets), Valid: true}
		fdGrams = sql.NullInt64{Int64: int64(b.FreezeDried.GramsPerPacket), Valid: true}
	}

	tx, err := beginTx(ctx, r.DB)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err = r.sweepStaleTx(ctx, tx, b.ServiceDate); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings
		   (id, user_id, service_date, tray_numbers, dishes, num_packets,
		    freeze_dried_packets, freeze_dried_grams, delivery_method,
		    dehydration_cost, packing_cost, vacuum_cost, freeze_dried_cost,
		    subtotal, applied_credit, total_cost,
		    payment_status, status, admin_created)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, b.UserID, b.ServiceDate, traysJSON, dishesJSON, b.NumPackets,
		fdPackets, fdGrams, b.DeliveryMethod,
		b.DehydrationCost, b.PackingCost, b.VacuumCost, b.FreezeDriedCost,
		b.Subtotal, b.AppliedCredit, b.TotalCost,
		string(b.PaymentStatus), string(b.Status), b.AdminCreated)
	if err != nil {
		return err
	}

	for _, n := range b.TrayNumbers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tray_slots (service_date, tray_number, booking_id) VALUES (?,?,?)`,
			b.ServiceDate, n, id)
		if err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: tray %d on %s", booking.ErrTrayConflict, n, b.ServiceDate)
			}
			return err
		}
	}

	for _, creditID := range creditIDs {
		res, execErr := tx.ExecContext(ctx,
			`UPDATE cancellation_credits
			    SET used = 1, used_in_booking_id = ?
			  WHERE id = ? AND user_id = ? AND used = 0`,
			id, creditID, b.UserID)
		if execErr != nil {
			return execErr
		}
		affected, raErr := res.RowsAffected()
		if raErr != nil {
			return raErr
		}
		if affected == 0 {
			return fmt.Errorf("%w: credit %s already spent", ErrConflict, creditID)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	b.ID = id
	return nil
}

const bookingColumns = `id, user_id, service_date, tray_numbers, dishes, num_packets,
	freeze_dried_packets, freeze_dried_grams, delivery_method,
	dehydration_cost, packing_cost, vacuum_cost, freeze_dried_cost,
	subtotal, applied_credit, total_cost,
	payment_status, status, payment_order_id, payment_ref, admin_created,
	created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*model.Booking, error) {
	var (
		b          model.Booking
		traysJSON  []byte
		dishesJSON []byte
		fdPackets  sql.NullInt64
		fdGrams    sql.NullInt64
		orderID    sql.NullString
		paymentRef sql.NullString
	)
	err := row.Scan(&b.ID, &b.UserID, &b.ServiceDate, &traysJSON, &dishesJSON, &b.NumPackets,
		&fdPackets, &fdGrams, &b.DeliveryMethod,
		&b.DehydrationCost, &b.PackingCost, &b.VacuumCost, &b.FreezeDriedCost,
		&b.Subtotal, &b.AppliedCredit, &b.TotalCost,
		&b.PaymentStatus, &b.Status, &orderID, &paymentRef, &b.AdminCreated,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(traysJSON, &b.TrayNumbers); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(dishesJSON, &b.Dishes); err != nil {
		return nil, err
	}
	if fdPackets.Valid {
		b.FreezeDried = &model.FreezeDried{
			Packets:        int(fdPackets.Int64),
			GramsPerPacket: int(fdGrams.Int64),
		}
	}
	if orderID.Valid {
		b.PaymentOrderID = &orderID.String
	}
	if paymentRef.Valid {
		b.PaymentRef = &paymentRef.String
	}
	return &b, nil
}

// GetBooking fetches one booking by id.
func (r *BookingRepo) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b *model.Booking
	err := withRetry(ctx, func() error {
		row := r.DB.QueryRowContext(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE id = ? LIMIT 1`, id)
		var scanErr error
		b, scanErr = scanBooking(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	return b, err
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
}

// ListByDate returns every booking for a service date, admin grid order.
func (r *BookingRepo) ListByDate(ctx context.Context, date string) ([]*model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE service_date = ? ORDER BY created_at`,
		date)
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...interface{}) ([]*model.Booking, error) {
	var out []*model.Booking
	err := withRetry(ctx, func() error {
		rows, queryErr := r.DB.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			b, scanErr := scanBooking(rows)
			if scanErr != nil {
				return scanErr
			}
			out = append(out, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetPaymentStatus conditionally moves a booking's payment_status.  The
// update is guarded by allowedFrom, so concurrent writers cannot both
// transition the same row; the bool reports whether this call won.  When
// releaseTrays is set the booking's claims are deleted and any consumed
// credits are returned in the same transaction, so a failed payment frees
// the trays without forfeiting the customer's credit rows.
func (r *BookingRepo) SetPaymentStatus(ctx context.Context, id string, status model.PaymentStatus, allowedFrom []model.PaymentStatus, releaseTrays bool) (bool, error) {
	if len(allowedFrom) == 0 {
		return false, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(allowedFrom)), ",")
	args := []interface{}{string(status), id}
	for _, from := range allowedFrom {
		args = append(args, string(from))
	}

	tx, err := beginTx(ctx, r.DB)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET payment_status = ? WHERE id = ? AND payment_status IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, tx.Commit()
	}
	if releaseTrays {
		if _, err = tx.ExecContext(ctx, `DELETE FROM tray_slots WHERE booking_id = ?`, id); err != nil {
			return false, err
		}
		if err = returnCreditsTx(ctx, tx, id); err != nil {
			return false, err
		}
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// SetPaymentOrderID records the gateway order reference created at
// checkout so the later verification callback can be matched to the
// booking.
func (r *BookingRepo) SetPaymentOrderID(ctx context.Context, id, orderID string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET payment_order_id = ? WHERE id = ?`, orderID, id)
	return err
}

// SetPaymentRef records the gateway payment id after verification.
func (r *BookingRepo) SetPaymentRef(ctx context.Context, id, ref string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET payment_ref = ? WHERE id = ?`, ref, id)
	return err
}

// CancelWithCredit marks a paid, active booking cancelled, releases its
// tray claims and inserts the cancellation credit, all in one
// transaction.  The credit's ID is assigned here and written back into
// the supplied struct.
func (r *BookingRepo) CancelWithCredit(ctx context.Context, id string, credit *model.CancellationCredit) error {
	creditID, err := randomID(12)
	if err != nil {
		return err
	}

	tx, err := beginTx(ctx, r.DB)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = 'cancelled'
		  WHERE id = ? AND status = 'active' AND payment_status = 'completed'`,
		id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: booking %s is not cancellable", booking.ErrInvalidTransition, id)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM tray_slots WHERE booking_id = ?`, id); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO cancellation_credits
		   (id, user_id, amount, expiry_date, used, original_booking_id)
		 VALUES (?,?,?,?,0,?)`,
		creditID, credit.UserID, credit.Amount, credit.ExpiryDate, credit.OriginalBookingID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	credit.ID = creditID
	return nil
}
