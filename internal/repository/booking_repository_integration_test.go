//go:build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devadeekshithgs-git/hukiciah/internal/booking"
	"github.com/devadeekshithgs-git/hukiciah/internal/model"
)

// These tests exercise the real tray_slots unique key and the credit
// return path against MySQL.  Run them with:
//
//	TEST_DB_DSN='user:pass@tcp(127.0.0.1:3306)/hukiciah_test?parseTime=true&loc=UTC' \
//	  go test -tags integration ./internal/repository/
//
// The database must already have migrations/001_init.sql applied.

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB) uint64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO users (email, password_hash) VALUES (?, 'x')`,
		fmt.Sprintf("it-%d@example.test", time.Now().UnixNano()))
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

func wipeDate(t *testing.T, db *sql.DB, date string) {
	t.Helper()
	_, err := db.Exec(`DELETE FROM tray_slots WHERE service_date = ?`, date)
	require.NoError(t, err)
	_, err = db.Exec(
		`DELETE FROM cancellation_credits
		  WHERE original_booking_id IN (SELECT id FROM bookings WHERE service_date = ?)`, date)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM bookings WHERE service_date = ?`, date)
	require.NoError(t, err)
}

func testBooking(userID uint64, date string, trays []int) *model.Booking {
	return &model.Booking{
		UserID:          userID,
		ServiceDate:     date,
		TrayNumbers:     trays,
		Dishes:          model.DishLines{{Name: "tomato", Trays: len(trays)}},
		DeliveryMethod:  "pickup",
		DehydrationCost: 350 * len(trays),
		Subtotal:        350 * len(trays),
		TotalCost:       350 * len(trays),
		PaymentStatus:   model.PaymentPending,
		Status:          model.BookingActive,
	}
}

func TestCreateBookingConcurrentTrayClaim(t *testing.T) {
	db := openTestDB(t)
	repo := NewBookingRepo(db)
	userID := seedUser(t, db)

	const date = "2031-04-07"
	wipeDate(t, db, date)
	t.Cleanup(func() { wipeDate(t, db, date) })

	// Both bookings want tray 7 on the same date.  The unique key on
	// tray_slots must let exactly one of them through.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			errs[i] = repo.CreateBooking(context.Background(), testBooking(userID, date, []int{7}), nil)
		}(i)
	}
	start.Done()
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			assert.ErrorIs(t, err, booking.ErrTrayConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	var held int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM tray_slots WHERE service_date = ? AND tray_number = 7`, date).Scan(&held))
	assert.Equal(t, 1, held)
}

func TestFailedPaymentReturnsConsumedCredits(t *testing.T) {
	db := openTestDB(t)
	repo := NewBookingRepo(db)
	userID := seedUser(t, db)
	ctx := context.Background()

	const date = "2031-04-08"
	wipeDate(t, db, date)
	t.Cleanup(func() { wipeDate(t, db, date) })

	// A prior cancelled booking left the customer a credit row.
	origin := testBooking(userID, date, []int{20})
	require.NoError(t, repo.CreateBooking(ctx, origin, nil))
	_, err := db.Exec(
		`INSERT INTO cancellation_credits (id, user_id, amount, expiry_date, used, original_booking_id)
		 VALUES ('it_credit_00000000000001', ?, 500, '2031-12-31', 0, ?)`,
		userID, origin.ID)
	require.NoError(t, err)

	// A new booking consumes the credit, then its payment fails.
	b := testBooking(userID, date, []int{1, 2})
	require.NoError(t, repo.CreateBooking(ctx, b, []string{"it_credit_00000000000001"}))

	var used int
	require.NoError(t, db.QueryRow(
		`SELECT used FROM cancellation_credits WHERE id = 'it_credit_00000000000001'`).Scan(&used))
	require.Equal(t, 1, used)

	won, err := repo.SetPaymentStatus(ctx, b.ID, model.PaymentFailed,
		[]model.PaymentStatus{model.PaymentPending}, true)
	require.NoError(t, err)
	require.True(t, won)

	var usedIn sql.NullString
	require.NoError(t, db.QueryRow(
		`SELECT used, used_in_booking_id FROM cancellation_credits WHERE id = 'it_credit_00000000000001'`).
		Scan(&used, &usedIn))
	assert.Equal(t, 0, used)
	assert.False(t, usedIn.Valid)

	var slots int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM tray_slots WHERE booking_id = ?`, b.ID).Scan(&slots))
	assert.Zero(t, slots)
}
