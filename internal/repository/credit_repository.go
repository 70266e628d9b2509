package repository

import (
	"context"
	"database/sql"

	"github.com/devadeekshithgs-git/hukiciah/internal/model"
)

// CreditRepo provides read access to cancellation_credits.  Credits are
// written by BookingRepo inside the cancellation and booking transactions;
// this repo only queries them.
type CreditRepo struct{ DB *sql.DB }

func NewCreditRepo(db *sql.DB) *CreditRepo { return &CreditRepo{DB: db} }

const creditColumns = `id, user_id, amount, expiry_date, used, original_booking_id, used_in_booking_id, created_at`

func scanCredit(rows *sql.Rows) (model.CancellationCredit, error) {
	var (
		c      model.CancellationCredit
		usedIn sql.NullString
	)
	err := rows.Scan(&c.ID, &c.UserID, &c.Amount, &c.ExpiryDate, &c.Used,
		&c.OriginalBookingID, &usedIn, &c.CreatedAt)
	if usedIn.Valid {
		c.UsedInBookingID = &usedIn.String
	}
	return c, err
}

// ActiveCredits returns the user's unspent, unexpired credits ordered by
// soonest expiry.  Redemption consumes rows in this order so credits are
// spent before they lapse.
func (r *CreditRepo) ActiveCredits(ctx context.Context, userID uint64, onDate string) ([]model.CancellationCredit, error) {
	return r.list(ctx,
		`SELECT `+creditColumns+`
		   FROM cancellation_credits
		  WHERE user_id = ? AND used = 0 AND expiry_date >= ?
		  ORDER BY expiry_date, created_at`,
		userID, onDate)
}

// ListByUser returns the user's full credit history, spent and expired
// rows included, newest first.
func (r *CreditRepo) ListByUser(ctx context.Context, userID uint64) ([]model.CancellationCredit, error) {
	return r.list(ctx,
		`SELECT `+creditColumns+`
		   FROM cancellation_credits
		  WHERE user_id = ?
		  ORDER BY created_at DESC`,
		userID)
}

func (r *CreditRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.CancellationCredit, error) {
	var out []model.CancellationCredit
	err := withRetry(ctx, func() error {
		rows, queryErr := r.DB.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		out = nil
		for rows.Next() {
			c, scanErr := scanCredit(rows)
			if scanErr != nil {
				return scanErr
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
