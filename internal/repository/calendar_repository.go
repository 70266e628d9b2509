package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/devadeekshithgs-git/hukiciah/internal/model"
)

// CalendarRepo provides data access to the calendar_config table, one row
// per admin-configured date.  Dates with no row fall back entirely to the
// built-in policy; Get returns nil for them rather than a zero override.
type CalendarRepo struct{ DB *sql.DB }

func NewCalendarRepo(db *sql.DB) *CalendarRepo { return &CalendarRepo{DB: db} }

// Override implements booking.CalendarStore.
func (r *CalendarRepo) Override(ctx context.Context, date string) (*model.CalendarOverride, error) {
	var (
		ov          model.CalendarOverride
		notice      sql.NullString
		blockedJSON []byte
	)
	err := withRetry(ctx, func() error {
		return r.DB.QueryRowContext(ctx,
			`SELECT date, is_holiday, notice, blocked_trays, updated_by, created_at, updated_at
			   FROM calendar_config WHERE date = ? LIMIT 1`,
			date).Scan(&ov.Date, &ov.IsHoliday, &notice, &blockedJSON, &ov.UpdatedBy, &ov.CreatedAt, &ov.UpdatedAt)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if notice.Valid {
		ov.Notice = &notice.String
	}
	if len(blockedJSON) > 0 {
		if err = json.Unmarshal(blockedJSON, &ov.BlockedTrays); err != nil {
			return nil, err
		}
	}
	return &ov, nil
}

// Upsert writes an admin override for a date, replacing any previous one.
func (r *CalendarRepo) Upsert(ctx context.Context, ov *model.CalendarOverride) error {
	blockedJSON, err := json.Marshal(ov.BlockedTrays)
	if err != nil {
		return err
	}
	var notice interface{}
	if ov.Notice != nil {
		notice = *ov.Notice
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO calendar_config (date, is_holiday, notice, blocked_trays, updated_by)
		 VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		   is_holiday = VALUES(is_holiday),
		   notice = VALUES(notice),
		   blocked_trays = VALUES(blocked_trays),
		   updated_by = VALUES(updated_by)`,
		ov.Date, ov.IsHoliday, notice, blockedJSON, ov.UpdatedBy)
	return err
}

// Delete removes a date's override, restoring the built-in policy.
func (r *CalendarRepo) Delete(ctx context.Context, date string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM calendar_config WHERE date = ?`, date)
	return err
}
