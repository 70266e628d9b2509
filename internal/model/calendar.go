package model

import "time"

// CalendarOverride is the admin-entered configuration for a single date.
// At most one row exists per date; the absence of a row means the date is
// open with no blocked trays.  Customers can never write this record.
//
// Fields:
//  Date         – calendar date, formatted YYYY-MM-DD (primary key).
//  IsHoliday    – when true the date accepts no bookings at all.
//  Notice       – optional message shown alongside the date.
//  BlockedTrays – tray numbers withheld from the pool on this date.
//  UpdatedBy    – admin user that last wrote the row.
type CalendarOverride struct {
    Date         string    `json:"date"`
    IsHoliday    bool      `json:"is_holiday"`
    Notice       *string   `json:"notice,omitempty"`
    BlockedTrays []int     `json:"blocked_trays"`
    UpdatedBy    uint64    `json:"updated_by"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}
