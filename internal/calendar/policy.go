// Package calendar decides whether a service date accepts bookings at all
// and which date-level restrictions apply.  It is pure: the caller loads
// any admin override and supplies the current time, so the policy can be
// exercised in tests without a database or wall clock.
package calendar

import (
    "errors"
    "fmt"
    "time"

    "github.com/devadeekshithgs-git/hukiciah/internal/model"
)

// DateLayout is the wire and storage format for service dates.
const DateLayout = "2006-01-02"

const (
    // WeeklyOffDay is the fixed weekly closure; no drying runs on Sundays.
    WeeklyOffDay = time.Sunday
    // SpecialWeekday carries a minimum-tray threshold to make the run
    // worthwhile; Saturday orders are delivered the following Monday.
    SpecialWeekday = time.Saturday
    // SpecialWeekdayMinTrays is the Saturday threshold.  The rule is
    // cumulative: a request passes once booked + requested trays reach it.
    SpecialWeekdayMinTrays = 6
    // OrderCutoffHour is the local hour after which same-day orders are no
    // longer accepted (1 PM).
    OrderCutoffHour = 13
)

// ErrDateClosed is returned when a date takes no bookings: past date,
// weekly off-day, fixed holiday, admin holiday override, or a same-day
// request past the acceptance cutoff.
var ErrDateClosed = errors.New("date closed for bookings")

// holidays lists the fixed annual closures (Indian national holidays).
var holidays = map[string]bool{
    "2025-01-26": true, // Republic Day
    "2025-03-14": true, // Holi
    "2025-03-31": true, // Eid-ul-Fitr
    "2025-04-10": true, // Mahavir Jayanti
    "2025-04-14": true, // Ambedkar Jayanti
    "2025-04-18": true, // Good Friday
    "2025-05-01": true, // May Day
    "2025-06-07": true, // Eid-ul-Adha
    "2025-08-15": true, // Independence Day
    "2025-08-27": true, // Janmashtami
    "2025-10-02": true, // Gandhi Jayanti
    "2025-10-20": true, // Dussehra
    "2025-11-01": true, // Diwali
    "2025-11-05": true, // Guru Nanak Jayanti
    "2025-12-25": true, // Christmas
}

// IsHoliday reports whether the date string is on the fixed holiday list.
func IsHoliday(date string) bool { return holidays[date] }

// ParseDate parses a YYYY-MM-DD service date in the given location.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
    if loc == nil {
        loc = time.UTC
    }
    t, err := time.ParseInLocation(DateLayout, date, loc)
    if err != nil {
        return time.Time{}, fmt.Errorf("invalid service date %q: %w", date, err)
    }
    return t, nil
}

// Policy evaluates date-level booking rules.  Loc is the business's local
// time zone; a nil Loc falls back to UTC.
type Policy struct {
    Loc *time.Location
}

// IsBookable returns nil when the date accepts bookings, or ErrDateClosed
// (wrapped with the reason) otherwise.  The override may be nil when the
// admin has not configured the date.
func (p Policy) IsBookable(date string, ov *model.CalendarOverride, now time.Time) error {
    loc := p.Loc
    if loc == nil {
        loc = time.UTC
    }
    day, err := ParseDate(date, loc)
    if err != nil {
        return fmt.Errorf("%w: %v", ErrDateClosed, err)
    }
    now = now.In(loc)
    today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
    if day.Before(today) {
        return fmt.Errorf("%w: date is in the past", ErrDateClosed)
    }
    if day.Equal(today) && now.Hour() >= OrderCutoffHour {
        return fmt.Errorf("%w: same-day orders close at %d:00", ErrDateClosed, OrderCutoffHour)
    }
    if day.Weekday() == WeeklyOffDay {
        return fmt.Errorf("%w: weekly off-day", ErrDateClosed)
    }
    if IsHoliday(date) {
        return fmt.Errorf("%w: holiday", ErrDateClosed)
    }
    if ov != nil && ov.IsHoliday {
        return fmt.Errorf("%w: marked holiday by admin", ErrDateClosed)
    }
    return nil
}

// BlockedTrays returns the admin-blocked tray numbers for the date, or an
// empty set when no override exists.
func (p Policy) BlockedTrays(ov *model.CalendarOverride) []int {
    if ov == nil {
        return nil
    }
    return ov.BlockedTrays
}

// MinimumTrays returns the minimum-tray threshold for the date, or 0 when
// none applies.
func (p Policy) MinimumTrays(date string) int {
    day, err := ParseDate(date, p.Loc)
    if err != nil {
        return 0
    }
    if day.Weekday() == SpecialWeekday {
        return SpecialWeekdayMinTrays
    }
    return 0
}
