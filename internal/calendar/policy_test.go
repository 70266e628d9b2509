package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devadeekshithgs-git/hukiciah/internal/model"
)

// Monday 2025-03-03, 10:00 UTC.
var monMorning = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func TestIsBookableOrdinaryWeekday(t *testing.T) {
	p := Policy{}
	assert.NoError(t, p.IsBookable("2025-03-05", nil, monMorning))
}

func TestIsBookableRejectsPastDate(t *testing.T) {
	p := Policy{}
	err := p.IsBookable("2025-03-02", nil, monMorning)
	assert.ErrorIs(t, err, ErrDateClosed)
}

func TestIsBookableSameDayCutoff(t *testing.T) {
	p := Policy{}
	// Same day before 13:00 is fine.
	assert.NoError(t, p.IsBookable("2025-03-03", nil, monMorning))
	// At and after 13:00 it closes.
	afternoon := time.Date(2025, 3, 3, 13, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, p.IsBookable("2025-03-03", nil, afternoon), ErrDateClosed)
	// Tomorrow stays open regardless of the hour.
	assert.NoError(t, p.IsBookable("2025-03-04", nil, afternoon))
}

func TestIsBookableWeeklyOffDay(t *testing.T) {
	p := Policy{}
	err := p.IsBookable("2025-03-09", nil, monMorning) // Sunday
	assert.ErrorIs(t, err, ErrDateClosed)
}

func TestIsBookableFixedHoliday(t *testing.T) {
	p := Policy{}
	err := p.IsBookable("2025-03-14", nil, monMorning) // Holi
	assert.ErrorIs(t, err, ErrDateClosed)
	assert.True(t, IsHoliday("2025-03-14"))
	assert.False(t, IsHoliday("2025-03-15"))
}

func TestIsBookableAdminHolidayOverride(t *testing.T) {
	p := Policy{}
	ov := &model.CalendarOverride{Date: "2025-03-05", IsHoliday: true}
	assert.ErrorIs(t, p.IsBookable("2025-03-05", ov, monMorning), ErrDateClosed)

	// A non-holiday override with only blocked trays keeps the date open.
	ov = &model.CalendarOverride{Date: "2025-03-05", BlockedTrays: []int{1, 2}}
	assert.NoError(t, p.IsBookable("2025-03-05", ov, monMorning))
}

func TestIsBookableRejectsMalformedDate(t *testing.T) {
	p := Policy{}
	assert.ErrorIs(t, p.IsBookable("05-03-2025", nil, monMorning), ErrDateClosed)
}

func TestIsBookableHonorsLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	p := Policy{Loc: loc}
	// 08:00 UTC is 13:30 in Kolkata, past the same-day cutoff there.
	now := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, p.IsBookable("2025-03-03", nil, now), ErrDateClosed)
}

func TestMinimumTrays(t *testing.T) {
	p := Policy{}
	assert.Equal(t, SpecialWeekdayMinTrays, p.MinimumTrays("2025-03-08")) // Saturday
	assert.Equal(t, 0, p.MinimumTrays("2025-03-05"))
	assert.Equal(t, 0, p.MinimumTrays("not-a-date"))
}

func TestBlockedTrays(t *testing.T) {
	p := Policy{}
	assert.Nil(t, p.BlockedTrays(nil))
	ov := &model.CalendarOverride{BlockedTrays: []int{3, 7}}
	assert.Equal(t, []int{3, 7}, p.BlockedTrays(ov))
}
