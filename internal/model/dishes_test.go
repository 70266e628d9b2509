package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDishLinesDecodesListForm(t *testing.T) {
	payload := `[
		{"name":"tomato","trays":2,"packets":4,"vacuum_packing":true,"vacuum_packets":4},
		{"name":"mango","trays":3}
	]`
	var d DishLines
	require.NoError(t, json.Unmarshal([]byte(payload), &d))
	require.Len(t, d, 2)
	assert.Equal(t, "tomato", d[0].Name)
	assert.Equal(t, 5, d.TotalTrays())
	assert.Equal(t, []int{4}, d.VacuumLines())
}

func TestDishLinesDecodesLegacyMapForm(t *testing.T) {
	payload := `{"tomato":2,"mango":3,"banana":1}`
	var d DishLines
	require.NoError(t, json.Unmarshal([]byte(payload), &d))
	require.Len(t, d, 3)
	// Map rows are normalized to name order.
	assert.Equal(t, "banana", d[0].Name)
	assert.Equal(t, "mango", d[1].Name)
	assert.Equal(t, "tomato", d[2].Name)
	assert.Equal(t, 6, d.TotalTrays())
	assert.Empty(t, d.VacuumLines())
}

func TestDishLinesRejectsOtherShapes(t *testing.T) {
	var d DishLines
	assert.Error(t, json.Unmarshal([]byte(`"tomato"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`42`), &d))
}

func TestBookingOccupiesTrays(t *testing.T) {
	b := Booking{PaymentStatus: PaymentCompleted, Status: BookingActive}
	assert.True(t, b.OccupiesTrays())

	b.Status = BookingCancelled
	assert.False(t, b.OccupiesTrays())

	b = Booking{PaymentStatus: PaymentPending, Status: BookingActive}
	assert.False(t, b.OccupiesTrays())
}
