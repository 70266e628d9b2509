package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDerivesFreeSet(t *testing.T) {
	r := Resolver{PoolCapacity: 10, PerBookingLimit: 5}
	av := r.Compute([]int{2, 4, 4, 99, 0}, []int{7})
	assert.Equal(t, []int{2, 4}, av.Booked)
	assert.Equal(t, []int{7}, av.Blocked)
	assert.Equal(t, []int{1, 3, 5, 6, 8, 9, 10}, av.Free)
}

func TestComputeEmptyInputs(t *testing.T) {
	r := Resolver{PoolCapacity: 3, PerBookingLimit: 3}
	av := r.Compute(nil, nil)
	assert.Empty(t, av.Booked)
	assert.Empty(t, av.Blocked)
	assert.Equal(t, []int{1, 2, 3}, av.Free)
}

func TestAutoSelectIsDeterministic(t *testing.T) {
	r := NewResolver()
	av := r.Compute([]int{1, 2, 5}, nil)

	first, err := r.AutoSelect(av, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 6}, first)

	// Re-running against the same availability yields the same pick.
	again, err := r.AutoSelect(av, 3)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestAutoSelectInsufficientCapacity(t *testing.T) {
	r := Resolver{PoolCapacity: 4, PerBookingLimit: 4}
	av := r.Compute([]int{1, 2, 3}, nil)

	_, err := r.AutoSelect(av, 2)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
}

func TestAutoSelectRejectsNonPositiveCount(t *testing.T) {
	r := NewResolver()
	av := r.Compute(nil, nil)
	_, err := r.AutoSelect(av, 0)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestManualSelectValidatesFreeSet(t *testing.T) {
	r := NewResolver()
	av := r.Compute([]int{2}, []int{5})

	picked, err := r.ManualSelect(av, []int{9, 1, 3}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 9}, picked)

	_, err = r.ManualSelect(av, []int{1, 2}, 2)
	assert.ErrorIs(t, err, ErrInvalidSelection, "booked tray")

	_, err = r.ManualSelect(av, []int{1, 5}, 2)
	assert.ErrorIs(t, err, ErrInvalidSelection, "blocked tray")

	_, err = r.ManualSelect(av, []int{1, 1}, 2)
	assert.ErrorIs(t, err, ErrInvalidSelection, "duplicate tray")

	_, err = r.ManualSelect(av, []int{1, 3}, 3)
	assert.ErrorIs(t, err, ErrInvalidSelection, "count mismatch")
}
