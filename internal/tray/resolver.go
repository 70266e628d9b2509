// Package tray computes per-date tray availability and selects trays for a
// booking.  The resolver is pure: booked and blocked sets are supplied by
// the caller, so identical inputs always produce identical output.
package tray

import (
    "errors"
    "fmt"
    "sort"
)

const (
    // DefaultPoolCapacity is the number of physical trays in the drying
    // room, shown on the admin grid.
    DefaultPoolCapacity = 50
    // DefaultPerBookingLimit caps how many trays a single customer booking
    // may claim.  The pool size and the purchase cap are deliberately two
    // separate values; multiple bookings may together exceed the cap.
    DefaultPerBookingLimit = 24
)

var (
    // ErrInsufficientCapacity is returned when fewer free trays remain
    // than the booking requires.
    ErrInsufficientCapacity = errors.New("not enough free trays")
    // ErrInvalidSelection is returned when a manual tray pick names trays
    // that are not free, duplicates trays, or mismatches the required count.
    ErrInvalidSelection = errors.New("invalid tray selection")
)

// Availability is the derived occupancy of one service date.  All three
// slices are ascending.  Free is exactly the pool minus booked and blocked.
type Availability struct {
    Booked  []int `json:"booked_trays"`
    Blocked []int `json:"blocked_trays"`
    Free    []int `json:"free_trays"`
}

// Resolver holds the pool geometry.  The zero value is unusable; build one
// with NewResolver and override the fields for tests.
type Resolver struct {
    PoolCapacity    int
    PerBookingLimit int
}

// NewResolver returns a resolver with the production pool geometry.
func NewResolver() Resolver {
    return Resolver{PoolCapacity: DefaultPoolCapacity, PerBookingLimit: DefaultPerBookingLimit}
}

// Compute derives the availability for one date.  Tray numbers outside
// 1..PoolCapacity are ignored; duplicates collapse.  Occupancy is always
// recomputed from the inputs, never cached or counted separately.
func (r Resolver) Compute(booked, blocked []int) Availability {
    inPool := func(n int) bool { return n >= 1 && n <= r.PoolCapacity }
    bookedSet := make(map[int]bool, len(booked))
    for _, n := range booked {
        if inPool(n) {
            bookedSet[n] = true
        }
    }
    blockedSet := make(map[int]bool, len(blocked))
    for _, n := range blocked {
        if inPool(n) {
            blockedSet[n] = true
        }
    }
    av := Availability{
        Booked:  setToSorted(bookedSet),
        Blocked: setToSorted(blockedSet),
        Free:    make([]int, 0, r.PoolCapacity),
    }
    for n := 1; n <= r.PoolCapacity; n++ {
        if !bookedSet[n] && !blockedSet[n] {
            av.Free = append(av.Free, n)
        }
    }
    return av
}

// AutoSelect picks the first count free trays in ascending order.  The
// pick is deterministic so that re-running allocation after a lost race
// yields a reproducible result.
func (r Resolver) AutoSelect(av Availability, count int) ([]int, error) {
    if count <= 0 {
        return nil, fmt.Errorf("%w: tray count must be positive", ErrInvalidSelection)
    }
    if len(av.Free) < count {
        return nil, fmt.Errorf("%w: need %d, %d free", ErrInsufficientCapacity, count, len(av.Free))
    }
    picked := make([]int, count)
    copy(picked, av.Free[:count])
    return picked, nil
}

// ManualSelect validates an explicit tray pick of exactly count trays, all
// drawn from the free set, and returns it sorted ascending.
func (r Resolver) ManualSelect(av Availability, trays []int, count int) ([]int, error) {
    if count <= 0 || len(trays) != count {
        return nil, fmt.Errorf("%w: expected exactly %d trays, got %d", ErrInvalidSelection, count, len(trays))
    }
    free := make(map[int]bool, len(av.Free))
    for _, n := range av.Free {
        free[n] = true
    }
    seen := make(map[int]bool, len(trays))
    picked := make([]int, 0, len(trays))
    for _, n := range trays {
        if seen[n] {
            return nil, fmt.Errorf("%w: tray %d listed twice", ErrInvalidSelection, n)
        }
        seen[n] = true
        if !free[n] {
            return nil, fmt.Errorf("%w: tray %d is not free", ErrInvalidSelection, n)
        }
        picked = append(picked, n)
    }
    sort.Ints(picked)
    return picked, nil
}

func setToSorted(set map[int]bool) []int {
    out := make([]int, 0, len(set))
    for n := range set {
        out = append(out, n)
    }
    sort.Ints(out)
    return out
}
