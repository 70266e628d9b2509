package booking

import (
    "context"

    "github.com/devadeekshithgs-git/hukiciah/internal/model"
)

// LedgerStore is the durable record of bookings and their tray claims.
// CreateBooking must be atomic: the tray claims, the booking row and any
// credit consumption either all commit or none do, and a concurrent claim
// of an overlapping tray must surface as ErrTrayConflict.
type LedgerStore interface {
    // BookedTrays returns the trays occupied on a date, derived from
    // bookings with paymentStatus=completed and lifecycle=active only.
    BookedTrays(ctx context.Context, date string) ([]int, error)
    // ClaimedTrays returns every tray currently claimed on a date,
    // including fresh pending bookings that have not paid yet.  Used for
    // allocation so two checkouts cannot be handed the same tray.
    ClaimedTrays(ctx context.Context, date string) ([]int, error)
    // CreateBooking persists the booking, claims its trays and marks the
    // given credits used, all in one transaction.  It assigns b.ID and
    // timestamps.  Returns ErrTrayConflict when a tray claim loses a race.
    CreateBooking(ctx context.Context, b *model.Booking, creditIDs []string) error
    GetBooking(ctx context.Context, id string) (*model.Booking, error)
    // SetPaymentStatus performs a guarded transition: the row is updated
    // only if its current payment status is one of allowedFrom.  It
    // reports whether the update applied.  releaseTrays drops the tray
    // claims in the same transaction (used when a payment fails).
    SetPaymentStatus(ctx context.Context, id string, status model.PaymentStatus, allowedFrom []model.PaymentStatus, releaseTrays bool) (bool, error)
    // CancelWithCredit marks the booking cancelled, releases its tray
    // claims and inserts the credit, all in one transaction.
    CancelWithCredit(ctx context.Context, id string, credit *model.CancellationCredit) error
}

// CalendarStore loads the admin override for a date; nil means the date
// has no override.
type CalendarStore interface {
    Override(ctx context.Context, date string) (*model.CalendarOverride, error)
}

// CreditStore reads a customer's redeemable credits.  Consumption happens
// inside LedgerStore.CreateBooking so it stays atomic with the booking.
type CreditStore interface {
    // ActiveCredits returns unused credits whose expiry is on or after
    // onDate, ordered by soonest expiry first.
    ActiveCredits(ctx context.Context, userID uint64, onDate string) ([]model.CancellationCredit, error)
}
