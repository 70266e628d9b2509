package booking

import (
    "context"
    "fmt"
    "time"

    "github.com/devadeekshithgs-git/hukiciah/internal/calendar"
    "github.com/devadeekshithgs-git/hukiciah/internal/model"
    "github.com/devadeekshithgs-git/hukiciah/internal/pricing"
    "github.com/devadeekshithgs-git/hukiciah/internal/tray"
)

// Service wires the calendar policy, tray resolver and pricing engine over
// the durable stores.  All methods take the acting user explicitly; the
// service never reads an ambient identity.
type Service struct {
    ledger  LedgerStore
    cal     CalendarStore
    credits CreditStore

    Resolver tray.Resolver
    Policy   calendar.Policy

    // now is injectable for tests; defaults to time.Now.
    now func() time.Time
}

// NewService builds a Service with the production pool geometry.
func NewService(ledger LedgerStore, cal CalendarStore, credits CreditStore) *Service {
    return &Service{
        ledger:   ledger,
        cal:      cal,
        credits:  credits,
        Resolver: tray.NewResolver(),
        now:      time.Now,
    }
}

// Now returns the service's current time. It follows the injected clock
// so handlers and the service agree on what "today" means.
func (s *Service) Now() time.Time { return s.now() }

// Availability derives the occupancy of one date.  Booked trays count only
// paid, active bookings; pending checkouts never appear here.
func (s *Service) Availability(ctx context.Context, date string) (tray.Availability, *model.CalendarOverride, error) {
    ov, err := s.cal.Override(ctx, date)
    if err != nil {
        return tray.Availability{}, nil, err
    }
    booked, err := s.ledger.BookedTrays(ctx, date)
    if err != nil {
        return tray.Availability{}, nil, err
    }
    return s.Resolver.Compute(booked, s.Policy.BlockedTrays(ov)), ov, nil
}

// AllocateRequest describes one allocation attempt.  ExplicitTrays nil
// means auto mode (lowest-numbered free trays); non-nil means the caller
// picked the trays manually.
type AllocateRequest struct {
    Date          string
    TrayCount     int
    ExplicitTrays []int
    AsAdmin       bool
}

// Allocate selects trays for a prospective booking.  It applies the
// calendar policy, the special-weekday minimum and the per-booking cap
// before selecting from the free set.  Admin callers bypass the policy
// gates but never the disjointness rules.
func (s *Service) Allocate(ctx context.Context, req AllocateRequest) ([]int, error) {
    ov, err := s.cal.Override(ctx, req.Date)
    if err != nil {
        return nil, err
    }
    return s.allocate(ctx, req, ov)
}

func (s *Service) allocate(ctx context.Context, req AllocateRequest, ov *model.CalendarOverride) ([]int, error) {
    if !req.AsAdmin {
        if err := s.Policy.IsBookable(req.Date, ov, s.now()); err != nil {
            return nil, err
        }
        if req.TrayCount > s.Resolver.PerBookingLimit {
            return nil, fmt.Errorf("%w: at most %d trays per booking", tray.ErrInvalidSelection, s.Resolver.PerBookingLimit)
        }
        if min := s.Policy.MinimumTrays(req.Date); min > 0 {
            booked, err := s.ledger.BookedTrays(ctx, req.Date)
            if err != nil {
                return nil, err
            }
            // The threshold is cumulative: once booked plus requested
            // trays reach it the day is worth running, regardless of how
            // small this individual request is.
            if len(booked)+req.TrayCount < min {
                return nil, fmt.Errorf("%w: %d booked, %d requested, %d required",
                    ErrBelowMinimumThreshold, len(booked), req.TrayCount, min)
            }
        }
    }
    // Allocation works against every live claim, pending checkouts
    // included, so two concurrent wizards are not handed the same trays.
    claimed, err := s.ledger.ClaimedTrays(ctx, req.Date)
    if err != nil {
        return nil, err
    }
    av := s.Resolver.Compute(claimed, s.Policy.BlockedTrays(ov))
    if req.ExplicitTrays != nil {
        return s.Resolver.ManualSelect(av, req.ExplicitTrays, req.TrayCount)
    }
    return s.Resolver.AutoSelect(av, req.TrayCount)
}

// CreateInput carries everything needed to create a booking.  TrayCount is
// derived from the dish lines by the handler; ExplicitTrays is only set on
// the admin path.
type CreateInput struct {
    UserID         uint64
    Date           string
    Dishes         model.DishLines
    NumPackets     int
    FreezeDried    *model.FreezeDried
    DeliveryMethod string
    ApplyCredit    bool
    ExplicitTrays  []int
    AdminCreated   bool
}

// Create allocates trays, prices the booking and persists it in pending
// payment state.  Tray claims are revalidated at commit time inside the
// store transaction; losing that race returns ErrTrayConflict and the
// caller should re-run allocation.  The payment gateway is contacted only
// after this returns, never inside the claim transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Booking, error) {
    trayCount := in.Dishes.TotalTrays()
    ov, err := s.cal.Override(ctx, in.Date)
    if err != nil {
        return nil, err
    }
    trays, err := s.allocate(ctx, AllocateRequest{
        Date:          in.Date,
        TrayCount:     trayCount,
        ExplicitTrays: in.ExplicitTrays,
        AsAdmin:       in.AdminCreated,
    }, ov)
    if err != nil {
        return nil, err
    }

    fdPackets, fdGrams := 0, 0
    if in.FreezeDried != nil {
        fdPackets, fdGrams = in.FreezeDried.Packets, in.FreezeDried.GramsPerPacket
    }
    quote := pricing.Quote(trayCount, in.NumPackets, in.Dishes.VacuumLines(), fdPackets, fdGrams, 0)

    var creditIDs []string
    if in.ApplyCredit {
        today := s.now().Format(calendar.DateLayout)
        available, err := s.credits.ActiveCredits(ctx, in.UserID, today)
        if err != nil {
            return nil, err
        }
        var applied int
        creditIDs, applied = selectCredits(available, quote.Subtotal)
        quote.CreditApplied = applied
        quote.Total = quote.Subtotal - applied
        if quote.Total < 0 {
            quote.Total = 0
        }
    }

    b := &model.Booking{
        UserID:          in.UserID,
        ServiceDate:     in.Date,
        TrayNumbers:     trays,
        Dishes:          in.Dishes,
        NumPackets:      in.NumPackets,
        FreezeDried:     in.FreezeDried,
        DeliveryMethod:  in.DeliveryMethod,
        DehydrationCost: quote.Dehydration,
        PackingCost:     quote.Packing,
        VacuumCost:      quote.Vacuum,
        FreezeDriedCost: quote.FreezeDried,
        Subtotal:        quote.Subtotal,
        AppliedCredit:   quote.CreditApplied,
        TotalCost:       quote.Total,
        PaymentStatus:   model.PaymentPending,
        Status:          model.BookingActive,
        AdminCreated:    in.AdminCreated,
    }
    if err := s.ledger.CreateBooking(ctx, b, creditIDs); err != nil {
        return nil, err
    }
    return b, nil
}

// selectCredits picks whole credit rows, soonest expiry first, until the
// subtotal is covered or the rows run out.  Rows are never split; the
// applied amount is capped at the subtotal, so overshoot on the last row
// is forfeited.
func selectCredits(available []model.CancellationCredit, subtotal int) ([]string, int) {
    if subtotal <= 0 || len(available) == 0 {
        return nil, 0
    }
    var (
        ids     []string
        covered int
    )
    for _, c := range available {
        if covered >= subtotal {
            break
        }
        ids = append(ids, c.ID)
        covered += c.Amount
    }
    if covered > subtotal {
        covered = subtotal
    }
    return ids, covered
}

// statusRaceAttempts bounds how often a payment transition is retried
// after losing the guarded update to a concurrent writer.  One re-read is
// normally enough; the bound only guards against a store that keeps
// reporting pending while rejecting the update.
const statusRaceAttempts = 3

// MarkPaymentCompleted transitions a pending booking to completed.  The
// call is idempotent: completing an already-completed booking is a no-op.
func (s *Service) MarkPaymentCompleted(ctx context.Context, id string, callerID uint64, asAdmin bool) (*model.Booking, error) {
    for attempt := 0; attempt < statusRaceAttempts; attempt++ {
        b, err := s.authorize(ctx, id, callerID, asAdmin)
        if err != nil {
            return nil, err
        }
        switch b.PaymentStatus {
        case model.PaymentCompleted:
            return b, nil
        case model.PaymentFailed:
            return nil, fmt.Errorf("%w: payment already failed", ErrInvalidTransition)
        }
        ok, err := s.ledger.SetPaymentStatus(ctx, id, model.PaymentCompleted,
            []model.PaymentStatus{model.PaymentPending}, false)
        if err != nil {
            return nil, err
        }
        if ok {
            b.PaymentStatus = model.PaymentCompleted
            return b, nil
        }
        // Lost the guarded update to another writer; re-read and decide
        // on the next pass.
    }
    return nil, fmt.Errorf("%w: payment status changed concurrently", ErrInvalidTransition)
}

// MarkPaymentFailed transitions a pending booking to failed, releasing its
// tray claims and returning any consumed credits.  Failing an
// already-failed booking is a no-op; failing a completed one is rejected.
func (s *Service) MarkPaymentFailed(ctx context.Context, id string, callerID uint64, asAdmin bool) error {
    for attempt := 0; attempt < statusRaceAttempts; attempt++ {
        b, err := s.authorize(ctx, id, callerID, asAdmin)
        if err != nil {
            return err
        }
        switch b.PaymentStatus {
        case model.PaymentFailed:
            return nil
        case model.PaymentCompleted:
            return fmt.Errorf("%w: payment already completed", ErrInvalidTransition)
        }
        ok, err := s.ledger.SetPaymentStatus(ctx, id, model.PaymentFailed,
            []model.PaymentStatus{model.PaymentPending}, true)
        if err != nil {
            return err
        }
        if ok {
            return nil
        }
    }
    return fmt.Errorf("%w: payment status changed concurrently", ErrInvalidTransition)
}

// Cancel marks a paid, active, not-yet-served booking cancelled and issues
// a credit worth half its subtotal, valid for six months.  The booking's
// trays become free on the next availability read because occupancy is
// derived from active bookings only.
func (s *Service) Cancel(ctx context.Context, id string, callerID uint64, asAdmin bool) (*model.CancellationCredit, error) {
    b, err := s.authorize(ctx, id, callerID, asAdmin)
    if err != nil {
        return nil, err
    }
    if b.Status != model.BookingActive {
        return nil, fmt.Errorf("%w: booking already cancelled", ErrInvalidTransition)
    }
    if b.PaymentStatus != model.PaymentCompleted {
        return nil, fmt.Errorf("%w: only paid bookings can be cancelled", ErrInvalidTransition)
    }
    now := s.now()
    today := now.Format(calendar.DateLayout)
    if b.ServiceDate < today {
        return nil, fmt.Errorf("%w: service date has passed", ErrInvalidTransition)
    }
    credit := &model.CancellationCredit{
        UserID:            b.UserID,
        Amount:            pricing.CreditForCancellation(b.Subtotal),
        ExpiryDate:        now.AddDate(0, 6, 0).Format(calendar.DateLayout),
        OriginalBookingID: b.ID,
    }
    if err := s.ledger.CancelWithCredit(ctx, id, credit); err != nil {
        return nil, err
    }
    return credit, nil
}

// CreditBalance returns a customer's redeemable credits and their total.
func (s *Service) CreditBalance(ctx context.Context, userID uint64) ([]model.CancellationCredit, int, error) {
    today := s.now().Format(calendar.DateLayout)
    credits, err := s.credits.ActiveCredits(ctx, userID, today)
    if err != nil {
        return nil, 0, err
    }
    total := 0
    for _, c := range credits {
        total += c.Amount
    }
    return credits, total, nil
}

// authorize loads a booking and enforces ownership.
func (s *Service) authorize(ctx context.Context, id string, callerID uint64, asAdmin bool) (*model.Booking, error) {
    b, err := s.ledger.GetBooking(ctx, id)
    if err != nil {
        return nil, err
    }
    if !asAdmin && b.UserID != callerID {
        return nil, ErrUnauthorized
    }
    return b, nil
}
