package booking

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"

    "github.com/devadeekshithgs-git/hukiciah/internal/calendar"
    "github.com/devadeekshithgs-git/hukiciah/internal/model"
    "github.com/devadeekshithgs-git/hukiciah/internal/tray"
)

type mockLedger struct{ mock.Mock }

func (m *mockLedger) BookedTrays(ctx context.Context, date string) ([]int, error) {
    args := m.Called(ctx, date)
    trays, _ := args.Get(0).([]int)
    return trays, args.Error(1)
}

func (m *mockLedger) ClaimedTrays(ctx context.Context, date string) ([]int, error) {
    args := m.Called(ctx, date)
    trays, _ := args.Get(0).([]int)
    return trays, args.Error(1)
}

func (m *mockLedger) CreateBooking(ctx context.Context, b *model.Booking, creditIDs []string) error {
    return m.Called(ctx, b, creditIDs).Error(0)
}

func (m *mockLedger) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
    args := m.Called(ctx, id)
    b, _ := args.Get(0).(*model.Booking)
    return b, args.Error(1)
}

func (m *mockLedger) SetPaymentStatus(ctx context.Context, id string, status model.PaymentStatus, allowedFrom []model.PaymentStatus, releaseTrays bool) (bool, error) {
    args := m.Called(ctx, id, status, allowedFrom, releaseTrays)
    return args.Bool(0), args.Error(1)
}

func (m *mockLedger) CancelWithCredit(ctx context.Context, id string, credit *model.CancellationCredit) error {
    return m.Called(ctx, id, credit).Error(0)
}

type mockCalendar struct{ mock.Mock }

func (m *mockCalendar) Override(ctx context.Context, date string) (*model.CalendarOverride, error) {
    args := m.Called(ctx, date)
    ov, _ := args.Get(0).(*model.CalendarOverride)
    return ov, args.Error(1)
}

type mockCredits struct{ mock.Mock }

func (m *mockCredits) ActiveCredits(ctx context.Context, userID uint64, onDate string) ([]model.CancellationCredit, error) {
    args := m.Called(ctx, userID, onDate)
    credits, _ := args.Get(0).([]model.CancellationCredit)
    return credits, args.Error(1)
}

// testNow is a Monday morning well before the cutoff; midweek and Saturday
// test dates below are relative to it.
var testNow = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

const (
    midweekDate  = "2025-03-05" // Wednesday
    saturdayDate = "2025-03-08"
    sundayDate   = "2025-03-09"
)

func newTestService(ledger *mockLedger, cal *mockCalendar, credits *mockCredits) *Service {
    s := NewService(ledger, cal, credits)
    s.now = func() time.Time { return testNow }
    return s
}

func dishes(trays int) model.DishLines {
    return model.DishLines{{Name: "tomato", Trays: trays}}
}

func TestCreateAssignsLowestFreeTrays(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    credits := new(mockCredits)
    svc := newTestService(ledger, cal, credits)

    cal.On("Override", mock.Anything, midweekDate).Return(nil, nil)
    ledger.On("ClaimedTrays", mock.Anything, midweekDate).Return([]int{1, 2, 5}, nil)

    var created *model.Booking
    ledger.On("CreateBooking", mock.Anything, mock.AnythingOfType("*model.Booking"), []string(nil)).
        Run(func(args mock.Arguments) { created = args.Get(1).(*model.Booking) }).
        Return(nil)

    b, err := svc.Create(context.Background(), CreateInput{
        UserID:         7,
        Date:           midweekDate,
        Dishes:         dishes(3),
        DeliveryMethod: "pickup",
    })
    require.NoError(t, err)
    assert.Equal(t, []int{3, 4, 6}, b.TrayNumbers)
    assert.Equal(t, 3*350, b.Subtotal)
    assert.Equal(t, b.Subtotal, b.TotalCost)
    assert.Equal(t, model.PaymentPending, b.PaymentStatus)
    assert.Same(t, b, created)
    ledger.AssertExpectations(t)
}

func TestAllocateManualRejectsClaimedTray(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    svc := newTestService(ledger, cal, new(mockCredits))

    cal.On("Override", mock.Anything, midweekDate).Return(nil, nil)
    ledger.On("ClaimedTrays", mock.Anything, midweekDate).Return([]int{2}, nil)

    _, err := svc.Allocate(context.Background(), AllocateRequest{
        Date:          midweekDate,
        TrayCount:     2,
        ExplicitTrays: []int{2, 3},
    })
    assert.ErrorIs(t, err, tray.ErrInvalidSelection)
}

func TestAllocateInsufficientCapacity(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    svc := newTestService(ledger, cal, new(mockCredits))
    svc.Resolver.PoolCapacity = 10

    cal.On("Override", mock.Anything, midweekDate).Return(nil, nil)
    ledger.On("ClaimedTrays", mock.Anything, midweekDate).Return([]int{1, 2, 3, 4, 5, 6, 7, 8}, nil)

    _, err := svc.Allocate(context.Background(), AllocateRequest{Date: midweekDate, TrayCount: 3})
    assert.ErrorIs(t, err, tray.ErrInsufficientCapacity)
}

func TestAllocateRespectsBlockedTrays(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    svc := newTestService(ledger, cal, new(mockCredits))

    ov := &model.CalendarOverride{Date: midweekDate, BlockedTrays: []int{1, 3}}
    cal.On("Override", mock.Anything, midweekDate).Return(ov, nil)
    ledger.On("ClaimedTrays", mock.Anything, midweekDate).Return([]int{2}, nil)

    trays, err := svc.Allocate(context.Background(), AllocateRequest{Date: midweekDate, TrayCount: 2})
    require.NoError(t, err)
    assert.Equal(t, []int{4, 5}, trays)
}

func TestCreateSurfacesCommitTimeConflict(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    svc := newTestService(ledger, cal, new(mockCredits))

    cal.On("Override", mock.Anything, midweekDate).Return(nil, nil)
    ledger.On("ClaimedTrays", mock.Anything, midweekDate).Return(nil, nil)
    ledger.On("CreateBooking", mock.Anything, mock.Anything, []string(nil)).Return(ErrTrayConflict)

    _, err := svc.Create(context.Background(), CreateInput{
        UserID: 7,
        Date:   midweekDate,
        Dishes: dishes(2),
    })
    assert.ErrorIs(t, err, ErrTrayConflict)
}

func TestCreateSundayClosed(t *testing.T) {
    cal := new(mockCalendar)
    svc := newTestService(new(mockLedger), cal, new(mockCredits))

    cal.On("Override", mock.Anything, sundayDate).Return(nil, nil)

    _, err := svc.Create(context.Background(), CreateInput{
        UserID: 7,
        Date:   sundayDate,
        Dishes: dishes(2),
    })
    assert.ErrorIs(t, err, calendar.ErrDateClosed)
}

func TestCreateSaturdayBelowThreshold(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    svc := newTestService(ledger, cal, new(mockCredits))

    cal.On("Override", mock.Anything, saturdayDate).Return(nil, nil)
    ledger.On("BookedTrays", mock.Anything, saturdayDate).Return(nil, nil)

    _, err := svc.Create(context.Background(), CreateInput{
        UserID: 7,
        Date:   saturdayDate,
        Dishes: dishes(4),
    })
    assert.ErrorIs(t, err, ErrBelowMinimumThreshold)
}

func TestCreateSaturdayThresholdMetCumulatively(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    svc := newTestService(ledger, cal, new(mockCredits))

    cal.On("Override", mock.Anything, saturdayDate).Return(nil, nil)
    // 3 trays already paid for; 4 more pushes the day to 7 >= 6.
    ledger.On("BookedTrays", mock.Anything, saturdayDate).Return([]int{1, 2, 3}, nil)
    ledger.On("ClaimedTrays", mock.Anything, saturdayDate).Return([]int{1, 2, 3}, nil)
    ledger.On("CreateBooking", mock.Anything, mock.Anything, []string(nil)).Return(nil)

    b, err := svc.Create(context.Background(), CreateInput{
        UserID: 7,
        Date:   saturdayDate,
        Dishes: dishes(4),
    })
    require.NoError(t, err)
    assert.Equal(t, []int{4, 5, 6, 7}, b.TrayNumbers)
}

func TestCreateAdminBypassesPolicyGates(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    svc := newTestService(ledger, cal, new(mockCredits))

    // Saturday with nothing booked: a customer would be rejected.
    cal.On("Override", mock.Anything, saturdayDate).Return(nil, nil)
    ledger.On("ClaimedTrays", mock.Anything, saturdayDate).Return(nil, nil)
    ledger.On("CreateBooking", mock.Anything, mock.Anything, []string(nil)).Return(nil)

    b, err := svc.Create(context.Background(), CreateInput{
        UserID:       1,
        Date:         saturdayDate,
        Dishes:       dishes(2),
        AdminCreated: true,
    })
    require.NoError(t, err)
    assert.True(t, b.AdminCreated)
    ledger.AssertNotCalled(t, "BookedTrays", mock.Anything, mock.Anything)
}

func TestCreateConsumesWholeCreditRows(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    credits := new(mockCredits)
    svc := newTestService(ledger, cal, credits)

    cal.On("Override", mock.Anything, midweekDate).Return(nil, nil)
    ledger.On("ClaimedTrays", mock.Anything, midweekDate).Return(nil, nil)
    credits.On("ActiveCredits", mock.Anything, uint64(7), testNow.Format(calendar.DateLayout)).
        Return([]model.CancellationCredit{
            {ID: "c1", Amount: 200, ExpiryDate: "2025-04-01"},
            {ID: "c2", Amount: 400, ExpiryDate: "2025-06-01"},
        }, nil)
    ledger.On("CreateBooking", mock.Anything, mock.Anything, []string{"c1", "c2"}).Return(nil)

    // 1 tray = 350; both rows are consumed and the 250 overshoot is
    // forfeited, so the credit applied is capped at the subtotal.
    b, err := svc.Create(context.Background(), CreateInput{
        UserID:      7,
        Date:        midweekDate,
        Dishes:      dishes(1),
        ApplyCredit: true,
    })
    require.NoError(t, err)
    assert.Equal(t, 350, b.Subtotal)
    assert.Equal(t, 350, b.AppliedCredit)
    assert.Equal(t, 0, b.TotalCost)
    ledger.AssertExpectations(t)
}

func TestMarkPaymentCompletedIdempotent(t *testing.T) {
    ledger := new(mockLedger)
    svc := newTestService(ledger, new(mockCalendar), new(mockCredits))

    ledger.On("GetBooking", mock.Anything, "bk1").Return(&model.Booking{
        ID: "bk1", UserID: 7, PaymentStatus: model.PaymentCompleted, Status: model.BookingActive,
    }, nil)

    b, err := svc.MarkPaymentCompleted(context.Background(), "bk1", 7, false)
    require.NoError(t, err)
    assert.Equal(t, model.PaymentCompleted, b.PaymentStatus)
    ledger.AssertNotCalled(t, "SetPaymentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkPaymentCompletedLostRaceReconverges(t *testing.T) {
    ledger := new(mockLedger)
    svc := newTestService(ledger, new(mockCalendar), new(mockCredits))

    // First read sees pending, but another writer completes the booking
    // between the read and the guarded update.  The second read settles
    // the call idempotently.
    ledger.On("GetBooking", mock.Anything, "bk1").Return(&model.Booking{
        ID: "bk1", UserID: 7, PaymentStatus: model.PaymentPending, Status: model.BookingActive,
    }, nil).Once()
    ledger.On("SetPaymentStatus", mock.Anything, "bk1", model.PaymentCompleted,
        []model.PaymentStatus{model.PaymentPending}, false).Return(false, nil).Once()
    ledger.On("GetBooking", mock.Anything, "bk1").Return(&model.Booking{
        ID: "bk1", UserID: 7, PaymentStatus: model.PaymentCompleted, Status: model.BookingActive,
    }, nil).Once()

    b, err := svc.MarkPaymentCompleted(context.Background(), "bk1", 7, false)
    require.NoError(t, err)
    assert.Equal(t, model.PaymentCompleted, b.PaymentStatus)
    ledger.AssertExpectations(t)
}

func TestMarkPaymentCompletedGivesUpAfterBoundedRetries(t *testing.T) {
    ledger := new(mockLedger)
    svc := newTestService(ledger, new(mockCalendar), new(mockCredits))

    // A store that keeps reporting pending while rejecting the guarded
    // update never converges; the loop must stop rather than recurse.
    ledger.On("GetBooking", mock.Anything, "bk1").Return(&model.Booking{
        ID: "bk1", UserID: 7, PaymentStatus: model.PaymentPending, Status: model.BookingActive,
    }, nil).Times(statusRaceAttempts)
    ledger.On("SetPaymentStatus", mock.Anything, "bk1", model.PaymentCompleted,
        []model.PaymentStatus{model.PaymentPending}, false).Return(false, nil).Times(statusRaceAttempts)

    _, err := svc.MarkPaymentCompleted(context.Background(), "bk1", 7, false)
    assert.ErrorIs(t, err, ErrInvalidTransition)
    ledger.AssertExpectations(t)
}

func TestMarkPaymentCompletedAfterFailureRejected(t *testing.T) {
    ledger := new(mockLedger)
    svc := newTestService(ledger, new(mockCalendar), new(mockCredits))

    ledger.On("GetBooking", mock.Anything, "bk1").Return(&model.Booking{
        ID: "bk1", UserID: 7, PaymentStatus: model.PaymentFailed, Status: model.BookingActive,
    }, nil)

    _, err := svc.MarkPaymentCompleted(context.Background(), "bk1", 7, false)
    assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkPaymentFailedReleasesTrays(t *testing.T) {
    ledger := new(mockLedger)
    svc := newTestService(ledger, new(mockCalendar), new(mockCredits))

    ledger.On("GetBooking", mock.Anything, "bk1").Return(&model.Booking{
        ID: "bk1", UserID: 7, PaymentStatus: model.PaymentPending, Status: model.BookingActive,
    }, nil)
    ledger.On("SetPaymentStatus", mock.Anything, "bk1", model.PaymentFailed,
        []model.PaymentStatus{model.PaymentPending}, true).Return(true, nil)

    err := svc.MarkPaymentFailed(context.Background(), "bk1", 7, false)
    require.NoError(t, err)
    ledger.AssertExpectations(t)
}

func TestCancelIssuesHalfCredit(t *testing.T) {
    ledger := new(mockLedger)
    svc := newTestService(ledger, new(mockCalendar), new(mockCredits))

    ledger.On("GetBooking", mock.Anything, "bk1").Return(&model.Booking{
        ID: "bk1", UserID: 7, ServiceDate: midweekDate, Subtotal: 2105,
        PaymentStatus: model.PaymentCompleted, Status: model.BookingActive,
    }, nil)

    var issued *model.CancellationCredit
    ledger.On("CancelWithCredit", mock.Anything, "bk1", mock.AnythingOfType("*model.CancellationCredit")).
        Run(func(args mock.Arguments) { issued = args.Get(2).(*model.CancellationCredit) }).
        Return(nil)

    credit, err := svc.Cancel(context.Background(), "bk1", 7, false)
    require.NoError(t, err)
    assert.Equal(t, 1053, credit.Amount) // half of 2105, rounded up
    assert.Equal(t, "2025-09-03", credit.ExpiryDate)
    assert.Equal(t, "bk1", credit.OriginalBookingID)
    assert.Same(t, credit, issued)
}

func TestCancelRejectsOtherUser(t *testing.T) {
    ledger := new(mockLedger)
    svc := newTestService(ledger, new(mockCalendar), new(mockCredits))

    ledger.On("GetBooking", mock.Anything, "bk1").Return(&model.Booking{
        ID: "bk1", UserID: 8, ServiceDate: midweekDate,
        PaymentStatus: model.PaymentCompleted, Status: model.BookingActive,
    }, nil)

    _, err := svc.Cancel(context.Background(), "bk1", 7, false)
    assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCancelRejectsPastServiceDate(t *testing.T) {
    ledger := new(mockLedger)
    svc := newTestService(ledger, new(mockCalendar), new(mockCredits))

    ledger.On("GetBooking", mock.Anything, "bk1").Return(&model.Booking{
        ID: "bk1", UserID: 7, ServiceDate: "2025-02-20",
        PaymentStatus: model.PaymentCompleted, Status: model.BookingActive,
    }, nil)

    _, err := svc.Cancel(context.Background(), "bk1", 7, false)
    assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelRejectsUnpaidBooking(t *testing.T) {
    ledger := new(mockLedger)
    svc := newTestService(ledger, new(mockCalendar), new(mockCredits))

    ledger.On("GetBooking", mock.Anything, "bk1").Return(&model.Booking{
        ID: "bk1", UserID: 7, ServiceDate: midweekDate,
        PaymentStatus: model.PaymentPending, Status: model.BookingActive,
    }, nil)

    _, err := svc.Cancel(context.Background(), "bk1", 7, false)
    assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCreditBalanceSumsActiveRows(t *testing.T) {
    credits := new(mockCredits)
    svc := newTestService(new(mockLedger), new(mockCalendar), credits)

    credits.On("ActiveCredits", mock.Anything, uint64(7), testNow.Format(calendar.DateLayout)).
        Return([]model.CancellationCredit{
            {ID: "c1", Amount: 150},
            {ID: "c2", Amount: 300},
        }, nil)

    rows, total, err := svc.CreditBalance(context.Background(), 7)
    require.NoError(t, err)
    assert.Len(t, rows, 2)
    assert.Equal(t, 450, total)
}

func TestAvailabilityUsesPaidBookingsOnly(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    svc := newTestService(ledger, cal, new(mockCredits))

    ov := &model.CalendarOverride{Date: midweekDate, BlockedTrays: []int{10}}
    cal.On("Override", mock.Anything, midweekDate).Return(ov, nil)
    ledger.On("BookedTrays", mock.Anything, midweekDate).Return([]int{1, 4}, nil)

    av, gotOv, err := svc.Availability(context.Background(), midweekDate)
    require.NoError(t, err)
    assert.Equal(t, []int{1, 4}, av.Booked)
    assert.Equal(t, []int{10}, av.Blocked)
    assert.NotContains(t, av.Free, 1)
    assert.NotContains(t, av.Free, 10)
    assert.Same(t, ov, gotOv)
    ledger.AssertNotCalled(t, "ClaimedTrays", mock.Anything, mock.Anything)
}

func TestAvailabilityStoreError(t *testing.T) {
    ledger := new(mockLedger)
    cal := new(mockCalendar)
    svc := newTestService(ledger, cal, new(mockCredits))

    cal.On("Override", mock.Anything, midweekDate).Return(nil, nil)
    ledger.On("BookedTrays", mock.Anything, midweekDate).Return(nil, errors.New("connection refused"))

    _, _, err := svc.Availability(context.Background(), midweekDate)
    assert.Error(t, err)
}
