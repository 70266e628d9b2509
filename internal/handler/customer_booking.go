package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devadeekshithgs-git/hukiciah/internal/booking"
	"github.com/devadeekshithgs-git/hukiciah/internal/middleware"
	"github.com/devadeekshithgs-git/hukiciah/internal/model"
	"github.com/devadeekshithgs-git/hukiciah/internal/pricing"
	"github.com/devadeekshithgs-git/hukiciah/internal/repository"
	"github.com/devadeekshithgs-git/hukiciah/internal/utils"
)

// CustomerBookingHandler covers the customer-facing booking lifecycle:
// quoting, creating, listing, fetching, cancelling, and the credit
// balance.  JWT and role middleware run before every method; ownership is
// still re-checked in the service so one customer can never act on
// another's booking.
type CustomerBookingHandler struct {
	Svc      *booking.Service
	Bookings *repository.BookingRepo
	Credits  *repository.CreditRepo

	// PaymentKeyID is the public half of the gateway key pair; clients
	// need it to open the checkout widget.
	PaymentKeyID string
}

func NewCustomerBookingHandler(svc *booking.Service, bookings *repository.BookingRepo, credits *repository.CreditRepo, paymentKeyID string) *CustomerBookingHandler {
	if svc == nil || bookings == nil || credits == nil {
		panic("nil dependency passed to NewCustomerBookingHandler")
	}
	return &CustomerBookingHandler{Svc: svc, Bookings: bookings, Credits: credits, PaymentKeyID: paymentKeyID}
}

type freezeDriedReq struct {
	Packets        int `json:"packets"`
	GramsPerPacket int `json:"grams_per_packet"`
}

type createBookingReq struct {
	ServiceDate    string          `json:"service_date"`
	Dishes         model.DishLines `json:"dishes"`
	NumPackets     int             `json:"num_packets"`
	FreezeDried    *freezeDriedReq `json:"freeze_dried"`
	DeliveryMethod string          `json:"delivery_method"`
	ApplyCredit    bool            `json:"apply_credit"`
}

func (r *createBookingReq) validate() (string, bool) {
	if r.ServiceDate == "" {
		return "service_date is required", false
	}
	if r.Dishes.TotalTrays() <= 0 {
		return "at least one dish with a positive tray count is required", false
	}
	if r.NumPackets < 0 {
		return "num_packets cannot be negative", false
	}
	switch r.DeliveryMethod {
	case "", "pickup", "delivery":
	default:
		return "delivery_method must be pickup or delivery", false
	}
	if r.FreezeDried != nil {
		if r.FreezeDried.Packets <= 0 {
			return "freeze_dried.packets must be positive", false
		}
		if r.FreezeDried.GramsPerPacket < pricing.FreezeDriedMinGrams {
			return "freeze_dried.grams_per_packet is below the minimum", false
		}
	}
	return "", true
}

// CreateBooking handles POST /v1/bookings.  It allocates trays, prices
// the order and persists the booking in pending payment state, then
// returns the payment order reference the client passes to the gateway.
// A lost tray race returns 409 and the client should retry with fresh
// availability.
func (h *CustomerBookingHandler) CreateBooking(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	delivery := req.DeliveryMethod
	if delivery == "" {
		delivery = "pickup"
	}
	var fd *model.FreezeDried
	if req.FreezeDried != nil {
		fd = &model.FreezeDried{Packets: req.FreezeDried.Packets, GramsPerPacket: req.FreezeDried.GramsPerPacket}
	}

	b, err := h.Svc.Create(c.Request().Context(), booking.CreateInput{
		UserID:         userID,
		Date:           req.ServiceDate,
		Dishes:         req.Dishes,
		NumPackets:     req.NumPackets,
		FreezeDried:    fd,
		DeliveryMethod: delivery,
		ApplyCredit:    req.ApplyCredit,
	})
	if err != nil {
		return writeDomainError(c, err)
	}

	// A fully credit-covered booking skips the gateway and is confirmed
	// on the spot; anything else gets an order id that the payment
	// verification callback is matched against.
	if b.TotalCost == 0 {
		if b, err = h.Svc.MarkPaymentCompleted(c.Request().Context(), b.ID, userID, false); err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusCreated, echo.Map{"booking": b})
	}

	orderID, err := utils.NewPaymentOrderID()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	if err := h.Bookings.SetPaymentOrderID(c.Request().Context(), b.ID, orderID); err != nil {
		return writeDomainError(c, err)
	}
	b.PaymentOrderID = &orderID

	return c.JSON(http.StatusCreated, echo.Map{
		"booking":        b,
		"payment_key_id": h.PaymentKeyID,
	})
}

// Quote handles POST /v1/bookings/quote.  It prices an order without
// touching the ledger so the UI can show the breakdown before checkout.
func (h *CustomerBookingHandler) Quote(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	fdPackets, fdGrams := 0, 0
	if req.FreezeDried != nil {
		fdPackets, fdGrams = req.FreezeDried.Packets, req.FreezeDried.GramsPerPacket
	}
	availableCredit := 0
	if req.ApplyCredit {
		_, total, err := h.Svc.CreditBalance(c.Request().Context(), userID)
		if err != nil {
			return writeDomainError(c, err)
		}
		availableCredit = total
	}
	quote := pricing.Quote(req.Dishes.TotalTrays(), req.NumPackets, req.Dishes.VacuumLines(),
		fdPackets, fdGrams, availableCredit)
	return c.JSON(http.StatusOK, quote)
}

// ListBookings handles GET /v1/bookings and returns the caller's
// bookings, newest first.
func (h *CustomerBookingHandler) ListBookings(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return writeDomainError(c, err)
	}
	if items == nil {
		items = []*model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": items})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *CustomerBookingHandler) GetBooking(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	b, err := h.Bookings.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	if b.UserID != userID && !middleware.IsAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, b)
}

// CancelBooking handles POST /v1/bookings/:id/cancel.  Cancelling a paid
// booking before its service date frees the trays and issues a credit
// worth half the subtotal, valid for six months.
func (h *CustomerBookingHandler) CancelBooking(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	credit, err := h.Svc.Cancel(c.Request().Context(), c.Param("id"), userID, middleware.IsAdmin(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"cancelled": true,
		"credit":    credit,
	})
}

// GetCredits handles GET /v1/credits: the caller's redeemable credits
// plus full history.
func (h *CustomerBookingHandler) GetCredits(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	active, total, err := h.Svc.CreditBalance(c.Request().Context(), userID)
	if err != nil {
		return writeDomainError(c, err)
	}
	history, err := h.Credits.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return writeDomainError(c, err)
	}
	if active == nil {
		active = []model.CancellationCredit{}
	}
	if history == nil {
		history = []model.CancellationCredit{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"balance": total,
		"active":  active,
		"history": history,
	})
}
