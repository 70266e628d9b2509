package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devadeekshithgs-git/hukiciah/internal/booking"
	"github.com/devadeekshithgs-git/hukiciah/internal/config"
	"github.com/devadeekshithgs-git/hukiciah/internal/middleware"
	"github.com/devadeekshithgs-git/hukiciah/internal/queue"
	"github.com/devadeekshithgs-git/hukiciah/internal/repository"
	queue_publisher "github.com/devadeekshithgs-git/hukiciah/internal/service"
	"github.com/devadeekshithgs-git/hukiciah/internal/utils"
)

// PaymentHandler finalizes checkouts.  The gateway runs entirely on the
// client side; the server only verifies the callback signature and flips
// the booking's payment status.  Both endpoints are idempotent so a
// client retrying a dropped response cannot double-transition a booking.
type PaymentHandler struct {
	Cfg      config.Config
	Svc      *booking.Service
	Bookings *repository.BookingRepo
}

func NewPaymentHandler(cfg config.Config, svc *booking.Service, bookings *repository.BookingRepo) *PaymentHandler {
	return &PaymentHandler{Cfg: cfg, Svc: svc, Bookings: bookings}
}

type verifyPaymentReq struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// VerifyPayment handles POST /v1/bookings/:id/payment/verify.  The body
// carries the gateway's order id, payment id and the HMAC signature over
// "order_id|payment_id".  A valid signature confirms the booking and
// publishes the confirmation event; a forged one is rejected without
// touching the booking.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req verifyPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id, payment_id and signature are required"})
	}

	id := c.Param("id")
	b, err := h.Bookings.GetBooking(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	if b.PaymentOrderID == nil || *b.PaymentOrderID != req.OrderID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id does not match booking"})
	}
	if !utils.VerifyPaymentSignature(h.Cfg.PaymentSecret, req.OrderID, req.PaymentID, req.Signature) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment signature"})
	}

	b, err = h.Svc.MarkPaymentCompleted(c.Request().Context(), id, userID, middleware.IsAdmin(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	if err := h.Bookings.SetPaymentRef(c.Request().Context(), id, req.PaymentID); err != nil {
		return writeDomainError(c, err)
	}

	// Confirmation events are best effort; a broker outage must not fail
	// a verified payment.
	_ = queue_publisher.PublishBookingConfirmed(c.Request().Context(), queue.TrayBookingConfirmedEvent{
		BookingID:      b.ID,
		UserID:         b.UserID,
		ServiceDate:    b.ServiceDate,
		TrayNumbers:    b.TrayNumbers,
		DeliveryMethod: b.DeliveryMethod,
		TotalCost:      b.TotalCost,
		AppliedCredit:  b.AppliedCredit,
		ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, b)
}

// FailPayment handles POST /v1/bookings/:id/payment/fail.  The client
// calls it when the gateway reports a declined or abandoned payment; the
// booking's trays are released immediately instead of waiting for the
// stale-claim sweep.
func (h *PaymentHandler) FailPayment(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Svc.MarkPaymentFailed(c.Request().Context(), c.Param("id"), userID, middleware.IsAdmin(c)); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payment_status": "failed"})
}
