package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devadeekshithgs-git/hukiciah/internal/booking"
	"github.com/devadeekshithgs-git/hukiciah/internal/calendar"
	"github.com/devadeekshithgs-git/hukiciah/internal/middleware"
	"github.com/devadeekshithgs-git/hukiciah/internal/model"
	"github.com/devadeekshithgs-git/hukiciah/internal/repository"
)

// AdminBookingHandler serves the staff views: the full tray grid for a
// date and force-created bookings.  Admin bookings bypass the calendar
// gates and the per-booking cap but never tray disjointness; staff pick
// explicit tray numbers and conflicts are rejected the same way customer
// ones are.
type AdminBookingHandler struct {
	Svc      *booking.Service
	Bookings *repository.BookingRepo
	Calendar *repository.CalendarRepo
}

func NewAdminBookingHandler(svc *booking.Service, bookings *repository.BookingRepo, cal *repository.CalendarRepo) *AdminBookingHandler {
	return &AdminBookingHandler{Svc: svc, Bookings: bookings, Calendar: cal}
}

// Per-tray grid statuses.
const (
	trayStatusAvailable   = "available"
	trayStatusBooked      = "booked"
	trayStatusAdminBooked = "admin-booked"
	trayStatusBlocked     = "blocked"
)

type trayCell struct {
	Tray      int    `json:"tray"`
	Status    string `json:"status"`
	BookingID string `json:"booking_id,omitempty"`
	UserID    uint64 `json:"user_id,omitempty"`
}

// GetGrid handles GET /v1/admin/grid/:date.  It renders one cell per
// tray in the pool, attributing occupied trays to their bookings so
// staff can see who holds what.
func (h *AdminBookingHandler) GetGrid(c echo.Context) error {
	date := c.Param("date")
	if _, err := calendar.ParseDate(date, h.Svc.Policy.Loc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}

	ov, err := h.Calendar.Override(c.Request().Context(), date)
	if err != nil {
		return writeDomainError(c, err)
	}
	bookings, err := h.Bookings.ListByDate(c.Request().Context(), date)
	if err != nil {
		return writeDomainError(c, err)
	}

	owner := make(map[int]*model.Booking)
	for _, b := range bookings {
		if !b.OccupiesTrays() {
			continue
		}
		for _, n := range b.TrayNumbers {
			owner[n] = b
		}
	}
	blocked := make(map[int]bool)
	for _, n := range h.Svc.Policy.BlockedTrays(ov) {
		blocked[n] = true
	}

	grid := make([]trayCell, 0, h.Svc.Resolver.PoolCapacity)
	for n := 1; n <= h.Svc.Resolver.PoolCapacity; n++ {
		cell := trayCell{Tray: n, Status: trayStatusAvailable}
		switch {
		case blocked[n]:
			cell.Status = trayStatusBlocked
		case owner[n] != nil:
			b := owner[n]
			cell.Status = trayStatusBooked
			if b.AdminCreated {
				cell.Status = trayStatusAdminBooked
			}
			cell.BookingID = b.ID
			cell.UserID = b.UserID
		}
		grid = append(grid, cell)
	}

	resp := echo.Map{
		"date":    date,
		"grid":    grid,
		"holiday": calendar.IsHoliday(date) || (ov != nil && ov.IsHoliday),
	}
	if ov != nil && ov.Notice != nil {
		resp["notice"] = *ov.Notice
	}
	return c.JSON(http.StatusOK, resp)
}

type adminCreateBookingReq struct {
	UserID         uint64          `json:"user_id"`
	ServiceDate    string          `json:"service_date"`
	Dishes         model.DishLines `json:"dishes"`
	NumPackets     int             `json:"num_packets"`
	DeliveryMethod string          `json:"delivery_method"`
	TrayNumbers    []int           `json:"tray_numbers"`
}

// CreateBooking handles POST /v1/admin/bookings.  The booking is created
// on behalf of the given user with explicit tray numbers, marked paid
// immediately since staff collect payment out of band.
func (h *AdminBookingHandler) CreateBooking(c echo.Context) error {
	var req adminCreateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	if req.ServiceDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_date is required"})
	}
	if req.Dishes.TotalTrays() <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one dish with a positive tray count is required"})
	}
	if len(req.TrayNumbers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tray_numbers is required"})
	}
	delivery := req.DeliveryMethod
	if delivery == "" {
		delivery = "pickup"
	}

	b, err := h.Svc.Create(c.Request().Context(), booking.CreateInput{
		UserID:         req.UserID,
		Date:           req.ServiceDate,
		Dishes:         req.Dishes,
		NumPackets:     req.NumPackets,
		DeliveryMethod: delivery,
		ExplicitTrays:  req.TrayNumbers,
		AdminCreated:   true,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	if b, err = h.Svc.MarkPaymentCompleted(c.Request().Context(), b.ID, middleware.UserID(c), true); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// ListByDate handles GET /v1/admin/bookings?date=YYYY-MM-DD.
func (h *AdminBookingHandler) ListByDate(c echo.Context) error {
	date := c.QueryParam("date")
	if _, err := calendar.ParseDate(date, h.Svc.Policy.Loc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date query parameter is required, YYYY-MM-DD"})
	}
	items, err := h.Bookings.ListByDate(c.Request().Context(), date)
	if err != nil {
		return writeDomainError(c, err)
	}
	if items == nil {
		items = []*model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "bookings": items})
}
