package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devadeekshithgs-git/hukiciah/internal/booking"
	"github.com/devadeekshithgs-git/hukiciah/internal/calendar"
)

// AvailabilityHandler exposes the public tray availability view.  No
// authentication is required so customers can browse dates before
// registering.
type AvailabilityHandler struct {
	Svc *booking.Service
}

func NewAvailabilityHandler(svc *booking.Service) *AvailabilityHandler {
	return &AvailabilityHandler{Svc: svc}
}

// GetAvailability handles GET /v1/availability/:date.  It returns the
// booked, blocked and free tray numbers for the date together with the
// date-level flags a booking form needs: whether the date takes orders at
// all, the minimum tray count if one applies, and any admin notice.
func (h *AvailabilityHandler) GetAvailability(c echo.Context) error {
	date := c.Param("date")
	if _, err := calendar.ParseDate(date, h.Svc.Policy.Loc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}

	av, ov, err := h.Svc.Availability(c.Request().Context(), date)
	if err != nil {
		return writeDomainError(c, err)
	}

	resp := echo.Map{
		"date":          date,
		"booked_trays":  av.Booked,
		"blocked_trays": av.Blocked,
		"free_trays":    av.Free,
		"free_count":    len(av.Free),
		"bookable":      true,
	}
	if min := h.Svc.Policy.MinimumTrays(date); min > 0 {
		resp["min_trays"] = min
	}
	if ov != nil && ov.Notice != nil {
		resp["notice"] = *ov.Notice
	}
	if err := h.Svc.Policy.IsBookable(date, ov, h.Svc.Now()); err != nil {
		resp["bookable"] = false
		resp["reason"] = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}
