package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devadeekshithgs-git/hukiciah/internal/booking"
	"github.com/devadeekshithgs-git/hukiciah/internal/calendar"
	"github.com/devadeekshithgs-git/hukiciah/internal/middleware"
	"github.com/devadeekshithgs-git/hukiciah/internal/model"
	"github.com/devadeekshithgs-git/hukiciah/internal/repository"
	"github.com/devadeekshithgs-git/hukiciah/internal/tray"
)

// AdminCalendarHandler manages per-date overrides: holiday closures,
// customer-facing notices and blocked tray numbers.  Overrides layer on
// top of the built-in policy; deleting one restores the defaults.
type AdminCalendarHandler struct {
	Calendar *repository.CalendarRepo
	Svc      *booking.Service
}

func NewAdminCalendarHandler(cal *repository.CalendarRepo, svc *booking.Service) *AdminCalendarHandler {
	return &AdminCalendarHandler{Calendar: cal, Svc: svc}
}

type calendarOverrideReq struct {
	IsHoliday    bool    `json:"is_holiday"`
	Notice       *string `json:"notice"`
	BlockedTrays []int   `json:"blocked_trays"`
}

// GetOverride handles GET /v1/admin/calendar/:date.  It returns the
// stored override together with the effective policy view so the admin UI
// shows what customers actually see.
func (h *AdminCalendarHandler) GetOverride(c echo.Context) error {
	date := c.Param("date")
	if _, err := calendar.ParseDate(date, h.Svc.Policy.Loc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	ov, err := h.Calendar.Override(c.Request().Context(), date)
	if err != nil {
		return writeDomainError(c, err)
	}
	resp := echo.Map{
		"date":          date,
		"override":      ov,
		"fixed_holiday": calendar.IsHoliday(date),
		"bookable":      true,
	}
	if err := h.Svc.Policy.IsBookable(date, ov, h.Svc.Now()); err != nil {
		resp["bookable"] = false
		resp["reason"] = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// PutOverride handles PUT /v1/admin/calendar/:date, replacing the date's
// override.  Blocked tray numbers must fall inside the pool.
func (h *AdminCalendarHandler) PutOverride(c echo.Context) error {
	date := c.Param("date")
	if _, err := calendar.ParseDate(date, h.Svc.Policy.Loc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	var req calendarOverrideReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	for _, n := range req.BlockedTrays {
		if n < 1 || n > tray.DefaultPoolCapacity {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "blocked tray number out of range"})
		}
	}
	ov := &model.CalendarOverride{
		Date:         date,
		IsHoliday:    req.IsHoliday,
		Notice:       req.Notice,
		BlockedTrays: req.BlockedTrays,
		UpdatedBy:    middleware.UserID(c),
	}
	if err := h.Calendar.Upsert(c.Request().Context(), ov); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, ov)
}

// DeleteOverride handles DELETE /v1/admin/calendar/:date.
func (h *AdminCalendarHandler) DeleteOverride(c echo.Context) error {
	date := c.Param("date")
	if _, err := calendar.ParseDate(date, h.Svc.Policy.Loc); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	if err := h.Calendar.Delete(c.Request().Context(), date); err != nil {
		return writeDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
