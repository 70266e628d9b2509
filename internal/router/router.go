package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/devadeekshithgs-git/hukiciah/internal/handler"
	"github.com/devadeekshithgs-git/hukiciah/internal/middleware"
	"github.com/devadeekshithgs-git/hukiciah/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication: a refresh token in the
	// body terminates one session, a bearer token terminates all of them.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
	auth.GET("/me", a.Me)

	// Alias so clients can call either /v1/auth/logout or /v1/logout.
	e.POST("/v1/logout", a.Logout)
}

// RegisterAvailability registers the public tray availability view.  The
// caching middleware is applied per route rather than globally so auth
// and booking endpoints are never served from cache.
func RegisterAvailability(e *echo.Echo, av *handler.AvailabilityHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/availability/:date", av.GetAvailability, cache)
}

// RegisterCustomer registers booking, payment and credit routes for
// authenticated customers.  The rate limiter guards the write endpoints;
// reads stay unthrottled.
func RegisterCustomer(e *echo.Echo, b *handler.CustomerBookingHandler, p *handler.PaymentHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))

	g.POST("/bookings/quote", b.Quote)
	g.POST("/bookings", b.CreateBooking, limiter)
	g.GET("/bookings", b.ListBookings)
	g.GET("/bookings/:id", b.GetBooking)
	g.POST("/bookings/:id/cancel", b.CancelBooking, limiter)
	g.GET("/credits", b.GetCredits)

	g.POST("/bookings/:id/payment/verify", p.VerifyPayment, limiter)
	g.POST("/bookings/:id/payment/fail", p.FailPayment)
}

// RegisterAdmin registers the staff-only calendar and grid routes.
func RegisterAdmin(e *echo.Echo, cal *handler.AdminCalendarHandler, ab *handler.AdminBookingHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.GET("/calendar/:date", cal.GetOverride)
	g.PUT("/calendar/:date", cal.PutOverride)
	g.DELETE("/calendar/:date", cal.DeleteOverride)

	g.GET("/grid/:date", ab.GetGrid)
	g.POST("/bookings", ab.CreateBooking)
	g.GET("/bookings", ab.ListByDate)
}
