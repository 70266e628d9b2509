package main // Entry point package

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/devadeekshithgs-git/hukiciah/internal/booking"
	"github.com/devadeekshithgs-git/hukiciah/internal/calendar"
	"github.com/devadeekshithgs-git/hukiciah/internal/config"
	"github.com/devadeekshithgs-git/hukiciah/internal/database"
	"github.com/devadeekshithgs-git/hukiciah/internal/handler"
	"github.com/devadeekshithgs-git/hukiciah/internal/middleware"
	"github.com/devadeekshithgs-git/hukiciah/internal/queue"
	"github.com/devadeekshithgs-git/hukiciah/internal/repository"
	"github.com/devadeekshithgs-git/hukiciah/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid APP_TIMEZONE %q: %v", cfg.Timezone, err)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the availability cache.  A nil client
	// disables both; the API still works, just without those shields.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	bookings := repository.NewBookingRepo(db)
	bookings.PendingTTL = time.Duration(cfg.PendingTTLMin) * time.Minute
	calendarRepo := repository.NewCalendarRepo(db)
	credits := repository.NewCreditRepo(db)

	svc := booking.NewService(bookings, calendarRepo, credits)
	svc.Policy = calendar.Policy{Loc: loc}

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	availability := handler.NewAvailabilityHandler(svc)
	customer := handler.NewCustomerBookingHandler(svc, bookings, credits, cfg.PaymentKeyID)
	payment := handler.NewPaymentHandler(cfg, svc, bookings)
	adminCalendar := handler.NewAdminCalendarHandler(calendarRepo, svc)
	adminBooking := handler.NewAdminBookingHandler(svc, bookings, calendarRepo)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterAvailability(e, availability, cache)
	router.RegisterCustomer(e, customer, payment, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, adminCalendar, adminBooking, cfg.JWTSecret)

	// The consumer tails booking.confirmed and appends to logs/booking.log.
	// It reconnects forever on broker failures, so run it detached.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
