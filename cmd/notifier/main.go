// Command notifier publishes the next service day's tray report to the
// message broker.  It is intended to run once per evening from cron so
// kitchen staff know what to prepare.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/devadeekshithgs-git/hukiciah/internal/calendar"
	"github.com/devadeekshithgs-git/hukiciah/internal/config"
	"github.com/devadeekshithgs-git/hukiciah/internal/database"
	"github.com/devadeekshithgs-git/hukiciah/internal/queue"
	"github.com/devadeekshithgs-git/hukiciah/internal/repository"
	queue_publisher "github.com/devadeekshithgs-git/hukiciah/internal/service"
)

func main() {
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

	bookings := repository.NewBookingRepo(db)
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1).Format(calendar.DateLayout)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	all, err := bookings.ListByDate(ctx, tomorrow)
	if err != nil {
		log.Fatalf("list bookings for %s failed: %v", tomorrow, err)
	}

	event := queue.DailyReportEvent{
		ServiceDate: tomorrow,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, b := range all {
		if !b.OccupiesTrays() {
			continue
		}
		event.BookingCount++
		event.BookingIDs = append(event.BookingIDs, b.ID)
		event.TraysInUse = append(event.TraysInUse, b.TrayNumbers...)
	}

	if event.BookingCount == 0 {
		log.Printf("no confirmed bookings for %s; nothing to report", tomorrow)
		return
	}
	if err := queue_publisher.PublishDailyReport(ctx, event); err != nil {
		log.Fatalf("publish daily report failed: %v", err)
	}
	log.Printf("published daily report for %s: %d bookings, %d trays",
		tomorrow, event.BookingCount, len(event.TraysInUse))
}
