package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/j-vseg/piwo/config"
	"github.com/j-vseg/piwo/internal/bot"
	"github.com/j-vseg/piwo/internal/clients/caldav"
	"github.com/j-vseg/piwo/internal/scheduler"
	"github.com/j-vseg/piwo/internal/service"
	"github.com/j-vseg/piwo/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	memberSvc := service.NewMemberService(store)
	eventSvc := service.NewEventService(store)
	activitySvc := service.NewActivityService(store, cfg.Timezone)
	availabilitySvc := service.NewAvailabilityService(store)
	retentionSvc := service.NewRetentionService(store, cfg.SweepLookback())

	if cfg.CalDAVConfigured() {
		publisher := caldav.NewPublisher(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.CalDAVCalendar)
		if cfg.CalDAVCalendar == "" {
			calendars, err := publisher.DiscoverCalendars()
			if err != nil {
				log.Printf("CalDAV discovery failed, publishing disabled: %v", err)
			} else {
				log.Printf("CALDAV_CALENDAR not set, publishing disabled. Available calendars:")
				for _, c := range calendars {
					log.Printf("  %s (%s)", c.Path, c.DisplayName)
				}
			}
		} else {
			eventSvc.SetPublisher(publisher)
			log.Printf("CalDAV publishing enabled: %s", cfg.CalDAVCalendar)
		}
	}

	tgBot, err := bot.New(cfg, memberSvc, eventSvc, activitySvc, availabilitySvc, retentionSvc)
	if err != nil {
		log.Fatalf("Failed to init bot: %v", err)
	}

	if err := tgBot.SetupWebhook(); err != nil {
		log.Fatalf("Failed to setup webhook: %v", err)
	}

	sched := scheduler.New(cfg, memberSvc, activitySvc, availabilitySvc, retentionSvc)
	sched.SetSender(tgBot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("Scheduler error: %v", err)
		}
	}()

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			log.Printf("Bot error: %v", err)
		}
	}()

	log.Println("piwo started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := tgBot.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping bot: %v", err)
	}

	log.Println("piwo stopped")
}
