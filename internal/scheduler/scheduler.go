package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/j-vseg/piwo/config"
	"github.com/j-vseg/piwo/internal/service"
)

type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

type Scheduler struct {
	cron         *cron.Cron
	cfg          *config.Config
	members      *service.MemberService
	activities   *service.ActivityService
	availability *service.AvailabilityService
	retention    *service.RetentionService
	sender       MessageSender
}

func New(cfg *config.Config, members *service.MemberService, activities *service.ActivityService, availability *service.AvailabilityService, retention *service.RetentionService) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:         c,
		cfg:          cfg,
		members:      members,
		activities:   activities,
		availability: availability,
		retention:    retention,
	}
}

func (s *Scheduler) SetSender(sender MessageSender) {
	s.sender = sender
}

// cronSpec converts "HH:MM" into a daily cron expression, optionally pinned
// to a weekday.
func cronSpec(clock, dayOfWeek string) (string, error) {
	hour, minute, ok := strings.Cut(clock, ":")
	if !ok {
		return "", fmt.Errorf("invalid time %q (HH:MM)", clock)
	}
	return fmt.Sprintf("%s %s * * %s", minute, hour, dayOfWeek), nil
}

func (s *Scheduler) Start(ctx context.Context) error {
	// Nightly retention sweep
	sweepSpec, err := cronSpec(s.cfg.SweepTime, "*")
	if err != nil {
		return fmt.Errorf("sweep time: %w", err)
	}
	if _, err := s.cron.AddFunc(sweepSpec, s.runSweep); err != nil {
		return fmt.Errorf("add sweep job: %w", err)
	}

	// Monday morning availability nudge
	nudgeSpec, err := cronSpec(s.cfg.NudgeTime, "1")
	if err != nil {
		return fmt.Errorf("nudge time: %w", err)
	}
	if _, err := s.cron.AddFunc(nudgeSpec, s.weeklyNudge); err != nil {
		return fmt.Errorf("add nudge job: %w", err)
	}

	s.cron.Start()
	log.Printf("Scheduler started (TZ: %s, sweep: %s, nudge: %s)",
		s.cfg.Timezone, s.cfg.SweepTime, s.cfg.NudgeTime)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) runSweep() {
	if _, err := s.retention.Sweep(time.Now()); err != nil {
		log.Printf("Retention sweep finished with errors: %v", err)
	}
}

// weeklyNudge pings every approved member who still has unanswered
// occurrences this week.
func (s *Scheduler) weeklyNudge() {
	if s.sender == nil {
		return
	}

	now := time.Now().In(s.cfg.Timezone)
	occurrences, err := s.activities.ListOccurrences(now, endOfWeek(now))
	if err != nil {
		log.Printf("Error listing this week's occurrences: %v", err)
		return
	}
	if len(occurrences) == 0 {
		return
	}

	members, err := s.members.ListApproved()
	if err != nil {
		log.Printf("Error listing members: %v", err)
		return
	}

	for _, m := range members {
		missing, err := s.availability.IsMissingAny(m.ID, occurrences)
		if err != nil {
			log.Printf("Error checking availability for %s: %v", m.ID, err)
			continue
		}
		if !missing {
			continue
		}

		text := fmt.Sprintf("👋 Hi %s! There are %d activities this week and you haven't answered for all of them yet.\n\n/week — see this week's activities", m.FirstName, len(occurrences))
		if err := s.sender.SendMessage(m.TelegramID, text); err != nil {
			log.Printf("Error sending nudge to %d: %v", m.TelegramID, err)
		}
	}
}

// endOfWeek returns the start of the next Monday in t's location.
func endOfWeek(t time.Time) time.Time {
	days := int(time.Monday - t.Weekday())
	if days <= 0 {
		days += 7
	}
	day := t.AddDate(0, 0, days)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}
