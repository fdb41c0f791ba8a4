package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category classifies an activity for display purposes. It carries no
// behavior but must round-trip through storage unchanged.
type Category string

const (
	CategoryGroup   Category = "group"
	CategoryWeekend Category = "weekend"
	CategoryCamp    Category = "camp"
	CategoryAction  Category = "action"
)

// ParseCategory parses a category name (case insensitive).
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryGroup:
		return CategoryGroup, true
	case CategoryWeekend:
		return CategoryWeekend, true
	case CategoryCamp:
		return CategoryCamp, true
	case CategoryAction:
		return CategoryAction, true
	}
	return "", false
}

// CategoryEmoji returns an emoji for the category
func CategoryEmoji(c Category) string {
	switch c {
	case CategoryGroup:
		return "👥"
	case CategoryWeekend:
		return "🏕"
	case CategoryCamp:
		return "⛺️"
	case CategoryAction:
		return "🎯"
	}
	return "📅"
}

// Frequency is how often a recurring event repeats.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency parses a frequency name (case insensitive).
func ParseFrequency(s string) (Frequency, bool) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyDaily:
		return FrequencyDaily, true
	case FrequencyWeekly:
		return FrequencyWeekly, true
	case FrequencyMonthly:
		return FrequencyMonthly, true
	}
	return "", false
}

// Recurrence describes how an event repeats. A nil *Recurrence on an Event
// means the event happens exactly once; there is no other "no recurrence"
// encoding.
type Recurrence struct {
	Frequency Frequency
	Interval  int // >= 1
}

// ParseRecurrence parses "weekly" or "weekly:2" style notation. An empty
// string means no recurrence. A missing interval defaults to 1.
func ParseRecurrence(s string) (*Recurrence, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	freqStr, intervalStr, hasInterval := strings.Cut(s, ":")
	freq, ok := ParseFrequency(freqStr)
	if !ok {
		return nil, fmt.Errorf("unknown frequency %q", freqStr)
	}

	interval := 1
	if hasInterval {
		if _, err := fmt.Sscanf(intervalStr, "%d", &interval); err != nil || interval < 1 {
			return nil, fmt.Errorf("invalid interval %q", intervalStr)
		}
	}

	return &Recurrence{Frequency: freq, Interval: interval}, nil
}

// Describe returns a human readable form like "every week" or "every 2 weeks".
func (r *Recurrence) Describe() string {
	unit := map[Frequency]string{
		FrequencyDaily:   "day",
		FrequencyWeekly:  "week",
		FrequencyMonthly: "month",
	}[r.Frequency]
	if r.Interval == 1 {
		return "every " + unit
	}
	return fmt.Sprintf("every %d %ss", r.Interval, unit)
}

// Event is the stored template an activity is expanded from. StartDate and
// EndDate describe the first (or only) occurrence's span; the duration is
// invariant across the whole series.
type Event struct {
	ID         string
	Name       string
	Category   Category
	StartDate  time.Time
	EndDate    time.Time
	Recurrence *Recurrence
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (e *Event) IsRecurring() bool {
	return e.Recurrence != nil
}

// Duration is the span of every occurrence in the series.
func (e *Event) Duration() time.Duration {
	return e.EndDate.Sub(e.StartDate)
}

// Validate checks model invariants. Events that fail validation must never
// reach the occurrence generator.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidEvent)
	}
	if _, ok := ParseCategory(string(e.Category)); !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidEvent, e.Category)
	}
	if !e.EndDate.After(e.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidEvent)
	}
	if r := e.Recurrence; r != nil {
		if _, ok := ParseFrequency(string(r.Frequency)); !ok {
			return fmt.Errorf("%w: unknown frequency %q", ErrInvalidEvent, r.Frequency)
		}
		if r.Interval < 1 {
			return fmt.Errorf("%w: interval must be at least 1", ErrInvalidEvent)
		}
	}
	return nil
}
