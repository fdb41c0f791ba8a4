package service

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/j-vseg/piwo/internal/domain"
	"github.com/j-vseg/piwo/internal/storage"
)

// CalendarPublisher mirrors events onto an external shared calendar.
// Publishing is best effort; the store stays authoritative.
type CalendarPublisher interface {
	PublishEvent(e *domain.Event) error
	RemoveEvent(eventID string) error
}

type EventService struct {
	storage   *storage.Storage
	publisher CalendarPublisher
}

func NewEventService(s *storage.Storage) *EventService {
	return &EventService{storage: s}
}

// SetPublisher enables mirroring to a shared calendar.
func (s *EventService) SetPublisher(p CalendarPublisher) {
	s.publisher = p
}

// newID returns a fresh 20-char lower-hex id. No hyphens: occurrence ids
// append a "-<timestamp>" suffix, and short enough to fit Telegram callback
// data alongside that suffix.
func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:20]
}

// Create validates and stores a new event.
func (s *EventService) Create(name string, category domain.Category, start, end time.Time, rec *domain.Recurrence) (*domain.Event, error) {
	event := &domain.Event{
		ID:         newID(),
		Name:       strings.TrimSpace(name),
		Category:   category,
		StartDate:  start,
		EndDate:    end,
		Recurrence: rec,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.CreateEvent(event); err != nil {
		return nil, err
	}

	s.publish(event)
	return event, nil
}

// Update changes name and category; start and end apply only to
// non-recurring events. A recurring series keeps its time-of-day and
// duration for the lifetime of the event.
func (s *EventService) Update(id, name string, category domain.Category, start, end *time.Time) (*domain.Event, error) {
	event, err := s.storage.GetEvent(id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrNotFound
	}

	if event.IsRecurring() && (start != nil || end != nil) {
		return nil, fmt.Errorf("%w: start/end of a recurring activity cannot be changed", domain.ErrInvalidEvent)
	}

	event.Name = strings.TrimSpace(name)
	event.Category = category
	if start != nil {
		event.StartDate = *start
	}
	if end != nil {
		event.EndDate = *end
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.UpdateEvent(event); err != nil {
		return nil, err
	}

	s.publish(event)
	return event, nil
}

// Delete removes an event and cascades to every availability record any of
// its occurrences could have produced, bounded by no window.
func (s *EventService) Delete(id string) error {
	event, err := s.storage.GetEvent(id)
	if err != nil {
		return err
	}
	if event == nil {
		return domain.ErrNotFound
	}

	deleted, err := s.storage.DeleteAvailabilityByEvent(id)
	if err != nil {
		return fmt.Errorf("cascade availability: %w", err)
	}
	if deleted > 0 {
		log.Printf("Deleted %d availability records for event %s", deleted, id)
	}

	if err := s.storage.DeleteEvent(id); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.RemoveEvent(id); err != nil {
			log.Printf("Error removing event %s from shared calendar: %v", id, err)
		}
	}
	return nil
}

func (s *EventService) Get(id string) (*domain.Event, error) {
	event, err := s.storage.GetEvent(id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrNotFound
	}
	return event, nil
}

func (s *EventService) List() ([]*domain.Event, error) {
	return s.storage.ListEvents()
}

func (s *EventService) publish(event *domain.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(event); err != nil {
		log.Printf("Error publishing event %s to shared calendar: %v", event.ID, err)
	}
}

var timeRangeRe = regexp.MustCompile(`^(\d{1,2}:\d{2})-(\d{1,2}:\d{2})$`)

// ParseAddArgs parses "/addactivity 2026-09-05 18:00-20:00 group [repeat:weekly] Name" format
func (s *EventService) ParseAddArgs(args string, loc *time.Location) (name string, category domain.Category, start, end time.Time, rec *domain.Recurrence, err error) {
	parts := strings.Fields(args)
	if len(parts) < 4 {
		err = errors.New("format: /addactivity 2026-09-05 18:00-20:00 group [repeat:weekly] Name")
		return
	}

	day, dayErr := time.ParseInLocation("2006-01-02", parts[0], loc)
	if dayErr != nil {
		err = errors.New("invalid date (YYYY-MM-DD)")
		return
	}

	m := timeRangeRe.FindStringSubmatch(parts[1])
	if m == nil {
		err = errors.New("invalid time range (HH:MM-HH:MM)")
		return
	}
	startClock, startErr := time.Parse("15:04", m[1])
	endClock, endErr := time.Parse("15:04", m[2])
	if startErr != nil || endErr != nil {
		err = errors.New("invalid time range (HH:MM-HH:MM)")
		return
	}
	start = time.Date(day.Year(), day.Month(), day.Day(), startClock.Hour(), startClock.Minute(), 0, 0, loc)
	end = time.Date(day.Year(), day.Month(), day.Day(), endClock.Hour(), endClock.Minute(), 0, 0, loc)
	if !end.After(start) {
		err = errors.New("end time must be after start time")
		return
	}

	category, ok := domain.ParseCategory(parts[2])
	if !ok {
		err = errors.New("unknown category (group, weekend, camp, action)")
		return
	}

	nameParts := parts[3:]
	if strings.HasPrefix(nameParts[0], "repeat:") {
		rec, err = domain.ParseRecurrence(strings.TrimPrefix(nameParts[0], "repeat:"))
		if err != nil {
			err = fmt.Errorf("invalid recurrence: %w", err)
			return
		}
		nameParts = nameParts[1:]
	}

	name = strings.Join(nameParts, " ")
	if name == "" {
		err = errors.New("name cannot be empty")
	}
	return
}
