package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/j-vseg/piwo/internal/occurrence"
	"github.com/j-vseg/piwo/internal/storage"
)

// RetentionService bounds storage growth: availability records of past
// occurrences serve nobody and are swept, and one-off events disappear with
// them once their end time has passed. Recurring events themselves persist
// indefinitely.
type RetentionService struct {
	storage  *storage.Storage
	lookback time.Duration
}

func NewRetentionService(s *storage.Storage, lookback time.Duration) *RetentionService {
	return &RetentionService{storage: s, lookback: lookback}
}

// SweepResult summarizes one sweep pass.
type SweepResult struct {
	RecordsDeleted int64
	EventsDeleted  int
}

// Sweep deletes availability for occurrences that ended before now and
// removes expired one-off events. Idempotent: a delete of an absent record
// is a no-op, so a retried sweep re-attempts whatever a previous pass left
// behind. Per-item failures are collected and the sweep continues; the
// aggregate comes back joined.
func (s *RetentionService) Sweep(now time.Time) (SweepResult, error) {
	var result SweepResult
	var errs []error

	// Recurring events: regenerate the bounded lookback window and sweep
	// every occurrence that has fully ended. Future occurrences and the
	// event itself are left alone.
	recurring, err := s.storage.ListRecurringEvents()
	if err != nil {
		errs = append(errs, fmt.Errorf("list recurring events: %w", err))
	}
	for _, ev := range recurring {
		for _, occ := range occurrence.Generate(ev, now.Add(-s.lookback), now) {
			if !occ.IsPast(now) {
				continue
			}
			deleted, err := s.storage.DeleteAvailabilityByOccurrence(occ.ID)
			if err != nil {
				errs = append(errs, fmt.Errorf("sweep occurrence %s: %w", occ.ID, err))
				continue
			}
			result.RecordsDeleted += deleted
		}
	}

	// One-off events that have ended: availability first, then the event.
	expired, err := s.storage.ListNonRecurringEventsEndedBefore(now)
	if err != nil {
		errs = append(errs, fmt.Errorf("list expired events: %w", err))
	}
	for _, ev := range expired {
		deleted, err := s.storage.DeleteAvailabilityByOccurrence(ev.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep event %s availability: %w", ev.ID, err))
			continue
		}
		result.RecordsDeleted += deleted

		if err := s.storage.DeleteEvent(ev.ID); err != nil {
			errs = append(errs, fmt.Errorf("delete expired event %s: %w", ev.ID, err))
			continue
		}
		result.EventsDeleted++
	}

	log.Printf("Retention sweep: %d availability records, %d expired events deleted", result.RecordsDeleted, result.EventsDeleted)
	return result, errors.Join(errs...)
}
