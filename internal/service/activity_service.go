package service

import (
	"sort"
	"time"

	"github.com/j-vseg/piwo/internal/domain"
	"github.com/j-vseg/piwo/internal/occurrence"
	"github.com/j-vseg/piwo/internal/storage"
)

// ActivityService is the read side: it merges generated occurrences across
// the whole event set into the flat and date-grouped listings the bot and
// the calendar feed render.
type ActivityService struct {
	storage *storage.Storage
	loc     *time.Location
}

func NewActivityService(s *storage.Storage, loc *time.Location) *ActivityService {
	return &ActivityService{storage: s, loc: loc}
}

// DayGroup holds the occurrences of one calendar day in the reporting
// timezone, ordered by start time.
type DayGroup struct {
	Date        time.Time
	Occurrences []domain.Occurrence
}

// ListOccurrences expands every stored event into [from, until] and returns
// the merged result sorted by start time. Per-event sequences come out of
// the generator sorted, but interleaving across events does not, so the
// merge re-sorts globally.
func (s *ActivityService) ListOccurrences(from, until time.Time) ([]domain.Occurrence, error) {
	recurring, err := s.storage.ListRecurringEvents()
	if err != nil {
		return nil, err
	}
	oneOff, err := s.storage.ListNonRecurringEventsOverlapping(from, until)
	if err != nil {
		return nil, err
	}

	// Dedupe: each event contributes once even if both queries return it.
	seen := make(map[string]bool)
	var occurrences []domain.Occurrence
	for _, ev := range append(recurring, oneOff...) {
		if seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true
		occurrences = append(occurrences, occurrence.Generate(ev, from, until)...)
	}

	sort.Slice(occurrences, func(i, j int) bool {
		if !occurrences[i].StartTime.Equal(occurrences[j].StartTime) {
			return occurrences[i].StartTime.Before(occurrences[j].StartTime)
		}
		return occurrences[i].ID < occurrences[j].ID
	})
	return occurrences, nil
}

// ListGroupedByDate returns occurrences bucketed per calendar day of their
// start time in the reporting timezone. Two occurrences on the same day at
// different times share a group.
func (s *ActivityService) ListGroupedByDate(from, until time.Time) ([]DayGroup, error) {
	occurrences, err := s.ListOccurrences(from, until)
	if err != nil {
		return nil, err
	}

	var groups []DayGroup
	for _, occ := range occurrences {
		day := startOfDay(occ.StartTime, s.loc)
		if len(groups) == 0 || !groups[len(groups)-1].Date.Equal(day) {
			groups = append(groups, DayGroup{Date: day})
		}
		last := &groups[len(groups)-1]
		last.Occurrences = append(last.Occurrences, occ)
	}
	return groups, nil
}

// GetOccurrence resolves a single occurrence from its id with one event
// lookup, without expanding the whole series. Returns
// domain.ErrMalformedOccurrenceID or domain.ErrNotFound.
func (s *ActivityService) GetOccurrence(id string) (domain.Occurrence, error) {
	eventID, _, _, err := occurrence.DecodeID(id)
	if err != nil {
		return domain.Occurrence{}, err
	}

	event, err := s.storage.GetEvent(eventID)
	if err != nil {
		return domain.Occurrence{}, err
	}
	if event == nil {
		return domain.Occurrence{}, domain.ErrNotFound
	}

	return occurrence.FromEvent(event, id)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
