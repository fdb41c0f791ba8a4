package service

import (
	"github.com/j-vseg/piwo/internal/domain"
	"github.com/j-vseg/piwo/internal/storage"
)

type AvailabilityService struct {
	storage *storage.Storage
}

func NewAvailabilityService(s *storage.Storage) *AvailabilityService {
	return &AvailabilityService{storage: s}
}

// SetStatus upserts a member's answer for an occurrence. A nil status
// deletes the record, returning the member to "not answered". Both
// directions are idempotent; concurrent writes for the same key are
// last-write-wins.
func (s *AvailabilityService) SetStatus(occurrenceID, memberID string, status *domain.Status) error {
	if status == nil {
		return s.storage.DeleteAvailability(occurrenceID, memberID)
	}
	return s.storage.SetAvailability(&domain.Availability{
		OccurrenceID: occurrenceID,
		MemberID:     memberID,
		Status:       *status,
	})
}

// GetStatus returns the member's answer for an occurrence, or nil when the
// member has not answered.
func (s *AvailabilityService) GetStatus(occurrenceID, memberID string) (*domain.Status, error) {
	record, err := s.storage.GetAvailability(occurrenceID, memberID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	status := record.Status
	return &status, nil
}

// GroupByStatus returns, per status, the members who answered with it for
// the occurrence. Statuses nobody picked are absent from the map.
func (s *AvailabilityService) GroupByStatus(occurrenceID string) (map[domain.Status][]string, error) {
	records, err := s.storage.ListAvailabilityByOccurrence(occurrenceID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[domain.Status][]string)
	for _, r := range records {
		grouped[r.Status] = append(grouped[r.Status], r.MemberID)
	}
	return grouped, nil
}

// IsMissingAny reports whether at least one of the given occurrences has no
// answer from the member. It stops at the first gap found.
func (s *AvailabilityService) IsMissingAny(memberID string, occurrences []domain.Occurrence) (bool, error) {
	for _, occ := range occurrences {
		has, err := s.storage.HasAvailability(occ.ID, memberID)
		if err != nil {
			return false, err
		}
		if !has {
			return true, nil
		}
	}
	return false, nil
}
