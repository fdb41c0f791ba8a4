package service

import (
	"log"

	"github.com/j-vseg/piwo/internal/domain"
	"github.com/j-vseg/piwo/internal/storage"
)

type MemberService struct {
	storage *storage.Storage
}

func NewMemberService(s *storage.Storage) *MemberService {
	return &MemberService{storage: s}
}

// Register creates a new member. Admins are approved immediately; everyone
// else waits for an admin.
func (s *MemberService) Register(telegramID int64, firstName, lastName string, isAdmin bool) (*domain.Member, error) {
	role := domain.RoleMember
	if isAdmin {
		role = domain.RoleAdmin
	}

	member := &domain.Member{
		ID:         newID(),
		TelegramID: telegramID,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       role,
		Approved:   isAdmin,
	}
	if err := s.storage.CreateMember(member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *MemberService) GetByTelegramID(telegramID int64) (*domain.Member, error) {
	return s.storage.GetMemberByTelegramID(telegramID)
}

func (s *MemberService) Get(id string) (*domain.Member, error) {
	member, err := s.storage.GetMember(id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	return member, nil
}

func (s *MemberService) Approve(id string) error {
	member, err := s.storage.GetMember(id)
	if err != nil {
		return err
	}
	if member == nil {
		return domain.ErrNotFound
	}
	return s.storage.ApproveMember(id)
}

func (s *MemberService) ListApproved() ([]*domain.Member, error) {
	return s.storage.ListMembers(true)
}

// DisplayNames maps member id to display name for rendering attendee lists.
func (s *MemberService) DisplayNames() (map[string]string, error) {
	members, err := s.storage.ListMembers(false)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.DisplayName()
	}
	return names, nil
}

// DeleteAccount removes a member together with their availability across
// all occurrences.
func (s *MemberService) DeleteAccount(id string) error {
	member, err := s.storage.GetMember(id)
	if err != nil {
		return err
	}
	if member == nil {
		return domain.ErrNotFound
	}

	deleted, err := s.storage.DeleteAvailabilityByMember(id)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Printf("Deleted %d availability records for member %s", deleted, id)
	}
	return s.storage.DeleteMember(id)
}
