package domain

import (
	"strings"
	"time"
)

type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Member is an account in the organization. New members start unapproved
// and only see activities once an admin approves them.
type Member struct {
	ID         string
	TelegramID int64
	FirstName  string
	LastName   string
	Role       MemberRole
	Approved   bool
	CreatedAt  time.Time
}

// DisplayName returns "First Last" with empty parts trimmed.
func (m *Member) DisplayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}
