package domain

import (
	"strings"
	"time"
)

// Status is a member's answer for one occurrence. Absence of a record means
// "not yet answered", which is distinct from every status value.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusMaybe   Status = "maybe"
)

// Statuses lists all statuses in display order.
var Statuses = []Status{StatusPresent, StatusAbsent, StatusMaybe}

// ParseStatus parses a status name (case insensitive).
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPresent:
		return StatusPresent, true
	case StatusAbsent:
		return StatusAbsent, true
	case StatusMaybe:
		return StatusMaybe, true
	}
	return "", false
}

// StatusEmoji returns an emoji for the status
func StatusEmoji(s Status) string {
	switch s {
	case StatusPresent:
		return "✅"
	case StatusAbsent:
		return "❌"
	case StatusMaybe:
		return "❓"
	}
	return ""
}

// Availability is one member's stored answer for one occurrence, keyed by
// (OccurrenceID, MemberID). Writes are last-write-wins per key.
type Availability struct {
	OccurrenceID string
	MemberID     string
	Status       Status
	UpdatedAt    time.Time
}
