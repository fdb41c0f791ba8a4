package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/j-vseg/piwo/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS members (
			id TEXT PRIMARY KEY,
			telegram_id INTEGER UNIQUE NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT DEFAULT '',
			role TEXT NOT NULL DEFAULT 'member',
			approved INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			frequency TEXT DEFAULT '',
			repeat_interval INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// Availability keyed by (occurrence id, member id). Occurrences are
		// derived, never stored, so there is no occurrence table to
		// reference.
		`CREATE TABLE IF NOT EXISTS availability (
			occurrence_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			status TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (occurrence_id, member_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_frequency ON events(frequency)`,
		`CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_events_end ON events(end_date)`,
		`CREATE INDEX IF NOT EXISTS idx_availability_member ON availability(member_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// Ignore "duplicate column" errors for ALTER TABLE
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("exec migration: %w", err)
			}
		}
	}
	return nil
}

// === Members ===

func (s *Storage) CreateMember(m *domain.Member) error {
	_, err := s.db.Exec(
		`INSERT INTO members (id, telegram_id, first_name, last_name, role, approved) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.TelegramID, m.FirstName, m.LastName, m.Role, m.Approved,
	)
	if err != nil {
		return err
	}
	m.CreatedAt = time.Now()
	return nil
}

func (s *Storage) GetMember(id string) (*domain.Member, error) {
	m := &domain.Member{}
	err := s.db.QueryRow(
		`SELECT id, telegram_id, first_name, last_name, role, approved, created_at FROM members WHERE id = ?`,
		id,
	).Scan(&m.ID, &m.TelegramID, &m.FirstName, &m.LastName, &m.Role, &m.Approved, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (s *Storage) GetMemberByTelegramID(telegramID int64) (*domain.Member, error) {
	m := &domain.Member{}
	err := s.db.QueryRow(
		`SELECT id, telegram_id, first_name, last_name, role, approved, created_at FROM members WHERE telegram_id = ?`,
		telegramID,
	).Scan(&m.ID, &m.TelegramID, &m.FirstName, &m.LastName, &m.Role, &m.Approved, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (s *Storage) ListMembers(approvedOnly bool) ([]*domain.Member, error) {
	query := `SELECT id, telegram_id, first_name, last_name, role, approved, created_at FROM members`
	if approvedOnly {
		query += ` WHERE approved = 1`
	}
	query += ` ORDER BY first_name, last_name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		m := &domain.Member{}
		if err := rows.Scan(&m.ID, &m.TelegramID, &m.FirstName, &m.LastName, &m.Role, &m.Approved, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Storage) ApproveMember(id string) error {
	_, err := s.db.Exec(`UPDATE members SET approved = 1 WHERE id = ?`, id)
	return err
}

func (s *Storage) DeleteMember(id string) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	return err
}

// === Events ===

const eventColumns = `id, name, category, start_date, end_date, frequency, repeat_interval, created_at, updated_at`

func scanEvent(scan func(dest ...any) error) (*domain.Event, error) {
	e := &domain.Event{}
	var frequency string
	var interval int
	err := scan(&e.ID, &e.Name, &e.Category, &e.StartDate, &e.EndDate, &frequency, &interval, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if frequency != "" {
		e.Recurrence = &domain.Recurrence{Frequency: domain.Frequency(frequency), Interval: interval}
	}
	return e, nil
}

func recurrenceColumns(e *domain.Event) (frequency string, interval int) {
	if e.Recurrence != nil {
		return string(e.Recurrence.Frequency), e.Recurrence.Interval
	}
	return "", 0
}

func (s *Storage) CreateEvent(e *domain.Event) error {
	frequency, interval := recurrenceColumns(e)
	_, err := s.db.Exec(
		`INSERT INTO events (id, name, category, start_date, end_date, frequency, repeat_interval) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Category, e.StartDate.UTC(), e.EndDate.UTC(), frequency, interval,
	)
	if err != nil {
		return err
	}
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	return nil
}

func (s *Storage) GetEvent(id string) (*domain.Event, error) {
	e, err := scanEvent(s.db.QueryRow(
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id,
	).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (s *Storage) UpdateEvent(e *domain.Event) error {
	frequency, interval := recurrenceColumns(e)
	_, err := s.db.Exec(
		`UPDATE events SET name = ?, category = ?, start_date = ?, end_date = ?, frequency = ?, repeat_interval = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		e.Name, e.Category, e.StartDate.UTC(), e.EndDate.UTC(), frequency, interval, e.ID,
	)
	return err
}

func (s *Storage) DeleteEvent(id string) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	return err
}

func (s *Storage) listEvents(query string, args ...any) ([]*domain.Event, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Storage) ListEvents() ([]*domain.Event, error) {
	return s.listEvents(`SELECT ` + eventColumns + ` FROM events ORDER BY start_date`)
}

func (s *Storage) ListRecurringEvents() ([]*domain.Event, error) {
	return s.listEvents(`SELECT ` + eventColumns + ` FROM events WHERE frequency != '' ORDER BY start_date`)
}

// ListNonRecurringEventsOverlapping returns one-off events whose span
// overlaps [from, until], both bounds inclusive.
func (s *Storage) ListNonRecurringEventsOverlapping(from, until time.Time) ([]*domain.Event, error) {
	return s.listEvents(
		`SELECT `+eventColumns+` FROM events WHERE frequency = '' AND end_date >= ? AND start_date <= ? ORDER BY start_date`,
		from.UTC(), until.UTC(),
	)
}

func (s *Storage) ListNonRecurringEventsEndedBefore(t time.Time) ([]*domain.Event, error) {
	return s.listEvents(
		`SELECT `+eventColumns+` FROM events WHERE frequency = '' AND end_date < ? ORDER BY start_date`,
		t.UTC(),
	)
}

// === Availability ===

func (s *Storage) SetAvailability(a *domain.Availability) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO availability (occurrence_id, member_id, status, updated_at) VALUES (?, ?, ?, ?)`,
		a.OccurrenceID, a.MemberID, a.Status, time.Now().UTC(),
	)
	return err
}

func (s *Storage) GetAvailability(occurrenceID, memberID string) (*domain.Availability, error) {
	a := &domain.Availability{}
	err := s.db.QueryRow(
		`SELECT occurrence_id, member_id, status, updated_at FROM availability WHERE occurrence_id = ? AND member_id = ?`,
		occurrenceID, memberID,
	).Scan(&a.OccurrenceID, &a.MemberID, &a.Status, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *Storage) HasAvailability(occurrenceID, memberID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM availability WHERE occurrence_id = ? AND member_id = ?`,
		occurrenceID, memberID,
	).Scan(&count)
	return count > 0, err
}

func (s *Storage) ListAvailabilityByOccurrence(occurrenceID string) ([]*domain.Availability, error) {
	rows, err := s.db.Query(
		`SELECT occurrence_id, member_id, status, updated_at FROM availability WHERE occurrence_id = ? ORDER BY member_id`,
		occurrenceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.Availability
	for rows.Next() {
		a := &domain.Availability{}
		if err := rows.Scan(&a.OccurrenceID, &a.MemberID, &a.Status, &a.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

func (s *Storage) DeleteAvailability(occurrenceID, memberID string) error {
	_, err := s.db.Exec(
		`DELETE FROM availability WHERE occurrence_id = ? AND member_id = ?`,
		occurrenceID, memberID,
	)
	return err
}

// DeleteAvailabilityByOccurrence removes every record for one occurrence and
// returns how many were deleted. Deleting an absent record is a no-op.
func (s *Storage) DeleteAvailabilityByOccurrence(occurrenceID string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM availability WHERE occurrence_id = ?`, occurrenceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteAvailabilityByEvent removes every record any occurrence of the event
// could have produced. Occurrence ids are either the event id itself or
// prefixed with "<eventID>-", which makes the cascade exact without
// regenerating a window.
func (s *Storage) DeleteAvailabilityByEvent(eventID string) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM availability WHERE occurrence_id = ? OR occurrence_id LIKE ? || '-%'`,
		eventID, eventID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteAvailabilityByMember removes a member's records across all
// occurrences, used when an account is deleted.
func (s *Storage) DeleteAvailabilityByMember(memberID string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM availability WHERE member_id = ?`, memberID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
