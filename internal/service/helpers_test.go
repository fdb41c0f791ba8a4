package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/j-vseg/piwo/internal/domain"
	"github.com/j-vseg/piwo/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "piwo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateEvent(t *testing.T, s *storage.Storage, id string, start, end time.Time, rec *domain.Recurrence) *domain.Event {
	t.Helper()
	e := &domain.Event{
		ID:         id,
		Name:       "Group evening",
		Category:   domain.CategoryGroup,
		StartDate:  start,
		EndDate:    end,
		Recurrence: rec,
	}
	require.NoError(t, s.CreateEvent(e))
	return e
}

func statusPtr(s domain.Status) *domain.Status {
	return &s
}
