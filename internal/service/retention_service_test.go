package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-vseg/piwo/internal/domain"
	"github.com/j-vseg/piwo/internal/occurrence"
)

const sweepLookback = 10 * 7 * 24 * time.Hour

func TestSweepRecurring(t *testing.T) {
	store := newTestStorage(t)
	availability := NewAvailabilityService(store)
	svc := NewRetentionService(store, sweepLookback)

	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

	// Daily series that started 30 days ago, one hour per occurrence.
	start := now.AddDate(0, 0, -30)
	series := mustCreateEvent(t, store, "daily1", start, start.Add(time.Hour),
		&domain.Recurrence{Frequency: domain.FrequencyDaily, Interval: 1})

	// Answers for occurrences 25 to 16 days ago, all long over.
	var pastIDs []string
	for daysAgo := 25; daysAgo >= 16; daysAgo-- {
		id := occurrence.EncodeID(series.ID, now.AddDate(0, 0, -daysAgo), true)
		pastIDs = append(pastIDs, id)
		require.NoError(t, availability.SetStatus(id, "m1", statusPtr(domain.StatusPresent)))
	}

	// Today's occurrence starts right now and has not ended yet.
	todayID := occurrence.EncodeID(series.ID, now, true)
	require.NoError(t, availability.SetStatus(todayID, "m1", statusPtr(domain.StatusMaybe)))

	result, err := svc.Sweep(now)
	require.NoError(t, err)
	assert.EqualValues(t, 10, result.RecordsDeleted)
	assert.Equal(t, 0, result.EventsDeleted)

	for _, id := range pastIDs {
		got, err := availability.GetStatus(id, "m1")
		require.NoError(t, err)
		assert.Nil(t, got, "record for %s should be swept", id)
	}

	kept, err := availability.GetStatus(todayID, "m1")
	require.NoError(t, err)
	assert.NotNil(t, kept)

	// The series itself is never deleted.
	ev, err := store.GetEvent(series.ID)
	require.NoError(t, err)
	assert.NotNil(t, ev)
}

func TestSweepExpiredOneOffs(t *testing.T) {
	store := newTestStorage(t)
	availability := NewAvailabilityService(store)
	svc := NewRetentionService(store, sweepLookback)

	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

	expired := mustCreateEvent(t, store, "past1", now.AddDate(0, 0, -2), now.AddDate(0, 0, -2).Add(2*time.Hour), nil)
	upcoming := mustCreateEvent(t, store, "future1", now.AddDate(0, 0, 2), now.AddDate(0, 0, 2).Add(2*time.Hour), nil)

	require.NoError(t, availability.SetStatus(expired.ID, "m1", statusPtr(domain.StatusPresent)))
	require.NoError(t, availability.SetStatus(expired.ID, "m2", statusPtr(domain.StatusAbsent)))
	require.NoError(t, availability.SetStatus(upcoming.ID, "m1", statusPtr(domain.StatusPresent)))

	result, err := svc.Sweep(now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.RecordsDeleted)
	assert.Equal(t, 1, result.EventsDeleted)

	gone, err := store.GetEvent(expired.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := store.GetEvent(upcoming.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	answer, err := availability.GetStatus(upcoming.ID, "m1")
	require.NoError(t, err)
	assert.NotNil(t, answer)
}

func TestSweepStillRunningEventSurvives(t *testing.T) {
	store := newTestStorage(t)
	svc := NewRetentionService(store, sweepLookback)

	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

	// Started an hour ago, ends in an hour.
	running := mustCreateEvent(t, store, "running1", now.Add(-time.Hour), now.Add(time.Hour), nil)

	result, err := svc.Sweep(now)
	require.NoError(t, err)
	assert.Equal(t, 0, result.EventsDeleted)

	kept, err := store.GetEvent(running.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestSweepIdempotent(t *testing.T) {
	store := newTestStorage(t)
	availability := NewAvailabilityService(store)
	svc := NewRetentionService(store, sweepLookback)

	now := time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

	start := now.AddDate(0, 0, -7)
	series := mustCreateEvent(t, store, "weekly1", start, start.Add(time.Hour),
		&domain.Recurrence{Frequency: domain.FrequencyWeekly, Interval: 1})
	id := occurrence.EncodeID(series.ID, start, true)
	require.NoError(t, availability.SetStatus(id, "m1", statusPtr(domain.StatusPresent)))

	first, err := svc.Sweep(now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.RecordsDeleted)

	second, err := svc.Sweep(now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, second.RecordsDeleted)
	assert.Equal(t, 0, second.EventsDeleted)
}
