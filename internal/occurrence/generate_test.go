package occurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-vseg/piwo/internal/domain"
)

func utc(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func oneOffEvent() *domain.Event {
	return &domain.Event{
		ID:        "aaaabbbbccccddddeeee",
		Name:      "Summer camp kickoff",
		Category:  domain.CategoryCamp,
		StartDate: utc(2024, time.January, 10, 10, 0),
		EndDate:   utc(2024, time.January, 10, 12, 0),
	}
}

func weeklyEvent() *domain.Event {
	return &domain.Event{
		ID:        "11112222333344445555",
		Name:      "Group evening",
		Category:  domain.CategoryGroup,
		StartDate: utc(2024, time.January, 1, 18, 0),
		EndDate:   utc(2024, time.January, 1, 20, 0),
		Recurrence: &domain.Recurrence{
			Frequency: domain.FrequencyWeekly,
			Interval:  1,
		},
	}
}

func TestGenerateNonRecurring(t *testing.T) {
	ev := oneOffEvent()

	t.Run("inside window", func(t *testing.T) {
		occs := Generate(ev, utc(2024, time.January, 1, 0, 0), utc(2024, time.January, 31, 0, 0))
		require.Len(t, occs, 1)
		assert.Equal(t, ev.ID, occs[0].ID)
		assert.Equal(t, ev.ID, occs[0].EventID)
		assert.True(t, occs[0].StartTime.Equal(ev.StartDate))
		assert.True(t, occs[0].EndTime.Equal(ev.EndDate))
		assert.Equal(t, ev.Name, occs[0].Name)
		assert.Equal(t, ev.Category, occs[0].Category)
	})

	t.Run("already in progress at from", func(t *testing.T) {
		occs := Generate(ev, utc(2024, time.January, 10, 11, 0), utc(2024, time.January, 31, 0, 0))
		assert.Len(t, occs, 1)
	})

	t.Run("ending exactly at from", func(t *testing.T) {
		occs := Generate(ev, ev.EndDate, utc(2024, time.January, 31, 0, 0))
		assert.Len(t, occs, 1)
	})

	t.Run("starting exactly at until", func(t *testing.T) {
		occs := Generate(ev, utc(2024, time.January, 1, 0, 0), ev.StartDate)
		assert.Len(t, occs, 1)
	})

	t.Run("before window", func(t *testing.T) {
		occs := Generate(ev, utc(2024, time.February, 1, 0, 0), utc(2024, time.February, 28, 0, 0))
		assert.Empty(t, occs)
	})

	t.Run("after window", func(t *testing.T) {
		occs := Generate(ev, utc(2024, time.January, 1, 0, 0), utc(2024, time.January, 10, 9, 0))
		assert.Empty(t, occs)
	})
}

func TestGenerateWeekly(t *testing.T) {
	// Weekly series starting Mon Jan 1 18:00-20:00 UTC, queried for the two
	// weeks starting Jan 8. Both window bounds are inclusive instants; the
	// Jan 22 occurrence starts at 18:00, after the until instant, and is
	// excluded.
	ev := weeklyEvent()
	occs := Generate(ev, utc(2024, time.January, 8, 0, 0), utc(2024, time.January, 22, 0, 0))

	require.Len(t, occs, 2)
	assert.True(t, occs[0].StartTime.Equal(utc(2024, time.January, 8, 18, 0)))
	assert.True(t, occs[0].EndTime.Equal(utc(2024, time.January, 8, 20, 0)))
	assert.True(t, occs[1].StartTime.Equal(utc(2024, time.January, 15, 18, 0)))
	assert.Equal(t, "11112222333344445555-2024-01-08T18:00:00.000Z", occs[0].ID)
	assert.Equal(t, "11112222333344445555-2024-01-15T18:00:00.000Z", occs[1].ID)
}

func TestGenerateWeeklyFirstOccurrenceInProgress(t *testing.T) {
	// The Jan 8 occurrence runs 18:00-20:00; a window opening at 19:00 must
	// still include it.
	ev := weeklyEvent()
	occs := Generate(ev, utc(2024, time.January, 8, 19, 0), utc(2024, time.January, 14, 0, 0))

	require.Len(t, occs, 1)
	assert.True(t, occs[0].StartTime.Equal(utc(2024, time.January, 8, 18, 0)))
}

func TestGenerateDailyInterval(t *testing.T) {
	ev := weeklyEvent()
	ev.Recurrence = &domain.Recurrence{Frequency: domain.FrequencyDaily, Interval: 3}

	occs := Generate(ev, utc(2024, time.January, 1, 0, 0), utc(2024, time.January, 10, 23, 0))
	require.Len(t, occs, 4)
	for i, day := range []int{1, 4, 7, 10} {
		assert.True(t, occs[i].StartTime.Equal(utc(2024, time.January, day, 18, 0)), "occurrence %d", i)
	}
}

func TestGenerateZeroIntervalDefaultsToOne(t *testing.T) {
	ev := weeklyEvent()
	ev.Recurrence.Interval = 0

	occs := Generate(ev, utc(2024, time.January, 1, 0, 0), utc(2024, time.January, 15, 0, 0))
	assert.Len(t, occs, 2) // Jan 1 and Jan 8
}

func TestGenerateMonthlyClamp(t *testing.T) {
	// A series anchored on the 31st clamps to short months and reverts to
	// the 31st whenever the month has one. 2024 is a leap year.
	ev := &domain.Event{
		ID:        "66667777888899990000",
		Name:      "Board game night",
		Category:  domain.CategoryAction,
		StartDate: utc(2024, time.January, 31, 10, 30),
		EndDate:   utc(2024, time.January, 31, 12, 30),
		Recurrence: &domain.Recurrence{
			Frequency: domain.FrequencyMonthly,
			Interval:  1,
		},
	}

	occs := Generate(ev, utc(2024, time.January, 1, 0, 0), utc(2024, time.December, 31, 23, 59))
	require.Len(t, occs, 12)

	wantDays := []struct {
		month time.Month
		day   int
	}{
		{time.January, 31}, {time.February, 29}, {time.March, 31}, {time.April, 30},
		{time.May, 31}, {time.June, 30}, {time.July, 31}, {time.August, 31},
		{time.September, 30}, {time.October, 31}, {time.November, 30}, {time.December, 31},
	}
	for i, want := range wantDays {
		got := occs[i].StartTime
		assert.Equal(t, want.month, got.Month(), "occurrence %d", i)
		assert.Equal(t, want.day, got.Day(), "occurrence %d", i)
		assert.Equal(t, 10, got.Hour(), "occurrence %d keeps time-of-day")
		assert.Equal(t, 30, got.Minute(), "occurrence %d keeps time-of-day")
	}
}

func TestGenerateMonthlyYearCarry(t *testing.T) {
	ev := &domain.Event{
		ID:        "aaaa1111bbbb2222cccc",
		Name:      "Quarterly action day",
		Category:  domain.CategoryAction,
		StartDate: utc(2024, time.November, 15, 9, 0),
		EndDate:   utc(2024, time.November, 15, 17, 0),
		Recurrence: &domain.Recurrence{
			Frequency: domain.FrequencyMonthly,
			Interval:  3,
		},
	}

	occs := Generate(ev, utc(2025, time.January, 1, 0, 0), utc(2025, time.June, 1, 0, 0))
	require.Len(t, occs, 2)
	assert.True(t, occs[0].StartTime.Equal(utc(2025, time.February, 15, 9, 0)))
	assert.True(t, occs[1].StartTime.Equal(utc(2025, time.May, 15, 9, 0)))
}

func TestGenerateDurationInvariant(t *testing.T) {
	ev := weeklyEvent()
	occs := Generate(ev, utc(2024, time.January, 1, 0, 0), utc(2024, time.March, 1, 0, 0))
	require.NotEmpty(t, occs)
	for _, occ := range occs {
		assert.Equal(t, ev.Duration(), occ.EndTime.Sub(occ.StartTime))
	}
}

func TestGenerateOrderedAscending(t *testing.T) {
	ev := weeklyEvent()
	occs := Generate(ev, utc(2024, time.January, 1, 0, 0), utc(2024, time.June, 1, 0, 0))
	require.NotEmpty(t, occs)
	for i := 1; i < len(occs); i++ {
		assert.True(t, occs[i-1].StartTime.Before(occs[i].StartTime))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	ev := weeklyEvent()
	from, until := utc(2024, time.January, 1, 0, 0), utc(2024, time.June, 1, 0, 0)

	first := Generate(ev, from, until)
	second := Generate(ev, from, until)
	assert.Equal(t, first, second)
}

func TestGenerateEmptyWindow(t *testing.T) {
	ev := weeklyEvent()
	occs := Generate(ev, utc(2024, time.January, 2, 0, 0), utc(2024, time.January, 2, 0, 0))
	assert.Empty(t, occs)
}
