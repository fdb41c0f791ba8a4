package occurrence

import (
	"fmt"
	"regexp"
	"time"

	"github.com/j-vseg/piwo/internal/domain"
)

// Occurrence ids are a wire contract: clients deep-link with them. A
// non-recurring occurrence reuses its event id verbatim; a recurring one is
// "<eventID>-<start>" with the start formatted in UTC at millisecond
// precision, e.g. "k3j9f2a8d7c1b6e0a4f8-2024-01-08T18:00:00.000Z".
const idTimeLayout = "2006-01-02T15:04:05.000Z"

// The timestamp suffix is located by shape rather than by hyphen position,
// so event ids containing hyphens still decode.
var idSuffixRe = regexp.MustCompile(`-(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2}))$`)

// EncodeID returns the stable id for an occurrence of the given event.
func EncodeID(eventID string, start time.Time, recurring bool) string {
	if !recurring {
		return eventID
	}
	return eventID + "-" + start.UTC().Format(idTimeLayout)
}

// DecodeID splits an occurrence id into its event id and, for recurring
// occurrences, the start instant. An id without a timestamp suffix names a
// non-recurring occurrence (hasStart false). A suffix that looks like a
// timestamp but does not parse yields ErrMalformedOccurrenceID.
func DecodeID(id string) (eventID string, start time.Time, hasStart bool, err error) {
	m := idSuffixRe.FindStringSubmatch(id)
	if m == nil {
		return id, time.Time{}, false, nil
	}

	eventID = id[:len(id)-len(m[0])]
	start, perr := time.Parse(time.RFC3339, m[1])
	if perr != nil {
		return eventID, time.Time{}, false, fmt.Errorf("%w: %q", domain.ErrMalformedOccurrenceID, id)
	}
	return eventID, start, true, nil
}

// FromEvent reconstructs the single occurrence an id names, given its
// already fetched owning event. The result matches what Generate would have
// produced for that slot: end time is start plus the event's invariant
// duration.
func FromEvent(ev *domain.Event, id string) (domain.Occurrence, error) {
	eventID, start, hasStart, err := DecodeID(id)
	if err != nil {
		return domain.Occurrence{}, err
	}
	if eventID != ev.ID {
		return domain.Occurrence{}, fmt.Errorf("%w: id %q does not belong to event %q", domain.ErrMalformedOccurrenceID, id, ev.ID)
	}

	if !hasStart {
		return domain.Occurrence{
			ID:        ev.ID,
			EventID:   ev.ID,
			StartTime: ev.StartDate,
			EndTime:   ev.EndDate,
			Name:      ev.Name,
			Category:  ev.Category,
		}, nil
	}

	return domain.Occurrence{
		ID:        id,
		EventID:   ev.ID,
		StartTime: start,
		EndTime:   start.Add(ev.Duration()),
		Name:      ev.Name,
		Category:  ev.Category,
	}, nil
}
