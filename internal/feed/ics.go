// Package feed renders expanded occurrences as an iCalendar document so
// members can subscribe to the agenda from their own calendar apps.
package feed

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/j-vseg/piwo/internal/domain"
)

// BuildCalendar converts occurrences into a VCALENDAR. Each occurrence
// becomes its own VEVENT with the occurrence id as UID, so a deep link and
// a calendar entry name the same thing.
func BuildCalendar(occurrences []domain.Occurrence, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//piwo//agenda//EN")

	for _, occ := range occurrences {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, occ.ID+"@piwo")
		event.Props.SetText(ical.PropSummary, occ.Name)
		event.Props.SetText(ical.PropCategories, string(occ.Category))
		event.Props.SetDateTime(ical.PropDateTimeStart, occ.StartTime.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, occ.EndTime.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		cal.Children = append(cal.Children, event.Component)
	}

	return cal
}

// Encode serializes a calendar to its wire form.
func Encode(cal *ical.Calendar) ([]byte, error) {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
