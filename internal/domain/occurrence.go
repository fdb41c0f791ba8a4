package domain

import "time"

// Occurrence is one concrete time instance of an Event. Occurrences are
// derived on the fly by the generator and never persisted; availability
// records reference them through their stable id.
type Occurrence struct {
	ID      string
	EventID string

	StartTime time.Time
	EndTime   time.Time

	// Denormalized from the owning event at generation time.
	Name     string
	Category Category
}

// FormatTime returns formatted time range for display
func (o *Occurrence) FormatTime(loc *time.Location) string {
	start := o.StartTime.In(loc)
	end := o.EndTime.In(loc)
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		return start.Format("15:04") + "-" + end.Format("15:04")
	}
	return start.Format("02.01 15:04") + " - " + end.Format("02.01 15:04")
}

// FormatDate returns formatted start date for display
func (o *Occurrence) FormatDate(loc *time.Location) string {
	return o.StartTime.In(loc).Format("Mon 02.01")
}

// IsPast returns true if the occurrence has fully ended before now.
func (o *Occurrence) IsPast(now time.Time) bool {
	return o.EndTime.Before(now)
}
