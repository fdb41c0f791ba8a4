package caldav

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/teambition/rrule-go"

	"github.com/j-vseg/piwo/internal/domain"
)

// Publisher mirrors the organization's events onto a shared CalDAV calendar
// so members can subscribe with any calendar app. One calendar object per
// event; recurring events are published as a base VEVENT with an RRULE.
type Publisher struct {
	baseURL      string
	username     string
	password     string
	calendarPath string
	client       *caldav.Client
}

// NewPublisher creates a CalDAV publisher for the given calendar collection.
func NewPublisher(baseURL, username, password, calendarPath string) *Publisher {
	return &Publisher{
		baseURL:      baseURL,
		username:     username,
		password:     password,
		calendarPath: calendarPath,
	}
}

// connect establishes connection to the CalDAV server
func (p *Publisher) connect() (*caldav.Client, error) {
	if p.client != nil {
		return p.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: p.username,
			password: p.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	p.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// DiscoverCalendars returns the calendar collections available to the
// configured account, for picking a CALDAV_CALENDAR path.
func (p *Publisher) DiscoverCalendars() ([]Calendar, error) {
	client, err := p.connect()
	if err != nil {
		return nil, err
	}

	ctx := context.Background()

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var result []Calendar
	for _, cal := range cals {
		result = append(result, Calendar{Path: cal.Path, DisplayName: cal.Name})
	}
	return result, nil
}

// PublishEvent creates or replaces the calendar object for an event.
func (p *Publisher) PublishEvent(e *domain.Event) error {
	client, err := p.connect()
	if err != nil {
		return err
	}

	cal, err := eventToICS(e)
	if err != nil {
		return err
	}

	_, err = client.PutCalendarObject(context.Background(), p.objectPath(e.ID), cal)
	if err != nil {
		return fmt.Errorf("put calendar object: %w", err)
	}
	return nil
}

// RemoveEvent deletes the calendar object for an event.
func (p *Publisher) RemoveEvent(eventID string) error {
	client, err := p.connect()
	if err != nil {
		return err
	}

	if err := client.RemoveAll(context.Background(), p.objectPath(eventID)); err != nil {
		return fmt.Errorf("remove calendar object: %w", err)
	}
	return nil
}

func (p *Publisher) objectPath(eventID string) string {
	path := p.calendarPath
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + eventID + ".ics"
}

// eventToICS converts an Event to iCalendar format
func eventToICS(e *domain.Event) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//piwo//caldav//EN")

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, e.ID+"@piwo")
	vevent.Props.SetText(ical.PropSummary, e.Name)
	vevent.Props.SetText(ical.PropCategories, string(e.Category))
	vevent.Props.SetDateTime(ical.PropDateTimeStart, e.StartDate.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, e.EndDate.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if e.IsRecurring() {
		rule, err := rruleString(e.Recurrence)
		if err != nil {
			return nil, err
		}
		vevent.Props.SetText(ical.PropRecurrenceRule, rule)
	}

	cal.Children = append(cal.Children, vevent.Component)
	return cal, nil
}

// rruleString renders a recurrence as RFC 5545 RRULE text. RFC monthly
// recurrence skips months missing the base day while in-app expansion
// clamps to the month's last day; the subscribed calendar shows the RFC
// reading, the bot stays authoritative.
func rruleString(r *domain.Recurrence) (string, error) {
	var freq rrule.Frequency
	switch r.Frequency {
	case domain.FrequencyDaily:
		freq = rrule.DAILY
	case domain.FrequencyWeekly:
		freq = rrule.WEEKLY
	case domain.FrequencyMonthly:
		freq = rrule.MONTHLY
	default:
		return "", fmt.Errorf("unknown frequency %q", r.Frequency)
	}

	opt := rrule.ROption{Freq: freq, Interval: r.Interval}
	if _, err := rrule.NewRRule(opt); err != nil {
		return "", fmt.Errorf("build rrule: %w", err)
	}
	return opt.RRuleString(), nil
}
