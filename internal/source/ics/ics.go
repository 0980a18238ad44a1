// Package ics is the ICS-feed calendar source adapter: one HTTP GET, parse,
// recurrence expansion into the fetch window. Cache fallback lives in the
// orchestrator, not here.
package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "epddash/internal/log"
	"epddash/internal/model"
	"epddash/internal/source"
)

// Client fetches one owner's events from an ICS subscription URL.
type Client struct {
	owner model.Owner
	url   string
	loc   *time.Location

	httpClient *http.Client
}

// New builds an ICS adapter for owner reading from feedURL. Events are
// returned in loc.
func New(owner model.Owner, feedURL string, loc *time.Location) (*Client, error) {
	if feedURL == "" {
		return nil, errors.New("ics: feed URL is empty")
	}
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		owner:      owner,
		url:        feedURL,
		loc:        loc,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Fetch downloads and parses the feed, then expands recurrences into the
// window. Individual malformed VEVENTs are skipped, not fatal.
func (c *Client) Fetch(ctx context.Context, window source.Window) ([]model.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("ics: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ics: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ics: feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ics: read body: %w", err)
	}

	parsed, err := c.parse(body)
	if err != nil {
		return nil, err
	}

	events := expand(parsed, c.owner, window, c.loc)
	appLog.Info("ics fetch completed", "owner", c.owner, "count", len(events))
	return events, nil
}

// parsedEvent is the raw VEVENT shape before recurrence expansion.
type parsedEvent struct {
	uid         string
	summary     string
	description string
	location    string

	start  time.Time
	end    time.Time
	allDay bool

	rawRRule   string
	exDates    []time.Time
	recurrence *time.Time // RECURRENCE-ID for override instances
}

func (c *Client) parse(body []byte) ([]parsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse calendar: %w", err)
	}

	out := make([]parsedEvent, 0)
	for _, ve := range cal.Events() {
		pe, err := parseVEvent(ve)
		if err != nil {
			appLog.Warn("ics: skipping vevent", "owner", c.owner, "err", err)
			continue
		}
		out = append(out, pe)
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (parsedEvent, error) {
	var pe parsedEvent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return pe, errors.New("missing UID")
	}
	pe.uid = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		pe.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		pe.description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		pe.location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return pe, fmt.Errorf("DTSTART: %w", err)
	}
	pe.start = start
	if end, err := ve.GetEndAt(); err == nil {
		pe.end = end
	} else {
		pe.end = start
	}

	// All-day detection: VALUE=DATE or a value without a time component.
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if params := p.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				pe.allDay = true
			}
		}
		if !strings.Contains(p.Value, "T") {
			pe.allDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		pe.rawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				pe.exDates = append(pe.exDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			pe.recurrence = &t
		}
	}

	return pe, nil
}

// parseICSTime handles the basic DATE / DATE-TIME / UTC forms used by
// EXDATE and RECURRENCE-ID values.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}
