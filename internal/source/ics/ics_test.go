package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epddash/internal/model"
	"epddash/internal/source"
)

const simpleFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:timed-1\r\n" +
	"SUMMARY:Dentist\r\n" +
	"LOCATION:Main St\r\n" +
	"DTSTART:20260310T170000Z\r\n" +
	"DTEND:20260310T180000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:allday-1\r\n" +
	"SUMMARY:Holiday\r\n" +
	"DTSTART;VALUE=DATE:20260312\r\n" +
	"DTEND;VALUE=DATE:20260313\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"SUMMARY:No UID, skipped\r\n" +
	"DTSTART:20260310T190000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

const recurringFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:weekly-1\r\n" +
	"SUMMARY:Piano lesson\r\n" +
	"DTSTART:20260302T160000Z\r\n" +
	"DTEND:20260302T170000Z\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=10\r\n" +
	"EXDATE:20260316T160000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func testWindow() source.Window {
	return source.Window{
		Start: time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.March, 23, 0, 0, 0, 0, time.UTC),
	}
}

func serveFeed(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c, err := New(model.OwnerB, srv.URL, time.UTC)
	require.NoError(t, err)
	c.httpClient = srv.Client()
	return c
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(model.OwnerA, "", time.UTC)
	assert.Error(t, err)
}

func TestFetchParsesPlainAndAllDay(t *testing.T) {
	c := serveFeed(t, simpleFeed)

	events, err := c.Fetch(context.Background(), testWindow())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "timed-1", events[0].ID)
	assert.Equal(t, "Dentist", events[0].Title)
	assert.Equal(t, "Main St", events[0].Location)
	assert.Equal(t, model.OwnerB, events[0].Owner)
	assert.False(t, events[0].AllDay)
	assert.True(t, events[0].Start.Equal(time.Date(2026, time.March, 10, 17, 0, 0, 0, time.UTC)))

	assert.Equal(t, "allday-1", events[1].ID)
	assert.True(t, events[1].AllDay)
	assert.True(t, events[1].Start.Equal(time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC)))
}

func TestFetchExpandsRecurrenceWithExdate(t *testing.T) {
	c := serveFeed(t, recurringFeed)

	events, err := c.Fetch(context.Background(), testWindow())
	require.NoError(t, err)

	// Weekly Mondays from Mar 2. Within the window that is Mar 9 and Mar 16,
	// and the 16th is removed by EXDATE.
	require.Len(t, events, 1)
	assert.Equal(t, "Piano lesson", events[0].Title)
	assert.True(t, events[0].Start.Equal(time.Date(2026, time.March, 9, 16, 0, 0, 0, time.UTC)))

	// Recurring instances get per-occurrence ids.
	assert.Contains(t, events[0].ID, "weekly-1/")
}

func TestFetchHTTPErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(model.OwnerA, srv.URL, time.UTC)
	require.NoError(t, err)
	c.httpClient = srv.Client()

	_, err = c.Fetch(context.Background(), testWindow())
	assert.Error(t, err)
}

func TestParseICSTime(t *testing.T) {
	got, err := parseICSTime("20260310T170000Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, time.March, 10, 17, 0, 0, 0, time.UTC)))

	got, err = parseICSTime("20260310")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Day())

	_, err = parseICSTime("")
	assert.Error(t, err)
}

func TestOverlaps(t *testing.T) {
	w := testWindow()
	in := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	assert.True(t, overlaps(in, in.Add(time.Hour), w))
	assert.False(t, overlaps(in.AddDate(0, -1, 0), in.AddDate(0, -1, 0).Add(time.Hour), w))
	assert.False(t, overlaps(in.AddDate(0, 1, 0), in.AddDate(0, 1, 0).Add(time.Hour), w))
	// An event straddling the window start still shows.
	assert.True(t, overlaps(w.Start.Add(-time.Hour), w.Start.Add(time.Hour), w))
}
