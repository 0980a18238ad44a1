package gcal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epddash/internal/model"
	"epddash/internal/source"
)

var testLoc = time.FixedZone("PST", -8*3600)

const testCredentials = `{
  "installed": {
    "client_id": "test-client.apps.googleusercontent.com",
    "client_secret": "shhh",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

const testToken = `{"access_token":"ya29.test","token_type":"Bearer","expiry":"2099-01-01T00:00:00Z"}`

func writeAuthFiles(t *testing.T) (credPath, tokenPath string) {
	t.Helper()
	dir := t.TempDir()
	credPath = filepath.Join(dir, "credentials.json")
	tokenPath = filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(credPath, []byte(testCredentials), 0o600))
	require.NoError(t, os.WriteFile(tokenPath, []byte(testToken), 0o600))
	return credPath, tokenPath
}

func TestNewRequiresCalendarID(t *testing.T) {
	cred, tok := writeAuthFiles(t)
	_, err := New(model.OwnerA, "", cred, tok, testLoc)
	assert.Error(t, err)
}

func TestNewRequiresCredentialFiles(t *testing.T) {
	_, err := New(model.OwnerA, "cal@example.com", "/nonexistent/credentials.json", "/nonexistent/token.json", testLoc)
	assert.Error(t, err)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	cred, tok := writeAuthFiles(t)
	c, err := New(model.OwnerA, "family@example.com", cred, tok, testLoc)
	require.NoError(t, err)
	c.httpClient = srv.Client()
	c.baseURL = srv.URL
	return c
}

func TestFetchConvertsItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.NotEmpty(t, q.Get("timeMin"))
		assert.NotEmpty(t, q.Get("timeMax"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{"id": "e1", "status": "confirmed", "summary": "Dentist",
				 "location": "Main St",
				 "start": {"dateTime": "2026-03-10T09:00:00-08:00"},
				 "end":   {"dateTime": "2026-03-10T10:00:00-08:00"}},
				{"id": "e2", "status": "confirmed", "summary": "Holiday",
				 "start": {"date": "2026-03-12"},
				 "end":   {"date": "2026-03-13"}},
				{"id": "e3", "status": "cancelled", "summary": "Gone",
				 "start": {"dateTime": "2026-03-10T11:00:00-08:00"}},
				{"id": "", "summary": "No id",
				 "start": {"dateTime": "2026-03-10T12:00:00-08:00"}},
				{"id": "e5", "summary": "No start"}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	window := source.WindowFrom(time.Date(2026, time.March, 10, 0, 0, 0, 0, testLoc), 42)

	events, err := c.Fetch(context.Background(), window)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, model.OwnerA, events[0].Owner)
	assert.Equal(t, "Dentist", events[0].Title)
	assert.Equal(t, "Main St", events[0].Location)
	assert.False(t, events[0].AllDay)
	assert.True(t, events[0].Start.Equal(time.Date(2026, time.March, 10, 9, 0, 0, 0, testLoc)))

	assert.Equal(t, "e2", events[1].ID)
	assert.True(t, events[1].AllDay)
	assert.True(t, events[1].Start.Equal(time.Date(2026, time.March, 12, 0, 0, 0, 0, testLoc)))
}

func TestFetchAPIErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"code": 401}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Fetch(context.Background(), source.WindowFrom(time.Now(), 7))
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	c := &Client{loc: testLoc}

	got, allDay, ok := c.parseTime(eventTime{DateTime: "2026-03-10T18:30:00Z"})
	require.True(t, ok)
	assert.False(t, allDay)
	assert.Equal(t, testLoc, got.Location())
	assert.True(t, got.Equal(time.Date(2026, time.March, 10, 18, 30, 0, 0, time.UTC)))

	got, allDay, ok = c.parseTime(eventTime{Date: "2026-03-10"})
	require.True(t, ok)
	assert.True(t, allDay)
	assert.True(t, got.Equal(time.Date(2026, time.March, 10, 0, 0, 0, 0, testLoc)))

	_, _, ok = c.parseTime(eventTime{})
	assert.False(t, ok)

	_, _, ok = c.parseTime(eventTime{DateTime: "not-a-time"})
	assert.False(t, ok)
}
