package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epddash/internal/battery"
	"epddash/internal/config"
	"epddash/internal/model"
)

type fakeStore struct {
	events  map[model.Owner][]model.Event
	updated map[model.Owner]time.Time
	getErr  error
}

func (f *fakeStore) Get(_ context.Context, owner model.Owner) ([]model.Event, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.events[owner], nil
}

func (f *fakeStore) LastUpdated(_ context.Context, owner model.Owner) (time.Time, error) {
	return f.updated[owner], nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.OwnerA.Name = "Ashi"
	cfg.OwnerB.Name = "Sindi"
	return cfg
}

func newTestServer(cfg *config.Config, st EventStore) *Server {
	return NewServer(cfg, st, battery.NewStubReader(), "/nonexistent/preview.png")
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(testConfig(), &fakeStore{})
	rec := doGet(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestEventsMergesOwners(t *testing.T) {
	start := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	st := &fakeStore{events: map[model.Owner][]model.Event{
		model.OwnerA: {{ID: "a1", Owner: model.OwnerA, Title: "Dentist", Start: start, End: start.Add(time.Hour)}},
		model.OwnerB: {{ID: "b1", Owner: model.OwnerB, Title: "Gym", Start: start, End: start.Add(time.Hour)}},
	}}

	rec := doGet(t, newTestServer(testConfig(), st), "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "owner_a", resp.Events[0].Owner)
	assert.Equal(t, "Dentist", resp.Events[0].Title)
	assert.Equal(t, "owner_b", resp.Events[1].Owner)
}

func TestEventsAppliesPrivacyMode(t *testing.T) {
	cfg := testConfig()
	cfg.PrivacyMode = "xkcd"
	start := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	st := &fakeStore{events: map[model.Owner][]model.Event{
		model.OwnerA: {{ID: "a1", Owner: model.OwnerA, Title: "abc", Start: start}},
	}}

	rec := doGet(t, newTestServer(cfg, st), "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "dpb", resp.Events[0].Title)
}

func TestEventsStoreFailure(t *testing.T) {
	st := &fakeStore{getErr: context.DeadlineExceeded}
	rec := doGet(t, newTestServer(testConfig(), st), "/api/events")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEventsEmptyIsArrayNotNull(t *testing.T) {
	rec := doGet(t, newTestServer(testConfig(), &fakeStore{}), "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"events":[]`)
}

func TestStatusReportsRunOutcome(t *testing.T) {
	updatedA := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)
	st := &fakeStore{updated: map[model.Owner]time.Time{model.OwnerA: updatedA}}
	s := newTestServer(testConfig(), st)

	ranAt := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	s.RecordRun(ranAt, map[model.Owner]bool{model.OwnerA: true, model.OwnerB: false})

	rec := doGet(t, s, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "grid", resp.Mode)
	assert.Equal(t, "none", resp.PrivacyMode)
	assert.True(t, resp.LastRun.Equal(ranAt))

	a := resp.Owners["owner_a"]
	assert.Equal(t, "Ashi", a.Name)
	assert.True(t, a.Live)
	assert.True(t, a.LastUpdated.Equal(updatedA))

	b := resp.Owners["owner_b"]
	assert.Equal(t, "Sindi", b.Name)
	assert.False(t, b.Live)
	assert.Empty(t, resp.TimeQuote)
}

func TestStatusIncludesTimeQuoteInLitClockMode(t *testing.T) {
	cfg := testConfig()
	cfg.PrivacyMode = "literature_clock"

	rec := doGet(t, newTestServer(cfg, &fakeStore{}), "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "literature_clock", resp.PrivacyMode)
	assert.NotEmpty(t, resp.TimeQuote)
}

func TestBatteryUsesReader(t *testing.T) {
	rec := doGet(t, newTestServer(testConfig(), &fakeStore{}), "/api/battery")
	require.Equal(t, http.StatusOK, rec.Code)

	var status battery.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 100, status.Percent)
}

func TestBasicAuthGuardsAPI(t *testing.T) {
	cfg := testConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "frame", Password: "s3cret"}
	s := newTestServer(cfg, &fakeStore{})

	rec := doGet(t, s, "/api/status")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	// /health stays open for probes.
	rec = doGet(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("frame", "s3cret")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("frame", "wrong")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
