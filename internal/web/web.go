// Package web serves the preview and status HTTP API. It reads only from
// the event store and cached state; it never triggers fetches, so a flood
// of requests cannot hammer the calendar providers.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"epddash/internal/battery"
	"epddash/internal/config"
	appLog "epddash/internal/log"
	"epddash/internal/model"
	"epddash/internal/privacy"
)

// EventStore is the slice of the store the server reads.
type EventStore interface {
	Get(ctx context.Context, owner model.Owner) ([]model.Event, error)
	LastUpdated(ctx context.Context, owner model.Owner) (time.Time, error)
}

// Server exposes /health, /api/events, /api/status, /api/battery and the
// rendered preview image.
type Server struct {
	cfg     *config.Config
	store   EventStore
	battery battery.Reader
	preview string
	mux     *http.ServeMux

	mu        sync.RWMutex
	lastRun   time.Time
	lastLive  map[model.Owner]bool
	batCache  *battery.Status
	batCached time.Time
}

// NewServer wires the read-only API over the given store and battery
// reader. previewPath is where the display pipeline leaves its PNG.
func NewServer(cfg *config.Config, st EventStore, br battery.Reader, previewPath string) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		battery:  br,
		preview:  previewPath,
		mux:      http.NewServeMux(),
		lastLive: make(map[model.Owner]bool),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/battery", s.handleBattery)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	return s
}

// RecordRun lets the refresh pipeline report its outcome so /api/status can
// show per-owner liveness without the server tracking fetches itself.
func (s *Server) RecordRun(at time.Time, live map[model.Owner]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = at
	s.lastLive = make(map[model.Owner]bool, len(live))
	for k, v := range live {
		s.lastLive[k] = v
	}
}

// Handler returns the server's handler, wrapped in basic auth when
// configured. /health stays unauthenticated for probes.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.cfg.BasicAuth != nil && s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != "" {
		h = s.basicAuth(h)
	}
	return h
}

// Serve runs the HTTP server until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("http server listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	user := s.cfg.BasicAuth.Username
	pass := s.cfg.BasicAuth.Password
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, user) || !secureCompare(p, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="epddash", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type eventDTO struct {
	ID       string    `json:"id"`
	Owner    string    `json:"owner"`
	Title    string    `json:"title"`
	Location string    `json:"location,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"all_day"`
}

type eventsResponse struct {
	Events []eventDTO `json:"events"`
}

// handleEvents returns the cached events for both owners, with the
// configured privacy mode applied so the API never leaks more than the
// panel shows.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mode := privacy.Parse(s.cfg.PrivacyMode)

	var dtos []eventDTO
	for _, owner := range model.Owners {
		events, err := s.store.Get(ctx, owner)
		if err != nil {
			appLog.Error("api events: store read failed", err, "owner", owner.String())
			writeError(w, http.StatusInternalServerError, "failed to read events")
			return
		}
		res := privacy.Apply(mode, model.OwnerFetchResult{Owner: owner, Events: events})
		for _, ev := range res.Events {
			dtos = append(dtos, eventDTO{
				ID:       ev.ID,
				Owner:    ev.Owner.String(),
				Title:    ev.Title,
				Location: ev.Location,
				Start:    ev.Start,
				End:      ev.End,
				AllDay:   ev.AllDay,
			})
		}
	}
	if dtos == nil {
		dtos = []eventDTO{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: dtos})
}

type ownerStatus struct {
	Name        string    `json:"name"`
	Live        bool      `json:"live"`
	LastUpdated time.Time `json:"last_updated"`
}

type statusResponse struct {
	Mode        string                 `json:"mode"`
	PrivacyMode string                 `json:"privacy_mode"`
	LastRun     time.Time              `json:"last_run"`
	Owners      map[string]ownerStatus `json:"owners"`
	TimeQuote   string                 `json:"time_quote,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s.mu.RLock()
	lastRun := s.lastRun
	live := make(map[model.Owner]bool, len(s.lastLive))
	for k, v := range s.lastLive {
		live[k] = v
	}
	s.mu.RUnlock()

	resp := statusResponse{
		Mode:        s.cfg.Mode,
		PrivacyMode: string(privacy.Parse(s.cfg.PrivacyMode)),
		LastRun:     lastRun,
		Owners:      make(map[string]ownerStatus, len(model.Owners)),
	}
	if privacy.Parse(s.cfg.PrivacyMode) == privacy.ModeLitClock {
		resp.TimeQuote = privacy.TimeQuote(time.Now())
	}

	names := map[model.Owner]string{
		model.OwnerA: s.cfg.OwnerA.Name,
		model.OwnerB: s.cfg.OwnerB.Name,
	}
	for _, owner := range model.Owners {
		updated, err := s.store.LastUpdated(ctx, owner)
		if err != nil {
			appLog.Warn("api status: last update lookup failed", "owner", owner.String(), "err", err.Error())
		}
		resp.Owners[owner.String()] = ownerStatus{
			Name:        names[owner],
			Live:        live[owner],
			LastUpdated: updated,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleBattery reads the battery with a short-lived cache; the level does
// not need sub-second precision and I2C reads are not free.
func (s *Server) handleBattery(w http.ResponseWriter, r *http.Request) {
	const ttl = 30 * time.Second

	s.mu.RLock()
	cached, at := s.batCache, s.batCached
	s.mu.RUnlock()
	if cached != nil && time.Since(at) < ttl {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	status, err := s.battery.Read(r.Context())
	if err != nil {
		appLog.Error("battery read failed", err)
		writeError(w, http.StatusInternalServerError, "failed to read battery")
		return
	}

	s.mu.Lock()
	s.batCache = &status
	s.batCached = time.Now()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.preview)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
