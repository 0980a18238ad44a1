// Package store is the durable event cache backing the fetch-with-fallback
// orchestrator. Each owner's record is logically independent; a successful
// fetch fully replaces that owner's cached set, a failed fetch leaves it
// untouched.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	appLog "epddash/internal/log"
	"epddash/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	owner       TEXT NOT NULL,
	id          TEXT NOT NULL,
	summary     TEXT NOT NULL,
	description TEXT,
	location    TEXT,
	start_time  TEXT NOT NULL,
	end_time    TEXT NOT NULL,
	all_day     INTEGER NOT NULL DEFAULT 0,
	cached_at   TEXT NOT NULL,
	PRIMARY KEY (owner, id)
);
CREATE INDEX IF NOT EXISTS idx_events_owner ON events(owner);
CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_time);

CREATE TABLE IF NOT EXISTS metadata (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store persists per-owner event sets plus a small metadata/weather cache in
// a single SQLite file. Safe for concurrent use; the two owners' fetches
// write to disjoint rows.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// Open opens (creating if necessary) the cache database at path. loc is the
// display timezone events are returned in; nil means time.Local.
func Open(path string, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	appLog.Info("event cache opened", "path", path)
	return &Store{db: db, loc: loc}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put replaces owner's cached event set with events, in one transaction.
// Events without an ID are skipped; they cannot be keyed.
func (s *Store) Put(ctx context.Context, owner model.Owner, events []model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE owner = ?`, owner.String()); err != nil {
		return fmt.Errorf("store: clear owner: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (owner, id, summary, description, location, start_time, end_time, all_day, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	stored := 0
	for _, ev := range events {
		if ev.ID == "" {
			appLog.Warn("skipping event without id", "owner", owner, "summary", ev.Title)
			continue
		}
		allDay := 0
		if ev.AllDay {
			allDay = 1
		}
		_, err := stmt.ExecContext(ctx,
			owner.String(), ev.ID, ev.Title, ev.Description, ev.Location,
			ev.Start.Format(time.RFC3339), ev.End.Format(time.RFC3339), allDay, now)
		if err != nil {
			return fmt.Errorf("store: insert %s: %w", ev.ID, err)
		}
		stored++
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		lastUpdateKey(owner), now, now); err != nil {
		return fmt.Errorf("store: metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}

	appLog.Info("cached events", "owner", owner, "count", stored)
	return nil
}

// Get returns owner's cached events ordered by start time. An empty cache
// yields an empty slice, never an error.
func (s *Store) Get(ctx context.Context, owner model.Owner) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, summary, description, location, start_time, end_time, all_day
		FROM events WHERE owner = ? ORDER BY start_time ASC`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		var (
			ev         model.Event
			desc, loc  sql.NullString
			start, end string
			allDay     int
		)
		if err := rows.Scan(&ev.ID, &ev.Title, &desc, &loc, &start, &end, &allDay); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		st, err := time.Parse(time.RFC3339, start)
		if err != nil {
			appLog.Warn("dropping cached event with bad start", "owner", owner, "id", ev.ID, "start", start)
			continue
		}
		et, err := time.Parse(time.RFC3339, end)
		if err != nil {
			et = st
		}
		ev.Owner = owner
		ev.Description = desc.String
		ev.Location = loc.String
		ev.Start = st.In(s.loc)
		ev.End = et.In(s.loc)
		ev.AllDay = allDay != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

// LastUpdated returns the instant owner's cache was last written, or the
// zero time when the owner has never been cached.
func (s *Store) LastUpdated(ctx context.Context, owner model.Owner) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`, lastUpdateKey(owner)).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("store: last updated: %w", err)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: parse last updated: %w", err)
	}
	return t, nil
}

// PruneBefore removes cached events that ended before t. Keeps the cache
// from growing without bound on a long-lived appliance.
func (s *Store) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE end_time < ?`, t.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("store: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		appLog.Info("pruned old events", "count", n)
	}
	return n, nil
}

func lastUpdateKey(owner model.Owner) string {
	return "last_update_" + owner.String()
}

// PutWeather caches the last successful weather snapshot (and forecast) so
// the dashboard can ride out short provider outages.
func (s *Store) PutWeather(ctx context.Context, snap *model.WeatherSnapshot, forecast []model.ForecastDay) error {
	payload := struct {
		Current  *model.WeatherSnapshot `json:"current"`
		Forecast []model.ForecastDay    `json:"forecast"`
	}{snap, forecast}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("store: marshal weather: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES ('weather', ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(data), now)
	if err != nil {
		return fmt.Errorf("store: put weather: %w", err)
	}
	return nil
}

// GetWeather returns the cached weather if it is younger than maxAge.
// A missing or stale cache returns nils, not an error.
func (s *Store) GetWeather(ctx context.Context, maxAge time.Duration) (*model.WeatherSnapshot, []model.ForecastDay, error) {
	var value, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM metadata WHERE key = 'weather'`).Scan(&value, &updated)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("store: get weather: %w", err)
	}

	at, err := time.Parse(time.RFC3339, updated)
	if err != nil || time.Since(at) > maxAge {
		return nil, nil, nil
	}

	var payload struct {
		Current  *model.WeatherSnapshot `json:"current"`
		Forecast []model.ForecastDay    `json:"forecast"`
	}
	if err := json.Unmarshal([]byte(value), &payload); err != nil {
		return nil, nil, fmt.Errorf("store: unmarshal weather: %w", err)
	}
	return payload.Current, payload.Forecast, nil
}
