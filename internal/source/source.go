// Package source defines the calendar source adapter contract. Adapters do
// one network fetch and report failure as an error; retry/backoff and cache
// fallback belong to the orchestrator, never here.
package source

import (
	"context"
	"time"

	"epddash/internal/model"
)

// Window is the inclusive fetch range handed to an adapter.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowFrom builds a fetch window of days length starting at now.
func WindowFrom(now time.Time, days int) Window {
	return Window{Start: now, End: now.AddDate(0, 0, days)}
}

// Source fetches one owner's events for a window. Implementations must
// return events in the display timezone with Owner already set, and must
// drop provider items that cannot be represented (missing id or start)
// rather than fail the whole fetch.
type Source interface {
	Fetch(ctx context.Context, window Window) ([]model.Event, error)
}
