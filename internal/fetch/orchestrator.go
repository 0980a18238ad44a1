// Package fetch implements the fetch-with-fallback orchestrator: the
// renderer always receives some event list per owner, live when possible,
// cached when not. Failure is a value here (IsLive=false), never an error
// surfaced to the caller.
package fetch

import (
	"context"
	"sync"
	"time"

	appLog "epddash/internal/log"
	"epddash/internal/model"
	"epddash/internal/source"
)

// Store is the slice of the event cache the orchestrator needs. The SQLite
// store satisfies it; tests substitute fakes.
type Store interface {
	Put(ctx context.Context, owner model.Owner, events []model.Event) error
	Get(ctx context.Context, owner model.Owner) ([]model.Event, error)
	LastUpdated(ctx context.Context, owner model.Owner) (time.Time, error)
}

// Orchestrator coordinates one fetch-with-fallback cycle per owner. The two
// owners are independent: they share no mutable state and write to disjoint
// store keys, so their fetches run concurrently.
type Orchestrator struct {
	store   Store
	sources map[model.Owner]source.Source

	// windowDays is the fetch horizon handed to sources.
	windowDays int

	// timeout bounds each individual network fetch. A timed-out fetch is
	// indistinguishable from any other failure: fall back to cache.
	timeout time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New builds an Orchestrator over store and the per-owner sources. An owner
// missing from sources is the configuration-absence state: FetchOwner
// returns an empty non-live result for it without touching the store.
func New(store Store, sources map[model.Owner]source.Source, windowDays int, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		sources:    sources,
		windowDays: windowDays,
		timeout:    20 * time.Second,
		now:        time.Now,
	}
	if o.windowDays <= 0 {
		o.windowDays = 42
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FetchOwner runs one fetch-with-fallback cycle for owner.
//
// On a successful live fetch the store is fully replaced with the fresh
// events and IsLive is true. On any failure (network, auth, parse, timeout —
// not distinguished here) the last cached events are served with
// IsLive=false and the store is left untouched. Partial or failed data is
// never written.
func (o *Orchestrator) FetchOwner(ctx context.Context, owner model.Owner) model.OwnerFetchResult {
	fetchedAt := o.now()
	result := model.OwnerFetchResult{
		Owner:     owner,
		Events:    []model.Event{},
		FetchedAt: fetchedAt,
	}

	src, ok := o.sources[owner]
	if !ok || src == nil {
		appLog.Warn("no calendar source configured", "owner", owner)
		return result
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	events, err := src.Fetch(fetchCtx, source.WindowFrom(fetchedAt, o.windowDays))
	if err != nil {
		appLog.Warn("live fetch failed, serving cache", "owner", owner, "err", err)
		cached, cacheErr := o.store.Get(ctx, owner)
		if cacheErr != nil {
			// Cache read failure degrades to an empty list; the dashboard
			// must still produce a display.
			appLog.Error("cache read failed", cacheErr, "owner", owner)
			return result
		}
		result.Events = cached
		return result
	}

	if err := o.store.Put(ctx, owner, events); err != nil {
		// Live data is still good; the cache just missed this cycle.
		appLog.Error("cache write failed", err, "owner", owner)
	}

	result.Events = events
	result.IsLive = true
	return result
}

// FetchAll runs FetchOwner for both owners concurrently. Neither owner's
// outcome can block or fail because of the other's; completion order is
// irrelevant since each result lands in its own slot.
func (o *Orchestrator) FetchAll(ctx context.Context) map[model.Owner]model.OwnerFetchResult {
	var (
		wg      sync.WaitGroup
		results [len(model.Owners)]model.OwnerFetchResult
	)

	for i, owner := range model.Owners {
		wg.Add(1)
		go func(i int, owner model.Owner) {
			defer wg.Done()
			results[i] = o.FetchOwner(ctx, owner)
		}(i, owner)
	}
	wg.Wait()

	out := make(map[model.Owner]model.OwnerFetchResult, len(model.Owners))
	for i, owner := range model.Owners {
		out[owner] = results[i]
	}
	return out
}
