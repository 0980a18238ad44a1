// Package agenda turns the two per-owner fetch results into the per-day
// event model every layout template consumes. Pure and total: invalid
// events are dropped and logged, never fatal.
package agenda

import (
	"sort"
	"time"

	appLog "epddash/internal/log"
	"epddash/internal/model"
)

// NormalizeStart reduces an event's heterogeneous time representation to a
// single comparable instant. Timed events keep their precise start; all-day
// events already carry the start-of-day instant from the adapter. The second
// return is false for invalid events (no start), which are excluded from
// bucketing.
func NormalizeStart(ev model.Event) (time.Time, bool) {
	if !ev.Valid() {
		return time.Time{}, false
	}
	if ev.AllDay {
		y, m, d := ev.Start.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, ev.Start.Location()), true
	}
	return ev.Start, true
}

// Bucket groups both owners' events by local calendar date. Within a date,
// events are ordered by normalized start instant; exact ties keep OwnerA's
// events before OwnerB's, then original fetch order (stable sort). An event
// spanning multiple dates is bucketed only under its start date. Duplicate
// ids across owners are not deduplicated: the two calendars are independent
// sources of truth.
func Bucket(results map[model.Owner]model.OwnerFetchResult) map[model.Date]model.DayBucket {
	buckets := make(map[model.Date]model.DayBucket)

	// Iterate owners in fixed order so the stable sort's tie-break is the
	// documented OwnerA-before-OwnerB contract.
	for _, owner := range model.Owners {
		res, ok := results[owner]
		if !ok {
			continue
		}
		for _, ev := range res.Events {
			start, valid := NormalizeStart(ev)
			if !valid {
				appLog.Warn("dropping event without start", "owner", ev.Owner, "id", ev.ID, "title", ev.Title)
				continue
			}
			ev.Start = start
			date := model.DateOf(start)
			b := buckets[date]
			b.Date = date
			b.Events = append(b.Events, ev)
			buckets[date] = b
		}
	}

	for date, b := range buckets {
		sort.SliceStable(b.Events, func(i, j int) bool {
			return b.Events[i].Start.Before(b.Events[j].Start)
		})
		buckets[date] = b
	}

	return buckets
}

// Dates returns the bucketed dates in ascending order.
func Dates(buckets map[model.Date]model.DayBucket) []model.Date {
	out := make([]model.Date, 0, len(buckets))
	for d := range buckets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Upcoming flattens the buckets into a chronological event list starting at
// from, capped at limit. Used by the list sections of several templates and
// by the web API.
func Upcoming(buckets map[model.Date]model.DayBucket, from model.Date, limit int) []model.Event {
	out := make([]model.Event, 0, limit)
	for _, d := range Dates(buckets) {
		if d.Before(from) {
			continue
		}
		for _, ev := range buckets[d].Events {
			out = append(out, ev)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}
