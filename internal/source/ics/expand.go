package ics

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "epddash/internal/log"
	"epddash/internal/model"
	"epddash/internal/source"
)

// Safety cap so a pathological RRULE cannot blow up a fetch cycle.
const maxOccurrencesPerEvent = 1000

// expand turns parsed VEVENTs into concrete model events within the window:
// plain events pass through, RRULE events are expanded with EXDATE removal
// and RECURRENCE-ID overrides applied, and everything is converted into the
// display timezone.
func expand(events []parsedEvent, owner model.Owner, window source.Window, loc *time.Location) []model.Event {
	base := make([]parsedEvent, 0, len(events))
	overridesByUID := make(map[string][]parsedEvent)

	for _, pe := range events {
		if pe.recurrence != nil {
			overridesByUID[pe.uid] = append(overridesByUID[pe.uid], pe)
			continue
		}
		base = append(base, pe)
	}

	out := make([]model.Event, 0, len(base))
	for _, pe := range base {
		if pe.rawRRule == "" {
			if overlaps(pe.start, pe.end, window) {
				out = append(out, makeEvent(applyOverride(pe, overridesByUID[pe.uid], pe.start), owner, pe.start, pe.end, loc))
			}
			continue
		}
		out = append(out, expandRecurring(pe, overridesByUID[pe.uid], owner, window, loc)...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func expandRecurring(pe parsedEvent, overrides []parsedEvent, owner model.Owner, window source.Window, loc *time.Location) []model.Event {
	r, err := rrule.StrToRRule(pe.rawRRule)
	if err != nil {
		appLog.Warn("ics: unparseable RRULE", "uid", pe.uid, "rrule", pe.rawRRule)
		return nil
	}
	r.DTStart(pe.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range pe.exDates {
		set.ExDate(ex.In(pe.start.Location()))
	}

	rangeStart := window.Start.In(pe.start.Location())
	rangeEnd := window.End.In(pe.start.Location())
	occTimes := set.Between(rangeStart, rangeEnd, true)
	if len(occTimes) > maxOccurrencesPerEvent {
		appLog.Warn("ics: truncating recurrence expansion", "uid", pe.uid, "cap", maxOccurrencesPerEvent)
		occTimes = occTimes[:maxOccurrencesPerEvent]
	}

	dur := pe.end.Sub(pe.start)
	out := make([]model.Event, 0, len(occTimes))
	for _, occStart := range occTimes {
		var occEnd time.Time
		if pe.allDay {
			occStart = time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occEnd = occStart.Add(24 * time.Hour)
		} else {
			occEnd = occStart.Add(dur)
		}

		src := applyOverride(pe, overrides, occStart)
		if src.recurrence != nil {
			// Overridden instance: its own start/end replace the slot.
			occStart, occEnd = src.start, src.end
		}
		out = append(out, makeEvent(src, owner, occStart, occEnd, loc))
	}
	return out
}

// applyOverride returns the override whose RECURRENCE-ID matches slotStart,
// or pe unchanged.
func applyOverride(pe parsedEvent, overrides []parsedEvent, slotStart time.Time) parsedEvent {
	for _, ov := range overrides {
		if ov.recurrence != nil && ov.recurrence.In(slotStart.Location()).Equal(slotStart) {
			return ov
		}
	}
	return pe
}

func makeEvent(pe parsedEvent, owner model.Owner, start, end time.Time, loc *time.Location) model.Event {
	startLocal := start.In(loc)
	if pe.allDay {
		// Keep all-day starts anchored to the local calendar date.
		startLocal = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	}
	endLocal := end.In(loc)

	// Recurring instances need per-occurrence ids to stay unique within
	// (owner, source).
	id := pe.uid
	if pe.rawRRule != "" || pe.recurrence != nil {
		id = pe.uid + "/" + startLocal.Format(time.RFC3339)
	}

	return model.Event{
		ID:          id,
		Owner:       owner,
		Title:       pe.summary,
		Description: pe.description,
		Location:    pe.location,
		Start:       startLocal,
		End:         endLocal,
		AllDay:      pe.allDay,
	}
}

func overlaps(start, end time.Time, w source.Window) bool {
	if end.Before(w.Start) {
		return false
	}
	if w.End.Before(start) {
		return false
	}
	return true
}
