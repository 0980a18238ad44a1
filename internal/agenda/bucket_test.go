package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epddash/internal/model"
)

var testLoc = time.FixedZone("PST", -8*3600)

func at(day, hour, min int) time.Time {
	return time.Date(2026, time.March, day, hour, min, 0, 0, testLoc)
}

func results(a, b []model.Event) map[model.Owner]model.OwnerFetchResult {
	return map[model.Owner]model.OwnerFetchResult{
		model.OwnerA: {Owner: model.OwnerA, Events: a, IsLive: true},
		model.OwnerB: {Owner: model.OwnerB, Events: b, IsLive: true},
	}
}

func TestBucketGroupsByLocalDate(t *testing.T) {
	a := []model.Event{
		{ID: "a1", Owner: model.OwnerA, Title: "Dentist", Start: at(10, 9, 0)},
		{ID: "a2", Owner: model.OwnerA, Title: "Gym", Start: at(11, 18, 0)},
	}
	b := []model.Event{
		{ID: "b1", Owner: model.OwnerB, Title: "Standup", Start: at(10, 10, 30)},
	}

	buckets := Bucket(results(a, b))
	require.Len(t, buckets, 2)

	day10 := buckets[model.Date{Year: 2026, Month: time.March, Day: 10}]
	require.Len(t, day10.Events, 2)
	assert.Equal(t, "a1", day10.Events[0].ID)
	assert.Equal(t, "b1", day10.Events[1].ID)

	day11 := buckets[model.Date{Year: 2026, Month: time.March, Day: 11}]
	require.Len(t, day11.Events, 1)
	assert.Equal(t, "a2", day11.Events[0].ID)
}

func TestBucketOrdersByStartWithinDay(t *testing.T) {
	a := []model.Event{
		{ID: "late", Owner: model.OwnerA, Start: at(10, 17, 0)},
		{ID: "early", Owner: model.OwnerA, Start: at(10, 8, 0)},
	}
	buckets := Bucket(results(a, nil))

	day := buckets[model.Date{Year: 2026, Month: time.March, Day: 10}]
	require.Len(t, day.Events, 2)
	assert.Equal(t, "early", day.Events[0].ID)
	assert.Equal(t, "late", day.Events[1].ID)
}

func TestBucketTieBreaksOwnerAFirst(t *testing.T) {
	start := at(10, 12, 0)
	a := []model.Event{{ID: "a", Owner: model.OwnerA, Start: start}}
	b := []model.Event{{ID: "b", Owner: model.OwnerB, Start: start}}

	buckets := Bucket(results(a, b))
	day := buckets[model.DateOf(start)]
	require.Len(t, day.Events, 2)
	assert.Equal(t, model.OwnerA, day.Events[0].Owner)
	assert.Equal(t, model.OwnerB, day.Events[1].Owner)
}

func TestBucketAllDaySortsBeforeTimed(t *testing.T) {
	a := []model.Event{
		{ID: "timed", Owner: model.OwnerA, Start: at(10, 0, 30)},
		{ID: "allday", Owner: model.OwnerA, Start: at(10, 15, 0), AllDay: true},
	}
	buckets := Bucket(results(a, nil))

	day := buckets[model.Date{Year: 2026, Month: time.March, Day: 10}]
	require.Len(t, day.Events, 2)
	// All-day events normalize to start-of-day, so they lead the bucket.
	assert.Equal(t, "allday", day.Events[0].ID)
	assert.True(t, day.Events[0].Start.Equal(at(10, 0, 0)))
}

func TestBucketDropsInvalidEvents(t *testing.T) {
	a := []model.Event{
		{ID: "ok", Owner: model.OwnerA, Start: at(10, 9, 0)},
		{ID: "broken", Owner: model.OwnerA}, // no start
	}
	buckets := Bucket(results(a, nil))

	day := buckets[model.Date{Year: 2026, Month: time.March, Day: 10}]
	require.Len(t, day.Events, 1)
	assert.Equal(t, "ok", day.Events[0].ID)
}

func TestBucketMultiDayEventOnlyUnderStartDate(t *testing.T) {
	a := []model.Event{{
		ID:    "trip",
		Owner: model.OwnerA,
		Start: at(10, 20, 0),
		End:   at(13, 10, 0),
	}}
	buckets := Bucket(results(a, nil))

	require.Len(t, buckets, 1)
	_, ok := buckets[model.Date{Year: 2026, Month: time.March, Day: 10}]
	assert.True(t, ok)
}

func TestBucketDuplicateIDsAcrossOwnersKept(t *testing.T) {
	start := at(10, 12, 0)
	a := []model.Event{{ID: "shared", Owner: model.OwnerA, Start: start}}
	b := []model.Event{{ID: "shared", Owner: model.OwnerB, Start: start}}

	buckets := Bucket(results(a, b))
	assert.Len(t, buckets[model.DateOf(start)].Events, 2)
}

func TestNormalizeStart(t *testing.T) {
	_, ok := NormalizeStart(model.Event{})
	assert.False(t, ok)

	got, ok := NormalizeStart(model.Event{Start: at(10, 14, 45), AllDay: true})
	assert.True(t, ok)
	assert.True(t, got.Equal(at(10, 0, 0)))

	timed := at(10, 14, 45)
	got, ok = NormalizeStart(model.Event{Start: timed})
	assert.True(t, ok)
	assert.True(t, got.Equal(timed))
}

func TestDatesAscending(t *testing.T) {
	a := []model.Event{
		{ID: "1", Owner: model.OwnerA, Start: at(15, 9, 0)},
		{ID: "2", Owner: model.OwnerA, Start: at(10, 9, 0)},
		{ID: "3", Owner: model.OwnerA, Start: at(12, 9, 0)},
	}
	dates := Dates(Bucket(results(a, nil)))
	require.Len(t, dates, 3)
	assert.Equal(t, 10, dates[0].Day)
	assert.Equal(t, 12, dates[1].Day)
	assert.Equal(t, 15, dates[2].Day)
}

func TestUpcomingSkipsPastAndHonorsLimit(t *testing.T) {
	a := []model.Event{
		{ID: "past", Owner: model.OwnerA, Start: at(9, 9, 0)},
		{ID: "u1", Owner: model.OwnerA, Start: at(10, 9, 0)},
		{ID: "u2", Owner: model.OwnerA, Start: at(11, 9, 0)},
		{ID: "u3", Owner: model.OwnerA, Start: at(12, 9, 0)},
	}
	buckets := Bucket(results(a, nil))

	got := Upcoming(buckets, model.Date{Year: 2026, Month: time.March, Day: 10}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "u1", got[0].ID)
	assert.Equal(t, "u2", got[1].ID)
}
