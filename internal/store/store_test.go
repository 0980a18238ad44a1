package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epddash/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ev(id string, start time.Time) model.Event {
	return model.Event{
		ID:    id,
		Title: "event " + id,
		Start: start,
		End:   start.Add(time.Hour),
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	in := []model.Event{
		{ID: "1", Title: "Dentist", Description: "bring card", Location: "Main St",
			Start: base, End: base.Add(time.Hour)},
		{ID: "2", Title: "Holiday", Start: base.AddDate(0, 0, 1), End: base.AddDate(0, 0, 2), AllDay: true},
	}
	require.NoError(t, s.Put(ctx, model.OwnerA, in))

	got, err := s.Get(ctx, model.OwnerA)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Dentist", got[0].Title)
	assert.Equal(t, "bring card", got[0].Description)
	assert.Equal(t, "Main St", got[0].Location)
	assert.Equal(t, model.OwnerA, got[0].Owner)
	assert.True(t, got[0].Start.Equal(base))
	assert.True(t, got[1].AllDay)
}

func TestPutReplacesWholeOwnerSet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, model.OwnerA, []model.Event{ev("old1", base), ev("old2", base.Add(time.Hour))}))
	require.NoError(t, s.Put(ctx, model.OwnerA, []model.Event{ev("new", base.Add(2*time.Hour))}))

	got, err := s.Get(ctx, model.OwnerA)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestOwnersAreIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, model.OwnerA, []model.Event{ev("a", base)}))
	require.NoError(t, s.Put(ctx, model.OwnerB, []model.Event{ev("b", base)}))
	require.NoError(t, s.Put(ctx, model.OwnerA, nil))

	gotA, err := s.Get(ctx, model.OwnerA)
	require.NoError(t, err)
	assert.Empty(t, gotA)

	gotB, err := s.Get(ctx, model.OwnerB)
	require.NoError(t, err)
	require.Len(t, gotB, 1)
	assert.Equal(t, model.OwnerB, gotB[0].Owner)
}

func TestGetOrdersByStart(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, model.OwnerA, []model.Event{
		ev("later", base.Add(3*time.Hour)),
		ev("sooner", base),
	}))

	got, err := s.Get(ctx, model.OwnerA)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "sooner", got[0].ID)
}

func TestPutSkipsEventsWithoutID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, model.OwnerA, []model.Event{
		ev("ok", base),
		{Title: "no id", Start: base},
	}))

	got, err := s.Get(ctx, model.OwnerA)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].ID)
}

func TestLastUpdated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.LastUpdated(ctx, model.OwnerA)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	before := time.Now().Add(-time.Second)
	require.NoError(t, s.Put(ctx, model.OwnerA, nil))

	got, err = s.LastUpdated(ctx, model.OwnerA)
	require.NoError(t, err)
	assert.True(t, got.After(before))

	// OwnerB remains untouched.
	gotB, err := s.LastUpdated(ctx, model.OwnerB)
	require.NoError(t, err)
	assert.True(t, gotB.IsZero())
}

func TestPruneBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, model.OwnerA, []model.Event{
		ev("ancient", base.AddDate(0, -2, 0)),
		ev("recent", base),
	}))

	n, err := s.PruneBefore(ctx, base.AddDate(0, -1, 0))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := s.Get(ctx, model.OwnerA)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].ID)
}

func TestWeatherCache(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap, forecast, err := s.GetWeather(ctx, time.Hour)
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Nil(t, forecast)

	in := &model.WeatherSnapshot{TempC: 17.5, Condition: "Clouds", Humidity: 60}
	fc := []model.ForecastDay{{Date: model.Date{Year: 2026, Month: time.March, Day: 11}, HighC: 20, LowC: 10, Condition: "Rain"}}
	require.NoError(t, s.PutWeather(ctx, in, fc))

	snap, forecast, err = s.GetWeather(ctx, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 17.5, snap.TempC)
	require.Len(t, forecast, 1)
	assert.Equal(t, "Rain", forecast[0].Condition)

	// A stale snapshot is treated as absent.
	snap, _, err = s.GetWeather(ctx, -time.Second)
	require.NoError(t, err)
	assert.Nil(t, snap)
}
