package privacy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epddash/internal/model"
)

func TestParse(t *testing.T) {
	assert.Equal(t, ModeOff, Parse(""))
	assert.Equal(t, ModeOff, Parse("off"))
	assert.Equal(t, ModeOff, Parse("none"))
	assert.Equal(t, ModeXKCD, Parse("xkcd"))
	assert.Equal(t, ModeLitClock, Parse("literature_clock"))
	assert.Equal(t, ModeOff, Parse("rot13"))
}

func TestEncrypt(t *testing.T) {
	assert.Equal(t, "dpb", Encrypt("abc"))
	// Non-letters pass through so times stay readable.
	assert.Equal(t, "tr ticg 09:30", Encrypt("Dr Dyke 09:30"))
	assert.Equal(t, "", Encrypt(""))
}

func TestApplyOffIsIdentity(t *testing.T) {
	res := model.OwnerFetchResult{
		Owner:  model.OwnerA,
		Events: []model.Event{{ID: "1", Title: "Dentist"}},
		IsLive: true,
	}
	got := Apply(ModeOff, res)
	assert.Equal(t, res, got)
}

func TestApplyXKCDObscuresWithoutMutating(t *testing.T) {
	orig := []model.Event{{
		ID:          "1",
		Title:       "Dentist",
		Description: "Bring insurance card",
		Location:    "Main St",
	}}
	res := model.OwnerFetchResult{Owner: model.OwnerA, Events: orig}

	got := Apply(ModeXKCD, res)

	require.Len(t, got.Events, 1)
	assert.Equal(t, Encrypt("Dentist"), got.Events[0].Title)
	assert.NotEqual(t, "Dentist", got.Events[0].Title)
	// The caller's slice is untouched.
	assert.Equal(t, "Dentist", orig[0].Title)
}

func TestApplyLitClockHidesTitles(t *testing.T) {
	start := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	res := model.OwnerFetchResult{
		Owner:  model.OwnerB,
		Events: []model.Event{{ID: "1", Title: "Dentist", Location: "Main St", Start: start}},
	}
	got := Apply(ModeLitClock, res)

	require.Len(t, got.Events, 1)
	assert.Equal(t, "[Event]", got.Events[0].Title)
	assert.Empty(t, got.Events[0].Location)
	// Times survive so the schedule shape is still visible.
	assert.True(t, got.Events[0].Start.Equal(start))
}

func TestApplyWeather(t *testing.T) {
	w := &model.WeatherSnapshot{TempC: 18, Condition: "Clouds", Location: "San Francisco"}

	assert.Same(t, w, ApplyWeather(ModeOff, w))
	assert.Nil(t, ApplyWeather(ModeXKCD, nil))

	x := ApplyWeather(ModeXKCD, w)
	assert.Equal(t, Encrypt("Clouds"), x.Condition)
	assert.Equal(t, "Clouds", w.Condition)

	l := ApplyWeather(ModeLitClock, w)
	assert.Equal(t, "[hidden]", l.Condition)
	assert.Equal(t, float64(18), l.TempC)
}

func TestTimeQuote(t *testing.T) {
	noon := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, TimeQuote(noon), "Hemingway")

	odd := time.Date(2026, time.March, 10, 13, 47, 0, 0, time.UTC)
	assert.Contains(t, TimeQuote(odd), "13:47")
}
