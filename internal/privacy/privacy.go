// Package privacy obscures event details before rendering, for panels that
// hang somewhere guests can read them.
package privacy

import (
	"fmt"
	"strings"
	"time"

	appLog "epddash/internal/log"
	"epddash/internal/model"
)

// Mode selects how much detail survives to the display.
type Mode string

const (
	ModeOff      Mode = "none"             // events pass through untouched
	ModeXKCD     Mode = "xkcd"             // substitution cipher over titles
	ModeLitClock Mode = "literature_clock" // times only, titles hidden
)

// Parse maps a configured mode string to a Mode. Unknown values fall back to
// ModeOff with a log line, mirroring how unknown layout modes are handled.
func Parse(s string) Mode {
	switch Mode(s) {
	case ModeOff, ModeXKCD, ModeLitClock:
		return Mode(s)
	case "", "off":
		return ModeOff
	}
	appLog.Warn("unknown privacy mode, using none", "mode", s)
	return ModeOff
}

const (
	cipherPlain = "abcdefghijklmnopqrstuvwxyz"
	cipherSub   = "dpbtgfmvwkcjs znhreyuqoxila"
)

// Encrypt applies the fixed substitution cipher to the lowercase letters of
// text. Non-letters pass through, so times and numbers stay legible.
func Encrypt(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			b.WriteByte(cipherSub[r-'a'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Apply rewrites a fetch result's events according to the mode. ModeOff
// returns the input unchanged; the other modes return obscured copies and
// never mutate the originals.
func Apply(mode Mode, res model.OwnerFetchResult) model.OwnerFetchResult {
	if mode == ModeOff || len(res.Events) == 0 {
		return res
	}

	events := make([]model.Event, len(res.Events))
	copy(events, res.Events)
	for i := range events {
		switch mode {
		case ModeXKCD:
			events[i].Title = Encrypt(events[i].Title)
			events[i].Description = Encrypt(events[i].Description)
			events[i].Location = Encrypt(events[i].Location)
		case ModeLitClock:
			events[i].Title = "[Event]"
			events[i].Description = ""
			events[i].Location = ""
		}
	}
	res.Events = events
	return res
}

// ApplyWeather obscures the weather condition text. Temperatures stay as-is;
// only the free-text description can leak location-adjacent detail.
func ApplyWeather(mode Mode, w *model.WeatherSnapshot) *model.WeatherSnapshot {
	if mode == ModeOff || w == nil {
		return w
	}
	obscured := *w
	switch mode {
	case ModeXKCD:
		obscured.Condition = Encrypt(w.Condition)
		obscured.Location = Encrypt(w.Location)
	case ModeLitClock:
		obscured.Condition = "[hidden]"
		obscured.Location = ""
	}
	return &obscured
}

var timeQuotes = map[int]string{
	0:  `"It was midnight." - Poe`,
	3:  `"The witching hour." - Shakespeare`,
	6:  `"Six o'clock, the day begins to stir." - Thoreau`,
	7:  `"Seven in the morning, coffee time." - Joyce`,
	9:  `"Nine o'clock and the city awakens." - Fitzgerald`,
	12: `"Noon has arrived." - Hemingway`,
	16: `"Four o'clock, tea time." - Wilde`,
	18: `"Six o'clock, evening descends." - Hardy`,
	20: `"Eight o'clock, the night deepens." - Stoker`,
	22: `"Ten o'clock, before bed." - Alcott`,
}

// TimeQuote returns a literary time reference for the literature clock mode.
// Hours without a known quote fall back to the plain time.
func TimeQuote(now time.Time) string {
	if q, ok := timeQuotes[now.Hour()]; ok {
		return q
	}
	return fmt.Sprintf("%q - Unknown", now.Format("15:04"))
}
