// Package render holds the layout template contract, the nine template
// variants, and the mode dispatcher.
//
// A template is a pure function of its RenderInput: no I/O, no clock reads,
// no render-to-render state. Every template produces a fixed 800×480 raster,
// bounds the events it draws per visible section (summarizing overflow as
// "+N more"), truncates titles to its own maximum, renders times as 24-hour
// HH:MM with a fixed "All day" label, and distinguishes the two owners with
// the theme's owner colors.
package render

import (
	"fmt"
	"image"
	"unicode/utf8"

	appLog "epddash/internal/log"
	"epddash/internal/model"
)

// Canvas dimensions shared by all production templates.
const (
	Width  = 800
	Height = 480
)

// Context carries the explicitly constructed resources templates draw with.
// Passing it as an argument (rather than package globals) keeps templates
// testable with injected fonts and themes.
type Context struct {
	Fonts *FontSet
	Theme Theme
}

// NewContext builds a render context.
func NewContext(fonts *FontSet, theme Theme) *Context {
	return &Context{Fonts: fonts, Theme: theme}
}

// Func is the template contract: pure, total, deterministic.
type Func func(rc *Context, in *model.RenderInput) *image.NRGBA

// Mode identifies one layout template.
type Mode string

const (
	ModeGrid       Mode = "grid"       // 6-week calendar grid (reference layout)
	ModeFamily     Mode = "family"     // smart-display style day/week list
	ModeWeek       Mode = "week"       // today + 7-day overview
	ModeThreeCol   Mode = "threecol"   // today / this week / later columns
	ModeThreeColV2 Mode = "threecol2"  // refreshed three-column layout
	ModeDashboard  Mode = "dashboard"  // calendar + weather + stocks panels
	ModeCalWeather Mode = "calweather" // calendar with weather sidebar
	ModeForecast   Mode = "forecast"   // weather-first with event strip
	ModeAgenda     Mode = "agenda"     // plain chronological agenda
)

// DefaultMode is the documented fallback for unknown mode identifiers.
const DefaultMode = ModeGrid

var templates = map[Mode]Func{
	ModeGrid:       renderGrid,
	ModeFamily:     renderFamily,
	ModeWeek:       renderWeek,
	ModeThreeCol:   renderThreeCol,
	ModeThreeColV2: renderThreeColV2,
	ModeDashboard:  renderDashboard,
	ModeCalWeather: renderCalWeather,
	ModeForecast:   renderForecast,
	ModeAgenda:     renderAgenda,
}

// Modes returns every registered mode. Tests iterate this to exercise the
// shared contract against all variants.
func Modes() []Mode {
	return []Mode{
		ModeGrid, ModeFamily, ModeWeek, ModeThreeCol, ModeThreeColV2,
		ModeDashboard, ModeCalWeather, ModeForecast, ModeAgenda,
	}
}

// Dispatch resolves a configured mode string to its template. Unknown modes
// fall back to DefaultMode with a log line instead of failing the run.
func Dispatch(mode string) (Mode, Func) {
	m := Mode(mode)
	if fn, ok := templates[m]; ok {
		return m, fn
	}
	appLog.Warn("unknown layout mode, using default", "mode", mode, "default", string(DefaultMode))
	return DefaultMode, templates[DefaultMode]
}

// NeedsWeather reports whether the mode displays weather data. The pipeline
// skips the weather fetch entirely for modes that do not.
func NeedsWeather(m Mode) bool {
	switch m {
	case ModeDashboard, ModeCalWeather, ModeForecast, ModeThreeCol, ModeThreeColV2, ModeAgenda:
		return true
	}
	return false
}

// NeedsStocks reports whether the mode displays stock quotes.
func NeedsStocks(m Mode) bool {
	return m == ModeDashboard
}

// formatEventTime renders an event's start for display: 24-hour HH:MM for
// timed events, the fixed "All day" label otherwise. Never blank.
func formatEventTime(ev model.Event) string {
	if ev.AllDay {
		return "All day"
	}
	return ev.Start.Format("15:04")
}

// displayTitle applies the single field-access policy: the adapter already
// mapped the provider's summary into Title; empty titles render as
// "Untitled". maxRunes is the template-specific truncation bound.
func displayTitle(ev model.Event, maxRunes int) string {
	title := ev.Title
	if title == "" {
		title = "Untitled"
	}
	return truncate(title, maxRunes)
}

// truncate cuts s to at most maxRunes runes.
func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}

// moreLabel is the overflow summary drawn when a section's event bound is
// exceeded.
func moreLabel(hidden int) string {
	return fmt.Sprintf("+%d more", hidden)
}

// tempLabel formats a Celsius temperature for display.
func tempLabel(c float64) string {
	return fmt.Sprintf("%.0f°C", c)
}
