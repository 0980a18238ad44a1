package model

import "time"

// Owner identifies one of the two people whose calendars are displayed.
// The deployment is fixed at exactly two owners; display names and calendar
// identifiers come from configuration.
type Owner int

const (
	OwnerA Owner = iota
	OwnerB
)

// Owners lists both owners in fetch order. OwnerA always precedes OwnerB;
// bucketing relies on this for tie-breaking.
var Owners = [2]Owner{OwnerA, OwnerB}

func (o Owner) String() string {
	switch o {
	case OwnerA:
		return "owner_a"
	case OwnerB:
		return "owner_b"
	}
	return "unknown"
}

// Event is one calendar entry, already normalized into the display timezone.
type Event struct {
	// ID is the provider's event identifier, unique within (owner, source).
	ID    string
	Owner Owner

	Title       string
	Description string
	Location    string

	// Start and End carry the event times. For all-day events Start is the
	// start-of-day instant in the display timezone.
	Start time.Time
	End   time.Time

	// AllDay is true when the provider gave a date without a time component.
	AllDay bool
}

// Valid reports whether the event can be bucketed. Events without a start
// are dropped during normalization, never propagated.
func (e Event) Valid() bool {
	return !e.Start.IsZero()
}

// OwnerFetchResult is the outcome of one fetch-with-fallback cycle for one
// owner. It is rebuilt every cycle and never persisted; the store persists
// the raw events only.
type OwnerFetchResult struct {
	Owner Owner

	// Events is chronological by start instant.
	Events []Event

	// IsLive is true when the events were freshly fetched this cycle and
	// false when they were served from the cache (or the owner has no
	// configured source).
	IsLive bool

	FetchedAt time.Time
}

// DayBucket holds both owners' events for one calendar date, ordered by
// normalized start instant with OwnerA before OwnerB on exact ties.
type DayBucket struct {
	Date   Date
	Events []Event
}

// WeatherSnapshot is the fixed shape returned by the weather provider.
type WeatherSnapshot struct {
	TempC     float64 `json:"temp_c"`
	Condition string  `json:"condition"`
	Location  string  `json:"location"`
	Humidity  int     `json:"humidity"`
	WindMS    float64 `json:"wind_ms"`
	UVIndex   int     `json:"uv_index"`
}

// ForecastDay is one day of the daily forecast derived from the provider's
// 3-hourly data.
type ForecastDay struct {
	Date      Date    `json:"date"`
	HighC     float64 `json:"high_c"`
	LowC      float64 `json:"low_c"`
	Condition string  `json:"condition"`
}

// Quote is a single stock quote. Partial results are allowed: a ticker whose
// fetch failed is simply absent from the map.
type Quote struct {
	Price     float64
	Change    float64
	ChangePct float64
}

// RenderInput is the complete, immutable contract handed to every layout
// template. A fresh value is built from scratch each render cycle.
type RenderInput struct {
	// Buckets maps calendar dates to their events. Only dates with at least
	// one event appear; templates treat absent dates as empty.
	Buckets map[Date]DayBucket

	// Now is the instant the render was triggered. Templates never read the
	// system clock.
	Now time.Time

	// OwnerAName and OwnerBName are the display names for the legend.
	OwnerAName string
	OwnerBName string

	// Offline marks owners whose data came from the cache this cycle.
	Offline map[Owner]bool

	// Auxiliary data; nil/empty when the fetch failed or the mode does not
	// use it. Templates render placeholders, never fail.
	Weather  *WeatherSnapshot
	Forecast []ForecastDay
	Stocks   map[string]Quote

	// BatteryPercent is set when a battery reader is configured.
	BatteryPercent *int
}

// EventsOn returns the bucket for a date, or nil when absent.
func (in *RenderInput) EventsOn(d Date) []Event {
	if b, ok := in.Buckets[d]; ok {
		return b.Events
	}
	return nil
}
