// Package weather fetches current conditions and a daily forecast from
// OpenWeatherMap. Failures return an error and the pipeline degrades to the
// cached snapshot, then to "feature absent for this render".
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"encoding/json"

	appLog "epddash/internal/log"
	"epddash/internal/model"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client talks to the OpenWeatherMap REST API.
type Client struct {
	apiKey   string
	location string
	lat, lon float64
	loc      *time.Location

	baseURL    string
	httpClient *http.Client
}

// New builds a Client. Coordinates take precedence over the city name when
// both are set. A missing API key is allowed; fetches then fail cleanly and
// the dashboard renders its weather placeholder.
func New(apiKey, location string, lat, lon float64, displayLoc *time.Location) *Client {
	if displayLoc == nil {
		displayLoc = time.Local
	}
	return &Client{
		apiKey:     apiKey,
		location:   location,
		lat:        lat,
		lon:        lon,
		loc:        displayLoc,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type currentResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current fetches the current conditions snapshot (metric units).
func (c *Client) Current(ctx context.Context) (*model.WeatherSnapshot, error) {
	if c.apiKey == "" {
		return nil, errors.New("weather: no API key configured")
	}

	var parsed currentResponse
	if err := c.get(ctx, "/weather", &parsed); err != nil {
		return nil, err
	}

	snap := &model.WeatherSnapshot{
		TempC:    parsed.Main.Temp,
		Location: parsed.Name,
		Humidity: parsed.Main.Humidity,
		WindMS:   parsed.Wind.Speed,
	}
	if len(parsed.Weather) > 0 {
		snap.Condition = parsed.Weather[0].Main
	}
	if snap.Location == "" {
		snap.Location = c.location
	}

	appLog.Info("weather fetch completed", "location", snap.Location, "temp_c", snap.TempC, "condition", snap.Condition)
	return snap, nil
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	} `json:"list"`
}

// Forecast fetches the 3-hourly forecast and buckets it into up to n daily
// entries (high/low plus the most frequent condition of the day).
func (c *Client) Forecast(ctx context.Context, n int) ([]model.ForecastDay, error) {
	if c.apiKey == "" {
		return nil, errors.New("weather: no API key configured")
	}
	if n <= 0 {
		n = 3
	}

	var parsed forecastResponse
	if err := c.get(ctx, "/forecast", &parsed); err != nil {
		return nil, err
	}

	type dayAgg struct {
		high, low  float64
		conditions map[string]int
	}
	days := make(map[model.Date]*dayAgg)

	for _, entry := range parsed.List {
		t := time.Unix(entry.Dt, 0).In(c.loc)
		date := model.DateOf(t)
		agg, ok := days[date]
		if !ok {
			agg = &dayAgg{high: entry.Main.TempMax, low: entry.Main.TempMin, conditions: map[string]int{}}
			days[date] = agg
		}
		if entry.Main.TempMax > agg.high {
			agg.high = entry.Main.TempMax
		}
		if entry.Main.TempMin < agg.low {
			agg.low = entry.Main.TempMin
		}
		if len(entry.Weather) > 0 {
			agg.conditions[entry.Weather[0].Main]++
		}
	}

	dates := make([]model.Date, 0, len(days))
	for d := range days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]model.ForecastDay, 0, n)
	for _, d := range dates {
		if len(out) >= n {
			break
		}
		agg := days[d]
		condition := ""
		best := 0
		for cond, count := range agg.conditions {
			if count > best || (count == best && cond < condition) {
				condition, best = cond, count
			}
		}
		out = append(out, model.ForecastDay{Date: d, HighC: agg.high, LowC: agg.low, Condition: condition})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	q := url.Values{}
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	if c.lat != 0 || c.lon != 0 {
		q.Set("lat", fmt.Sprint(c.lat))
		q.Set("lon", fmt.Sprint(c.lon))
	} else {
		q.Set("q", c.location)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("weather: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weather: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather: API returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("weather: decode: %w", err)
	}
	return nil
}
