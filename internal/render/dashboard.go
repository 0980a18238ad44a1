package render

import (
	"fmt"
	"image"
	"math"
	"sort"

	"epddash/internal/model"
)

// Dashboard layout bounds.
const (
	dashDayEvents    = 2
	dashTitleMax     = 25
	dashStockRows    = 3
	dashConditionMax = 20
	dashAgendaDays   = 5
)

// renderDashboard combines a compact agenda with weather and stock panels.
// Aux panels degrade to placeholders when their data is absent; the
// calendar half never depends on them.
func renderDashboard(rc *Context, in *model.RenderInput) *image.NRGBA {
	c := NewCanvas(Width, Height, rc.Theme.White)
	t := rc.Theme

	c.Text(rc.Fonts.Large, 15, 8, t.Black, in.Now.Format("Monday, January 2"))
	c.TextRight(rc.Fonts.Medium, Width-15, 12, t.Black, in.Now.Format("15:04"))
	c.HLine(15, Width-15, 36, t.Black)

	split := Width * 55 / 100
	c.VLine(split, 45, Height-15, t.LightGrey)

	drawDashAgenda(c, rc, in, 15, 45, split-30)
	drawDashWeather(c, rc, in, split+15, 45)
	drawDashStocks(c, rc, in, split+15, 270)

	if in.BatteryPercent != nil {
		c.TextRight(rc.Fonts.Tiny, Width-15, Height-18, t.DarkGrey,
			fmt.Sprintf("Battery %d%%", *in.BatteryPercent))
	}
	return c.Image()
}

func drawDashAgenda(c *Canvas, rc *Context, in *model.RenderInput, x, y, _ int) {
	t := rc.Theme
	today := model.DateOf(in.Now)

	c.Text(rc.Fonts.Medium, x, y, t.Black, "Schedule")
	y += 24

	drawn := false
	for offset := 0; offset < dashAgendaDays && y < Height-40; offset++ {
		date := today.AddDays(offset)
		events := in.EventsOn(date)
		if len(events) == 0 {
			continue
		}
		drawn = true

		label := "Today"
		if offset > 0 {
			label = date.Time(in.Now.Location()).Format("Mon Jan 2")
		}
		c.Text(rc.Fonts.Medium, x, y, t.Black, label)
		y += 19

		shown := len(events)
		if shown > dashDayEvents {
			shown = dashDayEvents
		}
		for i := 0; i < shown; i++ {
			ev := events[i]
			c.Text(rc.Fonts.Small, x+10, y, t.DarkGrey, formatEventTime(ev))
			c.Text(rc.Fonts.Small, x+72, y, t.OwnerColor(ev.Owner), displayTitle(ev, dashTitleMax))
			y += 16
		}
		if hidden := len(events) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, x+10, y, t.DarkGrey, moreLabel(hidden))
			y += 13
		}
		y += 5
	}
	if !drawn {
		c.Text(rc.Fonts.Small, x+5, y, t.Grey, "No upcoming events")
	}
}

func drawDashWeather(c *Canvas, rc *Context, in *model.RenderInput, x, y int) {
	t := rc.Theme
	c.Text(rc.Fonts.Medium, x, y, t.Black, "Weather")
	y += 24

	w := in.Weather
	if w == nil {
		c.Text(rc.Fonts.Small, x+5, y, t.Grey, "Weather unavailable")
		return
	}

	c.Text(rc.Fonts.XL, x+5, y, t.Black, tempLabel(w.TempC))
	c.Text(rc.Fonts.Small, x+5, y+42, t.DarkGrey, truncate(w.Condition, dashConditionMax))
	y += 62
	c.Text(rc.Fonts.Small, x+5, y, t.DarkGrey,
		fmt.Sprintf("Humidity %d%%  Wind %.1f m/s", w.Humidity, w.WindMS))
	y += 18
	if w.UVIndex > 0 {
		c.Text(rc.Fonts.Small, x+5, y, t.DarkGrey, fmt.Sprintf("UV index %d", w.UVIndex))
		y += 18
	}

	// Compact forecast strip.
	if len(in.Forecast) > 0 {
		y += 6
		fx := x + 5
		n := len(in.Forecast)
		if n > 3 {
			n = 3
		}
		for i := 0; i < n; i++ {
			fd := in.Forecast[i]
			c.Text(rc.Fonts.Tiny, fx, y, t.Black, fd.Date.Time(in.Now.Location()).Format("Mon"))
			c.Text(rc.Fonts.Tiny, fx, y+12, t.DarkGrey,
				fmt.Sprintf("%.0f/%.0f", fd.HighC, fd.LowC))
			fx += 100
		}
	}
}

func drawDashStocks(c *Canvas, rc *Context, in *model.RenderInput, x, y int) {
	t := rc.Theme
	c.Text(rc.Fonts.Medium, x, y, t.Black, "Markets")
	y += 24

	if len(in.Stocks) == 0 {
		c.Text(rc.Fonts.Small, x+5, y, t.Grey, "Quotes unavailable")
		return
	}

	rows := 0
	for _, ticker := range sortedTickers(in.Stocks) {
		if rows >= dashStockRows {
			break
		}
		q := in.Stocks[ticker]
		col := t.Black
		arrow := "="
		if q.Change > 0 {
			arrow = "+"
		} else if q.Change < 0 {
			arrow = "-"
			col = t.Red
		}
		c.Text(rc.Fonts.Small, x+5, y, t.Black, ticker)
		c.TextRight(rc.Fonts.Small, x+200, y, col,
			fmt.Sprintf("%.2f %s%.1f%%", q.Price, arrow, math.Abs(q.ChangePct)))
		y += 18
		rows++
	}
}

// sortedTickers gives map iteration a stable display order.
func sortedTickers(quotes map[string]model.Quote) []string {
	tickers := make([]string, 0, len(quotes))
	for t := range quotes {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
