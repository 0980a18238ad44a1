package render

import (
	"fmt"
	"image"

	"epddash/internal/agenda"
	"epddash/internal/model"
)

// Forecast layout bounds.
const (
	forecastCards        = 3
	forecastConditionMax = 12
	forecastEvents       = 4
	forecastTitleMax     = 35
)

// renderForecast is weather-first: a large current-conditions block, a row
// of forecast cards, and a short upcoming-events strip at the bottom.
func renderForecast(rc *Context, in *model.RenderInput) *image.NRGBA {
	c := NewCanvas(Width, Height, rc.Theme.White)
	t := rc.Theme

	c.Text(rc.Fonts.Large, 15, 8, t.Black, in.Now.Format("Monday, January 2"))
	c.TextRight(rc.Fonts.Medium, Width-15, 12, t.Black, in.Now.Format("15:04"))
	c.HLine(15, Width-15, 36, t.Black)

	// Current conditions.
	y := 50
	if in.Weather == nil {
		c.Text(rc.Fonts.Large, 25, y+20, t.Grey, "Weather unavailable")
	} else {
		w := in.Weather
		c.Text(rc.Fonts.XL, 25, y, t.Black, tempLabel(w.TempC))
		c.Text(rc.Fonts.Large, 170, y+6, t.DarkGrey, truncate(w.Condition, 24))
		c.Text(rc.Fonts.Small, 25, y+48, t.DarkGrey,
			fmt.Sprintf("Humidity %d%%   Wind %.1f m/s", w.Humidity, w.WindMS))
		if w.Location != "" {
			c.TextRight(rc.Fonts.Small, Width-25, y, t.DarkGrey, w.Location)
		}
	}

	// Forecast cards.
	y = 140
	cardW := (Width - 60) / forecastCards
	n := len(in.Forecast)
	if n > forecastCards {
		n = forecastCards
	}
	for i := 0; i < forecastCards; i++ {
		x0 := 20 + i*(cardW+10)
		c.StrokeRect(x0, y, x0+cardW, y+130, t.Grey)
		if i >= n {
			c.TextCentered(rc.Fonts.Small, x0, x0+cardW, y+55, t.Grey, "-")
			continue
		}
		fd := in.Forecast[i]
		c.TextCentered(rc.Fonts.Medium, x0, x0+cardW, y+10, t.Black,
			fd.Date.Time(in.Now.Location()).Format("Monday"))
		c.TextCentered(rc.Fonts.Large, x0, x0+cardW, y+40, t.Black,
			fmt.Sprintf("%.0f° / %.0f°", fd.HighC, fd.LowC))
		c.TextCentered(rc.Fonts.Small, x0, x0+cardW, y+75, t.DarkGrey,
			truncate(fd.Condition, forecastConditionMax))
	}

	// Upcoming events strip.
	y = 300
	c.HLine(15, Width-15, y, t.LightGrey)
	y += 10
	c.Text(rc.Fonts.Medium, 15, y, t.Black, "Upcoming")
	y += 24

	events := agenda.Upcoming(in.Buckets, model.DateOf(in.Now), forecastEvents+1)
	if len(events) == 0 {
		c.Text(rc.Fonts.Small, 25, y, t.Grey, "No events")
	} else {
		shown := len(events)
		if shown > forecastEvents {
			shown = forecastEvents
		}
		for i := 0; i < shown; i++ {
			ev := events[i]
			day := model.DateOf(ev.Start).Time(in.Now.Location()).Format("Mon 2")
			c.Text(rc.Fonts.Small, 25, y, t.DarkGrey, day)
			c.Text(rc.Fonts.Small, 90, y, t.DarkGrey, formatEventTime(ev))
			c.Text(rc.Fonts.Small, 155, y, t.OwnerColor(ev.Owner), displayTitle(ev, forecastTitleMax))
			y += 18
		}
		if hidden := len(events) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, 25, y, t.DarkGrey, moreLabel(hidden))
		}
	}

	return c.Image()
}
