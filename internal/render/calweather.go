package render

import (
	"fmt"
	"image"

	"epddash/internal/model"
)

// Calendar-with-weather layout bounds.
const (
	calwTodayEvents = 3
	calwTodayTitle  = 25
	calwDayEvents   = 1
	calwDayTitle    = 22
	calwForecast    = 3
	calwWeekDays    = 7
)

// renderCalWeather keeps the calendar dominant and tucks current conditions
// plus a short forecast into a right-hand sidebar.
func renderCalWeather(rc *Context, in *model.RenderInput) *image.NRGBA {
	c := NewCanvas(Width, Height, rc.Theme.White)
	t := rc.Theme
	today := model.DateOf(in.Now)

	c.Text(rc.Fonts.Large, 15, 8, t.Black, in.Now.Format("Monday, January 2"))
	c.HLine(15, Width-15, 36, t.Black)

	sidebar := Width - 230
	c.VLine(sidebar, 45, Height-15, t.LightGrey)

	// Main: today then the coming week.
	c.Text(rc.Fonts.Medium, 15, 48, t.Black, "Today")
	y := 72
	todayEvents := in.EventsOn(today)
	if len(todayEvents) == 0 {
		c.Text(rc.Fonts.Small, 25, y, t.Grey, "No events today")
		y += 18
	} else {
		shown := len(todayEvents)
		if shown > calwTodayEvents {
			shown = calwTodayEvents
		}
		for i := 0; i < shown; i++ {
			ev := todayEvents[i]
			c.Text(rc.Fonts.Small, 25, y, t.DarkGrey, formatEventTime(ev))
			c.Text(rc.Fonts.Small, 90, y, t.OwnerColor(ev.Owner), displayTitle(ev, calwTodayTitle))
			y += 18
		}
		if hidden := len(todayEvents) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, 25, y, t.DarkGrey, moreLabel(hidden))
			y += 14
		}
	}

	y += 10
	c.Text(rc.Fonts.Medium, 15, y, t.Black, "This Week")
	y += 24
	for offset := 1; offset <= calwWeekDays && y < Height-40; offset++ {
		date := today.AddDays(offset)
		events := in.EventsOn(date)
		if len(events) == 0 {
			continue
		}
		c.Text(rc.Fonts.Small, 25, y, t.Black, date.Time(in.Now.Location()).Format("Mon 2"))

		ev := events[0]
		c.Text(rc.Fonts.Small, 90, y, t.OwnerColor(ev.Owner),
			formatEventTime(ev)+" "+displayTitle(ev, calwDayTitle))
		if hidden := len(events) - calwDayEvents; hidden > 0 {
			c.Text(rc.Fonts.Tiny, 90, y+14, t.DarkGrey, moreLabel(hidden))
			y += 13
		}
		y += 19
	}

	drawCalwSidebar(c, rc, in, sidebar+15, 48)
	drawOwnerLegend(c, rc, in, Height-24)
	return c.Image()
}

func drawCalwSidebar(c *Canvas, rc *Context, in *model.RenderInput, x, y int) {
	t := rc.Theme
	c.Text(rc.Fonts.Medium, x, y, t.Black, "Weather")
	y += 24

	if in.Weather == nil {
		c.Text(rc.Fonts.Small, x, y, t.Grey, "Unavailable")
		return
	}

	c.Text(rc.Fonts.XL, x, y, t.Black, tempLabel(in.Weather.TempC))
	y += 44
	c.Text(rc.Fonts.Small, x, y, t.DarkGrey, truncate(in.Weather.Condition, 24))
	y += 18
	c.Text(rc.Fonts.Tiny, x, y, t.DarkGrey,
		fmt.Sprintf("Humidity %d%%", in.Weather.Humidity))
	y += 24

	n := len(in.Forecast)
	if n > calwForecast {
		n = calwForecast
	}
	for i := 0; i < n; i++ {
		fd := in.Forecast[i]
		c.Text(rc.Fonts.Small, x, y, t.Black, fd.Date.Time(in.Now.Location()).Format("Mon"))
		c.TextRight(rc.Fonts.Small, x+180, y, t.DarkGrey,
			fmt.Sprintf("%.0f° / %.0f°", fd.HighC, fd.LowC))
		y += 18
	}
}
