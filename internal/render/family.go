package render

import (
	"image"
	"strings"

	"epddash/internal/model"
)

// Family layout bounds.
const (
	familyTodayEvents  = 4
	familyDayEvents    = 2
	familyUpcomingDays = 6
	familyTitleMax     = 45
	familyDayTitleMax  = 40
)

// renderFamily is the smart-display style layout: a large date banner,
// today's events, then the upcoming week grouped by day, with an owner
// legend at the bottom.
func renderFamily(rc *Context, in *model.RenderInput) *image.NRGBA {
	c := NewCanvas(Width, Height, rc.Theme.White)
	t := rc.Theme
	today := model.DateOf(in.Now)

	// Date banner.
	banner := strings.ToUpper(in.Now.Format("Monday, January 2"))
	c.Text(rc.Fonts.XL, 20, 8, t.Black, banner)
	c.HLine(20, Width-20, 52, t.Grey)

	// Today's events.
	y := 60
	c.Text(rc.Fonts.Large, 20, y, t.Black, "TODAY")
	y += 28

	todayEvents := in.EventsOn(today)
	if len(todayEvents) == 0 {
		c.Text(rc.Fonts.Small, 30, y, t.Grey, "No events")
		y += 19
	} else {
		shown := len(todayEvents)
		if shown > familyTodayEvents {
			shown = familyTodayEvents
		}
		for i := 0; i < shown; i++ {
			ev := todayEvents[i]
			c.Text(rc.Fonts.Small, 30, y, t.DarkGrey, formatEventTime(ev))
			c.Text(rc.Fonts.Small, 95, y, t.OwnerColor(ev.Owner), displayTitle(ev, familyTitleMax))
			y += 19
		}
		if hidden := len(todayEvents) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, 30, y, t.DarkGrey, moreLabel(hidden))
			y += 14
		}
	}

	// Upcoming days.
	y += 8
	c.HLine(20, Width-20, y, t.LightGrey)
	y += 8
	c.Text(rc.Fonts.Large, 20, y, t.Black, "UPCOMING")
	y += 28

	for offset := 1; offset <= familyUpcomingDays && y < Height-40; offset++ {
		date := today.AddDays(offset)
		events := in.EventsOn(date)
		if len(events) == 0 {
			continue
		}

		label := date.Time(in.Now.Location()).Format("Mon Jan 2")
		c.Text(rc.Fonts.Medium, 25, y, t.Black, label)
		y += 18

		shown := len(events)
		if shown > familyDayEvents {
			shown = familyDayEvents
		}
		for i := 0; i < shown; i++ {
			ev := events[i]
			c.Text(rc.Fonts.Small, 40, y, t.DarkGrey, formatEventTime(ev))
			c.Text(rc.Fonts.Small, 105, y, t.OwnerColor(ev.Owner), displayTitle(ev, familyDayTitleMax))
			y += 16
		}
		if hidden := len(events) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, 40, y, t.DarkGrey, moreLabel(hidden))
			y += 13
		}
		y += 4
	}

	drawOwnerLegend(c, rc, in, Height-24)
	return c.Image()
}

// drawOwnerLegend draws the shared color-coding legend used by the list
// style layouts.
func drawOwnerLegend(c *Canvas, rc *Context, in *model.RenderInput, y int) {
	t := rc.Theme
	x := 20
	c.FillCircle(x, y+6, 4, t.Red)
	x += 10
	x += c.Text(rc.Fonts.Tiny, x, y, t.Black, legendName(in.OwnerAName, "Owner A"))
	x += 20
	c.FillCircle(x, y+6, 4, t.Black)
	x += 10
	c.Text(rc.Fonts.Tiny, x, y, t.Black, legendName(in.OwnerBName, "Owner B"))
}

func legendName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
