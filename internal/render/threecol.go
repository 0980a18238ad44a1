package render

import (
	"image"

	"epddash/internal/model"
)

// Three-column layout bounds.
const (
	threeColTodayEvents = 3
	threeColTodayTitle  = 18
	threeColMidEvents   = 2
	threeColMidTitle    = 16
	threeColLateEvents  = 1
	threeColLateTitle   = 14
	threeColMidDays     = 6
	threeColLateDays    = 14
)

// renderThreeCol splits the panel into Today / This Week / Later columns
// with a slim status strip at the top.
func renderThreeCol(rc *Context, in *model.RenderInput) *image.NRGBA {
	c := NewCanvas(Width, Height, rc.Theme.White)
	t := rc.Theme
	today := model.DateOf(in.Now)

	// Status strip: date left, weather right when available.
	c.FillRect(0, 0, Width-1, 34, t.LightGrey)
	c.Text(rc.Fonts.Medium, 10, 8, t.Black, in.Now.Format("Mon, Jan 2 15:04"))
	if in.Weather != nil {
		c.TextRight(rc.Fonts.Medium, Width-10, 8, t.Black,
			tempLabel(in.Weather.TempC)+" "+truncate(in.Weather.Condition, 16))
	}

	colW := Width / 3
	top := 42
	c.VLine(colW, top, Height-10, t.LightGrey)
	c.VLine(colW*2, top, Height-10, t.LightGrey)

	// Column 1: today.
	c.Text(rc.Fonts.Large, 10, top, t.Black, "Today")
	y := top + 30
	todayEvents := in.EventsOn(today)
	if len(todayEvents) == 0 {
		c.Text(rc.Fonts.Small, 15, y, t.Grey, "No events")
	} else {
		shown := len(todayEvents)
		if shown > threeColTodayEvents {
			shown = threeColTodayEvents
		}
		for i := 0; i < shown; i++ {
			ev := todayEvents[i]
			c.Text(rc.Fonts.Small, 15, y, t.DarkGrey, formatEventTime(ev))
			y += 14
			c.Text(rc.Fonts.Small, 15, y, t.OwnerColor(ev.Owner), displayTitle(ev, threeColTodayTitle))
			y += 20
		}
		if hidden := len(todayEvents) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, 15, y, t.DarkGrey, moreLabel(hidden))
		}
	}

	// Column 2: rest of this week.
	c.Text(rc.Fonts.Large, colW+10, top, t.Black, "This Week")
	drawThreeColDays(c, rc, in, colW+10, top+30, 1, threeColMidDays,
		threeColMidEvents, threeColMidTitle)

	// Column 3: later.
	c.Text(rc.Fonts.Large, colW*2+10, top, t.Black, "Later")
	drawThreeColDays(c, rc, in, colW*2+10, top+30, threeColMidDays+1, threeColLateDays,
		threeColLateEvents, threeColLateTitle)

	return c.Image()
}

// drawThreeColDays lists days [fromOffset, fromOffset+spanDays) that have
// events, bounding the events and title length per day.
func drawThreeColDays(c *Canvas, rc *Context, in *model.RenderInput, x, y, fromOffset, spanDays, maxEvents, titleMax int) {
	t := rc.Theme
	today := model.DateOf(in.Now)
	drawn := false

	for offset := fromOffset; offset < fromOffset+spanDays && y < Height-30; offset++ {
		date := today.AddDays(offset)
		events := in.EventsOn(date)
		if len(events) == 0 {
			continue
		}
		drawn = true

		c.Text(rc.Fonts.Medium, x, y, t.Black, date.Time(in.Now.Location()).Format("Mon Jan 2"))
		y += 17

		shown := len(events)
		if shown > maxEvents {
			shown = maxEvents
		}
		for i := 0; i < shown; i++ {
			ev := events[i]
			c.Text(rc.Fonts.Small, x+8, y, t.OwnerColor(ev.Owner),
				formatEventTime(ev)+" "+displayTitle(ev, titleMax))
			y += 14
		}
		if hidden := len(events) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, x+8, y, t.DarkGrey, moreLabel(hidden))
			y += 12
		}
		y += 5
	}

	if !drawn {
		c.Text(rc.Fonts.Small, x+5, y, t.Grey, "Nothing scheduled")
	}
}
