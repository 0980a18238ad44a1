package render

import (
	"image"

	"epddash/internal/model"
)

// Week layout bounds.
const (
	weekTodayEvents = 5
	weekDayEvents   = 2
	weekTitleMax    = 50
	weekDays        = 7
)

// renderWeek shows today's full agenda on the left and the next seven days
// as compact rows on the right.
func renderWeek(rc *Context, in *model.RenderInput) *image.NRGBA {
	c := NewCanvas(Width, Height, rc.Theme.White)
	t := rc.Theme
	today := model.DateOf(in.Now)

	c.Text(rc.Fonts.Large, 15, 10, t.Black, in.Now.Format("Monday, January 2"))
	c.HLine(15, Width-15, 38, t.Black)

	split := Width / 2

	// Left: today.
	c.Text(rc.Fonts.Medium, 15, 48, t.Black, "Today")
	y := 72
	todayEvents := in.EventsOn(today)
	if len(todayEvents) == 0 {
		c.Text(rc.Fonts.Small, 25, y, t.Grey, "No events today")
	} else {
		shown := len(todayEvents)
		if shown > weekTodayEvents {
			shown = weekTodayEvents
		}
		for i := 0; i < shown; i++ {
			ev := todayEvents[i]
			c.FillCircle(22, y+6, 3, t.OwnerColor(ev.Owner))
			c.Text(rc.Fonts.Small, 32, y, t.DarkGrey, formatEventTime(ev))
			y += 14
			c.Text(rc.Fonts.Small, 32, y, t.OwnerColor(ev.Owner), displayTitle(ev, weekTitleMax))
			y += 20
		}
		if hidden := len(todayEvents) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, 32, y, t.DarkGrey, moreLabel(hidden))
		}
	}

	c.VLine(split, 45, Height-30, t.LightGrey)

	// Right: week overview rows.
	c.Text(rc.Fonts.Medium, split+15, 48, t.Black, "This Week")
	y = 72
	rowH := (Height - 100) / weekDays
	for offset := 1; offset <= weekDays; offset++ {
		date := today.AddDays(offset)
		rowTop := 72 + (offset-1)*rowH

		label := date.Time(in.Now.Location()).Format("Mon 2")
		c.Text(rc.Fonts.Small, split+15, rowTop, t.Black, label)

		events := in.EventsOn(date)
		if len(events) == 0 {
			c.Text(rc.Fonts.Tiny, split+75, rowTop+2, t.Grey, "-")
			continue
		}

		ey := rowTop
		shown := len(events)
		if shown > weekDayEvents {
			shown = weekDayEvents
		}
		for i := 0; i < shown; i++ {
			ev := events[i]
			c.Text(rc.Fonts.Tiny, split+75, ey+2, t.OwnerColor(ev.Owner),
				formatEventTime(ev)+" "+displayTitle(ev, 28))
			ey += 12
		}
		if hidden := len(events) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, split+75, ey+2, t.DarkGrey, moreLabel(hidden))
		}
	}

	drawOwnerLegend(c, rc, in, Height-24)
	return c.Image()
}
