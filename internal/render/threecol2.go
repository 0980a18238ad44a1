package render

import (
	"image"
	"strings"

	"epddash/internal/model"
)

// Refreshed three-column layout bounds.
const (
	threeCol2TodayEvents = 3
	threeCol2TodayTitle  = 18
	threeCol2MidEvents   = 2
	threeCol2MidTitle    = 16
	threeCol2LateEvents  = 1
	threeCol2LateTitle   = 14
)

// renderThreeColV2 is the refreshed three-column layout: inverted column
// headers, a taller banner with the weather inline, and the owner legend in
// the footer.
func renderThreeColV2(rc *Context, in *model.RenderInput) *image.NRGBA {
	c := NewCanvas(Width, Height, rc.Theme.White)
	t := rc.Theme
	today := model.DateOf(in.Now)

	// Banner.
	c.FillRect(0, 0, Width-1, 48, t.Black)
	c.Text(rc.Fonts.XL, 12, 4, t.White, strings.ToUpper(in.Now.Format("Mon Jan 2")))
	if in.Weather != nil {
		c.TextRight(rc.Fonts.Large, Width-12, 12, t.White,
			tempLabel(in.Weather.TempC)+"  "+truncate(in.Weather.Condition, 14))
	} else {
		c.TextRight(rc.Fonts.Medium, Width-12, 16, t.White, in.Now.Format("15:04"))
	}

	colW := Width / 3
	top := 56

	headers := []string{"TODAY", "THIS WEEK", "LATER"}
	for i, h := range headers {
		x0 := i * colW
		c.FillRect(x0+6, top, x0+colW-6, top+22, t.LightGrey)
		c.TextCentered(rc.Fonts.Medium, x0+6, x0+colW-6, top+3, t.Black, h)
	}
	body := top + 30

	// Today column.
	y := body
	todayEvents := in.EventsOn(today)
	if len(todayEvents) == 0 {
		c.Text(rc.Fonts.Small, 15, y, t.Grey, "No events")
	} else {
		shown := len(todayEvents)
		if shown > threeCol2TodayEvents {
			shown = threeCol2TodayEvents
		}
		for i := 0; i < shown; i++ {
			ev := todayEvents[i]
			c.FillCircle(16, y+6, 3, t.OwnerColor(ev.Owner))
			c.Text(rc.Fonts.Small, 25, y, t.Black, formatEventTime(ev))
			y += 14
			c.Text(rc.Fonts.Small, 25, y, t.OwnerColor(ev.Owner), displayTitle(ev, threeCol2TodayTitle))
			y += 20
		}
		if hidden := len(todayEvents) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, 25, y, t.DarkGrey, moreLabel(hidden))
		}
	}

	// Week and later columns reuse the v1 day lister.
	drawThreeColDays(c, rc, in, colW+12, body, 1, threeColMidDays,
		threeCol2MidEvents, threeCol2MidTitle)
	drawThreeColDays(c, rc, in, colW*2+12, body, threeColMidDays+1, threeColLateDays,
		threeCol2LateEvents, threeCol2LateTitle)

	drawOwnerLegend(c, rc, in, Height-22)
	return c.Image()
}
