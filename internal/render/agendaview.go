package render

import (
	"image"

	"epddash/internal/agenda"
	"epddash/internal/model"
)

// Agenda layout bounds.
const (
	agendaMaxDays   = 10
	agendaDayEvents = 4
	agendaTitleMax  = 55
)

// renderAgenda is the plain chronological list: every upcoming day with
// events, one section per day, until the panel is full.
func renderAgenda(rc *Context, in *model.RenderInput) *image.NRGBA {
	c := NewCanvas(Width, Height, rc.Theme.White)
	t := rc.Theme
	today := model.DateOf(in.Now)

	header := in.Now.Format("Agenda - Monday, January 2")
	c.Text(rc.Fonts.Large, 15, 8, t.Black, header)
	if in.Weather != nil {
		c.TextRight(rc.Fonts.Medium, Width-15, 12, t.Black, tempLabel(in.Weather.TempC))
	}
	c.HLine(15, Width-15, 36, t.Black)

	y := 46
	drawn := false
	count := 0
	for _, date := range agenda.Dates(in.Buckets) {
		if date.Before(today) || count >= agendaMaxDays || y > Height-50 {
			continue
		}
		events := in.EventsOn(date)
		if len(events) == 0 {
			continue
		}
		drawn = true
		count++

		label := date.Time(in.Now.Location()).Format("Monday, January 2")
		if date == today {
			label = "Today - " + label
		}
		c.FillRect(15, y, Width-15, y+20, t.LightGrey)
		c.Text(rc.Fonts.Medium, 20, y+2, t.Black, label)
		y += 26

		shown := len(events)
		if shown > agendaDayEvents {
			shown = agendaDayEvents
		}
		for i := 0; i < shown; i++ {
			ev := events[i]
			c.FillCircle(28, y+6, 3, t.OwnerColor(ev.Owner))
			c.Text(rc.Fonts.Small, 38, y, t.DarkGrey, formatEventTime(ev))
			c.Text(rc.Fonts.Small, 105, y, t.Black, displayTitle(ev, agendaTitleMax))
			y += 17
		}
		if hidden := len(events) - shown; hidden > 0 {
			c.Text(rc.Fonts.Tiny, 38, y, t.DarkGrey, moreLabel(hidden))
			y += 14
		}
		y += 6
	}

	if !drawn {
		c.Text(rc.Fonts.Medium, 25, 70, t.Grey, "Nothing scheduled")
	}

	drawOwnerLegend(c, rc, in, Height-24)
	return c.Image()
}
