package render

import (
	"image"
	"strconv"
	"time"

	"epddash/internal/agenda"
	"epddash/internal/model"
)

// Grid layout bounds.
const (
	gridHeaderH    = 40
	gridListH      = 80
	gridMaxDots    = 3  // event dots per day cell
	gridListEvents = 4  // rows in the bottom list
	gridTitleMax   = 30 // title runes in the bottom list
)

// renderGrid is the reference template: a 6-week calendar grid with per-day
// owner-colored event dots and a "Today & Upcoming" list at the bottom.
func renderGrid(rc *Context, in *model.RenderInput) *image.NRGBA {
	c := NewCanvas(Width, Height, rc.Theme.White)
	gridH := Height - gridHeaderH - gridListH

	drawGridHeader(c, rc, in)
	drawGridCells(c, rc, in, gridHeaderH+5, gridH-10)
	drawGridList(c, rc, in, gridHeaderH+gridH+5)

	return c.Image()
}

func drawGridHeader(c *Canvas, rc *Context, in *model.RenderInput) {
	t := rc.Theme
	c.FillRect(0, 0, Width-1, gridHeaderH, t.LightGrey)
	c.StrokeRect(0, 0, Width-1, gridHeaderH, t.Black)

	c.Text(rc.Fonts.Large, 10, 10, t.Black, "6-Week Calendar")

	updated := "Updated: " + in.Now.Format("2006-01-02 15:04")
	if len(in.Offline) > 0 {
		updated += " (cached)"
	}
	c.TextRight(rc.Fonts.Small, Width-10, 14, t.Black, updated)
}

func drawGridCells(c *Canvas, rc *Context, in *model.RenderInput, top, height int) {
	t := rc.Theme
	today := model.DateOf(in.Now)

	// The grid starts on the Sunday at or before today.
	start := today
	for start.Weekday() != time.Sunday {
		start = start.AddDays(-1)
	}

	left, right := 5, Width-5
	gridW := right - left

	const cols, rows = 7, 6
	cellW := gridW / cols
	headerRow := 15
	cellH := (height - headerRow) / rows

	c.StrokeRect(left, top, left+cellW*cols, top+headerRow+cellH*rows, t.Black)

	dayNames := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	for i, name := range dayNames {
		c.Text(rc.Fonts.Small, left+i*cellW+5, top+1, t.Black, name)
	}

	date := start
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cellL := left + col*cellW
			cellT := top + headerRow + row*cellH

			if date == today {
				c.FillRect(cellL+1, cellT+1, cellL+cellW-1, cellT+cellH-1, t.LightGrey)
			}
			c.StrokeRect(cellL, cellT, cellL+cellW, cellT+cellH, t.Black)

			c.Text(rc.Fonts.Medium, cellL+3, cellT+2, t.Black, strconv.Itoa(date.Day))

			events := in.EventsOn(date)
			dotY := cellT + 22
			shown := len(events)
			if shown > gridMaxDots {
				shown = gridMaxDots
			}
			for i := 0; i < shown; i++ {
				c.FillCircle(cellL+7+i*9, dotY, 2, t.OwnerColor(events[i].Owner))
			}
			if hidden := len(events) - shown; hidden > 0 {
				c.Text(rc.Fonts.Tiny, cellL+7+shown*9, dotY-4, t.DarkGrey, moreLabel(hidden))
			}

			date = date.AddDays(1)
		}
	}
}

func drawGridList(c *Canvas, rc *Context, in *model.RenderInput, top int) {
	t := rc.Theme
	c.StrokeRect(0, top, Width-1, Height-1, t.Black)
	c.Text(rc.Fonts.Medium, 5, top+2, t.Black, "Today & Upcoming")

	today := model.DateOf(in.Now)
	events := agenda.Upcoming(in.Buckets, today, gridListEvents+1)

	if len(events) == 0 {
		c.Text(rc.Fonts.Small, 15, top+20, t.Grey, "No events")
		return
	}

	y := top + 20
	shown := len(events)
	if shown > gridListEvents {
		shown = gridListEvents
	}
	for i := 0; i < shown; i++ {
		ev := events[i]
		c.Text(rc.Fonts.Small, 5, y, t.OwnerColor(ev.Owner), ownerInitial(in, ev.Owner))
		c.Text(rc.Fonts.Small, 18, y, t.Black, formatEventTime(ev)+" "+displayTitle(ev, gridTitleMax))
		y += 13
	}
	if hidden := len(events) - shown; hidden > 0 {
		c.Text(rc.Fonts.Tiny, 18, y, t.DarkGrey, moreLabel(hidden))
	}
}

// ownerInitial returns the single-letter legend marker for an owner.
func ownerInitial(in *model.RenderInput, owner model.Owner) string {
	name := in.OwnerAName
	if owner == model.OwnerB {
		name = in.OwnerBName
	}
	if name == "" {
		if owner == model.OwnerA {
			return "A"
		}
		return "B"
	}
	return string([]rune(name)[:1])
}
