package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Canvas wraps an NRGBA image with the small set of drawing primitives the
// layout templates need. All coordinates are pixels, y growing downward.
type Canvas struct {
	img *image.NRGBA
}

// NewCanvas allocates a w×h canvas filled with bg.
func NewCanvas(w, h int, bg color.NRGBA) *Canvas {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &Canvas{img: img}
}

// Image returns the underlying raster.
func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// Width and Height report the canvas geometry.
func (c *Canvas) Width() int  { return c.img.Bounds().Dx() }
func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// FillRect fills the rectangle [x0,y0)-(x1,y1) inclusive of its edges.
func (c *Canvas) FillRect(x0, y0, x1, y1 int, col color.NRGBA) {
	r := image.Rect(x0, y0, x1+1, y1+1).Intersect(c.img.Bounds())
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// StrokeRect draws a 1px rectangle outline.
func (c *Canvas) StrokeRect(x0, y0, x1, y1 int, col color.NRGBA) {
	c.HLine(x0, x1, y0, col)
	c.HLine(x0, x1, y1, col)
	c.VLine(x0, y0, y1, col)
	c.VLine(x1, y0, y1, col)
}

// HLine draws a horizontal line from x0 to x1 at y.
func (c *Canvas) HLine(x0, x1, y int, col color.NRGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		c.set(x, y, col)
	}
}

// VLine draws a vertical line from y0 to y1 at x.
func (c *Canvas) VLine(x, y0, y1 int, col color.NRGBA) {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		c.set(x, y, col)
	}
}

// FillCircle fills a circle centered at (cx, cy). Event dots and weather
// glyphs only need small radii, so the naive scan is fine.
func (c *Canvas) FillCircle(cx, cy, r int, col color.NRGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.set(cx+dx, cy+dy, col)
			}
		}
	}
}

// Text draws s with its top-left corner at (x, y) and returns the advance
// width in pixels.
func (c *Canvas) Text(face font.Face, x, y int, col color.NRGBA, s string) int {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
	return (d.Dot.X - fixed.I(x)).Ceil()
}

// TextRight draws s right-aligned so it ends at xRight.
func (c *Canvas) TextRight(face font.Face, xRight, y int, col color.NRGBA, s string) {
	w := c.TextWidth(face, s)
	c.Text(face, xRight-w, y, col, s)
}

// TextCentered draws s horizontally centered between x0 and x1.
func (c *Canvas) TextCentered(face font.Face, x0, x1, y int, col color.NRGBA, s string) {
	w := c.TextWidth(face, s)
	c.Text(face, x0+(x1-x0-w)/2, y, col, s)
}

// TextWidth measures the advance width of s in pixels.
func (c *Canvas) TextWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// LineHeight returns the face's line height in pixels.
func LineHeight(face font.Face) int {
	return face.Metrics().Height.Ceil()
}

func (c *Canvas) set(x, y int, col color.NRGBA) {
	if image.Pt(x, y).In(c.img.Bounds()) {
		c.img.SetNRGBA(x, y, col)
	}
}
