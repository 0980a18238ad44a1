// Package convert turns rendered rasters into the packed 1bpp planes the
// tri-color panel consumes.
package convert

import (
	"fmt"
	"image"
	"image/color"
)

// EPD panel geometry (7.5" B, tri-color).
const (
	EPDWidth      = 800
	EPDHeight     = 480
	EPDByteStride = EPDWidth / 8 // 100 bytes per row
	EPDPlaneSize  = EPDByteStride * EPDHeight
)

// PackNRGBA converts an image.NRGBA into packed 1bpp black/red planes for
// the Waveshare 7.5" B panel.
//
// The image width must be exactly 800 pixels and the height at least 480;
// taller images are center-cropped vertically. Each plane is y-major,
// MSB-first 1bpp: byteIndex = y*100 + (x>>3), mask = 0x80 >> (x&7). Planes
// start all-white (every bit 1) and inked pixels clear their bit to 0.
func PackNRGBA(img *image.NRGBA) (black, red []byte, err error) {
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()

	if w != EPDWidth {
		return nil, nil, fmt.Errorf("convert: expected width %d, got %d", EPDWidth, w)
	}
	if h < EPDHeight {
		return nil, nil, fmt.Errorf("convert: expected height >= %d, got %d", EPDHeight, h)
	}

	startY := b.Min.Y + (h-EPDHeight)/2

	black = make([]byte, EPDPlaneSize)
	red = make([]byte, EPDPlaneSize)
	for i := range black {
		black[i] = 0xFF
	}
	for i := range red {
		red[i] = 0xFF
	}

	// Walk the pixel buffer by stride directly instead of calling At().
	for py := 0; py < EPDHeight; py++ {
		srcY := startY + py
		rowOff := (srcY - b.Min.Y) * img.Stride

		for px := 0; px < EPDWidth; px++ {
			i := rowOff + px*4

			r := img.Pix[i+0]
			g := img.Pix[i+1]
			bb := img.Pix[i+2]
			a := img.Pix[i+3]

			// Transparent pixels read as white on the panel.
			if a < 128 {
				continue
			}

			ink := classifyPixel(color.NRGBA{R: r, G: g, B: bb, A: a})
			if ink == inkWhite {
				continue
			}

			byteIndex := py*EPDByteStride + (px >> 3)
			mask := byte(0x80 >> (px & 7))

			switch ink {
			case inkBlack:
				black[byteIndex] &^= mask
			case inkRed:
				red[byteIndex] &^= mask
			}
		}
	}

	return black, red, nil
}

// inkColor indicates which plane a pixel should be drawn to.
type inkColor int

const (
	inkWhite inkColor = iota
	inkBlack
	inkRed
)

// classifyPixel decides whether a pixel lands on the black plane, the red
// plane, or stays white. Very dark pixels (luma < 64) are black; bright
// red-dominant pixels (R > 128 and R exceeding max(G,B) by more than 32)
// are red; everything else is white.
func classifyPixel(c color.NRGBA) inkColor {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)

	y := 0.299*r + 0.587*g + 0.114*b

	maxGB := g
	if b > maxGB {
		maxGB = b
	}
	redness := r - maxGB

	if y < 64 {
		return inkBlack
	}
	if r > 128 && redness > 32 {
		return inkRed
	}
	return inkWhite
}
