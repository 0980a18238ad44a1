package render

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	appLog "epddash/internal/log"
)

// Default font locations, tried in order. The appliance runs on Raspberry Pi
// OS where the DejaVu set is always present.
var (
	regularFontPaths = []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
	}
	boldFontPaths = []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
		"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
	}
)

// FontSet is the fixed set of faces templates draw with, constructed once at
// startup and passed through the Context.
type FontSet struct {
	XL     font.Face // large date banner
	Large  font.Face // section headers
	Medium font.Face // day numbers, emphasis
	Small  font.Face // event rows
	Tiny   font.Face // footnotes, legends
}

// LoadFonts builds the FontSet from the first usable TrueType file, falling
// back to the built-in bitmap face when none is found (development machines,
// CI). Rendering stays total either way.
func LoadFonts() *FontSet {
	regular, regErr := loadFirst(regularFontPaths)
	bold, boldErr := loadFirst(boldFontPaths)
	if boldErr != nil {
		bold = regular
	}

	if regErr != nil {
		appLog.Warn("no TrueType fonts found, using bitmap fallback", "err", regErr)
		face := basicfont.Face7x13
		return &FontSet{XL: face, Large: face, Medium: face, Small: face, Tiny: face}
	}

	fs := &FontSet{
		XL:     mustFace(bold, 34),
		Large:  mustFace(bold, 18),
		Medium: mustFace(regular, 14),
		Small:  mustFace(regular, 11),
		Tiny:   mustFace(regular, 8),
	}
	return fs
}

// BitmapFonts returns a FontSet backed entirely by the built-in bitmap face.
// Tests use it for deterministic, file-independent rendering.
func BitmapFonts() *FontSet {
	face := basicfont.Face7x13
	return &FontSet{XL: face, Large: face, Medium: face, Small: face, Tiny: face}
}

func loadFirst(paths []string) (*opentype.Font, error) {
	var lastErr error
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			lastErr = fmt.Errorf("parse %s: %w", path, err)
			continue
		}
		return f, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no font paths configured")
	}
	return nil, lastErr
}

func mustFace(f *opentype.Font, size float64) font.Face {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// Parse succeeded, so face creation only fails on bad options;
		// degrade to the bitmap face rather than abort a render.
		appLog.Warn("face creation failed, using bitmap fallback", "size", size, "err", err)
		return basicfont.Face7x13
	}
	return face
}
