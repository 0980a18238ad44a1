package render

import (
	"image/color"

	"epddash/internal/model"
)

// Theme is the explicit color palette handed to templates through the
// render Context. No global theme manager: construct one at startup and
// pass it down.
type Theme struct {
	White     color.NRGBA
	Black     color.NRGBA
	Grey      color.NRGBA
	LightGrey color.NRGBA
	DarkGrey  color.NRGBA
	Red       color.NRGBA
}

// LightTheme is the palette used on the tri-color panel. The red/black
// owner split maps directly onto the panel's two ink planes.
func LightTheme() Theme {
	return Theme{
		White:     color.NRGBA{255, 255, 255, 255},
		Black:     color.NRGBA{0, 0, 0, 255},
		Grey:      color.NRGBA{200, 200, 200, 255},
		LightGrey: color.NRGBA{230, 230, 230, 255},
		DarkGrey:  color.NRGBA{100, 100, 100, 255},
		Red:       color.NRGBA{255, 0, 0, 255},
	}
}

// OwnerColor is the fixed semantic owner coloring every template must honor:
// OwnerA renders red, OwnerB renders black, in every mode.
func (t Theme) OwnerColor(owner model.Owner) color.NRGBA {
	if owner == model.OwnerA {
		return t.Red
	}
	return t.Black
}
