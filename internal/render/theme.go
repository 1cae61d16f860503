package render

import (
	"image/color"

	"notecanvas/pkg/colorutil"
)

// Theme holds the concrete colors for everything that is not an element:
// background, grid, and the selection chrome. Element colors resolve through
// the palette using the theme's variant.
type Theme struct {
	Variant    colorutil.Variant
	Background color.RGBA
	GridLine   color.RGBA
	Selection  color.RGBA
	Marquee    color.RGBA
	MarqueeBG  color.RGBA
	Handle     color.RGBA
	HandleRim  color.RGBA
	Preview    color.RGBA
}

// DarkTheme is the default editor theme.
func DarkTheme() Theme {
	return Theme{
		Variant:    colorutil.VariantDark,
		Background: color.RGBA{30, 30, 30, 255},
		GridLine:   color.RGBA{48, 48, 48, 255},
		Selection:  color.RGBA{77, 171, 247, 255},
		Marquee:    color.RGBA{77, 171, 247, 255},
		MarqueeBG:  color.RGBA{77, 171, 247, 40},
		Handle:     color.RGBA{77, 171, 247, 255},
		HandleRim:  color.RGBA{30, 30, 30, 255},
		Preview:    color.RGBA{160, 160, 160, 255},
	}
}

// LightTheme mirrors the dark theme against a paper background.
func LightTheme() Theme {
	return Theme{
		Variant:    colorutil.VariantLight,
		Background: color.RGBA{250, 250, 250, 255},
		GridLine:   color.RGBA{228, 228, 228, 255},
		Selection:  color.RGBA{25, 118, 210, 255},
		Marquee:    color.RGBA{25, 118, 210, 255},
		MarqueeBG:  color.RGBA{25, 118, 210, 40},
		Handle:     color.RGBA{25, 118, 210, 255},
		HandleRim:  color.RGBA{250, 250, 250, 255},
		Preview:    color.RGBA{120, 120, 120, 255},
	}
}
