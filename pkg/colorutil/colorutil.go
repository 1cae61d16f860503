// Package colorutil provides the shared named color palette for the canvas editor.
//
// Canvas elements store abstract color names ("red", "blue", ...) rather than
// concrete values; the render layer resolves them against the active theme
// variant so a stroke drawn in a dark theme stays legible in a light one.
package colorutil

import (
	"image/color"
)

// Variant selects which side of the palette a name resolves against.
type Variant int

const (
	VariantDark Variant = iota
	VariantLight
)

// Common concrete colors used by overlays and previews.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// paletteEntry holds the per-variant resolution of one abstract color name.
type paletteEntry struct {
	dark  color.RGBA
	light color.RGBA
}

// palette maps abstract color names to concrete values per theme variant.
// "default" tracks the theme foreground so plain strokes always contrast
// with the background.
var palette = map[string]paletteEntry{
	"default": {dark: color.RGBA{230, 230, 230, 255}, light: color.RGBA{33, 33, 33, 255}},
	"black":   {dark: color.RGBA{230, 230, 230, 255}, light: color.RGBA{0, 0, 0, 255}},
	"white":   {dark: color.RGBA{245, 245, 245, 255}, light: color.RGBA{66, 66, 66, 255}},
	"red":     {dark: color.RGBA{239, 83, 80, 255}, light: color.RGBA{198, 40, 40, 255}},
	"green":   {dark: color.RGBA{102, 187, 106, 255}, light: color.RGBA{46, 125, 50, 255}},
	"blue":    {dark: color.RGBA{66, 165, 245, 255}, light: color.RGBA{21, 101, 192, 255}},
	"yellow":  {dark: color.RGBA{255, 238, 88, 255}, light: color.RGBA{249, 168, 37, 255}},
	"orange":  {dark: color.RGBA{255, 167, 38, 255}, light: color.RGBA{230, 81, 0, 255}},
	"purple":  {dark: color.RGBA{171, 71, 188, 255}, light: color.RGBA{106, 27, 154, 255}},
	"gray":    {dark: color.RGBA{158, 158, 158, 255}, light: color.RGBA{117, 117, 117, 255}},
	"none":    {dark: color.RGBA{0, 0, 0, 0}, light: color.RGBA{0, 0, 0, 0}},
}

// Resolve maps an abstract color name to a concrete color for the given
// variant. Unknown or empty names resolve as "default".
func Resolve(name string, variant Variant) color.RGBA {
	entry, ok := palette[name]
	if !ok {
		entry = palette["default"]
	}
	if variant == VariantLight {
		return entry.light
	}
	return entry.dark
}

// Names returns the abstract color names available for the stroke and fill
// pickers, in a stable display order. "none" is only meaningful as a fill.
func Names() []string {
	return []string{"default", "red", "orange", "yellow", "green", "blue", "purple", "gray"}
}

// IsKnown reports whether name is part of the palette.
func IsKnown(name string) bool {
	_, ok := palette[name]
	return ok
}
