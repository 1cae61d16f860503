package element

import (
	"math"
	"strconv"
	"strings"

	"notecanvas/pkg/geometry"
)

// Freehand paths travel the wire as an SVG-style absolute path string with
// integer coordinates relative to the element origin: "M 0 0 L 12 7 L 20 3".

// EncodePath serializes a point list as path data. Coordinates are rounded to
// the nearest integer pixel.
func EncodePath(points []geometry.Point2D) string {
	if len(points) == 0 {
		return ""
	}

	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(strconv.Itoa(int(math.Round(p.X))))
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(int(math.Round(p.Y))))
	}
	return b.String()
}

// DecodePath parses path data back into a point list. Malformed tokens are
// skipped rather than failing the whole path; a stroke with a corrupt tail is
// still better rendered than dropped.
func DecodePath(data string) []geometry.Point2D {
	if data == "" {
		return nil
	}

	tokens := strings.Fields(data)
	var points []geometry.Point2D
	i := 0
	for i < len(tokens) {
		switch tokens[i] {
		case "M", "L":
			if i+2 >= len(tokens) {
				return points
			}
			x, errX := strconv.ParseFloat(tokens[i+1], 64)
			y, errY := strconv.ParseFloat(tokens[i+2], 64)
			if errX == nil && errY == nil {
				points = append(points, geometry.Point2D{X: x, Y: y})
			}
			i += 3
		default:
			i++
		}
	}
	return points
}

// NormalizeStroke shifts raw canvas-space stroke points so they are relative
// to a padded origin, and returns that origin together with the padded size.
// The pad keeps stroke caps inside the bounding box at render time.
func NormalizeStroke(points []geometry.Point2D, pad float64) (origin geometry.Point2D, size geometry.Point2D, relative []geometry.Point2D) {
	if len(points) == 0 {
		return geometry.Point2D{}, geometry.Point2D{}, nil
	}

	box := geometry.BoundingBox(points).Expand(pad)
	origin = geometry.Point2D{X: box.X, Y: box.Y}
	size = geometry.Point2D{X: box.Width, Y: box.Height}

	relative = make([]geometry.Point2D, len(points))
	for i, p := range points {
		relative[i] = p.Sub(origin)
	}
	return origin, size, relative
}
