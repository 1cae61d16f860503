package ink

import (
	"math"

	"notecanvas/internal/element"
)

// Straighten converts a freehand element into the recognized clean shape,
// keeping the stroke's color and width. Returns false when the stroke is not
// a freehand element or nothing was recognized.
func Straighten(el element.Element) (element.Element, bool) {
	if el.Type != element.TypeFreehand {
		return element.Element{}, false
	}
	points := el.PathPoints()
	guess, ok := Recognize(points)
	if !ok {
		return element.Element{}, false
	}

	out := element.Element{
		ZIndex:      el.ZIndex,
		StrokeColor: el.StrokeColor,
		StrokeWidth: el.StrokeWidth,
		Owner:       el.Owner,
	}

	switch guess.Shape {
	case ShapeLine:
		out.Type = element.TypeLine
		out.X = int(math.Round(guess.Line.Start.X))
		out.Y = int(math.Round(guess.Line.Start.Y))
		out.Width = int(math.Round(guess.Line.End.X - guess.Line.Start.X))
		out.Height = int(math.Round(guess.Line.End.Y - guess.Line.Start.Y))

	case ShapeRectangle, ShapeCircle:
		out.Type = element.TypeRectangle
		if guess.Shape == ShapeCircle {
			out.Type = element.TypeCircle
		}
		out.X = int(math.Round(guess.Bounds.X))
		out.Y = int(math.Round(guess.Bounds.Y))
		out.Width = int(math.Round(guess.Bounds.Width))
		out.Height = int(math.Round(guess.Bounds.Height))
		out.FillColor = "none"

	default:
		return element.Element{}, false
	}
	return out, true
}
