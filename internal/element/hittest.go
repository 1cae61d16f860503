package element

import (
	"notecanvas/pkg/geometry"
)

// DefaultEraserRadius is the eraser hit radius in canvas pixels.
const DefaultEraserRadius = 8

// Tolerance returns the effective hit radius for an element: half the stroke
// width plus the eraser radius.
func Tolerance(el Element, eraserRadius float64) float64 {
	return float64(el.EffectiveStrokeWidth())/2 + eraserRadius
}

// HitTest reports whether p is within tolerance of the element, dispatching
// by element type. Freehand strokes and lines test against their segments;
// everything else tests against the tolerance-expanded bounding box.
func HitTest(p geometry.Point2D, el Element, tolerance float64) bool {
	switch el.Type {
	case TypeFreehand:
		return hitFreehand(p, el, tolerance)
	case TypeLine:
		a, b := el.LineEndpoints()
		return geometry.PointToSegmentDistance(p, a, b) <= tolerance
	default:
		return el.Bounds().Expand(tolerance).Contains(p)
	}
}

func hitFreehand(p geometry.Point2D, el Element, tolerance float64) bool {
	pts := el.PathPoints()
	if len(pts) == 0 {
		return false
	}
	if len(pts) == 1 {
		return p.Distance(pts[0]) <= tolerance
	}
	for i := 1; i < len(pts); i++ {
		if geometry.PointToSegmentDistance(p, pts[i-1], pts[i]) <= tolerance {
			return true
		}
	}
	return false
}

// BoxesIntersect reports whether two axis-aligned rectangles overlap. Partial
// overlap counts; this is the marquee selection predicate.
func BoxesIntersect(a, b geometry.Rect) bool {
	return a.Normalized().Intersects(b.Normalized())
}
