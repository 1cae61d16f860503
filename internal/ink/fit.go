// Package ink analyzes freehand strokes and proposes the clean shape the user
// probably meant: a straight line, a rectangle, or a circle.
package ink

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"notecanvas/pkg/geometry"
)

// LineFit is a least-squares line through a stroke, expressed as the two
// endpoints of the stroke projected onto the fitted line.
type LineFit struct {
	Start  geometry.Point2D
	End    geometry.Point2D
	RMS    float64 // root-mean-square residual, in canvas units
	Spread float64 // extent along the fitted direction
}

// FitLine regresses the stroke against its dominant axis. Near-vertical
// strokes regress x on y so the fit stays stable at any angle.
func FitLine(points []geometry.Point2D) (LineFit, bool) {
	if len(points) < 2 {
		return LineFit{}, false
	}

	box := geometry.BoundingBox(points)
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	// Regress the minor axis on the major one.
	swap := box.Height > box.Width
	if swap {
		xs, ys = ys, xs
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	var sum float64
	for i := range xs {
		d := ys[i] - (alpha + beta*xs[i])
		sum += d * d
	}
	rms := math.Sqrt(sum / float64(len(xs)))

	at := func(x float64) geometry.Point2D {
		y := alpha + beta*x
		if swap {
			return geometry.Point2D{X: y, Y: x}
		}
		return geometry.Point2D{X: x, Y: y}
	}

	minX, maxX := xs[0], xs[0]
	for _, x := range xs {
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
	}

	fit := LineFit{
		Start:  at(minX),
		End:    at(maxX),
		RMS:    rms,
		Spread: maxX - minX,
	}

	// Keep the drawn direction: first point maps to the nearer endpoint.
	if points[0].Distance(fit.End) < points[0].Distance(fit.Start) {
		fit.Start, fit.End = fit.End, fit.Start
	}
	return fit, true
}

// straightness thresholds: the residual must be small both absolutely and
// relative to the stroke's extent.
const (
	maxStraightRMS   = 6.0
	maxStraightRatio = 0.06
)

// IsStraight reports whether the stroke reads as a single straight line.
func IsStraight(points []geometry.Point2D) (LineFit, bool) {
	fit, ok := FitLine(points)
	if !ok || fit.Spread < 1 {
		return LineFit{}, false
	}
	if fit.RMS > maxStraightRMS {
		return LineFit{}, false
	}
	if fit.RMS/fit.Spread > maxStraightRatio {
		return LineFit{}, false
	}
	return fit, true
}

// IsClosed reports whether the stroke ends near where it began, relative to
// its overall size.
func IsClosed(points []geometry.Point2D) bool {
	if len(points) < 8 {
		return false
	}
	box := geometry.BoundingBox(points)
	diag := math.Hypot(box.Width, box.Height)
	if diag < 20 {
		return false
	}
	gap := points[0].Distance(points[len(points)-1])
	return gap < diag*0.25
}

// Circularity measures how circular a closed stroke is using the convex
// hull's isoperimetric ratio: 1.0 for a perfect circle, lower otherwise.
func Circularity(points []geometry.Point2D) float64 {
	hull := geometry.ConvexHull(points)
	if len(hull) < 3 {
		return 0
	}
	area := math.Abs(geometry.PolygonArea(hull))
	perimeter := geometry.PolygonPerimeter(hull)
	if perimeter == 0 {
		return 0
	}
	return 4 * math.Pi * area / (perimeter * perimeter)
}
