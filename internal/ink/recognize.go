package ink

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"notecanvas/pkg/geometry"
)

// Shape is the recognized clean form of a stroke.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeLine
	ShapeRectangle
	ShapeCircle
)

func (s Shape) String() string {
	switch s {
	case ShapeLine:
		return "line"
	case ShapeRectangle:
		return "rectangle"
	case ShapeCircle:
		return "circle"
	default:
		return "none"
	}
}

// Guess is one recognition result with the replacement geometry.
type Guess struct {
	Shape  Shape
	Line   LineFit       // valid when Shape is ShapeLine
	Bounds geometry.Rect // valid for ShapeRectangle and ShapeCircle
}

const (
	rasterPad   = 8
	rasterEdge  = 256
	minCircular = 0.82
)

// Recognize classifies a freehand stroke. Open strokes go through the line
// fit; closed ones are rasterized and classified by contour approximation.
func Recognize(points []geometry.Point2D) (Guess, bool) {
	if len(points) < 2 {
		return Guess{}, false
	}

	if fit, ok := IsStraight(points); ok {
		return Guess{Shape: ShapeLine, Line: fit}, true
	}
	if !IsClosed(points) {
		return Guess{}, false
	}

	box := geometry.BoundingBox(points)
	switch classifyClosed(points, box) {
	case ShapeRectangle:
		return Guess{Shape: ShapeRectangle, Bounds: box}, true
	case ShapeCircle:
		return Guess{Shape: ShapeCircle, Bounds: box}, true
	}
	return Guess{}, false
}

// classifyClosed rasterizes the closed stroke and approximates its outer
// contour. Four vertices at near-right angles read as a rectangle; otherwise
// a high isoperimetric ratio reads as a circle.
func classifyClosed(points []geometry.Point2D, box geometry.Rect) Shape {
	mat := rasterize(points, box)
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return fallbackClassify(points)
	}

	// Largest contour is the stroke outline.
	best := 0
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area > bestArea {
			bestArea = area
			best = i
		}
	}
	contour := contours.At(best)

	epsilon := 0.04 * gocv.ArcLength(contour, true)
	approx := gocv.ApproxPolyDP(contour, epsilon, true)
	defer approx.Close()

	if approx.Size() == 4 && rightAngled(approx) {
		return ShapeRectangle
	}

	perimeter := gocv.ArcLength(contour, true)
	if perimeter > 0 {
		circularity := 4 * math.Pi * bestArea / (perimeter * perimeter)
		if circularity >= minCircular {
			return ShapeCircle
		}
	}
	return ShapeNone
}

// rasterize draws the stroke as a filled white polygon on a black mat scaled
// to a bounded working size.
func rasterize(points []geometry.Point2D, box geometry.Rect) gocv.Mat {
	longest := box.Width
	if box.Height > longest {
		longest = box.Height
	}
	scale := 1.0
	if longest > rasterEdge {
		scale = rasterEdge / longest
	}

	w := int(box.Width*scale) + 2*rasterPad
	h := int(box.Height*scale) + 2*rasterPad
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)

	pts := make([]image.Point, len(points))
	for i, p := range points {
		pts[i] = image.Point{
			X: int((p.X-box.X)*scale) + rasterPad,
			Y: int((p.Y-box.Y)*scale) + rasterPad,
		}
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.FillPoly(&mat, pv, gocv.NewScalar(255, 255, 255, 255))
	return mat
}

// rightAngled checks that every corner of a four-vertex polygon is close to
// ninety degrees.
func rightAngled(approx gocv.PointVector) bool {
	pts := approx.ToPoints()
	if len(pts) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		a := pts[(i+3)%4]
		b := pts[i]
		c := pts[(i+1)%4]
		v1x, v1y := float64(a.X-b.X), float64(a.Y-b.Y)
		v2x, v2y := float64(c.X-b.X), float64(c.Y-b.Y)
		dot := v1x*v2x + v1y*v2y
		n1 := math.Hypot(v1x, v1y)
		n2 := math.Hypot(v2x, v2y)
		if n1 == 0 || n2 == 0 {
			return false
		}
		if math.Abs(dot/(n1*n2)) > 0.3 {
			return false
		}
	}
	return true
}

// fallbackClassify covers degenerate rasters with the pure-geometry ratio.
func fallbackClassify(points []geometry.Point2D) Shape {
	if Circularity(points) >= minCircular {
		return ShapeCircle
	}
	return ShapeNone
}
