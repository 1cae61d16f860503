package ink

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecanvas/pkg/geometry"
)

func line(x0, y0, x1, y1 float64, n int, jitter float64) []geometry.Point2D {
	points := make([]geometry.Point2D, n)
	for i := range points {
		t := float64(i) / float64(n-1)
		j := jitter * math.Sin(float64(i)*1.7)
		points[i] = geometry.Point2D{
			X: x0 + (x1-x0)*t + j,
			Y: y0 + (y1-y0)*t - j,
		}
	}
	return points
}

func circle(cx, cy, r float64, n int) []geometry.Point2D {
	points := make([]geometry.Point2D, n)
	for i := range points {
		a := 2 * math.Pi * float64(i) / float64(n)
		points[i] = geometry.Point2D{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return points
}

func TestFitLineHorizontal(t *testing.T) {
	fit, ok := FitLine(line(10, 50, 200, 50, 40, 0))
	require.True(t, ok)
	assert.InDelta(t, 10, fit.Start.X, 0.5)
	assert.InDelta(t, 200, fit.End.X, 0.5)
	assert.InDelta(t, 50, fit.Start.Y, 0.5)
	assert.InDelta(t, 0, fit.RMS, 0.01)
}

func TestFitLineVertical(t *testing.T) {
	fit, ok := FitLine(line(80, 10, 80, 300, 40, 0))
	require.True(t, ok)
	assert.InDelta(t, 80, fit.Start.X, 0.5)
	assert.InDelta(t, 10, fit.Start.Y, 0.5)
	assert.InDelta(t, 300, fit.End.Y, 0.5)
}

func TestFitLineKeepsDrawnDirection(t *testing.T) {
	fit, ok := FitLine(line(200, 200, 20, 40, 30, 0))
	require.True(t, ok)
	assert.InDelta(t, 200, fit.Start.X, 0.5)
	assert.InDelta(t, 20, fit.End.X, 0.5)
}

func TestIsStraightWobblyLine(t *testing.T) {
	_, ok := IsStraight(line(0, 0, 300, 120, 60, 3))
	assert.True(t, ok)
}

func TestIsStraightRejectsArc(t *testing.T) {
	_, ok := IsStraight(circle(100, 100, 80, 40)[:20])
	assert.False(t, ok)
}

func TestIsClosed(t *testing.T) {
	assert.True(t, IsClosed(circle(100, 100, 50, 40)))
	assert.False(t, IsClosed(line(0, 0, 200, 0, 40, 0)))
}

func TestCircularity(t *testing.T) {
	assert.Greater(t, Circularity(circle(0, 0, 60, 60)), 0.95)

	square := []geometry.Point2D{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}
	c := Circularity(square)
	assert.InDelta(t, math.Pi/4, c, 0.03)
}
