// Package viewport holds the zoom scale and the screen-to-canvas coordinate
// mapping. Every interaction handler converts pointer positions through the
// same ToCanvas path so drag, resize, draw, erase, and select all agree on
// where a point is at any zoom level.
package viewport

import (
	"notecanvas/pkg/geometry"
)

const (
	// MinScale and MaxScale clamp the zoom range.
	MinScale = 0.25
	MaxScale = 4.0
	// ScaleStep is the multiplicative step per zoom action.
	ScaleStep = 1.2

	// surfacePad is added around the element extent so nothing sits flush
	// against the scroll edge.
	surfacePad = 200
)

// Viewport maps between screen (zoomed) and canvas (unscaled) coordinates.
type Viewport struct {
	scale float64
}

// New creates a viewport at 1:1 scale.
func New() *Viewport {
	return &Viewport{scale: 1.0}
}

// Scale returns the current zoom scale.
func (v *Viewport) Scale() float64 {
	return v.scale
}

// SetScale sets the zoom scale, clamped to [MinScale, MaxScale].
func (v *Viewport) SetScale(scale float64) {
	if scale < MinScale {
		scale = MinScale
	}
	if scale > MaxScale {
		scale = MaxScale
	}
	v.scale = scale
}

// ZoomIn multiplies the scale by one step.
func (v *Viewport) ZoomIn() {
	v.SetScale(v.scale * ScaleStep)
}

// ZoomOut divides the scale by one step.
func (v *Viewport) ZoomOut() {
	v.SetScale(v.scale / ScaleStep)
}

// ToCanvas converts a screen-space point to canvas space:
// (client − surfaceOrigin + scrollOffset) / scale.
func (v *Viewport) ToCanvas(client, surfaceOrigin, scrollOffset geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: (client.X - surfaceOrigin.X + scrollOffset.X) / v.scale,
		Y: (client.Y - surfaceOrigin.Y + scrollOffset.Y) / v.scale,
	}
}

// ToClient converts a canvas-space point back to screen space.
func (v *Viewport) ToClient(canvas, surfaceOrigin, scrollOffset geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: canvas.X*v.scale + surfaceOrigin.X - scrollOffset.X,
		Y: canvas.Y*v.scale + surfaceOrigin.Y - scrollOffset.Y,
	}
}

// SurfaceSize computes the logical (unscaled) editing surface size: large
// enough to fill the visible viewport after scaling and to contain the
// element extent plus padding, so no element becomes unreachable at any zoom.
func (v *Viewport) SurfaceSize(viewW, viewH float64, elements geometry.Rect) (w, h float64) {
	w = viewW / v.scale
	h = viewH / v.scale

	if needW := elements.X + elements.Width + surfacePad; needW > w {
		w = needW
	}
	if needH := elements.Y + elements.Height + surfacePad; needH > h {
		h = needH
	}
	return w, h
}
