// Package render rasterizes the canvas scene: elements in z order, then the
// selection chrome and gesture overlays. The same engine backs the on-screen
// raster and the headless PNG exporter.
package render

import (
	"image"

	"github.com/fogleman/gg"

	"notecanvas/internal/element"
	"notecanvas/pkg/colorutil"
	"notecanvas/pkg/geometry"
)

// handleSize matches the pointer hit size for corner handles, in canvas units.
const handleSize = 8

const (
	textPadding  = 6
	textFontSize = 14
)

// ImageProvider resolves an image URL to decoded pixels. A miss means the
// image is still loading; the engine draws a placeholder in its place.
type ImageProvider interface {
	Image(url string) (image.Image, bool)
}

// Frame is one complete description of what to draw. The interaction layer
// assembles it; the engine holds no state between frames.
type Frame struct {
	Elements []element.Element
	Selected map[int64]bool

	Marquee      *geometry.Rect
	Preview      *element.Element
	StrokePoints []geometry.Point2D
	StrokeColor  string
	StrokeWidth  int
	ShowHandles  bool

	Scale    float64
	Width    int
	Height   int
	ShowGrid bool
	GridSize int
}

// Engine draws frames with a fixed theme and font cache.
type Engine struct {
	theme  Theme
	fonts  *FontCache
	images ImageProvider
}

// NewEngine creates a render engine. images may be nil; image elements then
// always draw as placeholders.
func NewEngine(theme Theme, images ImageProvider) *Engine {
	return &Engine{theme: theme, fonts: NewFontCache(), images: images}
}

// SetTheme swaps the active theme.
func (e *Engine) SetTheme(theme Theme) { e.theme = theme }

// Theme returns the active theme.
func (e *Engine) Theme() Theme { return e.theme }

// Render rasterizes one frame.
func (e *Engine) Render(f Frame) image.Image {
	return e.draw(f).Image()
}

// SavePNG rasterizes one frame straight to a PNG file.
func (e *Engine) SavePNG(f Frame, path string) error {
	return e.draw(f).SavePNG(path)
}

func (e *Engine) draw(f Frame) *gg.Context {
	w := f.Width
	h := f.Height
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dc := gg.NewContext(w, h)
	dc.SetColor(e.theme.Background)
	dc.Clear()

	if f.ShowGrid && f.GridSize > 0 {
		e.drawGrid(dc, f)
	}

	scale := f.Scale
	if scale <= 0 {
		scale = 1
	}
	dc.Scale(scale, scale)

	for _, el := range f.Elements {
		e.drawElement(dc, el)
	}

	for _, el := range f.Elements {
		if f.Selected[el.ID] {
			e.drawSelection(dc, el, f.ShowHandles)
		}
	}

	if f.Preview != nil {
		e.drawPreview(dc, *f.Preview)
	}
	if len(f.StrokePoints) > 1 {
		e.drawLiveStroke(dc, f)
	}
	if f.Marquee != nil {
		e.drawMarquee(dc, *f.Marquee)
	}

	return dc
}

// drawGrid paints the grid in screen space, before the canvas scale is
// applied, so lines stay one pixel wide at every zoom level.
func (e *Engine) drawGrid(dc *gg.Context, f Frame) {
	step := float64(f.GridSize) * f.Scale
	if step < 2 {
		return // too dense to be useful
	}
	dc.SetColor(e.theme.GridLine)
	dc.SetLineWidth(1)
	for x := 0.0; x <= float64(f.Width); x += step {
		dc.DrawLine(x, 0, x, float64(f.Height))
		dc.Stroke()
	}
	for y := 0.0; y <= float64(f.Height); y += step {
		dc.DrawLine(0, y, float64(f.Width), y)
		dc.Stroke()
	}
}

func (e *Engine) drawElement(dc *gg.Context, el element.Element) {
	stroke := colorutil.Resolve(el.StrokeColor, e.theme.Variant)
	fill := colorutil.Resolve(el.FillColor, e.theme.Variant)
	lineWidth := float64(el.EffectiveStrokeWidth())

	switch el.Type {
	case element.TypeRectangle:
		dc.DrawRectangle(float64(el.X), float64(el.Y), float64(el.Width), float64(el.Height))
		if el.FillColor != "" && fill.A > 0 {
			dc.SetColor(fill)
			dc.FillPreserve()
		}
		dc.SetColor(stroke)
		dc.SetLineWidth(lineWidth)
		dc.Stroke()

	case element.TypeCircle:
		cx := float64(el.X) + float64(el.Width)/2
		cy := float64(el.Y) + float64(el.Height)/2
		dc.DrawEllipse(cx, cy, float64(el.Width)/2, float64(el.Height)/2)
		if el.FillColor != "" && fill.A > 0 {
			dc.SetColor(fill)
			dc.FillPreserve()
		}
		dc.SetColor(stroke)
		dc.SetLineWidth(lineWidth)
		dc.Stroke()

	case element.TypeLine:
		a, b := el.LineEndpoints()
		dc.SetColor(stroke)
		dc.SetLineWidth(lineWidth)
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		dc.Stroke()

	case element.TypeFreehand:
		points := el.PathPoints()
		if len(points) < 2 {
			return
		}
		dc.SetColor(stroke)
		dc.SetLineWidth(lineWidth)
		dc.SetLineCapRound()
		dc.SetLineJoinRound()
		dc.MoveTo(points[0].X, points[0].Y)
		for _, p := range points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()

	case element.TypeTextbox:
		e.drawTextbox(dc, el)

	case element.TypeImage:
		e.drawImage(dc, el)
	}
}

func (e *Engine) drawTextbox(dc *gg.Context, el element.Element) {
	x := float64(el.X)
	y := float64(el.Y)
	w := float64(el.Width)
	h := float64(el.Height)

	dc.DrawRectangle(x, y, w, h)
	dc.SetColor(e.theme.GridLine)
	dc.SetLineWidth(1)
	dc.Stroke()

	if el.TextContent == "" {
		return
	}
	face, err := e.fonts.Face(textFontSize)
	if err != nil {
		return
	}
	dc.SetFontFace(face)
	dc.SetColor(colorutil.Resolve("default", e.theme.Variant))
	dc.DrawStringWrapped(el.TextContent,
		x+textPadding, y+textPadding,
		0, 0, w-2*textPadding, 1.3, gg.AlignLeft)
}

func (e *Engine) drawImage(dc *gg.Context, el element.Element) {
	x := float64(el.X)
	y := float64(el.Y)
	w := float64(el.Width)
	h := float64(el.Height)

	var img image.Image
	if e.images != nil {
		img, _ = e.images.Image(el.ImageURL)
	}
	if img == nil {
		// Placeholder box with a diagonal cross while the image loads.
		dc.DrawRectangle(x, y, w, h)
		dc.SetColor(e.theme.GridLine)
		dc.SetLineWidth(1)
		dc.Stroke()
		dc.DrawLine(x, y, x+w, y+h)
		dc.DrawLine(x+w, y, x, y+h)
		dc.Stroke()
		return
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	dc.Push()
	dc.Translate(x, y)
	dc.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}

func (e *Engine) drawSelection(dc *gg.Context, el element.Element, showHandles bool) {
	b := el.Bounds().Expand(2)

	dc.SetColor(e.theme.Selection)
	dc.SetLineWidth(1)
	dc.SetDash(4, 3)
	dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
	dc.Stroke()
	dc.SetDash()

	if !showHandles {
		return
	}
	corners := []geometry.Point2D{
		{X: b.X, Y: b.Y},
		{X: b.X + b.Width, Y: b.Y},
		{X: b.X, Y: b.Y + b.Height},
		{X: b.X + b.Width, Y: b.Y + b.Height},
	}
	half := float64(handleSize) / 2
	for _, c := range corners {
		dc.DrawRectangle(c.X-half, c.Y-half, handleSize, handleSize)
		dc.SetColor(e.theme.Handle)
		dc.FillPreserve()
		dc.SetColor(e.theme.HandleRim)
		dc.SetLineWidth(1)
		dc.Stroke()
	}
}

func (e *Engine) drawPreview(dc *gg.Context, el element.Element) {
	dc.SetDash(6, 4)
	e.drawElement(dc, el)
	dc.SetDash()
}

func (e *Engine) drawLiveStroke(dc *gg.Context, f Frame) {
	width := f.StrokeWidth
	if width <= 0 {
		width = 2
	}
	dc.SetColor(colorutil.Resolve(f.StrokeColor, e.theme.Variant))
	dc.SetLineWidth(float64(width))
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.MoveTo(f.StrokePoints[0].X, f.StrokePoints[0].Y)
	for _, p := range f.StrokePoints[1:] {
		dc.LineTo(p.X, p.Y)
	}
	dc.Stroke()
}

func (e *Engine) drawMarquee(dc *gg.Context, r geometry.Rect) {
	dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	dc.SetColor(e.theme.MarqueeBG)
	dc.FillPreserve()
	dc.SetColor(e.theme.Marquee)
	dc.SetLineWidth(1)
	dc.SetDash(4, 3)
	dc.Stroke()
	dc.SetDash()
}
