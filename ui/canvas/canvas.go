// Package canvas provides the interactive editing surface with pan, zoom,
// and in-place text editing.
package canvas

import (
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"notecanvas/internal/app"
	"notecanvas/internal/editor"
	"notecanvas/internal/element"
	"notecanvas/internal/render"
	"notecanvas/pkg/geometry"
)

// EditorCanvas is the scrollable editing surface. Pointer gestures are
// converted to canvas-space points and fed to the session's controller; the
// raster redraws from the controller's visual state on every change.
type EditorCanvas struct {
	widget.BaseWidget

	session *app.Session
	engine  *render.Engine

	raster  *fynecanvas.Raster
	surface *gestureSurface
	scroll  *zoomScroll
	root    *fyne.Container

	// Logical (already zoomed) size of the editing surface.
	surfaceSize fyne.Size

	// In-place textbox editing.
	editEntry *textEntry
	editLayer *fyne.Container
	editingID int64

	lastViewSize fyne.Size
}

// NewEditorCanvas creates the editing surface for a session.
func NewEditorCanvas(session *app.Session, engine *render.Engine) *EditorCanvas {
	ec := &EditorCanvas{
		session:     session,
		engine:      engine,
		surfaceSize: fyne.NewSize(800, 600),
	}

	ec.raster = fynecanvas.NewRaster(ec.draw)
	ec.raster.ScaleMode = fynecanvas.ImageScalePixels
	ec.raster.SetMinSize(ec.surfaceSize)

	ec.surface = newGestureSurface(ec, ec.raster)
	ec.scroll = newZoomScroll(ec.surface, ec)

	ec.editEntry = newTextEntry(ec)
	ec.editEntry.Hide()
	ec.editLayer = container.NewWithoutLayout(ec.editEntry)
	ec.root = container.NewStack(ec.scroll, ec.editLayer)

	session.On(app.EventElementsChanged, func(interface{}) {
		ec.updateSurfaceSize()
		ec.Refresh()
	})
	session.On(app.EventZoomChanged, func(interface{}) {
		ec.FinishTextEdit()
		ec.updateSurfaceSize()
		ec.Refresh()
	})
	session.On(app.EventGridToggled, func(interface{}) { ec.Refresh() })
	session.On(app.EventThemeChanged, func(data interface{}) {
		if th, ok := data.(render.Theme); ok {
			ec.engine.SetTheme(th)
		}
		ec.Refresh()
	})
	session.On(app.EventToolChanged, func(interface{}) { ec.FinishTextEdit() })

	ec.ExtendBaseWidget(ec)
	return ec
}

// Refresh redraws the surface.
func (ec *EditorCanvas) Refresh() {
	ec.raster.Refresh()
}

// toCanvas converts a pointer position to canvas space. Event positions are
// viewport relative, so the scroll offset is folded in before unscaling.
func (ec *EditorCanvas) toCanvas(pos fyne.Position) geometry.Point2D {
	off := ec.scroll.Offset()
	return ec.session.Viewport.ToCanvas(
		geometry.Point2D{X: float64(pos.X), Y: float64(pos.Y)},
		geometry.Point2D{},
		geometry.Point2D{X: float64(off.X), Y: float64(off.Y)},
	)
}

// updateSurfaceSize grows the surface to contain every element plus padding
// so nothing becomes unreachable at any zoom level.
func (ec *EditorCanvas) updateSurfaceSize() {
	view := ec.scroll.Size()
	if view.Width <= 0 || view.Height <= 0 {
		return
	}
	scale := ec.session.Viewport.Scale()
	w, h := ec.session.Viewport.SurfaceSize(
		float64(view.Width), float64(view.Height), ec.session.Store.Bounds())

	size := fyne.NewSize(float32(w*scale), float32(h*scale))
	if size == ec.surfaceSize {
		return
	}
	ec.surfaceSize = size
	ec.raster.SetMinSize(size)
	ec.raster.Resize(size)
	ec.surface.Resize(size)
	ec.scroll.Refresh()
}

// draw is the raster drawing function. The raster reports device pixels,
// which on a high-DPI screen exceed the logical size, so the frame scale
// folds the device ratio into the zoom.
func (ec *EditorCanvas) draw(w, h int) image.Image {
	scale := ec.session.Viewport.Scale()
	if lw := float64(ec.surfaceSize.Width); lw > 0 && w > 0 {
		scale *= float64(w) / lw
	}

	ctrl := ec.session.Editor
	selected := make(map[int64]bool)
	for _, id := range ctrl.SelectedIDs() {
		selected[id] = true
	}
	ov := ctrl.Overlay()

	return ec.engine.Render(render.Frame{
		Elements:     ctrl.VisualElements(),
		Selected:     selected,
		Marquee:      ov.Marquee,
		Preview:      ov.Preview,
		StrokePoints: ov.StrokePoints,
		StrokeColor:  ctrl.StrokeColor(),
		StrokeWidth:  ctrl.StrokeWidth(),
		ShowHandles:  ov.ShowHandles,
		Scale:        scale,
		Width:        w,
		Height:       h,
		ShowGrid:     ec.session.ShowGrid(),
		GridSize:     ctrl.Config().GridSize,
	})
}

// BeginTextEdit opens the in-place entry over a textbox element.
func (ec *EditorCanvas) BeginTextEdit(el element.Element) {
	if el.Type != element.TypeTextbox {
		return
	}
	ec.FinishTextEdit()
	ec.editingID = el.ID

	scale := ec.session.Viewport.Scale()
	off := ec.scroll.Offset()
	pos := fyne.NewPos(
		float32(float64(el.X)*scale)-off.X,
		float32(float64(el.Y)*scale)-off.Y,
	)
	size := fyne.NewSize(
		float32(float64(el.Width)*scale),
		float32(float64(el.Height)*scale),
	)

	ec.editEntry.SetText(el.TextContent)
	ec.editEntry.Move(pos)
	ec.editEntry.Resize(size)
	ec.editEntry.Show()
	if c := fyne.CurrentApp().Driver().CanvasForObject(ec.editEntry); c != nil {
		c.Focus(ec.editEntry)
	}
}

// FinishTextEdit commits any pending text change and hides the entry.
func (ec *EditorCanvas) FinishTextEdit() {
	if ec.editingID == 0 {
		return
	}
	ec.editingID = 0
	ec.session.Editor.FlushTextEdits()
	ec.editEntry.Hide()
	ec.Refresh()
}

// TextEditing reports whether the in-place entry is open, so keyboard
// shortcuts like Delete stay out of the way while typing.
func (ec *EditorCanvas) TextEditing() bool {
	return ec.editingID != 0
}

// textEntry is a multiline entry that forwards edits to the controller and
// closes on Escape.
type textEntry struct {
	widget.Entry
	canvas *EditorCanvas
}

func newTextEntry(ec *EditorCanvas) *textEntry {
	e := &textEntry{canvas: ec}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapWord
	e.OnChanged = func(text string) {
		if ec.editingID != 0 {
			ec.session.Editor.SetText(ec.editingID, text)
		}
	}
	e.ExtendBaseWidget(e)
	return e
}

func (e *textEntry) TypedKey(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyEscape {
		e.canvas.FinishTextEdit()
		return
	}
	e.Entry.TypedKey(ev)
}

func (e *textEntry) FocusLost() {
	e.Entry.FocusLost()
	e.canvas.FinishTextEdit()
}

// gestureSurface wraps the raster and translates Fyne pointer events into
// the controller's down/move/up gesture protocol.
type gestureSurface struct {
	widget.BaseWidget
	canvas *EditorCanvas
	raster *fynecanvas.Raster

	dragging bool
	lastPos  fyne.Position
}

func newGestureSurface(ec *EditorCanvas, raster *fynecanvas.Raster) *gestureSurface {
	gs := &gestureSurface{canvas: ec, raster: raster}
	gs.ExtendBaseWidget(gs)
	return gs
}

func (gs *gestureSurface) CreateRenderer() fyne.WidgetRenderer {
	return &gestureSurfaceRenderer{surface: gs}
}

func (gs *gestureSurface) MinSize() fyne.Size {
	return gs.raster.MinSize()
}

// Dragged drives drawing, dragging, resizing, marquee, and erasing. The
// first event opens the gesture at the pre-drag position so short drags
// still anchor where the button went down.
func (gs *gestureSurface) Dragged(ev *fyne.DragEvent) {
	ctrl := gs.canvas.session.Editor
	if !gs.dragging {
		gs.dragging = true
		gs.canvas.FinishTextEdit()
		start := fyne.NewPos(ev.Position.X-ev.Dragged.DX, ev.Position.Y-ev.Dragged.DY)
		ctrl.PointerDown(gs.canvas.toCanvas(start))
	}
	gs.lastPos = ev.Position
	ctrl.PointerMove(gs.canvas.toCanvas(ev.Position))
	gs.canvas.Refresh()
}

func (gs *gestureSurface) DragEnd() {
	if !gs.dragging {
		return
	}
	gs.dragging = false
	gs.canvas.session.Editor.PointerUp(gs.canvas.toCanvas(gs.lastPos))
	gs.canvas.Refresh()
}

// Tapped handles clicks without movement: selection, textbox placement, and
// single-spot erasing all run a full down/up at one point.
func (gs *gestureSurface) Tapped(ev *fyne.PointEvent) {
	// Reject positions outside the widget, which Fyne sometimes delivers
	// after focus changes.
	size := gs.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	gs.canvas.FinishTextEdit()

	ctrl := gs.canvas.session.Editor
	p := gs.canvas.toCanvas(ev.Position)
	ctrl.PointerDown(p)
	ctrl.PointerUp(p)
	gs.canvas.Refresh()
}

// DoubleTapped opens in-place editing for the textbox under the pointer.
func (gs *gestureSurface) DoubleTapped(ev *fyne.PointEvent) {
	ctrl := gs.canvas.session.Editor
	if ctrl.Tool() != editor.ToolSelect {
		return
	}
	p := gs.canvas.toCanvas(ev.Position)
	el, ok := gs.canvas.session.Store.TopHit(p, editor.SelectTolerance)
	if !ok || el.Type != element.TypeTextbox {
		return
	}
	gs.canvas.BeginTextEdit(el)
}

func (gs *gestureSurface) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		gs.canvas.session.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		gs.canvas.session.ZoomOut()
	}
}

type gestureSurfaceRenderer struct {
	surface *gestureSurface
}

func (r *gestureSurfaceRenderer) Layout(size fyne.Size) {
	r.surface.raster.Resize(size)
}

func (r *gestureSurfaceRenderer) MinSize() fyne.Size {
	return r.surface.raster.MinSize()
}

func (r *gestureSurfaceRenderer) Refresh() {
	r.surface.raster.Refresh()
}

func (r *gestureSurfaceRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.surface.raster}
}

func (r *gestureSurfaceRenderer) Destroy() {}

// zoomScroll wraps a scroll container but routes the wheel to zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *EditorCanvas
}

func newZoomScroll(content fyne.CanvasObject, ec *EditorCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: ec}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.session.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.session.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

// Size returns the scroll container's size.
func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// CreateRenderer implements fyne.Widget.
func (ec *EditorCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &editorCanvasRenderer{canvas: ec}
}

type editorCanvasRenderer struct {
	canvas *EditorCanvas
}

func (r *editorCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.root.Resize(size)
	if size != r.canvas.lastViewSize && size.Width > 0 && size.Height > 0 {
		r.canvas.lastViewSize = size
		r.canvas.updateSurfaceSize()
	}
}

func (r *editorCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *editorCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *editorCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.root}
}

func (r *editorCanvasRenderer) Destroy() {}
