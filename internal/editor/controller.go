// Package editor implements the interaction controller: a single-active-mode
// state machine consuming normalized pointer input and producing element
// mutations, history entries, and persistence calls.
package editor

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"notecanvas/internal/api"
	"notecanvas/internal/element"
	"notecanvas/internal/history"
	"notecanvas/pkg/geometry"
)

// Config holds the interaction tuning constants.
type Config struct {
	EraserRadius float64 // hit radius added to half the stroke width
	MinShapeSize int     // shapes smaller than this on either axis are discarded
	MinLineLen   float64 // lines shorter than this are discarded
	MinDimension int     // resize floor per axis
	GridSize     int     // grid snap quantum
	StrokePad    float64 // freehand bounding box padding
	TextDebounce time.Duration
	TextboxW     int // default textbox size for click placement
	TextboxH     int
}

// DefaultConfig returns the stock interaction constants.
func DefaultConfig() Config {
	return Config{
		EraserRadius: element.DefaultEraserRadius,
		MinShapeSize: 10,
		MinLineLen:   10,
		MinDimension: 50,
		GridSize:     20,
		StrokePad:    4,
		TextDebounce: 500 * time.Millisecond,
		TextboxW:     200,
		TextboxH:     100,
	}
}

// SelectTolerance is the hit slop for pointer-down selection.
const SelectTolerance = 4

// eraseBatch accumulates one eraser stroke or group delete so the whole
// gesture lands in history as a single grouped delete action. Each gesture
// gets its own batch and the delete completions capture it, so responses
// still in flight when the next gesture starts stay with their own stroke.
type eraseBatch struct {
	snapshots   []element.Element
	outstanding int
	finished    bool
}

// textEdit tracks a debounced in-progress text change for one textbox.
type textEdit struct {
	prev string
	next string
	deb  *Debouncer
}

// Controller drives the canvas editing state machine. All methods must be
// called on the UI goroutine; persistence runs through the injected runners.
type Controller struct {
	store   *element.Store
	history *history.Manager
	client  api.Service
	owner   element.Owner
	cfg     Config
	log     zerolog.Logger

	run      Runner // executes persistence calls (GoRunner in production)
	dispatch Runner // marshals completions back to the UI goroutine

	mode Mode
	tool Tool

	strokeColor string
	fillColor   string
	strokeWidth int
	gridSnap    bool

	selection map[int64]bool

	// Marquee selection.
	marqueeStart geometry.Point2D
	marquee      *geometry.Rect

	// Drawing.
	drawStart    geometry.Point2D
	drawCurrent  geometry.Point2D
	strokePoints []geometry.Point2D

	// Dragging.
	dragStart  geometry.Point2D
	dragDelta  geometry.Point2D
	dragOrigin map[int64]geometry.PointInt

	// Resizing.
	resizeID     int64
	resizeHandle Handle
	resizeOrig   element.Element
	resizePrev   element.Element // current preview geometry

	// Pending visual state awaiting server confirmation.
	pendingFields map[int64]element.Fields
	hidden        map[int64]bool

	erase     *eraseBatch // active eraser stroke, nil outside one
	textEdits map[int64]*textEdit

	replayBusy bool

	onRender func()
	onError  func(error)
}

// New creates a controller bound to a store, history manager, and service.
func New(store *element.Store, hist *history.Manager, client api.Service,
	owner element.Owner, cfg Config, log zerolog.Logger) *Controller {
	return &Controller{
		store:         store,
		history:       hist,
		client:        client,
		owner:         owner,
		cfg:           cfg,
		log:           log.With().Str("component", "editor").Logger(),
		run:           GoRunner,
		dispatch:      InlineRunner,
		tool:          ToolSelect,
		strokeColor:   "default",
		fillColor:     "none",
		strokeWidth:   2,
		selection:     make(map[int64]bool),
		dragOrigin:    make(map[int64]geometry.PointInt),
		pendingFields: make(map[int64]element.Fields),
		hidden:        make(map[int64]bool),
		textEdits:     make(map[int64]*textEdit),
	}
}

// SetRunners injects the task runners. Production wires GoRunner and a
// fyne.Do dispatcher; tests wire InlineRunner for both.
func (c *Controller) SetRunners(run, dispatch Runner) {
	c.run = run
	c.dispatch = dispatch
}

// OnRender sets the callback invoked after any visual state change.
func (c *Controller) OnRender(fn func()) { c.onRender = fn }

// OnError sets the callback for persistence failures. Errors never reach the
// render path.
func (c *Controller) OnError(fn func(error)) { c.onError = fn }

func (c *Controller) render() {
	if c.onRender != nil {
		c.onRender()
	}
}

func (c *Controller) fail(err error) {
	c.log.Warn().Err(err).Msg("persistence failure")
	if c.onError != nil {
		c.onError(err)
	}
}

// Mode returns the current interaction mode.
func (c *Controller) Mode() Mode { return c.mode }

// Tool returns the active tool.
func (c *Controller) Tool() Tool { return c.tool }

// SetTool switches tools. Entering a drawing tool or the eraser deselects the
// current selection and arms the next pointer-down.
func (c *Controller) SetTool(tool Tool) {
	c.tool = tool
	if tool != ToolSelect {
		c.clearSelection()
	}
	c.render()
}

// SetStrokeColor sets the abstract stroke color for new shapes.
func (c *Controller) SetStrokeColor(name string) { c.strokeColor = name }

// StrokeColor returns the stroke color applied to new elements.
func (c *Controller) StrokeColor() string { return c.strokeColor }

// SetFillColor sets the abstract fill color for new shapes.
func (c *Controller) SetFillColor(name string) { c.fillColor = name }

// FillColor returns the fill color applied to new shapes.
func (c *Controller) FillColor() string { return c.fillColor }

// SetStrokeWidth sets the stroke width for new shapes.
func (c *Controller) SetStrokeWidth(w int) { c.strokeWidth = w }

// StrokeWidth returns the stroke width applied to new shapes.
func (c *Controller) StrokeWidth() int { return c.strokeWidth }

// SetGridSnap toggles grid snapping for drag and resize.
func (c *Controller) SetGridSnap(on bool) { c.gridSnap = on }

// GridSnap reports whether grid snapping is enabled.
func (c *Controller) GridSnap() bool { return c.gridSnap }

// Config returns the binding constants the controller was built with.
func (c *Controller) Config() Config { return c.cfg }

// SelectedIDs returns the selected element ids in ascending order.
func (c *Controller) SelectedIDs() []int64 {
	ids := make([]int64, 0, len(c.selection))
	for id := range c.selection {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsSelected reports whether the element id is selected.
func (c *Controller) IsSelected(id int64) bool { return c.selection[id] }

func (c *Controller) clearSelection() {
	if len(c.selection) > 0 {
		c.selection = make(map[int64]bool)
	}
}

// ClearSelection deselects everything.
func (c *Controller) ClearSelection() {
	c.clearSelection()
	c.render()
}

// snap quantizes v to the grid when snapping is on.
func (c *Controller) snap(v float64) int {
	i := int(math.Round(v))
	if c.gridSnap && c.cfg.GridSize > 0 {
		i = int(math.Round(v/float64(c.cfg.GridSize))) * c.cfg.GridSize
	}
	if i < 0 {
		i = 0
	}
	return i
}

// PointerDown begins a gesture at a canvas-space point.
func (c *Controller) PointerDown(p geometry.Point2D) {
	if c.mode != ModeIdle || c.replayBusy {
		return
	}

	switch {
	case c.tool == ToolEraser:
		c.mode = ModeErasing
		c.erase = &eraseBatch{}
		c.eraseAt(p)

	case c.tool.IsDrawing():
		c.mode = ModeDrawing
		c.drawStart = p
		c.drawCurrent = p
		if c.tool == ToolFreehand {
			c.strokePoints = []geometry.Point2D{p}
		}

	default: // select tool
		c.pointerDownSelect(p)
	}
	c.render()
}

func (c *Controller) pointerDownSelect(p geometry.Point2D) {
	// A corner handle on the single selected element wins over dragging.
	if len(c.selection) == 1 {
		id := c.SelectedIDs()[0]
		if el, ok := c.store.Get(id); ok {
			if h := HandleAt(p, el.Bounds()); h != HandleNone {
				c.mode = ModeResizing
				c.resizeID = id
				c.resizeHandle = h
				c.resizeOrig = el
				c.resizePrev = el
				return
			}
		}
	}

	hit, ok := c.store.TopHit(p, SelectTolerance)
	if !ok {
		// Empty canvas: marquee selection.
		c.mode = ModeMarquee
		c.marqueeStart = p
		r := geometry.NewRect(p.X, p.Y, 0, 0)
		c.marquee = &r
		return
	}

	if !c.selection[hit.ID] {
		c.selection = map[int64]bool{hit.ID: true}
	}

	c.mode = ModeDragging
	c.dragStart = p
	c.dragDelta = geometry.Point2D{}
	c.dragOrigin = make(map[int64]geometry.PointInt)
	for id := range c.selection {
		if el, ok := c.store.Get(id); ok {
			c.dragOrigin[id] = geometry.PointInt{X: el.X, Y: el.Y}
		}
	}
}

// PointerMove continues the active gesture.
func (c *Controller) PointerMove(p geometry.Point2D) {
	switch c.mode {
	case ModeDrawing:
		c.drawCurrent = p
		if c.tool == ToolFreehand {
			c.strokePoints = append(c.strokePoints, p)
		}
	case ModeDragging:
		c.dragDelta = p.Sub(c.dragStart)
	case ModeResizing:
		c.resizePrev = c.resizeGeometry(p)
	case ModeMarquee:
		r := geometry.Rect{
			X:      c.marqueeStart.X,
			Y:      c.marqueeStart.Y,
			Width:  p.X - c.marqueeStart.X,
			Height: p.Y - c.marqueeStart.Y,
		}
		c.marquee = &r
	case ModeErasing:
		c.eraseAt(p)
	default:
		return
	}
	c.render()
}

// PointerUp finalizes the active gesture.
func (c *Controller) PointerUp(p geometry.Point2D) {
	switch c.mode {
	case ModeDrawing:
		c.finishDrawing(p)
	case ModeDragging:
		c.finishDragging(p)
	case ModeResizing:
		c.finishResizing(p)
	case ModeMarquee:
		c.finishMarquee()
	case ModeErasing:
		if b := c.erase; b != nil {
			c.erase = nil
			b.finished = true
			c.maybeRecordErase(b)
		}
	}
	c.mode = ModeIdle
	c.render()
}

// --- drawing ---

func (c *Controller) finishDrawing(p geometry.Point2D) {
	defer func() { c.strokePoints = nil }()

	switch c.tool {
	case ToolRectangle, ToolCircle:
		r := dragRect(c.drawStart, p)
		if r.Width < c.cfg.MinShapeSize || r.Height < c.cfg.MinShapeSize {
			return // too small, silently discarded
		}
		t := element.TypeRectangle
		if c.tool == ToolCircle {
			t = element.TypeCircle
		}
		c.submitCreate(element.Element{
			Type: t, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
			ZIndex:      c.store.MaxZ() + 1,
			StrokeColor: c.strokeColor, StrokeWidth: c.strokeWidth, FillColor: c.fillColor,
			Owner: c.owner,
		})

	case ToolLine:
		dx := p.X - c.drawStart.X
		dy := p.Y - c.drawStart.Y
		// A line may be near-flat on one axis with large extent on the other,
		// so discard by path length rather than per-axis size.
		if math.Hypot(dx, dy) < c.cfg.MinLineLen {
			return
		}
		c.submitCreate(element.Element{
			Type: element.TypeLine,
			X:    int(math.Round(c.drawStart.X)), Y: int(math.Round(c.drawStart.Y)),
			Width: int(math.Round(dx)), Height: int(math.Round(dy)),
			ZIndex:      c.store.MaxZ() + 1,
			StrokeColor: c.strokeColor, StrokeWidth: c.strokeWidth,
			Owner: c.owner,
		})

	case ToolTextbox:
		r := dragRect(c.drawStart, p)
		// Click placement gets the default size instead of being discarded.
		if r.Width < c.cfg.MinShapeSize || r.Height < c.cfg.MinShapeSize {
			r.Width = c.cfg.TextboxW
			r.Height = c.cfg.TextboxH
		}
		c.submitCreate(element.Element{
			Type: element.TypeTextbox, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
			ZIndex: c.store.MaxZ() + 1,
			Owner:  c.owner,
		})

	case ToolFreehand:
		if len(c.strokePoints) < 2 {
			return
		}
		origin, size, rel := element.NormalizeStroke(c.strokePoints, c.cfg.StrokePad)
		c.submitCreate(element.Element{
			Type: element.TypeFreehand,
			X:    int(math.Round(origin.X)), Y: int(math.Round(origin.Y)),
			Width: int(math.Ceil(size.X)), Height: int(math.Ceil(size.Y)),
			PathData:    element.EncodePath(rel),
			ZIndex:      c.store.MaxZ() + 1,
			StrokeColor: c.strokeColor, StrokeWidth: c.strokeWidth,
			Owner: c.owner,
		})
	}
}

// dragRect builds the integer rectangle between two drag points.
func dragRect(a, b geometry.Point2D) geometry.RectInt {
	r := geometry.Rect{X: a.X, Y: a.Y, Width: b.X - a.X, Height: b.Y - a.Y}.Normalized()
	return geometry.RectInt{
		X:      int(math.Round(r.X)),
		Y:      int(math.Round(r.Y)),
		Width:  int(math.Round(r.Width)),
		Height: int(math.Round(r.Height)),
	}
}

// submitCreate sends a create request; the element joins the store and the
// history log only after the server confirms it.
func (c *Controller) submitCreate(el element.Element) {
	c.run(func() {
		created, err := c.client.CreateElement(context.Background(), el)
		c.dispatch(func() {
			if err != nil {
				c.fail(err)
				return
			}
			c.store.Add(created)
			c.history.RecordCreate(created)
			c.render()
		})
	})
}

// AddElement creates a new element through the normal create path: stacked
// above everything else, owned by the session document, recorded in history
// once the server confirms it.
func (c *Controller) AddElement(el element.Element) {
	el.ID = 0
	el.ZIndex = c.store.MaxZ() + 1
	el.Owner = c.owner
	c.submitCreate(el)
}

// InsertImage uploads encoded image data and places the returned image
// element like any other create. then, if non-nil, runs on the UI goroutine
// after the element lands, so callers can prime the image cache.
func (c *Controller) InsertImage(req api.UploadRequest, then func(element.Element)) {
	req.ZIndex = c.store.MaxZ() + 1
	req.Owner = c.owner
	c.run(func() {
		created, err := c.client.UploadImage(context.Background(), req)
		c.dispatch(func() {
			if err != nil {
				c.fail(err)
				return
			}
			c.store.Add(created)
			c.history.RecordCreate(created)
			if then != nil {
				then(created)
			}
			c.render()
		})
	})
}

// --- dragging ---

// dragTarget computes the committed position of one dragged element: origin
// plus delta, grid-snapped, clamped non-negative. The same function feeds the
// drag preview so the preview and the commit always agree.
func (c *Controller) dragTarget(id int64) (geometry.PointInt, bool) {
	orig, ok := c.dragOrigin[id]
	if !ok {
		return geometry.PointInt{}, false
	}
	return geometry.PointInt{
		X: c.snap(float64(orig.X) + c.dragDelta.X),
		Y: c.snap(float64(orig.Y) + c.dragDelta.Y),
	}, true
}

func (c *Controller) finishDragging(p geometry.Point2D) {
	c.dragDelta = p.Sub(c.dragStart)

	for _, id := range c.SelectedIDs() {
		target, ok := c.dragTarget(id)
		if !ok {
			continue
		}
		orig := c.dragOrigin[id]
		if target == orig {
			continue // zero net delta, no request and no history entry
		}
		c.commitFields(id, element.Fields{X: element.Int(target.X), Y: element.Int(target.Y)})
	}

	c.dragDelta = geometry.Point2D{}
	c.dragOrigin = make(map[int64]geometry.PointInt)
}

// commitFields sends one update request for one element. The store mutates
// only on success; until then the new geometry rides as pending visual state,
// and on failure the element reverts to its last known-good values.
func (c *Controller) commitFields(id int64, next element.Fields) {
	el, ok := c.store.Get(id)
	if !ok {
		return
	}
	prev := next.Snapshot(el)
	c.pendingFields[id] = next

	c.run(func() {
		_, err := c.client.UpdateElement(context.Background(), id, next)
		c.dispatch(func() {
			delete(c.pendingFields, id)
			if err != nil {
				c.fail(err)
				c.render()
				return
			}
			c.store.Apply(id, next)
			c.history.RecordUpdate(id, prev, next)
			c.render()
		})
	})
}

// --- resizing ---

// resizeGeometry recomputes the element geometry for the current handle and
// pointer position, anchoring the opposite corner.
func (c *Controller) resizeGeometry(p geometry.Point2D) element.Element {
	el := c.resizeOrig

	if el.Type == element.TypeLine {
		return c.resizeLine(p)
	}

	px := c.snap(p.X)
	py := c.snap(p.Y)

	left := el.X
	top := el.Y
	right := el.X + el.Width
	bottom := el.Y + el.Height

	switch c.resizeHandle {
	case HandleNW:
		left, top = px, py
	case HandleNE:
		right, top = px, py
	case HandleSW:
		left, bottom = px, py
	case HandleSE:
		right, bottom = px, py
	}

	// Enforce the floor against the anchored edge.
	minDim := c.cfg.MinDimension
	if right-left < minDim {
		switch c.resizeHandle {
		case HandleNW, HandleSW:
			left = right - minDim
		default:
			right = left + minDim
		}
	}
	if bottom-top < minDim {
		switch c.resizeHandle {
		case HandleNW, HandleNE:
			top = bottom - minDim
		default:
			bottom = top + minDim
		}
	}
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}

	el.X = left
	el.Y = top
	el.Width = right - left
	el.Height = bottom - top
	return el
}

// resizeLine moves the endpoint nearest the grabbed handle, keeping the
// signed delta encoding.
func (c *Controller) resizeLine(p geometry.Point2D) element.Element {
	el := c.resizeOrig
	a, b := el.LineEndpoints()

	handlePos := c.handleCorner(el.Bounds())
	target := geometry.Point2D{X: float64(c.snap(p.X)), Y: float64(c.snap(p.Y))}

	if handlePos.Distance(a) <= handlePos.Distance(b) {
		a = target
	} else {
		b = target
	}
	if a.Distance(b) < c.cfg.MinLineLen {
		return c.resizeOrig
	}

	el.X = int(math.Round(a.X))
	el.Y = int(math.Round(a.Y))
	el.Width = int(math.Round(b.X - a.X))
	el.Height = int(math.Round(b.Y - a.Y))
	return el
}

func (c *Controller) handleCorner(bounds geometry.Rect) geometry.Point2D {
	switch c.resizeHandle {
	case HandleNW:
		return geometry.Point2D{X: bounds.X, Y: bounds.Y}
	case HandleNE:
		return geometry.Point2D{X: bounds.X + bounds.Width, Y: bounds.Y}
	case HandleSW:
		return geometry.Point2D{X: bounds.X, Y: bounds.Y + bounds.Height}
	default:
		return geometry.Point2D{X: bounds.X + bounds.Width, Y: bounds.Y + bounds.Height}
	}
}

func (c *Controller) finishResizing(p geometry.Point2D) {
	final := c.resizeGeometry(p)
	orig := c.resizeOrig
	c.resizeID = 0
	c.resizeHandle = HandleNone

	if final.X == orig.X && final.Y == orig.Y &&
		final.Width == orig.Width && final.Height == orig.Height {
		return // nothing actually changed, skip persistence and history
	}

	c.commitFields(orig.ID, element.Fields{
		X:      element.Int(final.X),
		Y:      element.Int(final.Y),
		Width:  element.Int(final.Width),
		Height: element.Int(final.Height),
	})
}

// --- marquee selection ---

func (c *Controller) finishMarquee() {
	if c.marquee == nil {
		return
	}
	ids := c.store.IntersectingIDs(c.marquee.Normalized())
	c.selection = make(map[int64]bool, len(ids))
	for _, id := range ids {
		c.selection[id] = true
	}
	c.marquee = nil
}

// --- erasing ---

// eraseAt deletes every element under the point, once per stroke.
func (c *Controller) eraseAt(p geometry.Point2D) {
	b := c.erase
	if b == nil {
		return
	}
	for _, hit := range c.store.HitsAt(p, c.cfg.EraserRadius) {
		if c.hidden[hit.ID] {
			continue // already erased within this stroke
		}
		c.hidden[hit.ID] = true
		c.deleteInto(b, hit.ID)
	}
}

// deleteInto sends one delete request whose completion settles into the
// given batch, regardless of which gesture is active when it arrives.
func (c *Controller) deleteInto(b *eraseBatch, id int64) {
	b.outstanding++
	c.run(func() {
		err := c.client.DeleteElement(context.Background(), id)
		c.dispatch(func() {
			b.outstanding--
			if err != nil {
				delete(c.hidden, id)
				c.fail(err)
			} else if snap, ok := c.store.Remove(id); ok {
				delete(c.hidden, id)
				b.snapshots = append(b.snapshots, snap)
			}
			c.maybeRecordErase(b)
			c.render()
		})
	})
}

// maybeRecordErase logs the whole stroke as one grouped delete action once
// the gesture has ended and every delete response has arrived.
func (c *Controller) maybeRecordErase(b *eraseBatch) {
	if !b.finished || b.outstanding > 0 {
		return
	}
	if len(b.snapshots) > 0 {
		c.history.RecordDelete(b.snapshots)
		b.snapshots = nil
	}
}

// DeleteSelection removes every selected element, one request each, logged as
// a single grouped delete action mirroring the eraser's batching.
func (c *Controller) DeleteSelection() {
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		return
	}
	c.clearSelection()

	b := &eraseBatch{}
	for _, id := range ids {
		if _, ok := c.store.Get(id); !ok {
			continue
		}
		c.hidden[id] = true
		c.deleteInto(b, id)
	}
	b.finished = true
	c.maybeRecordErase(b)
	c.render()
}

// ReplaceElement swaps an existing element for a new one, used when a
// freehand stroke is straightened into a recognized shape. The replacement is
// created before the original is deleted so a failure partway never loses the
// stroke. Both steps land in the history as separate undoable actions.
func (c *Controller) ReplaceElement(oldID int64, next element.Element) {
	old, ok := c.store.Get(oldID)
	if !ok {
		return
	}
	delete(c.selection, oldID)
	next.ID = 0
	next.ZIndex = old.ZIndex
	next.Owner = c.owner

	c.run(func() {
		created, createErr := c.client.CreateElement(context.Background(), next)
		var deleteErr error
		if createErr == nil {
			deleteErr = c.client.DeleteElement(context.Background(), oldID)
		}
		c.dispatch(func() {
			if createErr != nil {
				c.fail(createErr)
				return
			}
			c.store.Add(created)
			c.history.RecordCreate(created)
			if deleteErr != nil {
				c.fail(deleteErr)
			} else if snap, removed := c.store.Remove(oldID); removed {
				c.history.RecordDelete([]element.Element{snap})
			}
			c.render()
		})
	})
}

// --- text editing ---

// SetText records a debounced text change for a textbox. The update is sent
// once typing pauses; the history entry spans the whole burst.
func (c *Controller) SetText(id int64, text string) {
	edit, ok := c.textEdits[id]
	if !ok {
		el, found := c.store.Get(id)
		if !found {
			return
		}
		edit = &textEdit{prev: el.TextContent}
		edit.deb = NewDebouncer(c.cfg.TextDebounce, func() {
			c.dispatch(func() { c.flushText(id) })
		})
		c.textEdits[id] = edit
	}
	edit.next = text
	edit.deb.Trigger()
}

// FlushTextEdits commits every pending text change immediately. Called before
// undo/redo and on shutdown so the log and the server see the latest text.
func (c *Controller) FlushTextEdits() {
	for id, edit := range c.textEdits {
		edit.deb.Cancel()
		c.flushText(id)
	}
}

func (c *Controller) flushText(id int64) {
	edit, ok := c.textEdits[id]
	if !ok {
		return
	}
	delete(c.textEdits, id)
	if edit.next == edit.prev {
		return
	}

	next := element.Fields{TextContent: element.Str(edit.next)}
	prev := element.Fields{TextContent: element.Str(edit.prev)}
	c.run(func() {
		_, err := c.client.UpdateElement(context.Background(), id, next)
		c.dispatch(func() {
			if err != nil {
				c.fail(err)
				c.render()
				return
			}
			c.store.Apply(id, next)
			c.history.RecordUpdate(id, prev, next)
			c.render()
		})
	})
}

// --- undo/redo ---

// Undo replays the newest logged action in reverse. The replay talks to the
// server, so it runs on the worker runner with new gestures blocked until the
// result lands.
func (c *Controller) Undo() {
	c.replay(c.history.Undo)
}

// Redo replays the newest undone action forward.
func (c *Controller) Redo() {
	c.replay(c.history.Redo)
}

func (c *Controller) replay(op func(context.Context) error) {
	if c.replayBusy || c.mode != ModeIdle {
		return
	}
	c.FlushTextEdits()
	c.replayBusy = true
	c.run(func() {
		err := op(context.Background())
		c.dispatch(func() {
			c.replayBusy = false
			if err != nil {
				c.fail(err)
			}
			c.pruneSelection()
			c.render()
		})
	})
}

// pruneSelection drops selected ids that no longer exist after a replay.
func (c *Controller) pruneSelection() {
	for id := range c.selection {
		if _, ok := c.store.Get(id); !ok {
			delete(c.selection, id)
		}
	}
}

// --- visual state for the render engine ---

// VisualElements returns the elements in paint order with in-progress gesture
// transforms applied: dragged elements translated, the resized element
// reshaped, pending commits shown at their target geometry, and elements
// awaiting delete confirmation hidden. Pure view state; the store itself is
// untouched until the server confirms.
func (c *Controller) VisualElements() []element.Element {
	ordered := c.store.Ordered()
	out := make([]element.Element, 0, len(ordered))

	for _, el := range ordered {
		if c.hidden[el.ID] {
			continue
		}
		if f, ok := c.pendingFields[el.ID]; ok {
			f.Apply(&el)
		}
		if c.mode == ModeDragging {
			if target, ok := c.dragTarget(el.ID); ok {
				el.X = target.X
				el.Y = target.Y
			}
		}
		if c.mode == ModeResizing && el.ID == c.resizeOrig.ID {
			el = c.resizePrev
		}
		out = append(out, el)
	}
	return out
}

// Overlay is the ephemeral, never-persisted visual state layered over the
// elements: the marquee rectangle, the in-progress shape preview, and the
// live freehand stroke.
type Overlay struct {
	Marquee      *geometry.Rect
	Preview      *element.Element
	StrokePoints []geometry.Point2D
	ShowHandles  bool
}

// Overlay assembles the current overlay for the render engine. Handles are
// suppressed in drawing and erasing modes so they never intercept gestures.
func (c *Controller) Overlay() Overlay {
	ov := Overlay{
		ShowHandles: !c.tool.IsDrawing() && c.tool != ToolEraser,
	}
	if c.marquee != nil {
		r := c.marquee.Normalized()
		ov.Marquee = &r
	}
	if c.mode == ModeDrawing {
		switch c.tool {
		case ToolFreehand:
			ov.StrokePoints = c.strokePoints
		case ToolRectangle, ToolCircle, ToolLine, ToolTextbox:
			ov.Preview = c.previewElement()
		}
	}
	return ov
}

// previewElement builds the dashed preview shape between drag points.
func (c *Controller) previewElement() *element.Element {
	switch c.tool {
	case ToolLine:
		return &element.Element{
			Type: element.TypeLine,
			X:    int(math.Round(c.drawStart.X)), Y: int(math.Round(c.drawStart.Y)),
			Width:  int(math.Round(c.drawCurrent.X - c.drawStart.X)),
			Height: int(math.Round(c.drawCurrent.Y - c.drawStart.Y)),
			StrokeColor: c.strokeColor, StrokeWidth: c.strokeWidth,
		}
	default:
		r := dragRect(c.drawStart, c.drawCurrent)
		t := element.TypeRectangle
		switch c.tool {
		case ToolCircle:
			t = element.TypeCircle
		case ToolTextbox:
			t = element.TypeTextbox
		}
		return &element.Element{
			Type: t, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
			StrokeColor: c.strokeColor, StrokeWidth: c.strokeWidth,
		}
	}
}
