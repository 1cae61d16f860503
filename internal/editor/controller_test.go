package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecanvas/internal/api"
	"notecanvas/internal/element"
	"notecanvas/internal/history"
	"notecanvas/pkg/geometry"
)

// fakeService records calls and assigns ids in order.
type fakeService struct {
	nextID     int64
	created    []element.Element
	updates    map[int64][]element.Fields
	deleted    []int64
	uploads    []api.UploadRequest
	failUpdate bool
	failDelete bool
}

func newFakeService() *fakeService {
	return &fakeService{nextID: 100, updates: make(map[int64][]element.Fields)}
}

func (f *fakeService) CreateElement(_ context.Context, el element.Element) (element.Element, error) {
	f.nextID++
	el.ID = f.nextID
	f.created = append(f.created, el)
	return el, nil
}

func (f *fakeService) UpdateElement(_ context.Context, id int64, fields element.Fields) (element.Element, error) {
	if f.failUpdate {
		return element.Element{}, errors.New("update refused")
	}
	f.updates[id] = append(f.updates[id], fields)
	return element.Element{ID: id}, nil
}

func (f *fakeService) DeleteElement(_ context.Context, id int64) error {
	if f.failDelete {
		return errors.New("delete refused")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeService) UndeleteElement(_ context.Context, id int64) (element.Element, error) {
	return element.Element{ID: id}, nil
}

func (f *fakeService) UploadImage(_ context.Context, req api.UploadRequest) (element.Element, error) {
	f.nextID++
	f.uploads = append(f.uploads, req)
	return element.Element{
		ID: f.nextID, Type: element.TypeImage,
		X: req.X, Y: req.Y, Width: req.Width, Height: req.Height,
		ZIndex: req.ZIndex, ImageURL: "/media/" + req.Filename, Owner: req.Owner,
	}, nil
}

func newTestController(svc *fakeService) (*Controller, *element.Store, *history.Manager) {
	store := element.NewStore()
	hist := history.NewManager(store, svc)
	c := New(store, hist, svc, element.Owner{NoteID: 7}, DefaultConfig(), zerolog.Nop())
	c.SetRunners(InlineRunner, InlineRunner)
	return c, store, hist
}

func pt(x, y float64) geometry.Point2D { return geometry.Point2D{X: x, Y: y} }

func seed(store *element.Store, id int64, t element.Type, x, y, w, h int) element.Element {
	el := element.Element{ID: id, Type: t, X: x, Y: y, Width: w, Height: h,
		ZIndex: int(id), Owner: element.Owner{NoteID: 7}}
	store.Add(el)
	return el
}

func TestDrawRectangle(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)

	c.SetTool(ToolRectangle)
	c.PointerDown(pt(10, 10))
	c.PointerMove(pt(60, 40))
	c.PointerUp(pt(100, 80))

	require.Len(t, svc.created, 1)
	el := svc.created[0]
	assert.Equal(t, element.TypeRectangle, el.Type)
	assert.Equal(t, 10, el.X)
	assert.Equal(t, 10, el.Y)
	assert.Equal(t, 90, el.Width)
	assert.Equal(t, 70, el.Height)
	assert.Equal(t, int64(7), el.NoteID)
	assert.Equal(t, 1, store.Len())
}

func TestDrawRectangleReversedDrag(t *testing.T) {
	svc := newFakeService()
	c, _, _ := newTestController(svc)

	c.SetTool(ToolRectangle)
	c.PointerDown(pt(100, 80))
	c.PointerUp(pt(10, 10))

	require.Len(t, svc.created, 1)
	el := svc.created[0]
	assert.Equal(t, 10, el.X)
	assert.Equal(t, 90, el.Width)
}

func TestTinyShapeDiscarded(t *testing.T) {
	svc := newFakeService()
	c, store, hist := newTestController(svc)

	c.SetTool(ToolRectangle)
	c.PointerDown(pt(10, 10))
	c.PointerUp(pt(15, 100)) // 5 wide, tall: still discarded

	assert.Empty(t, svc.created)
	assert.Equal(t, 0, store.Len())
	assert.False(t, hist.CanUndo())
}

func TestShortLineDiscardedLongFlatLineKept(t *testing.T) {
	svc := newFakeService()
	c, _, _ := newTestController(svc)
	c.SetTool(ToolLine)

	c.PointerDown(pt(0, 0))
	c.PointerUp(pt(6, 6)) // length ~8.5
	assert.Empty(t, svc.created)

	// Flat on one axis but long on the other survives the length check.
	c.PointerDown(pt(0, 0))
	c.PointerUp(pt(120, 2))
	require.Len(t, svc.created, 1)
	assert.Equal(t, element.TypeLine, svc.created[0].Type)
	assert.Equal(t, 120, svc.created[0].Width)
	assert.Equal(t, 2, svc.created[0].Height)
}

func TestTextboxClickGetsDefaultSize(t *testing.T) {
	svc := newFakeService()
	c, _, _ := newTestController(svc)

	c.SetTool(ToolTextbox)
	c.PointerDown(pt(50, 50))
	c.PointerUp(pt(51, 51))

	require.Len(t, svc.created, 1)
	assert.Equal(t, 200, svc.created[0].Width)
	assert.Equal(t, 100, svc.created[0].Height)
}

func TestFreehandStroke(t *testing.T) {
	svc := newFakeService()
	c, _, _ := newTestController(svc)

	c.SetTool(ToolFreehand)
	c.PointerDown(pt(20, 20))
	c.PointerMove(pt(40, 30))
	c.PointerMove(pt(60, 20))
	c.PointerUp(pt(60, 20))

	require.Len(t, svc.created, 1)
	el := svc.created[0]
	assert.Equal(t, element.TypeFreehand, el.Type)
	assert.Equal(t, 16, el.X) // min minus 4px pad
	assert.Equal(t, 16, el.Y)
	assert.NotEmpty(t, el.PathData)
	points := element.DecodePath(el.PathData)
	assert.Len(t, points, 3)
}

func TestFreehandSinglePointDiscarded(t *testing.T) {
	svc := newFakeService()
	c, _, _ := newTestController(svc)

	c.SetTool(ToolFreehand)
	c.PointerDown(pt(20, 20))
	c.PointerUp(pt(20, 20))

	assert.Empty(t, svc.created)
}

func TestZIndexStacksAboveExisting(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 0, 0, 50, 50)
	seed(store, 2, element.TypeRectangle, 0, 0, 50, 50)

	c.SetTool(ToolRectangle)
	c.PointerDown(pt(200, 200))
	c.PointerUp(pt(300, 300))

	require.Len(t, svc.created, 1)
	assert.Equal(t, 3, svc.created[0].ZIndex)
}

func TestSelectAndDragCommitsUpdate(t *testing.T) {
	svc := newFakeService()
	c, store, hist := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 100, 100, 80, 60)

	c.PointerDown(pt(140, 130))
	assert.Equal(t, ModeDragging, c.Mode())
	assert.True(t, c.IsSelected(1))

	c.PointerMove(pt(160, 140))
	c.PointerUp(pt(170, 145))

	require.Len(t, svc.updates[1], 1)
	f := svc.updates[1][0]
	assert.Equal(t, 130, *f.X)
	assert.Equal(t, 115, *f.Y)

	el, _ := store.Get(1)
	assert.Equal(t, 130, el.X)
	assert.True(t, hist.CanUndo())
}

func TestZeroDeltaDragSkipsPersistence(t *testing.T) {
	svc := newFakeService()
	c, _, hist := newTestController(svc)
	seed(c.store, 1, element.TypeRectangle, 100, 100, 80, 60)

	c.PointerDown(pt(140, 130))
	c.PointerUp(pt(140, 130))

	assert.Empty(t, svc.updates)
	assert.False(t, hist.CanUndo())
}

func TestMultiDragOneUpdatePerElement(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 0, 0, 50, 50)
	seed(store, 2, element.TypeCircle, 200, 0, 50, 50)

	// Marquee both, then drag by grabbing one member.
	c.PointerDown(pt(-10, -10))
	c.PointerMove(pt(260, 60))
	c.PointerUp(pt(260, 60))
	assert.Equal(t, []int64{1, 2}, c.SelectedIDs())

	c.PointerDown(pt(25, 25))
	c.PointerUp(pt(55, 65))

	require.Len(t, svc.updates[1], 1)
	require.Len(t, svc.updates[2], 1)
	assert.Equal(t, 30, *svc.updates[1][0].X)
	assert.Equal(t, 230, *svc.updates[2][0].X)
}

func TestDragFailureRevertsVisualState(t *testing.T) {
	svc := newFakeService()
	svc.failUpdate = true
	c, store, hist := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 100, 100, 80, 60)

	var failed error
	c.OnError(func(err error) { failed = err })

	c.PointerDown(pt(140, 130))
	c.PointerUp(pt(240, 130))

	el, _ := store.Get(1)
	assert.Equal(t, 100, el.X)
	assert.Error(t, failed)
	assert.False(t, hist.CanUndo())

	for _, vel := range c.VisualElements() {
		if vel.ID == 1 {
			assert.Equal(t, 100, vel.X)
		}
	}
}

func TestGridSnapDrag(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 100, 100, 80, 60)
	c.SetGridSnap(true)

	c.PointerDown(pt(140, 130))
	c.PointerUp(pt(153, 139)) // delta (13, 9) -> target (113, 109) -> snapped (120, 100)

	require.Len(t, svc.updates[1], 1)
	assert.Equal(t, 120, *svc.updates[1][0].X)
	assert.Equal(t, 100, *svc.updates[1][0].Y)
}

func TestDragClampsAtOrigin(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 10, 10, 80, 60)

	c.PointerDown(pt(50, 40))
	c.PointerUp(pt(-100, -100))

	require.Len(t, svc.updates[1], 1)
	assert.Equal(t, 0, *svc.updates[1][0].X)
	assert.Equal(t, 0, *svc.updates[1][0].Y)
}

func TestMarqueePartialOverlapSelects(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 0, 0, 50, 50)
	seed(store, 2, element.TypeRectangle, 300, 300, 50, 50)

	c.PointerDown(pt(400, 400))
	c.PointerMove(pt(320, 320)) // clips only a corner of element 2
	c.PointerUp(pt(320, 320))

	assert.Equal(t, []int64{2}, c.SelectedIDs())
}

func TestResizeEnforcesFloor(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 100, 100, 200, 200)

	c.PointerDown(pt(150, 150))
	c.PointerUp(pt(150, 150)) // select without moving

	// Grab the SE handle and collapse past the minimum.
	c.PointerDown(pt(300, 300))
	assert.Equal(t, ModeResizing, c.Mode())
	c.PointerUp(pt(110, 110))

	require.Len(t, svc.updates[1], 1)
	f := svc.updates[1][0]
	assert.Equal(t, 100, *f.X)
	assert.Equal(t, 50, *f.Width)
	assert.Equal(t, 50, *f.Height)
}

func TestResizeNoChangeSkipsPersistence(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 100, 100, 200, 200)

	c.PointerDown(pt(150, 150))
	c.PointerUp(pt(150, 150))
	c.PointerDown(pt(300, 300))
	c.PointerUp(pt(300, 300))

	assert.Empty(t, svc.updates)
}

func TestEraserStrokeGroupsOneAction(t *testing.T) {
	svc := newFakeService()
	c, store, hist := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 0, 0, 50, 50)
	seed(store, 2, element.TypeRectangle, 100, 0, 50, 50)
	seed(store, 3, element.TypeRectangle, 200, 0, 50, 50)

	c.SetTool(ToolEraser)
	c.PointerDown(pt(25, 25))
	c.PointerMove(pt(125, 25))
	c.PointerMove(pt(225, 25))
	c.PointerUp(pt(225, 25))

	assert.Equal(t, 0, store.Len())
	assert.ElementsMatch(t, []int64{1, 2, 3}, svc.deleted)

	// One undo brings all three back.
	require.True(t, hist.CanUndo())
	require.NoError(t, hist.Undo(context.Background()))
	assert.Equal(t, 3, store.Len())
	assert.False(t, hist.CanUndo())
}

func TestEraserMissesNothingDeleted(t *testing.T) {
	svc := newFakeService()
	c, store, hist := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 0, 0, 50, 50)

	c.SetTool(ToolEraser)
	c.PointerDown(pt(500, 500))
	c.PointerUp(pt(500, 500))

	assert.Equal(t, 1, store.Len())
	assert.False(t, hist.CanUndo())
}

func TestEraserLineUsesSegmentDistance(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	// Diagonal line: its bounding box center is far from the segment.
	seed(store, 1, element.TypeLine, 0, 0, 200, 200)

	c.SetTool(ToolEraser)
	// Near the box center but 70px off the diagonal: no hit.
	c.PointerDown(pt(50, 150))
	c.PointerUp(pt(50, 150))
	assert.Equal(t, 1, store.Len())

	// On the diagonal: hit.
	c.PointerDown(pt(100, 100))
	c.PointerUp(pt(100, 100))
	assert.Equal(t, 0, store.Len())
}

// queuedRunner holds tasks until drained, standing in for network latency.
type queuedRunner struct {
	tasks []func()
}

func (q *queuedRunner) Run(task func()) { q.tasks = append(q.tasks, task) }

func (q *queuedRunner) Drain() {
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		task()
	}
}

func TestEraserStrokesKeepSeparateBatchesUnderLateResponses(t *testing.T) {
	svc := newFakeService()
	c, store, hist := newTestController(svc)
	q := &queuedRunner{}
	c.SetRunners(q.Run, InlineRunner)
	seed(store, 1, element.TypeRectangle, 0, 0, 50, 50)
	seed(store, 2, element.TypeRectangle, 200, 0, 50, 50)

	// Two strokes back to back; no delete response arrives until both ended.
	c.SetTool(ToolEraser)
	c.PointerDown(pt(25, 25))
	c.PointerUp(pt(25, 25))
	c.PointerDown(pt(225, 25))
	c.PointerUp(pt(225, 25))
	q.Drain()

	assert.Equal(t, 0, store.Len())
	assert.ElementsMatch(t, []int64{1, 2}, svc.deleted)

	// Each stroke logged its own grouped delete; undoing all history brings
	// both elements back.
	for hist.CanUndo() {
		require.NoError(t, hist.Undo(context.Background()))
	}
	assert.Equal(t, 2, store.Len())
}

func TestDeleteSelectionGroups(t *testing.T) {
	svc := newFakeService()
	c, store, hist := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 0, 0, 50, 50)
	seed(store, 2, element.TypeRectangle, 100, 0, 50, 50)

	c.PointerDown(pt(-10, -10))
	c.PointerMove(pt(200, 100))
	c.PointerUp(pt(200, 100))
	require.Equal(t, []int64{1, 2}, c.SelectedIDs())

	c.DeleteSelection()

	assert.Equal(t, 0, store.Len())
	assert.Empty(t, c.SelectedIDs())
	require.NoError(t, hist.Undo(context.Background()))
	assert.Equal(t, 2, store.Len())
}

func TestSetToolDeselects(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 0, 0, 50, 50)

	c.PointerDown(pt(25, 25))
	c.PointerUp(pt(25, 25))
	require.True(t, c.IsSelected(1))

	c.SetTool(ToolFreehand)
	assert.Empty(t, c.SelectedIDs())
}

func TestTextDebounceCoalesces(t *testing.T) {
	svc := newFakeService()
	c, store, hist := newTestController(svc)
	seed(store, 1, element.TypeTextbox, 0, 0, 200, 100)

	c.SetText(1, "h")
	c.SetText(1, "he")
	c.SetText(1, "hello")
	assert.Empty(t, svc.updates) // still pending

	c.FlushTextEdits()

	require.Len(t, svc.updates[1], 1)
	assert.Equal(t, "hello", *svc.updates[1][0].TextContent)
	el, _ := store.Get(1)
	assert.Equal(t, "hello", el.TextContent)
	assert.True(t, hist.CanUndo())
}

func TestTextUnchangedSkipsPersistence(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	seed(store, 1, element.TypeTextbox, 0, 0, 200, 100)

	c.SetText(1, "same")
	c.SetText(1, "")
	c.FlushTextEdits()

	assert.Empty(t, svc.updates)
}

func TestUndoRedoThroughController(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)

	c.SetTool(ToolRectangle)
	c.PointerDown(pt(10, 10))
	c.PointerUp(pt(100, 100))
	require.Equal(t, 1, store.Len())

	c.Undo()
	assert.Equal(t, 0, store.Len())
	c.Redo()
	assert.Equal(t, 1, store.Len())
}

func TestUndoPrunesSelection(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)

	c.SetTool(ToolRectangle)
	c.PointerDown(pt(10, 10))
	c.PointerUp(pt(100, 100))

	c.SetTool(ToolSelect)
	id := store.All()[0].ID
	c.PointerDown(pt(50, 50))
	c.PointerUp(pt(50, 50))
	require.True(t, c.IsSelected(id))

	c.Undo()
	assert.Empty(t, c.SelectedIDs())
}

func TestOverlayPreviewWhileDrawing(t *testing.T) {
	svc := newFakeService()
	c, _, _ := newTestController(svc)

	c.SetTool(ToolCircle)
	c.PointerDown(pt(10, 10))
	c.PointerMove(pt(110, 60))

	ov := c.Overlay()
	require.NotNil(t, ov.Preview)
	assert.Equal(t, element.TypeCircle, ov.Preview.Type)
	assert.Equal(t, 100, ov.Preview.Width)
	assert.False(t, ov.ShowHandles)
}

func TestVisualElementsTranslateDuringDrag(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 100, 100, 80, 60)

	c.PointerDown(pt(140, 130))
	c.PointerMove(pt(190, 130))

	els := c.VisualElements()
	require.Len(t, els, 1)
	assert.Equal(t, 150, els[0].X)
	assert.Equal(t, 100, els[0].Y)

	el, _ := store.Get(1)
	assert.Equal(t, 100, el.X) // store untouched until commit
	c.PointerUp(pt(190, 130))
}

func TestAddElementStacksAndRecords(t *testing.T) {
	svc := newFakeService()
	c, store, hist := newTestController(svc)
	seed(store, 1, element.TypeRectangle, 0, 0, 50, 50)

	c.AddElement(element.Element{
		Type: element.TypeTextbox, X: 300, Y: 40, Width: 200, Height: 100,
		TextContent: "extracted",
	})

	require.Len(t, svc.created, 1)
	assert.Equal(t, element.TypeTextbox, svc.created[0].Type)
	assert.Equal(t, int64(7), svc.created[0].NoteID)
	assert.Equal(t, 2, svc.created[0].ZIndex)

	created, ok := store.Get(101)
	require.True(t, ok)
	assert.Equal(t, "extracted", created.TextContent)
	assert.True(t, hist.CanUndo())
}

func TestReplaceElementSwapsStrokeForShape(t *testing.T) {
	svc := newFakeService()
	c, store, _ := newTestController(svc)
	stroke := element.Element{
		ID: 9, Type: element.TypeFreehand, X: 20, Y: 20, Width: 100, Height: 80,
		PathData: element.EncodePath([]geometry.Point2D{{X: 0, Y: 0}, {X: 50, Y: 40}}),
		ZIndex:   3, Owner: element.Owner{NoteID: 7},
	}
	store.Add(stroke)

	c.ReplaceElement(9, element.Element{
		Type: element.TypeRectangle, X: 20, Y: 20, Width: 100, Height: 80,
	})

	_, oldExists := store.Get(9)
	assert.False(t, oldExists)
	assert.Equal(t, []int64{9}, svc.deleted)

	require.Len(t, svc.created, 1)
	assert.Equal(t, element.TypeRectangle, svc.created[0].Type)
	assert.Equal(t, 3, svc.created[0].ZIndex) // keeps the stroke's paint order

	shape, ok := store.Get(101)
	require.True(t, ok)
	assert.Equal(t, element.TypeRectangle, shape.Type)
}

func TestReplaceElementKeepsStrokeOnDeleteFailure(t *testing.T) {
	svc := newFakeService()
	svc.failDelete = true
	c, store, _ := newTestController(svc)
	seed(store, 9, element.TypeFreehand, 20, 20, 100, 80)

	var failed error
	c.OnError(func(err error) { failed = err })

	c.ReplaceElement(9, element.Element{Type: element.TypeLine, X: 20, Y: 20, Width: 100, Height: 80})

	// The replacement landed but the stroke survives the refused delete.
	_, oldExists := store.Get(9)
	assert.True(t, oldExists)
	_, newExists := store.Get(101)
	assert.True(t, newExists)
	require.Error(t, failed)
}

func TestInsertImagePlacesUpload(t *testing.T) {
	svc := newFakeService()
	c, store, hist := newTestController(svc)

	var primed element.Element
	c.InsertImage(api.UploadRequest{
		Filename: "photo.png", Data: []byte{1, 2, 3},
		X: 80, Y: 80, Width: 320, Height: 240,
	}, func(created element.Element) { primed = created })

	require.Len(t, svc.uploads, 1)
	assert.Equal(t, int64(7), svc.uploads[0].Owner.NoteID)
	assert.Equal(t, 1, svc.uploads[0].ZIndex)

	img, ok := store.Get(101)
	require.True(t, ok)
	assert.Equal(t, element.TypeImage, img.Type)
	assert.Equal(t, "/media/photo.png", img.ImageURL)
	assert.Equal(t, img.ID, primed.ID)
	assert.True(t, hist.CanUndo())
}
