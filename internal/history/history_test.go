package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecanvas/internal/element"
)

// fakeRemote simulates the element service with soft deletion, so undelete
// works until a record is marked permanently removed.
type fakeRemote struct {
	nextID    int64
	live      map[int64]element.Element
	trashed   map[int64]element.Element
	permanent map[int64]bool

	failUpdate   bool
	failDelete   map[int64]bool
	createCalls  int
	deleteCalls  int
	undeleteCall int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		nextID:     100,
		live:       make(map[int64]element.Element),
		trashed:    make(map[int64]element.Element),
		permanent:  make(map[int64]bool),
		failDelete: make(map[int64]bool),
	}
}

func (f *fakeRemote) CreateElement(_ context.Context, el element.Element) (element.Element, error) {
	f.createCalls++
	f.nextID++
	el.ID = f.nextID
	f.live[el.ID] = el
	return el, nil
}

func (f *fakeRemote) UpdateElement(_ context.Context, id int64, fields element.Fields) (element.Element, error) {
	if f.failUpdate {
		return element.Element{}, fmt.Errorf("service unavailable")
	}
	el, ok := f.live[id]
	if !ok {
		return element.Element{}, fmt.Errorf("element %d not found", id)
	}
	fields.Apply(&el)
	f.live[id] = el
	return el, nil
}

func (f *fakeRemote) DeleteElement(_ context.Context, id int64) error {
	f.deleteCalls++
	if f.failDelete[id] {
		return fmt.Errorf("delete %d failed", id)
	}
	el, ok := f.live[id]
	if !ok {
		return fmt.Errorf("element %d not found", id)
	}
	delete(f.live, id)
	f.trashed[id] = el
	return nil
}

func (f *fakeRemote) UndeleteElement(_ context.Context, id int64) (element.Element, error) {
	f.undeleteCall++
	if f.permanent[id] {
		return element.Element{}, fmt.Errorf("element %d permanently removed", id)
	}
	el, ok := f.trashed[id]
	if !ok {
		return element.Element{}, fmt.Errorf("element %d not in trash", id)
	}
	delete(f.trashed, id)
	f.live[id] = el
	return el, nil
}

func newManager(t *testing.T) (*Manager, *element.Store, *fakeRemote) {
	t.Helper()
	store := element.NewStore()
	remote := newFakeRemote()
	return NewManager(store, remote), store, remote
}

func rect(id int64) element.Element {
	return element.Element{
		ID: id, Type: element.TypeRectangle, X: 10, Y: 10, Width: 50, Height: 50,
		Owner: element.Owner{NoteID: 1},
	}
}

func TestUndoCreateRemovesElement(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	el, err := remote.CreateElement(ctx, rect(0))
	require.NoError(t, err)
	store.Add(el)
	m.RecordCreate(el)
	require.True(t, m.CanUndo())

	require.NoError(t, m.Undo(ctx))
	_, ok := store.Get(el.ID)
	assert.False(t, ok)
	assert.False(t, m.CanUndo())
	assert.True(t, m.CanRedo())
}

func TestRedoCreateRestoresVisibleElement(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	el, _ := remote.CreateElement(ctx, rect(0))
	store.Add(el)
	m.RecordCreate(el)
	require.NoError(t, m.Undo(ctx))

	// Identity-preserving path: undelete succeeds.
	require.NoError(t, m.Redo(ctx))
	restored, ok := store.Get(el.ID)
	require.True(t, ok)
	assert.Equal(t, el.ID, restored.ID)
	assert.True(t, m.CanUndo())
}

func TestRedoCreateFallsBackToRecreate(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	el, _ := remote.CreateElement(ctx, rect(0))
	store.Add(el)
	m.RecordCreate(el)
	require.NoError(t, m.Undo(ctx))

	// The server purged the record; undelete cannot restore it.
	remote.permanent[el.ID] = true
	require.NoError(t, m.Redo(ctx))

	require.Equal(t, 1, store.Len())
	recreated := store.All()[0]
	assert.NotEqual(t, el.ID, recreated.ID)
	assert.Equal(t, el.X, recreated.X)

	// A second undo must delete the recreated id, not the original.
	require.NoError(t, m.Undo(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestGroupedDeleteUndoRestoresAll(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	var snaps []element.Element
	for i := 0; i < 3; i++ {
		el, _ := remote.CreateElement(ctx, rect(0))
		store.Add(el)
		require.NoError(t, remote.DeleteElement(ctx, el.ID))
		store.Remove(el.ID)
		snaps = append(snaps, el)
	}

	// One continuous eraser gesture over 3 elements: exactly ONE history entry.
	m.RecordDelete(snaps)
	assert.True(t, m.CanUndo())

	// A single undo restores all 3.
	require.NoError(t, m.Undo(ctx))
	assert.Equal(t, 3, store.Len())
	for _, snap := range snaps {
		_, ok := store.Get(snap.ID)
		assert.True(t, ok, "element %d should be restored under its original id", snap.ID)
	}
}

func TestUndoDeleteRecreateRewritesRedoIDs(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	el, _ := remote.CreateElement(ctx, rect(0))
	store.Add(el)
	require.NoError(t, remote.DeleteElement(ctx, el.ID))
	store.Remove(el.ID)
	m.RecordDelete([]element.Element{el})

	// Original record is gone for good; undo must fall back to recreate.
	remote.permanent[el.ID] = true
	require.NoError(t, m.Undo(ctx))

	require.Equal(t, 1, store.Len())
	recreated := store.All()[0]
	require.NotEqual(t, el.ID, recreated.ID)

	// The redo action carries the recreated id and the lost-identity flag.
	redo := m.redo[len(m.redo)-1]
	assert.False(t, redo.IdentityPreserved)
	require.Len(t, redo.Deleted, 1)
	assert.Equal(t, recreated.ID, redo.Deleted[0].ID)

	// Redo deletes the recreated element.
	require.NoError(t, m.Redo(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestUndoUpdateRestoresPrevFields(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	el, _ := remote.CreateElement(ctx, rect(0))
	store.Add(el)

	next := element.Fields{X: element.Int(200), Y: element.Int(300)}
	prev := next.Snapshot(el)
	_, err := remote.UpdateElement(ctx, el.ID, next)
	require.NoError(t, err)
	store.Apply(el.ID, next)
	m.RecordUpdate(el.ID, prev, next)

	require.NoError(t, m.Undo(ctx))
	got, _ := store.Get(el.ID)
	assert.Equal(t, 10, got.X)
	assert.Equal(t, 10, got.Y)

	require.NoError(t, m.Redo(ctx))
	got, _ = store.Get(el.ID)
	assert.Equal(t, 200, got.X)
	assert.Equal(t, 300, got.Y)
}

func TestUndoUpdateFailureLeavesStateAlone(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	el, _ := remote.CreateElement(ctx, rect(0))
	store.Add(el)
	next := element.Fields{X: element.Int(200)}
	prev := next.Snapshot(el)
	remote.UpdateElement(ctx, el.ID, next)
	store.Apply(el.ID, next)
	m.RecordUpdate(el.ID, prev, next)

	remote.failUpdate = true
	require.Error(t, m.Undo(ctx))

	// The failed update leaves the prior value as the source of truth and the
	// action available for retry.
	got, _ := store.Get(el.ID)
	assert.Equal(t, 200, got.X)
	assert.True(t, m.CanUndo())

	remote.failUpdate = false
	require.NoError(t, m.Undo(ctx))
	got, _ = store.Get(el.ID)
	assert.Equal(t, 10, got.X)
}

func TestRedoClearedByFreshPush(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	first, _ := remote.CreateElement(ctx, rect(0))
	store.Add(first)
	m.RecordCreate(first)
	require.NoError(t, m.Undo(ctx))
	require.True(t, m.CanRedo())

	second, _ := remote.CreateElement(ctx, rect(0))
	store.Add(second)
	m.RecordCreate(second)
	assert.False(t, m.CanRedo(), "fresh edit must invalidate redo")
}

func TestCapacityEvictsOldest(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	for i := 0; i < Capacity+10; i++ {
		el, _ := remote.CreateElement(ctx, rect(0))
		store.Add(el)
		m.RecordCreate(el)
	}
	assert.Len(t, m.undo, Capacity)

	// The oldest entries were evicted, so the bottom of the stack is the 11th
	// creation, not the 1st.
	assert.Equal(t, int64(111), m.undo[0].Created.ID)
}

func TestRedoDeletePartialFailureAttemptsAll(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	var snaps []element.Element
	for i := 0; i < 3; i++ {
		el, _ := remote.CreateElement(ctx, rect(0))
		store.Add(el)
		remote.DeleteElement(ctx, el.ID)
		store.Remove(el.ID)
		snaps = append(snaps, el)
	}
	m.RecordDelete(snaps)
	require.NoError(t, m.Undo(ctx))
	require.Equal(t, 3, store.Len())

	// The middle delete fails; the other two must still be attempted.
	remote.failDelete[snaps[1].ID] = true
	deleteCallsBefore := remote.deleteCalls
	require.Error(t, m.Redo(ctx))

	assert.Equal(t, deleteCallsBefore+3, remote.deleteCalls)
	assert.Equal(t, 1, store.Len())
}

func TestReplaySuppressedFromLog(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	el, _ := remote.CreateElement(ctx, rect(0))
	store.Add(el)
	m.RecordCreate(el)

	require.NoError(t, m.Undo(ctx))
	require.NoError(t, m.Redo(ctx))

	// One real edit, however many replays: one undo entry.
	assert.Len(t, m.undo, 1)
}

func TestOnChangeFires(t *testing.T) {
	m, store, remote := newManager(t)
	ctx := context.Background()

	var fired int
	m.OnChange(func() { fired++ })

	el, _ := remote.CreateElement(ctx, rect(0))
	store.Add(el)
	m.RecordCreate(el)
	require.NoError(t, m.Undo(ctx))
	require.NoError(t, m.Redo(ctx))

	assert.Equal(t, 3, fired)
}
