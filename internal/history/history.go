// Package history provides the bounded undo/redo action log and its
// reconciliation with the remote element service.
//
// Actions are recorded only after a server-confirmed mutation. Undo and redo
// replay against both the remote service and the local store, with recording
// suppressed so replay never re-enters the log.
package history

import (
	"context"
	"fmt"

	"notecanvas/internal/element"
)

// Capacity bounds the undo stack; the oldest action is evicted first.
const Capacity = 200

// Kind tags the action variants.
type Kind int

const (
	KindCreate Kind = iota
	KindDelete
	KindUpdate
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindDelete:
		return "delete"
	case KindUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Action is one entry in the log.
//
// For KindDelete, Deleted holds the full snapshots of every element removed by
// one gesture (an eraser stroke or a group delete is ONE action). Snapshot ids
// are kept current across undo: when an element could not be undeleted and had
// to be recreated under a new id, the snapshot's id is rewritten so redo
// deletes the recreated element. IdentityPreserved records whether every
// snapshot kept its original id — first-class payload, not implicit state.
type Action struct {
	Kind Kind

	// KindCreate
	Created element.Element

	// KindDelete
	Deleted           []element.Element
	IdentityPreserved bool

	// KindUpdate
	TargetID int64
	Prev     element.Fields
	Next     element.Fields
}

// Remote is the slice of the persistence API the history manager replays
// against.
type Remote interface {
	CreateElement(ctx context.Context, el element.Element) (element.Element, error)
	UpdateElement(ctx context.Context, id int64, fields element.Fields) (element.Element, error)
	DeleteElement(ctx context.Context, id int64) error
	UndeleteElement(ctx context.Context, id int64) (element.Element, error)
}

// Manager owns the undo and redo stacks and applies replayed actions to the
// store and the remote service.
type Manager struct {
	undo   []Action
	redo   []Action
	store  *element.Store
	remote Remote

	replaying bool
	onChange  func()
}

// NewManager creates a manager bound to a store and a remote service.
func NewManager(store *element.Store, remote Remote) *Manager {
	return &Manager{store: store, remote: remote}
}

// OnChange sets a callback fired whenever either stack changes, so toolbar
// undo/redo enabled state can track non-empty stacks.
func (m *Manager) OnChange(fn func()) {
	m.onChange = fn
}

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}

// CanUndo reports whether the undo stack is non-empty.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// RecordCreate logs a confirmed element creation.
func (m *Manager) RecordCreate(el element.Element) {
	m.push(Action{Kind: KindCreate, Created: el})
}

// RecordDelete logs one confirmed delete gesture covering every snapshot.
func (m *Manager) RecordDelete(snapshots []element.Element) {
	if len(snapshots) == 0 {
		return
	}
	owned := make([]element.Element, len(snapshots))
	copy(owned, snapshots)
	m.push(Action{Kind: KindDelete, Deleted: owned, IdentityPreserved: true})
}

// RecordUpdate logs a confirmed partial update with its previous values.
func (m *Manager) RecordUpdate(id int64, prev, next element.Fields) {
	if next.Empty() {
		return
	}
	m.push(Action{Kind: KindUpdate, TargetID: id, Prev: prev, Next: next})
}

// push appends to the undo stack, evicting the oldest beyond capacity, and
// clears the redo stack: any fresh edit invalidates redo.
func (m *Manager) push(a Action) {
	if m.replaying {
		return
	}
	m.undo = append(m.undo, a)
	if len(m.undo) > Capacity {
		m.undo = m.undo[len(m.undo)-Capacity:]
	}
	m.redo = nil
	m.notify()
}

// Undo pops the newest action, reverses it against the remote service and the
// store, and pushes the corresponding action onto the redo stack. The action
// stays on the undo stack if the reversal fails outright, so a retry is
// possible once the service recovers.
func (m *Manager) Undo(ctx context.Context) error {
	if len(m.undo) == 0 {
		return nil
	}
	action := m.undo[len(m.undo)-1]

	m.replaying = true
	defer func() { m.replaying = false }()

	switch action.Kind {
	case KindCreate:
		if err := m.remote.DeleteElement(ctx, action.Created.ID); err != nil {
			return fmt.Errorf("undo create: %w", err)
		}
		m.store.Remove(action.Created.ID)

	case KindDelete:
		restored, err := m.restoreSnapshots(ctx, action.Deleted)
		action.Deleted = restored.snapshots
		action.IdentityPreserved = restored.identityPreserved
		if err != nil {
			// Every item was attempted; the batch completes with the first
			// failure reported. Snapshots that could not come back keep their
			// original ids and are simply absent from the store.
			m.undo = m.undo[:len(m.undo)-1]
			m.redo = append(m.redo, action)
			m.notify()
			return fmt.Errorf("undo delete: %w", err)
		}

	case KindUpdate:
		if _, err := m.remote.UpdateElement(ctx, action.TargetID, action.Prev); err != nil {
			return fmt.Errorf("undo update: %w", err)
		}
		m.store.Apply(action.TargetID, action.Prev)
	}

	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, action)
	m.notify()
	return nil
}

// Redo mirrors Undo symmetrically for the newest redone action.
func (m *Manager) Redo(ctx context.Context) error {
	if len(m.redo) == 0 {
		return nil
	}
	action := m.redo[len(m.redo)-1]

	m.replaying = true
	defer func() { m.replaying = false }()

	switch action.Kind {
	case KindCreate:
		// Identity-preserving restore first, recreate as fallback.
		el, err := m.remote.UndeleteElement(ctx, action.Created.ID)
		if err != nil {
			recreate := action.Created
			recreate.ID = 0
			el, err = m.remote.CreateElement(ctx, recreate)
			if err != nil {
				return fmt.Errorf("redo create: %w", err)
			}
		}
		action.Created = el
		m.store.Add(el)

	case KindDelete:
		// Delete whichever ids are currently valid, original or recreated.
		var firstErr error
		for _, snap := range action.Deleted {
			if err := m.remote.DeleteElement(ctx, snap.ID); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			m.store.Remove(snap.ID)
		}
		if firstErr != nil {
			m.redo = m.redo[:len(m.redo)-1]
			m.undo = append(m.undo, action)
			m.notify()
			return fmt.Errorf("redo delete: %w", firstErr)
		}

	case KindUpdate:
		if _, err := m.remote.UpdateElement(ctx, action.TargetID, action.Next); err != nil {
			return fmt.Errorf("redo update: %w", err)
		}
		m.store.Apply(action.TargetID, action.Next)
	}

	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, action)
	if len(m.undo) > Capacity {
		m.undo = m.undo[len(m.undo)-Capacity:]
	}
	m.notify()
	return nil
}

// restoreResult carries the outcome of restoring one delete action's snapshots.
type restoreResult struct {
	snapshots         []element.Element
	identityPreserved bool
}

// restoreSnapshots brings every snapshot back, preferring undelete and falling
// back to recreating from the snapshot's fields (losing the original id).
// Every item is attempted; the first failure is reported.
func (m *Manager) restoreSnapshots(ctx context.Context, snapshots []element.Element) (restoreResult, error) {
	result := restoreResult{
		snapshots:         make([]element.Element, len(snapshots)),
		identityPreserved: true,
	}
	copy(result.snapshots, snapshots)

	var firstErr error
	for i, snap := range snapshots {
		restored, err := m.remote.UndeleteElement(ctx, snap.ID)
		if err != nil {
			// Undelete unavailable is a recognized fallback path, not an error.
			recreate := snap
			recreate.ID = 0
			restored, err = m.remote.CreateElement(ctx, recreate)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			result.identityPreserved = false
		}
		result.snapshots[i] = restored
		m.store.Add(restored)
	}
	return result, firstErr
}
