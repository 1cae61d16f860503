// Package snapshot provides local canvas snapshot files (.canvasjson): a
// versioned JSON dump of every element, used for offline export and the
// headless renderer.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"notecanvas/internal/element"
)

// FormatVersion is bumped when the snapshot layout changes incompatibly.
const FormatVersion = 1

// File is one canvas snapshot.
type File struct {
	Version  int       `json:"version"`
	Title    string    `json:"title,omitempty"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	NoteID       int64 `json:"note_id,omitempty"`
	SharedNoteID int64 `json:"shared_note_id,omitempty"`

	Elements []element.Element `json:"elements"`
}

// New creates an empty snapshot for the given note.
func New(title string, owner element.Owner) *File {
	now := time.Now()
	return &File{
		Version:      FormatVersion,
		Title:        title,
		Created:      now,
		Modified:     now,
		NoteID:       owner.NoteID,
		SharedNoteID: owner.SharedNoteID,
	}
}

// Capture snapshots the current store contents in paint order.
func Capture(title string, owner element.Owner, store *element.Store) *File {
	f := New(title, owner)
	f.Elements = store.Ordered()
	return f
}

// Load reads a snapshot from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	if f.Version > FormatVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported %d", f.Version, FormatVersion)
	}
	return &f, nil
}

// Save writes the snapshot to disk, stamping the modification time.
func (f *File) Save(path string) error {
	f.Modified = time.Now()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Restore replaces the store contents with the snapshot's elements.
func (f *File) Restore(store *element.Store) {
	for _, el := range store.All() {
		store.Remove(el.ID)
	}
	for _, el := range f.Elements {
		store.Add(el)
	}
}
