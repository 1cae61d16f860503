// Package element defines the canvas element model and the in-memory store
// that is the single source of truth for rendering.
package element

import (
	"fmt"

	"notecanvas/pkg/geometry"
)

// Type identifies the kind of a canvas element.
type Type string

const (
	TypeTextbox   Type = "textbox"
	TypeImage     Type = "image"
	TypeRectangle Type = "rectangle"
	TypeCircle    Type = "circle"
	TypeLine      Type = "line"
	TypeFreehand  Type = "freehand"
)

// Valid reports whether t is one of the known element types.
func (t Type) Valid() bool {
	switch t {
	case TypeTextbox, TypeImage, TypeRectangle, TypeCircle, TypeLine, TypeFreehand:
		return true
	}
	return false
}

// Owner identifies the document an element belongs to. Exactly one of the two
// ids is set; the server rejects elements claiming both.
type Owner struct {
	NoteID       int64 `json:"note_id,omitempty"`
	SharedNoteID int64 `json:"shared_note_id,omitempty"`
}

// Validate checks the mutual-exclusion invariant.
func (o Owner) Validate() error {
	if o.NoteID != 0 && o.SharedNoteID != 0 {
		return fmt.Errorf("element owner: note_id and shared_note_id are mutually exclusive")
	}
	if o.NoteID == 0 && o.SharedNoteID == 0 {
		return fmt.Errorf("element owner: one of note_id or shared_note_id is required")
	}
	return nil
}

// Element is one positioned, typed object on the whiteboard. Coordinates are
// integer pixels in canvas space, unscaled by zoom. For lines, Width and
// Height are signed deltas from the origin, not magnitudes.
type Element struct {
	ID     int64 `json:"id"`
	Type   Type  `json:"element_type"`
	X      int   `json:"x"`
	Y      int   `json:"y"`
	Width  int   `json:"width"`
	Height int   `json:"height"`
	ZIndex int   `json:"z_index"`

	// Type-specific payload.
	TextContent string `json:"text_content,omitempty"` // textbox
	ImageURL    string `json:"image_url,omitempty"`    // image
	PathData    string `json:"path_data,omitempty"`    // freehand, relative to X,Y

	// Style, abstract color names resolved at render time.
	StrokeColor string `json:"stroke_color,omitempty"`
	StrokeWidth int    `json:"stroke_width,omitempty"`
	FillColor   string `json:"fill_color,omitempty"`

	Owner
}

// Bounds returns the axis-aligned bounding box in canvas space. For lines the
// signed deltas are normalized so the box always has non-negative extent.
func (e Element) Bounds() geometry.Rect {
	r := geometry.Rect{
		X:      float64(e.X),
		Y:      float64(e.Y),
		Width:  float64(e.Width),
		Height: float64(e.Height),
	}
	if e.Type == TypeLine {
		return r.Normalized()
	}
	return r
}

// LineEndpoints returns the two endpoints of a line element.
func (e Element) LineEndpoints() (geometry.Point2D, geometry.Point2D) {
	a := geometry.Point2D{X: float64(e.X), Y: float64(e.Y)}
	b := geometry.Point2D{X: float64(e.X + e.Width), Y: float64(e.Y + e.Height)}
	return a, b
}

// PathPoints decodes the freehand path into absolute canvas-space points.
func (e Element) PathPoints() []geometry.Point2D {
	pts := DecodePath(e.PathData)
	origin := geometry.Point2D{X: float64(e.X), Y: float64(e.Y)}
	for i := range pts {
		pts[i] = pts[i].Add(origin)
	}
	return pts
}

// EffectiveStrokeWidth returns the stroke width, defaulting to 2 when unset.
func (e Element) EffectiveStrokeWidth() int {
	if e.StrokeWidth <= 0 {
		return 2
	}
	return e.StrokeWidth
}

// Validate checks the per-type required fields and the owner invariant.
func (e Element) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("element: unknown type %q", e.Type)
	}
	if err := e.Owner.Validate(); err != nil {
		return err
	}
	switch e.Type {
	case TypeImage:
		if e.ImageURL == "" {
			return fmt.Errorf("element: image requires image_url")
		}
	case TypeFreehand:
		if len(DecodePath(e.PathData)) < 2 {
			return fmt.Errorf("element: freehand requires at least 2 path points")
		}
	}
	return nil
}

// Fields is a partial update to an element's geometry or text. Nil pointers
// mean "leave unchanged", matching the server's partial update semantics.
type Fields struct {
	X           *int    `json:"x,omitempty"`
	Y           *int    `json:"y,omitempty"`
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	TextContent *string `json:"text_content,omitempty"`
}

// Int returns a pointer to v, for building Fields literals.
func Int(v int) *int { return &v }

// Str returns a pointer to s, for building Fields literals.
func Str(s string) *string { return &s }

// Empty reports whether the update changes nothing.
func (f Fields) Empty() bool {
	return f.X == nil && f.Y == nil && f.Width == nil && f.Height == nil && f.TextContent == nil
}

// Apply writes the set fields onto el.
func (f Fields) Apply(el *Element) {
	if f.X != nil {
		el.X = *f.X
	}
	if f.Y != nil {
		el.Y = *f.Y
	}
	if f.Width != nil {
		el.Width = *f.Width
	}
	if f.Height != nil {
		el.Height = *f.Height
	}
	if f.TextContent != nil {
		el.TextContent = *f.TextContent
	}
}

// Snapshot captures the current values of the fields named by f, for
// recording the "previous" side of an update action.
func (f Fields) Snapshot(el Element) Fields {
	var prev Fields
	if f.X != nil {
		prev.X = Int(el.X)
	}
	if f.Y != nil {
		prev.Y = Int(el.Y)
	}
	if f.Width != nil {
		prev.Width = Int(el.Width)
	}
	if f.Height != nil {
		prev.Height = Int(el.Height)
	}
	if f.TextContent != nil {
		prev.TextContent = Str(el.TextContent)
	}
	return prev
}
