package element

import (
	"sort"

	"notecanvas/pkg/geometry"
)

// Store is the ordered in-memory collection of canvas elements for one note.
// All access happens on the UI goroutine; no locking by construction, since
// only one gesture is ever active at a time.
type Store struct {
	elements []Element
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Len returns the number of elements.
func (s *Store) Len() int {
	return len(s.elements)
}

// Add appends an element. Insertion order is retained as the paint-order tie
// break for equal z-indexes.
func (s *Store) Add(el Element) {
	s.elements = append(s.elements, el)
}

// Get returns the element with the given id.
func (s *Store) Get(id int64) (Element, bool) {
	for _, el := range s.elements {
		if el.ID == id {
			return el, true
		}
	}
	return Element{}, false
}

// Remove deletes the element with the given id and returns its snapshot.
func (s *Store) Remove(id int64) (Element, bool) {
	for i, el := range s.elements {
		if el.ID == id {
			s.elements = append(s.elements[:i], s.elements[i+1:]...)
			return el, true
		}
	}
	return Element{}, false
}

// Replace swaps the stored element with the same id for el.
func (s *Store) Replace(el Element) bool {
	for i := range s.elements {
		if s.elements[i].ID == el.ID {
			s.elements[i] = el
			return true
		}
	}
	return false
}

// Apply writes a partial update onto the element with the given id.
func (s *Store) Apply(id int64, f Fields) bool {
	for i := range s.elements {
		if s.elements[i].ID == id {
			f.Apply(&s.elements[i])
			return true
		}
	}
	return false
}

// All returns the elements in insertion order. The slice is a copy; mutating
// it does not affect the store.
func (s *Store) All() []Element {
	out := make([]Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// Ordered returns the elements in paint order: ascending z-index, stable so
// equal z-indexes keep insertion order.
func (s *Store) Ordered() []Element {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}

// MaxZ returns the highest z-index in the store, or 0 when empty.
func (s *Store) MaxZ() int {
	maxZ := 0
	for _, el := range s.elements {
		if el.ZIndex > maxZ {
			maxZ = el.ZIndex
		}
	}
	return maxZ
}

// Bounds returns the union of all element bounding boxes.
func (s *Store) Bounds() geometry.Rect {
	if len(s.elements) == 0 {
		return geometry.Rect{}
	}
	bounds := s.elements[0].Bounds()
	for _, el := range s.elements[1:] {
		bounds = bounds.Union(el.Bounds())
	}
	return bounds
}

// IntersectingIDs returns the ids of every element whose bounding box
// intersects the marquee rectangle.
func (s *Store) IntersectingIDs(marquee geometry.Rect) []int64 {
	var ids []int64
	for _, el := range s.elements {
		if BoxesIntersect(el.Bounds(), marquee) {
			ids = append(ids, el.ID)
		}
	}
	return ids
}

// TopHit returns the topmost element within tolerance of p, walking paint
// order in reverse so the element drawn last wins.
func (s *Store) TopHit(p geometry.Point2D, tolerance float64) (Element, bool) {
	ordered := s.Ordered()
	for i := len(ordered) - 1; i >= 0; i-- {
		if HitTest(p, ordered[i], tolerance) {
			return ordered[i], true
		}
	}
	return Element{}, false
}

// HitsAt returns every element within its own eraser tolerance of p, in
// insertion order. Used by the eraser, which removes everything it touches.
func (s *Store) HitsAt(p geometry.Point2D, eraserRadius float64) []Element {
	var hits []Element
	for _, el := range s.elements {
		if HitTest(p, el, Tolerance(el, eraserRadius)) {
			hits = append(hits, el)
		}
	}
	return hits
}
