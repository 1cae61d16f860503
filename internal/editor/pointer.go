package editor

import (
	"notecanvas/pkg/geometry"
)

// Tool is the active editing tool.
type Tool int

const (
	ToolSelect Tool = iota
	ToolRectangle
	ToolCircle
	ToolLine
	ToolFreehand
	ToolTextbox
	ToolEraser
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolRectangle:
		return "rectangle"
	case ToolCircle:
		return "circle"
	case ToolLine:
		return "line"
	case ToolFreehand:
		return "freehand"
	case ToolTextbox:
		return "textbox"
	case ToolEraser:
		return "eraser"
	default:
		return "unknown"
	}
}

// IsDrawing reports whether the tool arms pointer-down to begin a new element.
func (t Tool) IsDrawing() bool {
	switch t {
	case ToolRectangle, ToolCircle, ToolLine, ToolFreehand, ToolTextbox:
		return true
	}
	return false
}

// Mode is the single active interaction mode; exactly one holds at a time.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawing
	ModeDragging
	ModeResizing
	ModeMarquee
	ModeErasing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDrawing:
		return "drawing"
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	case ModeMarquee:
		return "marquee"
	case ModeErasing:
		return "erasing"
	default:
		return "unknown"
	}
}

// Handle identifies one of the four corner resize handles.
type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleNE
	HandleSW
	HandleSE
)

// HandleSize is the square hit size of a resize handle in canvas pixels.
const HandleSize = 8

// HandleAt returns the handle under p for an element's bounds, or HandleNone.
// Mouse and touch input are normalized to canvas-space points before reaching
// this, so a single hit size works for both.
func HandleAt(p geometry.Point2D, bounds geometry.Rect) Handle {
	corners := []struct {
		h Handle
		c geometry.Point2D
	}{
		{HandleNW, geometry.Point2D{X: bounds.X, Y: bounds.Y}},
		{HandleNE, geometry.Point2D{X: bounds.X + bounds.Width, Y: bounds.Y}},
		{HandleSW, geometry.Point2D{X: bounds.X, Y: bounds.Y + bounds.Height}},
		{HandleSE, geometry.Point2D{X: bounds.X + bounds.Width, Y: bounds.Y + bounds.Height}},
	}
	for _, corner := range corners {
		box := geometry.Rect{
			X:      corner.c.X - HandleSize/2,
			Y:      corner.c.Y - HandleSize/2,
			Width:  HandleSize,
			Height: HandleSize,
		}
		if box.Contains(p) {
			return corner.h
		}
	}
	return HandleNone
}
