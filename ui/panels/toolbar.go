// Package panels provides the toolbar and side panels for the editor window.
package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"notecanvas/internal/app"
	"notecanvas/internal/editor"
	"notecanvas/internal/element"
	"notecanvas/internal/ink"
	"notecanvas/internal/ocr"
	"notecanvas/pkg/colorutil"
)

// strokeWidths are the widths offered by the stroke width picker.
var strokeWidths = []string{"1", "2", "4", "6", "8"}

// Toolbar is the main tool strip: tool selection, style pickers, grid and
// zoom controls, undo/redo, and the shape actions.
type Toolbar struct {
	session *app.Session
	window  fyne.Window
	ocr     *ocr.Engine

	container fyne.CanvasObject

	toolButtons map[editor.Tool]*widget.Button

	strokeSelect *widget.Select
	fillSelect   *widget.Select
	widthSelect  *widget.Select

	gridCheck *widget.Check
	zoomLabel *widget.Label

	undoButton       *widget.Button
	redoButton       *widget.Button
	deleteButton     *widget.Button
	straightenButton *widget.Button
	extractButton    *widget.Button
}

// NewToolbar creates the toolbar. The OCR engine may be nil when tesseract
// is unavailable; the extract-text action then stays disabled.
func NewToolbar(session *app.Session, window fyne.Window, ocrEngine *ocr.Engine) *Toolbar {
	tb := &Toolbar{
		session:     session,
		window:      window,
		ocr:         ocrEngine,
		toolButtons: make(map[editor.Tool]*widget.Button),
	}

	tools := []struct {
		tool  editor.Tool
		label string
	}{
		{editor.ToolSelect, "Select"},
		{editor.ToolRectangle, "Rect"},
		{editor.ToolCircle, "Circle"},
		{editor.ToolLine, "Line"},
		{editor.ToolFreehand, "Draw"},
		{editor.ToolTextbox, "Text"},
		{editor.ToolEraser, "Erase"},
	}
	toolRow := container.NewHBox()
	for _, t := range tools {
		tool := t.tool
		btn := widget.NewButton(t.label, func() {
			session.SetTool(tool)
		})
		tb.toolButtons[tool] = btn
		toolRow.Add(btn)
	}

	tb.strokeSelect = widget.NewSelect(colorutil.Names(), func(name string) {
		session.Editor.SetStrokeColor(name)
	})
	tb.strokeSelect.SetSelected(session.Editor.StrokeColor())

	fillNames := append([]string{"none"}, colorutil.Names()...)
	tb.fillSelect = widget.NewSelect(fillNames, func(name string) {
		session.Editor.SetFillColor(name)
	})
	tb.fillSelect.SetSelected(session.Editor.FillColor())

	tb.widthSelect = widget.NewSelect(strokeWidths, func(s string) {
		var w int
		fmt.Sscanf(s, "%d", &w)
		if w > 0 {
			session.Editor.SetStrokeWidth(w)
		}
	})
	tb.widthSelect.SetSelected(fmt.Sprintf("%d", session.Editor.StrokeWidth()))

	tb.gridCheck = widget.NewCheck("Grid", func(on bool) {
		session.SetShowGrid(on)
	})
	tb.gridCheck.SetChecked(session.ShowGrid())

	tb.zoomLabel = widget.NewLabel("100%")
	zoomOut := widget.NewButtonWithIcon("", theme.ZoomOutIcon(), session.ZoomOut)
	zoomIn := widget.NewButtonWithIcon("", theme.ZoomInIcon(), session.ZoomIn)
	zoomReset := widget.NewButton("1:1", func() { session.SetZoom(1.0) })

	tb.undoButton = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), session.Editor.Undo)
	tb.redoButton = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), session.Editor.Redo)
	tb.deleteButton = widget.NewButtonWithIcon("", theme.DeleteIcon(), session.Editor.DeleteSelection)
	tb.straightenButton = widget.NewButton("Straighten", tb.straightenSelection)
	tb.extractButton = widget.NewButton("Extract Text", tb.extractText)

	tb.container = container.NewHBox(
		toolRow,
		widget.NewSeparator(),
		widget.NewLabel("Stroke"), tb.strokeSelect,
		widget.NewLabel("Fill"), tb.fillSelect,
		widget.NewLabel("Width"), tb.widthSelect,
		widget.NewSeparator(),
		tb.gridCheck,
		zoomOut, tb.zoomLabel, zoomIn, zoomReset,
		widget.NewSeparator(),
		tb.undoButton, tb.redoButton, tb.deleteButton,
		tb.straightenButton, tb.extractButton,
	)

	session.On(app.EventToolChanged, func(data interface{}) {
		if tool, ok := data.(editor.Tool); ok {
			tb.highlightTool(tool)
		}
	})
	session.On(app.EventZoomChanged, func(data interface{}) {
		if scale, ok := data.(float64); ok {
			tb.zoomLabel.SetText(fmt.Sprintf("%.0f%%", scale*100))
		}
	})
	session.On(app.EventHistoryChanged, func(interface{}) { tb.sync() })
	session.On(app.EventElementsChanged, func(interface{}) { tb.sync() })
	session.On(app.EventGridToggled, func(data interface{}) {
		if on, ok := data.(bool); ok && tb.gridCheck.Checked != on {
			tb.gridCheck.SetChecked(on)
		}
	})

	tb.highlightTool(session.Editor.Tool())
	tb.sync()
	return tb
}

// Container returns the toolbar container.
func (tb *Toolbar) Container() fyne.CanvasObject {
	return tb.container
}

func (tb *Toolbar) highlightTool(active editor.Tool) {
	for tool, btn := range tb.toolButtons {
		if tool == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

// sync updates button enablement from the history and selection state.
func (tb *Toolbar) sync() {
	setEnabled(tb.undoButton, tb.session.History.CanUndo())
	setEnabled(tb.redoButton, tb.session.History.CanRedo())

	ids := tb.session.Editor.SelectedIDs()
	setEnabled(tb.deleteButton, len(ids) > 0)

	single, hasSingle := tb.singleSelection()
	setEnabled(tb.straightenButton, hasSingle && single.Type == element.TypeFreehand)
	setEnabled(tb.extractButton,
		tb.ocr != nil && hasSingle && single.Type == element.TypeImage)
}

func setEnabled(btn *widget.Button, enabled bool) {
	if enabled {
		btn.Enable()
	} else {
		btn.Disable()
	}
}

// singleSelection returns the sole selected element, if exactly one.
func (tb *Toolbar) singleSelection() (element.Element, bool) {
	ids := tb.session.Editor.SelectedIDs()
	if len(ids) != 1 {
		return element.Element{}, false
	}
	return tb.session.Store.Get(ids[0])
}

// straightenSelection converts the selected freehand stroke into the clean
// shape it approximates.
func (tb *Toolbar) straightenSelection() {
	el, ok := tb.singleSelection()
	if !ok || el.Type != element.TypeFreehand {
		return
	}
	shape, ok := ink.Straighten(el)
	if !ok {
		tb.session.Log.Debug().Int64("id", el.ID).Msg("stroke not recognized")
		return
	}
	tb.session.Editor.ReplaceElement(el.ID, shape)
}

// extractText runs OCR over the selected image element and places the
// recognized text in a new textbox beside it.
func (tb *Toolbar) extractText() {
	el, ok := tb.singleSelection()
	if !ok || el.Type != element.TypeImage || tb.ocr == nil {
		return
	}
	img, loaded := tb.session.Images.Image(el.ImageURL)
	if !loaded {
		tb.session.Log.Debug().Str("url", el.ImageURL).Msg("image still loading")
		return
	}

	go func() {
		text, err := tb.ocr.ExtractText(img)
		fyne.Do(func() {
			if err != nil {
				tb.session.Log.Error().Err(err).Msg("text extraction failed")
				tb.session.Emit(app.EventSyncError, err)
				return
			}
			if text == "" {
				return
			}
			cfg := tb.session.Editor.Config()
			tb.session.Editor.AddElement(element.Element{
				Type:        element.TypeTextbox,
				X:           el.X + el.Width + cfg.GridSize,
				Y:           el.Y,
				Width:       cfg.TextboxW,
				Height:      cfg.TextboxH,
				TextContent: text,
				StrokeColor: "default",
			})
		})
	}()
}
