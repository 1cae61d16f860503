// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"notecanvas/internal/app"
	"notecanvas/internal/editor"
	"notecanvas/internal/ocr"
	"notecanvas/internal/render"
	"notecanvas/internal/snapshot"
	"notecanvas/internal/version"
	"notecanvas/ui/canvas"
	"notecanvas/ui/dialogs"
	"notecanvas/ui/panels"
	"notecanvas/ui/prefs"
)

const snapshotExt = ".canvas.json"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *app.Session
	prefs   *prefs.Prefs

	engine  *render.Engine
	canvas  *canvas.EditorCanvas
	toolbar *panels.Toolbar
	ocr     *ocr.Engine

	statusBar *widget.Label
	darkTheme bool
}

// New creates the main window and wires the session's runners so persistence
// completions land back on the UI goroutine.
func New(fyneApp fyne.App, session *app.Session, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("NoteCanvas")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		prefs:   p,
	}

	session.Editor.SetRunners(editor.GoRunner, func(task func()) {
		fyne.Do(task)
	})

	mw.darkTheme = p.DarkTheme()
	th := render.DarkTheme()
	if !mw.darkTheme {
		th = render.LightTheme()
	}
	mw.engine = render.NewEngine(th, session.Images)

	if eng, err := ocr.NewEngine(); err != nil {
		session.Log.Warn().Err(err).Msg("ocr unavailable")
	} else {
		mw.ocr = eng
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.restorePreferences()

	win.SetCloseIntercept(func() {
		mw.canvas.FinishTextEdit()
		mw.savePreferences()
		win.Close()
	})
	win.Resize(fyne.NewSize(1200, 800))
	return mw
}

// setupUI creates the main layout: toolbar on top, canvas center, status bar
// at the bottom.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewEditorCanvas(mw.session, mw.engine)
	mw.toolbar = panels.NewToolbar(mw.session, mw.Window, mw.ocr)
	mw.statusBar = widget.NewLabel("Ready")

	// Repaint when an async image download completes.
	mw.session.Images.OnLoad(func() {
		fyne.Do(mw.canvas.Refresh)
	})

	content := container.NewBorder(
		mw.toolbar.Container(),
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		mw.canvas,
	)
	mw.SetContent(content)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Insert Image...", mw.onInsertImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Snapshot...", mw.onSaveSnapshot),
		fyne.NewMenuItem("Load Snapshot...", mw.onLoadSnapshot),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.session.Editor.Undo),
		fyne.NewMenuItem("Redo", mw.session.Editor.Redo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Copy", mw.onCopy),
		fyne.NewMenuItem("Paste", mw.onPaste),
		fyne.NewMenuItem("Delete", mw.onDelete),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Deselect", mw.session.Editor.ClearSelection),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.session.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.session.ZoomOut),
		fyne.NewMenuItem("Actual Size", func() { mw.session.SetZoom(1.0) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Toggle Grid", mw.session.ToggleGrid),
		fyne.NewMenuItem("Toggle Theme", mw.onToggleTheme),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupShortcuts registers the keyboard bindings. Element shortcuts are
// suppressed while the in-place text entry has focus.
func (mw *MainWindow) setupShortcuts() {
	c := mw.Canvas()

	bind := func(key fyne.KeyName, mod fyne.KeyModifier, fn func()) {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: mod}, func(fyne.Shortcut) {
			fn()
		})
	}

	bind(fyne.KeyZ, fyne.KeyModifierControl, mw.session.Editor.Undo)
	bind(fyne.KeyY, fyne.KeyModifierControl, mw.session.Editor.Redo)
	bind(fyne.KeyZ, fyne.KeyModifierControl|fyne.KeyModifierShift, mw.session.Editor.Redo)
	bind(fyne.KeyC, fyne.KeyModifierControl, mw.onCopy)
	bind(fyne.KeyV, fyne.KeyModifierControl, mw.onPaste)
	bind(fyne.KeyEqual, fyne.KeyModifierControl, mw.session.ZoomIn)
	bind(fyne.KeyMinus, fyne.KeyModifierControl, mw.session.ZoomOut)
	bind(fyne.Key0, fyne.KeyModifierControl, func() { mw.session.SetZoom(1.0) })

	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if mw.canvas.TextEditing() {
			return
		}
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.session.Editor.DeleteSelection()
		case fyne.KeyEscape:
			mw.session.Editor.ClearSelection()
		}
	})
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(app.EventElementsChanged, func(interface{}) {
		mw.updateStatus(fmt.Sprintf("%d elements", mw.session.Store.Len()))
	})
	mw.session.On(app.EventToolChanged, func(data interface{}) {
		if tool, ok := data.(editor.Tool); ok {
			mw.updateStatus("Tool: " + tool.String())
		}
	})
	mw.session.On(app.EventSyncError, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Sync error: " + err.Error())
		}
	})
	mw.session.On(app.EventGridToggled, func(data interface{}) {
		if on, ok := data.(bool); ok {
			mw.prefs.SetShowGrid(on)
		}
	})
	mw.session.On(app.EventZoomChanged, func(data interface{}) {
		if scale, ok := data.(float64); ok {
			mw.prefs.SetZoom(scale)
		}
	})
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// restorePreferences applies grid and zoom settings from the last run.
func (mw *MainWindow) restorePreferences() {
	mw.session.SetShowGrid(mw.prefs.ShowGrid())
	if zoom := mw.prefs.Zoom(); zoom > 0 {
		mw.session.SetZoom(zoom)
	}
}

// savePreferences writes the preference file to disk.
func (mw *MainWindow) savePreferences() {
	mw.prefs.SetDarkTheme(mw.darkTheme)
	if err := mw.prefs.Save(); err != nil {
		mw.session.Log.Warn().Err(err).Msg("saving preferences failed")
	}
}

func (mw *MainWindow) onCopy() {
	if mw.canvas.TextEditing() {
		return
	}
	if err := mw.session.Editor.CopySelection(); err != nil {
		mw.session.Log.Warn().Err(err).Msg("copy failed")
	}
}

func (mw *MainWindow) onPaste() {
	if mw.canvas.TextEditing() {
		return
	}
	if err := mw.session.Editor.Paste(); err != nil {
		mw.session.Log.Warn().Err(err).Msg("paste failed")
	}
}

func (mw *MainWindow) onDelete() {
	if mw.canvas.TextEditing() {
		return
	}
	mw.session.Editor.DeleteSelection()
}

func (mw *MainWindow) onInsertImage() {
	dialogs.ShowInsertImage(mw.session, mw.Window)
}

func (mw *MainWindow) onToggleTheme() {
	mw.darkTheme = !mw.darkTheme
	th := render.LightTheme()
	if mw.darkTheme {
		th = render.DarkTheme()
	}
	mw.session.Emit(app.EventThemeChanged, th)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.LastDirectory()
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetLastDirectory(filepath.Dir(filePath))
}

func (mw *MainWindow) onSaveSnapshot() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".json" {
			path += snapshotExt
		}
		mw.saveLastDir(path)

		mw.canvas.FinishTextEdit()
		file := snapshot.Capture("", mw.session.Config.Owner, mw.session.Store)
		if err := file.Save(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Snapshot saved: " + filepath.Base(path))
	}, mw.Window)
	fd.SetFileName("note" + snapshotExt)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// onLoadSnapshot restores a local snapshot into the store. The loaded view
// is local only; the server remains the source of truth for persistence.
func (mw *MainWindow) onLoadSnapshot() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		file, loadErr := snapshot.Load(path)
		if loadErr != nil {
			dialog.ShowError(loadErr, mw.Window)
			return
		}
		mw.canvas.FinishTextEdit()
		mw.session.Editor.ClearSelection()
		file.Restore(mw.session.Store)
		mw.session.Emit(app.EventElementsChanged, nil)
		mw.updateStatus("Snapshot loaded: " + filepath.Base(path))
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About NoteCanvas",
		fmt.Sprintf("NoteCanvas v%s\n\n"+
			"A canvas whiteboard editor for notebook services.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
