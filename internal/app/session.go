// Package app provides application lifecycle management, session wiring, and
// events.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"notecanvas/internal/api"
	"notecanvas/internal/editor"
	"notecanvas/internal/element"
	"notecanvas/internal/history"
	"notecanvas/internal/imaging"
	"notecanvas/internal/viewport"
)

// Config holds everything needed to open one canvas against the notebook
// service.
type Config struct {
	ServerURL string
	CSRFToken string
	SessionID string
	Owner     element.Owner
}

// Validate checks the session parameters before any network use.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL is required")
	}
	if c.CSRFToken == "" || c.SessionID == "" {
		return fmt.Errorf("csrf token and session id are required")
	}
	return c.Owner.Validate()
}

// EventType identifies application events.
type EventType int

const (
	EventElementsChanged EventType = iota
	EventSelectionChanged
	EventHistoryChanged
	EventToolChanged
	EventZoomChanged
	EventGridToggled
	EventThemeChanged
	EventSyncError
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Session owns one open canvas: the element store, the edit history, the
// persistence client, and the interaction controller, wired together.
type Session struct {
	mu sync.RWMutex

	Config   Config
	Log      zerolog.Logger
	Client   *api.Client
	Store    *element.Store
	History  *history.Manager
	Editor   *editor.Controller
	Images   *imaging.Cache
	Viewport *viewport.Viewport

	showGrid  bool
	listeners map[EventType][]EventListener
}

// NewSession wires a complete session. The UI layer still injects the task
// runners before first use.
func NewSession(cfg Config, log zerolog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.ServerURL, cfg.CSRFToken, cfg.SessionID, log)
	store := element.NewStore()
	hist := history.NewManager(store, client)

	s := &Session{
		Config:    cfg,
		Log:       log,
		Client:    client,
		Store:     store,
		History:   hist,
		Images:    imaging.NewCache(cfg.ServerURL, log),
		Viewport:  viewport.New(),
		listeners: make(map[EventType][]EventListener),
	}

	s.Editor = editor.New(store, hist, client, cfg.Owner, editor.DefaultConfig(), log)
	s.Editor.OnRender(func() { s.Emit(EventElementsChanged, nil) })
	s.Editor.OnError(func(err error) { s.Emit(EventSyncError, err) })
	hist.OnChange(func() { s.Emit(EventHistoryChanged, nil) })

	return s, nil
}

// On registers an event listener for the specified event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// LoadElements fetches the document's current elements and fills the store.
// Called once at startup, before the UI starts mutating state.
func (s *Session) LoadElements(ctx context.Context) error {
	elements, err := s.Client.ListElements(ctx, s.Config.Owner)
	if err != nil {
		return fmt.Errorf("load elements: %w", err)
	}
	for _, el := range elements {
		s.Store.Add(el)
	}
	s.Log.Info().Int("count", len(elements)).Msg("elements loaded")
	s.Emit(EventElementsChanged, nil)
	return nil
}

// SetTool switches the active tool and notifies the toolbar.
func (s *Session) SetTool(tool editor.Tool) {
	s.Editor.SetTool(tool)
	s.Emit(EventToolChanged, tool)
}

// ZoomIn steps the zoom up and notifies listeners.
func (s *Session) ZoomIn() {
	s.Viewport.ZoomIn()
	s.Emit(EventZoomChanged, s.Viewport.Scale())
}

// ZoomOut steps the zoom down and notifies listeners.
func (s *Session) ZoomOut() {
	s.Viewport.ZoomOut()
	s.Emit(EventZoomChanged, s.Viewport.Scale())
}

// SetZoom sets an absolute zoom scale, clamped to the supported range.
func (s *Session) SetZoom(scale float64) {
	s.Viewport.SetScale(scale)
	s.Emit(EventZoomChanged, s.Viewport.Scale())
}

// ShowGrid reports whether the alignment grid is visible. Grid snapping for
// drag and resize follows the same flag.
func (s *Session) ShowGrid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showGrid
}

// SetShowGrid sets grid visibility and snapping together.
func (s *Session) SetShowGrid(on bool) {
	s.mu.Lock()
	s.showGrid = on
	s.mu.Unlock()
	s.Editor.SetGridSnap(on)
	s.Emit(EventGridToggled, on)
}

// ToggleGrid flips grid visibility.
func (s *Session) ToggleGrid() {
	s.SetShowGrid(!s.ShowGrid())
}
