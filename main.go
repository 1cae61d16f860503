// Package main provides the entry point for the NoteCanvas editor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
	"github.com/rs/zerolog"

	"notecanvas/internal/app"
	"notecanvas/internal/element"
	"notecanvas/internal/version"
	"notecanvas/ui/mainwindow"
	"notecanvas/ui/prefs"
)

func main() {
	var (
		serverURL    = flag.String("server", "http://localhost:8000", "notebook service base URL")
		csrfToken    = flag.String("csrf-token", os.Getenv("NOTECANVAS_CSRF_TOKEN"), "CSRF token for the service")
		sessionID    = flag.String("session-id", os.Getenv("NOTECANVAS_SESSION_ID"), "session cookie for the service")
		noteID       = flag.Int64("note", 0, "note id to open")
		sharedNoteID = flag.Int64("shared-note", 0, "shared note id to open")
		debug        = flag.Bool("debug", false, "enable debug logging")
		showVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	cfg := app.Config{
		ServerURL: *serverURL,
		CSRFToken: *csrfToken,
		SessionID: *sessionID,
		Owner:     element.Owner{NoteID: *noteID, SharedNoteID: *sharedNoteID},
	}

	session, err := app.NewSession(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("session setup failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := session.LoadElements(ctx); err != nil {
		log.Warn().Err(err).Msg("starting with an empty canvas")
	}
	cancel()

	fyneApp := fyneapp.New()
	fyneApp.Settings().SetTheme(&app.NoteCanvasTheme{})

	appPrefs := prefs.Load()
	win := mainwindow.New(fyneApp, session, appPrefs)

	setupHotReload(win, session, log)

	win.ShowAndRun()
}

// setupHotReload restarts the app when a newer binary lands in place, after
// asking first.
func setupHotReload(win *mainwindow.MainWindow, session *app.Session, log zerolog.Logger) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Debug().Msg("hot reload: unable to determine executable path")
		return
	}
	log.Debug().Str("path", reloader.ExecPath()).Msg("hot reload: watching binary")

	reloader.OnNewBinary(func() {
		fyne.Do(func() { promptRestart(win, session, reloader, log) })
	})
	reloader.Start()
}

func promptRestart(win *mainwindow.MainWindow, session *app.Session,
	reloader *app.HotReloader, log zerolog.Logger) {
	dialog.ShowConfirm("New Version Available",
		"The application binary has been updated.\nRestart now?",
		func(restart bool) {
			if !restart {
				reloader.ResetBaseline()
				reloader.Start()
				return
			}
			session.Editor.FlushTextEdits()
			if err := reloader.Restart(); err != nil {
				log.Error().Err(err).Msg("hot reload: restart failed")
			}
		}, win.Window)
}
