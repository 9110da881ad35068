// Package ui is the desktop front end: a live, mirrored camera feed with
// face outlines next to the session form.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"

	"facecrop-go/internal/camera"
	"facecrop-go/internal/capture"
	"facecrop-go/internal/config"
	"facecrop-go/internal/detect"
	"facecrop-go/internal/perf"
)

// Deps are the collaborators the App drives.
type Deps struct {
	Source  camera.Source
	Engine  *detect.Engine
	Journal capture.Journal // optional

	// OpenClassifier defaults to detect.Open.
	OpenClassifier func(kind, path string) (detect.Classifier, error)
}

// App is the face capture window.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	cfg     *config.Config

	engine         *detect.Engine
	openClassifier func(kind, path string) (detect.Classifier, error)
	session        *capture.Session
	display        *Display
	panel          *SessionPanel

	shutdownOnce sync.Once
}

// NewApp creates the window and the capture session behind it.
func NewApp(cfg *config.Config, deps Deps) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.OpenClassifier == nil {
		deps.OpenClassifier = detect.Open
	}

	fyneApp := app.NewWithID("facecrop")
	window := fyneApp.NewWindow("Face Capture")
	window.Resize(fyne.NewSize(1040, 560))

	a := &App{
		fyneApp:        fyneApp,
		window:         window,
		cfg:            cfg,
		engine:         deps.Engine,
		openClassifier: deps.OpenClassifier,
		display:        NewDisplay(cfg.CaptureWidth, cfg.CaptureHeight),
	}
	a.session = capture.NewSession(deps.Source, deps.Engine, a.display, capture.Options{Journal: deps.Journal})
	return a
}

// Session exposes the capture session, e.g. for health logging.
func (a *App) Session() *capture.Session {
	return a.session
}

// Run shows the window and blocks until it is closed or ctx is done.
func (a *App) Run(ctx context.Context) {
	a.setupUI()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go perf.LogHealth(ctx, time.Duration(a.cfg.HealthLogIntervalSec*float64(time.Second)), a.session.Stats)
	go func() {
		<-ctx.Done()
		fyne.Do(a.shutdown)
	}()

	a.window.ShowAndRun()
}

func (a *App) setupUI() {
	a.panel = NewSessionPanel(a.window, a.cfg.Session, a.onClassifier, a.onStartStop)

	content := container.NewBorder(nil, nil, nil,
		container.NewPadded(a.panel.Content()),
		a.display.Content(),
	)
	a.window.SetContent(content)
	a.window.SetCloseIntercept(a.shutdown)

	a.panel.SelectClassifier(a.cfg.Classifier)
}

// onClassifier loads the chosen classifier. Start stays disabled until one
// loads successfully.
func (a *App) onClassifier(kind string) {
	path := a.cfg.ClassifierPath(kind)
	c, err := a.openClassifier(kind, path)
	if err != nil {
		log.Printf("[UI] Classifier %s unavailable: %v", kind, err)
		a.engine.SetClassifier(nil)
		a.panel.SetClassifierReady(false)
		dialog.ShowError(fmt.Errorf("could not load the %s classifier from %s", kind, path), a.window)
		return
	}
	a.engine.SetClassifier(c)
	a.panel.SetClassifierReady(a.engine.Loaded())
	log.Printf("[UI] Classifier %s selected", kind)
}

func (a *App) onStartStop() {
	if a.session.Active() {
		a.stopSession()
		return
	}
	a.startSession()
}

func (a *App) startSession() {
	sess, err := config.ParseSessionForm(a.panel.Form(), a.cfg.Session)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	if !a.engine.Loaded() {
		dialog.ShowError(errors.New("select a classifier first"), a.window)
		return
	}

	if err := a.session.Start(sess); err != nil {
		log.Printf("[UI] Start failed: %v", err)
		dialog.ShowError(err, a.window)
		return
	}
	a.cfg.Session = sess
	a.panel.SetRunning(true)
}

func (a *App) stopSession() {
	final := a.session.Stop()
	a.cfg.Session.StartCount = final
	a.panel.SetPhotoCount(final)
	a.panel.SetRunning(false)

	received, shown, dropped := a.display.Stats()
	log.Printf("[UI] Display: %d frames received, %d painted, %d coalesced", received, shown, dropped)

	a.display.Clear()
}

// shutdown stops any running session and quits. Runs on the fyne thread.
func (a *App) shutdown() {
	a.shutdownOnce.Do(func() {
		log.Println("[UI] Window closing, stopping session...")
		a.session.Stop()
		if err := a.engine.Close(); err != nil {
			log.Printf("[UI] WARNING: failed to release classifier: %v", err)
		}
		a.fyneApp.Quit()
	})
}
