// Package app wires the richbridge components into one editing session:
// configuration, logging, the in-memory document, the host-side editor, the
// stylesheet watcher and the scenario runner.
package app

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/richbridge/internal/bridge"
	"github.com/dshills/richbridge/internal/config"
	"github.com/dshills/richbridge/internal/config/watcher"
	"github.com/dshills/richbridge/internal/dom"
	"github.com/dshills/richbridge/internal/logging"
	"github.com/dshills/richbridge/internal/scenario"
)

// Application is one editing session and the components around it.
type Application struct {
	// Core infrastructure
	config *config.Config
	logger *logging.Logger
	out    *syncWriter

	// Session components
	doc     *dom.Document
	editor  *bridge.Editor
	runner  *scenario.Runner
	watcher *watcher.Watcher

	// Stylesheet path to contents, as last injected
	styleMu sync.Mutex
	styles  map[string]string

	input      string
	statusDone chan struct{}

	// State
	running atomic.Bool
	closed  atomic.Bool

	// Options
	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to a TOML or YAML configuration file.
	ConfigPath string

	// HTMLPath is the initial editor content. Empty starts empty.
	HTMLPath string

	// ScriptPath is a Lua scenario run after the page loads.
	ScriptPath string

	// Watch keeps the session open and re-injects stylesheets on change
	// until the Run context is done.
	Watch bool

	// LogLevel overrides the configured level when set.
	LogLevel string

	// Diff prints a patch from the input to the exported HTML instead of
	// the exported HTML itself.
	Diff bool

	// Statuses prints every published status snapshot.
	Statuses bool

	// Output receives scenario output, statuses and the final export.
	// Defaults to os.Stdout.
	Output io.Writer

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Environ replaces the process environment for configuration
	// overrides when non-nil.
	Environ []string
}

// New creates a new Application with the given options.
func New(opts Options) (*Application, error) {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	app := &Application{
		opts:   opts,
		out:    &syncWriter{w: opts.Output},
		styles: make(map[string]string),
	}
	if err := newBootstrapper(app, opts).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Run loads the page, runs the scenario and writes the exported HTML.
// With Watch set it blocks until ctx is done before exporting.
func (app *Application) Run(ctx context.Context) error {
	if app.closed.Load() {
		return ErrShutdown
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := app.doc.Load(""); err != nil {
		return NewOperationError("load", app.opts.HTMLPath, err)
	}
	if err := app.doc.Settle(ctx); err != nil {
		return NewOperationError("load", app.opts.HTMLPath, err)
	}
	app.logger.Info("page loaded")

	if app.opts.ScriptPath != "" {
		if err := app.runner.RunFile(ctx, app.opts.ScriptPath); err != nil {
			return NewOperationError("scenario", app.opts.ScriptPath, err)
		}
	}

	if app.opts.Watch {
		app.logger.Info("watching %d stylesheets", len(app.Stylesheets()))
		<-ctx.Done()
		ctx = context.Background()
	}

	exportCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	html, err := app.export(exportCtx)
	if err != nil {
		return NewOperationError("export", "", err)
	}
	return app.writeResult(html)
}

// export requests the editor HTML and waits for the answer.
func (app *Application) export(ctx context.Context) (string, error) {
	got := make(chan string, 1)
	app.editor.ExportHTML(func(html string) {
		select {
		case got <- html:
		default:
		}
	})
	if err := app.doc.Settle(ctx); err != nil {
		return "", err
	}
	select {
	case html := <-got:
		return html, nil
	default:
		return "", ErrNoExport
	}
}

func (app *Application) writeResult(html string) error {
	var err error
	if app.opts.Diff {
		_, err = io.WriteString(app.out, Patch(app.input, html))
	} else {
		_, err = io.WriteString(app.out, html+"\n")
	}
	return err
}

// Shutdown releases every component. It is safe to call more than once.
func (app *Application) Shutdown() {
	if !app.closed.CompareAndSwap(false, true) {
		return
	}
	app.shutdown()
}

// shutdown performs cleanup in reverse initialization order.
func (app *Application) shutdown() {
	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			app.logger.Warn("closing watcher: %v", err)
		}
	}
	if app.runner != nil {
		_ = app.runner.Close()
	}
	if app.editor != nil {
		_ = app.editor.Close()
	}
	if app.statusDone != nil {
		<-app.statusDone
	}
	if app.doc != nil {
		_ = app.doc.Close()
	}
	if app.logger != nil {
		app.logger.Info("shut down")
	}
}

// IsRunning returns true while Run is in progress.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Editor returns the host-side editor.
func (app *Application) Editor() *bridge.Editor {
	return app.editor
}

// Document returns the document environment.
func (app *Application) Document() *dom.Document {
	return app.doc
}

// Stylesheets returns the watched stylesheet paths and their last injected
// contents.
func (app *Application) Stylesheets() map[string]string {
	app.styleMu.Lock()
	defer app.styleMu.Unlock()
	out := make(map[string]string, len(app.styles))
	for k, v := range app.styles {
		out[k] = v
	}
	return out
}

// syncWriter serializes writes from the scenario and the status printer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
