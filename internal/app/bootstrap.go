package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/richbridge/internal/bridge"
	"github.com/dshills/richbridge/internal/config"
	"github.com/dshills/richbridge/internal/config/watcher"
	"github.com/dshills/richbridge/internal/dom"
	"github.com/dshills/richbridge/internal/logging"
	"github.com/dshills/richbridge/internal/scenario"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 6),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initConfig,
		b.initLogging,
		b.initDocument,
		b.initEditor,
		b.initWatcher,
		b.initScenario,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	b.app.logger.Debug("initialized %v", b.initOrder)
	return nil
}

// initConfig loads the configuration file and environment overrides.
func (b *bootstrapper) initConfig() error {
	var configOpts []config.Option
	if b.opts.ConfigPath != "" {
		configOpts = append(configOpts, config.WithFile(b.opts.ConfigPath))
	}
	if b.opts.Environ != nil {
		configOpts = append(configOpts, config.WithEnvironment(b.opts.Environ))
	}

	cfg := config.New(configOpts...)
	if err := cfg.Load(context.Background()); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if cfg.Watch().Enabled {
		b.app.opts.Watch = true
	}

	b.app.config = cfg
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// initLogging creates the root logger. A level given on the command line
// wins over the configured one.
func (b *bootstrapper) initLogging() error {
	level := b.app.config.Logging().Level
	if b.opts.LogLevel != "" {
		l, err := logging.LookupLevel(b.opts.LogLevel)
		if err != nil {
			return &InitError{Component: "logging", Err: err}
		}
		level = l
	}

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Output = b.opts.LogOutput
	b.app.logger = logging.New(cfg)
	if path := b.app.config.Path(); path != "" {
		b.app.logger.Debug("configuration loaded from %s", path)
	}

	b.initOrder = append(b.initOrder, "logging")
	return nil
}

// initDocument creates the in-memory document environment.
func (b *bootstrapper) initDocument() error {
	ed := b.app.config.Editor()
	docOpts := []dom.Option{
		dom.WithLogger(b.app.logger),
		dom.WithScriptTimeout(ed.ScriptTimeout),
		dom.WithScriptOutput(b.app.out),
	}
	if ed.Template != "" {
		tmpl, err := os.ReadFile(ed.Template)
		if err != nil {
			return &InitError{Component: "document", Err: err}
		}
		docOpts = append(docOpts, dom.WithTemplate(string(tmpl)))
	}

	b.app.doc = dom.New(docOpts...)
	b.initOrder = append(b.initOrder, "document")
	return nil
}

// initEditor creates the host-side editor and queues the initial content,
// stylesheets, scripts and spell-check setting. Everything queued here is
// held by the editor's gates until the page loads.
func (b *bootstrapper) initEditor() error {
	ed := b.app.config.Editor()
	sub, err := b.app.config.Subscription()
	if err != nil {
		return &InitError{Component: "editor", Err: err}
	}

	if b.opts.HTMLPath != "" {
		content, err := os.ReadFile(b.opts.HTMLPath)
		if err != nil {
			return &InitError{Component: "editor", Err: err}
		}
		b.app.input = string(content)
	}

	editor := bridge.New(b.app.doc, bridge.WithLogger(b.app.logger), bridge.WithSubscription(sub))
	b.app.editor = editor

	if b.opts.Statuses {
		b.app.statusDone = make(chan struct{})
		go b.app.printStatuses(editor.SubscribeStatuses())
	}

	editor.SetHTML(b.app.input)
	for _, path := range ed.Stylesheets {
		css, err := os.ReadFile(path)
		if err != nil {
			return &InitError{Component: "editor", Err: fmt.Errorf("stylesheet: %w", err)}
		}
		b.app.setStyle(path, string(css))
		editor.AddCSS(string(css))
	}
	for _, path := range ed.Scripts {
		code, err := os.ReadFile(path)
		if err != nil {
			return &InitError{Component: "editor", Err: fmt.Errorf("script: %w", err)}
		}
		editor.AddScriptWithID(string(code), filepath.Base(path))
	}
	editor.SetSpellCheck(ed.SpellCheck)

	b.initOrder = append(b.initOrder, "editor")
	return nil
}

// initWatcher starts the stylesheet watcher when watching is enabled and
// there is something to watch.
func (b *bootstrapper) initWatcher() error {
	if !b.app.opts.Watch || len(b.app.config.Editor().Stylesheets) == 0 {
		return nil
	}

	w, err := watcher.New(
		watcher.WithDebounce(b.app.config.Watch().Debounce),
		watcher.WithLogger(b.app.logger),
	)
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	b.app.watcher = w

	for _, path := range b.app.config.Editor().Stylesheets {
		if err := w.Watch(path); err != nil {
			return &InitError{Component: "watcher", Err: err}
		}
	}
	w.OnChange(b.app.reloadStylesheet)

	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

// initScenario creates the Lua scenario runner.
func (b *bootstrapper) initScenario() error {
	b.app.runner = scenario.New(b.app.editor, b.app.doc,
		scenario.WithLogger(b.app.logger),
		scenario.WithOutput(b.app.out),
	)
	b.initOrder = append(b.initOrder, "scenario")
	return nil
}

// cleanup releases whatever was initialized before a failure.
func (b *bootstrapper) cleanup() {
	b.app.closed.Store(true)
	b.app.shutdown()
}
