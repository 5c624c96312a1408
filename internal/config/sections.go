package config

import (
	"time"

	"github.com/dshills/richbridge/internal/command"
	"github.com/dshills/richbridge/internal/logging"
)

// Section accessor methods return snapshot structs. Settings that are
// missing or mistyped fall back to their defaults; Load has already
// rejected values that fail validation.

// EditorConfig holds the editing session settings.
type EditorConfig struct {
	// Template is a path to an HTML page template. Empty means the built-in
	// template.
	Template string

	// SubscribedStates lists the status commands to report. Nil means all.
	SubscribedStates []string

	// SpellCheck enables spell checking in the editor.
	SpellCheck bool

	// Stylesheets are CSS files injected on load.
	Stylesheets []string

	// Scripts are Lua user scripts injected on load.
	Scripts []string

	// ScriptTimeout bounds each user script evaluation.
	ScriptTimeout time.Duration
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level logging.Level
}

// WatchConfig holds stylesheet watcher settings.
type WatchConfig struct {
	// Enabled re-injects stylesheets when their files change.
	Enabled bool

	// Debounce coalesces bursts of file events.
	Debounce time.Duration
}

// Editor returns the editor settings.
func (c *Config) Editor() EditorConfig {
	e := EditorConfig{
		SpellCheck:    true,
		ScriptTimeout: 5 * time.Second,
	}
	if s, err := c.GetString("editor.template"); err == nil {
		e.Template = s
	}
	if v, err := c.GetStringSlice("editor.subscribedStates"); err == nil {
		e.SubscribedStates = v
	}
	if b, err := c.GetBool("editor.spellCheck"); err == nil {
		e.SpellCheck = b
	}
	if v, err := c.GetStringSlice("editor.stylesheets"); err == nil {
		e.Stylesheets = v
	}
	if v, err := c.GetStringSlice("editor.scripts"); err == nil {
		e.Scripts = v
	}
	if d, err := c.GetDuration("editor.scriptTimeout"); err == nil && d > 0 {
		e.ScriptTimeout = d
	}
	return e
}

// Logging returns the logger settings.
func (c *Config) Logging() LoggingConfig {
	l := LoggingConfig{Level: logging.LevelInfo}
	if s, err := c.GetString("logging.level"); err == nil {
		l.Level = logging.ParseLevel(s)
	}
	return l
}

// Watch returns the stylesheet watcher settings.
func (c *Config) Watch() WatchConfig {
	w := WatchConfig{Debounce: 100 * time.Millisecond}
	if b, err := c.GetBool("watch.enabled"); err == nil {
		w.Enabled = b
	}
	if d, err := c.GetDuration("watch.debounce"); err == nil && d >= 0 {
		w.Debounce = d
	}
	return w
}

// Subscription resolves editor.subscribedStates to status commands. An
// absent setting yields nil, subscribing to every command.
func (c *Config) Subscription() (command.Subscription, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return subscription(c.merged)
}

func subscription(m map[string]any) (command.Subscription, error) {
	const path = "editor.subscribedStates"
	v, ok := getPath(m, path)
	if !ok {
		return nil, nil
	}
	names, err := stringSlice(path, v)
	if err != nil {
		return nil, err
	}
	s, err := command.ParseSubscription(names)
	if err != nil {
		return nil, &ValidationError{Path: path, Value: names, Message: "unknown status command", Err: err}
	}
	return s, nil
}
