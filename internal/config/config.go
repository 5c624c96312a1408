// Package config loads richbridge settings.
//
// Settings come from three layers, each overriding the one before: built-in
// defaults, an optional TOML or YAML file, and RICHBRIDGE_* environment
// variables. Values are addressed by dotted paths such as
// "editor.spellCheck"; the section accessors in sections.go return typed
// snapshots.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/dshills/richbridge/internal/config/loader"
	"github.com/dshills/richbridge/internal/logging"
)

// Config holds the merged settings.
type Config struct {
	mu     sync.RWMutex
	merged map[string]any

	fs      loader.FileSystem
	path    string
	env     *loader.EnvLoader
	environ bool
}

// Option configures a Config instance.
type Option func(*Config)

// WithFile sets the configuration file. The format follows the extension.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithFileSystem sets the file system the configuration file is read from.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fsys
	}
}

// WithEnvironment reads overrides from environ (KEY=value entries) instead
// of the process environment.
func WithEnvironment(environ []string) Option {
	return func(c *Config) {
		c.env = loader.NewEnvLoaderFromList(loader.EnvPrefix, environ)
	}
}

// WithoutEnvironment disables environment overrides.
func WithoutEnvironment() Option {
	return func(c *Config) {
		c.environ = false
	}
}

// New creates a Config holding the defaults. Nothing is read until Load.
func New(opts ...Option) *Config {
	c := &Config{
		merged:  defaultConfig(),
		fs:      loader.DefaultFS(),
		environ: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.env == nil {
		c.env = loader.NewEnvLoader(loader.EnvPrefix)
	}
	return c
}

// Load reads every layer and validates the result. A Config can be loaded
// again to pick up file or environment changes.
func (c *Config) Load(_ context.Context) error {
	merged := defaultConfig()

	if c.path != "" {
		if _, err := c.fs.Stat(c.path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrFileNotFound, c.path)
			}
			return err
		}
		l, err := loader.ForPath(c.fs, c.path)
		if err != nil {
			return err
		}
		file, err := l.Load()
		if err != nil {
			return err
		}
		merged = loader.DeepMerge(merged, file)
	}

	if c.environ {
		env, err := c.env.Load()
		if err != nil {
			return fmt.Errorf("loading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, env)
	}

	if err := validate(merged); err != nil {
		return err
	}

	c.mu.Lock()
	c.merged = merged
	c.mu.Unlock()
	return nil
}

// Path returns the configuration file path, if any.
func (c *Config) Path() string { return c.path }

// validate checks the settings whose values are constrained beyond their
// type.
func validate(m map[string]any) error {
	if v, ok := getPath(m, "logging.level"); ok {
		s, ok := v.(string)
		if !ok {
			return &TypeError{Path: "logging.level", Expected: "string", Actual: typeName(v)}
		}
		if _, err := logging.LookupLevel(s); err != nil {
			return &ValidationError{Path: "logging.level", Value: s, Message: "unknown log level", Err: err}
		}
	}
	if _, ok := getPath(m, "editor.subscribedStates"); ok {
		if _, err := subscription(m); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.merged, path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings are parsed with
// time.ParseDuration and bare integers count milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: "string"}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

// GetStringSlice returns a string slice at the given path. A string value is
// split on commas.
func (c *Config) GetStringSlice(path string) ([]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}
	return stringSlice(path, v)
}

func stringSlice(path string, v any) ([]string, error) {
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		result := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
			}
			result[i] = s
		}
		return result, nil
	case string:
		result := []string{}
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				result = append(result, s)
			}
		}
		return result, nil
	default:
		return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
}

// Merged returns a copy of the merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.merged)
}

func clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			out[k] = clone(sub)
			continue
		}
		out[k] = v
	}
	return out
}

// defaultConfig returns the default configuration values.
func defaultConfig() map[string]any {
	return map[string]any{
		"editor": map[string]any{
			"spellCheck":    true,
			"scriptTimeout": "5s",
			"stylesheets":   []any{},
			"scripts":       []any{},
		},
		"logging": map[string]any{
			"level": "info",
		},
		"watch": map[string]any{
			"enabled":  false,
			"debounce": "100ms",
		},
	}
}

// getPath retrieves a value from a nested map using a dot-separated path.
func getPath(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	current := any(m)
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = cm[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	case time.Duration:
		return "duration"
	default:
		return fmt.Sprintf("%T", v)
	}
}
