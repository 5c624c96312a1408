package loader

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every environment variable the loader reads.
const EnvPrefix = "RICHBRIDGE_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string
	mapping map[string]string // env var -> config path
	lookup  func(string) (string, bool)
	environ func() []string
}

// NewEnvLoader creates an environment loader reading variables that start
// with prefix.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(),
		lookup:  os.LookupEnv,
		environ: os.Environ,
	}
}

// defaultEnvMapping returns the explicitly named variables.
func defaultEnvMapping() map[string]string {
	return map[string]string{
		"RICHBRIDGE_LOG_LEVEL":         "logging.level",
		"RICHBRIDGE_SPELLCHECK":        "editor.spellCheck",
		"RICHBRIDGE_SUBSCRIBED_STATES": "editor.subscribedStates",
		"RICHBRIDGE_TEMPLATE":          "editor.template",
		"RICHBRIDGE_SCRIPT_TIMEOUT":    "editor.scriptTimeout",
	}
}

// listPaths are settings holding comma separated lists.
var listPaths = map[string]bool{
	"editor.subscribedStates": true,
	"editor.stylesheets":      true,
	"editor.scripts":          true,
}

// Load reads environment variables and returns a configuration map.
// Empty values are kept: an empty RICHBRIDGE_SUBSCRIBED_STATES subscribes
// to nothing.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for env, path := range l.mapping {
		if val, ok := l.lookup(env); ok {
			setByPath(config, path, l.parseValue(path, val))
		}
	}

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if _, mapped := l.mapping[name]; mapped {
			continue
		}
		path := l.envToPath(name)
		setByPath(config, path, l.parseValue(path, value))
	}

	return config, nil
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// envToPath converts RICHBRIDGE_WATCH_DEBOUNCE_MS to watch.debounceMs.
func (l *EnvLoader) envToPath(env string) string {
	parts := strings.Split(strings.TrimPrefix(env, l.prefix), "_")
	section := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return section
	}

	setting := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if part != "" {
			setting += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return section + "." + setting
}

// parseValue converts s into the most specific scalar it spells. List
// settings are left as strings and split by the consumer.
func (l *EnvLoader) parseValue(path, s string) any {
	if s == "" || listPaths[path] {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true
	case "false", "no", "off", "0":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// NewEnvLoaderFromList creates an environment loader reading from environ,
// a list of KEY=value entries, instead of the process environment.
func NewEnvLoaderFromList(prefix string, environ []string) *EnvLoader {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	l := NewEnvLoader(prefix)
	l.lookup = func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
	l.environ = func() []string { return environ }
	return l
}
