package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Getter looks up a raw setting value. An empty string means "not set".
type Getter interface {
	Lookup(key string) string
}

// Env reads settings from process environment variables.
type Env struct{}

// Lookup returns the environment variable named key.
func (Env) Lookup(key string) string {
	return os.Getenv(key)
}

// Map is a static Getter, handy in tests and for layered defaults.
type Map map[string]string

// Lookup returns the value stored under key.
func (m Map) Lookup(key string) string {
	return m[key]
}

// Loader provides typed access to settings with default values
type Loader struct {
	src Getter
}

// NewLoader creates a new settings loader
func NewLoader(src Getter) *Loader {
	if src == nil {
		src = Env{}
	}
	return &Loader{src: src}
}

// Int retrieves an integer setting, returning defaultVal if not found or invalid
func (l *Loader) Int(key string, defaultVal int) int {
	if val := l.src.Lookup(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// Bool retrieves a boolean setting, returning defaultVal if not found or unparseable.
// Accepts the strconv.ParseBool spellings ("1", "true", "FALSE", ...).
func (l *Loader) Bool(key string, defaultVal bool) bool {
	if val := l.src.Lookup(key); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// String retrieves a string setting, returning defaultVal if not found or empty
func (l *Loader) String(key, defaultVal string) string {
	if val := l.src.Lookup(key); val != "" {
		return val
	}
	return defaultVal
}

// Duration retrieves a duration setting, returning defaultVal if not found or invalid.
// Go duration syntax ("5m", "300s") is preferred; a bare integer is read as seconds.
func (l *Loader) Duration(key string, defaultVal time.Duration) time.Duration {
	val := l.src.Lookup(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}

// List retrieves a comma separated setting. Blank entries are dropped.
func (l *Loader) List(key string) []string {
	val := l.src.Lookup(key)
	if val == "" {
		return nil
	}
	var out []string
	for item := range strings.SplitSeq(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
