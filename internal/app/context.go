// Package app holds the application-wide state shared by the HTTP server and
// the services: the selected theme and the clock.
package app

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Theme is the presentation theme chosen by the user.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark", case-insensitively.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", fmt.Errorf("unknown theme %q", s)
	}
}

// Context is created once in main and passed to whoever needs it.
type Context struct {
	mu    sync.RWMutex
	theme Theme
	now   func() time.Time
}

// Option configures a Context.
type Option func(*Context)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

func NewContext(theme Theme, opts ...Option) *Context {
	if theme == "" {
		theme = ThemeLight
	}
	c := &Context{theme: theme, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Theme() Theme {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.theme
}

func (c *Context) SetTheme(t Theme) {
	c.mu.Lock()
	c.theme = t
	c.mu.Unlock()
}

func (c *Context) Now() time.Time {
	return c.now()
}

// CurrentYear is the default year for reports.
func (c *Context) CurrentYear() int {
	return c.now().Year()
}
