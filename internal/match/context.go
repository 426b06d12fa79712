// Package match tracks the match currently being simulated.
package match

import (
	"log/slog"
	"sync"

	"github.com/OCAP2/artillery/pkg/core"
)

// Context holds the current match and the last completed tick
type Context struct {
	mu    sync.RWMutex
	match *core.Match
	tick  uint
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{match: &core.Match{Name: "No match loaded"}}
}

// GetMatch returns the current match
func (c *Context) GetMatch() *core.Match {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.match
}

// SetMatch sets the current match and resets the tick
func (c *Context) SetMatch(m *core.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.match = m
	c.tick = 0
}

// Tick returns the last completed tick
func (c *Context) Tick() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tick
}

// SetTick records the last completed tick
func (c *Context) SetTick(tick uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = tick
}

// LogAttrs returns the attributes added to every log record while a match runs.
// It satisfies logging.ContextProvider.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []slog.Attr{
		slog.String("match", c.match.Name),
		slog.Uint64("matchId", uint64(c.match.ID)),
		slog.Uint64("tick", uint64(c.tick)),
	}
}
