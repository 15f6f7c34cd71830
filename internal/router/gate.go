package router

import "sync/atomic"

// Gate is the process-wide readiness flag. Every handler checks it first
// and returns immediately while it is closed.
type Gate struct {
	open atomic.Bool
}

// Open lets events through. Call once topology compilation and hardware
// initialization are done.
func (g *Gate) Open() {
	g.open.Store(true)
}

// Close stops event processing at teardown.
func (g *Gate) Close() {
	g.open.Store(false)
}

// IsOpen reports whether events are processed.
func (g *Gate) IsOpen() bool {
	return g.open.Load()
}
