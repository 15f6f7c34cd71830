package mqtt

import (
	"sync/atomic"

	"github.com/sweeney/panel-router/internal/router"
	"github.com/sweeney/panel-router/internal/topology"
)

// Forwarder is a router.Observer that hands fired actions to the main
// loop over a buffered channel. It never blocks the input path: when the
// channel is full the event is dropped and counted.
type Forwarder struct {
	ch      chan router.Event
	dropped atomic.Int64
}

// NewForwarder creates a Forwarder with room for size pending events.
func NewForwarder(size int) *Forwarder {
	return &Forwarder{ch: make(chan router.Event, size)}
}

// C returns the channel of fired actions.
func (f *Forwarder) C() <-chan router.Event {
	return f.ch
}

// Dropped returns how many events were discarded because the channel was full.
func (f *Forwarder) Dropped() int64 {
	return f.dropped.Load()
}

// ActionFired queues the event, or drops it when the queue is full.
func (f *Forwarder) ActionFired(ev router.Event) {
	select {
	case f.ch <- ev:
	default:
		f.dropped.Add(1)
	}
}

// EdgeReceived is a no-op; only fired actions are published.
func (f *Forwarder) EdgeReceived(topology.PinID, bool, bool) {}

// ExpanderRead is a no-op.
func (f *Forwarder) ExpanderRead(int, byte, error) {}
