package router

import (
	"fmt"
	"math/bits"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/panel-router/internal/topology"
)

// RegisterReader reads the 8-bit input register of a port expander.
type RegisterReader interface {
	ReadRegister() (byte, error)
}

// Edge is a level change on one pin.
type Edge struct {
	Pin   topology.PinID
	Level bool
}

// Diff returns one edge per bit that differs between prev and next, in
// ascending bit order. Bit n maps to sub-pin n+1 of the expander. The
// order among bits that changed together carries no meaning.
func Diff(expander int, prev, next byte) []Edge {
	changed := prev ^ next
	if changed == 0 {
		return nil
	}
	edges := make([]Edge, 0, bits.OnesCount8(changed))
	for n := 0; n < topology.SubPins; n++ {
		mask := byte(1) << n
		if changed&mask != 0 {
			edges = append(edges, Edge{
				Pin:   topology.Virtual(expander, n+1),
				Level: next&mask != 0,
			})
		}
	}
	return edges
}

// Expander demultiplexes the shared interrupt line of one port expander
// into per-pin edges.
type Expander struct {
	index  int
	dev    RegisterReader
	router *Router

	mu   sync.Mutex
	last byte
}

// NewExpander binds expander index (1-based) to the router. initial is the
// register value the device was primed with.
func (r *Router) NewExpander(index int, dev RegisterReader, initial byte) *Expander {
	return &Expander{index: index, dev: dev, router: r, last: initial}
}

// Last returns the most recent successfully read register value.
func (x *Expander) Last() byte {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.last
}

// HandleInterrupt reads the register, routes one edge per changed bit and
// then stores the new value. On a read error the stored value is kept so
// the next successful read diffs against the last known-good state.
// Interrupts on the same expander are serialized.
func (x *Expander) HandleInterrupt() error {
	if !x.router.gate.IsOpen() {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	value, err := x.dev.ReadRegister()
	x.router.expanderRead(x.index, value, err)
	if err != nil {
		log.WithFields(log.Fields{
			"expander": x.index,
			"err":      err,
		}).Warn("Expander read failed, skipping interrupt")
		return fmt.Errorf("expander %d: %w", x.index, err)
	}

	edges := Diff(x.index, x.last, value)
	log.WithFields(log.Fields{
		"expander": x.index,
		"previous": fmt.Sprintf("%08b", x.last),
		"current":  fmt.Sprintf("%08b", value),
		"edges":    len(edges),
	}).Debug("Expander interrupt")

	for _, e := range edges {
		x.router.HandleEdge(e.Pin, e.Level)
	}
	x.last = value
	return nil
}
