// Package router turns debounced edges from GPIO lines and port expanders
// into outbound commands, using a compiled topology.Table.
//
// Handlers are plain methods so they can be registered with any driver
// callback and invoked directly in tests. They may run concurrently for
// different sources; per-source state (expander byte, rotary flag) is
// guarded by its own lock, and the table is read-only.
package router

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/panel-router/internal/dispatch"
	"github.com/sweeney/panel-router/internal/topology"
)

// Trigger names what fired an action.
type Trigger string

const (
	TriggerRising  Trigger = "RISING"
	TriggerFalling Trigger = "FALLING"
	TriggerLeft    Trigger = "LEFT"
	TriggerRight   Trigger = "RIGHT"
)

// Event describes one fired action and the delivery of its commands.
type Event struct {
	Time    time.Time
	Input   topology.Key
	Pin     topology.PinID
	Trigger Trigger
	Results []dispatch.Result
}

// Observer is notified of router activity. Implementations must be safe
// for concurrent use and must not block.
type Observer interface {
	// EdgeReceived is called for every edge that passed the gate.
	// known is false when the pin has no table entry.
	EdgeReceived(pin topology.PinID, level bool, known bool)

	// ActionFired is called after the commands of an action were delivered.
	ActionFired(ev Event)

	// ExpanderRead is called after every register read attempt.
	ExpanderRead(index int, value byte, err error)
}

// Dispatcher delivers a command set. *dispatch.Dispatcher implements it.
type Dispatcher interface {
	Deliver(ctx context.Context, commands []string) []dispatch.Result
}

// Router resolves edges against the action table.
type Router struct {
	table      *topology.Table
	dispatcher Dispatcher
	gate       *Gate
	decoders   map[topology.Key]*Decoder
	observers  []Observer
	now        func() time.Time
}

// New creates a Router with one rotary decoder per encoder in the table.
// The gate starts closed unless the caller already opened it.
func New(table *topology.Table, dispatcher Dispatcher, gate *Gate) *Router {
	r := &Router{
		table:      table,
		dispatcher: dispatcher,
		gate:       gate,
		decoders:   make(map[topology.Key]*Decoder),
		now:        time.Now,
	}
	for _, k := range table.Encoders() {
		r.decoders[k] = &Decoder{}
	}
	return r
}

// Observe registers an observer. Must be called before the gate opens.
func (r *Router) Observe(o Observer) {
	r.observers = append(r.observers, o)
}

// Gate returns the activation gate.
func (r *Router) Gate() *Gate {
	return r.gate
}

// Table returns the action table.
func (r *Router) Table() *topology.Table {
	return r.table
}

// Decoder returns the rotary decoder for an encoder, or nil.
func (r *Router) Decoder(k topology.Key) *Decoder {
	return r.decoders[k]
}

// HandleGPIO is the edge callback for a direct GPIO line.
func (r *Router) HandleGPIO(pin int, level bool) {
	r.HandleEdge(topology.GPIO(pin), level)
}

// HandleEdge processes one debounced edge. It blocks until every command
// of the resolved set has been delivered and returns their results.
// Edges for unknown pins and edges with an empty command set return nil.
func (r *Router) HandleEdge(pin topology.PinID, level bool) []dispatch.Result {
	if !r.gate.IsOpen() {
		return nil
	}

	entry, ok := r.table.Lookup(pin)
	for _, o := range r.observers {
		o.EdgeReceived(pin, level, ok)
	}
	if !ok {
		log.WithFields(log.Fields{"pin": pin, "level": level}).Debug("No action for pin")
		return nil
	}

	var (
		cmds    topology.CommandSet
		trigger Trigger
	)
	switch entry.Role {
	case topology.RoleToggle:
		cmds = entry.Resolve(level)
		trigger = TriggerFalling
		if level {
			trigger = TriggerRising
		}

	case topology.RoleRotaryDirection:
		r.decoders[entry.Input].SensorA(level)
		return nil

	case topology.RoleRotaryPulse:
		dir, turned := r.decoders[entry.Input].SensorB(level)
		if !turned {
			return nil
		}
		if dir == Left {
			cmds, trigger = entry.Action.Left, TriggerLeft
		} else {
			cmds, trigger = entry.Action.Right, TriggerRight
		}
		log.WithFields(log.Fields{"input": entry.Input, "direction": dir}).Debug("Rotary turned")

	default:
		return nil
	}

	log.WithFields(log.Fields{
		"pin":     pin,
		"input":   entry.Input,
		"trigger": trigger,
	}).Debug("Edge resolved")

	if len(cmds) == 0 {
		return nil
	}

	results := r.dispatcher.Deliver(context.Background(), cmds)
	ev := Event{
		Time:    r.now(),
		Input:   entry.Input,
		Pin:     pin,
		Trigger: trigger,
		Results: results,
	}
	for _, o := range r.observers {
		o.ActionFired(ev)
	}
	return results
}

func (r *Router) expanderRead(index int, value byte, err error) {
	for _, o := range r.observers {
		o.ExpanderRead(index, value, err)
	}
}
