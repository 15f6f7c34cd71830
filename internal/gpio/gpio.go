// Package gpio delivers debounced edges from GPIO input lines.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"time"
)

// DefaultChip is the GPIO chip of the Raspberry Pi header.
const DefaultChip = "gpiochip0"

// ErrUnsupported is returned where no GPIO character device exists.
var ErrUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Edge is one debounced level change on a line.
// Level is the raw line level after the change: true = high.
type Edge struct {
	Pin   int
	Level bool
}

// Handler receives edges. Calls for one line are serialized; calls for
// different lines may run concurrently.
type Handler func(Edge)

// Pull is the bias applied to an input line.
type Pull uint8

const (
	PullUp Pull = iota
	PullDown
	PullNone
)

func (p Pull) String() string {
	switch p {
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	default:
		return "none"
	}
}

// LineConfig describes one watched input line (BCM numbering).
type LineConfig struct {
	Pin      int
	Pull     Pull
	Debounce time.Duration
}

// Watcher requests input lines and reports their edges.
type Watcher interface {
	// Watch requests the line and calls h for every edge on it, both
	// rising and falling.
	Watch(cfg LineConfig, h Handler) error

	// Close releases all watched lines.
	Close() error
}
