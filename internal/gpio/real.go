//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealWatcher watches lines on a GPIO character device.
type RealWatcher struct {
	chip *gpiocdev.Chip

	mu    sync.Mutex
	lines []*gpiocdev.Line
}

// NewRealWatcher opens the named GPIO chip, e.g. "gpiochip0".
func NewRealWatcher(chip string) (*RealWatcher, error) {
	c, err := gpiocdev.NewChip(chip, gpiocdev.WithConsumer("panel-router"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &RealWatcher{chip: c}, nil
}

// Watch requests the line as an input with edge detection on both edges.
// Debouncing is done by the kernel when cfg.Debounce is non-zero.
func (w *RealWatcher) Watch(cfg LineConfig, h Handler) error {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			h(Edge{
				Pin:   evt.Offset,
				Level: evt.Type == gpiocdev.LineEventRisingEdge,
			})
		}),
	}
	switch cfg.Pull {
	case PullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case PullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	default:
		opts = append(opts, gpiocdev.WithBiasDisabled)
	}
	if cfg.Debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(cfg.Debounce))
	}

	line, err := w.chip.RequestLine(cfg.Pin, opts...)
	if err != nil {
		return fmt.Errorf("request pin %d: %w", cfg.Pin, err)
	}

	w.mu.Lock()
	w.lines = append(w.lines, line)
	w.mu.Unlock()
	return nil
}

// Close releases all lines and the chip.
// Lines are reconfigured as plain inputs first so they are left in a
// quiet state for whatever runs next.
func (w *RealWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for _, line := range w.lines {
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", line.Offset(), err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", line.Offset(), err))
		}
	}
	w.lines = nil

	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
