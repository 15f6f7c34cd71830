package gpio

import (
	"fmt"
	"sync"
)

// FakeWatcher is a test double that lets tests drive edges by hand.
type FakeWatcher struct {
	mu       sync.Mutex
	handlers map[int]Handler
	configs  map[int]LineConfig

	// WatchError, if set, is returned by Watch for every pin.
	WatchError error

	// FailPins makes Watch fail for the listed pins only.
	FailPins map[int]error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeWatcher creates an empty FakeWatcher.
func NewFakeWatcher() *FakeWatcher {
	return &FakeWatcher{
		handlers: make(map[int]Handler),
		configs:  make(map[int]LineConfig),
		FailPins: make(map[int]error),
	}
}

// Watch records the handler for the pin.
func (f *FakeWatcher) Watch(cfg LineConfig, h Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WatchError != nil {
		return f.WatchError
	}
	if err := f.FailPins[cfg.Pin]; err != nil {
		return err
	}
	if _, dup := f.handlers[cfg.Pin]; dup {
		return fmt.Errorf("request pin %d: line busy", cfg.Pin)
	}
	f.handlers[cfg.Pin] = h
	f.configs[cfg.Pin] = cfg
	return nil
}

// Trigger delivers an edge to the pin's handler. It reports false if the
// pin is not watched.
func (f *FakeWatcher) Trigger(pin int, level bool) bool {
	f.mu.Lock()
	h, ok := f.handlers[pin]
	f.mu.Unlock()
	if !ok {
		return false
	}
	h(Edge{Pin: pin, Level: level})
	return true
}

// Config returns the configuration a pin was watched with.
func (f *FakeWatcher) Config(pin int) (LineConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[pin]
	return cfg, ok
}

// Pins returns the number of watched pins.
func (f *FakeWatcher) Pins() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

// Close drops all handlers.
func (f *FakeWatcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = make(map[int]Handler)
	f.Closed = true
	return nil
}
