package i2c

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*FakeBus)(nil)

// ErrNoDevice is returned by FakeBus for addresses nothing was attached to.
var ErrNoDevice = errors.New("i2c: no device at address")

// FakeBus is a scripted I2C bus of port expanders.
type FakeBus struct {
	mu      sync.Mutex
	devices map[uint16]*fakeDevice
}

type fakeDevice struct {
	values  []byte
	index   int // next value to read
	written []byte
	readErr error
}

// NewFakeBus creates an empty FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{devices: make(map[uint16]*fakeDevice)}
}

// Attach adds a device at addr that returns values on successive reads and
// repeats the last one once exhausted.
func (f *FakeBus) Attach(addr uint16, values ...byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[addr] = &fakeDevice{values: values}
}

// Queue appends values to a device's read script.
func (f *FakeBus) Queue(addr uint16, values ...byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.devices[addr]; ok {
		d.values = append(d.values, values...)
	}
}

// FailReads makes reads at addr return err until cleared with nil.
func (f *FakeBus) FailReads(addr uint16, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.devices[addr]; ok {
		d.readErr = err
	}
}

// Written returns every byte written to addr.
func (f *FakeBus) Written(addr uint16) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.devices[addr]; ok {
		return append([]byte(nil), d.written...)
	}
	return nil
}

// Tx implements drivers.I2C.
func (f *FakeBus) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, ok := f.devices[addr]
	if !ok {
		return ErrNoDevice
	}
	d.written = append(d.written, w...)
	if len(r) == 0 {
		return nil
	}
	if d.readErr != nil {
		return d.readErr
	}
	for i := range r {
		switch {
		case d.index < len(d.values):
			r[i] = d.values[d.index]
			d.index++
		case len(d.values) > 0:
			r[i] = d.values[len(d.values)-1]
		default:
			r[i] = IdleState
		}
	}
	return nil
}
