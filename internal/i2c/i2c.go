// Package i2c talks to 8-bit I2C port expanders (PCF8574 family).
//
// Devices are driven through the tinygo drivers.I2C interface so the same
// code runs against a Linux /dev/i2c-N bus or a scripted fake.
package i2c

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"
)

// IdleState is written to every port on startup. Writing 1 turns a
// quasi-bidirectional port into a weakly pulled-up input.
const IdleState byte = 0xFF

// ErrUnsupported is returned where no I2C character device exists.
var ErrUnsupported = errors.New("i2c: not supported on this platform (requires Linux)")

// Expander is one port expander on a bus.
type Expander struct {
	bus  drivers.I2C
	addr uint16
}

// NewExpander returns an Expander at the 7-bit address addr.
func NewExpander(bus drivers.I2C, addr uint16) *Expander {
	return &Expander{bus: bus, addr: addr}
}

// Addr returns the device address.
func (e *Expander) Addr() uint16 {
	return e.addr
}

// Prime writes IdleState so every port acts as an input and reads high
// until pulled low.
func (e *Expander) Prime() error {
	if err := e.bus.Tx(e.addr, []byte{IdleState}, nil); err != nil {
		return fmt.Errorf("prime 0x%02x: %w", e.addr, err)
	}
	return nil
}

// ReadRegister reads the input register. Bit n is port n.
// Reading also clears the device's pending interrupt.
func (e *Expander) ReadRegister() (byte, error) {
	var buf [1]byte
	if err := e.bus.Tx(e.addr, nil, buf[:]); err != nil {
		return 0, fmt.Errorf("read 0x%02x: %w", e.addr, err)
	}
	return buf[0], nil
}
