//go:build linux

package i2c

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ioctl request to bind a file descriptor to a slave address.
const i2cSlave = 0x0703

// Bus is a Linux I2C adapter opened through /dev/i2c-N.
type Bus struct {
	path string

	mu    sync.Mutex
	fd    int
	bound uint16
}

// Open opens /dev/i2c-<n> for reading and writing.
func Open(n int) (*Bus, error) {
	path := fmt.Sprintf("/dev/i2c-%d", n)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Bus{path: path, fd: fd, bound: 0xFFFF}, nil
}

// Tx binds addr, writes w and then reads len(r) bytes. Either may be empty.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fd < 0 {
		return fmt.Errorf("%s: bus closed", b.path)
	}
	if b.bound != addr {
		if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("%s: set address 0x%02x: %w", b.path, addr, err)
		}
		b.bound = addr
	}

	if len(w) > 0 {
		n, err := unix.Write(b.fd, w)
		if err != nil {
			return fmt.Errorf("%s: write: %w", b.path, err)
		}
		if n != len(w) {
			return fmt.Errorf("%s: short write (%d/%d)", b.path, n, len(w))
		}
	}
	if len(r) > 0 {
		n, err := unix.Read(b.fd, r)
		if err != nil {
			return fmt.Errorf("%s: read: %w", b.path, err)
		}
		if n != len(r) {
			return fmt.Errorf("%s: short read (%d/%d)", b.path, n, len(r))
		}
	}
	return nil
}

// Close releases the adapter.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}
