package i2c

import (
	"bytes"
	"errors"
	"testing"
)

func TestExpanderPrime(t *testing.T) {
	bus := NewFakeBus()
	bus.Attach(0x21)

	x := NewExpander(bus, 0x21)
	if err := x.Prime(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := bus.Written(0x21); !bytes.Equal(got, []byte{0xFF}) {
		t.Errorf("written %x, want ff", got)
	}
	if x.Addr() != 0x21 {
		t.Errorf("Addr = %#x", x.Addr())
	}
}

func TestExpanderReadRegister(t *testing.T) {
	bus := NewFakeBus()
	bus.Attach(0x20, 0xFE, 0x7F)

	x := NewExpander(bus, 0x20)
	for i, want := range []byte{0xFE, 0x7F, 0x7F} {
		got, err := x.ReadRegister()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("read %d: got %02x, want %02x", i, got, want)
		}
	}
}

func TestExpanderReadDefaultsToIdle(t *testing.T) {
	bus := NewFakeBus()
	bus.Attach(0x20)

	got, err := NewExpander(bus, 0x20).ReadRegister()
	if err != nil || got != IdleState {
		t.Errorf("got %02x, %v; want ff, nil", got, err)
	}
}

func TestExpanderErrors(t *testing.T) {
	bus := NewFakeBus()

	if err := NewExpander(bus, 0x22).Prime(); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Prime on missing device: got %v", err)
	}

	bus.Attach(0x21, 0x00)
	sim := errors.New("simulated nack")
	bus.FailReads(0x21, sim)
	if _, err := NewExpander(bus, 0x21).ReadRegister(); !errors.Is(err, sim) {
		t.Errorf("expected simulated error, got %v", err)
	}

	bus.FailReads(0x21, nil)
	got, err := NewExpander(bus, 0x21).ReadRegister()
	if err != nil || got != 0x00 {
		t.Errorf("after clearing: got %02x, %v", got, err)
	}
}

func TestFakeBusQueueAfterExhausted(t *testing.T) {
	bus := NewFakeBus()
	bus.Attach(0x21, 0xFE)
	x := NewExpander(bus, 0x21)

	x.ReadRegister()
	bus.Queue(0x21, 0xFF)

	if got, _ := x.ReadRegister(); got != 0xFF {
		t.Errorf("queued value: got %02x, want ff", got)
	}
}
