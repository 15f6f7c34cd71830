package router

import "sync"

// Direction is the outcome of one encoder detent.
type Direction uint8

const (
	Left Direction = iota + 1
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	default:
		return "NONE"
	}
}

// RotaryState is the decoder's view of pin A.
type RotaryState uint8

const (
	DirectionIdle RotaryState = iota
	DirectionLeftPending
)

// Decoder turns the two sensor pins of one encoder into rotation events.
// Pin A (low-edge sensor) only records its level; the rising edge of
// pin B (high-edge sensor) decides the direction from that level.
// The press pin is resolved like a button and never reaches the decoder.
type Decoder struct {
	mu    sync.Mutex
	state RotaryState
}

// State returns the current decoder state.
func (d *Decoder) State() RotaryState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SensorA handles a transition on pin A. It never emits a rotation.
func (d *Decoder) SensorA(level bool) {
	d.mu.Lock()
	if level {
		d.state = DirectionLeftPending
	} else {
		d.state = DirectionIdle
	}
	d.mu.Unlock()
}

// SensorB handles a transition on pin B. A rising edge completes a detent
// and returns its direction; a falling edge ends the turn and resets the
// decoder to idle.
func (d *Decoder) SensorB(level bool) (Direction, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !level {
		d.state = DirectionIdle
		return 0, false
	}
	if d.state == DirectionLeftPending {
		return Left, true
	}
	return Right, true
}
