package topology

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrShapeMismatch is returned when inputs and actions do not describe
	// the same set of class/side/index slots.
	ErrShapeMismatch = errors.New("topology: input and action shapes differ")

	// ErrInvalidAddressing is returned for addressing that is malformed or
	// not supported for the input's class.
	ErrInvalidAddressing = errors.New("topology: invalid addressing")

	// ErrDuplicatePin is returned when two inputs claim the same pin.
	ErrDuplicatePin = errors.New("topology: pin assigned twice")
)

// Role tells the router which handler a table entry feeds.
type Role uint8

const (
	// RoleToggle resolves an edge to the Rising or Falling set.
	RoleToggle Role = iota + 1
	// RoleRotaryDirection is pin A of an encoder; it only updates state.
	RoleRotaryDirection
	// RoleRotaryPulse is pin B of an encoder; its rising edge emits a rotation.
	RoleRotaryPulse
)

func (r Role) String() string {
	switch r {
	case RoleToggle:
		return "toggle"
	case RoleRotaryDirection:
		return "direction"
	case RoleRotaryPulse:
		return "pulse"
	default:
		return "unknown"
	}
}

// Entry is the action bound to one pin.
type Entry struct {
	Input  Key
	Role   Role
	Action ActionSpec

	// Rising and Falling are seeded at compile time for RoleToggle entries.
	// Switches get the declared sets in reverse order relative to buttons.
	Rising  CommandSet
	Falling CommandSet
}

// Resolve returns the command set for an edge on a toggle entry.
func (e Entry) Resolve(level bool) CommandSet {
	if level {
		return e.Rising
	}
	return e.Falling
}

// Table maps pin identities to actions. It is immutable after Compile and
// safe for concurrent readers.
type Table struct {
	entries   map[PinID]Entry
	encoders  []Key
	expanders []int
	inputs    int
}

// Lookup returns the entry for pin.
func (t *Table) Lookup(pin PinID) (Entry, bool) {
	e, ok := t.entries[pin]
	return e, ok
}

// Len returns the number of pin entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Inputs returns the number of logical inputs the table was built from.
func (t *Table) Inputs() int {
	return t.inputs
}

// Pins returns all pins in the table, GPIO lines first, in ascending order.
func (t *Table) Pins() []PinID {
	pins := make([]PinID, 0, len(t.entries))
	for p := range t.entries {
		pins = append(pins, p)
	}
	sort.Slice(pins, func(i, j int) bool { return pins[i].less(pins[j]) })
	return pins
}

// GPIOPins returns the direct GPIO lines that need an edge handler.
func (t *Table) GPIOPins() []int {
	var out []int
	for _, p := range t.Pins() {
		if p.Kind == KindGPIO {
			out = append(out, p.Num)
		}
	}
	return out
}

// Encoders returns the keys of all rotary encoders.
func (t *Table) Encoders() []Key {
	return append([]Key(nil), t.encoders...)
}

// Expanders returns the expander indices referenced by inputs, ascending.
func (t *Table) Expanders() []int {
	return append([]int(nil), t.expanders...)
}

// Compile validates that inputs and actions have the same shape and builds
// the flat action table. Any error is a fatal configuration error.
func Compile(inputs []InputSpec, actions []ActionSpec) (*Table, error) {
	byKey := make(map[Key]ActionSpec, len(actions))
	for _, a := range actions {
		k := a.Key()
		if _, dup := byKey[k]; dup {
			return nil, fmt.Errorf("%w: action %s defined twice", ErrShapeMismatch, k)
		}
		if err := checkActionShape(a); err != nil {
			return nil, err
		}
		byKey[k] = a
	}

	t := &Table{
		entries: make(map[PinID]Entry),
		inputs:  len(inputs),
	}
	seen := make(map[Key]bool, len(inputs))
	expanders := make(map[int]bool)

	for _, in := range inputs {
		k := in.Key()
		if seen[k] {
			return nil, fmt.Errorf("%w: input %s defined twice", ErrShapeMismatch, k)
		}
		seen[k] = true

		action, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("%w: input %s has no action", ErrShapeMismatch, k)
		}

		switch addr := in.Addressing.(type) {
		case Direct:
			if in.Class == ClassRotary {
				return nil, fmt.Errorf("%w: %s needs rotary pins, got %s", ErrInvalidAddressing, k, addr)
			}
			if addr.Pin < 0 {
				return nil, fmt.Errorf("%w: %s has negative pin %d", ErrInvalidAddressing, k, addr.Pin)
			}
			if err := t.insert(GPIO(addr.Pin), toggleEntry(k, action)); err != nil {
				return nil, err
			}

		case Expanded:
			if in.Class == ClassRotary {
				return nil, fmt.Errorf("%w: %s needs rotary pins, got %s", ErrInvalidAddressing, k, addr)
			}
			if addr.Expander < 1 || addr.SubPin < 1 || addr.SubPin > SubPins {
				return nil, fmt.Errorf("%w: %s has %s", ErrInvalidAddressing, k, addr)
			}
			if err := t.insert(Virtual(addr.Expander, addr.SubPin), toggleEntry(k, action)); err != nil {
				return nil, err
			}
			expanders[addr.Expander] = true

		case RotaryPins:
			if in.Class != ClassRotary {
				return nil, fmt.Errorf("%w: %s is a %s, got %s", ErrInvalidAddressing, k, in.Class, addr)
			}
			if addr.Left < 0 || addr.Right < 0 || addr.Press < 0 {
				return nil, fmt.Errorf("%w: %s has negative pin in %s", ErrInvalidAddressing, k, addr)
			}
			// One encoder drives three interrupt sources that all resolve
			// back to the same action.
			parts := []struct {
				pin   int
				entry Entry
			}{
				{addr.Left, Entry{Input: k, Role: RoleRotaryDirection, Action: action}},
				{addr.Right, Entry{Input: k, Role: RoleRotaryPulse, Action: action}},
				{addr.Press, Entry{Input: k, Role: RoleToggle, Action: action, Rising: action.Press}},
			}
			for _, p := range parts {
				if err := t.insert(GPIO(p.pin), p.entry); err != nil {
					return nil, err
				}
			}
			t.encoders = append(t.encoders, k)

		default:
			return nil, fmt.Errorf("%w: %s has unsupported addressing %T", ErrInvalidAddressing, k, in.Addressing)
		}
	}

	for k := range byKey {
		if !seen[k] {
			return nil, fmt.Errorf("%w: action %s has no input", ErrShapeMismatch, k)
		}
	}

	for idx := range expanders {
		t.expanders = append(t.expanders, idx)
	}
	sort.Ints(t.expanders)
	sort.Slice(t.encoders, func(i, j int) bool { return t.encoders[i].String() < t.encoders[j].String() })

	return t, nil
}

func (t *Table) insert(pin PinID, e Entry) error {
	if prev, ok := t.entries[pin]; ok {
		return fmt.Errorf("%w: %s used by %s and %s", ErrDuplicatePin, pin, prev.Input, e.Input)
	}
	t.entries[pin] = e
	return nil
}

// toggleEntry seeds the edge sets. Buttons fire On on a rising edge;
// switches are wired with the opposite polarity and fire the second
// declared set (Off) on a rising edge.
func toggleEntry(k Key, a ActionSpec) Entry {
	e := Entry{Input: k, Role: RoleToggle, Action: a}
	if k.Class == ClassSwitch {
		e.Rising, e.Falling = a.Off, a.On
	} else {
		e.Rising, e.Falling = a.On, a.Off
	}
	return e
}

func checkActionShape(a ActionSpec) error {
	k := a.Key()
	switch a.Class {
	case ClassButton, ClassSwitch:
		if len(a.Left) > 0 || len(a.Right) > 0 || len(a.Press) > 0 {
			return fmt.Errorf("%w: %s carries rotary commands", ErrShapeMismatch, k)
		}
	case ClassRotary:
		if len(a.On) > 0 || len(a.Off) > 0 {
			return fmt.Errorf("%w: %s carries on/off commands", ErrShapeMismatch, k)
		}
	default:
		return fmt.Errorf("%w: unknown class %q", ErrShapeMismatch, a.Class)
	}
	return nil
}
