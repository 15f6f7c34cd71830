// Package topology contains the static description of a control panel's
// physical inputs and compiles it into a flat, read-only action table.
// This package has NO external dependencies (no GPIO, I2C, network or logging).
package topology

import "fmt"

// Class is the kind of physical input.
type Class string

const (
	ClassButton Class = "button"
	ClassSwitch Class = "switch"
	ClassRotary Class = "rotary"
)

// Side is the half of the panel an input is mounted on.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Key identifies one logical input by class, side and ordinal.
type Key struct {
	Class Class
	Side  Side
	Index int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Class, k.Side, k.Index)
}

// Addressing describes how an input is wired to the controller.
// The concrete types are Direct, Expanded and RotaryPins.
type Addressing interface {
	addressing()
	String() string
}

// Direct is an input wired straight to a GPIO line.
type Direct struct {
	Pin int
}

// Expanded is an input behind an I2C port expander.
// Expander is 1-based, SubPin is in [1,8].
type Expanded struct {
	Expander int
	SubPin   int
}

// RotaryPins are the three GPIO lines of a rotary encoder.
// Left is the low-edge sensor (pin A), Right the high-edge sensor (pin B).
type RotaryPins struct {
	Left  int
	Right int
	Press int
}

func (Direct) addressing()     {}
func (Expanded) addressing()   {}
func (RotaryPins) addressing() {}

func (a Direct) String() string { return fmt.Sprintf("gpio(%d)", a.Pin) }
func (a Expanded) String() string {
	return fmt.Sprintf("expander(%d,%d)", a.Expander, a.SubPin)
}
func (a RotaryPins) String() string {
	return fmt.Sprintf("rotary(%d,%d,%d)", a.Left, a.Right, a.Press)
}

// InputSpec is one physical input.
type InputSpec struct {
	Class      Class
	Side       Side
	Index      int
	Addressing Addressing
}

// Key returns the logical identity of the input.
func (s InputSpec) Key() Key {
	return Key{Class: s.Class, Side: s.Side, Index: s.Index}
}

// CommandSet is an ordered list of commands issued for one edge.
// An empty set is a no-op.
type CommandSet []string

// ActionSpec holds the commands bound to one input.
// Buttons and switches use On and Off; rotaries use Left, Right and Press.
type ActionSpec struct {
	Class Class
	Side  Side
	Index int

	On  CommandSet
	Off CommandSet

	Left  CommandSet
	Right CommandSet
	Press CommandSet
}

// Key returns the logical identity of the input the action belongs to.
func (a ActionSpec) Key() Key {
	return Key{Class: a.Class, Side: a.Side, Index: a.Index}
}
