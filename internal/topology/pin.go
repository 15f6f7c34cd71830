package topology

import "fmt"

// VirtualStride separates the virtual pin ranges of consecutive expanders.
const VirtualStride = 100

// SubPins is the number of input lines on one port expander.
const SubPins = 8

// PinKind tags the addressing space a PinID belongs to.
type PinKind uint8

const (
	KindGPIO PinKind = iota + 1
	KindVirtual
)

// PinID identifies an interrupt source: either a raw GPIO line or a
// synthesized expander sub-pin. The kind is part of the identity, so a
// virtual id never collides with a GPIO line of the same number.
type PinID struct {
	Kind PinKind
	Num  int
}

// GPIO returns the identity of a direct GPIO line.
func GPIO(pin int) PinID {
	return PinID{Kind: KindGPIO, Num: pin}
}

// Virtual returns the identity of sub-pin subPin (1..8) on expander
// (1-based). The number is expander*100 + subPin.
func Virtual(expander, subPin int) PinID {
	return PinID{Kind: KindVirtual, Num: expander*VirtualStride + subPin}
}

// Expander splits a virtual id into its expander index and sub-pin.
// ok is false for GPIO ids.
func (p PinID) Expander() (expander, subPin int, ok bool) {
	if p.Kind != KindVirtual {
		return 0, 0, false
	}
	return p.Num / VirtualStride, p.Num % VirtualStride, true
}

func (p PinID) String() string {
	switch p.Kind {
	case KindGPIO:
		return fmt.Sprintf("gpio%d", p.Num)
	case KindVirtual:
		return fmt.Sprintf("v%d", p.Num)
	default:
		return fmt.Sprintf("pin?%d", p.Num)
	}
}

// less orders GPIO ids before virtual ids, then by number.
func (p PinID) less(o PinID) bool {
	if p.Kind != o.Kind {
		return p.Kind < o.Kind
	}
	return p.Num < o.Num
}
