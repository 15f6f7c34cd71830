package topology

import (
	"errors"
	"reflect"
	"testing"
)

func testPanel() ([]InputSpec, []ActionSpec) {
	inputs := []InputSpec{
		{Class: ClassButton, Side: SideLeft, Index: 0, Addressing: Expanded{Expander: 1, SubPin: 1}},
		{Class: ClassButton, Side: SideLeft, Index: 1, Addressing: Direct{Pin: 5}},
		{Class: ClassSwitch, Side: SideLeft, Index: 0, Addressing: Expanded{Expander: 1, SubPin: 7}},
		{Class: ClassSwitch, Side: SideRight, Index: 0, Addressing: Direct{Pin: 6}},
		{Class: ClassRotary, Side: SideLeft, Index: 0, Addressing: RotaryPins{Left: 7, Right: 25, Press: 8}},
	}
	actions := []ActionSpec{
		{Class: ClassButton, Side: SideLeft, Index: 0, On: CommandSet{"sounds/Schnapps/play"}},
		{Class: ClassButton, Side: SideLeft, Index: 1, On: CommandSet{"lights/Strobe/start"}, Off: CommandSet{"lights/Strobe/stop"}},
		{Class: ClassSwitch, Side: SideLeft, Index: 0, On: CommandSet{"sounds/Polizei/loop"}, Off: CommandSet{"sounds/Polizei/unloop"}},
		{Class: ClassSwitch, Side: SideRight, Index: 0, On: CommandSet{"lights/Battle/start"}, Off: CommandSet{"lights/Battle/stop"}},
		{Class: ClassRotary, Side: SideLeft, Index: 0,
			Left:  CommandSet{"system/volume/-5", "system/intensity/-5"},
			Right: CommandSet{"system/volume/5"},
			Press: CommandSet{"music/next"}},
	}
	return inputs, actions
}

func TestVirtualPinAllocation(t *testing.T) {
	tests := []struct {
		expander, sub int
		want          int
	}{
		{1, 1, 101},
		{1, 8, 108},
		{2, 1, 201},
		{2, 8, 208},
	}
	for _, tt := range tests {
		p := Virtual(tt.expander, tt.sub)
		if p.Kind != KindVirtual || p.Num != tt.want {
			t.Errorf("Virtual(%d,%d) = %v, want v%d", tt.expander, tt.sub, p, tt.want)
		}
		x, s, ok := p.Expander()
		if !ok || x != tt.expander || s != tt.sub {
			t.Errorf("Expander() = (%d,%d,%v), want (%d,%d,true)", x, s, ok, tt.expander, tt.sub)
		}
	}
}

func TestPinKindsNeverCollide(t *testing.T) {
	// A GPIO line numbered like a virtual pin must still be distinct.
	if GPIO(101) == Virtual(1, 1) {
		t.Fatal("GPIO(101) and Virtual(1,1) compare equal")
	}
	if _, _, ok := GPIO(101).Expander(); ok {
		t.Error("GPIO id reported an expander")
	}
	if GPIO(17).String() != "gpio17" || Virtual(2, 3).String() != "v203" {
		t.Errorf("unexpected names %s %s", GPIO(17), Virtual(2, 3))
	}
}

func TestCompileTable(t *testing.T) {
	inputs, actions := testPanel()
	table, err := Compile(inputs, actions)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// 2 buttons + 2 switches + 3 rotary pins
	if table.Len() != 7 {
		t.Errorf("Len = %d, want 7", table.Len())
	}
	if table.Inputs() != 5 {
		t.Errorf("Inputs = %d, want 5", table.Inputs())
	}
	if got := table.Expanders(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Expanders = %v, want [1]", got)
	}
	if got := table.GPIOPins(); !reflect.DeepEqual(got, []int{5, 6, 7, 8, 25}) {
		t.Errorf("GPIOPins = %v", got)
	}
	if got := table.Encoders(); len(got) != 1 || got[0] != (Key{ClassRotary, SideLeft, 0}) {
		t.Errorf("Encoders = %v", got)
	}

	e, ok := table.Lookup(Virtual(1, 1))
	if !ok {
		t.Fatal("v101 missing")
	}
	if e.Role != RoleToggle || e.Input != (Key{ClassButton, SideLeft, 0}) {
		t.Errorf("v101 entry = %+v", e)
	}

	if _, ok := table.Lookup(GPIO(101)); ok {
		t.Error("gpio101 should not resolve to the expander entry")
	}
}

func TestButtonPolarity(t *testing.T) {
	inputs, actions := testPanel()
	table, err := Compile(inputs, actions)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	e, _ := table.Lookup(GPIO(5))
	if got := e.Resolve(true); !reflect.DeepEqual(got, CommandSet{"lights/Strobe/start"}) {
		t.Errorf("rising = %v, want on set", got)
	}
	if got := e.Resolve(false); !reflect.DeepEqual(got, CommandSet{"lights/Strobe/stop"}) {
		t.Errorf("falling = %v, want off set", got)
	}

	e, _ = table.Lookup(Virtual(1, 1))
	if got := e.Resolve(false); len(got) != 0 {
		t.Errorf("falling on button without off set = %v, want empty", got)
	}
}

func TestSwitchPolarityInverted(t *testing.T) {
	inputs, actions := testPanel()
	table, err := Compile(inputs, actions)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	for _, pin := range []PinID{Virtual(1, 7), GPIO(6)} {
		e, ok := table.Lookup(pin)
		if !ok {
			t.Fatalf("%s missing", pin)
		}
		if !reflect.DeepEqual(e.Resolve(true), e.Action.Off) {
			t.Errorf("%s rising = %v, want second declared set %v", pin, e.Resolve(true), e.Action.Off)
		}
		if !reflect.DeepEqual(e.Resolve(false), e.Action.On) {
			t.Errorf("%s falling = %v, want first declared set %v", pin, e.Resolve(false), e.Action.On)
		}
	}
}

func TestRotaryInsertedUnderAllPins(t *testing.T) {
	inputs, actions := testPanel()
	table, err := Compile(inputs, actions)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	roles := map[int]Role{7: RoleRotaryDirection, 25: RoleRotaryPulse, 8: RoleToggle}
	for pin, role := range roles {
		e, ok := table.Lookup(GPIO(pin))
		if !ok {
			t.Fatalf("gpio%d missing", pin)
		}
		if e.Role != role {
			t.Errorf("gpio%d role = %s, want %s", pin, e.Role, role)
		}
		if !reflect.DeepEqual(e.Action, actions[4]) {
			t.Errorf("gpio%d action differs from declared rotary action", pin)
		}
	}

	press, _ := table.Lookup(GPIO(8))
	if !reflect.DeepEqual(press.Resolve(true), CommandSet{"music/next"}) {
		t.Errorf("press rising = %v", press.Resolve(true))
	}
	if len(press.Resolve(false)) != 0 {
		t.Errorf("press falling = %v, want empty", press.Resolve(false))
	}
}

func TestCompileErrors(t *testing.T) {
	button := func(idx int, addr Addressing) InputSpec {
		return InputSpec{Class: ClassButton, Side: SideLeft, Index: idx, Addressing: addr}
	}
	buttonAction := func(idx int) ActionSpec {
		return ActionSpec{Class: ClassButton, Side: SideLeft, Index: idx, On: CommandSet{"x"}}
	}

	tests := []struct {
		name    string
		inputs  []InputSpec
		actions []ActionSpec
		want    error
	}{
		{
			name:    "action without input",
			inputs:  []InputSpec{button(0, Direct{Pin: 4})},
			actions: []ActionSpec{buttonAction(0), buttonAction(1)},
			want:    ErrShapeMismatch,
		},
		{
			name:    "input without action",
			inputs:  []InputSpec{button(0, Direct{Pin: 4}), button(1, Direct{Pin: 5})},
			actions: []ActionSpec{buttonAction(0)},
			want:    ErrShapeMismatch,
		},
		{
			name:    "duplicate input",
			inputs:  []InputSpec{button(0, Direct{Pin: 4}), button(0, Direct{Pin: 5})},
			actions: []ActionSpec{buttonAction(0)},
			want:    ErrShapeMismatch,
		},
		{
			name:    "duplicate action",
			inputs:  []InputSpec{button(0, Direct{Pin: 4})},
			actions: []ActionSpec{buttonAction(0), buttonAction(0)},
			want:    ErrShapeMismatch,
		},
		{
			name:   "button with rotary commands",
			inputs: []InputSpec{button(0, Direct{Pin: 4})},
			actions: []ActionSpec{
				{Class: ClassButton, Side: SideLeft, Index: 0, Left: CommandSet{"x"}},
			},
			want: ErrShapeMismatch,
		},
		{
			name:    "sub pin out of range",
			inputs:  []InputSpec{button(0, Expanded{Expander: 1, SubPin: 9})},
			actions: []ActionSpec{buttonAction(0)},
			want:    ErrInvalidAddressing,
		},
		{
			name:    "expander zero",
			inputs:  []InputSpec{button(0, Expanded{Expander: 0, SubPin: 1})},
			actions: []ActionSpec{buttonAction(0)},
			want:    ErrInvalidAddressing,
		},
		{
			name:    "nil addressing",
			inputs:  []InputSpec{button(0, nil)},
			actions: []ActionSpec{buttonAction(0)},
			want:    ErrInvalidAddressing,
		},
		{
			name:    "button with rotary pins",
			inputs:  []InputSpec{button(0, RotaryPins{Left: 1, Right: 2, Press: 3})},
			actions: []ActionSpec{buttonAction(0)},
			want:    ErrInvalidAddressing,
		},
		{
			name: "rotary on direct pin",
			inputs: []InputSpec{
				{Class: ClassRotary, Side: SideLeft, Index: 0, Addressing: Direct{Pin: 4}},
			},
			actions: []ActionSpec{{Class: ClassRotary, Side: SideLeft, Index: 0}},
			want:    ErrInvalidAddressing,
		},
		{
			name:    "two inputs on one pin",
			inputs:  []InputSpec{button(0, Direct{Pin: 4}), button(1, Direct{Pin: 4})},
			actions: []ActionSpec{buttonAction(0), buttonAction(1)},
			want:    ErrDuplicatePin,
		},
		{
			name: "rotary sharing a button pin",
			inputs: []InputSpec{
				button(0, Direct{Pin: 8}),
				{Class: ClassRotary, Side: SideLeft, Index: 0, Addressing: RotaryPins{Left: 7, Right: 25, Press: 8}},
			},
			actions: []ActionSpec{buttonAction(0), {Class: ClassRotary, Side: SideLeft, Index: 0}},
			want:    ErrDuplicatePin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.inputs, tt.actions)
			if !errors.Is(err, tt.want) {
				t.Errorf("Compile error = %v, want %v", err, tt.want)
			}
		})
	}
}
