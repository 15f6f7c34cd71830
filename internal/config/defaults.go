package config

// DefaultExpanders returns the two expanders of the stock panel on bus 1.
func DefaultExpanders() []Expander {
	return []Expander{
		{Index: 1, Bus: 1, Address: 0x21, Interrupt: 17},
		{Index: 2, Bus: 1, Address: 0x20, Interrupt: 27},
	}
}

// DefaultInputs returns the stock panel: six buttons and two switches per
// side behind the expanders, and one rotary encoder per side.
func DefaultInputs() []Input {
	var inputs []Input
	for e, side := range []string{"left", "right"} {
		for i := 0; i < 6; i++ {
			inputs = append(inputs, Input{
				Class: "button", Side: side, Index: i,
				Addressing: AddrExpander, Expander: e + 1, SubPin: i + 1,
			})
		}
		for i := 0; i < 2; i++ {
			inputs = append(inputs, Input{
				Class: "switch", Side: side, Index: i,
				Addressing: AddrExpander, Expander: e + 1, SubPin: i + 7,
			})
		}
	}
	inputs = append(inputs,
		Input{Class: "rotary", Side: "left", Index: 0, Addressing: AddrRotary, Pins: []int{7, 25, 8}},
		Input{Class: "rotary", Side: "right", Index: 0, Addressing: AddrRotary, Pins: []int{9, 11, 10}},
	)
	return inputs
}

// DefaultActions returns the command sets of the stock panel.
// Buttons are active-low, so a press is a falling edge and fires Off.
func DefaultActions() []Action {
	play := func(name string) []string { return []string{`sounds play "` + name + `"`} }
	return []Action{
		{Class: "button", Side: "left", Index: 0, Off: play("Schnapps")},
		{Class: "button", Side: "left", Index: 1, Off: play("Abfahrt")},
		{Class: "button", Side: "left", Index: 2, Off: play("Airhorn")},
		{Class: "button", Side: "left", Index: 3, Off: play("Big Shaq")},
		{Class: "button", Side: "left", Index: 4, Off: play("Asozial")},
		{Class: "button", Side: "left", Index: 5,
			On: []string{`lights stop "flash"`}, Off: []string{`lights start "flash"`}},

		{Class: "switch", Side: "left", Index: 0,
			On: []string{`sounds loop "Polizei"`}, Off: []string{`sounds unloop "Polizei"`}},
		{Class: "switch", Side: "left", Index: 1,
			On: []string{`lights start "blaulicht"`}, Off: []string{`lights stop "blaulicht"`}},

		{Class: "rotary", Side: "left", Index: 0,
			Left:  []string{"music change-volume -5"},
			Right: []string{"music change-volume 5"},
			Press: []string{"music skip"}},

		{Class: "button", Side: "right", Index: 0, Off: play("Ok Prost")},
		{Class: "button", Side: "right", Index: 1, Off: play("Lass mal einen saufen")},
		{Class: "button", Side: "right", Index: 2, Off: play("Kenning West")},
		{Class: "button", Side: "right", Index: 3, Off: play("Hey, geh weg!")},
		{Class: "button", Side: "right", Index: 4,
			On: []string{`lights stop "flash"`}, Off: []string{`lights start "flash"`}},
		{Class: "button", Side: "right", Index: 5, Off: play("Abfahrt")},

		{Class: "switch", Side: "right", Index: 0,
			On: []string{`sounds loop "Pokemon Battle"`}, Off: []string{`sounds unloop "Pokemon Battle"`}},
		{Class: "switch", Side: "right", Index: 1,
			On: []string{`lights start "bierpong"`}, Off: []string{`lights stop "bierpong"`}},

		{Class: "rotary", Side: "right", Index: 0,
			Left:  []string{"music change-rng -5", "lights change-intensity -5"},
			Right: []string{"music change-rng 5", "lights change-intensity 5"},
			Press: play("Assi Toni")},
	}
}
