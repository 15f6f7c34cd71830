package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sweeney/panel-router/internal/topology"
)

// printTable writes the compiled action table, one row per pin.
func printTable(w io.Writer, table *topology.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PIN\tINPUT\tROLE\tCOMMANDS")
	for _, pin := range table.Pins() {
		e, _ := table.Lookup(pin)
		var cmds string
		switch e.Role {
		case topology.RoleToggle:
			cmds = "rise: " + joinSet(e.Rising) + "  fall: " + joinSet(e.Falling)
		case topology.RoleRotaryPulse:
			cmds = "left: " + joinSet(e.Action.Left) + "  right: " + joinSet(e.Action.Right)
		default:
			cmds = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", pin, e.Input, e.Role, cmds)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d inputs, %d pins\n", table.Inputs(), table.Len())
	return err
}

func joinSet(cmds topology.CommandSet) string {
	if len(cmds) == 0 {
		return "-"
	}
	return strings.Join(cmds, "; ")
}
