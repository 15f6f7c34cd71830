package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/panel-router/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"bits": func(b byte) string {
		return fmt.Sprintf("%08b", b)
	},
	"hex": func(a uint16) string {
		return fmt.Sprintf("0x%02x", a)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Panel Router</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Panel Router</h1>

<h2>State</h2>
<table>
<tr><th>Activated</th><td id="activated" class="{{if .Activated}}on{{else}}off{{end}}">{{if .Activated}}yes{{else}}no{{end}}</td></tr>
<tr><th>Inputs</th><td>{{.Inputs}}</td></tr>
<tr><th>Table entries</th><td>{{.Entries}}</td></tr>
{{with .Last}}<tr><th>Last action</th><td>{{.Input}} {{.Trigger}} ({{.Pin}}){{if .Failed}} <span class="warn">{{.Failed}} failed</span>{{end}}</td></tr>{{end}}
</table>

<h2>Expanders</h2>
<table>
<tr><th>Expander</th><td>Register</td></tr>
{{range .Expanders}}<tr><th>{{.Index}} @ {{hex .Address}} (irq {{.Interrupt}})</th><td class="{{if not .Online}}disconnected{{else if .LastError}}warn{{end}}">{{if .Online}}{{bits .Last}} &middot; {{.Reads}} reads, {{.Errors}} errors{{else}}offline{{end}}</td></tr>
{{else}}<tr><th>none</th><td></td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>Transport</th><td>{{.Config.Transport}} {{.Config.Target}}</td></tr>
<tr><th>Timeout</th><td>{{.Config.TimeoutMs}}ms</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Edges</th><td>{{.Counts.Edges}}</td></tr>
<tr><th>Unknown pins</th><td>{{.Counts.Unknown}}</td></tr>
<tr><th>Actions</th><td>{{.Counts.Actions}}</td></tr>
<tr><th>Commands</th><td>{{.Counts.Commands}}</td></tr>
<tr><th>Failed</th><td>{{.Counts.Failed}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>GPIO chip</th><td>{{.Config.Chip}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
