package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/smart-stroller/internal/logic"
	"github.com/sweeney/smart-stroller/internal/status"
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
	"onOff": func(v bool) string {
		if v {
			return "ON"
		}
		return "OFF"
	},
	"brake": func(released bool) string {
		if released {
			return "RELEASED"
		}
		return "APPLIED"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Smart Stroller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.fault { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Smart Stroller</h1>
{{if .Fault}}<p class="fault">FAULT: {{.Fault}}</p>{{end}}

<h2>Inputs</h2>
<table>
<tr><th>Left grip</th><td class="{{if .State.Snapshot.LeftTouch}}on{{else}}off{{end}}">{{onOff .State.Snapshot.LeftTouch}}</td></tr>
<tr><th>Right grip</th><td class="{{if .State.Snapshot.RightTouch}}on{{else}}off{{end}}">{{onOff .State.Snapshot.RightTouch}}</td></tr>
<tr><th>Left pad</th><td class="{{if .State.Snapshot.LeftTurn}}on{{else}}off{{end}}">{{onOff .State.Snapshot.LeftTurn}}</td></tr>
<tr><th>Right pad</th><td class="{{if .State.Snapshot.RightTurn}}on{{else}}off{{end}}">{{onOff .State.Snapshot.RightTurn}}</td></tr>
</table>

<h2>Outputs</h2>
<table>
<tr><th>Brake</th><td id="brake" class="{{if .State.Actuators.Brake}}on{{else}}off{{end}}">{{brake .State.Actuators.Brake}}</td></tr>
<tr><th>Left LED</th><td class="{{if .State.Actuators.LeftLED}}on{{else}}off{{end}}">{{onOff .State.Actuators.LeftLED}}</td></tr>
<tr><th>Right LED</th><td class="{{if .State.Actuators.RightLED}}on{{else}}off{{end}}">{{onOff .State.Actuators.RightLED}}</td></tr>
<tr><th>Signal mode</th><td id="mode">{{.Mode}}</td></tr>
</table>

<h2>Telemetry</h2>
<table>
<tr><th>Collector</th><td>{{.Config.Collector}}</td></tr>
<tr><th>Failed deliveries</th><td>{{.TelemetryFailures}}</td></tr>
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} / {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
{{range .Counts}}<tr><th>{{.Label}}</th><td>{{.Count}}</td></tr>
{{end}}</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Ticks</th><td>{{.Ticks}}</td></tr>
<tr><th>Period</th><td>{{.Config.PeriodMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Chip</th><td>{{.Config.Chip}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

type labelCount struct {
	Label string
	Count int
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Template needs fields, not methods with arguments, so derive them here.
	counts := make([]labelCount, 0, len(logic.Labels))
	for _, l := range logic.Labels {
		counts = append(counts, labelCount{Label: string(l), Count: snap.Counts[l]})
	}

	data := struct {
		status.Snapshot
		Uptime time.Duration
		Mode   logic.SignalMode
		Counts []labelCount
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Mode:     snap.Mode(),
		Counts:   counts,
	}
	indexTmpl.Execute(w, data)
}
