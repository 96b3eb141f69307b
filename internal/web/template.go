package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/bac-monitor/internal/status"
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
	"estimate": func(snap status.Snapshot) string {
		if !snap.HaveReading {
			return "—"
		}
		return fmt.Sprintf("%.3f", snap.LastEstimate)
	},
	"onOff": func(b bool) string {
		if b {
			return "RUNNING"
		}
		return "STOPPED"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>BAC Listener</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.started { color: green; font-weight: bold; }
.idle { color: #888; }
.running { color: green; }
.stopped { color: #888; }
</style>
</head>
<body>
<h1>BAC Listener</h1>
<table>
<tr><th>Last estimate</th><td>{{estimate .}}</td></tr>
<tr><th>Phase</th><td class="{{if eq (printf "%s" .Engine.Phase) "STARTED"}}started{{else}}idle{{end}}">{{.Engine.Phase}}</td></tr>
<tr><th>Server</th><td class="{{if .ServerRunning}}running{{else}}stopped{{end}}">{{onOff .ServerRunning}}</td></tr>
<tr><th>Consecutive above / below</th><td>{{.Engine.Above}} / {{.Engine.Below}}</td></tr>
<tr><th>Readings</th><td>{{.Engine.Readings}}</td></tr>
<tr><th>Starts / stops</th><td>{{.Engine.Starts}} / {{.Engine.Stops}}</td></tr>
<tr><th>Skipped lines</th><td>{{.SkippedLines}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
</table>
<h1>Config</h1>
<table>
<tr><th>Port</th><td>{{.Config.Port}} @ {{.Config.Baud}}</td></tr>
<tr><th>Threshold</th><td>{{printf "%.3f" .Config.Threshold}}</td></tr>
<tr><th>Consecutive start / stop</th><td>{{.Config.ConsecutiveStart}} / {{.Config.ConsecutiveStop}}</td></tr>
<tr><th>Auto stop</th><td>{{.Config.AutoStop}}</td></tr>
{{if .Config.ServerCmd}}<tr><th>Server command</th><td>{{.Config.ServerCmd}}</td></tr>{{end}}
{{if .Config.Broker}}<tr><th>MQTT broker</th><td>{{.Config.Broker}} ({{if .MQTTConnected}}connected{{else}}disconnected{{end}})</td></tr>{{end}}
</table>
<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	_ = indexTmpl.Execute(w, snap)
}
