package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
	"github.com/elzekool/mqtt-fireplace-control/internal/status"
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
	"modeOrUnknown": func(m logic.HeaterMode) string {
		if m == "" {
			return "UNKNOWN"
		}
		return string(m)
	},
	"modeClass": func(m logic.HeaterMode) string {
		switch {
		case m == "":
			return "unknown"
		case m == logic.ModeOff:
			return "off"
		case m.Transitional():
			return "pending"
		}
		return "on"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Fireplace</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.pending { color: orange; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Fireplace</h1>

<h2>Heater</h2>
<table>
<tr><th>Mode</th><td id="heater-mode" class="{{modeClass .Heater.Current}}">{{modeOrUnknown .Heater.Current}}</td></tr>
<tr><th>Requested</th><td>{{modeOrUnknown .Heater.Requested}}</td></tr>
{{if .Heater.Current.Transitional}}<tr><th>Settles at</th><td>{{.Heater.Deadline.UTC.Format "15:04:05.000Z"}}</td></tr>{{end}}
</table>

<h2>Light</h2>
<table>
<tr><th>State</th><td id="light-state" class="{{if not .Ready}}unknown{{else if gt .Light.Current 0}}on{{else}}off{{end}}">{{if not .Ready}}UNKNOWN{{else if gt .Light.Current 0}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Brightness</th><td>{{.Light.Current}}</td></tr>
<tr><th>Restores to</th><td>{{.Light.LastNonZero}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic prefix</th><td>{{.Config.TopicPrefix}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Heater transitions</th><td>{{.Counts.HeaterTransitions}}</td></tr>
<tr><th>Light changes</th><td>{{.Counts.LightChanges}}</td></tr>
<tr><th>Commands accepted</th><td>{{.Counts.CommandsAccepted}}</td></tr>
<tr><th>Commands rejected</th><td>{{.Counts.CommandsRejected}}</td></tr>
<tr><th>Actuator errors</th><td>{{.Counts.ActuatorErrors}}</td></tr>
<tr><th>Publish errors</th><td>{{.Counts.PublishErrors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Pre-roll</th><td>{{.Config.PreRollMs}}ms</td></tr>
<tr><th>Cooldown</th><td>{{.Config.CooldownMs}}ms</td></tr>
<tr><th>Idle poll</th><td>{{.Config.IdleMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
<tr><th>Journal</th><td>{{if .Config.JournalPath}}{{.Config.JournalPath}}{{else}}disabled{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/health">health</a>{{if .HasMetrics}} | <a href="/metrics">metrics</a>{{end}}{{if .HasEvents}} | <a href="/events.json">events</a>{{end}}</p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, opts Options) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime     time.Duration
		HasMetrics bool
		HasEvents  bool
	}{
		Snapshot:   snap,
		Uptime:     snap.Uptime(),
		HasMetrics: opts.Metrics != nil,
		HasEvents:  opts.Events != nil,
	}
	indexTmpl.Execute(w, data)
}
