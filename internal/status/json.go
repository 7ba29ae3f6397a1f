package status

import (
	"encoding/json"
	"time"

	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Heater        HeaterJSON   `json:"heater"`
	Light         LightJSON    `json:"light"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// HeaterJSON is the JSON representation of the heater state.
type HeaterJSON struct {
	Mode      string `json:"mode"`
	Requested string `json:"requested"`
	Deadline  string `json:"deadline,omitempty"`
}

// LightJSON is the JSON representation of the light state.
type LightJSON struct {
	State       string `json:"state"`
	Brightness  uint8  `json:"brightness"`
	Requested   uint8  `json:"requested"`
	LastNonZero uint8  `json:"last_non_zero"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	HeaterTransitions int `json:"heater_transitions"`
	HeaterStalls      int `json:"heater_stalls"`
	LightChanges      int `json:"light_changes"`
	CommandsAccepted  int `json:"commands_accepted"`
	CommandsRejected  int `json:"commands_rejected"`
	ActuatorErrors    int `json:"actuator_errors"`
	PublishErrors     int `json:"publish_errors"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Broker      string `json:"broker"`
	TopicPrefix string `json:"topic_prefix"`
	HTTPAddr    string `json:"http_addr"`
	PreRollMs   int64  `json:"preroll_ms"`
	CooldownMs  int64  `json:"cooldown_ms"`
	IdleMs      int64  `json:"idle_ms"`
	JournalPath string `json:"journal_path,omitempty"`
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	heater := HeaterJSON{
		Mode:      orUnknown(string(snap.Heater.Current)),
		Requested: orUnknown(string(snap.Heater.Requested)),
	}
	if snap.Heater.Current.Transitional() {
		heater.Deadline = snap.Heater.Deadline.UTC().Format(time.RFC3339Nano)
	}

	light := LightJSON{
		State:       string(logic.SwitchFor(snap.Light.Current)),
		Brightness:  snap.Light.Current,
		Requested:   snap.Light.Requested,
		LastNonZero: snap.Light.LastNonZero,
	}
	if !snap.Ready {
		light.State = "UNKNOWN"
	}

	c := snap.Counts
	return StatusInner{
		Heater:        heater,
		Light:         light,
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			HeaterTransitions: c.HeaterTransitions,
			HeaterStalls:      c.HeaterStalls,
			LightChanges:      c.LightChanges,
			CommandsAccepted:  c.CommandsAccepted,
			CommandsRejected:  c.CommandsRejected,
			ActuatorErrors:    c.ActuatorErrors,
			PublishErrors:     c.PublishErrors,
		},
		Config: ConfigJSON{
			Broker:      snap.Config.Broker,
			TopicPrefix: snap.Config.TopicPrefix,
			HTTPAddr:    snap.Config.HTTPAddr,
			PreRollMs:   snap.Config.PreRollMs,
			CooldownMs:  snap.Config.CooldownMs,
			IdleMs:      snap.Config.IdleMs,
			JournalPath: snap.Config.JournalPath,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}
