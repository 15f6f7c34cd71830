package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Activated     bool           `json:"activated"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	Table         TableJSON      `json:"table"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"counts"`
	Expanders     []ExpanderJSON `json:"expanders"`
	LastAction    *LastJSON      `json:"last_action,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// TableJSON describes the compiled action table.
type TableJSON struct {
	Inputs  int `json:"inputs"`
	Entries int `json:"entries"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of running totals.
type CountsJSON struct {
	Edges    int `json:"edges"`
	Unknown  int `json:"unknown"`
	Actions  int `json:"actions"`
	Commands int `json:"commands"`
	Failed   int `json:"failed"`
}

// ExpanderJSON is the JSON representation of one expander.
type ExpanderJSON struct {
	Index     int    `json:"index"`
	Address   string `json:"address"`
	Interrupt int    `json:"interrupt"`
	Last      string `json:"last"`
	Reads     int    `json:"reads"`
	Errors    int    `json:"errors"`
	LastError string `json:"last_error,omitempty"`
	Online    bool   `json:"online"`
}

// LastJSON is the JSON representation of the last fired action.
type LastJSON struct {
	Timestamp string `json:"timestamp"`
	Input     string `json:"input"`
	Pin       string `json:"pin"`
	Trigger   string `json:"trigger"`
	Failed    int    `json:"failed"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Chip        string `json:"chip"`
	Transport   string `json:"transport"`
	Target      string `json:"target"`
	TimeoutMs   int64  `json:"timeout_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Activated:     snap.Activated,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Table:         TableJSON{Inputs: snap.Inputs, Entries: snap.Entries},
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Edges:    snap.Counts.Edges,
			Unknown:  snap.Counts.Unknown,
			Actions:  snap.Counts.Actions,
			Commands: snap.Counts.Commands,
			Failed:   snap.Counts.Failed,
		},
		Expanders: make([]ExpanderJSON, 0, len(snap.Expanders)),
		Config: ConfigJSON{
			Chip:        snap.Config.Chip,
			Transport:   snap.Config.Transport,
			Target:      snap.Config.Target,
			TimeoutMs:   snap.Config.TimeoutMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	for _, x := range snap.Expanders {
		inner.Expanders = append(inner.Expanders, ExpanderJSON{
			Index:     x.Index,
			Address:   fmt.Sprintf("0x%02x", x.Address),
			Interrupt: x.Interrupt,
			Last:      fmt.Sprintf("%08b", x.Last),
			Reads:     x.Reads,
			Errors:    x.Errors,
			LastError: x.LastError,
			Online:    x.Online,
		})
	}

	if snap.Last != nil {
		inner.LastAction = &LastJSON{
			Timestamp: snap.Last.Time.UTC().Format(time.RFC3339),
			Input:     snap.Last.Input,
			Pin:       snap.Last.Pin,
			Trigger:   snap.Last.Trigger,
			Failed:    snap.Last.Failed,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
