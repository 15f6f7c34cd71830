// Package mqtt publishes panel activity to an MQTT broker, with
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/panel-router/internal/router"
)

// Topic is the MQTT topic for fired panel actions.
const Topic = "panel/router/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "panel/router/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a fired action to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event router.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the message body for a fired action.
type Payload struct {
	Panel PanelPayload `json:"panel"`
}

// PanelPayload contains the action details.
type PanelPayload struct {
	Timestamp string          `json:"timestamp"`
	Input     string          `json:"input"`
	Pin       string          `json:"pin"`
	Trigger   string          `json:"trigger"`
	Commands  []CommandResult `json:"commands"`
}

// CommandResult is the delivery outcome of one command.
type CommandResult struct {
	Command    string `json:"command"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// FormatPayload creates the JSON payload for a fired action.
func FormatPayload(event router.Event) ([]byte, error) {
	cmds := make([]CommandResult, 0, len(event.Results))
	for _, r := range event.Results {
		c := CommandResult{
			Command:    r.Command,
			OK:         r.OK(),
			DurationMs: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			c.Error = r.Err.Error()
		}
		cmds = append(cmds, c)
	}

	payload := Payload{
		Panel: PanelPayload{
			Timestamp: event.Time.UTC().Format(time.RFC3339),
			Input:     event.Input.String(),
			Pin:       event.Pin.String(),
			Trigger:   string(event.Trigger),
			Commands:  cmds,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// Nop discards everything. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(router.Event) error      { return nil }
func (Nop) PublishSystem(SystemEvent) error { return nil }
func (Nop) Close() error                    { return nil }
func (Nop) IsConnected() bool               { return false }
