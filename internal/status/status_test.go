package status

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/panel-router/internal/dispatch"
	"github.com/sweeney/panel-router/internal/router"
	"github.com/sweeney/panel-router/internal/topology"
)

func firedEvent(failures int) router.Event {
	ev := router.Event{
		Time:    time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC),
		Input:   topology.Key{Class: topology.ClassSwitch, Side: topology.SideRight, Index: 1},
		Pin:     topology.Virtual(2, 8),
		Trigger: router.TriggerRising,
		Results: []dispatch.Result{{Command: "a"}, {Command: "b"}},
	}
	for i := 0; i < failures && i < len(ev.Results); i++ {
		ev.Results[i].Err = dispatch.ErrNotAcknowledged
	}
	return ev
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Transport: "socket", Target: "127.0.0.1:20201", Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.Target != "127.0.0.1:20201" {
		t.Errorf("Config.Target: got %q", snap.Config.Target)
	}
	if snap.Activated {
		t.Error("expected Activated=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
	if snap.Last != nil {
		t.Error("expected no last action initially")
	}
}

func TestObserverCounts(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.EdgeReceived(topology.GPIO(7), true, true)
	tr.EdgeReceived(topology.Virtual(1, 5), false, false)
	tr.ActionFired(firedEvent(0))
	tr.ActionFired(firedEvent(1))

	snap := tr.Snapshot()
	want := Counts{Edges: 2, Unknown: 1, Actions: 2, Commands: 4, Failed: 1}
	if snap.Counts != want {
		t.Errorf("Counts: got %+v, want %+v", snap.Counts, want)
	}
	if snap.Last == nil || snap.Last.Input != "switch/right/1" || snap.Last.Pin != "v208" || snap.Last.Failed != 1 {
		t.Errorf("Last: got %+v", snap.Last)
	}
}

func TestExpanderRead(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.AddExpander(2, 0x20, 27, 0xFF, true)
	tr.AddExpander(1, 0x21, 17, 0xFF, true)

	tr.ExpanderRead(1, 0xFE, nil)
	tr.ExpanderRead(1, 0, errors.New("remote I/O error"))
	tr.ExpanderRead(9, 0, nil) // unknown index is ignored

	snap := tr.Snapshot()
	if len(snap.Expanders) != 2 || snap.Expanders[0].Index != 1 {
		t.Fatalf("Expanders not sorted by index: %+v", snap.Expanders)
	}
	x := snap.Expanders[0]
	if x.Reads != 2 || x.Errors != 1 || x.Last != 0xFE || x.LastError != "remote I/O error" {
		t.Errorf("expander 1: got %+v", x)
	}

	tr.ExpanderRead(1, 0xFC, nil)
	if x := tr.Snapshot().Expanders[0]; x.LastError != "" || x.Last != 0xFC {
		t.Errorf("successful read should clear LastError: %+v", x)
	}
}

func TestSetActivatedAndMQTT(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetActivated(true)
	tr.SetMQTTConnected(true)
	tr.SetTable(18, 22)

	snap := tr.Snapshot()
	if !snap.Activated || !snap.MQTTConnected {
		t.Errorf("got Activated=%v MQTTConnected=%v", snap.Activated, snap.MQTTConnected)
	}
	if snap.Inputs != 18 || snap.Entries != 22 {
		t.Errorf("table: got %d/%d", snap.Inputs, snap.Entries)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.AddExpander(1, 0x21, 17, 0xFF, true)
	tr.ActionFired(firedEvent(0))

	snap1 := tr.Snapshot()

	tr.ExpanderRead(1, 0x00, nil)
	tr.ActionFired(firedEvent(2))

	if snap1.Expanders[0].Last != 0xFF {
		t.Error("snapshot should be a copy; expander was modified")
	}
	if snap1.Last.Failed != 0 {
		t.Error("snapshot should be a copy; last action was modified")
	}
	if snap1.Counts.Actions != 1 {
		t.Error("snapshot should be a copy; counts were modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Activated:     true,
		Inputs:        18,
		Entries:       22,
		Counts:        Counts{Edges: 5, Actions: 2, Commands: 3, Failed: 1},
		Expanders:     []ExpanderInfo{{Index: 1, Address: 0x21, Interrupt: 17, Last: 0xFE, Online: true}},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Transport: "http", TimeoutMs: 2000, Broker: "tcp://localhost:1883"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if !parsed.Status.Activated {
		t.Error("expected Activated=true")
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Counts.Failed != 1 || parsed.Status.Table.Entries != 22 {
		t.Errorf("counts/table: %+v %+v", parsed.Status.Counts, parsed.Status.Table)
	}
	if len(parsed.Status.Expanders) != 1 {
		t.Fatalf("expected 1 expander, got %d", len(parsed.Status.Expanders))
	}
	x := parsed.Status.Expanders[0]
	if x.Address != "0x21" || x.Last != "11111110" {
		t.Errorf("expander: got %+v", x)
	}
	if parsed.Status.LastAction != nil {
		t.Error("expected no last_action")
	}
	if parsed.Status.Event != "" || parsed.Status.Reason != "" {
		t.Errorf("expected empty event/reason for web format, got %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{Broker: "tcp://localhost:1883"})
	tr.ActionFired(firedEvent(0))
	snap := tr.Snapshot()
	snap.Now = start.Add(15 * time.Minute)

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("got event %q reason %q", parsed.Status.Event, parsed.Status.Reason)
	}
	if parsed.Status.LastAction == nil || parsed.Status.LastAction.Trigger != "RISING" {
		t.Errorf("LastAction: got %+v", parsed.Status.LastAction)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
	if _, ok := status["expanders"].([]interface{}); !ok {
		t.Error("expanders should be an empty array, not null")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.AddExpander(1, 0x21, 17, 0xFF, true)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.EdgeReceived(topology.GPIO(5), i%2 == 0, true)
			tr.ActionFired(firedEvent(i % 3))
			tr.ExpanderRead(1, byte(i), nil)
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
	if got := tr.Snapshot().Counts.Edges; got != 1000 {
		t.Errorf("Edges: got %d, want 1000", got)
	}
}
