// Package status provides a thread-safe status tracker for the panel-router daemon.
// It is read by the HTTP handlers and the MQTT heartbeat, and is fed by the
// router as an Observer.
package status

import (
	"sort"
	"sync"
	"time"

	"github.com/sweeney/panel-router/internal/router"
	"github.com/sweeney/panel-router/internal/topology"
)

// Config contains daemon configuration for display.
type Config struct {
	Chip        string
	Transport   string
	Target      string
	TimeoutMs   int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Counts are running totals since startup.
type Counts struct {
	Edges    int // edges that passed the gate
	Unknown  int // edges on pins without a table entry
	Actions  int // fired actions with a non-empty command set
	Commands int // commands attempted
	Failed   int // commands not acknowledged
}

// ExpanderInfo is the health of one port expander.
type ExpanderInfo struct {
	Index     int
	Address   uint16
	Interrupt int
	Last      byte
	Reads     int
	Errors    int
	LastError string
	Online    bool
}

// LastAction describes the most recently fired action.
type LastAction struct {
	Time    time.Time
	Input   string
	Pin     string
	Trigger string
	Failed  int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Activated     bool
	Inputs        int
	Entries       int
	Counts        Counts
	Expanders     []ExpanderInfo
	Last          *LastAction
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu        sync.RWMutex
	snap      Snapshot
	expanders map[int]*ExpanderInfo
}

var _ router.Observer = (*Tracker)(nil)

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		expanders: make(map[int]*ExpanderInfo),
	}
}

// SetTable records the size of the compiled action table.
func (t *Tracker) SetTable(inputs, entries int) {
	t.mu.Lock()
	t.snap.Inputs = inputs
	t.snap.Entries = entries
	t.mu.Unlock()
}

// AddExpander registers an expander. online is false when it could not be
// initialized.
func (t *Tracker) AddExpander(index int, addr uint16, interrupt int, initial byte, online bool) {
	t.mu.Lock()
	t.expanders[index] = &ExpanderInfo{
		Index:     index,
		Address:   addr,
		Interrupt: interrupt,
		Last:      initial,
		Online:    online,
	}
	t.mu.Unlock()
}

// SetActivated records whether the activation gate is open.
func (t *Tracker) SetActivated(on bool) {
	t.mu.Lock()
	t.snap.Activated = on
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// EdgeReceived counts an edge.
func (t *Tracker) EdgeReceived(pin topology.PinID, level bool, known bool) {
	t.mu.Lock()
	t.snap.Counts.Edges++
	if !known {
		t.snap.Counts.Unknown++
	}
	t.mu.Unlock()
}

// ActionFired counts an action and its commands.
func (t *Tracker) ActionFired(ev router.Event) {
	failed := 0
	for _, r := range ev.Results {
		if !r.OK() {
			failed++
		}
	}

	t.mu.Lock()
	t.snap.Counts.Actions++
	t.snap.Counts.Commands += len(ev.Results)
	t.snap.Counts.Failed += failed
	t.snap.Last = &LastAction{
		Time:    ev.Time,
		Input:   ev.Input.String(),
		Pin:     ev.Pin.String(),
		Trigger: string(ev.Trigger),
		Failed:  failed,
	}
	t.mu.Unlock()
}

// ExpanderRead records a register read attempt.
func (t *Tracker) ExpanderRead(index int, value byte, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	x, ok := t.expanders[index]
	if !ok {
		return
	}
	x.Reads++
	if err != nil {
		x.Errors++
		x.LastError = err.Error()
		return
	}
	x.Last = value
	x.LastError = ""
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	s.Expanders = make([]ExpanderInfo, 0, len(t.expanders))
	for _, x := range t.expanders {
		s.Expanders = append(s.Expanders, *x)
	}
	t.mu.RUnlock()

	sort.Slice(s.Expanders, func(i, j int) bool { return s.Expanders[i].Index < s.Expanders[j].Index })
	s.Now = time.Now()
	return s
}
