// Package dispatch delivers command strings to the remote action service.
// Each command is sent on its own, in order, with a bounded timeout.
// A failed command is logged and reported but never stops the rest.
package dispatch

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultTimeout bounds a single command delivery.
const DefaultTimeout = 2 * time.Second

// ErrNotAcknowledged is returned when the service answered with anything
// other than its success marker.
var ErrNotAcknowledged = errors.New("dispatch: command not acknowledged")

// Transport sends one command and waits for its acknowledgement.
// Implementations open a fresh exchange per call and must honour ctx.
type Transport interface {
	Send(ctx context.Context, command string) error
}

// Result is the outcome of delivering one command.
type Result struct {
	Command  string
	Err      error
	Duration time.Duration
}

// OK reports whether the command was acknowledged.
func (r Result) OK() bool {
	return r.Err == nil
}

// Failures counts the failed results.
func Failures(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Dispatcher delivers command sets through a Transport.
type Dispatcher struct {
	transport Transport
	timeout   time.Duration
}

// New creates a Dispatcher. A timeout <= 0 selects DefaultTimeout.
func New(transport Transport, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{transport: transport, timeout: timeout}
}

// Timeout returns the per-command delivery bound.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Deliver sends every command in order and blocks until each one has been
// acknowledged, failed or timed out. It returns one Result per command.
// An empty set sends nothing and returns nil.
func (d *Dispatcher) Deliver(ctx context.Context, commands []string) []Result {
	if len(commands) == 0 {
		return nil
	}

	results := make([]Result, 0, len(commands))
	for _, cmd := range commands {
		results = append(results, d.send(ctx, cmd))
	}
	return results
}

func (d *Dispatcher) send(ctx context.Context, cmd string) Result {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.transport.Send(ctx, cmd)
	res := Result{Command: cmd, Err: err, Duration: time.Since(start)}

	if err != nil {
		log.WithFields(log.Fields{
			"command": cmd,
			"err":     err,
		}).Warn("Command delivery failed")
	} else {
		log.WithFields(log.Fields{
			"command":  cmd,
			"duration": res.Duration,
		}).Debug("Command delivered")
	}
	return res
}
