// Package metrics exposes router activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/panel-router/internal/router"
	"github.com/sweeney/panel-router/internal/topology"
)

const namespace = "panel_router"

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Edges           *prometheus.CounterVec
	Actions         *prometheus.CounterVec
	Commands        *prometheus.CounterVec
	CommandDuration prometheus.Histogram
	ExpanderReads   *prometheus.CounterVec
	Activated       prometheus.Gauge
}

var _ router.Observer = (*Metrics)(nil)

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Edges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "input",
				Name:      "edges_total",
				Help:      "Edges that passed the activation gate",
			},
			[]string{"kind", "known"},
		),

		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "input",
				Name:      "actions_total",
				Help:      "Actions fired, by input class and trigger",
			},
			[]string{"class", "trigger"},
		),

		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "commands_total",
				Help:      "Commands delivered, by result (ok, failed)",
			},
			[]string{"result"},
		),

		CommandDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "Time from sending a command to its acknowledgement or failure",
				Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
			},
		),

		ExpanderReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "expander",
				Name:      "reads_total",
				Help:      "Expander register reads, by expander and result",
			},
			[]string{"expander", "result"},
		),

		Activated: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "activated",
				Help:      "Activation gate (0=closed, 1=open)",
			},
		),
	}

	m.registry.MustRegister(
		m.Edges,
		m.Actions,
		m.Commands,
		m.CommandDuration,
		m.ExpanderReads,
		m.Activated,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SetActivated mirrors the activation gate.
func (m *Metrics) SetActivated(on bool) {
	if on {
		m.Activated.Set(1)
	} else {
		m.Activated.Set(0)
	}
}

// EdgeReceived counts an edge by pin kind and whether the pin is mapped.
func (m *Metrics) EdgeReceived(pin topology.PinID, level bool, known bool) {
	kind := "gpio"
	if pin.Kind == topology.KindVirtual {
		kind = "virtual"
	}
	m.Edges.WithLabelValues(kind, strconv.FormatBool(known)).Inc()
}

// ActionFired counts the action and the outcome and latency of each command.
func (m *Metrics) ActionFired(ev router.Event) {
	m.Actions.WithLabelValues(string(ev.Input.Class), string(ev.Trigger)).Inc()
	for _, r := range ev.Results {
		result := "ok"
		if !r.OK() {
			result = "failed"
		}
		m.Commands.WithLabelValues(result).Inc()
		m.CommandDuration.Observe(r.Duration.Seconds())
	}
}

// ExpanderRead counts a register read by expander and result.
func (m *Metrics) ExpanderRead(index int, value byte, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ExpanderReads.WithLabelValues(strconv.Itoa(index), result).Inc()
}
