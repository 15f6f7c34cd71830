package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"tinygo.org/x/drivers"

	"github.com/sweeney/panel-router/internal/config"
	"github.com/sweeney/panel-router/internal/dispatch"
	"github.com/sweeney/panel-router/internal/gpio"
	"github.com/sweeney/panel-router/internal/i2c"
	"github.com/sweeney/panel-router/internal/metrics"
	"github.com/sweeney/panel-router/internal/mqtt"
	"github.com/sweeney/panel-router/internal/router"
	"github.com/sweeney/panel-router/internal/status"
	"github.com/sweeney/panel-router/internal/topology"
)

// forwardQueue bounds fired actions waiting to be published.
const forwardQueue = 64

// busOpener opens I2C adapter n.
type busOpener func(n int) (drivers.I2C, error)

func openLinuxBus(n int) (drivers.I2C, error) {
	bus, err := i2c.Open(n)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

// app is the wired router with its observers and hardware bindings.
type app struct {
	table     *topology.Table
	router    *router.Router
	tracker   *status.Tracker
	metrics   *metrics.Metrics
	forwarder *mqtt.Forwarder
	expanders []*router.Expander
	lines     int
	closers   []io.Closer
}

// newApp compiles the topology, builds the router and binds it to the
// hardware. Individual lines and expanders that fail to initialize are
// logged and skipped; an error is returned only if no input at all could
// be bound. The gate is left closed.
func newApp(cfg *config.Config, table *topology.Table, transport dispatch.Transport, watcher gpio.Watcher, openBus busOpener, start time.Time) (*app, error) {
	a := &app{
		table: table,
		tracker: status.NewTracker(start, status.Config{
			Chip:        cfg.Chip,
			Transport:   cfg.Transport.Kind,
			Target:      cfg.Transport.Target,
			TimeoutMs:   cfg.Transport.Timeout.Milliseconds(),
			HeartbeatMs: cfg.Heartbeat.Milliseconds(),
			Broker:      cfg.Broker,
			HTTPAddr:    cfg.HTTP,
		}),
		metrics:   metrics.New(),
		forwarder: mqtt.NewForwarder(forwardQueue),
	}
	a.tracker.SetTable(table.Inputs(), table.Len())

	a.router = router.New(table, dispatch.New(transport, cfg.Transport.Timeout), &router.Gate{})
	a.router.Observe(a.tracker)
	a.router.Observe(a.metrics)
	a.router.Observe(a.forwarder)

	a.bindExpanders(cfg, watcher, openBus)
	a.bindLines(cfg, watcher)

	if a.lines == 0 && len(a.expanders) == 0 {
		a.close()
		return nil, errors.New("no input could be initialized")
	}
	return a, nil
}

func (a *app) bindExpanders(cfg *config.Config, watcher gpio.Watcher, openBus busOpener) {
	buses := make(map[int]drivers.I2C)

	for _, xc := range cfg.Expanders {
		fields := log.Fields{
			"expander":  xc.Index,
			"bus":       xc.Bus,
			"address":   fmt.Sprintf("0x%02x", xc.Address),
			"interrupt": xc.Interrupt,
		}

		bus, ok := buses[xc.Bus]
		if !ok {
			var err error
			bus, err = openBus(xc.Bus)
			if err != nil {
				log.WithFields(fields).WithField("err", err).Warn("Could not open I2C bus")
				a.tracker.AddExpander(xc.Index, xc.Address, xc.Interrupt, i2c.IdleState, false)
				continue
			}
			buses[xc.Bus] = bus
			if c, ok := bus.(io.Closer); ok {
				a.closers = append(a.closers, c)
			}
		}

		dev := i2c.NewExpander(bus, xc.Address)
		if err := dev.Prime(); err != nil {
			log.WithFields(fields).WithField("err", err).Warn("Could not register expander, check connection and address")
			a.tracker.AddExpander(xc.Index, xc.Address, xc.Interrupt, i2c.IdleState, false)
			continue
		}

		x := a.router.NewExpander(xc.Index, dev, i2c.IdleState)
		err := watcher.Watch(gpio.LineConfig{
			Pin:      xc.Interrupt,
			Pull:     gpio.PullUp,
			Debounce: cfg.Glitch.ExpanderWindow(),
		}, func(gpio.Edge) {
			// Logged and counted by the router; the next interrupt retries.
			_ = x.HandleInterrupt()
		})
		if err != nil {
			log.WithFields(fields).WithField("err", err).Warn("Could not watch expander interrupt line")
			a.tracker.AddExpander(xc.Index, xc.Address, xc.Interrupt, i2c.IdleState, false)
			continue
		}

		a.expanders = append(a.expanders, x)
		a.tracker.AddExpander(xc.Index, xc.Address, xc.Interrupt, i2c.IdleState, true)
		log.WithFields(fields).Debug("Registered expander")
	}
}

func (a *app) bindLines(cfg *config.Config, watcher gpio.Watcher) {
	for _, pin := range a.table.GPIOPins() {
		entry, _ := a.table.Lookup(topology.GPIO(pin))
		err := watcher.Watch(gpio.LineConfig{
			Pin:      pin,
			Pull:     gpio.PullUp,
			Debounce: cfg.Glitch.For(entry.Input.Class),
		}, func(e gpio.Edge) {
			a.router.HandleGPIO(e.Pin, e.Level)
		})
		if err != nil {
			log.WithFields(log.Fields{
				"pin":   pin,
				"input": entry.Input,
				"err":   err,
			}).Warn("Failed to set up input line")
			continue
		}
		a.lines++
		log.WithFields(log.Fields{"pin": pin, "input": entry.Input, "role": entry.Role}).Debug("Watching input line")
	}
}

// activate opens the gate. Events arriving before this call were dropped.
func (a *app) activate() {
	a.router.Gate().Open()
	a.tracker.SetActivated(true)
	a.metrics.SetActivated(true)
}

// deactivate closes the gate so teardown does not race with handlers.
func (a *app) deactivate() {
	a.router.Gate().Close()
	a.tracker.SetActivated(false)
	a.metrics.SetActivated(false)
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.WithField("err", err).Warn("close failed")
		}
	}
	a.closers = nil
}

// newTransport builds the command transport selected in the config.
func newTransport(tc config.Transport) (dispatch.Transport, io.Closer, error) {
	switch tc.Kind {
	case config.TransportSocket:
		return dispatch.NewSocketTransport(tc.Target), nil, nil
	case config.TransportHTTP:
		return dispatch.NewHTTPTransport(tc.Target), nil, nil
	case config.TransportRedis:
		t := dispatch.NewRedisTransport(tc.Target, tc.RedisKey)
		return t, t, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", tc.Kind)
	}
}
