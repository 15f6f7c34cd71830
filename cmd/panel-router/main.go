// Command panel-router routes control panel inputs (GPIO lines, I2C port
// expanders and rotary encoders) to commands for the playback engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/panel-router/internal/config"
	"github.com/sweeney/panel-router/internal/dispatch"
	"github.com/sweeney/panel-router/internal/gpio"
	"github.com/sweeney/panel-router/internal/mqtt"
	"github.com/sweeney/panel-router/internal/status"
	"github.com/sweeney/panel-router/internal/web"
)

// flags holds command-line values. Only flags given explicitly override
// the configuration file and environment.
type flags struct {
	debug     bool
	httpAddr  string
	broker    string
	heartbeat time.Duration
	transport string
	target    string
	timeout   time.Duration
	settle    time.Duration
}

func main() {
	var f flags
	configPath := flag.String("config", "", "Panel config file (TOML, YAML or JSON); empty uses the built-in panel")
	printTbl := flag.Bool("print-table", false, "Print the compiled action table and exit")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.StringVar(&f.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.StringVar(&f.broker, "broker", "", "MQTT broker address, e.g. tcp://192.168.1.200:1883 (empty to disable)")
	flag.DurationVar(&f.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&f.transport, "transport", config.TransportSocket, "Command transport: socket, http or redis")
	flag.StringVar(&f.target, "target", "", "Transport target (default depends on -transport)")
	flag.DurationVar(&f.timeout, "timeout", dispatch.DefaultTimeout, "Per-command delivery timeout")
	flag.DurationVar(&f.settle, "settle", time.Second, "Delay between input setup and activation")

	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	set := make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	if err := f.apply(cfg, set); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if err := run(cfg, *printTbl, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// apply copies explicitly set flags into cfg and revalidates it.
func (f *flags) apply(cfg *config.Config, set map[string]bool) error {
	if set["debug"] {
		cfg.Debug = f.debug
	}
	if set["http"] {
		cfg.HTTP = f.httpAddr
	}
	if set["broker"] {
		cfg.Broker = f.broker
	}
	if set["heartbeat"] {
		cfg.Heartbeat = f.heartbeat
	}
	if set["transport"] {
		cfg.Transport.Kind = f.transport
		if !set["target"] {
			cfg.Transport.Target = config.DefaultTarget(f.transport)
		}
	}
	if set["target"] {
		cfg.Transport.Target = f.target
	}
	if set["timeout"] {
		cfg.Transport.Timeout = f.timeout
	}
	if set["settle"] {
		cfg.Settle = f.settle
	}
	return cfg.Validate()
}

func run(cfg *config.Config, printTbl bool, stdout io.Writer) error {
	table, err := cfg.Compile()
	if err != nil {
		return fmt.Errorf("compile topology: %w", err)
	}
	log.WithFields(log.Fields{
		"inputs":   table.Inputs(),
		"pins":     table.Len(),
		"encoders": len(table.Encoders()),
	}).Info("Action table compiled")

	if printTbl {
		return printTable(stdout, table)
	}

	transport, closer, err := newTransport(cfg.Transport)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	watcher, err := gpio.NewRealWatcher(cfg.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer watcher.Close()

	a, err := newApp(cfg, table, transport, watcher, openLinuxBus, time.Now())
	if err != nil {
		return fmt.Errorf("init inputs: %w", err)
	}
	defer a.close()

	var (
		publisher  mqtt.Publisher        = mqtt.Nop{}
		mqttStatus mqtt.ConnectionStatus = mqtt.Nop{}
	)
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker)
		if err != nil {
			log.Printf("mqtt disabled: %v", err)
		} else {
			publisher, mqttStatus = p, p
		}
	}
	defer publisher.Close()

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, a.tracker)
		srv.Handle("/metrics", a.metrics.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	// Let primed lines and expanders settle before events count.
	time.Sleep(cfg.Settle)
	a.activate()
	publishStatus(publisher, mqttStatus, a.tracker, time.Now(), "STARTUP", "")

	log.WithFields(log.Fields{
		"transport": cfg.Transport.Kind,
		"target":    cfg.Transport.Target,
		"timeout":   cfg.Transport.Timeout,
		"lines":     a.lines,
		"expanders": len(a.expanders),
	}).Info("Waiting for input")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var tick <-chan time.Time
	if cfg.Heartbeat > 0 {
		ticker := time.NewTicker(cfg.Heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	return runLoop(a, publisher, mqttStatus, time.Now, tick, sigCh)
}

// runLoop publishes fired actions and heartbeats until a signal arrives.
// Input handling itself runs on the driver callbacks, not here.
func runLoop(a *app, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			a.deactivate()

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			publishStatus(publisher, mqttStatus, a.tracker, now(), "SHUTDOWN", signalName)
			return nil

		case ev := <-a.forwarder.C():
			if err := publisher.Publish(ev); err != nil {
				log.Printf("publish error: %v", err)
			}

		case <-tick:
			snap := publishStatus(publisher, mqttStatus, a.tracker, now(), "HEARTBEAT", "")
			log.WithFields(log.Fields{
				"uptime":   snap.Uptime().Truncate(time.Second),
				"edges":    snap.Counts.Edges,
				"actions":  snap.Counts.Actions,
				"failed":   snap.Counts.Failed,
				"unrouted": a.forwarder.Dropped(),
			}).Info("heartbeat")
		}
	}
}

// publishStatus sends a lifecycle event carrying a full status snapshot.
func publishStatus(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, t time.Time, event, reason string) status.Snapshot {
	tracker.SetMQTTConnected(mqttStatus.IsConnected())
	snap := tracker.Snapshot()

	err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  t,
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	}
	return snap
}
