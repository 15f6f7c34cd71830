// Package config loads the panel description and runtime settings.
//
// Settings come from an optional TOML/YAML/JSON file with environment
// overrides, read through cleanenv. Without inputs and actions the
// built-in default panel is used.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/sweeney/panel-router/internal/topology"
)

// Transport kinds.
const (
	TransportSocket = "socket"
	TransportHTTP   = "http"
	TransportRedis  = "redis"
)

// Addressing tags used in input entries.
const (
	AddrGPIO     = "gpio"
	AddrExpander = "expander"
	AddrRotary   = "rotary"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Glitch holds the debounce windows in microseconds.
type Glitch struct {
	Button   int `toml:"button" yaml:"button" json:"button" env:"BUTTON" env-default:"10000"`
	Switch   int `toml:"switch" yaml:"switch" json:"switch" env:"SWITCH" env-default:"10000"`
	Rotary   int `toml:"rotary" yaml:"rotary" json:"rotary" env:"ROTARY" env-default:"2500"`
	Expander int `toml:"expander" yaml:"expander" json:"expander" env:"EXPANDER" env-default:"10000"`
}

// For returns the debounce window for an input class.
func (g Glitch) For(c topology.Class) time.Duration {
	var us int
	switch c {
	case topology.ClassButton:
		us = g.Button
	case topology.ClassSwitch:
		us = g.Switch
	case topology.ClassRotary:
		us = g.Rotary
	}
	return time.Duration(us) * time.Microsecond
}

// ExpanderWindow returns the debounce window for expander interrupt lines.
func (g Glitch) ExpanderWindow() time.Duration {
	return time.Duration(g.Expander) * time.Microsecond
}

// Expander is one port expander and the GPIO line its interrupt output
// is wired to.
type Expander struct {
	Index     int    `toml:"index" yaml:"index" json:"index"`
	Bus       int    `toml:"bus" yaml:"bus" json:"bus"`
	Address   uint16 `toml:"address" yaml:"address" json:"address"`
	Interrupt int    `toml:"interrupt" yaml:"interrupt" json:"interrupt"`
}

// Input is one physical input. Which pin fields apply depends on
// Addressing: "gpio" uses Pin, "expander" uses Expander and SubPin,
// "rotary" uses Pins (left, right, press).
type Input struct {
	Class      string `toml:"class" yaml:"class" json:"class"`
	Side       string `toml:"side" yaml:"side" json:"side"`
	Index      int    `toml:"index" yaml:"index" json:"index"`
	Addressing string `toml:"addressing" yaml:"addressing" json:"addressing"`
	Pin        int    `toml:"pin" yaml:"pin" json:"pin"`
	Expander   int    `toml:"expander" yaml:"expander" json:"expander"`
	SubPin     int    `toml:"sub_pin" yaml:"sub_pin" json:"sub_pin"`
	Pins       []int  `toml:"pins" yaml:"pins" json:"pins"`
}

// Action holds the command sets for one input.
type Action struct {
	Class string   `toml:"class" yaml:"class" json:"class"`
	Side  string   `toml:"side" yaml:"side" json:"side"`
	Index int      `toml:"index" yaml:"index" json:"index"`
	On    []string `toml:"on" yaml:"on" json:"on"`
	Off   []string `toml:"off" yaml:"off" json:"off"`
	Left  []string `toml:"left" yaml:"left" json:"left"`
	Right []string `toml:"right" yaml:"right" json:"right"`
	Press []string `toml:"press" yaml:"press" json:"press"`
}

// Transport selects where commands are delivered.
type Transport struct {
	Kind     string        `toml:"kind" yaml:"kind" json:"kind" env:"KIND" env-default:"socket"`
	Target   string        `toml:"target" yaml:"target" json:"target" env:"TARGET"`
	Timeout  time.Duration `toml:"timeout" yaml:"timeout" json:"timeout" env:"TIMEOUT" env-default:"2s"`
	RedisKey string        `toml:"redis_key" yaml:"redis_key" json:"redis_key" env:"REDIS_KEY" env-default:"panel:commands"`
}

// Config is the complete runtime configuration.
type Config struct {
	Debug     bool          `toml:"debug" yaml:"debug" json:"debug" env:"PANEL_DEBUG" env-default:"false"`
	Chip      string        `toml:"chip" yaml:"chip" json:"chip" env:"PANEL_CHIP" env-default:"gpiochip0"`
	Settle    time.Duration `toml:"settle" yaml:"settle" json:"settle" env:"PANEL_SETTLE" env-default:"1s"`
	Broker    string        `toml:"broker" yaml:"broker" json:"broker" env:"PANEL_BROKER"`
	HTTP      string        `toml:"http" yaml:"http" json:"http" env:"PANEL_HTTP" env-default:":8080"`
	Heartbeat time.Duration `toml:"heartbeat" yaml:"heartbeat" json:"heartbeat" env:"PANEL_HEARTBEAT" env-default:"15m"`

	Glitch    Glitch    `toml:"glitch" yaml:"glitch" json:"glitch" env-prefix:"PANEL_GLITCH_"`
	Transport Transport `toml:"transport" yaml:"transport" json:"transport" env-prefix:"PANEL_TRANSPORT_"`

	Expanders []Expander `toml:"expanders" yaml:"expanders" json:"expanders"`
	Inputs    []Input    `toml:"inputs" yaml:"inputs" json:"inputs"`
	Actions   []Action   `toml:"actions" yaml:"actions" json:"actions"`
}

// Load reads the configuration from path, or from the environment only
// when path is empty, and validates it.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	} else {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if len(cfg.Inputs) == 0 && len(cfg.Actions) == 0 {
		cfg.Inputs, cfg.Actions = DefaultInputs(), DefaultActions()
		if len(cfg.Expanders) == 0 {
			cfg.Expanders = DefaultExpanders()
		}
	}
	if cfg.Transport.Target == "" {
		cfg.Transport.Target = DefaultTarget(cfg.Transport.Kind)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultTarget returns the conventional target for a transport kind.
func DefaultTarget(kind string) string {
	switch kind {
	case TransportHTTP:
		return "http://127.0.0.1:3000/api/v0/"
	case TransportRedis:
		return "127.0.0.1:6379"
	default:
		return "127.0.0.1:20201"
	}
}

// Validate checks settings that the topology compiler cannot see.
func (c *Config) Validate() error {
	switch c.Transport.Kind {
	case TransportSocket, TransportHTTP, TransportRedis:
	default:
		return fmt.Errorf("%w: transport kind %q", ErrInvalid, c.Transport.Kind)
	}
	if c.Transport.Timeout <= 0 {
		return fmt.Errorf("%w: transport timeout must be positive", ErrInvalid)
	}

	expanders := make(map[int]bool, len(c.Expanders))
	irqs := make(map[int]bool, len(c.Expanders))
	for _, x := range c.Expanders {
		if x.Index < 1 {
			return fmt.Errorf("%w: expander index %d must be >= 1", ErrInvalid, x.Index)
		}
		if expanders[x.Index] {
			return fmt.Errorf("%w: expander %d declared twice", ErrInvalid, x.Index)
		}
		if irqs[x.Interrupt] {
			return fmt.Errorf("%w: interrupt pin %d shared by two expanders", ErrInvalid, x.Interrupt)
		}
		expanders[x.Index] = true
		irqs[x.Interrupt] = true
	}

	for _, in := range c.Inputs {
		if in.Addressing == AddrExpander && !expanders[in.Expander] {
			return fmt.Errorf("%w: %s/%s/%d refers to undeclared expander %d",
				ErrInvalid, in.Class, in.Side, in.Index, in.Expander)
		}
		if irqs[in.Pin] && in.Addressing == AddrGPIO {
			return fmt.Errorf("%w: gpio %d is an expander interrupt line", ErrInvalid, in.Pin)
		}
		for _, p := range in.Pins {
			if irqs[p] {
				return fmt.Errorf("%w: gpio %d is an expander interrupt line", ErrInvalid, p)
			}
		}
	}
	return nil
}

// Topology converts the input and action lists for topology.Compile.
func (c *Config) Topology() ([]topology.InputSpec, []topology.ActionSpec, error) {
	inputs := make([]topology.InputSpec, 0, len(c.Inputs))
	for _, in := range c.Inputs {
		var addr topology.Addressing
		switch in.Addressing {
		case AddrGPIO:
			addr = topology.Direct{Pin: in.Pin}
		case AddrExpander:
			addr = topology.Expanded{Expander: in.Expander, SubPin: in.SubPin}
		case AddrRotary:
			if len(in.Pins) != 3 {
				return nil, nil, fmt.Errorf("%w: %s/%s/%d: rotary needs 3 pins, got %d",
					topology.ErrInvalidAddressing, in.Class, in.Side, in.Index, len(in.Pins))
			}
			addr = topology.RotaryPins{Left: in.Pins[0], Right: in.Pins[1], Press: in.Pins[2]}
		default:
			return nil, nil, fmt.Errorf("%w: %s/%s/%d: unknown addressing %q",
				topology.ErrInvalidAddressing, in.Class, in.Side, in.Index, in.Addressing)
		}
		inputs = append(inputs, topology.InputSpec{
			Class:      topology.Class(in.Class),
			Side:       topology.Side(in.Side),
			Index:      in.Index,
			Addressing: addr,
		})
	}

	actions := make([]topology.ActionSpec, 0, len(c.Actions))
	for _, a := range c.Actions {
		actions = append(actions, topology.ActionSpec{
			Class: topology.Class(a.Class),
			Side:  topology.Side(a.Side),
			Index: a.Index,
			On:    a.On,
			Off:   a.Off,
			Left:  a.Left,
			Right: a.Right,
			Press: a.Press,
		})
	}
	return inputs, actions, nil
}

// Compile converts and compiles the panel in one step.
func (c *Config) Compile() (*topology.Table, error) {
	inputs, actions, err := c.Topology()
	if err != nil {
		return nil, err
	}
	return topology.Compile(inputs, actions)
}
