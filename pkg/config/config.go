// Package config provides the options to setup the referee daemon.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/referee.go/pkg/bridge"
	"github.com/robotalks/referee.go/pkg/referee"
	"github.com/robotalks/referee.go/pkg/sim"
	"github.com/robotalks/referee.go/pkg/uart"
	"github.com/robotalks/referee.go/pkg/ui"
)

// SerialConfig configures the referee UART.
type SerialConfig struct {
	Device        string        `yaml:"device"`
	BaudRate      int           `yaml:"baud_rate"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// SimConfig replaces the UART with the simulated referee and client.
type SimConfig struct {
	Enabled  bool          `yaml:"enabled"`
	RobotID  uint8         `yaml:"robot_id"`
	Interval time.Duration `yaml:"interval"`
}

// EngineConfig configures the protocol engine.
type EngineConfig struct {
	SenderID       uint16        `yaml:"sender_id"`
	RecvTimeout    time.Duration `yaml:"recv_timeout"`
	FastInterval   time.Duration `yaml:"fast_interval"`
	SlowInterval   time.Duration `yaml:"slow_interval"`
	Screen         ui.Screen     `yaml:"screen"`
	AbortOnUnknown bool          `yaml:"abort_on_unknown"`
}

// BridgeConfig configures the telemetry bridge.
type BridgeConfig struct {
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string        `yaml:"mqtt"`
	WebsocketAddr string        `yaml:"websocket"`
	Stdout        bool          `yaml:"stdout"`
	Interval      time.Duration `yaml:"interval"`
	All           bool          `yaml:"all"`
}

// JoystickConfig binds an operator gamepad to the UI modes.
type JoystickConfig struct {
	Enabled bool `yaml:"enabled"`
	// Index is the device index, -1 for auto detection.
	Index int `yaml:"index"`
}

// Config is the complete daemon configuration.
type Config struct {
	Node     string         `yaml:"node"`
	Serial   SerialConfig   `yaml:"serial"`
	Sim      SimConfig      `yaml:"sim"`
	Engine   EngineConfig   `yaml:"engine"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Joystick JoystickConfig `yaml:"joystick"`
}

// Default timer intervals.
const (
	DefaultFastInterval = 20 * time.Millisecond
	DefaultSlowInterval = time.Second
)

var defaultConfig = Config{
	Serial: SerialConfig{
		Device:        "/dev/ttyS0",
		BaudRate:      uart.DefaultBaudRate,
		IdleTimeout:   uart.DefaultIdleTimeout,
		RetryInterval: uart.DefaultRetryInterval,
	},
	Sim: SimConfig{
		RobotID:  3,
		Interval: sim.DefaultInterval,
	},
	Engine: EngineConfig{
		RecvTimeout:  referee.DefaultRecvTimeout,
		FastInterval: DefaultFastInterval,
		SlowInterval: DefaultSlowInterval,
		Screen:       ui.DefaultScreen,
	},
	Bridge: BridgeConfig{
		Interval: bridge.DefaultInterval,
	},
	Joystick: JoystickConfig{
		Index: -1,
	},
}

func init() {
	if val := os.Getenv("REFEREE_SERIAL"); val != "" {
		defaultConfig.Serial.Device = val
	}
	if val := os.Getenv("REFEREE_MQTT_URL"); val != "" {
		defaultConfig.Bridge.MQTTBrokerURL = val
	}
	if val := os.Getenv("REFEREE_SENDER_ID"); val != "" {
		if id, err := strconv.ParseUint(val, 0, 16); err == nil {
			defaultConfig.Engine.SenderID = uint16(id)
		}
	}
	defaultConfig.Node = MachineID()
}

// MachineID retrieves the unique ID identifying the machine.
// It falls back to the host name when the machine id is unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID("referee")
	if err == nil {
		return id[:12]
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "referee"
}

var configFile string

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "YAML config file, explicit flags override it")
	defaultConfig.SetupFlags(flag.CommandLine)
}

// SetupFlags registers flags on fs bound to c.
func (c *Config) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Node, "node", c.Node, "Node ID")
	fs.StringVar(&c.Serial.Device, "serial", c.Serial.Device, "Referee serial device")
	fs.IntVar(&c.Serial.BaudRate, "baud", c.Serial.BaudRate, "Serial baud rate")
	fs.DurationVar(&c.Serial.IdleTimeout, "idle", c.Serial.IdleTimeout, "Receive idle line timeout")
	fs.BoolVar(&c.Sim.Enabled, "sim", c.Sim.Enabled, "Use simulated referee")
	fs.Var(uint8Value{&c.Sim.RobotID}, "sim-robot", "Robot ID reported by simulated referee")
	fs.Var(uint16Value{&c.Engine.SenderID}, "sender", "Sender ID overriding the reported robot ID")
	fs.DurationVar(&c.Engine.RecvTimeout, "recv-timeout", c.Engine.RecvTimeout, "Receive timeout before offline")
	fs.DurationVar(&c.Engine.FastInterval, "fast", c.Engine.FastInterval, "Fast refresh interval")
	fs.DurationVar(&c.Engine.SlowInterval, "slow", c.Engine.SlowInterval, "Slow refresh interval")
	fs.IntVar(&c.Engine.Screen.Width, "width", c.Engine.Screen.Width, "Client screen width")
	fs.IntVar(&c.Engine.Screen.Height, "height", c.Engine.Screen.Height, "Client screen height")
	fs.StringVar(&c.Bridge.MQTTBrokerURL, "mqtt", c.Bridge.MQTTBrokerURL, "MQTT broker URL")
	fs.StringVar(&c.Bridge.WebsocketAddr, "ws", c.Bridge.WebsocketAddr, "Websocket listen address")
	fs.BoolVar(&c.Bridge.Stdout, "stdout", c.Bridge.Stdout, "Write bridge packets to stdout")
	fs.DurationVar(&c.Bridge.Interval, "publish", c.Bridge.Interval, "Bridge publish interval")
	fs.BoolVar(&c.Joystick.Enabled, "js", c.Joystick.Enabled, "Change modes with a joystick")
	fs.IntVar(&c.Joystick.Index, "js-index", c.Joystick.Index, "Joystick index, -1 for auto detection")
}

// Default gets default config. When -config is specified, the file is
// loaded and flags explicitly set on the command line are applied over it.
func Default() (*Config, error) {
	if configFile == "" {
		return &defaultConfig, nil
	}
	return Overlay(configFile, flag.CommandLine)
}

// Overlay loads path and applies the flags set on fs over it.
func Overlay(path string, fs *flag.FlagSet) (*Config, error) {
	conf, err := Load(path)
	if err != nil {
		return nil, err
	}
	overlay := flag.NewFlagSet(fs.Name(), flag.ContinueOnError)
	conf.SetupFlags(overlay)
	var args []string
	fs.Visit(func(f *flag.Flag) {
		if overlay.Lookup(f.Name) != nil {
			args = append(args, "-"+f.Name+"="+f.Value.String())
		}
	})
	if err := overlay.Parse(args); err != nil {
		return nil, err
	}
	return conf, nil
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load reads a YAML file over the default config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML over the default config.
func Parse(data []byte) (*Config, error) {
	conf := NewConfig()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse config: %v", err)
	}
	return conf, nil
}

// Validate checks configuration correctness.
// It performs declarative validation only.
func Validate(c *Config) error {
	if c.Node == "" {
		return fmt.Errorf("node must be specified")
	}
	if !c.Sim.Enabled {
		if c.Serial.Device == "" {
			return fmt.Errorf("serial device must be specified")
		}
		if c.Serial.BaudRate <= 0 {
			return fmt.Errorf("invalid baud rate %d", c.Serial.BaudRate)
		}
		if c.Serial.IdleTimeout <= 0 {
			return fmt.Errorf("serial idle timeout must be positive")
		}
	} else if c.Sim.RobotID == 0 {
		return fmt.Errorf("sim robot id must be specified")
	}
	if c.Engine.FastInterval <= 0 || c.Engine.SlowInterval <= 0 {
		return fmt.Errorf("refresh intervals must be positive")
	}
	if c.Engine.FastInterval >= c.Engine.SlowInterval {
		return fmt.Errorf("fast interval %v must be shorter than slow interval %v",
			c.Engine.FastInterval, c.Engine.SlowInterval)
	}
	if c.Engine.Screen.Width <= 0 || c.Engine.Screen.Height <= 0 {
		return fmt.Errorf("invalid screen %dx%d", c.Engine.Screen.Width, c.Engine.Screen.Height)
	}
	if c.Joystick.Enabled && c.Joystick.Index < -1 {
		return fmt.Errorf("invalid joystick index %d", c.Joystick.Index)
	}
	if c.Bridge.Interval <= 0 && c.HasBridge() {
		return fmt.Errorf("bridge interval must be positive")
	}
	return nil
}

// HasBridge tells whether any bridge sink is configured.
func (c *Config) HasBridge() bool {
	return c.Bridge.MQTTBrokerURL != "" || c.Bridge.WebsocketAddr != "" || c.Bridge.Stdout
}

// EngineOptions converts the config into referee.Options.
func (c *Config) EngineOptions() referee.Options {
	return referee.Options{
		Screen:         c.Engine.Screen,
		SenderID:       c.Engine.SenderID,
		RecvTimeout:    c.Engine.RecvTimeout,
		AbortOnUnknown: c.Engine.AbortOnUnknown,
	}
}

type uint8Value struct{ p *uint8 }

func (v uint8Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.Itoa(int(*v.p))
}

func (v uint8Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 8)
	if err == nil {
		*v.p = uint8(n)
	}
	return err
}

type uint16Value struct{ p *uint16 }

func (v uint16Value) String() string {
	if v.p == nil {
		return "0"
	}
	return strconv.Itoa(int(*v.p))
}

func (v uint16Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 16)
	if err == nil {
		*v.p = uint16(n)
	}
	return err
}
