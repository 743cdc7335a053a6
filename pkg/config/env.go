package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robotalks/referee.go/pkg/bridge"
	"github.com/robotalks/referee.go/pkg/bridge/mqtt"
	"github.com/robotalks/referee.go/pkg/bridge/stream"
	"github.com/robotalks/referee.go/pkg/bridge/websocket"
	fx "github.com/robotalks/referee.go/pkg/framework"
	"github.com/robotalks/referee.go/pkg/joystick"
	"github.com/robotalks/referee.go/pkg/referee"
	"github.com/robotalks/referee.go/pkg/sim"
	"github.com/robotalks/referee.go/pkg/uart"
)

// Env is the wired referee stack.
type Env struct {
	Config *Config
	Modes  *referee.ModeStore
	Port   *uart.Port
	Engine *referee.Engine
	Fast   *fx.Ticker
	Slow   *fx.Ticker

	// Set when Sim is enabled.
	Link   *sim.Link
	Client *sim.Client

	// Set when Joystick is enabled.
	Joystick *joystick.Input

	// Set when any bridge sink is configured.
	MQTT      *mqtt.Link
	Hub       *websocket.Hub
	Publisher *bridge.Publisher
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	env := &Env{Config: c, Modes: &referee.ModeStore{}}

	var opener uart.Opener
	if c.Sim.Enabled {
		r := sim.NewReferee(c.Sim.RobotID)
		r.Interval = c.Sim.Interval
		env.Client = sim.NewClient()
		env.Link = sim.NewLink(r, env.Client)
		opener = env.Link.Open
	} else {
		opener = uart.OpenSerial(c.Serial.Device, c.Serial.BaudRate, c.Serial.IdleTimeout)
	}
	env.Port = uart.NewPort(opener)
	env.Port.RetryInterval = c.Serial.RetryInterval

	env.Engine = referee.NewEngine(c.EngineOptions(), env.Port, env.Port, env.Modes)
	env.Fast = fx.NewTicker("fast", c.Engine.FastInterval, func(time.Time) {
		env.Engine.Post(referee.EventFast)
	})
	env.Slow = fx.NewTicker("slow", c.Engine.SlowInterval, func(time.Time) {
		env.Engine.Post(referee.EventSlow)
	})

	if c.Joystick.Enabled {
		env.Joystick = joystick.NewInput(env.Modes, c.Joystick.Index)
	}

	modes := &bridge.ModeReceiver{Store: env.Modes}
	var sinks bridge.SinkMux
	if c.Bridge.MQTTBrokerURL != "" {
		link, err := mqtt.NewLinkFromURL(c.Bridge.MQTTBrokerURL, c.Node)
		if err != nil {
			return nil, fmt.Errorf("create MQTT link error: %v", err)
		}
		link.SubscribeModes(modes)
		env.MQTT = link
		sinks = append(sinks, link)
	}
	if c.Bridge.WebsocketAddr != "" {
		env.Hub = websocket.NewHub(c.Bridge.WebsocketAddr, modes)
		if env.Client != nil {
			env.Client.Subscribe(env.Hub)
		}
		sinks = append(sinks, env.Hub)
	}
	if c.Bridge.Stdout {
		sinks = append(sinks, stream.New(stream.WriteOnly{Writer: os.Stdout}))
	}
	if len(sinks) > 0 {
		env.Publisher = bridge.NewPublisher(env.Engine, sinks)
		env.Publisher.Interval = c.Bridge.Interval
		env.Publisher.All = c.Bridge.All
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// Runnables lists everything to run. The refresh timers are included
// only when ticking is set.
func (e *Env) Runnables(ticking bool) []fx.Runnable {
	runners := []fx.Runnable{e.Port, e.Engine}
	if e.Link != nil {
		runners = append(runners, e.Link)
	}
	if ticking {
		runners = append(runners, e.Fast, e.Slow)
	}
	if e.Joystick != nil {
		runners = append(runners, e.Joystick)
	}
	if e.MQTT != nil {
		runners = append(runners, fx.NamedRun("mqtt", e.MQTT))
	}
	if e.Hub != nil {
		runners = append(runners, e.Hub)
	}
	if e.Publisher != nil {
		runners = append(runners, e.Publisher)
	}
	return runners
}

// Go starts all Runnables on r.
func (e *Env) Go(r *fx.Runner, ticking bool) *fx.Runner {
	return r.Go(e.Runnables(ticking)...)
}
