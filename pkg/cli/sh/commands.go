package sh

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/referee.go/pkg/referee"
	"github.com/robotalks/referee.go/pkg/uart"
)

func intArg(c *ishell.Context, index, def int) (int, error) {
	if len(c.Args) <= index {
		return def, nil
	}
	return strconv.Atoi(c.Args[index])
}

var (
	// StartCmd starts the session.
	StartCmd = ishell.Cmd{
		Name: "start",
		Help: "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Start(); err != nil {
				c.Err(err)
			}
		},
	}

	// StopCmd stops the session.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Stop(); err != nil {
				c.Err(err)
			}
		},
	}

	// DecodeCmd decodes a captured byte stream.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"d"},
		Help:    "HEX...",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("hex bytes expected"))
				return
			}
			res, err := DecodeHex(c.Args...)
			if err != nil {
				c.Err(err)
				return
			}
			Output(c, res, func() string {
				var w bytes.Buffer
				for _, f := range res.Frames {
					fmt.Fprintf(&w, "0x%04x %s %+v\n", f.ID, f.Name, f.Value)
				}
				fmt.Fprintf(&w, "%+v", res.Stats)
				if res.Error != "" {
					fmt.Fprintf(&w, "\nerror: %s", res.Error)
				}
				return w.String()
			})
		},
	}

	// PreviewCmd packs the frames a refresh would produce.
	PreviewCmd = ishell.Cmd{
		Name:    "preview",
		Aliases: []string{"p"},
		Help:    "[slow] [FAST_TICKS]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			args := c.Args
			slow := len(args) > 0 && args[0] == "slow"
			if slow {
				args = args[1:]
			}
			fast := 0
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					c.Err(err)
					return
				}
				fast = n
			}
			var st referee.UIState
			if s.Session != nil {
				st = s.Session.Env.Modes.UIState()
			}
			sender := s.Config.Engine.SenderID
			if sender == 0 {
				sender = uint16(s.Config.Sim.RobotID)
			}
			frames, err := Preview(s.Config.Engine.Screen, st, sender, slow, fast)
			if err != nil {
				c.Err(err)
				return
			}
			Output(c, frames, func() string {
				lines := make([]string, 0, len(frames))
				for _, f := range frames {
					lines = append(lines, f.SubCmd+" "+f.Hex)
				}
				if len(lines) == 0 {
					return "nothing pending"
				}
				return strings.Join(lines, "\n")
			})
		},
	}

	// StatusCmd prints the exported projections.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"s"},
		Help:    "",
		Func: MustBeStarted(func(c *ishell.Context, s *Session) {
			ex := s.Env.Engine.Exports()
			Output(c, ex, func() string {
				var w bytes.Buffer
				fmt.Fprintf(&w, "robot %d %s\n", ex.RobotID, ex.AI.Team)
				fmt.Fprintf(&w, "chassis %+v\n", ex.Chassis)
				fmt.Fprintf(&w, "launcher %+v\n", ex.Launcher)
				fmt.Fprintf(&w, "cap %+v", ex.Cap)
				return w.String()
			})
		}),
	}

	// StatsCmd prints the counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: MustBeStarted(func(c *ishell.Context, s *Session) {
			st := s.Stats()
			Output(c, st, func() string {
				text := fmt.Sprintf("engine %+v\nport %+v", st.Engine, st.Port)
				if st.Client != nil {
					text += fmt.Sprintf("\nclient %+v", *st.Client)
				}
				return text
			})
		}),
	}

	// TickCmd posts refresh events.
	TickCmd = ishell.Cmd{
		Name:    "tick",
		Aliases: []string{"t"},
		Help:    "slow | [N]",
		Func: MustBeStarted(func(c *ishell.Context, s *Session) {
			if len(c.Args) > 0 && c.Args[0] == "slow" {
				s.Tick(true, 0)
				return
			}
			n, err := intArg(c, 0, 1)
			if err != nil {
				c.Err(err)
				return
			}
			s.Tick(false, n)
		}),
	}

	// ModeCmd changes the UI state.
	ModeCmd = ishell.Cmd{
		Name:    "mode",
		Aliases: []string{"m"},
		Help:    "NAME VALUE, NAME is one of " + strings.Join(ModeNames, ", "),
		Func: MustBeStarted(func(c *ishell.Context, s *Session) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("NAME VALUE expected"))
				return
			}
			if err := s.SetMode(c.Args[0], c.Args[1]); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// RestartCmd restarts the engine.
	RestartCmd = ishell.Cmd{
		Name: "restart",
		Help: "",
		Func: MustBeStarted(func(c *ishell.Context, s *Session) {
			s.Env.Engine.Restart()
			c.Println("OK")
		}),
	}

	// ShootCmd launches a projectile on the simulated referee.
	ShootCmd = ishell.Cmd{
		Name: "shoot",
		Help: "SPEED",
		Func: MustBeStarted(func(c *ishell.Context, s *Session) {
			speed := 15.0
			if len(c.Args) > 0 {
				v, err := strconv.ParseFloat(c.Args[0], 32)
				if err != nil {
					c.Err(err)
					return
				}
				speed = v
			}
			if err := s.Shoot(float32(speed)); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		}),
	}

	// ScreenCmd lists elements drawn on the simulated client.
	ScreenCmd = ishell.Cmd{
		Name: "screen",
		Help: "",
		Func: MustBeStarted(func(c *ishell.Context, s *Session) {
			elements, err := s.Screen()
			if err != nil {
				c.Err(err)
				return
			}
			Output(c, elements, func() string {
				lines := make([]string, 0, len(elements))
				for _, e := range elements {
					line := fmt.Sprintf("%-3s %+v", e.Name, e.Graphic)
					if e.Text != "" {
						line += " " + strconv.Quote(e.Text)
					}
					lines = append(lines, line)
				}
				return strings.Join(lines, "\n")
			})
		}),
	}

	// PortsCmd lists serial devices.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "",
		Func: func(c *ishell.Context) {
			ports, err := uart.ListDevices()
			if err != nil {
				c.Err(err)
				return
			}
			if ports == nil {
				ports = []string{}
			}
			Output(c, ports, func() string { return strings.Join(ports, "\n") })
		},
	}
)
