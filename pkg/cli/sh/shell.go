// Package sh provides the interactive debug shell of the referee engine.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/referee.go/pkg/config"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	// Ticking runs the refresh timers, otherwise ticks are manual.
	Ticking bool

	Shell   *ishell.Shell
	Config  *config.Config
	Session *Session
}

const (
	shellKey      = "$shell"
	stoppedPrompt = "[stopped] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	ticking    bool

	// commands
	commands = []*ishell.Cmd{
		&StartCmd,
		&StopCmd,
		&DecodeCmd,
		&PreviewCmd,
		&StatusCmd,
		&StatsCmd,
		&TickCmd,
		&ModeCmd,
		&RestartCmd,
		&ShootCmd,
		&ScreenCmd,
		&PortsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&ticking, "tick", ticking, "Run refresh timers.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Ticking:     ticking,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(stoppedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeStarted wraps command func requires a running session.
// The session is started on demand.
func MustBeStarted(fn func(c *ishell.Context, s *Session)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if err := s.Start(); err != nil {
			c.Err(err)
			return
		}
		fn(c, s.Session)
	}
}

// Output prints v as JSON, or with text when not in JSON mode.
func Output(c *ishell.Context, v interface{}, text func() string) {
	if ShellFrom(c).OutputJSON || text == nil {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(text())
}

// Start creates the Env and runs it.
func (s *Shell) Start() error {
	if s.Session != nil {
		return nil
	}
	env, err := s.Config.NewEnv()
	if err != nil {
		return err
	}
	s.Session = Start(env, s.Ticking)
	prompt := s.Config.Serial.Device
	if s.Config.Sim.Enabled {
		prompt = fmt.Sprintf("sim:%d", s.Config.Sim.RobotID)
	}
	s.Shell.SetPrompt(prompt + " > ")
	return nil
}

// Stop stops the running session.
func (s *Shell) Stop() error {
	if s.Session == nil {
		return nil
	}
	err := s.Session.Stop()
	s.Session = nil
	s.Shell.SetPrompt(stoppedPrompt)
	return err
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		s.Stop()
		return
	}
	if s.Interactive {
		if err := s.Start(); err != nil {
			log.Fatalf("start failed: %v", err)
		}
		s.Shell.Run()
		s.Stop()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	config.SetupFlags()
	flag.Parse()
	conf, err := config.Default()
	if err != nil {
		log.Fatalln(err)
	}
	New(conf).Run(flag.Args()...)
}
