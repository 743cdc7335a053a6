// Package joystick adds the joystick commands to the shell.
package joystick

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/referee.go/pkg/cli/sh"
	"github.com/robotalks/referee.go/pkg/joystick"
)

// ErrNotEnabled indicates the session runs without a joystick.
var ErrNotEnabled = fmt.Errorf("joystick not enabled, use -js")

func mustHaveInput(fn func(c *ishell.Context, in *joystick.Input)) func(c *ishell.Context) {
	return sh.MustBeStarted(func(c *ishell.Context, s *sh.Session) {
		if s.Env.Joystick == nil {
			c.Err(ErrNotEnabled)
			return
		}
		fn(c, s.Env.Joystick)
	})
}

var (
	// JoystickStatusCmd prints the joystick status.
	JoystickStatusCmd = ishell.Cmd{
		Name:    "js.status",
		Aliases: []string{"jss"},
		Help:    "",
		Func: mustHaveInput(func(c *ishell.Context, in *joystick.Input) {
			st := in.Status()
			sh.Output(c, st, func() string {
				if st.Device == nil {
					return "no device"
				}
				return fmt.Sprintf("%d %q axes=%d buttons=%d events=%d presses=%d",
					st.Device.Index, st.Device.Name, st.Device.Axes, st.Device.Buttons,
					st.Events, st.Presses)
			})
		}),
	}

	// JoystickPressCmd injects a button press.
	JoystickPressCmd = ishell.Cmd{
		Name:    "js.press",
		Aliases: []string{"jsp"},
		Help:    "BUTTON",
		Func: mustHaveInput(func(c *ishell.Context, in *joystick.Input) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("BUTTON expected"))
				return
			}
			button, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(in.Press(button).String())
		}),
	}
)

func init() {
	sh.AddCmds(
		&JoystickStatusCmd,
		&JoystickPressCmd,
	)
}
