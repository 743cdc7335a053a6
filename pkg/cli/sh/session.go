package sh

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/robotalks/referee.go/pkg/config"
	fx "github.com/robotalks/referee.go/pkg/framework"
	"github.com/robotalks/referee.go/pkg/referee"
	"github.com/robotalks/referee.go/pkg/sim"
	"github.com/robotalks/referee.go/pkg/uart"
	"github.com/robotalks/referee.go/pkg/ui"
)

// ErrNotSimulated indicates the session runs on a real serial port.
var ErrNotSimulated = errors.New("not simulated")

// Session is a running Env.
type Session struct {
	Env *config.Env

	cancel func()
	runner *fx.Runner
}

// Start runs env until Stop.
func Start(env *config.Env, ticking bool) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{Env: env, cancel: cancel}
	s.runner = env.Go(fx.NewRunnerWith(ctx), ticking)
	return s
}

// Stop cancels all runners and waits.
func (s *Session) Stop() error {
	s.cancel()
	return s.runner.Wait()
}

// Tick posts n fast events, or one slow event when slow is set.
func (s *Session) Tick(slow bool, n int) {
	if slow {
		s.Env.Engine.Post(referee.EventSlow)
		return
	}
	for i := 0; i < n; i++ {
		s.Env.Engine.Post(referee.EventFast)
	}
}

// Stats collects the counters of every component.
type Stats struct {
	Engine referee.Stats   `json:"engine"`
	Port   uart.Stats      `json:"port"`
	Client *sim.ClientStats `json:"client,omitempty"`
}

// Stats returns the current counters.
func (s *Session) Stats() Stats {
	st := Stats{
		Engine: s.Env.Engine.Exports().Stats,
		Port:   s.Env.Port.Stats(),
	}
	if s.Env.Client != nil {
		cs := s.Env.Client.Stats()
		st.Client = &cs
	}
	return st
}

// Shoot launches a projectile on the simulated referee.
func (s *Session) Shoot(speed float32) error {
	if s.Env.Link == nil {
		return ErrNotSimulated
	}
	if !s.Env.Link.Shoot(speed) {
		return uart.ErrNotOpen
	}
	return nil
}

// Screen returns the elements drawn on the simulated client.
func (s *Session) Screen() ([]sim.Element, error) {
	if s.Env.Client == nil {
		return nil, ErrNotSimulated
	}
	return s.Env.Client.Elements(), nil
}

// SetMode parses and applies a single mode value.
func (s *Session) SetMode(name, value string) error {
	var err error
	s.Env.Modes.Update(func(st *referee.UIState) {
		err = ApplyMode(st, name, value)
	})
	return err
}

var (
	chassisModes = map[string]referee.ChassisMode{
		"relax":       referee.ChassisRelax,
		"break":       referee.ChassisBreak,
		"follow":      referee.ChassisFollowGimbal,
		"follow35":    referee.ChassisFollowGimbal35,
		"rotor":       referee.ChassisRotor,
		"independent": referee.ChassisIndependent,
		"open":        referee.ChassisOpen,
	}
	gimbalModes = map[string]referee.GimbalMode{
		"relax":    referee.GimbalRelax,
		"absolute": referee.GimbalAbsolute,
		"relative": referee.GimbalRelative,
	}
	launcherModes = map[string]referee.LauncherMode{
		"relax":  referee.LauncherRelax,
		"safe":   referee.LauncherSafe,
		"loaded": referee.LauncherLoaded,
	}
	fireModes = map[string]referee.FireMode{
		"single":    referee.FireSingle,
		"burst":     referee.FireBurst,
		"continued": referee.FireContinued,
	}
	ctrlMethods = map[string]referee.CtrlMethod{
		"js": referee.CtrlJoystick,
		"km": referee.CtrlMouseKeyboard,
	}
)

// ModeNames lists the names accepted by ApplyMode.
var ModeNames = []string{"chassis", "angle", "cap", "gimbal", "launcher", "fire", "ctrl"}

func lookup[T any](m map[string]T, name, value string) (T, error) {
	v, ok := m[strings.ToLower(value)]
	if !ok {
		return v, fmt.Errorf("invalid %s mode %q", name, value)
	}
	return v, nil
}

// ApplyMode sets the mode called name in st from value.
// angle is in degrees; cap is a percentage or "off".
func ApplyMode(st *referee.UIState, name, value string) (err error) {
	switch name {
	case "chassis":
		st.Chassis.Mode, err = lookup(chassisModes, name, value)
	case "angle":
		var deg float64
		if deg, err = strconv.ParseFloat(value, 32); err == nil {
			st.Chassis.Angle = ui.AngleFromDegrees(float32(deg))
		}
	case "cap":
		if value == "off" {
			st.Cap.Online = false
			return nil
		}
		var pct float64
		if pct, err = strconv.ParseFloat(value, 32); err != nil {
			return err
		}
		if pct < 0 || pct > 100 {
			return fmt.Errorf("cap percentage %v out of range", pct)
		}
		st.Cap.Online, st.Cap.Percentage = true, float32(pct/100)
	case "gimbal":
		st.Gimbal.Mode, err = lookup(gimbalModes, name, value)
	case "launcher":
		st.Launcher.Mode, err = lookup(launcherModes, name, value)
	case "fire":
		st.Launcher.Fire, err = lookup(fireModes, name, value)
	case "ctrl":
		st.Cmd.CtrlMethod, err = lookup(ctrlMethods, name, value)
	default:
		err = fmt.Errorf("unknown mode %q", name)
	}
	return
}

// DecodedFrame is a frame committed by the decoder.
type DecodedFrame struct {
	ID    uint16      `json:"id"`
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// DecodeResult is the outcome of DecodeHex.
type DecodeResult struct {
	Frames []DecodedFrame      `json:"frames"`
	Stats  referee.DecodeStats `json:"stats"`
	Error  string              `json:"error,omitempty"`
}

// ParseHex parses hex bytes ignoring spaces, colons and 0x prefixes.
func ParseHex(args ...string) ([]byte, error) {
	var sb strings.Builder
	for _, arg := range args {
		for _, tok := range strings.FieldsFunc(arg, func(r rune) bool { return r == ':' || r == ',' || r == ' ' }) {
			sb.WriteString(strings.TrimPrefix(strings.ToLower(tok), "0x"))
		}
	}
	return hex.DecodeString(sb.String())
}

// DecodeHex decodes a captured buffer with a fresh decoder.
func DecodeHex(args ...string) (*DecodeResult, error) {
	data, err := ParseHex(args...)
	if err != nil {
		return nil, err
	}
	var tm referee.Telemetry
	res := &DecodeResult{Frames: []DecodedFrame{}}
	d := referee.NewDecoder(&tm)
	d.OnFrame = func(cmd *referee.Command) {
		res.Frames = append(res.Frames, DecodedFrame{
			ID:    cmd.ID,
			Name:  cmd.Name,
			Value: reflect.ValueOf(cmd.Field(&tm)).Elem().Interface(),
		})
	}
	if err := d.Decode(data); err != nil {
		res.Error = err.Error()
	}
	res.Stats = d.Stats
	return res, nil
}

// PackedFrame is an outbound frame produced by Preview.
type PackedFrame struct {
	SubCmd string `json:"sub_cmd"`
	Hex    string `json:"hex"`
}

// Preview runs a standalone scheduler over st and packs what it stages.
func Preview(screen ui.Screen, st referee.UIState, sender uint16, slow bool, fast int) ([]PackedFrame, error) {
	q := ui.NewDefaultQueue()
	sched := referee.NewScheduler(screen, q, referee.ModeSourceFunc(func() referee.UIState { return st }))
	if slow {
		sched.Slow()
	}
	for i := 0; i < fast; i++ {
		sched.Fast()
	}
	pool := referee.NewBufferPool()
	packer := referee.NewPacker(pool)
	frames := []PackedFrame{}
	for {
		f, err := packer.Pack(q, sender)
		if err == referee.ErrNothingPending {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, PackedFrame{
			SubCmd: f.SubCmd().String(),
			Hex:    hex.EncodeToString(f.Bytes()),
		})
		pool.Put(f)
	}
}
