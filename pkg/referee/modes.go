package referee

import (
	"sync"

	"github.com/robotalks/referee.go/pkg/ui"
)

// ChassisMode is the chassis control mode.
type ChassisMode uint8

// Chassis modes.
const (
	ChassisRelax ChassisMode = iota
	ChassisBreak
	ChassisFollowGimbal
	ChassisFollowGimbal35
	ChassisRotor
	ChassisIndependent
	ChassisOpen
)

// GimbalMode is the gimbal control mode.
type GimbalMode uint8

// Gimbal modes.
const (
	GimbalRelax GimbalMode = iota
	GimbalAbsolute
	GimbalRelative
)

// LauncherMode is the launcher safety mode.
type LauncherMode uint8

// Launcher modes.
const (
	LauncherRelax LauncherMode = iota
	LauncherSafe
	LauncherLoaded
)

// FireMode is the fire rate mode.
type FireMode uint8

// Fire modes.
const (
	FireSingle FireMode = iota
	FireBurst
	FireContinued
)

// CtrlMethod is the operator input method.
type CtrlMethod uint8

// Control methods.
const (
	CtrlJoystick CtrlMethod = iota
	CtrlMouseKeyboard
)

// ChassisUI is the chassis state drawn on the client.
type ChassisUI struct {
	Mode  ChassisMode
	Angle ui.Angle // gimbal relative to chassis
}

// CapUI is the capacitor state drawn on the client.
type CapUI struct {
	Online     bool
	Percentage float32 // 0 to 1
}

// GimbalUI is the gimbal state drawn on the client.
type GimbalUI struct {
	Mode GimbalMode
}

// LauncherUI is the launcher state drawn on the client.
type LauncherUI struct {
	Mode LauncherMode
	Fire FireMode
}

// CmdUI is the operator command state drawn on the client.
type CmdUI struct {
	CtrlMethod CtrlMethod
}

// UIState is the snapshot of every subsystem state drawn on the client.
type UIState struct {
	Chassis  ChassisUI
	Cap      CapUI
	Gimbal   GimbalUI
	Launcher LauncherUI
	Cmd      CmdUI
}

// ModeSource provides a copy of the current UIState.
type ModeSource interface {
	UIState() UIState
}

// ModeSourceFunc is func form of ModeSource.
type ModeSourceFunc func() UIState

// UIState implements ModeSource.
func (f ModeSourceFunc) UIState() UIState {
	return f()
}

// ModeStore is a ModeSource updated by other goroutines.
type ModeStore struct {
	state UIState
	lock  sync.RWMutex
}

// UIState implements ModeSource.
func (s *ModeStore) UIState() UIState {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state
}

// Update applies fn to the stored state.
func (s *ModeStore) Update(fn func(*UIState)) {
	s.lock.Lock()
	fn(&s.state)
	s.lock.Unlock()
}
