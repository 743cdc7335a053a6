package referee

import (
	"github.com/golang/glog"

	"github.com/robotalks/referee.go/pkg/ui"
)

// Screen layout, in fractions of the screen size or pixels.
const (
	rightStartW = 0.85

	modeRow1H = 0.7
	modeRow2H = 0.68
	modeRow3H = 0.66
	modeRow4H = 0.64
	cmdRowH   = 0.4

	boxUpOffset     = 4
	boxBottomOffset = -14

	headingW   = 0.4
	headingH   = 0.2
	headingLen = 44

	capW      = 0.6
	capH      = 0.2
	capRadius = 50
)

// modeSpans are the horizontal spans of the first, second and third
// mode legend, relative to rightStartW.
var modeSpans = [3][2]float32{
	{54, 102},
	{114, 162},
	{174, 222},
}

// NumPhases is the length of the refresh rotation.
const NumPhases = 5

type phaseFunc func(*Scheduler, *UIState) int

// phases is indexed by phase, each body returns the next phase.
var phases = [NumPhases]phaseFunc{
	(*Scheduler).stageChassis,
	(*Scheduler).stageCap,
	(*Scheduler).stageGimbal,
	(*Scheduler).stageLauncher,
	(*Scheduler).stageCmd,
}

// Scheduler stages UI operations on fast and slow refresh ticks.
// It is not safe for concurrent use.
type Scheduler struct {
	Screen ui.Screen
	Queue  *ui.Queue
	Modes  ModeSource

	// Dropped counts operations not staged because the queue is full.
	Dropped uint64

	phase int
	op    ui.Operation
}

// NewScheduler creates a Scheduler at phase 0 staging with OpAdd.
func NewScheduler(screen ui.Screen, q *ui.Queue, modes ModeSource) *Scheduler {
	return &Scheduler{
		Screen: screen,
		Queue:  q,
		Modes:  modes,
		op:     ui.OpAdd,
	}
}

// Phase returns the phase the next fast tick runs.
func (s *Scheduler) Phase() int {
	return s.phase
}

// Op returns the operation the next fast tick stages with.
func (s *Scheduler) Op() ui.Operation {
	return s.op
}

// Fast runs the body of the current phase and advances the rotation.
func (s *Scheduler) Fast() {
	if s.phase < 0 || s.phase >= NumPhases {
		s.phase = 0
		return
	}
	st := s.uiState()
	s.phase = phases[s.phase](s, &st) % NumPhases
	s.op = ui.OpRewrite
}

// Slow stages the static legends and restarts the rotation at phase 1.
func (s *Scheduler) Slow() {
	s.op = ui.OpAdd
	s.phase = 1

	x := s.Screen.W(rightStartW)
	legends := []struct {
		name string
		row  float32
		text string
	}{
		{"1", modeRow1H, "CHAS  FLLW  FL35  ROTR"},
		{"2", modeRow2H, "GMBL  RELX  ABSL  RLTV"},
		{"3", modeRow3H, "SHOT  RELX  SAFE  LOAD"},
		{"4", modeRow4H, "FIRE  SNGL  BRST  CONT"},
	}
	for _, l := range legends {
		s.stageLabel(ui.Text(l.name, ui.OpAdd, ui.LayerConst, ui.ColorGreen,
			ui.DefaultWidth*10, ui.CharDefaultWidth, x, s.Screen.H(l.row), l.text))
	}

	hx, hy := s.Screen.W(headingW), s.Screen.H(headingH)
	s.stageGraphic(ui.Line("5", ui.OpAdd, ui.LayerConst, ui.ColorGreen,
		ui.DefaultWidth*3, hx, hy, hx, hy+50))

	s.stageLabel(ui.Text("d", ui.OpAdd, ui.LayerConst, ui.ColorGreen,
		ui.DefaultWidth*10, ui.CharDefaultWidth, x, s.Screen.H(cmdRowH), "CTRL  JS  KM"))
	s.stageLabel(ui.Text("e", ui.OpAdd, ui.LayerConst, ui.ColorGreen,
		ui.DefaultWidth*20, ui.CharDefaultWidth*2, s.Screen.W(capW)-26, s.Screen.H(capH)+10, "CAP"))
}

// Reset drops everything staged, asks the client to remove all
// elements and restarts the rotation.
func (s *Scheduler) Reset() {
	s.Queue.Clear()
	if err := s.Queue.PushDelete(ui.Delete{Op: ui.DelAll}); err != nil {
		s.Dropped++
	}
	s.phase, s.op = 0, ui.OpAdd
}

func (s *Scheduler) uiState() UIState {
	if s.Modes == nil {
		return UIState{}
	}
	return s.Modes.UIState()
}

func (s *Scheduler) stageGraphic(g ui.Graphic) {
	if err := s.Queue.PushGraphic(g); err != nil {
		s.Dropped++
		glog.V(2).Infof("graphic %q dropped: %v", g.Name, err)
	}
}

func (s *Scheduler) stageLabel(l ui.Label) {
	if err := s.Queue.PushLabel(l); err != nil {
		s.Dropped++
		glog.V(2).Infof("label %q dropped: %v", l.Name, err)
	}
}

// stageModeBox highlights legend slot on row. slot < 0 stages nothing.
func (s *Scheduler) stageModeBox(name string, layer ui.Layer, slot int, row float32) {
	if slot < 0 || slot >= len(modeSpans) {
		return
	}
	x, y := s.Screen.W(rightStartW), s.Screen.H(row)
	span := modeSpans[slot]
	s.stageGraphic(ui.Rectangle(name, s.op, layer, ui.ColorGreen, ui.DefaultWidth,
		x+span[0], y+boxUpOffset, x+span[1], y+boxBottomOffset))
}

func (s *Scheduler) stageChassis(st *UIState) int {
	hx, hy := s.Screen.W(headingW), s.Screen.H(headingH)
	dx, dy := st.Chassis.Angle.Project(headingLen)
	s.stageGraphic(ui.Line("6", s.op, ui.LayerChassis, ui.ColorGreen,
		ui.DefaultWidth*12, hx, hy, hx+dx, hy+dy))

	slot := -1
	switch st.Chassis.Mode {
	case ChassisFollowGimbal:
		slot = 0
	case ChassisFollowGimbal35:
		slot = 1
	case ChassisRotor:
		slot = 2
	}
	s.stageModeBox("8", ui.LayerChassis, slot, modeRow1H)
	return 1
}

func (s *Scheduler) stageCap(st *UIState) int {
	x, y := s.Screen.W(capW), s.Screen.H(capH)
	if st.Cap.Online {
		pct := st.Cap.Percentage
		if pct < 0 {
			pct = 0
		} else if pct > 1 {
			pct = 1
		}
		s.stageGraphic(ui.Arc("9", s.op, ui.LayerCap, ui.ColorGreen, 0, uint16(pct*360),
			ui.DefaultWidth*5, x, y, capRadius, capRadius))
	} else {
		s.stageGraphic(ui.Arc("9", s.op, ui.LayerCap, ui.ColorYellow, 0, 360,
			ui.DefaultWidth*5, x, y, capRadius, capRadius))
	}
	return 2
}

func (s *Scheduler) stageGimbal(st *UIState) int {
	slot := -1
	switch st.Gimbal.Mode {
	case GimbalRelax:
		slot = 0
	case GimbalAbsolute:
		slot = 1
	case GimbalRelative:
		slot = 2
	}
	s.stageModeBox("a", ui.LayerGimbal, slot, modeRow2H)
	return 3
}

func (s *Scheduler) stageLauncher(st *UIState) int {
	slot := -1
	switch st.Launcher.Mode {
	case LauncherRelax:
		slot = 0
	case LauncherSafe:
		slot = 1
	case LauncherLoaded:
		slot = 2
	}
	s.stageModeBox("b", ui.LayerLauncher, slot, modeRow3H)

	slot = -1
	switch st.Launcher.Fire {
	case FireSingle:
		slot = 0
	case FireBurst:
		slot = 1
	case FireContinued:
		slot = 2
	}
	s.stageModeBox("f", ui.LayerLauncher, slot, modeRow4H)
	return 4
}

func (s *Scheduler) stageCmd(st *UIState) int {
	x, y := s.Screen.W(rightStartW), s.Screen.H(cmdRowH)
	var left, right float32
	switch st.Cmd.CtrlMethod {
	case CtrlMouseKeyboard:
		left, right = 96, 120
	case CtrlJoystick:
		left, right = 56, 80
	default:
		return 0
	}
	s.stageGraphic(ui.Rectangle("c", s.op, ui.LayerCmd, ui.ColorGreen, ui.DefaultWidth,
		x+left, y+boxUpOffset, x+right, y+boxBottomOffset))
	return 0
}
