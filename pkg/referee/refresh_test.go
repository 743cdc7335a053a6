package referee

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/referee.go/pkg/ui"
)

var testScreen = ui.Screen{Width: 1920, Height: 1080}

func newTestScheduler(st *UIState) (*Scheduler, *ui.Queue) {
	q := ui.NewDefaultQueue()
	return NewScheduler(testScreen, q, ModeSourceFunc(func() UIState { return *st })), q
}

func drainGraphics(q *ui.Queue) (graphics []ui.Graphic) {
	for {
		g, ok := q.PopGraphic()
		if !ok {
			return
		}
		graphics = append(graphics, g)
	}
}

func drainLabels(q *ui.Queue) (labels []ui.Label) {
	for {
		l, ok := q.PopLabel()
		if !ok {
			return
		}
		labels = append(labels, l)
	}
}

func graphicNames(graphics []ui.Graphic) (names []string) {
	for _, g := range graphics {
		names = append(names, g.Name.String())
	}
	return
}

func TestSchedulerRotation(t *testing.T) {
	st := UIState{
		Chassis:  ChassisUI{Mode: ChassisRotor},
		Cmd:      CmdUI{CtrlMethod: CtrlMouseKeyboard},
		Launcher: LauncherUI{Mode: LauncherSafe, Fire: FireBurst},
	}
	s, q := newTestScheduler(&st)
	require.Equal(t, 0, s.Phase())

	expected := [][]string{
		{"6", "8"},
		{"9"},
		{"a"},
		{"b", "f"},
		{"c"},
	}
	for n := 0; n < NumPhases; n++ {
		require.Equal(t, n, s.Phase())
		s.Fast()
		require.Equal(t, expected[n], graphicNames(drainGraphics(q)), "phase %d", n)
	}
	require.Equal(t, 0, s.Phase())
	require.Zero(t, q.LabelCount())
}

func TestSchedulerOp(t *testing.T) {
	var st UIState
	s, q := newTestScheduler(&st)

	require.Equal(t, ui.OpAdd, s.Op())
	s.Fast()
	graphics := drainGraphics(q)
	require.NotEmpty(t, graphics)
	for _, g := range graphics {
		require.Equal(t, ui.OpAdd, g.Op)
	}

	for round := 0; round < 2; round++ {
		for n := 0; n < 7; n++ {
			s.Fast()
			for _, g := range drainGraphics(q) {
				require.Equal(t, ui.OpRewrite, g.Op)
			}
		}

		s.Slow()
		require.Equal(t, ui.OpAdd, s.Op())
		require.Equal(t, 1, s.Phase())
		for _, g := range drainGraphics(q) {
			require.Equal(t, ui.OpAdd, g.Op)
		}
		for _, l := range drainLabels(q) {
			require.Equal(t, ui.OpAdd, l.Op)
		}

		s.Fast()
		graphics := drainGraphics(q)
		require.Equal(t, []string{"9"}, graphicNames(graphics))
		require.Equal(t, ui.OpAdd, graphics[0].Op)
		require.Equal(t, ui.OpRewrite, s.Op())
	}
}

func TestSchedulerSlow(t *testing.T) {
	var st UIState
	s, q := newTestScheduler(&st)
	s.Slow()

	labels := drainLabels(q)
	require.Len(t, labels, 6)
	texts := map[string]string{}
	for _, l := range labels {
		texts[l.Name.String()] = l.TextString()
		require.Equal(t, ui.LayerConst, l.Layer)
		require.Equal(t, ui.TypeChar, l.Type)
	}
	require.Equal(t, map[string]string{
		"1": "CHAS  FLLW  FL35  ROTR",
		"2": "GMBL  RELX  ABSL  RLTV",
		"3": "SHOT  RELX  SAFE  LOAD",
		"4": "FIRE  SNGL  BRST  CONT",
		"d": "CTRL  JS  KM",
		"e": "CAP",
	}, texts)

	require.Equal(t, uint16(1632), labels[0].StartX)
	require.Equal(t, uint16(756), labels[0].StartY)
	require.Equal(t, uint16(734), labels[1].StartY)
	require.Equal(t, uint16(10), labels[0].StartAngle)
	require.Equal(t, uint16(ui.CharDefaultWidth), labels[0].Width)
	require.Equal(t, uint16(432), labels[4].StartY)
	require.Equal(t, uint16(1126), labels[5].StartX)
	require.Equal(t, uint16(226), labels[5].StartY)
	require.Equal(t, uint16(20), labels[5].StartAngle)

	graphics := drainGraphics(q)
	require.Len(t, graphics, 1)
	divider := graphics[0]
	require.Equal(t, "5", divider.Name.String())
	require.Equal(t, ui.TypeLine, divider.Type)
	require.Equal(t, uint16(3), divider.Width)
	require.Equal(t, []uint16{768, 216, 768, 266},
		[]uint16{divider.StartX, divider.StartY, divider.EndX, divider.EndY})
}

func TestSchedulerChassis(t *testing.T) {
	testCases := []struct {
		mode   ChassisMode
		box    bool
		x1, x2 uint16
	}{
		{ChassisFollowGimbal, true, 1686, 1734},
		{ChassisFollowGimbal35, true, 1746, 1794},
		{ChassisRotor, true, 1806, 1854},
		{ChassisRelax, false, 0, 0},
		{ChassisIndependent, false, 0, 0},
	}
	for _, tc := range testCases {
		st := UIState{Chassis: ChassisUI{Mode: tc.mode, Angle: ui.AngleFromDegrees(90)}}
		s, q := newTestScheduler(&st)
		s.Fast()
		graphics := drainGraphics(q)

		heading := graphics[0]
		require.Equal(t, "6", heading.Name.String())
		require.Equal(t, ui.LayerChassis, heading.Layer)
		require.Equal(t, uint16(12), heading.Width)
		require.Equal(t, uint16(768), heading.StartX)
		require.Equal(t, uint16(216), heading.StartY)
		require.InDelta(t, 812, heading.EndX, 1)
		require.InDelta(t, 216, heading.EndY, 1)

		if !tc.box {
			require.Len(t, graphics, 1)
			continue
		}
		require.Len(t, graphics, 2)
		box := graphics[1]
		require.Equal(t, ui.TypeRectangle, box.Type)
		require.Equal(t, []uint16{tc.x1, 760, tc.x2, 742},
			[]uint16{box.StartX, box.StartY, box.EndX, box.EndY})
	}
}

func TestSchedulerCap(t *testing.T) {
	st := UIState{Cap: CapUI{Online: true, Percentage: 0.5}}
	s, q := newTestScheduler(&st)
	s.phase = 1
	s.Fast()
	arc := drainGraphics(q)[0]
	require.Equal(t, ui.TypeArc, arc.Type)
	require.Equal(t, ui.ColorGreen, arc.Color)
	require.Equal(t, uint16(0), arc.StartAngle)
	require.Equal(t, uint16(180), arc.EndAngle)
	require.Equal(t, uint16(5), arc.Width)
	require.Equal(t, []uint16{1152, 216, 50, 50}, []uint16{arc.StartX, arc.StartY, arc.EndX, arc.EndY})

	st.Cap = CapUI{Online: true, Percentage: 3}
	s.phase = 1
	s.Fast()
	require.Equal(t, uint16(360), drainGraphics(q)[0].EndAngle)

	st.Cap = CapUI{Online: false, Percentage: 0.5}
	s.phase = 1
	s.Fast()
	arc = drainGraphics(q)[0]
	require.Equal(t, ui.ColorYellow, arc.Color)
	require.Equal(t, uint16(360), arc.EndAngle)
}

func TestSchedulerModeBoxes(t *testing.T) {
	st := UIState{
		Gimbal:   GimbalUI{Mode: GimbalRelative},
		Launcher: LauncherUI{Mode: LauncherRelax, Fire: FireContinued},
	}
	s, q := newTestScheduler(&st)
	s.phase = 2
	s.Fast()
	gimbal := drainGraphics(q)
	require.Len(t, gimbal, 1)
	require.Equal(t, ui.LayerGimbal, gimbal[0].Layer)
	require.Equal(t, []uint16{1806, 738, 1854, 720},
		[]uint16{gimbal[0].StartX, gimbal[0].StartY, gimbal[0].EndX, gimbal[0].EndY})

	s.Fast()
	launcher := drainGraphics(q)
	require.Len(t, launcher, 2)
	require.Equal(t, []uint16{1686, 716, 1734, 698},
		[]uint16{launcher[0].StartX, launcher[0].StartY, launcher[0].EndX, launcher[0].EndY})
	require.Equal(t, []uint16{1806, 695, 1854, 677},
		[]uint16{launcher[1].StartX, launcher[1].StartY, launcher[1].EndX, launcher[1].EndY})

	st.Launcher.Mode = LauncherMode(9)
	st.Launcher.Fire = FireMode(9)
	s.phase = 3
	s.Fast()
	require.Empty(t, drainGraphics(q))
}

func TestSchedulerCmd(t *testing.T) {
	testCases := []struct {
		method CtrlMethod
		x1, x2 uint16
	}{
		{CtrlMouseKeyboard, 1728, 1752},
		{CtrlJoystick, 1688, 1712},
	}
	for _, tc := range testCases {
		st := UIState{Cmd: CmdUI{CtrlMethod: tc.method}}
		s, q := newTestScheduler(&st)
		s.phase = 4
		s.Fast()
		graphics := drainGraphics(q)
		require.Len(t, graphics, 1)
		require.Equal(t, "c", graphics[0].Name.String())
		require.Equal(t, []uint16{tc.x1, 436, tc.x2, 418},
			[]uint16{graphics[0].StartX, graphics[0].StartY, graphics[0].EndX, graphics[0].EndY})
		require.Equal(t, 0, s.Phase())
	}

	st := UIState{Cmd: CmdUI{CtrlMethod: CtrlMethod(5)}}
	s, q := newTestScheduler(&st)
	s.phase = 4
	s.Fast()
	require.Zero(t, q.GraphicCount())
	require.Equal(t, 0, s.Phase())
}

func TestSchedulerInvalidPhase(t *testing.T) {
	var st UIState
	s, q := newTestScheduler(&st)
	s.phase = 9
	s.Fast()
	require.Equal(t, 0, s.Phase())
	require.Equal(t, ui.OpAdd, s.Op())
	require.Zero(t, q.GraphicCount())
	require.Zero(t, q.LabelCount())
}

func TestSchedulerQueueFull(t *testing.T) {
	var st UIState
	q := ui.NewQueue(1, 2, 1)
	s := NewScheduler(testScreen, q, ModeSourceFunc(func() UIState { return st }))
	s.Slow()
	require.Equal(t, uint64(4), s.Dropped)
	require.Equal(t, 2, q.LabelCount())
	require.Equal(t, 1, q.GraphicCount())
}

func TestSchedulerReset(t *testing.T) {
	var st UIState
	s, q := newTestScheduler(&st)
	s.Fast()
	s.Fast()
	s.Reset()
	require.Equal(t, 0, s.Phase())
	require.Equal(t, ui.OpAdd, s.Op())
	require.Zero(t, q.GraphicCount())
	d, ok := q.PopDelete()
	require.True(t, ok)
	require.Equal(t, ui.DelAll, d.Op)
}
