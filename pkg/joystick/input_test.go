package joystick

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/referee.go/pkg/joystick/device"
	"github.com/robotalks/referee.go/pkg/referee"
)

type fakeDevice struct {
	index  int
	events chan device.Event
	closed chan struct{}
}

func newFakeDevice(index int) *fakeDevice {
	return &fakeDevice{index: index, events: make(chan device.Event), closed: make(chan struct{})}
}

func (d *fakeDevice) Close() error {
	select {
	case <-d.closed:
	default:
		close(d.closed)
	}
	return nil
}

func (d *fakeDevice) Index() int       { return d.index }
func (d *fakeDevice) Name() string     { return "pad" }
func (d *fakeDevice) AxisCount() int   { return 8 }
func (d *fakeDevice) ButtonCount() int { return 12 }

func (d *fakeDevice) ReadEvent() (device.Event, error) {
	select {
	case ev, ok := <-d.events:
		if !ok {
			return nil, io.EOF
		}
		return ev, nil
	case <-d.closed:
		return nil, io.ErrClosedPipe
	}
}

func TestHandleEvent(t *testing.T) {
	store := &referee.ModeStore{}
	in := NewInput(store, 0)

	require.Equal(t, ActionChassis, in.Press(0))
	require.Equal(t, referee.ChassisFollowGimbal, store.UIState().Chassis.Mode)
	in.Press(0)
	require.Equal(t, referee.ChassisFollowGimbal35, store.UIState().Chassis.Mode)
	in.Press(0)
	require.Equal(t, referee.ChassisRotor, store.UIState().Chassis.Mode)
	in.Press(0)
	require.Equal(t, referee.ChassisFollowGimbal, store.UIState().Chassis.Mode)

	for _, mode := range []referee.GimbalMode{referee.GimbalAbsolute, referee.GimbalRelative, referee.GimbalRelax} {
		require.Equal(t, ActionGimbal, in.Press(1))
		require.Equal(t, mode, store.UIState().Gimbal.Mode)
	}
	in.Press(2)
	require.Equal(t, referee.LauncherSafe, store.UIState().Launcher.Mode)
	in.Press(3)
	require.Equal(t, referee.FireBurst, store.UIState().Launcher.Fire)
	in.Press(4)
	require.True(t, store.UIState().Cap.Online)
	in.Press(5)
	require.Equal(t, referee.CtrlMouseKeyboard, store.UIState().Cmd.CtrlMethod)

	// releases and unbound buttons are ignored
	require.Equal(t, ActionNone, in.HandleEvent(device.Button(0, false)))
	require.Equal(t, ActionNone, in.Press(11))
	require.Equal(t, referee.ChassisFollowGimbal, store.UIState().Chassis.Mode)

	in.HandleEvent(device.Axis(DefaultAngleAxis, device.AxisMax/2))
	require.InDelta(t, math.Pi/2, float64(store.UIState().Chassis.Angle.Radians()), 1e-3)
	in.HandleEvent(device.Axis(0, device.AxisMax))
	require.InDelta(t, math.Pi/2, float64(store.UIState().Chassis.Angle.Radians()), 1e-3)

	st := in.Status()
	require.Nil(t, st.Device)
	require.Equal(t, uint64(15), st.Events)
	require.Equal(t, uint64(11), st.Presses)
}

func TestRun(t *testing.T) {
	store := &referee.ModeStore{}
	in := NewInput(store, -1)
	in.RetryInterval = time.Millisecond

	devices := make(chan *fakeDevice, 2)
	attempts := 0
	in.detect = func(start int) (device.Device, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("busy")
		}
		select {
		case d := <-devices:
			return d, nil
		default:
			return nil, nil
		}
	}
	first, second := newFakeDevice(0), newFakeDevice(1)
	devices <- first
	devices <- second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx) }()

	first.events <- device.Button(2, true)
	require.Eventually(t, func() bool {
		return store.UIState().Launcher.Mode == referee.LauncherSafe
	}, time.Second, time.Millisecond)
	st := in.Status()
	require.NotNil(t, st.Device)
	require.Equal(t, "pad", st.Device.Name)

	// a read error reopens
	close(first.events)
	second.events <- device.Button(2, true)
	require.Eventually(t, func() bool {
		return store.UIState().Launcher.Mode == referee.LauncherLoaded
	}, time.Second, time.Millisecond)
	require.Equal(t, 1, in.Status().Device.Index)

	cancel()
	require.Equal(t, context.Canceled, <-done)
	require.Nil(t, in.Status().Device)
	select {
	case <-second.closed:
	default:
		t.Fatal("device not closed")
	}
}
