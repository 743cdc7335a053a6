// Package joystick drives the UI modes from an operator gamepad.
package joystick

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/referee.go/pkg/joystick/device"
	"github.com/robotalks/referee.go/pkg/referee"
	"github.com/robotalks/referee.go/pkg/ui"
)

// Action is what a button press does to the UIState.
type Action int

// Actions.
const (
	ActionNone Action = iota
	ActionChassis
	ActionGimbal
	ActionLauncher
	ActionFire
	ActionCtrl
	ActionCap
)

var actionNames = map[Action]string{
	ActionNone:     "none",
	ActionChassis:  "chassis",
	ActionGimbal:   "gimbal",
	ActionLauncher: "launcher",
	ActionFire:     "fire",
	ActionCtrl:     "ctrl",
	ActionCap:      "cap",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// DefaultButtons maps button indices to actions.
var DefaultButtons = map[int]Action{
	0: ActionChassis,
	1: ActionGimbal,
	2: ActionLauncher,
	3: ActionFire,
	4: ActionCap,
	5: ActionCtrl,
}

// DefaultAngleAxis is the axis steering the chassis angle indicator.
const DefaultAngleAxis = 3

// DefaultRetryInterval is the delay between attempts to open a device.
const DefaultRetryInterval = time.Second

// DeviceInfo describes the opened device.
type DeviceInfo struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Axes    int    `json:"axes"`
	Buttons int    `json:"buttons"`
}

// Status is the state of the Input.
type Status struct {
	Device  *DeviceInfo `json:"device,omitempty"`
	Events  uint64      `json:"events"`
	Presses uint64      `json:"presses"`
}

// Input applies joystick events to a ModeStore.
type Input struct {
	Store *referee.ModeStore
	// DeviceIndex selects the device, -1 for auto detection.
	DeviceIndex   int
	RetryInterval time.Duration
	Buttons       map[int]Action
	// AngleAxis is negative to disable the angle axis.
	AngleAxis int

	open   func(index int) (device.Device, error)
	detect func(start int) (device.Device, error)

	lock   sync.Mutex
	status Status
}

// NewInput creates an Input with default bindings.
func NewInput(store *referee.ModeStore, deviceIndex int) *Input {
	return &Input{
		Store:         store,
		DeviceIndex:   deviceIndex,
		RetryInterval: DefaultRetryInterval,
		Buttons:       DefaultButtons,
		AngleAxis:     DefaultAngleAxis,
		open:          device.Open,
		detect:        device.DetectAndOpen,
	}
}

// Name implements fx.Named.
func (in *Input) Name() string {
	return "joystick"
}

// Status returns a copy of the current status.
func (in *Input) Status() Status {
	in.lock.Lock()
	defer in.lock.Unlock()
	st := in.status
	if st.Device != nil {
		info := *st.Device
		st.Device = &info
	}
	return st
}

// Press applies the action bound to button as if it was pressed.
func (in *Input) Press(button int) Action {
	return in.HandleEvent(device.Button(button, true))
}

// HandleEvent applies ev and returns the action performed.
func (in *Input) HandleEvent(ev device.Event) Action {
	in.lock.Lock()
	in.status.Events++
	in.lock.Unlock()
	switch e := ev.(type) {
	case device.ButtonEvent:
		if e.IsInit() || !e.Pressed() {
			return ActionNone
		}
		action := in.Buttons[e.Index()]
		if action == ActionNone {
			return ActionNone
		}
		in.lock.Lock()
		in.status.Presses++
		in.lock.Unlock()
		in.Store.Update(func(st *referee.UIState) { applyAction(st, action) })
		return action
	case device.AxisEvent:
		if in.AngleAxis < 0 || e.Index() != in.AngleAxis {
			return ActionNone
		}
		angle := ui.AngleFromRadians(math.Pi * float32(e.Value()) / device.AxisMax)
		in.Store.Update(func(st *referee.UIState) { st.Chassis.Angle = angle })
	}
	return ActionNone
}

func applyAction(st *referee.UIState, action Action) {
	switch action {
	case ActionChassis:
		switch st.Chassis.Mode {
		case referee.ChassisFollowGimbal:
			st.Chassis.Mode = referee.ChassisFollowGimbal35
		case referee.ChassisFollowGimbal35:
			st.Chassis.Mode = referee.ChassisRotor
		default:
			st.Chassis.Mode = referee.ChassisFollowGimbal
		}
	case ActionGimbal:
		st.Gimbal.Mode = (st.Gimbal.Mode + 1) % (referee.GimbalRelative + 1)
	case ActionLauncher:
		st.Launcher.Mode = (st.Launcher.Mode + 1) % (referee.LauncherLoaded + 1)
	case ActionFire:
		st.Launcher.Fire = (st.Launcher.Fire + 1) % (referee.FireContinued + 1)
	case ActionCtrl:
		if st.Cmd.CtrlMethod == referee.CtrlJoystick {
			st.Cmd.CtrlMethod = referee.CtrlMouseKeyboard
		} else {
			st.Cmd.CtrlMethod = referee.CtrlJoystick
		}
	case ActionCap:
		st.Cap.Online = !st.Cap.Online
	}
}

// Run opens the device, retrying until one is available, and applies its
// events until ctx is done. A device read error closes it and reopens.
func (in *Input) Run(ctx context.Context) error {
	retry := time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry:
		}
		dev := in.openDevice()
		if dev == nil {
			retry = time.After(in.retryInterval())
			continue
		}
		in.setDevice(&DeviceInfo{
			Index:   dev.Index(),
			Name:    dev.Name(),
			Axes:    dev.AxisCount(),
			Buttons: dev.ButtonCount(),
		})
		glog.Infof("joystick %d %q opened", dev.Index(), dev.Name())
		err := in.poll(ctx, dev)
		dev.Close()
		in.setDevice(nil)
		if err == nil {
			return ctx.Err()
		}
		glog.Warningf("joystick read: %v", err)
		retry = time.After(in.retryInterval())
	}
}

func (in *Input) openDevice() device.Device {
	var dev device.Device
	var err error
	if in.DeviceIndex >= 0 {
		dev, err = in.open(in.DeviceIndex)
	} else {
		dev, err = in.detect(0)
	}
	if err != nil {
		glog.V(1).Infof("joystick open: %v", err)
		return nil
	}
	return dev
}

// poll returns nil when ctx is done.
func (in *Input) poll(ctx context.Context, dev device.Device) error {
	eventCh, errCh := make(chan device.Event), make(chan error, 1)
	go func() {
		for {
			ev, err := dev.ReadEvent()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case ev := <-eventCh:
			if action := in.HandleEvent(ev); action != ActionNone {
				glog.V(2).Infof("joystick button %d: %s", ev.Index(), action)
			}
		}
	}
}

func (in *Input) setDevice(info *DeviceInfo) {
	in.lock.Lock()
	in.status.Device = info
	in.lock.Unlock()
}

func (in *Input) retryInterval() time.Duration {
	if in.RetryInterval <= 0 {
		return DefaultRetryInterval
	}
	return in.RetryInterval
}
