// Package device reads events from a joystick device.
package device

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnsupported is returned by Open when the platform has no joystick driver.
var ErrUnsupported = errors.New("joystick unsupported on this platform")

// Event defines the base event interface.
type Event interface {
	// IsInit indicates this is the init state.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent represents the change on an axis.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// AxisCount returns the number of Axis on the device.
	AxisCount() int
	// ButtonCount returns the number of buttons on the device.
	ButtonCount() int
	// ReadEvent reads one event from the device.
	ReadEvent() (Event, error)
}

// AxisMax is the magnitude of a fully deflected axis.
const AxisMax = 32767

// Path returns the device node of joystick index.
func Path(index int) string {
	return fmt.Sprintf("/dev/input/js%d", index)
}

const (
	evINIT uint8 = 0x80
	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
)

// event is the kernel js_event.
type event struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

func (e *event) IsInit() bool {
	return e.Type&evINIT != 0
}

func (e *event) Index() int {
	return int(e.Number)
}

type axisEvent struct {
	event
}

func (e *axisEvent) Value() int {
	return int(e.event.Value)
}

type buttonEvent struct {
	event
}

func (e *buttonEvent) Pressed() bool {
	return e.event.Value != 0
}

// Button creates a ButtonEvent, used to inject presses.
func Button(index int, pressed bool) ButtonEvent {
	ev := &buttonEvent{event: event{Type: evBTN, Number: uint8(index)}}
	if pressed {
		ev.event.Value = 1
	}
	return ev
}

// Axis creates an AxisEvent.
func Axis(index, value int) AxisEvent {
	return &axisEvent{event: event{Type: evAXIS, Number: uint8(index), Value: int16(value)}}
}

func typedEvent(ev event) Event {
	switch ev.Type &^ evINIT {
	case evBTN:
		return &buttonEvent{event: ev}
	case evAXIS:
		return &axisEvent{event: ev}
	}
	return &ev
}
