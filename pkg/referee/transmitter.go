package referee

import (
	"context"
	"time"
)

// Sender is the asynchronous transmit primitive.
// Transmit returns once the driver accepted p, and the driver must not
// accept another transfer (ErrBusy) until p is completely sent.
type Sender interface {
	Transmit(p []byte) error
}

// Releaser takes back Frames no longer referenced.
type Releaser interface {
	Put(*Frame)
}

// Transmitter hands Frames to a Sender keeping the in-flight one alive.
// It is not safe for concurrent use.
type Transmitter struct {
	Sender   Sender
	Releaser Releaser

	Sent   uint64
	Failed uint64

	inFlight *Frame
	sentBox  *Mailbox
}

// NewTransmitter creates a Transmitter.
func NewTransmitter(sender Sender, releaser Releaser) *Transmitter {
	return &Transmitter{
		Sender:   sender,
		Releaser: releaser,
		sentBox:  NewMailbox(),
	}
}

// Send hands f to the Sender. On success the previous in-flight Frame is
// released and f takes its place. On failure f is not retained and the
// caller releases it. The sent notification is posted either way, also
// for a nil Frame.
func (t *Transmitter) Send(f *Frame) error {
	defer t.sentBox.Post(EventSent)
	if f == nil {
		return ErrNoFrame
	}
	if err := t.Sender.Transmit(f.Bytes()); err != nil {
		t.Failed++
		return &SendError{Err: err}
	}
	// accepting a new transfer means the previous one has completed
	if t.inFlight != nil {
		t.Releaser.Put(t.inFlight)
	}
	t.inFlight = f
	t.Sent++
	return nil
}

// InFlight returns the Frame last accepted by the Sender.
func (t *Transmitter) InFlight() *Frame {
	return t.inFlight
}

// WaitSent waits for the notification of the next Send.
func (t *Transmitter) WaitSent(ctx context.Context, timeout time.Duration) error {
	_, err := t.sentBox.Wait(ctx, timeout)
	return err
}
