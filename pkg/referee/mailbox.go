package referee

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Event wakes the engine.
type Event uint8

// Events.
const (
	EventNone Event = iota
	EventRawReady
	EventFast
	EventSlow
	EventRestart
	EventSent
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventRawReady:
		return "raw-ready"
	case EventFast:
		return "fast"
	case EventSlow:
		return "slow"
	case EventRestart:
		return "restart"
	case EventSent:
		return "sent"
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

// Mailbox holds at most one pending Event.
// Post replaces an unconsumed Event, it never queues.
type Mailbox struct {
	lock        sync.Mutex
	pending     Event
	hasPending  bool
	posted      uint64
	overwritten uint64

	notifyCh chan struct{}
}

// NewMailbox creates an empty Mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notifyCh: make(chan struct{}, 1)}
}

// Post stores e, replacing any pending Event, and wakes the waiter.
func (m *Mailbox) Post(e Event) {
	m.lock.Lock()
	if m.hasPending {
		m.overwritten++
	}
	m.pending, m.hasPending = e, true
	m.posted++
	m.lock.Unlock()
	select {
	case m.notifyCh <- struct{}{}:
	default:
	}
}

// Take consumes the pending Event without blocking.
func (m *Mailbox) Take() (Event, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	e, ok := m.pending, m.hasPending
	m.pending, m.hasPending = EventNone, false
	return e, ok
}

// Wait blocks until an Event is pending and consumes it.
// A timeout <= 0 waits without limit. ErrTimeout is returned on timeout.
func (m *Mailbox) Wait(ctx context.Context, timeout time.Duration) (Event, error) {
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}
	for {
		if e, ok := m.Take(); ok {
			return e, nil
		}
		select {
		case <-m.notifyCh:
		case <-timeoutCh:
			return EventNone, ErrTimeout
		case <-ctx.Done():
			return EventNone, ctx.Err()
		}
	}
}

// Counts returns the number of posted and overwritten Events.
func (m *Mailbox) Counts() (posted, overwritten uint64) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.posted, m.overwritten
}
