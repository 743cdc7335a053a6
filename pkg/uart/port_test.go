package uart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/referee.go/pkg/referee"
	"github.com/robotalks/referee.go/pkg/ui"
)

type testPipes struct {
	lock    sync.Mutex
	pipes   []*Pipe
	onWrite func([]byte) error
	failing bool
}

func (ps *testPipes) open() (Stream, error) {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	if ps.failing {
		return nil, errors.New("no device")
	}
	p := NewPipe()
	p.OnWrite = ps.onWrite
	ps.pipes = append(ps.pipes, p)
	return p, nil
}

func (ps *testPipes) count() int {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	return len(ps.pipes)
}

func (ps *testPipes) last() *Pipe {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	return ps.pipes[len(ps.pipes)-1]
}

func runPort(t *testing.T, ps *testPipes) (*Port, func()) {
	port := NewPort(ps.open)
	port.RetryInterval = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- port.Run(ctx)
	}()
	require.Eventually(t, func() bool { return port.Stats().Opens == 1 }, time.Second, time.Millisecond)
	return port, func() {
		cancel()
		require.Equal(t, context.Canceled, <-done)
	}
}

func TestPortIdleLine(t *testing.T) {
	ps := &testPipes{}
	port, stop := runPort(t, ps)
	defer stop()

	aborted := make(chan struct{}, 1)
	port.SetCallbacks(referee.RxCallbacks{
		Complete:      func() { t.Error("unexpected complete") },
		IdleLine:      func() { port.AbortReceive() },
		AbortComplete: func() { aborted <- struct{}{} },
	})
	buf := make([]byte, 64)
	require.NoError(t, port.StartReceive(buf))
	require.Equal(t, referee.ErrBusy, port.StartReceive(buf))

	frame := referee.EncodeFrame(0x0104, 0, []byte{1, 2})
	require.True(t, ps.last().Feed(frame))
	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("receive not completed on idle line")
	}
	require.Equal(t, len(frame), port.Received())
	require.Equal(t, frame, buf[:len(frame)])
}

func TestPortComplete(t *testing.T) {
	ps := &testPipes{}
	port, stop := runPort(t, ps)
	defer stop()

	completed := make(chan struct{}, 1)
	port.SetCallbacks(referee.RxCallbacks{
		Complete: func() { completed <- struct{}{} },
		IdleLine: func() {},
	})
	buf := make([]byte, 4)
	require.NoError(t, port.StartReceive(buf))
	ps.last().Feed([]byte{1, 2, 3, 4, 5, 6})
	<-completed
	require.Equal(t, 4, port.Received())
	require.Equal(t, []byte{1, 2, 3, 4}, buf)

	// not armed
	ps.last().Feed([]byte{7})
	require.Eventually(t, func() bool { return port.Stats().RxDropped == 3 }, time.Second, time.Millisecond)
	require.Equal(t, uint64(7), port.Stats().RxBytes)
}

func TestPortTransmit(t *testing.T) {
	release := make(chan struct{})
	written := make(chan []byte, 4)
	ps := &testPipes{onWrite: func(b []byte) error {
		<-release
		written <- append([]byte(nil), b...)
		return nil
	}}

	port := NewPort(ps.open)
	require.Equal(t, ErrNotOpen, port.Transmit([]byte{1}))

	port, stop := runPort(t, ps)
	defer stop()
	require.NoError(t, port.Transmit([]byte{1, 2}))
	require.Equal(t, referee.ErrBusy, port.Transmit([]byte{3}))
	close(release)
	require.Equal(t, []byte{1, 2}, <-written)
	require.Eventually(t, func() bool { return port.Transmit([]byte{3}) == nil }, time.Second, time.Millisecond)
	require.Equal(t, []byte{3}, <-written)
}

func TestPortRestart(t *testing.T) {
	ps := &testPipes{}
	port, stop := runPort(t, ps)
	defer stop()

	first := ps.last()
	require.NoError(t, port.Restart())
	<-first.Closed()
	// reopened without waiting for RetryInterval
	require.Eventually(t, func() bool { return port.Stats().Opens == 2 }, time.Second, time.Millisecond)
	require.Equal(t, 2, ps.count())
}

func TestPortRestartWhileWriting(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	ps := &testPipes{onWrite: func(b []byte) error {
		started <- struct{}{}
		<-release
		return nil
	}}
	port, stop := runPort(t, ps)
	defer stop()

	require.NoError(t, port.Transmit([]byte{1, 2, 3}))
	<-started
	require.NoError(t, port.Restart())
	require.Eventually(t, func() bool { return port.Stats().Opens == 2 }, time.Second, time.Millisecond)
	// the first write still references its buffer
	require.Equal(t, referee.ErrBusy, port.Transmit([]byte{4, 5, 6}))

	close(release)
	require.Eventually(t, func() bool { return port.Transmit([]byte{4, 5, 6}) == nil }, time.Second, time.Millisecond)
	<-started
	require.Eventually(t, func() bool { return port.Stats().TxBytes == 6 }, time.Second, time.Millisecond)
}

func TestPortRetryOpen(t *testing.T) {
	ps := &testPipes{failing: true}
	port := NewPort(ps.open)
	port.RetryInterval = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- port.Run(ctx)
	}()
	time.Sleep(5 * time.Millisecond)
	ps.lock.Lock()
	ps.failing = false
	ps.lock.Unlock()
	require.Eventually(t, func() bool { return port.Stats().Opens == 1 }, time.Second, time.Millisecond)
	cancel()
	require.Equal(t, context.Canceled, <-done)
}

func TestPortEngine(t *testing.T) {
	sent := make(chan []byte, 16)
	ps := &testPipes{onWrite: func(b []byte) error {
		sent <- append([]byte(nil), b...)
		return nil
	}}
	port, stop := runPort(t, ps)
	defer stop()

	e := referee.NewEngine(referee.Options{SenderID: 2}, port, port, &referee.ModeStore{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	status := make([]byte, 27)
	status[0] = 2
	status[24] = 60
	require.Eventually(t, func() bool {
		ps.last().Feed(referee.EncodeFrame(0x0201, 0, status))
		return e.Exports().Chassis.ChassisPowerLimit == 60
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, referee.StatusRunning, e.Exports().Chassis.Status)

	e.Post(referee.EventFast)
	f, err := referee.ParseUIFrame(<-sent)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0102), f.Receiver)
	graphics, err := f.Graphics()
	require.NoError(t, err)
	require.Equal(t, ui.TypeLine, graphics[0].Type)
}
