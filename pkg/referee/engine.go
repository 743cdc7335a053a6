package referee

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/referee.go/pkg/ui"
)

// RxCallbacks are invoked by a Receiver from its own goroutine.
type RxCallbacks struct {
	// Complete is called when the receive buffer is full.
	Complete func()
	// IdleLine is called when the line becomes idle during a receive.
	IdleLine func()
	// AbortComplete is called when AbortReceive finishes.
	AbortComplete func()
}

// Receiver is the asynchronous receive primitive.
type Receiver interface {
	SetCallbacks(RxCallbacks)
	// StartReceive arms a receive into buf. The driver writes buf only
	// until one of the callbacks is invoked.
	StartReceive(buf []byte) error
	AbortReceive() error
	// Received returns the number of bytes written into buf by the
	// last completed receive.
	Received() int
	Restart() error
}

// Default engine options.
const (
	DefaultRxBufferSize = 256
	DefaultRecvTimeout  = 100 * time.Millisecond
)

// Options configures an Engine.
type Options struct {
	Screen ui.Screen
	// SenderID overrides the robot id reported by the referee.
	SenderID       uint16
	RecvTimeout    time.Duration
	RxBufferSize   int
	AbortOnUnknown bool
	GraphicCap     int
	LabelCap       int
	DeleteCap      int
}

// Stats aggregates engine counters.
type Stats struct {
	Decode            DecodeStats `json:"decode"`
	Pack              PackStats   `json:"pack"`
	StagingDropped    uint64      `json:"staging_dropped"`
	Sent              uint64      `json:"sent"`
	SendFailed        uint64      `json:"send_failed"`
	MailboxPosted     uint64      `json:"mailbox_posted"`
	MailboxOverwrites uint64      `json:"mailbox_overwrites"`
}

// Engine is the consumer task owning decoding, UI refresh, packing and
// transmitting. Only Run touches its internals, other goroutines use
// Post, Restart and Exports.
type Engine struct {
	Options

	Receiver    Receiver
	Telemetry   Telemetry
	Decoder     *Decoder
	Queue       *ui.Queue
	Scheduler   *Scheduler
	Pool        *BufferPool
	Packer      *Packer
	Transmitter *Transmitter
	Mailbox     *Mailbox

	// Now is the clock, replaced in tests.
	Now func() time.Time

	rxBuf      []byte
	armed      bool
	lastRx     time.Time
	rxDone     atomic.Bool
	restartReq atomic.Bool

	exports     Exports
	exportsLock sync.RWMutex
}

// NewEngine creates an Engine on the given drivers.
func NewEngine(opts Options, rx Receiver, tx Sender, modes ModeSource) *Engine {
	if opts.RecvTimeout <= 0 {
		opts.RecvTimeout = DefaultRecvTimeout
	}
	if opts.RxBufferSize <= 0 {
		opts.RxBufferSize = DefaultRxBufferSize
	}
	if opts.Screen.Width == 0 || opts.Screen.Height == 0 {
		opts.Screen = ui.DefaultScreen
	}
	e := &Engine{
		Options:  opts,
		Receiver: rx,
		Queue:    ui.NewQueue(opts.GraphicCap, opts.LabelCap, opts.DeleteCap),
		Pool:     NewBufferPool(),
		Mailbox:  NewMailbox(),
		Now:      time.Now,
		rxBuf:    make([]byte, opts.RxBufferSize),
	}
	e.Decoder = NewDecoder(&e.Telemetry)
	e.Decoder.AbortOnUnknown = opts.AbortOnUnknown
	e.Scheduler = NewScheduler(opts.Screen, e.Queue, modes)
	e.Packer = NewPacker(e.Pool)
	e.Transmitter = NewTransmitter(tx, e.Pool)
	if rx != nil {
		rx.SetCallbacks(RxCallbacks{
			Complete:      e.rawReady,
			IdleLine:      e.idleLine,
			AbortComplete: e.rawReady,
		})
	}
	e.exports = e.Telemetry.Export()
	return e
}

// Name implements framework.Named.
func (e *Engine) Name() string {
	return "referee"
}

// Post wakes the engine with ev.
func (e *Engine) Post(ev Event) {
	e.Mailbox.Post(ev)
}

// Restart requests the engine to abort the receive, restart the port and
// report offline until data arrives again.
func (e *Engine) Restart() {
	e.restartReq.Store(true)
	e.Mailbox.Post(EventRestart)
}

// Exports returns a copy of the projections published by the last cycle.
func (e *Engine) Exports() Exports {
	e.exportsLock.RLock()
	defer e.exportsLock.RUnlock()
	return e.exports
}

// WaitSent waits until the next frame is handed to the transmitter.
func (e *Engine) WaitSent(ctx context.Context, timeout time.Duration) error {
	return e.Transmitter.WaitSent(ctx, timeout)
}

// Run implements framework.Runnable.
func (e *Engine) Run(ctx context.Context) error {
	e.lastRx = e.Now()
	for {
		e.arm()
		ev, err := e.Mailbox.Wait(ctx, e.RecvTimeout)
		switch err {
		case nil:
			e.Handle(ev)
		case ErrTimeout:
			e.Handle(EventNone)
		default:
			return err
		}
	}
}

// Handle runs one cycle for ev. It must be called from the goroutine
// running the engine.
func (e *Engine) Handle(ev Event) {
	if e.restartReq.Swap(false) {
		e.restart()
	}
	// EventRawReady may be overwritten in the mailbox, rxDone is not
	if e.rxDone.Swap(false) {
		e.receive()
	}
	switch ev {
	case EventFast:
		e.Scheduler.Fast()
	case EventSlow:
		e.Scheduler.Slow()
	}
	if e.Telemetry.Status != StatusOffline && e.Now().Sub(e.lastRx) > e.RecvTimeout {
		e.HandleOffline()
	}
	e.packAndSend()
	e.publish()
}

// HandleOffline marks the link offline.
func (e *Engine) HandleOffline() {
	if e.Telemetry.Status != StatusOffline {
		glog.Warning("referee offline")
	}
	e.Telemetry.Status = StatusOffline
}

func (e *Engine) receive() {
	if !e.armed {
		// completion of an aborted receive
		return
	}
	e.armed = false
	n := e.Receiver.Received()
	if n > len(e.rxBuf) {
		n = len(e.rxBuf)
	}
	if err := e.Decoder.Decode(e.rxBuf[:n]); err != nil {
		glog.Warningf("decode: %v", err)
	}
	e.lastRx = e.Now()
}

func (e *Engine) senderID() uint16 {
	if e.SenderID != 0 {
		return e.SenderID
	}
	return uint16(e.Telemetry.RobotStatus.RobotID)
}

func (e *Engine) arm() {
	if e.armed || e.Receiver == nil {
		return
	}
	switch err := e.Receiver.StartReceive(e.rxBuf); err {
	case nil, ErrBusy:
		e.armed = true
	default:
		glog.Warningf("start receive: %v", err)
	}
}

func (e *Engine) restart() {
	glog.Info("restart referee receiver")
	if e.Receiver != nil {
		if err := e.Receiver.AbortReceive(); err != nil {
			glog.Warningf("abort receive: %v", err)
		}
		if err := e.Receiver.Restart(); err != nil {
			glog.Errorf("restart receiver: %v", err)
		}
	}
	e.armed = false
	e.rxDone.Store(false)
	e.Mailbox.Take()
	e.HandleOffline()
}

func (e *Engine) packAndSend() {
	f, err := e.Packer.Pack(e.Queue, e.senderID())
	if err != nil {
		return
	}
	if err := e.Transmitter.Send(f); err != nil {
		e.Pool.Put(f)
		glog.V(2).Infof("%v", err)
		return
	}
	glog.V(4).Infof("sent sub 0x%04x %d bytes", uint16(f.SubCmd()), f.Len())
}

func (e *Engine) publish() {
	exports := e.Telemetry.Export()
	posted, overwritten := e.Mailbox.Counts()
	exports.Stats = Stats{
		Decode:            e.Decoder.Stats,
		Pack:              e.Packer.Stats,
		StagingDropped:    e.Scheduler.Dropped,
		Sent:              e.Transmitter.Sent,
		SendFailed:        e.Transmitter.Failed,
		MailboxPosted:     posted,
		MailboxOverwrites: overwritten,
	}
	e.exportsLock.Lock()
	e.exports = exports
	e.exportsLock.Unlock()
}

func (e *Engine) rawReady() {
	e.rxDone.Store(true)
	e.Mailbox.Post(EventRawReady)
}

func (e *Engine) idleLine() {
	if err := e.Receiver.AbortReceive(); err != nil {
		glog.V(2).Infof("abort on idle: %v", err)
	}
}
