// Package uart drives the referee serial link with receive-to-idle
// semantics on top of a byte stream.
package uart

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	fx "github.com/robotalks/referee.go/pkg/framework"
	"github.com/robotalks/referee.go/pkg/referee"
)

var (
	// ErrNotOpen indicates the stream is not opened yet.
	ErrNotOpen = errors.New("port not open")
)

// Stream is the byte stream under the Port.
// Read must return (0, nil) after the line stays idle for a while.
type Stream interface {
	io.ReadWriteCloser
}

// Opener opens the Stream.
type Opener func() (Stream, error)

// Default link parameters.
const (
	DefaultBaudRate      = 115200
	DefaultIdleTimeout   = 2 * time.Millisecond
	DefaultRetryInterval = time.Second
)

// OpenSerial returns an Opener for a serial device in 8N1 mode with the
// read timeout used as idle line detection.
func OpenSerial(device string, baudRate int, idle time.Duration) Opener {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return func() (Stream, error) {
		port, err := serial.Open(device, &serial.Mode{
			BaudRate: baudRate,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		})
		if err != nil {
			return nil, err
		}
		if err = port.SetReadTimeout(idle); err != nil {
			port.Close()
			return nil, err
		}
		return port, nil
	}
}

// ListDevices lists serial devices on the system.
func ListDevices() ([]string, error) {
	return serial.GetPortsList()
}

// Stats counts link events.
type Stats struct {
	Opens     uint64 `json:"opens"`
	RxBytes   uint64 `json:"rx_bytes"`
	RxDropped uint64 `json:"rx_dropped"`
	TxBytes   uint64 `json:"tx_bytes"`
	TxErrors  uint64 `json:"tx_errors"`
}

// Port implements referee.Receiver and referee.Sender.
type Port struct {
	Opener        Opener
	RetryInterval time.Duration

	cb      referee.RxCallbacks
	lock    sync.Mutex
	stream  Stream
	stats   Stats
	rxBuf   []byte
	rxN     int
	armed   bool
	rxCount int
	// txDone is closed when the last write returns, even on a stream
	// already replaced by a restart.
	txDone  chan struct{}
	restart bool
}

// NewPort creates a Port.
func NewPort(opener Opener) *Port {
	return &Port{Opener: opener, RetryInterval: DefaultRetryInterval}
}

// Name implements framework.Named.
func (p *Port) Name() string {
	return "uart"
}

// SetCallbacks implements referee.Receiver.
func (p *Port) SetCallbacks(cb referee.RxCallbacks) {
	p.lock.Lock()
	p.cb = cb
	p.lock.Unlock()
}

// StartReceive implements referee.Receiver.
func (p *Port) StartReceive(buf []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.armed {
		return referee.ErrBusy
	}
	p.rxBuf, p.rxN, p.armed = buf, 0, true
	return nil
}

// AbortReceive implements referee.Receiver.
func (p *Port) AbortReceive() error {
	p.lock.Lock()
	if !p.armed {
		p.lock.Unlock()
		return nil
	}
	p.armed, p.rxCount = false, p.rxN
	cb := p.cb.AbortComplete
	p.lock.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}

// Received implements referee.Receiver.
func (p *Port) Received() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.rxCount
}

// Restart implements referee.Receiver. The stream is closed and reopened
// by Run without waiting for RetryInterval.
func (p *Port) Restart() error {
	p.lock.Lock()
	s := p.stream
	p.armed = false
	p.restart = s != nil
	p.lock.Unlock()
	if s != nil {
		return s.Close()
	}
	return nil
}

// Transmit implements referee.Sender. The write runs in background and
// ErrBusy is returned until it returns, across restarts and reopens.
func (p *Port) Transmit(b []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.stream == nil {
		return ErrNotOpen
	}
	if p.txDone != nil {
		select {
		case <-p.txDone:
		default:
			return referee.ErrBusy
		}
	}
	done := make(chan struct{})
	p.txDone = done
	go p.write(p.stream, b, done)
	return nil
}

// Stats returns a copy of link counters.
func (p *Port) Stats() Stats {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.stats
}

// Run implements framework.Runnable. It keeps the stream open until ctx
// is canceled.
func (p *Port) Run(ctx context.Context) error {
	for {
		s, err := p.Opener()
		if err == nil {
			p.setStream(s)
			err = fx.RunWithContextCloser(ctx, s, func() error {
				return p.readLoop(s)
			})
			p.setStream(nil)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.lock.Lock()
		restart := p.restart
		p.restart = false
		p.lock.Unlock()
		if restart {
			glog.Info("uart restarting")
			continue
		}
		glog.Warningf("uart: %v, reopen in %v", err, p.RetryInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.RetryInterval):
		}
	}
}

func (p *Port) setStream(s Stream) {
	p.lock.Lock()
	p.stream = s
	if s != nil {
		p.stats.Opens++
	}
	p.lock.Unlock()
}

func (p *Port) readLoop(s Stream) error {
	buf := make([]byte, 256)
	for {
		n, err := s.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			p.idle()
			continue
		}
		p.fill(buf[:n])
	}
}

// fill copies incoming bytes into the armed buffer. Bytes arriving while
// no receive is armed are lost.
func (p *Port) fill(data []byte) {
	p.lock.Lock()
	p.stats.RxBytes += uint64(len(data))
	if !p.armed {
		p.stats.RxDropped += uint64(len(data))
		p.lock.Unlock()
		return
	}
	n := copy(p.rxBuf[p.rxN:], data)
	p.rxN += n
	p.stats.RxDropped += uint64(len(data) - n)
	var complete func()
	if p.rxN == len(p.rxBuf) {
		p.armed, p.rxCount = false, p.rxN
		complete = p.cb.Complete
	}
	p.lock.Unlock()
	if complete != nil {
		complete()
	}
}

func (p *Port) idle() {
	p.lock.Lock()
	var idle func()
	if p.armed && p.rxN > 0 {
		idle = p.cb.IdleLine
	}
	p.lock.Unlock()
	if idle != nil {
		idle()
	}
}

func (p *Port) write(s Stream, b []byte, done chan struct{}) {
	n, err := s.Write(b)
	p.lock.Lock()
	p.stats.TxBytes += uint64(n)
	if err != nil {
		p.stats.TxErrors++
		glog.V(2).Infof("uart write: %v", err)
	}
	p.lock.Unlock()
	close(done)
}
