package uart

import (
	"io"
	"sync"
	"time"
)

// Pipe is an in-memory Stream. Bytes given to Feed are read from the
// Stream and bytes written to the Stream are passed to OnWrite.
type Pipe struct {
	IdleTimeout time.Duration
	OnWrite     func([]byte) error

	feedCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	pending   []byte
}

// NewPipe creates a Pipe.
func NewPipe() *Pipe {
	return &Pipe{
		IdleTimeout: DefaultIdleTimeout,
		feedCh:      make(chan []byte),
		closeCh:     make(chan struct{}),
	}
}

// Feed queues data for Read. It returns false if the Pipe is closed.
func (p *Pipe) Feed(data []byte) bool {
	select {
	case p.feedCh <- data:
		return true
	case <-p.closeCh:
		return false
	}
}

// Read implements io.Reader.
func (p *Pipe) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		timer := time.NewTimer(p.IdleTimeout)
		defer timer.Stop()
		select {
		case p.pending = <-p.feedCh:
		case <-timer.C:
			return 0, nil
		case <-p.closeCh:
			return 0, io.EOF
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Write implements io.Writer.
func (p *Pipe) Write(b []byte) (int, error) {
	select {
	case <-p.closeCh:
		return 0, io.ErrClosedPipe
	default:
	}
	if p.OnWrite != nil {
		if err := p.OnWrite(b); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	p.closeOnce.Do(func() {
		close(p.closeCh)
	})
	return nil
}

// Closed returns a chan closed with the Pipe.
func (p *Pipe) Closed() <-chan struct{} {
	return p.closeCh
}
