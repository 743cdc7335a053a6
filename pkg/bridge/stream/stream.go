// Package stream writes bridge envelopes to a byte stream.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"
)

// MaxPacketSize limits packets accepted by ReadPacket.
const MaxPacketSize = 1 << 20

// ErrPacketTooLarge indicates a length prefix over MaxPacketSize.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter reads and writes length prefixed packets.
type ReadWriter struct {
	io.ReadWriter

	lock sync.Mutex
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s}
}

// ReadPacket reads a single packet.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.ReadWriter, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p.ReadWriter, pkt)
	return pkt, err
}

// WritePacket writes a single packet.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := binary.Write(p.ReadWriter, binary.LittleEndian, uint32(len(pkt))); err != nil {
		return err
	}
	_, err := p.ReadWriter.Write(pkt)
	return err
}

// Publish implements bridge.Sink. The topic is implied by the envelope type.
func (p *ReadWriter) Publish(topic string, payload []byte) error {
	return p.WritePacket(payload)
}

// WriteOnly adapts an io.Writer, e.g. os.Stdout, to a ReadWriter.
type WriteOnly struct {
	io.Writer
}

// Read implements io.Reader.
func (WriteOnly) Read([]byte) (int, error) {
	return 0, io.EOF
}
