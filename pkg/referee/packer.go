package referee

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robotalks/referee.go/pkg/crc"
	"github.com/robotalks/referee.go/pkg/ui"
)

// MaxBatch is the largest number of graphics in one frame.
const MaxBatch = 7

// MaxFrameSize is the size of the largest outbound frame.
const MaxFrameSize = FrameOverhead + SubHeaderSize + MaxBatch*ui.GraphicSize

var batchSizes = [...]struct {
	n   int
	sub SubCmd
}{
	{1, SubCmdDraw1},
	{2, SubCmdDraw2},
	{5, SubCmdDraw5},
	{7, SubCmdDraw7},
}

// batchFor selects the smallest batch holding pending graphics, capped at MaxBatch.
func batchFor(pending int) (int, SubCmd) {
	for _, b := range batchSizes {
		if pending <= b.n {
			return b.n, b.sub
		}
	}
	last := batchSizes[len(batchSizes)-1]
	return last.n, last.sub
}

// Frame is an outbound frame in a pooled buffer.
type Frame struct {
	buf [MaxFrameSize]byte
	n   int
}

// Bytes returns the encoded frame.
func (f *Frame) Bytes() []byte {
	return f.buf[:f.n]
}

// Len returns the encoded size.
func (f *Frame) Len() int {
	return f.n
}

// SubCmd returns the UI sub command.
func (f *Frame) SubCmd() SubCmd {
	return SubCmd(binary.LittleEndian.Uint16(f.buf[HeaderSize+CmdIDSize:]))
}

// begin writes header, command id and sub header and returns the payload.
func (f *Frame) begin(sub SubCmd, sender uint16, size int) []byte {
	f.n = FrameOverhead + SubHeaderSize + size
	b := f.buf[:f.n]
	putHeader(b, SubHeaderSize+size, 0)
	binary.LittleEndian.PutUint16(b[HeaderSize:], CmdInterRobot)
	sh := b[HeaderSize+CmdIDSize:]
	binary.LittleEndian.PutUint16(sh[0:], uint16(sub))
	binary.LittleEndian.PutUint16(sh[2:], sender)
	binary.LittleEndian.PutUint16(sh[4:], ReceiverID(sender))
	return sh[SubHeaderSize : SubHeaderSize+size]
}

func (f *Frame) finish() {
	crc.Put16(f.buf[:f.n])
}

// BufferPool recycles Frames.
type BufferPool struct {
	gets uint64
	puts uint64
	pool sync.Pool
}

// NewBufferPool creates a BufferPool.
func NewBufferPool() *BufferPool {
	p := &BufferPool{}
	p.pool.New = func() interface{} {
		return &Frame{}
	}
	return p
}

// Get returns an empty Frame.
func (p *BufferPool) Get() *Frame {
	atomic.AddUint64(&p.gets, 1)
	f := p.pool.Get().(*Frame)
	f.n = 0
	return f
}

// Put releases f back to the pool.
func (p *BufferPool) Put(f *Frame) {
	if f == nil {
		return
	}
	atomic.AddUint64(&p.puts, 1)
	p.pool.Put(f)
}

// Counts returns number of Get and Put calls.
func (p *BufferPool) Counts() (gets, puts uint64) {
	return atomic.LoadUint64(&p.gets), atomic.LoadUint64(&p.puts)
}

// PackStats counts packed frames.
type PackStats struct {
	Deletes  uint64 `json:"deletes"`
	Batches  uint64 `json:"batches"`
	Graphics uint64 `json:"graphics"`
	Labels   uint64 `json:"labels"`
}

// Packer builds outbound UI frames from staged operations.
// It is not safe for concurrent use.
type Packer struct {
	Pool  *BufferPool
	Stats PackStats

	batch [MaxBatch]ui.Graphic
}

// NewPacker creates a Packer allocating from pool.
func NewPacker(pool *BufferPool) *Packer {
	return &Packer{Pool: pool}
}

// Pack pops staged operations by priority delete, graphics, label and
// frames them for sender. ErrNothingPending is returned on an empty queue.
func (p *Packer) Pack(q *ui.Queue, sender uint16) (*Frame, error) {
	if d, ok := q.PopDelete(); ok {
		f := p.Pool.Get()
		d.Encode(f.begin(SubCmdDelete, sender, ui.DeleteSize))
		f.finish()
		p.Stats.Deletes++
		return f, nil
	}
	if pending := q.GraphicCount(); pending > 0 {
		size, sub := batchFor(pending)
		count := 0
		for count < size {
			g, ok := q.PopGraphic()
			if !ok {
				break
			}
			p.batch[count] = g
			count++
		}
		for n := count; n < size; n++ {
			p.batch[n] = ui.Graphic{}
		}
		f := p.Pool.Get()
		payload := f.begin(sub, sender, size*ui.GraphicSize)
		for n := 0; n < size; n++ {
			p.batch[n].Encode(payload[n*ui.GraphicSize:])
		}
		f.finish()
		p.Stats.Batches++
		p.Stats.Graphics += uint64(count)
		return f, nil
	}
	if l, ok := q.PopLabel(); ok {
		f := p.Pool.Get()
		l.Encode(f.begin(SubCmdString, sender, ui.LabelSize))
		f.finish()
		p.Stats.Labels++
		return f, nil
	}
	return nil, ErrNothingPending
}

// UIFrame is a parsed outbound UI frame.
type UIFrame struct {
	SubCmd   SubCmd
	Sender   uint16
	Receiver uint16
	Payload  []byte
}

// ParseUIFrame validates b as a complete CmdInterRobot frame.
func ParseUIFrame(b []byte) (*UIFrame, error) {
	hdr, err := parseHeader(b)
	if err != nil {
		return nil, err
	}
	span := FrameOverhead + int(hdr.DataLength)
	if len(b) < span || int(hdr.DataLength) < SubHeaderSize {
		return nil, ErrTruncated
	}
	if !crc.Verify16(b[:span]) {
		return nil, ErrFrameCRC
	}
	if cmdID := binary.LittleEndian.Uint16(b[HeaderSize:]); cmdID != CmdInterRobot {
		return nil, fmt.Errorf("not a UI frame: cmd 0x%04x", cmdID)
	}
	sh := b[HeaderSize+CmdIDSize : span-TrailerSize]
	return &UIFrame{
		SubCmd:   SubCmd(binary.LittleEndian.Uint16(sh[0:])),
		Sender:   binary.LittleEndian.Uint16(sh[2:]),
		Receiver: binary.LittleEndian.Uint16(sh[4:]),
		Payload:  sh[SubHeaderSize:],
	}, nil
}

// Graphics decodes the payload of a draw frame.
func (f *UIFrame) Graphics() ([]ui.Graphic, error) {
	if len(f.Payload)%ui.GraphicSize != 0 {
		return nil, fmt.Errorf("invalid draw payload size %d", len(f.Payload))
	}
	graphics := make([]ui.Graphic, len(f.Payload)/ui.GraphicSize)
	for n := range graphics {
		graphics[n].Decode(f.Payload[n*ui.GraphicSize:])
	}
	return graphics, nil
}
