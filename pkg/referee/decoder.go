package referee

import (
	"bytes"
	"encoding/binary"

	"github.com/golang/glog"

	"github.com/robotalks/referee.go/pkg/crc"
)

// DecodeStats counts decoder outcomes.
type DecodeStats struct {
	Frames       uint64 `json:"frames"`
	HeaderErrors uint64 `json:"header_errors"`
	FrameErrors  uint64 `json:"frame_errors"`
	UnknownCmds  uint64 `json:"unknown_cmds"`
	Truncated    uint64 `json:"truncated"`
}

// FrameHandler is called after a frame is committed into Telemetry.
type FrameHandler func(cmd *Command)

// Decoder parses inbound frames into Telemetry.
type Decoder struct {
	Telemetry *Telemetry
	// AbortOnUnknown stops decoding the whole buffer on an unknown
	// command id. By default only the unknown frame is skipped.
	AbortOnUnknown bool
	// OnFrame is optional.
	OnFrame FrameHandler
	Stats   DecodeStats
}

// NewDecoder creates a Decoder updating t.
func NewDecoder(t *Telemetry) *Decoder {
	return &Decoder{Telemetry: t}
}

// Decode scans buf for frames and commits every valid one.
// Only an unknown command id is reported, as *UnknownCmdError.
func (d *Decoder) Decode(buf []byte) error {
	d.Telemetry.Status = StatusRunning
	var unknown error
	for pos := 0; pos < len(buf); {
		i := bytes.IndexByte(buf[pos:], SOF)
		if i < 0 {
			break
		}
		pos += i
		n, err := d.decodeOne(buf[pos:])
		switch err {
		case nil:
			d.Stats.Frames++
		case ErrHeaderCRC:
			d.Stats.HeaderErrors++
		case ErrFrameCRC:
			d.Stats.FrameErrors++
			glog.V(4).Infof("frame dropped at %d: %v", pos, err)
		case ErrTruncated:
			d.Stats.Truncated++
		default:
			d.Stats.UnknownCmds++
			if e, ok := err.(*UnknownCmdError); ok {
				e.Offset = pos
			}
			glog.V(2).Infof("decode: %v", err)
			if d.AbortOnUnknown {
				return err
			}
			if unknown == nil {
				unknown = err
			}
		}
		pos += n
	}
	return unknown
}

// decodeOne decodes the frame at the beginning of b and returns
// the number of bytes to advance.
func (d *Decoder) decodeOne(b []byte) (int, error) {
	hdr, err := parseHeader(b)
	if err != nil {
		return 1, err
	}
	if len(b) < HeaderSize+CmdIDSize {
		return 1, ErrTruncated
	}
	cmdID := binary.LittleEndian.Uint16(b[HeaderSize:])
	cmd, ok := LookupCommand(cmdID)
	if !ok {
		span := FrameOverhead + int(hdr.DataLength)
		if span > len(b) {
			span = len(b)
		}
		return span, &UnknownCmdError{CmdID: cmdID}
	}
	span := FrameOverhead + cmd.Size
	if len(b) < span {
		return 1, ErrTruncated
	}
	frame := b[:span]
	if !crc.Verify16(frame) {
		return span, ErrFrameCRC
	}
	if err := cmd.Unmarshal(d.Telemetry, frame[HeaderSize+CmdIDSize:span-TrailerSize]); err != nil {
		return span, err
	}
	if d.OnFrame != nil {
		d.OnFrame(cmd)
	}
	return span, nil
}
