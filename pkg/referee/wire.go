package referee

import (
	"encoding/binary"
	"fmt"

	"github.com/robotalks/referee.go/pkg/crc"
)

// SOF is the start of frame marker.
const SOF byte = 0xa5

// Frame layout.
const (
	HeaderSize    = 5
	CmdIDSize     = 2
	TrailerSize   = 2
	FrameOverhead = HeaderSize + CmdIDSize + TrailerSize
)

// CmdInterRobot is the outbound command carrying client UI operations.
const CmdInterRobot uint16 = 0x0301

// SubCmd selects the UI operation inside CmdInterRobot.
type SubCmd uint16

// UI sub commands.
const (
	SubCmdDelete SubCmd = 0x0100
	SubCmdDraw1  SubCmd = 0x0101
	SubCmdDraw2  SubCmd = 0x0102
	SubCmdDraw5  SubCmd = 0x0103
	SubCmdDraw7  SubCmd = 0x0104
	SubCmdString SubCmd = 0x0110
)

func (s SubCmd) String() string {
	switch s {
	case SubCmdDelete:
		return "delete"
	case SubCmdDraw1:
		return "draw1"
	case SubCmdDraw2:
		return "draw2"
	case SubCmdDraw5:
		return "draw5"
	case SubCmdDraw7:
		return "draw7"
	case SubCmdString:
		return "string"
	}
	return fmt.Sprintf("sub(0x%04x)", uint16(s))
}

// SubHeaderSize is the size of {sub_cmd_id, sender_id, receiver_id}.
const SubHeaderSize = 6

// Robot ids at or below blueBase belong to the red side.
const (
	blueBase         = 100
	blueHero         = 101
	redClientBase    = 0x0100
	blueClientOffset = 0x0165
)

// ReceiverID returns the client id of the operator of robot sender.
func ReceiverID(sender uint16) uint16 {
	if sender > blueBase {
		return sender - blueHero + blueClientOffset
	}
	return sender + redClientBase
}

// Header is the decoded frame header.
type Header struct {
	DataLength uint16
	Seq        uint8
}

// putHeader writes the header including its CRC8 into b.
func putHeader(b []byte, dataLength int, seq uint8) {
	b[0] = SOF
	binary.LittleEndian.PutUint16(b[1:], uint16(dataLength))
	b[3] = seq
	b[4] = crc.CRC8(b[:4], crc.Init8)
}

// parseHeader validates the header at the beginning of b.
func parseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrTruncated
	}
	if !crc.Verify8(b[:HeaderSize]) {
		return Header{}, ErrHeaderCRC
	}
	return Header{
		DataLength: binary.LittleEndian.Uint16(b[1:]),
		Seq:        b[3],
	}, nil
}

// EncodeFrame builds a complete frame carrying data under cmdID.
func EncodeFrame(cmdID uint16, seq uint8, data []byte) []byte {
	b := make([]byte, FrameOverhead+len(data))
	putHeader(b, len(data), seq)
	binary.LittleEndian.PutUint16(b[HeaderSize:], cmdID)
	copy(b[HeaderSize+CmdIDSize:], data)
	crc.Put16(b)
	return b
}
