package referee

import (
	"errors"
	"fmt"
)

var (
	// ErrHeaderCRC indicates the header CRC8 mismatch.
	ErrHeaderCRC = errors.New("header crc8 mismatch")
	// ErrFrameCRC indicates the frame CRC16 mismatch, the frame is dropped.
	ErrFrameCRC = errors.New("frame crc16 mismatch")
	// ErrTruncated indicates the buffer ends in the middle of a frame.
	ErrTruncated = errors.New("frame truncated")
	// ErrNothingPending indicates no UI operation is staged.
	ErrNothingPending = errors.New("nothing pending")
	// ErrBusy indicates the driver is still transferring.
	ErrBusy = errors.New("driver busy")
	// ErrNoFrame indicates no frame is given to send.
	ErrNoFrame = errors.New("no frame")
	// ErrTimeout indicates no event arrived in time.
	ErrTimeout = errors.New("timeout")
)

// UnknownCmdError reports a frame with an unrecognized command id.
type UnknownCmdError struct {
	CmdID  uint16
	Offset int
}

// Error implements error.
func (e *UnknownCmdError) Error() string {
	return fmt.Sprintf("unknown cmd 0x%04x at offset %d", e.CmdID, e.Offset)
}

// SendError wraps the driver error when a frame is refused.
type SendError struct {
	Err error
}

// Error implements error.
func (e *SendError) Error() string {
	return fmt.Sprintf("send failed: %v", e.Err)
}

// Unwrap returns the driver error.
func (e *SendError) Unwrap() error {
	return e.Err
}
