// Package msgs defines the messages exchanged with the telemetry bridge.
package msgs

import (
	"errors"
	"fmt"

	"github.com/golang/protobuf/proto"
)

// Message is a bridge message serialized as protobuf.
type Message interface {
	proto.Message
	TypeID() uint32
	NewMessage() Message
}

// TypeIDs
const (
	ChassisTelemetryTypeID  uint32 = 0x0001
	LauncherTelemetryTypeID uint32 = 0x0002
	CapTelemetryTypeID      uint32 = 0x0003
	TeamInfoTypeID          uint32 = 0x0004
	EngineStatsTypeID       uint32 = 0x0005
	ModeUpdateTypeID        uint32 = 0x0101
)

// ChassisTelemetry is published for chassis power control.
type ChassisTelemetry struct {
	Online      bool   `protobuf:"varint,1,opt,name=online,proto3" json:"online,omitempty"`
	PowerLimit  uint32 `protobuf:"varint,2,opt,name=power_limit,proto3" json:"power_limit,omitempty"`
	PowerBuffer uint32 `protobuf:"varint,3,opt,name=power_buffer,proto3" json:"power_buffer,omitempty"`
}

// NewMessage implements Message.
func (m *ChassisTelemetry) NewMessage() Message { return &ChassisTelemetry{} }

// TypeID implements Message.
func (m *ChassisTelemetry) TypeID() uint32 { return ChassisTelemetryTypeID }

// ProtoMessage implements proto.Message.
func (m *ChassisTelemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ChassisTelemetry) Reset() { *m = ChassisTelemetry{} }

// String implements proto.Message.
func (m *ChassisTelemetry) String() string { return proto.CompactTextString(m) }

// LauncherTelemetry is published for launcher heat control.
type LauncherTelemetry struct {
	Online       bool    `protobuf:"varint,1,opt,name=online,proto3" json:"online,omitempty"`
	Heat         uint32  `protobuf:"varint,2,opt,name=heat,proto3" json:"heat,omitempty"`
	CoolingRate  uint32  `protobuf:"varint,3,opt,name=cooling_rate,proto3" json:"cooling_rate,omitempty"`
	CoolingLimit uint32  `protobuf:"varint,4,opt,name=cooling_limit,proto3" json:"cooling_limit,omitempty"`
	SpeedLimit   uint32  `protobuf:"varint,5,opt,name=speed_limit,proto3" json:"speed_limit,omitempty"`
	BulletSpeed  float32 `protobuf:"fixed32,6,opt,name=bullet_speed,proto3" json:"bullet_speed,omitempty"`
	BulletFreq   uint32  `protobuf:"varint,7,opt,name=bullet_freq,proto3" json:"bullet_freq,omitempty"`
}

// NewMessage implements Message.
func (m *LauncherTelemetry) NewMessage() Message { return &LauncherTelemetry{} }

// TypeID implements Message.
func (m *LauncherTelemetry) TypeID() uint32 { return LauncherTelemetryTypeID }

// ProtoMessage implements proto.Message.
func (m *LauncherTelemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LauncherTelemetry) Reset() { *m = LauncherTelemetry{} }

// String implements proto.Message.
func (m *LauncherTelemetry) String() string { return proto.CompactTextString(m) }

// CapTelemetry is published for the super capacitor.
type CapTelemetry struct {
	Online      bool    `protobuf:"varint,1,opt,name=online,proto3" json:"online,omitempty"`
	PowerLimit  uint32  `protobuf:"varint,2,opt,name=power_limit,proto3" json:"power_limit,omitempty"`
	PowerBuffer uint32  `protobuf:"varint,3,opt,name=power_buffer,proto3" json:"power_buffer,omitempty"`
	ChassisWatt float32 `protobuf:"fixed32,4,opt,name=chassis_watt,proto3" json:"chassis_watt,omitempty"`
}

// NewMessage implements Message.
func (m *CapTelemetry) NewMessage() Message { return &CapTelemetry{} }

// TypeID implements Message.
func (m *CapTelemetry) TypeID() uint32 { return CapTelemetryTypeID }

// ProtoMessage implements proto.Message.
func (m *CapTelemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CapTelemetry) Reset() { *m = CapTelemetry{} }

// String implements proto.Message.
func (m *CapTelemetry) String() string { return proto.CompactTextString(m) }

// TeamInfo is published for autonomy.
type TeamInfo struct {
	Online  bool   `protobuf:"varint,1,opt,name=online,proto3" json:"online,omitempty"`
	Blue    bool   `protobuf:"varint,2,opt,name=blue,proto3" json:"blue,omitempty"`
	RobotID uint32 `protobuf:"varint,3,opt,name=robot_id,proto3" json:"robot_id,omitempty"`
}

// NewMessage implements Message.
func (m *TeamInfo) NewMessage() Message { return &TeamInfo{} }

// TypeID implements Message.
func (m *TeamInfo) TypeID() uint32 { return TeamInfoTypeID }

// ProtoMessage implements proto.Message.
func (m *TeamInfo) ProtoMessage() {}

// Reset implements proto.Message.
func (m *TeamInfo) Reset() { *m = TeamInfo{} }

// String implements proto.Message.
func (m *TeamInfo) String() string { return proto.CompactTextString(m) }

// EngineStats reports engine counters.
type EngineStats struct {
	Frames            uint64 `protobuf:"varint,1,opt,name=frames,proto3" json:"frames,omitempty"`
	HeaderErrors      uint64 `protobuf:"varint,2,opt,name=header_errors,proto3" json:"header_errors,omitempty"`
	FrameErrors       uint64 `protobuf:"varint,3,opt,name=frame_errors,proto3" json:"frame_errors,omitempty"`
	UnknownCmds       uint64 `protobuf:"varint,4,opt,name=unknown_cmds,proto3" json:"unknown_cmds,omitempty"`
	Truncated         uint64 `protobuf:"varint,5,opt,name=truncated,proto3" json:"truncated,omitempty"`
	Sent              uint64 `protobuf:"varint,6,opt,name=sent,proto3" json:"sent,omitempty"`
	SendFailed        uint64 `protobuf:"varint,7,opt,name=send_failed,proto3" json:"send_failed,omitempty"`
	StagingDropped    uint64 `protobuf:"varint,8,opt,name=staging_dropped,proto3" json:"staging_dropped,omitempty"`
	MailboxOverwrites uint64 `protobuf:"varint,9,opt,name=mailbox_overwrites,proto3" json:"mailbox_overwrites,omitempty"`
}

// NewMessage implements Message.
func (m *EngineStats) NewMessage() Message { return &EngineStats{} }

// TypeID implements Message.
func (m *EngineStats) TypeID() uint32 { return EngineStatsTypeID }

// ProtoMessage implements proto.Message.
func (m *EngineStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *EngineStats) Reset() { *m = EngineStats{} }

// String implements proto.Message.
func (m *EngineStats) String() string { return proto.CompactTextString(m) }

// ModeUpdate carries subsystem modes drawn on the operator client.
// Only fields listed in Mask are applied. ChassisAngle is in radians.
type ModeUpdate struct {
	Mask          uint32  `protobuf:"varint,1,opt,name=mask,proto3" json:"mask,omitempty"`
	ChassisMode   uint32  `protobuf:"varint,2,opt,name=chassis_mode,proto3" json:"chassis_mode,omitempty"`
	ChassisAngle  float32 `protobuf:"fixed32,3,opt,name=chassis_angle,proto3" json:"chassis_angle,omitempty"`
	CapOnline     bool    `protobuf:"varint,4,opt,name=cap_online,proto3" json:"cap_online,omitempty"`
	CapPercentage float32 `protobuf:"fixed32,5,opt,name=cap_percentage,proto3" json:"cap_percentage,omitempty"`
	GimbalMode    uint32  `protobuf:"varint,6,opt,name=gimbal_mode,proto3" json:"gimbal_mode,omitempty"`
	LauncherMode  uint32  `protobuf:"varint,7,opt,name=launcher_mode,proto3" json:"launcher_mode,omitempty"`
	FireMode      uint32  `protobuf:"varint,8,opt,name=fire_mode,proto3" json:"fire_mode,omitempty"`
	CtrlMethod    uint32  `protobuf:"varint,9,opt,name=ctrl_method,proto3" json:"ctrl_method,omitempty"`
}

// ModeUpdate mask bits.
const (
	MaskChassis uint32 = 1 << iota
	MaskCap
	MaskGimbal
	MaskLauncher
	MaskCmd

	MaskAll = MaskChassis | MaskCap | MaskGimbal | MaskLauncher | MaskCmd
)

// NewMessage implements Message.
func (m *ModeUpdate) NewMessage() Message { return &ModeUpdate{} }

// TypeID implements Message.
func (m *ModeUpdate) TypeID() uint32 { return ModeUpdateTypeID }

// ProtoMessage implements proto.Message.
func (m *ModeUpdate) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ModeUpdate) Reset() { *m = ModeUpdate{} }

// String implements proto.Message.
func (m *ModeUpdate) String() string { return proto.CompactTextString(m) }

// MessageTypes maps type ids to messages.
var MessageTypes = map[uint32]Message{
	ChassisTelemetryTypeID:  (*ChassisTelemetry)(nil),
	LauncherTelemetryTypeID: (*LauncherTelemetry)(nil),
	CapTelemetryTypeID:      (*CapTelemetry)(nil),
	TeamInfoTypeID:          (*TeamInfo)(nil),
	EngineStatsTypeID:       (*EngineStats)(nil),
	ModeUpdateTypeID:        (*ModeUpdate)(nil),
}

// UnknownTypeError indicates unknown type id.
type UnknownTypeError struct {
	TypeID uint32
}

// Error implements error.
func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// ErrEmptyEnvelope indicates the envelope carries nothing.
var ErrEmptyEnvelope = errors.New("empty envelope")

// Envelope wraps a message with type information.
type Envelope struct {
	TypeId  uint32 `protobuf:"varint,1,opt,name=type_id,proto3" json:"type_id,omitempty"`
	Message []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Envelope) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Envelope) Reset() { *m = Envelope{} }

// String implements proto.Message.
func (m *Envelope) String() string { return proto.CompactTextString(m) }

// Wrap encodes msg into an Envelope.
func Wrap(msg Message) (*Envelope, error) {
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &Envelope{TypeId: msg.TypeID(), Message: data}, nil
}

// Encode wraps msg and encodes the Envelope.
func Encode(msg Message) ([]byte, error) {
	env, err := Wrap(msg)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(env)
}

// Decode decodes the message in the Envelope.
func (m *Envelope) Decode() (Message, error) {
	if m.TypeId == 0 {
		return nil, ErrEmptyEnvelope
	}
	msgType, ok := MessageTypes[m.TypeId]
	if !ok {
		return nil, &UnknownTypeError{TypeID: m.TypeId}
	}
	msg := msgType.NewMessage()
	if err := proto.Unmarshal(m.Message, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeEnvelope decodes bytes into a Message.
func DecodeEnvelope(data []byte) (Message, error) {
	var env Envelope
	if err := proto.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.Decode()
}
