package referee

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func payloadFor(cmd *Command, seed byte) []byte {
	p := make([]byte, cmd.Size)
	for n := range p {
		p[n] = seed + byte(n)
	}
	return p
}

func frameFor(cmd *Command, payload []byte) []byte {
	return EncodeFrame(cmd.ID, 0, payload)
}

func mustCommand(t *testing.T, name string) *Command {
	cmd, ok := LookupCommandByName(name)
	require.True(t, ok, name)
	return cmd
}

func TestCommandTable(t *testing.T) {
	require.Len(t, Commands, 21)
	var tm Telemetry
	for n := range Commands {
		cmd := &Commands[n]
		require.Equal(t, cmd.Size, binary.Size(cmd.Field(&tm)), cmd.Name)
		found, ok := LookupCommand(cmd.ID)
		require.True(t, ok)
		require.Equal(t, cmd, found)
	}
	_, ok := LookupCommand(0x0301)
	require.False(t, ok)
}

func TestDecodeEveryCommand(t *testing.T) {
	for n := range Commands {
		cmd := &Commands[n]
		t.Run(cmd.Name, func(t *testing.T) {
			var tm Telemetry
			tm.RobotPos.X = 1.5
			tm.Warning.Level = 3
			tm.GameResult.Winner = 2
			d := NewDecoder(&tm)

			payload := payloadFor(cmd, 0x10)
			expected := tm
			require.NoError(t, cmd.Unmarshal(&expected, payload))
			expected.Status = StatusRunning

			var committed []*Command
			d.OnFrame = func(c *Command) { committed = append(committed, c) }
			require.NoError(t, d.Decode(frameFor(cmd, payload)))
			require.Equal(t, expected, tm)
			require.Equal(t, []*Command{cmd}, committed)
			require.Equal(t, uint64(1), d.Stats.Frames)
		})
	}
}

func TestDecodeFields(t *testing.T) {
	var tm Telemetry
	d := NewDecoder(&tm)

	status := make([]byte, 27)
	status[0] = 101
	status[1] = 3
	binary.LittleEndian.PutUint16(status[2:], 450)
	binary.LittleEndian.PutUint16(status[4:], 500)
	binary.LittleEndian.PutUint16(status[24:], 80)
	status[26] = 0x7

	heat := make([]byte, 16)
	binary.LittleEndian.PutUint16(heat[0:], 24000)
	binary.LittleEndian.PutUint32(heat[4:], math.Float32bits(62.5))
	binary.LittleEndian.PutUint16(heat[8:], 60)
	binary.LittleEndian.PutUint16(heat[10:], 120)

	launcher := []byte{1, 1, 12, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(launcher[3:], math.Float32bits(14.5))

	var buf []byte
	buf = append(buf, frameFor(mustCommand(t, "robot_status"), status)...)
	buf = append(buf, frameFor(mustCommand(t, "power_heat"), heat)...)
	buf = append(buf, frameFor(mustCommand(t, "launcher_data"), launcher)...)
	require.NoError(t, d.Decode(buf))

	require.Equal(t, uint8(101), tm.RobotStatus.RobotID)
	require.Equal(t, uint8(3), tm.RobotStatus.Level)
	require.Equal(t, uint16(450), tm.RobotStatus.RemainHP)
	require.Equal(t, uint16(500), tm.RobotStatus.MaxHP)
	require.Equal(t, uint16(80), tm.RobotStatus.ChassisPowerLimit)
	require.Equal(t, uint8(7), tm.RobotStatus.PowerOutput)
	require.Equal(t, uint16(24000), tm.PowerHeat.ChassisVolt)
	require.Equal(t, float32(62.5), tm.PowerHeat.ChassisWatt)
	require.Equal(t, uint16(60), tm.PowerHeat.ChassisPwrBuff)
	require.Equal(t, uint16(120), tm.PowerHeat.Heat17mm1)
	require.Equal(t, float32(14.5), tm.LauncherData.Speed)
	require.Equal(t, uint8(12), tm.LauncherData.Freq)
}

func TestDecodeHeaderCRCFlip(t *testing.T) {
	hp := mustCommand(t, "game_robot_hp")
	pos := mustCommand(t, "robot_pos")
	bad := frameFor(hp, payloadFor(hp, 1))
	bad[4] ^= 0x01
	good := frameFor(pos, payloadFor(pos, 7))

	var tm Telemetry
	d := NewDecoder(&tm)
	require.NoError(t, d.Decode(append(bad, good...)))
	require.Equal(t, GameRobotHP{}, tm.GameRobotHP)

	var expected Telemetry
	require.NoError(t, pos.Unmarshal(&expected, payloadFor(pos, 7)))
	require.Equal(t, expected.RobotPos, tm.RobotPos)
	require.Equal(t, uint64(1), d.Stats.Frames)
	require.NotZero(t, d.Stats.HeaderErrors)
}

func TestDecodePayloadFlip(t *testing.T) {
	cmd := mustCommand(t, "robot_status")
	frame := frameFor(cmd, payloadFor(cmd, 3))
	for bit := 0; bit < cmd.Size*8; bit++ {
		corrupted := append([]byte(nil), frame...)
		corrupted[HeaderSize+CmdIDSize+bit/8] ^= 1 << uint(bit%8)

		var tm Telemetry
		d := NewDecoder(&tm)
		require.NoError(t, d.Decode(corrupted))
		require.Equal(t, RobotStatus{}, tm.RobotStatus, "bit %d", bit)
		require.Zero(t, d.Stats.Frames)
	}
}

func TestDecodeConcatenated(t *testing.T) {
	names := []string{"game_status", "robot_status", "power_heat", "keyboard_mouse", "rfid"}
	for count := 2; count <= len(names); count++ {
		var buf []byte
		var expected Telemetry
		expected.Status = StatusRunning
		for n, name := range names[:count] {
			cmd := mustCommand(t, name)
			payload := payloadFor(cmd, byte(n*16))
			require.NoError(t, cmd.Unmarshal(&expected, payload))
			buf = append(buf, frameFor(cmd, payload)...)
		}

		var tm Telemetry
		var order []string
		d := NewDecoder(&tm)
		d.OnFrame = func(c *Command) { order = append(order, c.Name) }
		require.NoError(t, d.Decode(buf))
		require.Equal(t, expected, tm)
		require.Equal(t, names[:count], order)
	}
}

func TestDecodeNoise(t *testing.T) {
	cmd := mustCommand(t, "field_events")
	buf := []byte{0x00, SOF, 0x13, SOF, SOF, 0xff}
	buf = append(buf, frameFor(cmd, []byte{1, 2, 3, 4})...)
	buf = append(buf, SOF, 0x01)

	var tm Telemetry
	d := NewDecoder(&tm)
	require.NoError(t, d.Decode(buf))
	require.Equal(t, uint32(0x04030201), tm.FieldEvents.EventType)
	require.Equal(t, uint64(1), d.Stats.Frames)
}

func TestDecodeTruncated(t *testing.T) {
	cmd := mustCommand(t, "robot_pos")
	frame := frameFor(cmd, payloadFor(cmd, 9))

	var tm Telemetry
	d := NewDecoder(&tm)
	require.NoError(t, d.Decode(frame[:len(frame)-3]))
	require.Equal(t, RobotPos{}, tm.RobotPos)
	require.NotZero(t, d.Stats.Truncated)
	require.Equal(t, StatusRunning, tm.Status)
}

func TestDecodeUnknownCmd(t *testing.T) {
	cmd := mustCommand(t, "warning")
	unknown := EncodeFrame(0x0999, 0, []byte{1, 2, 3})
	good := frameFor(cmd, []byte{2, 7})
	buf := append(append([]byte(nil), unknown...), good...)

	t.Run("skip", func(t *testing.T) {
		var tm Telemetry
		d := NewDecoder(&tm)
		err := d.Decode(buf)
		require.Error(t, err)
		unknownErr, ok := err.(*UnknownCmdError)
		require.True(t, ok)
		require.Equal(t, uint16(0x0999), unknownErr.CmdID)
		require.Equal(t, 0, unknownErr.Offset)
		require.Equal(t, Warning{Level: 2, FoulRobotID: 7}, tm.Warning)
		require.Equal(t, uint64(1), d.Stats.UnknownCmds)
	})

	t.Run("abort", func(t *testing.T) {
		var tm Telemetry
		d := NewDecoder(&tm)
		d.AbortOnUnknown = true
		err := d.Decode(buf)
		require.IsType(t, &UnknownCmdError{}, err)
		require.Equal(t, Warning{}, tm.Warning)
	})
}

func TestDecodeSetsRunning(t *testing.T) {
	var tm Telemetry
	require.Equal(t, StatusOffline, tm.Status)
	require.NoError(t, NewDecoder(&tm).Decode(nil))
	require.Equal(t, StatusRunning, tm.Status)
}

func TestBitFieldAccessors(t *testing.T) {
	require.Equal(t, uint8(0x4), GameStatus{TypeProgress: 0x34}.GameType())
	require.Equal(t, uint8(0x3), GameStatus{TypeProgress: 0x34}.Progress())
	require.Equal(t, uint8(0x2), RobotDamage{ArmorHurt: 0x12}.ArmorID())
	require.Equal(t, uint8(0x1), RobotDamage{ArmorHurt: 0x12}.HurtType())
}
