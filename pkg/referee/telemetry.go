package referee

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Status is the link status.
type Status uint8

// Link status.
const (
	StatusOffline Status = iota
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusOffline:
		return "offline"
	case StatusRunning:
		return "running"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// GameStatus is cmd 0x0001.
type GameStatus struct {
	TypeProgress  uint8 // low 4 bits type, high 4 bits progress
	StageRemain   uint16
	SyncTimestamp uint64
}

// GameType returns the competition type.
func (s GameStatus) GameType() uint8 { return s.TypeProgress & 0xf }

// Progress returns the game stage.
func (s GameStatus) Progress() uint8 { return s.TypeProgress >> 4 }

// GameResult is cmd 0x0002.
type GameResult struct {
	Winner uint8
}

// GameRobotHP is cmd 0x0003.
type GameRobotHP struct {
	Red  TeamHP
	Blue TeamHP
}

// TeamHP lists HP of one side.
type TeamHP struct {
	Robots  [6]uint16 // 1 to 5 and 7
	Outpost uint16
	Base    uint16
}

// DartStatus is cmd 0x0004.
type DartStatus struct {
	DartBelong  uint8
	StageRemain uint16
}

// ICRAZone is cmd 0x0005.
type ICRAZone struct {
	ZoneStatus  [3]uint8 // 6 zones, 4 bits each
	RedBullets  [2]uint16
	BlueBullets [2]uint16
	LurkMode    uint8
	Reserved    uint8
}

// FieldEvents is cmd 0x0101.
type FieldEvents struct {
	EventType uint32
}

// SupplyAction is cmd 0x0102.
type SupplyAction struct {
	ProjectileID uint8
	RobotID      uint8
	Step         uint8
	Num          uint8
}

// Warning is cmd 0x0104.
type Warning struct {
	Level       uint8
	FoulRobotID uint8
}

// DartCountdown is cmd 0x0105.
type DartCountdown struct {
	Remain uint8
}

// ShooterLimit holds cooling and speed limits of one shooter.
type ShooterLimit struct {
	CoolingRate  uint16
	CoolingLimit uint16
	SpeedLimit   uint16
}

// RobotStatus is cmd 0x0201.
type RobotStatus struct {
	RobotID           uint8
	Level             uint8
	RemainHP          uint16
	MaxHP             uint16
	Shooter17mm1      ShooterLimit
	Shooter17mm2      ShooterLimit
	Shooter42mm       ShooterLimit
	ChassisPowerLimit uint16
	PowerOutput       uint8 // bit0 gimbal, bit1 chassis, bit2 shooter
}

// PowerHeat is cmd 0x0202.
type PowerHeat struct {
	ChassisVolt    uint16
	ChassisCurrent uint16
	ChassisWatt    float32
	ChassisPwrBuff uint16
	Heat17mm1      uint16
	Heat17mm2      uint16
	Heat42mm       uint16
}

// RobotPos is cmd 0x0203.
type RobotPos struct {
	X   float32
	Y   float32
	Z   float32
	Yaw float32
}

// RobotBuff is cmd 0x0204.
type RobotBuff struct {
	Buff uint8
}

// DroneEnergy is cmd 0x0205.
type DroneEnergy struct {
	AttackTime uint8
}

// RobotDamage is cmd 0x0206.
type RobotDamage struct {
	ArmorHurt uint8 // low 4 bits armor id, high 4 bits hurt type
}

// ArmorID returns the hit armor.
func (d RobotDamage) ArmorID() uint8 { return d.ArmorHurt & 0xf }

// HurtType returns the reason of the damage.
func (d RobotDamage) HurtType() uint8 { return d.ArmorHurt >> 4 }

// LauncherData is cmd 0x0207.
type LauncherData struct {
	BulletType uint8
	ShooterID  uint8
	Freq       uint8
	Speed      float32
}

// BulletRemaining is cmd 0x0208.
type BulletRemaining struct {
	Bullet17mm uint16
	Bullet42mm uint16
	Coin       uint16
}

// RFID is cmd 0x0209.
type RFID struct {
	Status uint32
}

// DartClient is cmd 0x020A.
type DartClient struct {
	LaunchOpening   uint8
	AttackTarget    uint8
	TargetChangeAt  uint16
	OperateLaunchAt uint16
}

// ClientMap is cmd 0x0303.
type ClientMap struct {
	X        float32
	Y        float32
	Z        float32
	Key      uint8
	TargetID uint16
}

// KeyboardMouse is cmd 0x0304.
type KeyboardMouse struct {
	MouseX   int16
	MouseY   int16
	MouseZ   int16
	Left     int8
	Right    int8
	Keyboard uint16
	Reserved uint16
}

// Telemetry holds the latest value of every inbound command.
type Telemetry struct {
	Status Status

	GameStatus      GameStatus
	GameResult      GameResult
	GameRobotHP     GameRobotHP
	DartStatus      DartStatus
	ICRAZone        ICRAZone
	FieldEvents     FieldEvents
	SupplyAction    SupplyAction
	Warning         Warning
	DartCountdown   DartCountdown
	RobotStatus     RobotStatus
	PowerHeat       PowerHeat
	RobotPos        RobotPos
	RobotBuff       RobotBuff
	DroneEnergy     DroneEnergy
	RobotDamage     RobotDamage
	LauncherData    LauncherData
	BulletRemaining BulletRemaining
	RFID            RFID
	DartClient      DartClient
	ClientMap       ClientMap
	KeyboardMouse   KeyboardMouse
}

// Command describes an inbound command.
type Command struct {
	ID   uint16
	Name string
	Size int

	field func(*Telemetry) interface{}
}

// Field returns the pointer to the destination of the command in t.
func (c *Command) Field(t *Telemetry) interface{} {
	return c.field(t)
}

// Unmarshal decodes data into the destination field of t.
// data must be exactly c.Size bytes.
func (c *Command) Unmarshal(t *Telemetry, data []byte) error {
	if len(data) != c.Size {
		return fmt.Errorf("cmd 0x%04x expects %d bytes, got %d", c.ID, c.Size, len(data))
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, c.field(t))
}

// Commands is the inbound command table.
var Commands = []Command{
	{0x0001, "game_status", 11, func(t *Telemetry) interface{} { return &t.GameStatus }},
	{0x0002, "game_result", 1, func(t *Telemetry) interface{} { return &t.GameResult }},
	{0x0003, "game_robot_hp", 32, func(t *Telemetry) interface{} { return &t.GameRobotHP }},
	{0x0004, "dart_status", 3, func(t *Telemetry) interface{} { return &t.DartStatus }},
	{0x0005, "icra_zone", 13, func(t *Telemetry) interface{} { return &t.ICRAZone }},
	{0x0101, "field_events", 4, func(t *Telemetry) interface{} { return &t.FieldEvents }},
	{0x0102, "supply_action", 4, func(t *Telemetry) interface{} { return &t.SupplyAction }},
	{0x0104, "warning", 2, func(t *Telemetry) interface{} { return &t.Warning }},
	{0x0105, "dart_countdown", 1, func(t *Telemetry) interface{} { return &t.DartCountdown }},
	{0x0201, "robot_status", 27, func(t *Telemetry) interface{} { return &t.RobotStatus }},
	{0x0202, "power_heat", 16, func(t *Telemetry) interface{} { return &t.PowerHeat }},
	{0x0203, "robot_pos", 16, func(t *Telemetry) interface{} { return &t.RobotPos }},
	{0x0204, "robot_buff", 1, func(t *Telemetry) interface{} { return &t.RobotBuff }},
	{0x0205, "drone_energy", 1, func(t *Telemetry) interface{} { return &t.DroneEnergy }},
	{0x0206, "robot_damage", 1, func(t *Telemetry) interface{} { return &t.RobotDamage }},
	{0x0207, "launcher_data", 7, func(t *Telemetry) interface{} { return &t.LauncherData }},
	{0x0208, "bullet_remaining", 6, func(t *Telemetry) interface{} { return &t.BulletRemaining }},
	{0x0209, "rfid", 4, func(t *Telemetry) interface{} { return &t.RFID }},
	{0x020a, "dart_client", 6, func(t *Telemetry) interface{} { return &t.DartClient }},
	{0x0303, "client_map", 15, func(t *Telemetry) interface{} { return &t.ClientMap }},
	{0x0304, "keyboard_mouse", 12, func(t *Telemetry) interface{} { return &t.KeyboardMouse }},
}

var commandsByID = make(map[uint16]*Command, len(Commands))

func init() {
	for n := range Commands {
		commandsByID[Commands[n].ID] = &Commands[n]
	}
}

// LookupCommand finds an inbound command by id.
func LookupCommand(id uint16) (*Command, bool) {
	cmd, ok := commandsByID[id]
	return cmd, ok
}

// LookupCommandByName finds an inbound command by name.
func LookupCommandByName(name string) (*Command, bool) {
	for n := range Commands {
		if Commands[n].Name == name {
			return &Commands[n], true
		}
	}
	return nil, false
}
