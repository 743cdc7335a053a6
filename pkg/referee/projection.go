package referee

// Team is the side of the robot.
type Team uint8

// Teams.
const (
	TeamRed Team = iota
	TeamBlue
)

func (t Team) String() string {
	if t == TeamBlue {
		return "blue"
	}
	return "red"
}

// ForChassis is the telemetry consumed by chassis power control.
type ForChassis struct {
	Status            Status
	ChassisPowerLimit uint16
	ChassisPwrBuff    uint16
}

// ForLauncher is the telemetry consumed by launcher heat control.
type ForLauncher struct {
	Status       Status
	PowerHeat    PowerHeat
	RobotStatus  RobotStatus
	LauncherData LauncherData
}

// ForCap is the telemetry consumed by the super capacitor.
type ForCap struct {
	Status            Status
	ChassisPowerLimit uint16
	ChassisPwrBuff    uint16
	ChassisWatt       float32
}

// ForAI is the team affiliation consumed by autonomy.
type ForAI struct {
	Status Status
	Team   Team
}

// ForChassis copies the chassis view.
func (t *Telemetry) ForChassis() ForChassis {
	return ForChassis{
		Status:            t.Status,
		ChassisPowerLimit: t.RobotStatus.ChassisPowerLimit,
		ChassisPwrBuff:    t.PowerHeat.ChassisPwrBuff,
	}
}

// ForLauncher copies the launcher view.
func (t *Telemetry) ForLauncher() ForLauncher {
	return ForLauncher{
		Status:       t.Status,
		PowerHeat:    t.PowerHeat,
		RobotStatus:  t.RobotStatus,
		LauncherData: t.LauncherData,
	}
}

// ForCap copies the capacitor view.
func (t *Telemetry) ForCap() ForCap {
	return ForCap{
		Status:            t.Status,
		ChassisPowerLimit: t.RobotStatus.ChassisPowerLimit,
		ChassisPwrBuff:    t.PowerHeat.ChassisPwrBuff,
		ChassisWatt:       t.PowerHeat.ChassisWatt,
	}
}

// ForAI copies the autonomy view.
func (t *Telemetry) ForAI() ForAI {
	ai := ForAI{Status: t.Status, Team: TeamRed}
	if t.RobotStatus.RobotID >= blueHero {
		ai.Team = TeamBlue
	}
	return ai
}

// Exports are the projections published after every engine cycle.
type Exports struct {
	Chassis  ForChassis
	Launcher ForLauncher
	Cap      ForCap
	AI       ForAI
	RobotID  uint16
	Stats    Stats
}

// Export copies all projections.
func (t *Telemetry) Export() Exports {
	return Exports{
		Chassis:  t.ForChassis(),
		Launcher: t.ForLauncher(),
		Cap:      t.ForCap(),
		AI:       t.ForAI(),
		RobotID:  uint16(t.RobotStatus.RobotID),
	}
}
