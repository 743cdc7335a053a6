package referee

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjections(t *testing.T) {
	var tm Telemetry
	tm.Status = StatusRunning
	tm.RobotStatus.RobotID = 3
	tm.RobotStatus.ChassisPowerLimit = 80
	tm.PowerHeat = PowerHeat{ChassisPwrBuff: 60, ChassisWatt: 72.5, Heat17mm1: 40}
	tm.LauncherData = LauncherData{BulletType: 1, ShooterID: 1, Speed: 14.5}

	require.Equal(t, ForChassis{Status: StatusRunning, ChassisPowerLimit: 80, ChassisPwrBuff: 60}, tm.ForChassis())
	require.Equal(t, ForCap{
		Status:            StatusRunning,
		ChassisPowerLimit: 80,
		ChassisPwrBuff:    60,
		ChassisWatt:       72.5,
	}, tm.ForCap())

	l := tm.ForLauncher()
	require.Equal(t, uint16(40), l.PowerHeat.Heat17mm1)
	require.Equal(t, float32(14.5), l.LauncherData.Speed)
	require.Equal(t, uint8(3), l.RobotStatus.RobotID)

	// projections are copies
	l.PowerHeat.Heat17mm1 = 0
	require.Equal(t, uint16(40), tm.PowerHeat.Heat17mm1)

	cases := []struct {
		id   uint8
		team Team
	}{
		{1, TeamRed},
		{7, TeamRed},
		{100, TeamRed},
		{101, TeamBlue},
		{107, TeamBlue},
	}
	for _, c := range cases {
		tm.RobotStatus.RobotID = c.id
		require.Equal(t, c.team, tm.ForAI().Team, "robot %d", c.id)
	}
	require.Equal(t, "blue", TeamBlue.String())
	require.Equal(t, "red", TeamRed.String())

	ex := tm.Export()
	require.Equal(t, uint16(107), ex.RobotID)
	require.Equal(t, TeamBlue, ex.AI.Team)
	require.Equal(t, StatusRunning, ex.Cap.Status)
}
