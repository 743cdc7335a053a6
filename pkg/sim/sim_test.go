package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/referee.go/pkg/referee"
	"github.com/robotalks/referee.go/pkg/ui"
	"github.com/robotalks/referee.go/pkg/uart"
)

func TestRefereeStep(t *testing.T) {
	r := NewReferee(103)
	start := time.Unix(1000, 0)

	var tm referee.Telemetry
	d := referee.NewDecoder(&tm)
	require.NoError(t, d.Decode(r.Step(start)))
	require.Equal(t, uint64(3), d.Stats.Frames)
	require.Equal(t, uint8(103), tm.RobotStatus.RobotID)
	require.Equal(t, uint16(PowerLimit), tm.RobotStatus.ChassisPowerLimit)
	require.Equal(t, uint8(4), tm.GameStatus.Progress())
	require.Equal(t, uint16(420), tm.GameStatus.StageRemain)
	require.Equal(t, uint16(PowerBuffer), tm.PowerHeat.ChassisPwrBuff)

	require.NoError(t, d.Decode(r.Step(start.Add(30*time.Second))))
	require.Equal(t, uint16(390), tm.GameStatus.StageRemain)
	require.True(t, tm.PowerHeat.ChassisPwrBuff <= PowerBuffer)

	require.NoError(t, d.Decode(r.Step(start.Add(8*time.Minute))))
	require.Zero(t, tm.GameStatus.StageRemain)
	require.Equal(t, uint8(5), tm.GameStatus.Progress())
}

func TestRefereeShoot(t *testing.T) {
	r := NewReferee(1)
	start := time.Unix(1000, 0)
	r.Step(start)
	r.Shoot(14.5)
	r.Shoot(14.5)

	var tm referee.Telemetry
	d := referee.NewDecoder(&tm)
	require.NoError(t, d.Decode(r.Events()))
	require.Equal(t, float32(14.5), tm.LauncherData.Speed)
	require.Equal(t, uint16(20), r.Telemetry.PowerHeat.Heat17mm1)

	r.Step(start.Add(250 * time.Millisecond))
	require.Equal(t, uint16(10), r.Telemetry.PowerHeat.Heat17mm1)
}

func packAll(t *testing.T, q *ui.Queue, c *Client, sender uint16) {
	p := referee.NewPacker(referee.NewBufferPool())
	for {
		f, err := p.Pack(q, sender)
		if err == referee.ErrNothingPending {
			return
		}
		require.NoError(t, err)
		require.NoError(t, c.HandleFrame(f.Bytes()))
	}
}

func TestClientScreen(t *testing.T) {
	var st referee.UIState
	q := ui.NewDefaultQueue()
	s := referee.NewScheduler(ui.DefaultScreen, q, referee.ModeSourceFunc(func() referee.UIState { return st }))
	c := NewClient()
	var changes []Change
	c.Subscribe(ScreenChangedFunc(func(ch []Change) { changes = append(changes, ch...) }))

	s.Slow()
	packAll(t, q, c, 1)
	legend, ok := c.Element("1")
	require.True(t, ok)
	require.Equal(t, "CHAS  FLLW  FL35  ROTR", legend.Text)
	require.Len(t, c.Elements(), 7)

	// rewriting elements never added is ignored
	s.Fast()
	packAll(t, q, c, 1)
	_, ok = c.Element("9")
	require.True(t, ok)
	changes = nil
	s.Fast()
	s.Fast()
	packAll(t, q, c, 1)
	_, ok = c.Element("a")
	require.False(t, ok)
	require.Empty(t, changes)

	s.Reset()
	packAll(t, q, c, 1)
	require.Empty(t, c.Elements())
	require.Equal(t, ActionReset, changes[len(changes)-1].Action)
}

func TestClientDeleteLayer(t *testing.T) {
	q := ui.NewDefaultQueue()
	c := NewClient()
	require.NoError(t, q.PushGraphic(ui.Line("x", ui.OpAdd, ui.LayerCap, ui.ColorGreen, 1, 0, 0, 1, 1)))
	require.NoError(t, q.PushGraphic(ui.Line("y", ui.OpAdd, ui.LayerChassis, ui.ColorGreen, 1, 0, 0, 1, 1)))
	packAll(t, q, c, 1)
	require.Len(t, c.Elements(), 2)

	require.NoError(t, q.PushDelete(ui.Delete{Op: ui.DelLayer, Layer: ui.LayerCap}))
	packAll(t, q, c, 1)
	elements := c.Elements()
	require.Len(t, elements, 1)
	require.Equal(t, "y", elements[0].Name)

	require.NoError(t, q.PushGraphic(ui.Line("y", ui.OpDelete, ui.LayerChassis, ui.ColorGreen, 1, 0, 0, 1, 1)))
	packAll(t, q, c, 1)
	require.Empty(t, c.Elements())
}

func TestClientRejects(t *testing.T) {
	q := ui.NewDefaultQueue()
	c := NewClient()
	c.Receiver = 0x0101
	require.NoError(t, q.PushGraphic(ui.Line("x", ui.OpAdd, ui.LayerCap, ui.ColorGreen, 1, 0, 0, 1, 1)))
	packAll(t, q, c, 2)
	require.Empty(t, c.Elements())
	require.Equal(t, ClientStats{Rejects: 1}, c.Stats())

	require.Error(t, c.HandleFrame([]byte{referee.SOF, 0, 0}))
	require.Equal(t, uint64(1), c.Stats().Errors)
}

func TestLink(t *testing.T) {
	r := NewReferee(101)
	r.Interval = 5 * time.Millisecond
	c := NewClient()
	link := NewLink(r, c)
	port := uart.NewPort(link.Open)

	e := referee.NewEngine(referee.Options{}, port, port, &referee.ModeStore{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go link.Run(ctx)
	go port.Run(ctx)
	go e.Run(ctx)

	require.Eventually(t, func() bool {
		return e.Exports().RobotID == 101
	}, time.Second, time.Millisecond)
	require.Equal(t, referee.TeamBlue, e.Exports().AI.Team)

	require.True(t, link.Shoot(15))
	require.Eventually(t, func() bool {
		return e.Exports().Launcher.LauncherData.Speed == 15
	}, time.Second, time.Millisecond)
	require.Equal(t, float32(15), link.Telemetry().LauncherData.Speed)

	e.Post(referee.EventSlow)
	require.Eventually(t, func() bool {
		_, ok := c.Element("5")
		return ok
	}, time.Second, time.Millisecond)
}
