// Package sim simulates the referee system for running without hardware.
package sim

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/robotalks/referee.go/pkg/referee"
	"github.com/robotalks/referee.go/pkg/uart"
)

// Match parameters.
const (
	MatchDuration   = 7 * time.Minute
	PowerBuffer     = 60
	PowerLimit      = 80
	HeatCoolingRate = 40
	HeatLimit       = 240
)

// DefaultInterval is the interval between telemetry bursts.
const DefaultInterval = 50 * time.Millisecond

// Referee generates the telemetry a robot receives during a match.
type Referee struct {
	RobotID  uint8
	Interval time.Duration

	Telemetry referee.Telemetry

	start time.Time
	last  time.Time
	seq   uint8
}

// NewReferee creates a Referee for robotID.
func NewReferee(robotID uint8) *Referee {
	r := &Referee{RobotID: robotID, Interval: DefaultInterval}
	r.Telemetry.RobotStatus = referee.RobotStatus{
		RobotID:           robotID,
		Level:             1,
		RemainHP:          200,
		MaxHP:             200,
		ChassisPowerLimit: PowerLimit,
		PowerOutput:       0x7,
	}
	r.Telemetry.RobotStatus.Shooter17mm1 = referee.ShooterLimit{
		CoolingRate:  HeatCoolingRate,
		CoolingLimit: HeatLimit,
		SpeedLimit:   30,
	}
	return r
}

// Start begins the match at now.
func (r *Referee) Start(now time.Time) {
	r.start, r.last = now, now
	r.Telemetry.GameStatus.TypeProgress = 1 | 4<<4
}

// Step advances the match to now and encodes the telemetry burst.
func (r *Referee) Step(now time.Time) []byte {
	if r.start.IsZero() {
		r.Start(now)
	}
	elapsed, dt := now.Sub(r.start), now.Sub(r.last).Seconds()
	r.last = now

	t := &r.Telemetry
	remain := MatchDuration - elapsed
	if remain < 0 {
		remain = 0
		t.GameStatus.TypeProgress = t.GameStatus.TypeProgress&0x0f | 5<<4
	}
	t.GameStatus.StageRemain = uint16(remain / time.Second)
	t.GameStatus.SyncTimestamp = uint64(now.Unix())

	// chassis power oscillates around the limit, draining the buffer above it
	watt := PowerLimit * (1 + 0.25*math.Sin(elapsed.Seconds()))
	t.PowerHeat.ChassisWatt = float32(watt)
	t.PowerHeat.ChassisVolt = 24000
	t.PowerHeat.ChassisCurrent = uint16(watt / 24 * 1000)
	buff := float64(t.PowerHeat.ChassisPwrBuff) - (watt-PowerLimit)*dt
	if elapsed < time.Second || buff > PowerBuffer {
		buff = PowerBuffer
	} else if buff < 0 {
		buff = 0
	}
	t.PowerHeat.ChassisPwrBuff = uint16(buff)

	heat := float64(t.PowerHeat.Heat17mm1) - HeatCoolingRate*dt
	if heat < 0 {
		heat = 0
	}
	t.PowerHeat.Heat17mm1 = uint16(heat)

	var out []byte
	for _, name := range []string{"game_status", "robot_status", "power_heat"} {
		out = append(out, r.frame(name)...)
	}
	return out
}

// Shoot records a launched 17mm projectile.
func (r *Referee) Shoot(speed float32) {
	r.Telemetry.PowerHeat.Heat17mm1 += 10
	r.Telemetry.LauncherData = referee.LauncherData{BulletType: 1, ShooterID: 1, Freq: 1, Speed: speed}
}

// Events encodes one-shot frames for what happened since the last call.
func (r *Referee) Events() []byte {
	return r.frame("launcher_data")
}

func (r *Referee) frame(name string) []byte {
	cmd, ok := referee.LookupCommandByName(name)
	if !ok {
		return nil
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, cmd.Field(&r.Telemetry))
	r.seq++
	return referee.EncodeFrame(cmd.ID, r.seq, buf.Bytes())
}

// Link connects a Referee and a Client to a uart.Port through Pipes.
type Link struct {
	Referee *Referee
	Client  *Client

	lock sync.Mutex
	pipe *uart.Pipe
}

// NewLink creates a Link.
func NewLink(r *Referee, c *Client) *Link {
	return &Link{Referee: r, Client: c}
}

// Open implements uart.Opener. Every call replaces the Pipe.
func (l *Link) Open() (uart.Stream, error) {
	p := uart.NewPipe()
	p.OnWrite = l.Client.HandleFrame
	l.lock.Lock()
	l.pipe = p
	l.lock.Unlock()
	return p, nil
}

// Name implements framework.Named.
func (l *Link) Name() string {
	return "sim"
}

// Run implements framework.Runnable.
func (l *Link) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.Referee.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.lock.Lock()
			p, data := l.pipe, l.Referee.Step(now)
			l.lock.Unlock()
			if p != nil {
				p.Feed(data)
			}
		}
	}
}

// Shoot launches a projectile and feeds the launcher event.
func (l *Link) Shoot(speed float32) bool {
	l.lock.Lock()
	l.Referee.Shoot(speed)
	p, data := l.pipe, l.Referee.Events()
	l.lock.Unlock()
	return p != nil && p.Feed(data)
}

// Telemetry returns a copy of the simulated telemetry.
func (l *Link) Telemetry() referee.Telemetry {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.Referee.Telemetry
}
