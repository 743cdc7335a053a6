// Package bridge publishes referee projections to other processes and
// feeds mode updates back into the UI refresh.
package bridge

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/referee.go/pkg/bridge/msgs"
	fx "github.com/robotalks/referee.go/pkg/framework"
	"github.com/robotalks/referee.go/pkg/referee"
	"github.com/robotalks/referee.go/pkg/ui"
)

// Topics of published messages.
const (
	TopicChassis  = "chassis"
	TopicLauncher = "launcher"
	TopicCap      = "cap"
	TopicTeam     = "team"
	TopicStats    = "stats"
	TopicModes    = "modes"
)

// Sink delivers an encoded Envelope.
type Sink interface {
	Publish(topic string, payload []byte) error
}

// SinkMux publishes to all Sinks.
type SinkMux []Sink

// Publish implements Sink.
func (m SinkMux) Publish(topic string, payload []byte) error {
	var errs fx.ErrorList
	for n, s := range m {
		errs.AddLabeled(fmt.Sprintf("sink[%d]", n), s.Publish(topic, payload))
	}
	return errs.Err()
}

// ExportSource provides the latest projections.
type ExportSource interface {
	Exports() referee.Exports
}

// Topic is a message bound to its topic.
type Topic struct {
	Name    string
	Message msgs.Message
}

// MessagesFrom converts projections into bridge messages.
func MessagesFrom(e referee.Exports) []Topic {
	launcher := e.Launcher
	return []Topic{
		{TopicChassis, &msgs.ChassisTelemetry{
			Online:      e.Chassis.Status == referee.StatusRunning,
			PowerLimit:  uint32(e.Chassis.ChassisPowerLimit),
			PowerBuffer: uint32(e.Chassis.ChassisPwrBuff),
		}},
		{TopicLauncher, &msgs.LauncherTelemetry{
			Online:       launcher.Status == referee.StatusRunning,
			Heat:         uint32(launcher.PowerHeat.Heat17mm1),
			CoolingRate:  uint32(launcher.RobotStatus.Shooter17mm1.CoolingRate),
			CoolingLimit: uint32(launcher.RobotStatus.Shooter17mm1.CoolingLimit),
			SpeedLimit:   uint32(launcher.RobotStatus.Shooter17mm1.SpeedLimit),
			BulletSpeed:  launcher.LauncherData.Speed,
			BulletFreq:   uint32(launcher.LauncherData.Freq),
		}},
		{TopicCap, &msgs.CapTelemetry{
			Online:      e.Cap.Status == referee.StatusRunning,
			PowerLimit:  uint32(e.Cap.ChassisPowerLimit),
			PowerBuffer: uint32(e.Cap.ChassisPwrBuff),
			ChassisWatt: e.Cap.ChassisWatt,
		}},
		{TopicTeam, &msgs.TeamInfo{
			Online:  e.AI.Status == referee.StatusRunning,
			Blue:    e.AI.Team == referee.TeamBlue,
			RobotID: uint32(e.RobotID),
		}},
		{TopicStats, &msgs.EngineStats{
			Frames:            e.Stats.Decode.Frames,
			HeaderErrors:      e.Stats.Decode.HeaderErrors,
			FrameErrors:       e.Stats.Decode.FrameErrors,
			UnknownCmds:       e.Stats.Decode.UnknownCmds,
			Truncated:         e.Stats.Decode.Truncated,
			Sent:              e.Stats.Sent,
			SendFailed:        e.Stats.SendFailed,
			StagingDropped:    e.Stats.StagingDropped,
			MailboxOverwrites: e.Stats.MailboxOverwrites,
		}},
	}
}

// ApplyModes copies the masked fields of m into st.
func ApplyModes(st *referee.UIState, m *msgs.ModeUpdate) {
	if m.Mask&msgs.MaskChassis != 0 {
		st.Chassis.Mode = referee.ChassisMode(m.ChassisMode)
		st.Chassis.Angle = ui.AngleFromRadians(m.ChassisAngle)
	}
	if m.Mask&msgs.MaskCap != 0 {
		st.Cap.Online = m.CapOnline
		st.Cap.Percentage = m.CapPercentage
	}
	if m.Mask&msgs.MaskGimbal != 0 {
		st.Gimbal.Mode = referee.GimbalMode(m.GimbalMode)
	}
	if m.Mask&msgs.MaskLauncher != 0 {
		st.Launcher.Mode = referee.LauncherMode(m.LauncherMode)
		st.Launcher.Fire = referee.FireMode(m.FireMode)
	}
	if m.Mask&msgs.MaskCmd != 0 {
		st.Cmd.CtrlMethod = referee.CtrlMethod(m.CtrlMethod)
	}
}

// ModeReceiver applies encoded ModeUpdate envelopes to a ModeStore.
type ModeReceiver struct {
	Store *referee.ModeStore
}

// HandlePayload decodes payload and updates the store.
func (r *ModeReceiver) HandlePayload(payload []byte) error {
	msg, err := msgs.DecodeEnvelope(payload)
	if err != nil {
		return err
	}
	update, ok := msg.(*msgs.ModeUpdate)
	if !ok {
		return &msgs.UnknownTypeError{TypeID: msg.TypeID()}
	}
	r.Store.Update(func(st *referee.UIState) {
		ApplyModes(st, update)
	})
	return nil
}

// DefaultInterval is the default publishing interval.
const DefaultInterval = 100 * time.Millisecond

// Publisher periodically publishes projections.
type Publisher struct {
	Source   ExportSource
	Sink     Sink
	Interval time.Duration
	// All publishes unchanged messages too.
	All bool

	lock sync.Mutex
	last map[string][]byte
}

// NewPublisher creates a Publisher.
func NewPublisher(src ExportSource, sink Sink) *Publisher {
	return &Publisher{Source: src, Sink: sink, Interval: DefaultInterval}
}

// Name implements framework.Named.
func (p *Publisher) Name() string {
	return "bridge"
}

// Run implements framework.Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return fx.NewTicker("bridge", interval, func(time.Time) {
		if err := p.Publish(); err != nil {
			glog.Errorf("bridge publish: %v", err)
		}
	}).Run(ctx)
}

// Publish publishes the current projections once. Messages identical to
// the previously published ones are skipped unless All is set.
func (p *Publisher) Publish() error {
	var errs fx.ErrorList
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.last == nil {
		p.last = make(map[string][]byte)
	}
	for _, t := range MessagesFrom(p.Source.Exports()) {
		payload, err := msgs.Encode(t.Message)
		if err != nil {
			errs.AddLabeled(t.Name, err)
			continue
		}
		if !p.All && bytes.Equal(p.last[t.Name], payload) {
			continue
		}
		if err = p.Sink.Publish(t.Name, payload); err != nil {
			errs.AddLabeled(t.Name, err)
			continue
		}
		p.last[t.Name] = payload
	}
	return errs.Err()
}
