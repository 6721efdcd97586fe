// Package monitor publishes motor health and alarms over MQTT for
// off-board observation.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/dshot.go/pkg/motor"
)

// DefaultPublishInterval is how often health snapshots go out.
const DefaultPublishInterval = 100 * time.Millisecond

// RigID retrieves the unique ID identifying the bench rig.
func RigID() string {
	id, err := machineid.ID()
	if err != nil {
		panic(err)
	}
	return id
}

type alarmMsg struct {
	Channel int    `json:"channel"`
	Kind    string `json:"kind"`
	Error   string `json:"error,omitempty"`
}

func alarmKindName(kind motor.AlarmKind) string {
	switch kind {
	case motor.AlarmFault:
		return "fault"
	case motor.AlarmEStop:
		return "estop"
	}
	return fmt.Sprintf("kind-%d", kind)
}

// Publisher periodically publishes per-channel health snapshots to
// motor/<rig>/<channel>/health and forwards alarms to
// motor/<rig>/<channel>/alarm.
type Publisher struct {
	Queue    *Queue
	Group    *motor.Group
	Rig      string
	Interval time.Duration

	pub func(topic string, payload []byte)
}

// NewPublisher creates a Publisher over the queue. An empty rig falls
// back to the machine ID.
func NewPublisher(q *Queue, g *motor.Group, rig string) *Publisher {
	if rig == "" {
		rig = RigID()
	}
	p := &Publisher{Queue: q, Group: g, Rig: rig, Interval: DefaultPublishInterval}
	p.pub = func(topic string, payload []byte) { q.Pub(topic, payload) }
	return p
}

// Name implements fx.Named.
func (p *Publisher) Name() string {
	return "health-publisher"
}

// Run implements fx.Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case a := <-p.Group.Alarms():
			p.publishAlarm(a)
		case <-ticker.C:
			p.publishHealth()
		}
	}
}

func (p *Publisher) publishHealth() {
	for i := 0; i < p.Group.Channels(); i++ {
		h := p.Group.HealthSnapshot(i)
		payload, err := json.Marshal(&h)
		if err != nil {
			glog.Errorf("health encode: %v", err)
			continue
		}
		p.pub(p.topic(i, "health"), payload)
	}
}

func (p *Publisher) publishAlarm(a motor.Alarm) {
	msg := alarmMsg{Channel: a.Channel, Kind: alarmKindName(a.Kind)}
	if a.Err != nil {
		msg.Error = a.Err.Error()
	}
	payload, err := json.Marshal(&msg)
	if err != nil {
		glog.Errorf("alarm encode: %v", err)
		return
	}
	p.pub(p.topic(a.Channel, "alarm"), payload)
}

func (p *Publisher) topic(channel int, kind string) string {
	return fmt.Sprintf("motor/%s/%d/%s", p.Rig, channel, kind)
}
