package monitor

import (
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dshot.go/pkg/dshot"
	"github.com/robotalks/dshot.go/pkg/dshot/driver"
	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/motor"
)

var genSeq int32 = 500

func newCaptivePublisher(t *testing.T) (*Publisher, *motor.Group, *[]string, *[]string) {
	clock := fx.NewManualClock()
	sim, err := driver.NewSim(int(atomic.AddInt32(&genSeq, 1)), driver.Config{Bitrate: driver.DShot600, Mode: dshot.ModeStandard}, clock)
	require.NoError(t, err)
	g := motor.NewGroup(clock, motor.NewChannel(0, sim, clock))

	var topics, payloads []string
	p := &Publisher{Group: g, Rig: "rig1", Interval: DefaultPublishInterval}
	p.pub = func(topic string, payload []byte) {
		topics = append(topics, topic)
		payloads = append(payloads, string(payload))
	}
	return p, g, &topics, &payloads
}

func TestPublishHealth(t *testing.T) {
	p, _, topics, payloads := newCaptivePublisher(t)
	p.publishHealth()

	require.Equal(t, []string{"motor/rig1/0/health"}, *topics)
	var h motor.Health
	require.NoError(t, json.Unmarshal([]byte((*payloads)[0]), &h))
	require.Equal(t, 0, h.Channel)
}

func TestPublishAlarm(t *testing.T) {
	p, _, topics, payloads := newCaptivePublisher(t)
	p.publishAlarm(motor.Alarm{Channel: 0, Kind: motor.AlarmEStop})

	require.Equal(t, []string{"motor/rig1/0/alarm"}, *topics)
	require.JSONEq(t, `{"channel":0,"kind":"estop"}`, string((*payloads)[0]))
}
