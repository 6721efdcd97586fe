package bench

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dshot.go/pkg/control"
	"github.com/robotalks/dshot.go/pkg/motor"
	"github.com/robotalks/dshot.go/pkg/recorder"
)

// LeverPlant is a crude model of the two-motor lever: differential
// thrust torques the arm against inertia and viscous damping.
type LeverPlant struct {
	Gain    float64 // degrees/s^2 per throttle step of differential
	Damping float64 // 1/s

	angle float64
	vel   float64
}

// Angle returns the current lever angle in degrees.
func (p *LeverPlant) Angle() float64 { return p.angle }

// Step advances the model by dt under the applied throttles.
func (p *LeverPlant) Step(dt float64, m1, m2 uint16) {
	accel := p.Gain*float64(int(m1)-int(m2)) - p.Damping*p.vel
	p.vel += accel * dt
	p.angle += p.vel * dt
}

// Stabilizer closes the lever angle loop: each iteration advances the
// plant, computes the PID correction and hands both throttles to the
// cadence group. It drives channels 0 and 1.
type Stabilizer struct {
	Group    *motor.Group
	PID      *control.PID
	Mixer    *control.LeverMixer
	Plant    *LeverPlant
	Setpoint float64
	Recorder *recorder.Recorder

	m1, m2 uint16
	last   time.Time
	start  time.Time
}

// NewStabilizer creates a stabilizer holding the lever at setpoint.
func NewStabilizer(g *motor.Group, pid *control.PID, mixer *control.LeverMixer, plant *LeverPlant, setpoint float64) *Stabilizer {
	return &Stabilizer{
		Group:    g,
		PID:      pid,
		Mixer:    mixer,
		Plant:    plant,
		Setpoint: setpoint,
		m1:       mixer.Base,
		m2:       mixer.Base,
	}
}

// Name implements fx.Named.
func (s *Stabilizer) Name() string {
	return "stabilizer"
}

// Control implements fx.Controller.
func (s *Stabilizer) Control(ctx context.Context, now time.Time) error {
	if s.last.IsZero() {
		s.last, s.start = now, now
		return nil
	}
	dt := now.Sub(s.last).Seconds()
	s.last = now

	s.Plant.Step(dt, s.m1, s.m2)
	err := s.Setpoint - s.Plant.Angle()
	out := s.PID.Compute(err, dt)
	s.m1, s.m2 = s.Mixer.Compute(out)

	if e := s.Group.SetThrottle(0, s.m1); e != nil {
		return e
	}
	if e := s.Group.SetThrottle(1, s.m2); e != nil {
		return e
	}

	if s.Recorder != nil {
		row := recorder.Row{
			T:        now.Sub(s.start),
			AngleDeg: s.Plant.Angle(),
			Err:      err,
			P:        s.PID.LastP,
			I:        s.PID.LastI,
			D:        s.PID.LastD,
			Out:      out,
			M1:       s.m1,
			M2:       s.m2,
			ERPM1:    s.Group.HealthSnapshot(0).ERPM,
			ERPM2:    s.Group.HealthSnapshot(1).ERPM,
		}
		if e := s.Recorder.Record(row); e != nil {
			glog.Errorf("record: %v", e)
		}
	}
	return nil
}
