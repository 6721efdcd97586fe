// Package control implements the bench stabilization loop pieces: a
// discrete PID controller and the differential thrust mixer.
package control

// PID is a discrete PID controller with integral anti-windup. The last
// computed terms stay readable for telemetry recording.
type PID struct {
	Kp, Ki, Kd    float64
	IntegralLimit float64

	LastP, LastI, LastD float64

	integral  float64
	prevError float64
}

// NewPID creates a controller with the given gains.
func NewPID(kp, ki, kd, integralLimit float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, IntegralLimit: integralLimit}
}

// Compute returns the controller output for the error and timestep in
// seconds, updating the term snapshots.
func (c *PID) Compute(err, dt float64) float64 {
	c.integral += err * dt
	if c.integral > c.IntegralLimit {
		c.integral = c.IntegralLimit
	} else if c.integral < -c.IntegralLimit {
		c.integral = -c.IntegralLimit
	}

	var derivative float64
	if dt > 0 {
		derivative = (err - c.prevError) / dt
	}
	c.prevError = err

	c.LastP = c.Kp * err
	c.LastI = c.Ki * c.integral
	c.LastD = c.Kd * derivative
	return c.LastP + c.LastI + c.LastD
}

// Reset zeroes the integrator and derivative state for a fresh session.
func (c *PID) Reset() {
	c.integral = 0
	c.prevError = 0
	c.LastP, c.LastI, c.LastD = 0, 0, 0
}
