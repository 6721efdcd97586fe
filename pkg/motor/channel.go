package motor

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dshot.go/pkg/dshot"
	"github.com/robotalks/dshot.go/pkg/dshot/driver"
	fx "github.com/robotalks/dshot.go/pkg/framework"
)

const (
	// ArmingHold is the minimum continuous zero-throttle transmission
	// before a channel may enter the armed state.
	ArmingHold = 300 * time.Millisecond

	// armFrameInterval spaces keep-alive frames while arming outside
	// the cadence loop.
	armFrameInterval = time.Millisecond
)

// Channel binds the frame codec and one bitstream driver to a single
// ESC. A Channel is not safe for concurrent use: once handed to a
// Group, the cadence goroutine owns it exclusively, and other
// goroutines observe it only through Health copies.
type Channel struct {
	id    int
	drv   driver.Driver
	mode  dshot.Mode
	clock fx.Clock

	// EDTSupported gates commands that need extended telemetry; set it
	// before the channel starts if the ESC firmware advertises EDT.
	EDTSupported bool

	state          ArmState
	lastThrottle   uint16
	lastCommand    dshot.Command
	quiescentUntil time.Time
	armingSince    time.Time
	framesSent     uint64
}

// NewChannel creates a channel bound to the driver. The signalling
// mode comes from the driver configuration.
func NewChannel(id int, drv driver.Driver, clock fx.Clock) *Channel {
	if clock == nil {
		clock = fx.SystemClock()
	}
	return &Channel{
		id:    id,
		drv:   drv,
		mode:  drv.Config().Mode,
		clock: clock,
	}
}

// ID returns the channel id.
func (c *Channel) ID() int { return c.id }

// State returns the current arm state.
func (c *Channel) State() ArmState { return c.state }

// LastThrottle returns the last transmitted throttle value.
func (c *Channel) LastThrottle() uint16 { return c.lastThrottle }

// FramesSent returns the number of frames transmitted on the wire.
func (c *Channel) FramesSent() uint64 { return c.framesSent }

// Driver returns the bound driver.
func (c *Channel) Driver() driver.Driver { return c.drv }

func (c *Channel) transmit(frame dshot.Frame) error {
	if err := c.drv.Transmit(frame); err != nil {
		return err
	}
	c.framesSent++
	return nil
}

func (c *Channel) transmitZero(telemetry bool) error {
	frame, err := dshot.EncodeThrottle(dshot.ThrottleStop, telemetry, c.mode)
	if err != nil {
		return err
	}
	if err := c.transmit(frame); err != nil {
		return err
	}
	c.lastThrottle = 0
	return nil
}

// Arm blocks, holding zero throttle on the wire until the confirmation
// window elapses, then flips the channel to armed. Canceling the
// context interrupts arming with ErrArmTimeout; the channel falls back
// to disarmed and the caller retries from there.
func (c *Channel) Arm(ctx context.Context) error {
	if c.state == ArmError {
		return ErrFaulted
	}
	c.beginArming(c.clock.Now())
	for {
		select {
		case <-ctx.Done():
			c.state = ArmDisarmed
			return ErrArmTimeout
		default:
		}
		armed, err := c.armingTick(c.clock.Now())
		if err != nil {
			c.state = ArmDisarmed
			return err
		}
		if armed {
			return nil
		}
		c.clock.Sleep(armFrameInterval)
	}
}

// beginArming enters the arming state; the caller then drives
// armingTick once per cadence period.
func (c *Channel) beginArming(now time.Time) {
	c.state = ArmArming
	c.armingSince = now
}

// armingTick transmits one zero frame and promotes the channel to
// armed once the hold has elapsed.
func (c *Channel) armingTick(now time.Time) (bool, error) {
	if err := c.transmitZero(false); err != nil {
		return false, err
	}
	if now.Sub(c.armingSince) < ArmingHold {
		return false, nil
	}
	c.state = ArmArmed
	glog.V(1).Infof("channel %d armed", c.id)
	return true, nil
}

// SetThrottle transmits a throttle frame immediately. Valid only while
// armed; values 1..47 are rejected as ambiguous with special commands.
// A non-zero throttle during a command's quiescent window is rejected.
func (c *Channel) SetThrottle(value uint16, telemetry bool) error {
	switch c.state {
	case ArmArmed:
	case ArmError:
		return ErrFaulted
	default:
		return ErrNotArmed
	}
	if value != dshot.ThrottleStop && c.clock.Now().Before(c.quiescentUntil) {
		return ErrQuiescent
	}
	frame, err := dshot.EncodeThrottle(value, telemetry, c.mode)
	if err != nil {
		return err
	}
	if err := c.transmit(frame); err != nil {
		return err
	}
	c.lastThrottle = value
	return nil
}

// SendCommand transmits a special command frame once. The motor must
// be stopped. Commands whose contract requires repeated sends must be
// retransmitted by the caller on consecutive ticks; SetQuiescent marks
// the post-contract delay. IssueCommand wraps the full contract for
// standalone use.
func (c *Channel) SendCommand(cmd dshot.Command, telemetry bool) error {
	if c.state == ArmError {
		return ErrFaulted
	}
	if c.lastThrottle != dshot.ThrottleStop {
		return ErrMotorSpinning
	}
	if cmd != c.lastCommand && c.clock.Now().Before(c.quiescentUntil) {
		return ErrQuiescent
	}
	frame, err := dshot.EncodeCommand(cmd, telemetry, c.mode, c.EDTSupported)
	if err != nil {
		return err
	}
	if err := c.transmit(frame); err != nil {
		return err
	}
	c.lastCommand = cmd
	return nil
}

// SetQuiescent blocks new commands and non-zero throttle until the
// deadline; zero-throttle keep-alive stays allowed.
func (c *Channel) SetQuiescent(until time.Time) {
	c.quiescentUntil = until
}

// IssueCommand executes a command's full transmission contract:
// repeated sends spaced one keep-alive interval apart, then the
// quiescent delay is armed. For use outside a Group.
func (c *Channel) IssueCommand(ctx context.Context, cmd dshot.Command, telemetry bool) error {
	var repeat commandRepeat
	repeat.begin(cmd, telemetry)
	for {
		next, ok := repeat.next()
		if !ok {
			return nil
		}
		select {
		case <-ctx.Done():
			repeat.abort()
			return ctx.Err()
		default:
		}
		if err := c.SendCommand(next, telemetry); err != nil {
			repeat.abort()
			return err
		}
		if until, done := repeat.sent(c.clock.Now()); done {
			c.SetQuiescent(until)
			return nil
		}
		c.clock.Sleep(armFrameInterval)
	}
}

// PollTelemetry samples and decodes one telemetry frame. Nil without
// error in standard mode. Decode failures come back as CrcError or
// GcrError for the caller to count; driver.ErrTimeout and
// driver.ErrFraming mean this tick's telemetry is simply lost.
func (c *Channel) PollTelemetry() (*dshot.Telemetry, error) {
	if c.mode != dshot.ModeBidirectional {
		return nil, nil
	}
	sym, err := c.drv.Receive()
	if err != nil {
		return nil, err
	}
	raw, err := dshot.GCRDecode(sym)
	if err != nil {
		return nil, err
	}
	tm, err := dshot.DecodeTelemetry(raw)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

// EStop forces the channel to disarmed and puts a stop frame on the
// wire. It never blocks longer than one frame duration. A faulted
// channel stays faulted: only Reinit clears the error state.
func (c *Channel) EStop() {
	if c.state != ArmError {
		c.state = ArmDisarmed
	}
	if err := c.transmitZero(false); err != nil {
		glog.Errorf("channel %d: estop transmit: %v", c.id, err)
	}
}

// Reinit is the explicit re-initialization required to leave the
// error state. The channel returns to disarmed and must be armed
// again.
func (c *Channel) Reinit() {
	c.state = ArmDisarmed
	c.lastThrottle = 0
	c.lastCommand = 0
	c.quiescentUntil = time.Time{}
}

func (c *Channel) fault() {
	c.state = ArmError
}
