package motor

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dshot.go/pkg/dshot"
	"github.com/robotalks/dshot.go/pkg/dshot/driver"
	fx "github.com/robotalks/dshot.go/pkg/framework"
)

var genSeq int32

func newTestChannel(t *testing.T, mode dshot.Mode) (*Channel, *driver.Sim, *fx.ManualClock) {
	clock := fx.NewManualClock()
	gen := int(atomic.AddInt32(&genSeq, 1))
	sim, err := driver.NewSim(gen, driver.Config{Bitrate: driver.DShot600, Mode: mode}, clock)
	require.NoError(t, err)
	return NewChannel(0, sim, clock), sim, clock
}

func armed(t *testing.T, mode dshot.Mode) (*Channel, *driver.Sim, *fx.ManualClock) {
	ch, sim, clock := newTestChannel(t, mode)
	require.NoError(t, ch.Arm(context.Background()))
	return ch, sim, clock
}

func TestArmHoldsZeroThrottle(t *testing.T) {
	ch, sim, clock := newTestChannel(t, dshot.ModeStandard)
	start := clock.Now()

	require.NoError(t, ch.Arm(context.Background()))
	require.Equal(t, ArmArmed, ch.State())
	// armed only after the full confirmation window of continuous
	// zero-throttle frames
	require.True(t, clock.Now().Sub(start) >= ArmingHold)
	frames := sim.Frames()
	require.True(t, len(frames) >= 200, "got %d frames", len(frames))
	for _, f := range frames {
		require.Equal(t, dshot.ThrottleStop, f.Payload())
	}
}

func TestArmInterrupted(t *testing.T) {
	ch, _, _ := newTestChannel(t, dshot.ModeStandard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Equal(t, ErrArmTimeout, ch.Arm(ctx))
	require.Equal(t, ArmDisarmed, ch.State())
}

func TestSetThrottleRequiresArmed(t *testing.T) {
	ch, _, _ := newTestChannel(t, dshot.ModeStandard)
	require.Equal(t, ErrNotArmed, ch.SetThrottle(500, false))
}

func TestSetThrottle(t *testing.T) {
	ch, sim, _ := armed(t, dshot.ModeStandard)

	require.NoError(t, ch.SetThrottle(500, false))
	require.Equal(t, uint16(500), sim.Throttle())
	require.Equal(t, uint16(500), ch.LastThrottle())

	// 1..47 are ambiguous with special commands
	err := ch.SetThrottle(47, false)
	require.IsType(t, &dshot.PayloadError{}, err)
	err = ch.SetThrottle(dshot.ThrottleMax+1, false)
	require.IsType(t, &dshot.PayloadError{}, err)
	require.Equal(t, uint16(500), ch.LastThrottle())
}

func TestSendCommandWhileSpinning(t *testing.T) {
	ch, _, _ := armed(t, dshot.ModeStandard)
	require.NoError(t, ch.SetThrottle(500, false))
	require.Equal(t, ErrMotorSpinning, ch.SendCommand(dshot.CmdBeep1, false))
}

func TestIssueCommandRepeat(t *testing.T) {
	ch, sim, _ := armed(t, dshot.ModeStandard)

	require.NoError(t, ch.IssueCommand(context.Background(), dshot.CmdSpinDirectionNormal, false))
	cmds := sim.Commands()
	require.Len(t, cmds, 6)
	for _, cmd := range cmds {
		require.Equal(t, dshot.CmdSpinDirectionNormal, cmd)
	}
}

func TestCommandQuiescentDelay(t *testing.T) {
	ch, _, clock := armed(t, dshot.ModeStandard)

	require.NoError(t, ch.IssueCommand(context.Background(), dshot.CmdBeep1, false))
	require.Equal(t, ErrQuiescent, ch.SendCommand(dshot.CmdBeep2, false))
	// non-zero throttle is blocked too, zero keep-alive is not
	require.Equal(t, ErrQuiescent, ch.SetThrottle(500, false))
	require.NoError(t, ch.SetThrottle(dshot.ThrottleStop, false))

	clock.Advance(dshot.CmdBeep1.Spec().Delay)
	require.NoError(t, ch.SendCommand(dshot.CmdBeep2, false))
}

func TestSendCommandEDTGate(t *testing.T) {
	ch, _, _ := armed(t, dshot.ModeBidirectional)
	require.Equal(t, dshot.ErrNoEDTSupport, ch.SendCommand(dshot.CmdEDTEnable, false))

	ch.EDTSupported = true
	require.NoError(t, ch.SendCommand(dshot.CmdEDTEnable, false))
}

func TestPollTelemetryStandardMode(t *testing.T) {
	ch, _, _ := armed(t, dshot.ModeStandard)
	tm, err := ch.PollTelemetry()
	require.NoError(t, err)
	require.Nil(t, tm)
}

func TestPollTelemetry(t *testing.T) {
	ch, _, _ := armed(t, dshot.ModeBidirectional)
	require.NoError(t, ch.SetThrottle(500, true))

	tm, err := ch.PollTelemetry()
	require.NoError(t, err)
	require.NotNil(t, tm)
	require.InEpsilon(t, 500*20, tm.ERPM(), 0.01)
}

func TestEStop(t *testing.T) {
	ch, sim, _ := armed(t, dshot.ModeStandard)
	require.NoError(t, ch.SetThrottle(500, false))

	ch.EStop()
	require.Equal(t, ArmDisarmed, ch.State())
	require.Equal(t, uint16(0), sim.Throttle())
}

func TestReinitClearsFault(t *testing.T) {
	ch, _, _ := armed(t, dshot.ModeStandard)
	ch.fault()
	require.Equal(t, ErrFaulted, ch.SetThrottle(500, false))
	// estop never clears a fault
	ch.EStop()
	require.Equal(t, ArmError, ch.State())

	ch.Reinit()
	require.Equal(t, ArmDisarmed, ch.State())
}
