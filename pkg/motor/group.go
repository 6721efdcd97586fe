package motor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dshot.go/pkg/dshot"
	"github.com/robotalks/dshot.go/pkg/dshot/driver"
	fx "github.com/robotalks/dshot.go/pkg/framework"
)

// Cadence defaults.
const (
	DefaultInterval       = time.Millisecond
	DefaultTelemetryEvery = 8
	DefaultFaultThreshold = 8
)

// AlarmKind classifies health alarms.
type AlarmKind int

const (
	// AlarmFault: a channel crossed the CRC failure threshold and is
	// now in the terminal error state.
	AlarmFault AlarmKind = iota
	// AlarmEStop: an emergency stop was executed.
	AlarmEStop
)

// Alarm is the signal surfaced to the control context when a channel
// faults or an emergency stop executes.
type Alarm struct {
	Channel int
	Kind    AlarmKind
	Err     error
}

// cmdRequest is the single-slot command handoff payload.
type cmdRequest struct {
	cmd       dshot.Command
	telemetry bool
}

// channelState is cadence-owned per-channel bookkeeping.
type channelState struct {
	repeat     commandRepeat
	discarded  uint64
	overruns   uint64
	crcFails   int
	telemetryN int
	health     Health // scratch copy, published through the atomic slot
}

// Group owns all motor channels and runs the fixed-cadence command
// loop on its own goroutine. The control context talks to it only
// through the thread-safe setters and Health copies; the cadence
// goroutine alone touches channels and drivers.
//
// Shared state is two single-slot handoffs per channel: the pending
// throttle (written by the control context, read here) and the health
// snapshot (written here, read by the control context). Last writer
// wins, reads see the latest complete value, nobody locks.
type Group struct {
	Interval time.Duration
	// TelemetryEvery requests telemetry every Nth tick per channel in
	// bidirectional mode.
	TelemetryEvery int
	// FaultThreshold is the consecutive-CRC-failure count that forces
	// a channel into the error state.
	FaultThreshold int

	channels []*Channel
	clock    fx.Clock

	pending   []uint32 // atomic pending throttle per channel
	armReq    []uint32 // atomic arm request flags
	reinitReq []uint32 // atomic reinit request flags
	cmdCh     []chan cmdRequest
	health    []atomic.Value // Health
	state     []channelState // cadence-owned
	estop     uint32
	ticks     uint64
	alarmCh   chan Alarm
}

// NewGroup creates a group over the channels. All channels must share
// one clock with the group.
func NewGroup(clock fx.Clock, channels ...*Channel) *Group {
	if clock == nil {
		clock = fx.SystemClock()
	}
	g := &Group{
		Interval:       DefaultInterval,
		TelemetryEvery: DefaultTelemetryEvery,
		FaultThreshold: DefaultFaultThreshold,
		channels:       channels,
		clock:          clock,
		pending:        make([]uint32, len(channels)),
		armReq:         make([]uint32, len(channels)),
		reinitReq:      make([]uint32, len(channels)),
		cmdCh:          make([]chan cmdRequest, len(channels)),
		health:         make([]atomic.Value, len(channels)),
		state:          make([]channelState, len(channels)),
		alarmCh:        make(chan Alarm, 4*len(channels)+4),
	}
	for i, c := range channels {
		g.cmdCh[i] = make(chan cmdRequest, 1)
		g.publishHealth(i, c, time.Time{})
	}
	return g
}

// Channels returns the number of channels.
func (g *Group) Channels() int {
	return len(g.channels)
}

// Name implements fx.Named.
func (g *Group) Name() string {
	return "motor-group"
}

// SetThrottle records the desired throttle for a channel. Never
// blocks; values set faster than the cadence are coalesced and the
// loop transmits the most recent one. Valid values are 0 and 48..2047.
func (g *Group) SetThrottle(channel int, value uint16) error {
	if channel < 0 || channel >= len(g.channels) {
		return ErrBadChannel
	}
	if value != dshot.ThrottleStop && (value < dshot.ThrottleMin || value > dshot.ThrottleMax) {
		return &dshot.PayloadError{Value: value}
	}
	atomic.StoreUint32(&g.pending[channel], uint32(value))
	return nil
}

// SendCommand queues a special command for a channel. The cadence loop
// executes the full transmission contract across consecutive ticks.
// The single request slot is overwritten by a newer command.
func (g *Group) SendCommand(channel int, cmd dshot.Command, telemetry bool) error {
	if channel < 0 || channel >= len(g.channels) {
		return ErrBadChannel
	}
	if !cmd.IsValid() {
		return &dshot.PayloadError{Value: uint16(cmd)}
	}
	req := cmdRequest{cmd: cmd, telemetry: telemetry}
	for {
		select {
		case g.cmdCh[channel] <- req:
			return nil
		default:
		}
		select { // drop the stale request
		case <-g.cmdCh[channel]:
		default:
		}
	}
}

// ArmAll requests arming of every channel and waits until all are
// armed. Canceling the context interrupts with ErrArmTimeout.
func (g *Group) ArmAll(ctx context.Context) error {
	for i := range g.armReq {
		atomic.StoreUint32(&g.armReq[i], 1)
	}
	for {
		armed := true
		for i := range g.channels {
			if g.HealthSnapshot(i).State != ArmArmed {
				armed = false
			}
		}
		if armed {
			return nil
		}
		select {
		case <-ctx.Done():
			return ErrArmTimeout
		default:
		}
		g.clock.Sleep(10 * g.Interval)
	}
}

// EStopAll signals every channel to stop on the next tick. Returns
// immediately; all channels reach disarmed within one cadence period.
func (g *Group) EStopAll() {
	atomic.StoreUint32(&g.estop, 1)
}

// Reinit requests the explicit re-initialization of a faulted channel.
// Never blocks; the cadence loop applies it on the next tick so the
// per-channel state stays owned by one goroutine.
func (g *Group) Reinit(channel int) error {
	if channel < 0 || channel >= len(g.channels) {
		return ErrBadChannel
	}
	atomic.StoreUint32(&g.reinitReq[channel], 1)
	return nil
}

// HealthSnapshot returns an immutable copy of the channel's health.
func (g *Group) HealthSnapshot(channel int) Health {
	if channel < 0 || channel >= len(g.channels) {
		return Health{Channel: channel}
	}
	h, _ := g.health[channel].Load().(Health)
	return h
}

// Alarms returns the channel carrying fault and estop notifications.
func (g *Group) Alarms() <-chan Alarm {
	return g.alarmCh
}

// Ticks returns the number of completed cadence ticks.
func (g *Group) Ticks() uint64 {
	return atomic.LoadUint64(&g.ticks)
}

func (g *Group) alarm(a Alarm) {
	select {
	case g.alarmCh <- a:
	default:
		glog.Warningf("alarm dropped: channel %d kind %d", a.Channel, a.Kind)
	}
}

// Run implements fx.Runnable: the cadence loop. Losing a frame never
// stops the loop; only context cancellation does, and that path stops
// every motor on the way out.
func (g *Group) Run(ctx context.Context) error {
	glog.V(1).Infof("cadence loop started: %d channels, interval %s", len(g.channels), g.Interval)
	next := g.clock.Now()
	for {
		select {
		case <-ctx.Done():
			g.shutdown()
			return ctx.Err()
		default:
		}
		now := g.clock.Now()
		// watchdog: when the loop is starved, commands still go out
		// but telemetry polling is shed for the tick
		overrun := now.Sub(next) > 2*g.Interval
		if overrun {
			glog.Warningf("cadence overrun: %s behind", now.Sub(next))
			next = now
		}
		g.runTick(now, overrun)
		next = next.Add(g.Interval)
		if d := next.Sub(g.clock.Now()); d > 0 {
			g.clock.Sleep(d)
		}
	}
}

func (g *Group) shutdown() {
	for i, c := range g.channels {
		c.EStop()
		g.publishHealth(i, c, g.clock.Now())
	}
	glog.V(1).Info("cadence loop stopped, all channels disarmed")
}

// runTick executes one cadence iteration.
func (g *Group) runTick(now time.Time, overrun bool) {
	estop := atomic.SwapUint32(&g.estop, 0) != 0
	for i, c := range g.channels {
		if estop {
			g.execEStop(i, c)
		}
		if atomic.SwapUint32(&g.reinitReq[i], 0) != 0 {
			g.execReinit(i, c)
		}
		if overrun {
			g.state[i].overruns++
		}
		switch c.State() {
		case ArmDisarmed:
			if atomic.LoadUint32(&g.armReq[i]) != 0 {
				c.beginArming(now)
			} else if err := c.transmitZero(false); err != nil {
				glog.V(2).Infof("channel %d: keep-alive: %v", i, err)
			}
		case ArmArming:
			if armed, err := c.armingTick(now); err != nil {
				glog.Warningf("channel %d: arming: %v", i, err)
				c.EStop()
			} else if armed {
				atomic.StoreUint32(&g.armReq[i], 0)
			}
		case ArmArmed:
			g.armedTick(i, c, now, overrun)
		case ArmError:
			// terminal, keep the line safe
			if err := c.transmitZero(false); err != nil {
				glog.V(2).Infof("channel %d: keep-alive: %v", i, err)
			}
		}
		g.publishHealth(i, c, now)
	}
	atomic.AddUint64(&g.ticks, 1)
}

func (g *Group) execEStop(i int, c *Channel) {
	c.EStop()
	g.state[i].repeat.abort()
	g.drainCommand(i)
	atomic.StoreUint32(&g.pending[i], 0)
	atomic.StoreUint32(&g.armReq[i], 0)
	g.alarm(Alarm{Channel: i, Kind: AlarmEStop})
}

func (g *Group) execReinit(i int, c *Channel) {
	c.Reinit()
	g.state[i].repeat.abort()
	g.state[i].crcFails = 0
	g.drainCommand(i)
	atomic.StoreUint32(&g.pending[i], 0)
}

func (g *Group) drainCommand(i int) {
	select {
	case <-g.cmdCh[i]:
	default:
	}
}

func (g *Group) takeCommand(i int) (cmdRequest, bool) {
	select {
	case req := <-g.cmdCh[i]:
		return req, true
	default:
		return cmdRequest{}, false
	}
}

// armedTick transmits exactly one frame for an armed channel: a
// command repeat if one is in flight, a freshly requested command, or
// the pending throttle. Telemetry is polled afterwards when requested.
func (g *Group) armedTick(i int, c *Channel, now time.Time, overrun bool) {
	st := &g.state[i]
	wantTelemetry := false

	if cmd, ok := st.repeat.next(); ok {
		if err := c.SendCommand(cmd, st.repeat.telemetry); err != nil {
			glog.Warningf("channel %d: command %d repeat: %v", i, cmd, err)
			st.repeat.abort()
		} else if until, done := st.repeat.sent(now); done {
			c.SetQuiescent(until)
		}
	} else if req, ok := g.takeCommand(i); ok {
		st.repeat.begin(req.cmd, req.telemetry)
		if err := c.SendCommand(req.cmd, req.telemetry); err != nil {
			glog.Warningf("channel %d: command %d rejected: %v", i, req.cmd, err)
			st.repeat.abort()
		} else if until, done := st.repeat.sent(now); done {
			c.SetQuiescent(until)
		}
	} else {
		throttle := uint16(atomic.LoadUint32(&g.pending[i]))
		bidir := c.mode == dshot.ModeBidirectional
		if bidir && !overrun {
			st.telemetryN++
			if st.telemetryN >= g.TelemetryEvery {
				st.telemetryN = 0
				wantTelemetry = true
			}
		}
		if err := c.SetThrottle(throttle, wantTelemetry); err != nil {
			// quiescent window after a command: hold zero instead
			if err == ErrQuiescent {
				c.transmitZero(wantTelemetry)
			} else {
				glog.Warningf("channel %d: throttle %d: %v", i, throttle, err)
				wantTelemetry = false
			}
		}
	}

	if wantTelemetry {
		g.pollTelemetry(i, c, now)
	}
}

// pollTelemetry waits out the line turnaround inside the driver and
// folds the result into health. Codec errors count toward the fault
// threshold; timeouts and framing errors only discard the tick.
func (g *Group) pollTelemetry(i int, c *Channel, now time.Time) {
	st := &g.state[i]
	tm, err := c.PollTelemetry()
	switch err.(type) {
	case nil:
	case *dshot.CrcError, *dshot.GcrError:
		st.discarded++
		st.crcFails++
		glog.V(2).Infof("channel %d: telemetry discarded: %v", i, err)
		if st.crcFails >= g.FaultThreshold {
			c.fault()
			fault := &FaultError{Channel: i, Failures: st.crcFails}
			glog.Errorf("%v", fault)
			g.alarm(Alarm{Channel: i, Kind: AlarmFault, Err: fault})
		}
		return
	default:
		if err == driver.ErrTimeout || err == driver.ErrFraming {
			st.discarded++
			glog.V(2).Infof("channel %d: telemetry lost: %v", i, err)
			return
		}
		glog.Warningf("channel %d: telemetry: %v", i, err)
		return
	}
	if tm == nil {
		return
	}
	st.crcFails = 0
	h := &st.health
	h.LastTelemetry = now
	if tm.Extended {
		switch tm.ExtType {
		case dshot.ExtTemperature:
			h.HasTemperature, h.TemperatureC = true, tm.ExtValue
		case dshot.ExtVoltage:
			h.HasVoltage, h.Voltage = true, float64(tm.ExtValue)*0.25
		case dshot.ExtCurrent:
			h.HasCurrent, h.Current = true, float64(tm.ExtValue)
		}
		return
	}
	h.Period = tm.Period
	h.ERPM = tm.ERPM()
}

// publishHealth copies the channel state into the lock-free snapshot
// slot read by the control context.
func (g *Group) publishHealth(i int, c *Channel, now time.Time) {
	st := &g.state[i]
	h := st.health
	h.Channel = i
	h.State = c.State()
	h.Throttle = c.LastThrottle()
	h.FramesSent = c.FramesSent()
	h.FramesDiscarded = st.discarded
	h.Overruns = st.overruns
	h.CRCFailures = st.crcFails
	g.health[i].Store(h)
}
