package driver

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dshot.go/pkg/dshot"
	fx "github.com/robotalks/dshot.go/pkg/framework"
)

// waveform generator claim registry, mirrors the one-owner hardware
// constraint
var (
	gensLock sync.Mutex
	gens     = map[int]bool{}
)

var errClosed = errors.New("driver closed")

// Sim emulates an ESC wired to one waveform generator. Transmitted
// frames go through the real waveform expansion and sampling path;
// telemetry replies come from a simple motor model where eRPM follows
// throttle.
type Sim struct {
	// Jitter skews simulated level widths by up to this fraction of
	// nominal, exercising the receiver tolerance. Zero by default.
	Jitter float64

	gen   int
	cfg   Config
	clock fx.Clock

	lock       sync.Mutex
	closed     bool
	throttle   uint16
	pending    bool
	edtEnabled bool
	corrupt    int
	replies    int
	frames     []dshot.Frame
	commands   []dshot.Command
	rnd        *rand.Rand
}

// NewSim claims a waveform generator and creates the simulated ESC.
// ErrBusy if the generator is already owned by another driver.
func NewSim(gen int, cfg Config, clock fx.Clock) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = fx.SystemClock()
	}
	gensLock.Lock()
	defer gensLock.Unlock()
	if gens[gen] {
		return nil, ErrBusy
	}
	gens[gen] = true
	return &Sim{
		gen:   gen,
		cfg:   cfg,
		clock: clock,
		rnd:   rand.New(rand.NewSource(int64(gen) + 1)),
	}, nil
}

// Config implements Driver.
func (s *Sim) Config() Config {
	return s.cfg
}

// Transmit implements Driver. The frame is rendered to pulses, skewed
// by the configured jitter, and sampled back the way a real ESC slices
// the line.
func (s *Sim) Transmit(frame dshot.Frame) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return errClosed
	}
	defer s.clock.Sleep(s.cfg.Bitrate.FrameDuration())

	pulses := FrameWaveform(uint16(frame), s.cfg.Bitrate)
	for i := range pulses {
		pulses[i].High = s.skew(pulses[i].High)
	}
	raw, err := SampleWaveform(pulses, s.cfg.Bitrate)
	if err != nil {
		glog.V(2).Infof("sim esc %d: dropped frame: %v", s.gen, err)
		return nil
	}
	payload, _, err := dshot.Frame(raw).Decode(s.cfg.Mode)
	if err != nil {
		glog.V(2).Infof("sim esc %d: dropped frame: %v", s.gen, err)
		return nil
	}

	s.frames = append(s.frames, dshot.Frame(raw))
	switch {
	case payload == uint16(dshot.CmdMotorStop):
		s.throttle = 0
	case payload <= dshot.CmdMax:
		cmd := dshot.Command(payload)
		s.commands = append(s.commands, cmd)
		switch cmd {
		case dshot.CmdEDTEnable:
			s.edtEnabled = true
		case dshot.CmdEDTDisable:
			s.edtEnabled = false
		}
	default:
		s.throttle = payload
	}
	s.pending = s.cfg.Mode == dshot.ModeBidirectional
	return nil
}

// Receive implements Driver.
func (s *Sim) Receive() (uint32, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return 0, errClosed
	}
	if !s.pending {
		s.clock.Sleep(s.cfg.Bitrate.ReceiveWindow())
		return 0, ErrTimeout
	}
	s.clock.Sleep(TurnaroundDelay)
	s.pending = false
	s.replies++

	raw := s.reply()
	if s.corrupt > 0 {
		s.corrupt--
		raw ^= 1 << 7
	}

	period := s.cfg.Bitrate.TelemetryBitPeriod()
	runs := SymbolRuns(dshot.GCREncode(raw), telemetrySymbolBits, period)
	for i := range runs {
		// edge jitter: bounded by a fraction of one bit period,
		// independent of run length
		runs[i].Width += time.Duration((s.rnd.Float64()*2 - 1) * s.Jitter * float64(period))
	}
	s.clock.Sleep(telemetrySymbolBits * period)
	return RunsToSymbol(runs, telemetrySymbolBits, period)
}

// reply builds the 16-bit telemetry frame for the current model state.
// Every fourth reply carries an EDT sample once extended telemetry is
// enabled, rotating temperature, voltage and current.
func (s *Sim) reply() uint16 {
	if s.edtEnabled && s.replies%4 == 0 {
		switch (s.replies / 4) % 3 {
		case 0:
			return dshot.EncodeExtendedTelemetry(dshot.ExtTemperature, 40)
		case 1:
			return dshot.EncodeExtendedTelemetry(dshot.ExtVoltage, 63)
		default:
			return dshot.EncodeExtendedTelemetry(dshot.ExtCurrent, uint8(s.throttle/100))
		}
	}
	if s.throttle < dshot.ThrottleMin {
		return dshot.EncodeTelemetry(1 << 24) // clamped to the idle pattern
	}
	erpm := uint32(s.throttle) * 20
	return dshot.EncodeTelemetry(60 * 1000 * 1000 / erpm)
}

// Close implements Driver and releases the generator claim.
func (s *Sim) Close() error {
	s.lock.Lock()
	s.closed = true
	s.lock.Unlock()
	gensLock.Lock()
	delete(gens, s.gen)
	gensLock.Unlock()
	return nil
}

// CorruptReplies flips a payload bit in the next n telemetry replies,
// forcing CRC mismatches downstream.
func (s *Sim) CorruptReplies(n int) {
	s.lock.Lock()
	s.corrupt = n
	s.lock.Unlock()
}

// Throttle returns the last accepted throttle value.
func (s *Sim) Throttle() uint16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.throttle
}

// Frames returns the frames the ESC accepted so far.
func (s *Sim) Frames() []dshot.Frame {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]dshot.Frame(nil), s.frames...)
}

// Commands returns the special commands received so far.
func (s *Sim) Commands() []dshot.Command {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]dshot.Command(nil), s.commands...)
}

// EDTEnabled reports whether extended telemetry has been switched on.
func (s *Sim) EDTEnabled() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.edtEnabled
}

func (s *Sim) skew(d time.Duration) time.Duration {
	if s.Jitter == 0 {
		return d
	}
	f := 1 + (s.rnd.Float64()*2-1)*s.Jitter
	return time.Duration(float64(d) * f)
}
