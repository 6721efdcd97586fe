package driver

import "time"

// Bitrate is the DShot signalling rate in kbit/s.
type Bitrate int

// Supported bitrate tiers.
const (
	DShot150  Bitrate = 150
	DShot300  Bitrate = 300
	DShot600  Bitrate = 600
	DShot1200 Bitrate = 1200
)

type bitTiming struct {
	period time.Duration // total bit period
	high1  time.Duration // high time encoding a 1
	high0  time.Duration // high time encoding a 0
}

// Normative per-tier bit timing.
var timings = map[Bitrate]bitTiming{
	DShot150:  {6667 * time.Nanosecond, 5000 * time.Nanosecond, 2500 * time.Nanosecond},
	DShot300:  {3333 * time.Nanosecond, 2500 * time.Nanosecond, 1250 * time.Nanosecond},
	DShot600:  {1667 * time.Nanosecond, 1250 * time.Nanosecond, 625 * time.Nanosecond},
	DShot1200: {833 * time.Nanosecond, 625 * time.Nanosecond, 313 * time.Nanosecond},
}

const (
	// TurnaroundDelay is how long the line is left alone after a
	// transmit before sampling, letting the ESC's open-drain output
	// settle in bidirectional mode.
	TurnaroundDelay = 30 * time.Microsecond

	// InterframeGap is the trailing low period the hardware requires
	// after the 16 frame bits.
	InterframeGap = 20 * time.Microsecond

	// telemetry is clocked at 5/4 of the command bitrate
	telemetryRateNum = 5
	telemetryRateDen = 4

	// telemetrySymbolBits is the GCR symbol length on the wire.
	telemetrySymbolBits = 20
)

// IsValid reports whether the bitrate is a supported tier.
func (b Bitrate) IsValid() bool {
	_, ok := timings[b]
	return ok
}

// SupportsBidirectional reports whether the tier is fast enough for
// bidirectional mode.
func (b Bitrate) SupportsBidirectional() bool {
	return b >= DShot300
}

// BitPeriod returns the duration of one command bit.
func (b Bitrate) BitPeriod() time.Duration {
	return timings[b].period
}

// HighTime returns the high duration encoding the given bit value.
func (b Bitrate) HighTime(bit uint) time.Duration {
	if bit != 0 {
		return timings[b].high1
	}
	return timings[b].high0
}

// TelemetryBitPeriod returns the duration of one telemetry bit.
func (b Bitrate) TelemetryBitPeriod() time.Duration {
	return b.BitPeriod() * telemetryRateDen / telemetryRateNum
}

// FrameDuration is the fixed wall time one frame transmission takes,
// including the trailing gap.
func (b Bitrate) FrameDuration() time.Duration {
	return 16*b.BitPeriod() + InterframeGap
}

// ReceiveWindow is the fixed window Receive waits for a telemetry
// symbol: line turnaround plus the symbol itself plus slack for edge
// jitter. Not configurable per call.
func (b Bitrate) ReceiveWindow() time.Duration {
	p := b.TelemetryBitPeriod()
	return TurnaroundDelay + telemetrySymbolBits*p + 2*p
}
