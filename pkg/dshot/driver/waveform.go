package driver

import "time"

// Pulse is one high/low cycle on the wire. The high duration encodes
// the bit value; high plus low is one bit period.
type Pulse struct {
	High time.Duration
	Low  time.Duration
}

// FrameWaveform expands the 16 frame bits MSB-first into pulses at the
// command bitrate.
func FrameWaveform(frame uint16, rate Bitrate) []Pulse {
	t := timings[rate]
	pulses := make([]Pulse, 16)
	for i := range pulses {
		high := t.high0
		if frame&(0x8000>>uint(i)) != 0 {
			high = t.high1
		}
		pulses[i] = Pulse{High: high, Low: t.period - high}
	}
	return pulses
}

// SampleWaveform classifies pulses back into frame bits by measured
// high time. Jitter up to the midpoint between the two nominal high
// times is absorbed (well beyond the required ±10%); a pulse outside
// the plausible band fails with ErrFraming.
func SampleWaveform(pulses []Pulse, rate Bitrate) (uint16, error) {
	if len(pulses) != 16 {
		return 0, ErrFraming
	}
	t := timings[rate]
	threshold := (t.high0 + t.high1) / 2
	var frame uint16
	for _, p := range pulses {
		if p.High < t.high0/2 || p.High > t.high1+t.high1/2 {
			return 0, ErrFraming
		}
		frame <<= 1
		if p.High >= threshold {
			frame |= 1
		}
	}
	return frame, nil
}

// Run is a level hold on the wire, used for the telemetry direction
// where consecutive equal bits merge into one long level.
type Run struct {
	High  bool
	Width time.Duration
}

// SymbolRuns renders the low nbits of sym MSB-first into level runs at
// the given bit period.
func SymbolRuns(sym uint32, nbits int, period time.Duration) []Run {
	var runs []Run
	for i := nbits - 1; i >= 0; i-- {
		high := sym&(1<<uint(i)) != 0
		if n := len(runs); n > 0 && runs[n-1].High == high {
			runs[n-1].Width += period
		} else {
			runs = append(runs, Run{High: high, Width: period})
		}
	}
	return runs
}

// RunsToSymbol recovers the bit sequence from level runs by dividing
// each width by the bit period with rounding. A run shorter than half
// a period, or a total bit count other than nbits, fails with
// ErrFraming. An empty capture fails with ErrTimeout.
func RunsToSymbol(runs []Run, nbits int, period time.Duration) (uint32, error) {
	if len(runs) == 0 {
		return 0, ErrTimeout
	}
	var sym uint32
	total := 0
	for _, r := range runs {
		n := int((r.Width + period/2) / period)
		if n == 0 || total+n > nbits {
			return 0, ErrFraming
		}
		var bit uint32
		if r.High {
			bit = 1
		}
		for ; n > 0; n-- {
			sym = sym<<1 | bit
			total++
		}
	}
	if total != nbits {
		return 0, ErrFraming
	}
	return sym, nil
}
