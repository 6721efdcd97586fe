package driver

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFrameWaveformRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, rate := range []Bitrate{DShot150, DShot300, DShot600, DShot1200} {
		for i := 0; i < 100; i++ {
			frame := uint16(rnd.Uint32())
			got, err := SampleWaveform(FrameWaveform(frame, rate), rate)
			require.NoError(t, err)
			require.Equal(t, frame, got)
		}
	}
}

func TestSampleWaveformJitterTolerance(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	frame := uint16(0xa5c3)
	for _, rate := range []Bitrate{DShot150, DShot600} {
		pulses := FrameWaveform(frame, rate)
		for i := range pulses {
			f := 1 + (rnd.Float64()*2-1)*0.10
			pulses[i].High = time.Duration(float64(pulses[i].High) * f)
		}
		got, err := SampleWaveform(pulses, rate)
		require.NoError(t, err)
		require.Equal(t, frame, got)
	}
}

func TestSampleWaveformFraming(t *testing.T) {
	pulses := FrameWaveform(0x1234, DShot600)

	_, err := SampleWaveform(pulses[:10], DShot600)
	require.Equal(t, ErrFraming, err)

	pulses[3].High = 0
	_, err = SampleWaveform(pulses, DShot600)
	require.Equal(t, ErrFraming, err)

	pulses = FrameWaveform(0x1234, DShot600)
	pulses[0].High = 3 * DShot600.HighTime(1)
	_, err = SampleWaveform(pulses, DShot600)
	require.Equal(t, ErrFraming, err)
}

func TestSymbolRunsRoundTrip(t *testing.T) {
	period := DShot600.TelemetryBitPeriod()
	rnd := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		sym := rnd.Uint32() & 0xfffff
		got, err := RunsToSymbol(SymbolRuns(sym, 20, period), 20, period)
		require.NoError(t, err)
		require.Equal(t, sym, got)
	}
}

func TestRunsToSymbolJitterTolerance(t *testing.T) {
	period := DShot300.TelemetryBitPeriod()
	rnd := rand.New(rand.NewSource(4))
	sym := uint32(0xcafe5)
	runs := SymbolRuns(sym, 20, period)
	for i := range runs {
		// edge jitter shifts a run boundary by a fraction of one bit,
		// it does not scale with run length
		runs[i].Width += time.Duration((rnd.Float64()*2 - 1) * 0.10 * float64(period))
	}
	got, err := RunsToSymbol(runs, 20, period)
	require.NoError(t, err)
	require.Equal(t, sym, got)
}

func TestRunsToSymbolErrors(t *testing.T) {
	period := DShot600.TelemetryBitPeriod()

	_, err := RunsToSymbol(nil, 20, period)
	require.Equal(t, ErrTimeout, err)

	// run too short to be a bit
	_, err = RunsToSymbol([]Run{{High: true, Width: period / 4}}, 20, period)
	require.Equal(t, ErrFraming, err)

	// too few bits in total
	_, err = RunsToSymbol([]Run{{High: true, Width: 5 * period}}, 20, period)
	require.Equal(t, ErrFraming, err)

	// too many bits
	_, err = RunsToSymbol([]Run{{High: true, Width: 30 * period}}, 20, period)
	require.Equal(t, ErrFraming, err)
}
