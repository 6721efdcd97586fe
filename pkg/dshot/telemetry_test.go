package dshot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeTelemetryPeriod(t *testing.T) {
	testCases := []struct {
		name   string
		period uint32
	}{
		{"min mantissa", 0x100},
		{"max mantissa", 0x1ff},
		{"shifted", 0x100 << 3},
		{"odd value", 0x1a5 << 2},
		{"no spin", noSpinPeriod},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tm, err := DecodeTelemetry(EncodeTelemetry(tc.period))
			require.NoError(t, err)
			require.False(t, tm.Extended)
			require.Equal(t, tc.period, tm.Period)
		})
	}
}

func TestTelemetryERPM(t *testing.T) {
	tm, err := DecodeTelemetry(EncodeTelemetry(6000))
	require.NoError(t, err)
	require.Equal(t, uint32(60*1000*1000/6000), tm.ERPM())

	idle, err := DecodeTelemetry(EncodeTelemetry(noSpinPeriod))
	require.NoError(t, err)
	require.Equal(t, uint32(0), idle.ERPM())
}

func TestDecodeTelemetryExtended(t *testing.T) {
	testCases := []struct {
		name  string
		typ   ExtendedType
		value uint8
	}{
		{"temperature", ExtTemperature, 42},
		{"voltage", ExtVoltage, 63}, // 15.75 V
		{"current", ExtCurrent, 9},
		{"debug", ExtDebug1, 0xff},
		{"status", ExtStatus, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tm, err := DecodeTelemetry(EncodeExtendedTelemetry(tc.typ, tc.value))
			require.NoError(t, err)
			require.True(t, tm.Extended)
			require.Equal(t, tc.typ, tm.ExtType)
			require.Equal(t, tc.value, tm.ExtValue)
			require.Equal(t, uint32(0), tm.ERPM())
		})
	}
}

func TestDecodeTelemetryCrcMismatch(t *testing.T) {
	raw := EncodeTelemetry(6000)
	for bit := uint(0); bit < 16; bit++ {
		_, err := DecodeTelemetry(raw ^ 1<<bit)
		require.IsType(t, &CrcError{}, err, "bit %d", bit)
	}
}
