package dshot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGCRRoundTrip(t *testing.T) {
	// every mantissa/exponent pair, plus the CRC nibble it produces
	for exponent := uint32(0); exponent < 8; exponent++ {
		for mantissa := uint32(0); mantissa < 0x200; mantissa++ {
			v := uint16(exponent<<9 | mantissa)
			raw := v<<4 | crc4(v)
			got, err := GCRDecode(GCREncode(raw))
			require.NoError(t, err)
			require.Equal(t, raw, got)
		}
	}
}

func TestGCRDecodeRejectsBadQuintet(t *testing.T) {
	// quintets with runs of more than two zero bits are not codewords
	for _, raw := range []uint32{0x00000, 0xfffff, 0x84210} {
		_, err := GCRDecode(raw)
		require.IsType(t, &GcrError{}, err, "raw %05x", raw)
	}
}

func TestGCREncodeEdgeCoding(t *testing.T) {
	e := GCREncode(EncodeTelemetry(6000))
	// de-framing must reproduce the quintet stream
	g := (e ^ (e >> 1)) & 0xfffff
	for i := 3; i >= 0; i-- {
		_, ok := gcrNibbles[(g>>uint(i*5))&0x1f]
		require.True(t, ok, "quintet %d", i)
	}
}
