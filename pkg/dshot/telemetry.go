package dshot

// ExtendedType identifies the payload of an extended telemetry (EDT)
// frame. The low bit of the type nibble is always zero; eRPM frames
// keep the corresponding mantissa bit set.
type ExtendedType uint8

const (
	ExtTemperature ExtendedType = 0x02 // degrees C
	ExtVoltage     ExtendedType = 0x04 // 0.25 V steps
	ExtCurrent     ExtendedType = 0x06 // A
	ExtDebug1      ExtendedType = 0x08
	ExtDebug2      ExtendedType = 0x0a
	ExtStress      ExtendedType = 0x0c
	ExtStatus      ExtendedType = 0x0e
)

// Telemetry is a decoded 16-bit bidirectional telemetry frame. Either a
// period sample (Extended false) or an EDT sample (Extended true).
type Telemetry struct {
	// Period is mantissa<<exponent in the protocol's native time unit
	// (microseconds per electrical pole transition cycle).
	Period uint32

	Extended bool
	ExtType  ExtendedType
	ExtValue uint8
}

// noSpinPeriod is the idle pattern an ESC reports while the motor is
// not turning (maximum mantissa at maximum exponent).
const noSpinPeriod = 0x1ff << 7

// ERPM derives electrical RPM from the period sample. Zero for EDT
// frames and for the idle pattern.
func (t Telemetry) ERPM() uint32 {
	if t.Extended || t.Period == 0 || t.Period >= noSpinPeriod {
		return 0
	}
	return 60 * 1000 * 1000 / t.Period
}

// DecodeTelemetry decodes a raw 16-bit telemetry frame. The CRC nibble
// is uninverted and covers the 12 payload bits. Frames whose mantissa
// high bit is zero carry an EDT sample instead of a period.
func DecodeTelemetry(raw uint16) (Telemetry, error) {
	v := raw >> 4
	if crc4(v) != raw&0xf {
		return Telemetry{}, &CrcError{Raw: raw}
	}
	if v&0x100 == 0 {
		return Telemetry{
			Extended: true,
			ExtType:  ExtendedType(v >> 8),
			ExtValue: uint8(v),
		}, nil
	}
	exponent := v >> 9
	mantissa := uint32(v & 0x1ff)
	return Telemetry{Period: mantissa << exponent}, nil
}

// EncodeTelemetry builds the raw 16-bit frame for a period sample,
// normalizing the mantissa so its high bit stays set (the EDT escape).
// Used by the simulated ESC and tests.
func EncodeTelemetry(period uint32) uint16 {
	switch {
	case period > noSpinPeriod:
		period = noSpinPeriod
	case period < 0x100:
		// below the representable floor; keeps the mantissa high bit set
		period = 0x100
	}
	var exponent uint16
	for period > 0x1ff {
		period >>= 1
		exponent++
	}
	v := exponent<<9 | uint16(period)
	return v<<4 | crc4(v)
}

// EncodeExtendedTelemetry builds the raw 16-bit frame for an EDT sample.
func EncodeExtendedTelemetry(typ ExtendedType, value uint8) uint16 {
	v := uint16(typ&0x0e)<<8 | uint16(value)
	return v<<4 | crc4(v)
}
