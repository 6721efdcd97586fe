package dshot

// Mode selects the signalling variant of a channel.
type Mode int

const (
	// ModeStandard is one-way signalling, ESC never drives the line.
	ModeStandard Mode = iota
	// ModeBidirectional inverts the line and the outbound CRC; the ESC
	// answers each frame with a telemetry frame on the same wire.
	ModeBidirectional
)

// String returns a human readable mode name.
func (m Mode) String() string {
	if m == ModeBidirectional {
		return "bidirectional"
	}
	return "standard"
}

// Throttle payload boundaries. Values 1..47 are special commands and
// are not valid throttle.
const (
	ThrottleStop uint16 = 0
	ThrottleMin  uint16 = 48
	ThrottleMax  uint16 = 2047
)

// Frame is an encoded 16-bit command frame: 11-bit payload MSB-first,
// telemetry-request bit, 4-bit CRC.
type Frame uint16

// crc4 computes the standard CRC over the 12 non-CRC bits.
func crc4(v uint16) uint16 {
	return (v ^ (v >> 4) ^ (v >> 8)) & 0xf
}

func encode(payload uint16, telemetry bool, mode Mode) Frame {
	v := payload << 1
	if telemetry {
		v |= 1
	}
	crc := crc4(v)
	if mode == ModeBidirectional {
		crc = ^crc & 0xf
	}
	return Frame(v<<4 | crc)
}

// EncodeThrottle encodes a throttle value (0 or 48..2047). Values 1..47
// are rejected: they are ambiguous with special commands and must go
// through EncodeCommand.
func EncodeThrottle(value uint16, telemetry bool, mode Mode) (Frame, error) {
	if value != ThrottleStop && (value < ThrottleMin || value > ThrottleMax) {
		return 0, &PayloadError{Value: value}
	}
	return encode(value, telemetry, mode), nil
}

// EncodeCommand encodes a special command (1..47). edtSupported reflects
// whether the ESC has advertised extended telemetry; commands which
// require it are rejected otherwise.
func EncodeCommand(cmd Command, telemetry bool, mode Mode, edtSupported bool) (Frame, error) {
	if cmd < 1 || uint16(cmd) > CmdMax {
		return 0, &PayloadError{Value: uint16(cmd)}
	}
	if cmd.Spec().RequiresEDT && !edtSupported {
		return 0, ErrNoEDTSupport
	}
	return encode(uint16(cmd), telemetry, mode), nil
}

// Payload returns the 11-bit throttle/command value.
func (f Frame) Payload() uint16 {
	return uint16(f) >> 5
}

// TelemetryRequest returns the telemetry-request bit.
func (f Frame) TelemetryRequest() bool {
	return f&0x10 != 0
}

// CRC returns the CRC nibble as transmitted.
func (f Frame) CRC() uint16 {
	return uint16(f) & 0xf
}

// Decode validates the CRC under the given mode and returns the payload
// and telemetry-request flag. A mismatched CRC yields CrcError and the
// frame must be discarded.
func (f Frame) Decode(mode Mode) (payload uint16, telemetry bool, err error) {
	v := uint16(f) >> 4
	crc := crc4(v)
	if mode == ModeBidirectional {
		crc = ^crc & 0xf
	}
	if crc != f.CRC() {
		return 0, false, &CrcError{Raw: uint16(f)}
	}
	return f.Payload(), f.TelemetryRequest(), nil
}
