package dshot

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEDTSupport indicates a command requiring extended telemetry
	// was encoded for an ESC which has not advertised EDT support.
	ErrNoEDTSupport = errors.New("extended telemetry not supported")
)

// PayloadError reports a throttle or command value outside the encodable range.
type PayloadError struct {
	Value uint16
}

// Error implements error.
func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid payload value %d", e.Value)
}

// CrcError reports a telemetry frame whose CRC nibble does not match
// the payload.
type CrcError struct {
	Raw uint16
}

// Error implements error.
func (e *CrcError) Error() string {
	return fmt.Sprintf("crc mismatch in frame %04x", e.Raw)
}

// GcrError reports a 20-bit symbol containing a quintet outside the
// GCR codeword table.
type GcrError struct {
	Raw uint32
}

// Error implements error.
func (e *GcrError) Error() string {
	return fmt.Sprintf("invalid gcr symbol %05x", e.Raw)
}
