// Package driver turns DShot frame bits into a timed waveform on one
// motor wire and, in bidirectional mode, samples the GCR telemetry
// symbol the ESC sends back.
package driver

import (
	"errors"
	"fmt"

	"github.com/robotalks/dshot.go/pkg/dshot"
)

var (
	// ErrTimeout indicates no telemetry edges arrived inside the
	// receive window. Recoverable: skip this tick and retry next.
	ErrTimeout = errors.New("telemetry receive timeout")
	// ErrFraming indicates bit boundaries could not be recovered.
	ErrFraming = errors.New("bit boundaries not recoverable")
	// ErrBusy indicates the waveform generator is already claimed by
	// another driver. Fatal at startup.
	ErrBusy = errors.New("waveform generator busy")
)

// Config is the fixed per-channel driver configuration.
type Config struct {
	Bitrate Bitrate
	Mode    dshot.Mode
}

// Validate rejects unsupported combinations at configuration time.
func (c Config) Validate() error {
	if !c.Bitrate.IsValid() {
		return fmt.Errorf("unsupported bitrate %d", c.Bitrate)
	}
	if c.Mode == dshot.ModeBidirectional && !c.Bitrate.SupportsBidirectional() {
		return fmt.Errorf("bidirectional mode requires DSHOT300 or faster, got %d", c.Bitrate)
	}
	return nil
}

// Driver owns exactly one waveform generator bound to one motor wire.
type Driver interface {
	// Config returns the fixed configuration.
	Config() Config
	// Transmit sends one frame. It blocks the calling goroutine for
	// the full frame duration; a frame is never preempted mid-wire.
	Transmit(frame dshot.Frame) error
	// Receive waits the line turnaround and samples the 20-bit GCR
	// telemetry symbol. The window is fixed by protocol timing and not
	// configurable per call. ErrTimeout when no symbol arrived,
	// ErrFraming when the edges do not resolve into bits.
	Receive() (uint32, error)
	// Close releases the waveform generator.
	Close() error
}
