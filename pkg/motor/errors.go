package motor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotArmed indicates a throttle operation on a channel which is
	// not armed.
	ErrNotArmed = errors.New("channel not armed")
	// ErrArmTimeout indicates arming was interrupted before the
	// confirmation window elapsed. Retry from disarmed.
	ErrArmTimeout = errors.New("arming interrupted")
	// ErrMotorSpinning indicates a special command was attempted while
	// the last transmitted throttle was not zero. Caller error.
	ErrMotorSpinning = errors.New("motor not stopped")
	// ErrQuiescent indicates the quiescent delay of a previous command
	// has not elapsed yet.
	ErrQuiescent = errors.New("command quiescent delay pending")
	// ErrFaulted indicates the channel is in the terminal error state
	// and needs explicit re-initialization.
	ErrFaulted = errors.New("channel in error state")
	// ErrBadChannel indicates an out-of-range channel id.
	ErrBadChannel = errors.New("no such channel")
)

// FaultError reports a channel forced into the error state after too
// many consecutive telemetry CRC failures.
type FaultError struct {
	Channel  int
	Failures int
}

// Error implements error.
func (e *FaultError) Error() string {
	return fmt.Sprintf("channel %d faulted after %d consecutive crc failures", e.Channel, e.Failures)
}
