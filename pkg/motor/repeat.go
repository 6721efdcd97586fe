package motor

import (
	"time"

	"github.com/robotalks/dshot.go/pkg/dshot"
)

// commandRepeat tracks a special command through its transmission
// contract: some commands must be sent on consecutive cadence ticks,
// and a quiescent delay may follow the last send. The zero value is
// idle.
type commandRepeat struct {
	cmd       dshot.Command
	telemetry bool
	remaining int
}

// begin loads a command; next()/sent() then drive the per-tick sends.
func (r *commandRepeat) begin(cmd dshot.Command, telemetry bool) {
	r.cmd = cmd
	r.telemetry = telemetry
	r.remaining = cmd.Spec().Repeat
}

// next returns the command due on this tick.
func (r *commandRepeat) next() (dshot.Command, bool) {
	if r.remaining == 0 {
		return 0, false
	}
	return r.cmd, true
}

// sent records one completed transmission and returns the quiescent
// deadline once the contract is fulfilled.
func (r *commandRepeat) sent(now time.Time) (quiescentUntil time.Time, done bool) {
	r.remaining--
	if r.remaining > 0 {
		return time.Time{}, false
	}
	return now.Add(r.cmd.Spec().Delay), true
}

// abort drops an in-flight contract; the command must be reissued from
// the start to take effect.
func (r *commandRepeat) abort() {
	r.remaining = 0
}
