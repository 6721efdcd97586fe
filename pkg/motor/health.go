package motor

import "time"

// ArmState is the per-channel protocol state.
type ArmState int

const (
	// ArmDisarmed: only zero-throttle frames are transmitted.
	ArmDisarmed ArmState = iota
	// ArmArming: zero throttle is being held for the confirmation window.
	ArmArming
	// ArmArmed: throttle values may be transmitted.
	ArmArmed
	// ArmError is terminal until explicit re-initialization.
	ArmError
)

var armStateNames = [...]string{"disarmed", "arming", "armed", "error"}

// String returns a human readable state name.
func (s ArmState) String() string {
	if s < 0 || int(s) >= len(armStateNames) {
		return "unknown"
	}
	return armStateNames[s]
}

// MarshalText makes states readable in published health records.
func (s ArmState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *ArmState) UnmarshalText(text []byte) error {
	for i, name := range armStateNames {
		if name == string(text) {
			*s = ArmState(i)
			return nil
		}
	}
	*s = ArmState(-1)
	return nil
}

// Health is a point-in-time copy of one channel's state, safe to hand
// across goroutines. The cadence loop is the only writer; readers get
// value copies and never a shared reference.
type Health struct {
	Channel  int      `json:"channel"`
	State    ArmState `json:"state"`
	Throttle uint16   `json:"throttle"`

	ERPM          uint32    `json:"erpm"`
	Period        uint32    `json:"period_us"`
	LastTelemetry time.Time `json:"last_telemetry,omitempty"`

	// CRCFailures counts consecutive telemetry CRC mismatches; it
	// resets on the first good frame.
	CRCFailures int `json:"crc_failures"`

	FramesSent      uint64 `json:"frames_sent"`
	FramesDiscarded uint64 `json:"frames_discarded"`
	Overruns        uint64 `json:"overruns"`

	// last EDT samples with validity flags
	HasTemperature bool    `json:"has_temperature"`
	TemperatureC   uint8   `json:"temperature_c"`
	HasVoltage     bool    `json:"has_voltage"`
	Voltage        float64 `json:"voltage_v"`
	HasCurrent     bool    `json:"has_current"`
	Current        float64 `json:"current_a"`
}
