package control

// LeverMixer maps one controller output onto two opposing motors
// around a base throttle, clamping both to the configured band.
type LeverMixer struct {
	Base uint16
	Min  uint16
	Max  uint16
}

// Compute returns the two throttle values for the controller output.
func (m *LeverMixer) Compute(output float64) (m1, m2 uint16) {
	return m.clamp(int(m.Base) + int(output)), m.clamp(int(m.Base) - int(output))
}

func (m *LeverMixer) clamp(v int) uint16 {
	if v < int(m.Min) {
		return m.Min
	}
	if v > int(m.Max) {
		return m.Max
	}
	return uint16(v)
}
