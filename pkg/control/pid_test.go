package control

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPIDProportional(t *testing.T) {
	c := NewPID(2, 0, 0, 100)
	out := c.Compute(5, 0.01)
	require.InDelta(t, 10, out, 1e-9)
	require.InDelta(t, 10, c.LastP, 1e-9)
	require.Zero(t, c.LastI)
	require.Zero(t, c.LastD)
}

func TestPIDIntegralAccumulates(t *testing.T) {
	c := NewPID(0, 1, 0, 100)
	c.Compute(10, 0.5)
	out := c.Compute(10, 0.5)
	require.InDelta(t, 10, out, 1e-9) // integral = 10*0.5*2
}

func TestPIDAntiWindup(t *testing.T) {
	c := NewPID(0, 1, 0, 2)
	for i := 0; i < 100; i++ {
		c.Compute(1000, 0.1)
	}
	require.InDelta(t, 2, c.LastI, 1e-9)

	for i := 0; i < 100; i++ {
		c.Compute(-1000, 0.1)
	}
	require.InDelta(t, -2, c.LastI, 1e-9)
}

func TestPIDDerivative(t *testing.T) {
	c := NewPID(0, 0, 1, 100)
	c.Compute(0, 0.1)
	out := c.Compute(1, 0.1)
	require.InDelta(t, 10, out, 1e-9)

	// zero timestep never divides
	out = c.Compute(2, 0)
	require.Zero(t, out)
}

func TestPIDReset(t *testing.T) {
	c := NewPID(1, 1, 1, 100)
	c.Compute(50, 0.1)
	c.Reset()
	out := c.Compute(0, 0.1)
	require.Zero(t, out)
	require.Zero(t, c.LastI)
}

func TestLeverMixer(t *testing.T) {
	m := &LeverMixer{Base: 300, Min: 70, Max: 600}

	m1, m2 := m.Compute(0)
	require.Equal(t, uint16(300), m1)
	require.Equal(t, uint16(300), m2)

	m1, m2 = m.Compute(50)
	require.Equal(t, uint16(350), m1)
	require.Equal(t, uint16(250), m2)

	// output beyond the band clamps both sides
	m1, m2 = m.Compute(1000)
	require.Equal(t, uint16(600), m1)
	require.Equal(t, uint16(70), m2)

	m1, m2 = m.Compute(-1000)
	require.Equal(t, uint16(70), m1)
	require.Equal(t, uint16(600), m2)
}
