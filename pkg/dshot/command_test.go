package dshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCommandSpecs(t *testing.T) {
	testCases := []struct {
		cmd    Command
		repeat int
		delay  time.Duration
		edt    bool
	}{
		{CmdBeep1, 1, 260 * time.Millisecond, false},
		{CmdBeep5, 1, 260 * time.Millisecond, false},
		{CmdESCInfo, 1, 12 * time.Millisecond, false},
		{CmdSpinDirection1, 6, 0, false},
		{Cmd3DModeOn, 6, 0, false},
		{CmdSaveSettings, 6, 35 * time.Millisecond, false},
		{CmdEDTEnable, 6, 0, true},
		{CmdSpinDirectionReversed, 6, 0, false},
		{CmdLED0On, 1, 0, false},
		{CmdTelemetryEnable, 6, 0, false},
	}
	for _, tc := range testCases {
		spec := tc.cmd.Spec()
		require.Equal(t, tc.repeat, spec.Repeat, "command %d repeat", tc.cmd)
		require.Equal(t, tc.delay, spec.Delay, "command %d delay", tc.cmd)
		require.Equal(t, tc.edt, spec.RequiresEDT, "command %d edt", tc.cmd)
	}
}

func TestCommandIsValid(t *testing.T) {
	require.False(t, CmdMotorStop.IsValid())
	require.True(t, CmdBeep1.IsValid())
	require.True(t, Command(CmdMax).IsValid())
	require.False(t, Command(CmdMax+1).IsValid())
}
