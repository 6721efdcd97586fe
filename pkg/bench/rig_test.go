package bench

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dshot.go/pkg/dshot"
)

func TestNewRig(t *testing.T) {
	conf := NewConfig()
	r, err := conf.NewRig()
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.Channels, conf.Channels)
	require.Len(t, r.Sims, conf.Channels)
	require.Equal(t, dshot.ModeBidirectional, r.Sims[0].Config().Mode)
	require.Equal(t, conf.Channels, r.Group.Channels())
}

func TestNewRigRejectsBadConfig(t *testing.T) {
	conf := NewConfig()
	conf.Bitrate = 400
	_, err := conf.NewRig()
	require.Error(t, err)

	conf = NewConfig()
	conf.Bitrate = 150
	conf.Bidirectional = true
	_, err = conf.NewRig()
	require.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	cmd, ok := ParseCommand("beep1")
	require.True(t, ok)
	require.Equal(t, dshot.CmdBeep1, cmd)

	cmd, ok = ParseCommand("DIR-REVERSED")
	require.True(t, ok)
	require.Equal(t, dshot.CmdSpinDirectionReversed, cmd)

	cmd, ok = ParseCommand("13")
	require.True(t, ok)
	require.Equal(t, dshot.CmdEDTEnable, cmd)

	_, ok = ParseCommand("0")
	require.False(t, ok)
	_, ok = ParseCommand("48")
	require.False(t, ok)
	_, ok = ParseCommand("junk")
	require.False(t, ok)
}
