package monitor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchTopic(t *testing.T) {
	cases := []struct {
		topic, pattern string
		match          bool
	}{
		{"motor/rig1/0/health", "motor/rig1/0/health", true},
		{"motor/rig1/0/health", "motor/+/0/health", true},
		{"motor/rig1/0/health", "motor/#", true},
		{"motor/rig1/0/health", "#", true},
		{"motor/rig1/0/health", "motor/+/+/alarm", false},
		{"motor/rig1", "motor/rig1/0/health", false},
		{"motor/rig1/0/health", "sensor/#", false},
	}
	for _, c := range cases {
		require.Equal(t, c.match, MatchTopic(c.topic, c.pattern),
			"topic %q pattern %q", c.topic, c.pattern)
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://user:pw@broker:1883/bench/?client-id=rig1")
	require.NoError(t, err)
	require.Equal(t, "bench/", prefix)
	require.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
	require.Equal(t, "user", opts.Username)
	require.Equal(t, "pw", opts.Password)
	require.Equal(t, "rig1", opts.ClientID)

	_, _, err = ClientOptionsFromURL("://bad")
	require.Error(t, err)
}

func TestAlarmMessageEncoding(t *testing.T) {
	msg := alarmMsg{Channel: 2, Kind: "fault", Error: "boom"}
	payload, err := json.Marshal(&msg)
	require.NoError(t, err)
	require.JSONEq(t, `{"channel":2,"kind":"fault","error":"boom"}`, string(payload))
}
