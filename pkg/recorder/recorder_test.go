package recorder

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memSink struct {
	lines  []string
	closed bool
}

func (s *memSink) Write(line string) error {
	s.lines = append(s.lines, line)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return nil
}

func TestRecorderDecimation(t *testing.T) {
	sink := &memSink{}
	r := New(3, sink)
	require.NoError(t, r.BeginSession())

	for i := 0; i < 9; i++ {
		require.NoError(t, r.Record(Row{T: time.Duration(i) * time.Millisecond}))
	}
	r.EndSession()

	require.Len(t, sink.lines, 4) // header + every 3rd row
	require.Equal(t, "t_ms,angle_deg,err,p,i,d,out,m1,m2,erpm1,erpm2", sink.lines[0])
	require.True(t, strings.HasPrefix(sink.lines[1], "2,"))
	require.True(t, sink.closed)
}

func TestRecorderRowFormat(t *testing.T) {
	sink := &memSink{}
	r := New(1, sink)
	require.NoError(t, r.BeginSession())
	require.NoError(t, r.Record(Row{
		T:        1500 * time.Millisecond,
		AngleDeg: 12.345,
		Err:      -2.5,
		P:        1, I: 0.5, D: 0.25,
		Out: 1.75,
		M1:  350, M2: 250,
		ERPM1: 7000, ERPM2: 5000,
	}))
	require.Equal(t, "1500,12.35,-2.50,1.00,0.50,0.25,1.75,350,250,7000,5000", sink.lines[1])
}

func TestRecorderOutsideSession(t *testing.T) {
	sink := &memSink{}
	r := New(1, sink)
	require.NoError(t, r.Record(Row{}))
	require.Empty(t, sink.lines)
	r.EndSession()
	require.False(t, sink.closed)
}

func TestFileSink(t *testing.T) {
	dir, err := ioutil.TempDir("", "recorder")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	logDir := filepath.Join(dir, "blackbox")
	now := time.Date(2026, 8, 30, 10, 20, 30, 0, time.UTC)
	sink, err := NewFileSink(logDir, now)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(logDir, "log_2026-08-30_10-20-30.csv"), sink.Path())

	require.NoError(t, sink.Write("a,b"))
	require.NoError(t, sink.Close())

	data, err := ioutil.ReadFile(sink.Path())
	require.NoError(t, err)
	require.Equal(t, "a,b\n", string(data))
}
