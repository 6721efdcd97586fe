// Package recorder captures control loop telemetry as decimated CSV
// rows for offline analysis.
package recorder

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
)

// Sink is the output backend for formatted rows.
type Sink interface {
	Write(line string) error
	Close() error
}

// PrintSink emits rows to stdout.
type PrintSink struct{}

// Write implements Sink.
func (PrintSink) Write(line string) error {
	_, err := fmt.Println(line)
	return err
}

// Close implements Sink.
func (PrintSink) Close() error { return nil }

// FileSink appends rows to a timestamped log file.
type FileSink struct {
	path string
	file *os.File
	w    *bufio.Writer
}

// NewFileSink opens a new log file under dir, named from now.
func NewFileSink(dir string, now time.Time) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, now.Format("log_2006-01-02_15-04-05")+".csv")
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{path: path, file: f, w: bufio.NewWriter(f)}, nil
}

// Path returns the log file path.
func (s *FileSink) Path() string { return s.path }

// Write implements Sink.
func (s *FileSink) Write(line string) error {
	if _, err := s.w.WriteString(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

// Close flushes and closes the file.
func (s *FileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Row is one control loop sample.
type Row struct {
	T        time.Duration
	AngleDeg float64
	Err      float64
	P, I, D  float64
	Out      float64
	M1, M2   uint16
	ERPM1    uint32
	ERPM2    uint32
}

const header = "t_ms,angle_deg,err,p,i,d,out,m1,m2,erpm1,erpm2"

// Recorder decimates and formats rows, delegating I/O to a sink.
type Recorder struct {
	SampleEvery int

	sink    Sink
	counter int
	open    bool
}

// New creates a Recorder emitting every sampleEvery-th row to sink.
// A nil sink prints to stdout.
func New(sampleEvery int, sink Sink) *Recorder {
	if sampleEvery < 1 {
		sampleEvery = 1
	}
	if sink == nil {
		sink = PrintSink{}
	}
	return &Recorder{SampleEvery: sampleEvery, sink: sink}
}

// BeginSession resets decimation and emits the CSV header.
func (r *Recorder) BeginSession() error {
	r.counter = 0
	r.open = true
	return r.sink.Write(header)
}

// Record emits the row if it lands on the decimation grid. Rows
// outside a session or off the grid are dropped silently.
func (r *Recorder) Record(row Row) error {
	if !r.open {
		return nil
	}
	r.counter++
	if r.counter < r.SampleEvery {
		return nil
	}
	r.counter = 0
	line := fmt.Sprintf("%d,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%d,%d,%d,%d",
		row.T/time.Millisecond, row.AngleDeg, row.Err,
		row.P, row.I, row.D, row.Out, row.M1, row.M2, row.ERPM1, row.ERPM2)
	return r.sink.Write(line)
}

// EndSession closes the sink.
func (r *Recorder) EndSession() {
	if !r.open {
		return
	}
	r.open = false
	if err := r.sink.Close(); err != nil {
		glog.Errorf("recorder close: %v", err)
	}
}
