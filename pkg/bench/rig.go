// Package bench assembles the test bench: simulated ESC channels
// behind one throttle group, configured from command line flags.
package bench

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/dshot.go/pkg/dshot"
	"github.com/robotalks/dshot.go/pkg/dshot/driver"
	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/motor"
)

// Config defines the configurations for a bench rig.
type Config struct {
	Channels       int
	Bitrate        int
	Bidirectional  bool
	EDT            bool
	Jitter         float64
	Interval       time.Duration
	TelemetryEvery int
	FaultThreshold int
}

var defaultConfig = Config{
	Channels:       2,
	Bitrate:        int(driver.DShot600),
	Bidirectional:  true,
	EDT:            true,
	Jitter:         0.02,
	Interval:       motor.DefaultInterval,
	TelemetryEvery: motor.DefaultTelemetryEvery,
	FaultThreshold: motor.DefaultFaultThreshold,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.Channels, "channels", defaultConfig.Channels, "Number of motor channels.")
	flag.IntVar(&defaultConfig.Bitrate, "bitrate", defaultConfig.Bitrate, "DShot bitrate in kbit/s: 150, 300, 600, 1200.")
	flag.BoolVar(&defaultConfig.Bidirectional, "bidir", defaultConfig.Bidirectional, "Bidirectional DShot with telemetry.")
	flag.BoolVar(&defaultConfig.EDT, "edt", defaultConfig.EDT, "Extended DShot telemetry support.")
	flag.Float64Var(&defaultConfig.Jitter, "jitter", defaultConfig.Jitter, "Simulated edge jitter, fraction of a bit period.")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Cadence loop interval.")
	flag.IntVar(&defaultConfig.TelemetryEvery, "telemetry-every", defaultConfig.TelemetryEvery, "Poll telemetry every Nth frame.")
	flag.IntVar(&defaultConfig.FaultThreshold, "fault-threshold", defaultConfig.FaultThreshold, "Consecutive CRC failures before faulting a channel.")
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Mode returns the signaling mode selected by the config.
func (c *Config) Mode() dshot.Mode {
	if c.Bidirectional {
		return dshot.ModeBidirectional
	}
	return dshot.ModeStandard
}

// Rig is the assembled bench: one simulated ESC per channel under a
// single throttle group.
type Rig struct {
	Group    *motor.Group
	Channels []*motor.Channel
	Sims     []*driver.Sim
}

// NewRig builds the rig from the config.
func (c *Config) NewRig() (*Rig, error) {
	cfg := driver.Config{Bitrate: driver.Bitrate(c.Bitrate), Mode: c.Mode()}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clock := fx.SystemClock()
	r := &Rig{}
	for i := 0; i < c.Channels; i++ {
		sim, err := driver.NewSim(i, cfg, clock)
		if err != nil {
			r.Close()
			return nil, err
		}
		sim.Jitter = c.Jitter
		ch := motor.NewChannel(i, sim, clock)
		ch.EDTSupported = c.EDT
		r.Sims = append(r.Sims, sim)
		r.Channels = append(r.Channels, ch)
	}
	r.Group = motor.NewGroup(clock, r.Channels...)
	r.Group.Interval = c.Interval
	r.Group.TelemetryEvery = c.TelemetryEvery
	r.Group.FaultThreshold = c.FaultThreshold
	return r, nil
}

// Close releases the simulated drivers.
func (r *Rig) Close() error {
	var errs fx.AggregatedError
	for _, sim := range r.Sims {
		errs.Add(sim.Close())
	}
	return errs.Aggregate()
}

// ParseCommand maps a command name or number to a dshot.Command.
func ParseCommand(name string) (dshot.Command, bool) {
	if cmd, ok := commandNames[strings.ToLower(name)]; ok {
		return cmd, true
	}
	if n, err := strconv.Atoi(name); err == nil {
		cmd := dshot.Command(n)
		return cmd, cmd.IsValid()
	}
	return 0, false
}

var commandNames = map[string]dshot.Command{
	"beep1":            dshot.CmdBeep1,
	"beep2":            dshot.CmdBeep2,
	"beep3":            dshot.CmdBeep3,
	"beep4":            dshot.CmdBeep4,
	"beep5":            dshot.CmdBeep5,
	"esc-info":         dshot.CmdESCInfo,
	"3d-off":           dshot.Cmd3DModeOff,
	"3d-on":            dshot.Cmd3DModeOn,
	"save":             dshot.CmdSaveSettings,
	"edt-on":           dshot.CmdEDTEnable,
	"edt-off":          dshot.CmdEDTDisable,
	"dir-normal":       dshot.CmdSpinDirectionNormal,
	"dir-reversed":     dshot.CmdSpinDirectionReversed,
	"telemetry-off":    dshot.CmdTelemetryDisable,
	"telemetry-on":     dshot.CmdTelemetryEnable,
	"erpm-telemetry":   dshot.CmdERPMTelemetry,
	"period-telemetry": dshot.CmdERPMPeriodTelemetry,
}
