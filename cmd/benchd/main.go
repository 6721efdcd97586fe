package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dshot.go/pkg/bench"
	"github.com/robotalks/dshot.go/pkg/control"
	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/monitor"
	"github.com/robotalks/dshot.go/pkg/recorder"
)

var (
	mqttURL      = ""
	rig          = ""
	setpoint     = 15.0
	kp           = 3.5
	ki           = 0.4
	kd           = 0.3
	intLimit     = 50.0
	baseThrottle = 300
	minThrottle  = 70
	maxThrottle  = 600
	loopInterval = 10 * time.Millisecond
	sampleEvery  = 5
	logDir       = ""
	armTimeout   = 10 * time.Second
)

func init() {
	if val := os.Getenv("BENCH_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL, empty disables publishing.")
	flag.StringVar(&rig, "rig", rig, "Rig identity, defaults to the machine ID.")
	flag.Float64Var(&setpoint, "setpoint", setpoint, "Lever angle setpoint in degrees.")
	flag.Float64Var(&kp, "kp", kp, "Proportional gain.")
	flag.Float64Var(&ki, "ki", ki, "Integral gain.")
	flag.Float64Var(&kd, "kd", kd, "Derivative gain.")
	flag.Float64Var(&intLimit, "integral-limit", intLimit, "Integral windup limit.")
	flag.IntVar(&baseThrottle, "base", baseThrottle, "Base throttle.")
	flag.IntVar(&minThrottle, "min", minThrottle, "Minimum throttle.")
	flag.IntVar(&maxThrottle, "max", maxThrottle, "Maximum throttle.")
	flag.DurationVar(&loopInterval, "loop-interval", loopInterval, "Control loop interval.")
	flag.IntVar(&sampleEvery, "sample-every", sampleEvery, "Record every Nth control sample.")
	flag.StringVar(&logDir, "log-dir", logDir, "Telemetry log directory, empty prints to stdout.")
	flag.DurationVar(&armTimeout, "arm-timeout", armTimeout, "Arming timeout.")
	bench.SetupFlags()
}

func main() {
	flag.Parse()

	conf := bench.NewConfig()
	if conf.Channels < 2 {
		glog.Exit("the lever bench needs at least 2 channels")
	}
	r, err := conf.NewRig()
	if err != nil {
		glog.Exit(err)
	}
	defer r.Close()

	var sink recorder.Sink
	if logDir != "" {
		if sink, err = recorder.NewFileSink(logDir, time.Now()); err != nil {
			glog.Exit(err)
		}
	}
	rec := recorder.New(sampleEvery, sink)

	pid := control.NewPID(kp, ki, kd, intLimit)
	mixer := &control.LeverMixer{
		Base: uint16(baseThrottle),
		Min:  uint16(minThrottle),
		Max:  uint16(maxThrottle),
	}
	stab := bench.NewStabilizer(r.Group, pid, mixer, &bench.LeverPlant{Gain: 0.05, Damping: 2}, setpoint)
	stab.Recorder = rec

	runner := fx.NewRunner().HandleSignals()
	runner.Go(r.Group)

	armCtx, cancel := context.WithTimeout(runner.Context, armTimeout)
	err = r.Group.ArmAll(armCtx)
	cancel()
	if err != nil {
		glog.Exit(err)
	}
	glog.Infof("%d channels armed", r.Group.Channels())

	if err = rec.BeginSession(); err != nil {
		glog.Exit(err)
	}
	defer rec.EndSession()

	if mqttURL != "" {
		q, err := monitor.NewQueueFromURL(mqttURL)
		if err != nil {
			glog.Exit(err)
		}
		defer q.Close()
		if token := q.Connect(); token.Wait() && token.Error() != nil {
			glog.Exit(token.Error())
		}
		runner.Go(monitor.NewPublisher(q, r.Group, rig))
	}

	runner.Go(fx.NamedRun("control-loop", fx.NewLoop(loopInterval).Add(stab)))

	if err = runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
