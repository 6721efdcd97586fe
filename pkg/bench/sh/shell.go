// Package sh provides the interactive bench console.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dshot.go/pkg/bench"
)

// Shell provides ishell backed interactive console over a bench rig.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Rig    *bench.Rig
	Cancel func()
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ArmCmd,
		&ThrottleCmd,
		&CommandCmd,
		&EStopCmd,
		&ReinitCmd,
		&HealthCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell over the rig and starts the cadence loop.
func New(rig *bench.Rig) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Rig:   rig,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt("bench > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	var ctx context.Context
	ctx, s.Cancel = context.WithCancel(context.Background())
	go rig.Group.Run(ctx)
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

func parseChannel(c *ishell.Context, arg string) (int, bool) {
	ch, err := strconv.Atoi(arg)
	if err != nil || ch < 0 || ch >= ShellFrom(c).Rig.Group.Channels() {
		c.Err(fmt.Errorf("invalid CHANNEL %q", arg))
		return 0, false
	}
	return ch, true
}

var (
	// ArmCmd arms all channels.
	ArmCmd = ishell.Cmd{
		Name: "arm",
		Help: "arm all channels",
		Func: func(c *ishell.Context) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ShellFrom(c).Rig.Group.ArmAll(ctx); err != nil {
				c.Err(err)
				return
			}
			c.Println("armed")
		},
	}

	// ThrottleCmd sets a channel throttle.
	ThrottleCmd = ishell.Cmd{
		Name:    "throttle",
		Aliases: []string{"t"},
		Help:    "CHANNEL VALUE(0, 48..2047)",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("CHANNEL and VALUE required"))
				return
			}
			ch, ok := parseChannel(c, c.Args[0])
			if !ok {
				return
			}
			val, err := strconv.ParseUint(c.Args[1], 10, 16)
			if err != nil {
				c.Err(fmt.Errorf("invalid VALUE: %v", err))
				return
			}
			if err := ShellFrom(c).Rig.Group.SetThrottle(ch, uint16(val)); err != nil {
				c.Err(err)
			}
		},
	}

	// CommandCmd queues a special command.
	CommandCmd = ishell.Cmd{
		Name:    "command",
		Aliases: []string{"cmd"},
		Help:    "CHANNEL NAME|NUMBER (e.g. beep1, dir-reversed, 13)",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("CHANNEL and COMMAND required"))
				return
			}
			ch, ok := parseChannel(c, c.Args[0])
			if !ok {
				return
			}
			cmd, ok := bench.ParseCommand(c.Args[1])
			if !ok {
				c.Err(fmt.Errorf("unknown command %q", c.Args[1]))
				return
			}
			if err := ShellFrom(c).Rig.Group.SendCommand(ch, cmd, false); err != nil {
				c.Err(err)
			}
		},
	}

	// EStopCmd stops all motors immediately.
	EStopCmd = ishell.Cmd{
		Name:    "estop",
		Aliases: []string{"x"},
		Help:    "emergency stop all channels",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Rig.Group.EStopAll()
			c.Println("estop")
		},
	}

	// ReinitCmd clears a faulted channel.
	ReinitCmd = ishell.Cmd{
		Name: "reinit",
		Help: "CHANNEL",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("CHANNEL required"))
				return
			}
			ch, ok := parseChannel(c, c.Args[0])
			if !ok {
				return
			}
			if err := ShellFrom(c).Rig.Group.Reinit(ch); err != nil {
				c.Err(err)
			}
		},
	}

	// HealthCmd prints health snapshots.
	HealthCmd = ishell.Cmd{
		Name:    "health",
		Aliases: []string{"h"},
		Help:    "[CHANNEL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			from, to := 0, s.Rig.Group.Channels()
			if len(c.Args) > 0 {
				ch, ok := parseChannel(c, c.Args[0])
				if !ok {
					return
				}
				from, to = ch, ch+1
			}
			for i := from; i < to; i++ {
				h := s.Rig.Group.HealthSnapshot(i)
				if s.OutputJSON {
					out, err := json.Marshal(&h)
					if err != nil {
						c.Err(err)
						return
					}
					c.Println(string(out))
					continue
				}
				c.Printf("%d: %s throttle=%d erpm=%d sent=%d discarded=%d crc=%d\n",
					h.Channel, h.State, h.Throttle, h.ERPM,
					h.FramesSent, h.FramesDiscarded, h.CRCFailures)
			}
		},
	}
)

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Cancel()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	rig, err := bench.NewConfig().NewRig()
	if err != nil {
		log.Fatalln(err)
	}
	defer rig.Close()
	New(rig).Run(flag.Args()...)
}
