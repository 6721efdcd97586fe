package dshot

import "time"

// Command is a special command payload (1..47). Commands are only valid
// to send while the motor is stopped.
type Command uint16

// Special command values. Value 0 (motor stop) is transmitted as
// throttle, not through EncodeCommand.
const (
	CmdMotorStop       Command = 0
	CmdBeep1           Command = 1
	CmdBeep2           Command = 2
	CmdBeep3           Command = 3
	CmdBeep4           Command = 4
	CmdBeep5           Command = 5
	CmdESCInfo         Command = 6
	CmdSpinDirection1  Command = 7
	CmdSpinDirection2  Command = 8
	Cmd3DModeOff       Command = 9
	Cmd3DModeOn        Command = 10
	CmdSettingsRequest Command = 11
	CmdSaveSettings    Command = 12
	CmdEDTEnable       Command = 13
	CmdEDTDisable      Command = 14

	CmdSpinDirectionNormal   Command = 20
	CmdSpinDirectionReversed Command = 21

	CmdLED0On  Command = 22
	CmdLED1On  Command = 23
	CmdLED2On  Command = 24
	CmdLED3On  Command = 25
	CmdLED0Off Command = 26
	CmdLED1Off Command = 27
	CmdLED2Off Command = 28
	CmdLED3Off Command = 29

	CmdAudioStreamToggle Command = 30
	CmdSilentModeToggle  Command = 31

	CmdTelemetryDisable    Command = 32
	CmdTelemetryEnable     Command = 33
	CmdERPMTelemetry       Command = 34
	CmdERPMPeriodTelemetry Command = 35

	// CmdMax is the highest special command value.
	CmdMax uint16 = 47
)

// CommandSpec carries the transmission contract of a command: how many
// consecutive frames it must be sent in, the minimum quiescent delay
// after the last send, and whether the ESC must support extended
// telemetry for the command to be meaningful.
type CommandSpec struct {
	Repeat      int
	Delay       time.Duration
	RequiresEDT bool
}

var commandSpecs = map[Command]CommandSpec{
	CmdBeep1: {Repeat: 1, Delay: 260 * time.Millisecond},
	CmdBeep2: {Repeat: 1, Delay: 260 * time.Millisecond},
	CmdBeep3: {Repeat: 1, Delay: 260 * time.Millisecond},
	CmdBeep4: {Repeat: 1, Delay: 260 * time.Millisecond},
	CmdBeep5: {Repeat: 1, Delay: 260 * time.Millisecond},

	CmdESCInfo: {Repeat: 1, Delay: 12 * time.Millisecond},

	CmdSpinDirection1:  {Repeat: 6},
	CmdSpinDirection2:  {Repeat: 6},
	Cmd3DModeOff:       {Repeat: 6},
	Cmd3DModeOn:        {Repeat: 6},
	CmdSettingsRequest: {Repeat: 6, Delay: 12 * time.Millisecond},
	CmdSaveSettings:    {Repeat: 6, Delay: 35 * time.Millisecond},

	CmdEDTEnable:  {Repeat: 6, RequiresEDT: true},
	CmdEDTDisable: {Repeat: 6, RequiresEDT: true},

	CmdSpinDirectionNormal:   {Repeat: 6},
	CmdSpinDirectionReversed: {Repeat: 6},

	CmdTelemetryDisable:    {Repeat: 6},
	CmdTelemetryEnable:     {Repeat: 6},
	CmdERPMTelemetry:       {Repeat: 6},
	CmdERPMPeriodTelemetry: {Repeat: 6},
}

// Spec returns the transmission contract for the command. Commands not
// listed explicitly (LED, audio) are sent once with no quiescent delay.
func (c Command) Spec() CommandSpec {
	if spec, ok := commandSpecs[c]; ok {
		return spec
	}
	return CommandSpec{Repeat: 1}
}

// IsValid indicates the value is within the special command range.
func (c Command) IsValid() bool {
	return c >= 1 && uint16(c) <= CmdMax
}
