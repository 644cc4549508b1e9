package midi

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// DeviceEnv is the environment variable naming the MIDI input port to open.
const DeviceEnv = "GLSLIVE_MIDI_DEVICE"

// ports that are never picked automatically
var excludedPorts = []string{"Midi Through", "Through Port", "Dummy"}

// Port is an open system MIDI input port feeding a Decoder.
type Port struct {
	drv  *rtmididrv.Driver
	in   drivers.In
	stop func()
	Name string
}

// OpenPort opens the input port matching name, or the first real port when
// name is empty, and feeds every message it receives to dec.
func OpenPort(name string, dec *Decoder) (*Port, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	idx, err := selectPort(names, name)
	if err != nil {
		drv.Close()
		return nil, err
	}
	in := ins[idx]
	if err := in.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open %q: %w", names[idx], err)
	}

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		dec.Write(msg)
	}, gomidi.HandleError(func(err error) {
		glog.Warningf("midi: listener error on %q: %v", names[idx], err)
	}))
	if err != nil {
		in.Close()
		drv.Close()
		return nil, fmt.Errorf("listen %q: %w", names[idx], err)
	}

	glog.Infof("midi: listening on %q", names[idx])
	return &Port{drv: drv, in: in, stop: stop, Name: names[idx]}, nil
}

// Close stops listening and releases the driver.
func (p *Port) Close() error {
	p.stop()
	err := p.in.Close()
	if cerr := p.drv.Close(); err == nil {
		err = cerr
	}
	return err
}

// selectPort picks the index of the port to open. An exact case-insensitive
// match wins over a substring match. With no name the first port that is not
// a loopback is chosen.
func selectPort(names []string, want string) (int, error) {
	if want != "" {
		for i, n := range names {
			if strings.EqualFold(n, want) {
				return i, nil
			}
		}
		for i, n := range names {
			if containsCI(n, want) {
				return i, nil
			}
		}
		return -1, fmt.Errorf("midi input %q not found among %q", want, names)
	}
	for i, n := range names {
		excluded := false
		for _, pat := range excludedPorts {
			if containsCI(n, pat) {
				excluded = true
				break
			}
		}
		if !excluded {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no midi input available")
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
