package config

import (
	"flag"
)

// Flags are the command line overrides. Only flags given explicitly override
// the file and the environment.
type Flags struct {
	fs *flag.FlagSet

	// Config is the path of the TOML file.
	Config string
	// ListDevices prints the audio devices and exits.
	ListDevices bool

	width, height int
	http          string
	serial        string
	audioDevice   string
	smoothing     float64
	transform     string
	poll          bool
}

// RegisterFlags defines the flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}
	fs.StringVar(&f.Config, "config", "", "path to a TOML config file")
	fs.BoolVar(&f.ListDevices, "list-devices", false, "print the audio devices and exit")
	fs.IntVar(&f.width, "width", d.Window.Width, "window width")
	fs.IntVar(&f.height, "height", d.Window.Height, "window height")
	fs.StringVar(&f.http, "http", d.HTTP, "control surface listen address, e.g. :8080")
	fs.StringVar(&f.serial, "serial", d.MIDI.Serial, "serial device carrying DIN MIDI")
	fs.StringVar(&f.audioDevice, "audio-device", d.Audio.Device, "audio input device name")
	fs.Float64Var(&f.smoothing, "smoothing", float64(d.Audio.Smoothing), "spectrum smoothing factor in [0, 1)")
	fs.StringVar(&f.transform, "transform", d.Audio.Transform, "spectral transform, dct or fft")
	fs.BoolVar(&f.poll, "poll", d.Poll, "poll the shader file instead of using file system notifications")
	return f
}

// Apply copies the explicitly set flags into c.
func (f *Flags) Apply(c *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "width":
			c.Window.Width = f.width
		case "height":
			c.Window.Height = f.height
		case "http":
			c.HTTP = f.http
		case "serial":
			c.MIDI.Serial = f.serial
		case "audio-device":
			c.Audio.Device = f.audioDevice
		case "smoothing":
			c.Audio.Smoothing = float32(f.smoothing)
		case "transform":
			c.Audio.Transform = f.transform
		case "poll":
			c.Poll = f.poll
		}
	})
}

// Resolve loads the file named by -config, then applies the environment and
// the flags, and validates the result.
func (f *Flags) Resolve(getenv func(string) string) (*Config, error) {
	cfg, err := Load(f.Config)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(getenv)
	f.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
