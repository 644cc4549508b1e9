// Package config loads the runner configuration from a TOML file, the
// environment and the command line, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	math "github.com/chewxy/math32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"

	"github.com/peragwin/glslive/audio/fft"
	"github.com/peragwin/glslive/midi"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete runner configuration.
type Config struct {
	Window WindowConfig `toml:"window"`
	Audio  AudioConfig  `toml:"audio"`
	MIDI   MIDIConfig   `toml:"midi"`
	// HTTP is the listen address of the control surface, empty to disable it.
	HTTP string `toml:"http"`
	// Poll watches the shader by polling its modification time instead of
	// file system notifications.
	Poll bool `toml:"poll"`
}

// WindowConfig configures the output window.
type WindowConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Title      string `toml:"title"`
	ClearColor string `toml:"clear_color"`
}

// AudioConfig configures capture and the spectrum pipeline.
type AudioConfig struct {
	Disabled   bool    `toml:"disabled"`
	Device     string  `toml:"device"`
	SampleRate float64 `toml:"sample_rate"`
	BlockSize  int     `toml:"block_size"`
	Bins       int     `toml:"bins"`
	Transform  string  `toml:"transform"`
	Smoothing  float32 `toml:"smoothing"`
	Gain       float32 `toml:"gain"`
	AutoGain   bool    `toml:"auto_gain"`
}

// MIDIConfig configures the MIDI transports.
type MIDIConfig struct {
	Disabled bool   `toml:"disabled"`
	Device   string `toml:"device"`
	Serial   string `toml:"serial"`
	Baud     int    `toml:"baud"`
	// Channel filters control changes to one channel, 1-16. Zero is omni.
	Channel int `toml:"channel"`
}

// Default returns the built in configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1080,
			Height:     800,
			Title:      "glslive",
			ClearColor: "#000000",
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			BlockSize:  256,
			Bins:       512,
			Transform:  fft.KindDCT,
			Smoothing:  0.9,
			Gain:       1,
		},
		MIDI: MIDIConfig{
			Baud: midi.DefaultBaud,
		},
	}
}

// Load returns the defaults overlaid with the file at path. An empty path
// returns the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return fmt.Errorf("%w: %s", ErrInvalid, sme.String())
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return err
	}
	return nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(midi.DeviceEnv); v != "" {
		c.MIDI.Device = v
	}
}

// Validate checks every setting the runner depends on.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return invalid("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if _, err := c.ClearColor(); err != nil {
		return invalid("clear_color %q: %v", c.Window.ClearColor, err)
	}

	a := c.Audio
	if a.Smoothing < 0 || a.Smoothing >= 1 || math.IsNaN(a.Smoothing) {
		return invalid("smoothing %v not in [0, 1)", a.Smoothing)
	}
	if a.Bins <= 0 {
		return invalid("bins %d", a.Bins)
	}
	window := a.Bins
	switch a.Transform {
	case fft.KindDCT:
	case fft.KindMagnitude:
		if a.Bins&(a.Bins-1) != 0 {
			return invalid("bins %d must be a power of two for the %s transform", a.Bins, a.Transform)
		}
		window = 2 * a.Bins
	default:
		return invalid("unknown transform %q", a.Transform)
	}
	if a.SampleRate <= 0 {
		return invalid("sample_rate %v", a.SampleRate)
	}
	if a.BlockSize <= 0 || a.BlockSize > window {
		return invalid("block_size %d must be in [1, %d]", a.BlockSize, window)
	}
	if a.Gain < 0 {
		return invalid("gain %v", a.Gain)
	}

	if c.MIDI.Channel < 0 || c.MIDI.Channel > 16 {
		return invalid("midi channel %d", c.MIDI.Channel)
	}
	if c.MIDI.Baud < 0 {
		return invalid("baud %d", c.MIDI.Baud)
	}
	return nil
}

// ClearColor parses the window clear colour.
func (c *Config) ClearColor() (colorful.Color, error) {
	return colorful.Hex(c.Window.ClearColor)
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	b, err := toml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
