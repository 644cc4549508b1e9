package audio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/gordonklaus/portaudio"

	"github.com/peragwin/glslive/audio/util"
)

// ErrNoDevice is returned when the requested input device does not exist.
var ErrNoDevice = errors.New("no such audio input device")

// Config represents a config that is used to open a new Stream.
type Config struct {
	// BlockSize refers to the buffer size for each block
	BlockSize int
	// SampleRate is the sample rate (Fs).
	SampleRate float64
	// Device is the name of the input device, empty for the host default.
	Device string
}

// Processor consumes a window of the most recent samples once per block.
type Processor interface {
	WindowSize() int
	OnAudioBlock(window []float64)
}

// MIDISink receives MIDI bytes delivered alongside an audio block.
type MIDISink interface {
	Write(p []byte) (int, error)
}

// Event is a MIDI message delivered by the audio engine with a block.
type Event struct {
	// Offset is the frame within the block the event belongs to.
	Offset int
	Data   []byte
}

// Bridge connects a real-time audio engine callback to a Processor. It owns the
// sample ring the processor window is read from.
type Bridge struct {
	proc   Processor
	midi   MIDISink
	ring   *util.RingBuffer
	window []float64

	stream *portaudio.Stream
}

// NewBridge creates a bridge feeding proc. midi may be nil.
func NewBridge(proc Processor, midi MIDISink) *Bridge {
	n := proc.WindowSize()
	return &Bridge{
		proc:   proc,
		midi:   midi,
		ring:   util.NewRingBuffer(n),
		window: make([]float64, n),
	}
}

// Process handles one engine callback: the block is appended to the ring, the
// latest window is handed to the processor and any MIDI events are decoded.
// Blocks longer than the window only contribute their most recent samples.
func (b *Bridge) Process(in []float32, events []Event) {
	if len(in) > b.ring.Len() {
		in = in[len(in)-b.ring.Len():]
	}
	b.ring.PushFloat32(in)
	b.ring.Read(b.window)
	b.proc.OnAudioBlock(b.window)

	if b.midi != nil {
		for _, ev := range events {
			b.midi.Write(ev.Data)
		}
	}
}

// Open initializes portaudio and starts a mono input stream whose callback
// drives Process. The stream runs until Close.
func (b *Bridge) Open(cfg *Config) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("error initializing portaudio: %v", err)
	}

	dev, err := inputDevice(cfg.Device)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = cfg.SampleRate
	params.FramesPerBuffer = cfg.BlockSize

	stream, err := portaudio.OpenStream(params, func(in, _ []float32) {
		b.Process(in, nil)
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("error opening stream: %v", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("error starting stream: %v", err)
	}
	b.stream = stream
	glog.Infof("audio: capturing from %q at %.0f Hz, %d frames per block",
		dev.Name, cfg.SampleRate, cfg.BlockSize)
	return nil
}

// Close stops the stream and releases portaudio. Calling Close on a bridge that
// was never opened is a no-op.
func (b *Bridge) Close() error {
	if b.stream == nil {
		return nil
	}
	err := b.stream.Stop()
	if cerr := b.stream.Close(); err == nil {
		err = cerr
	}
	b.stream = nil
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}

func inputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 && strings.EqualFold(dev.Name, name) {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoDevice, name)
}
