package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/peragwin/glslive/audio"
	"github.com/peragwin/glslive/audio/fft"
	"github.com/peragwin/glslive/audio/spectrum"
	"github.com/peragwin/glslive/config"
	"github.com/peragwin/glslive/control"
	"github.com/peragwin/glslive/gfx"
	"github.com/peragwin/glslive/midi"
	"github.com/peragwin/glslive/render"
	"github.com/peragwin/glslive/shader"
)

func init() {
	// OpenGL requires that rendering functions be called from the main thread
	runtime.LockOSThread()
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <shader.frag>\n", os.Args[0])
	flag.PrintDefaults()
}

// checkShaderPath validates the positional arguments.
func checkShaderPath(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one shader file, got %d arguments", len(args))
	}
	fi, err := os.Stat(args[0])
	if err != nil {
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", args[0])
	}
	return args[0], nil
}

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Usage = usage
	flag.Parse()
	defer glog.Flush()

	if flags.ListDevices {
		if err := audio.PrintDevices(os.Stdout); err != nil {
			glog.Exitf("error listing devices: %v", err)
		}
		return
	}

	path, err := checkShaderPath(flag.Args())
	if err != nil {
		usage()
		glog.Exitf("%v", err)
	}
	cfg, err := flags.Resolve(os.Getenv)
	if err != nil {
		glog.Exitf("%v", err)
	}
	glog.V(1).Infof("config:\n%s", cfg)

	res := &render.Resources{}
	fatal := func(format string, args ...interface{}) {
		if err := res.Release(); err != nil {
			glog.Error(err)
		}
		glog.Exitf(format, args...)
	}

	verbose := &atomic.Bool{}
	table := &midi.Table{}
	buffers := spectrum.NewBuffers(cfg.Audio.Bins)

	// The graphics have to be the first thing we initialize on macOS.
	win, err := gfx.NewWindow(&gfx.WindowConfig{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Title:  cfg.Window.Title,
	})
	if err != nil {
		fatal("error creating window: %v", err)
	}
	res.Push("window", win.Close)

	bg, _ := cfg.ClearColor()
	g, err := gfx.NewGL(bg)
	if err != nil {
		fatal("%v", err)
	}
	res.Push("gl", g.Close)

	shaders, err := shader.NewManager(g, path, newWatcher(path, cfg.Poll), verbose)
	if err != nil {
		fatal("error compiling vertex shader: %v", err)
	}
	res.Push("shaders", shaders.Close)
	// failures are logged; the loop keeps retrying on change
	shaders.PollAndMaybeReload()

	binder, err := render.NewBinder(g, table, buffers)
	if err != nil {
		fatal("%v", err)
	}
	res.Push("textures", binder.Close)

	decCfg := midi.DecoderConfig{Channel: cfg.MIDI.Channel, Verbose: verbose}
	if !cfg.Audio.Disabled {
		if err := startAudio(cfg, buffers, table, res); err != nil {
			glog.Errorf("audio disabled: %v", err)
		}
	}
	if !cfg.MIDI.Disabled {
		startMIDI(cfg, table, decCfg, res)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.HTTP != "" {
		surface, err := control.New(control.Sources{
			Table:    table,
			Spectrum: buffers,
			Status:   shaders.Status,
			Reload:   shaders.RequestReload,
			Verbose:  verbose,
		})
		if err != nil {
			fatal("%v", err)
		}
		startHTTP(cfg.HTTP, surface.Handler(decCfg), res)
	}

	loop := render.NewLoop(render.LoopConfig{
		Window:    win,
		Surface:   g,
		Programs:  shaders,
		Binder:    binder,
		Resources: res,
		Verbose:   verbose,
	})
	win.OnAction(loop.HandleAction)

	if err := loop.Run(ctx); err != nil {
		glog.Errorf("shutdown: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func newWatcher(path string, poll bool) shader.Watcher {
	if !poll {
		w, err := shader.NewNotifyWatcher(path)
		if err == nil {
			return w
		}
		glog.Warningf("falling back to polling: %v", err)
	}
	return shader.NewStatWatcher(path)
}

func startAudio(cfg *config.Config, buffers *spectrum.Buffers, table *midi.Table, res *render.Resources) error {
	t, err := fft.New(cfg.Audio.Transform, cfg.Audio.Bins)
	if err != nil {
		return err
	}
	pipe, err := spectrum.NewPipeline(t, buffers, spectrum.Config{
		Smoothing: cfg.Audio.Smoothing,
		Gain:      cfg.Audio.Gain,
		AutoGain:  cfg.Audio.AutoGain,
	})
	if err != nil {
		return err
	}
	// no logging from the audio callback
	dec := midi.NewDecoder(table, &midi.DecoderConfig{Name: "audio", Channel: cfg.MIDI.Channel})
	bridge := audio.NewBridge(pipe, dec)
	if err := bridge.Open(&audio.Config{
		BlockSize:  cfg.Audio.BlockSize,
		SampleRate: cfg.Audio.SampleRate,
		Device:     cfg.Audio.Device,
	}); err != nil {
		return err
	}
	res.Push("audio", bridge.Close)
	return nil
}

func startMIDI(cfg *config.Config, table *midi.Table, decCfg midi.DecoderConfig, res *render.Resources) {
	portCfg := decCfg
	portCfg.Name = "port"
	port, err := midi.OpenPort(cfg.MIDI.Device, midi.NewDecoder(table, &portCfg))
	if err != nil {
		glog.Warningf("midi port disabled: %v", err)
	} else {
		res.Push("midi port", port.Close)
	}

	if cfg.MIDI.Serial == "" {
		return
	}
	serialCfg := decCfg
	serialCfg.Name = cfg.MIDI.Serial
	s, err := midi.OpenSerial(cfg.MIDI.Serial, cfg.MIDI.Baud, midi.NewDecoder(table, &serialCfg))
	if err != nil {
		glog.Warningf("serial midi disabled: %v", err)
		return
	}
	res.Push("serial midi", s.Close)
}

func startHTTP(addr string, h http.Handler, res *render.Resources) {
	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		glog.Infof("control surface listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("http: %v", err)
		}
	}()
	res.Push("http", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}
