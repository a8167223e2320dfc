package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/retroframe/retroframe/pkg/config"
	"github.com/retroframe/retroframe/pkg/logger"
	"github.com/retroframe/retroframe/pkg/monitoring"
	"github.com/retroframe/retroframe/pkg/session"
	"github.com/retroframe/retroframe/pkg/ui"
)

var Version = ""

type flags struct {
	frames      uint64
	cycles      uint64
	interactive bool
	scale       int
	uncapped    bool
	video       string
	dumpRange   string
	dumpOutput  string
	dumpFormat  string
	watches     []string
	watchOutput string
	record      bool
	configPath  string
	debug       bool
	monitor     bool
}

func addFlags(fs *flag.FlagSet, f *flags) {
	fs.Uint64Var(&f.frames, "frames", 60, "Stop after that many frames (headless default)")
	fs.Uint64Var(&f.cycles, "cycles", 0, "Run a cycle budget instead of frames where supported")
	fs.BoolVarP(&f.interactive, "interactive", "i", false, "Open a window and run until quit")
	fs.IntVarP(&f.scale, "scale", "s", 0, "Window scale factor")
	fs.BoolVar(&f.uncapped, "uncapped", false, "Disable frame pacing")
	fs.StringVar(&f.video, "video", "", "Video backend: sdl, terminal or null")
	fs.StringVar(&f.dumpRange, "dump-range", "", "One-shot memory dump on exit, START:LEN")
	fs.StringVar(&f.dumpOutput, "dump-output", "", "Dump target file (default stdout)")
	fs.StringVar(&f.dumpFormat, "dump-format", "hex", "Dump format: hex or binary")
	fs.StringArrayVarP(&f.watches, "watch", "w", nil, "Watch descriptor NAME:START:LEN (repeatable)")
	fs.StringVar(&f.watchOutput, "watch-output", "", "Watch stream target file (default stdout)")
	fs.BoolVar(&f.record, "record", false, "Record frames and audio")
	fs.StringVarP(&f.configPath, "config", "c", "", "Directory with the config.yaml file")
	fs.BoolVarP(&f.debug, "debug", "d", false, "Enable debug logging")
	fs.BoolVarP(&f.monitor, "monitoring", "m", false, "Enable the monitoring server")
}

func run() error {
	var f flags
	fs := flag.CommandLine
	addFlags(fs, &f)
	flag.Parse()

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: retroframe [flags] <image>\nsupported flags:\n%s", fs.FlagUsages())
	}
	romPath := fs.Arg(0)

	log := logger.NewConsole(f.debug, "rf", false)
	if Version != "" {
		log.Info().Msgf("version: %v", Version)
	}

	var conf config.Config
	if err := config.LoadConfig(&conf, f.configPath); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if f.scale > 0 {
		conf.Session.Scale = f.scale
	}
	if f.record {
		conf.Recording.Enabled = true
	}
	if f.monitor {
		conf.Monitoring.ProfilingEnabled = true
		conf.Monitoring.MetricEnabled = true
		if conf.Monitoring.Port == 0 {
			conf.Monitoring.Port = 6601
		}
	}

	opts, cleanup, err := sessionOptions(f)
	if err != nil {
		return err
	}
	defer cleanup()
	opts.Uncapped = opts.Uncapped || conf.Session.Uncapped

	if conf.Monitoring.IsEnabled() {
		m := monitoring.New(conf.Monitoring, log)
		m.Run()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = m.Shutdown(ctx)
		}()
	}

	s, err := session.New(romPath, conf, opts, log)
	if err != nil {
		return err
	}

	video := f.video
	if video == "" {
		if f.interactive {
			video = "sdl"
		} else {
			video = "null"
		}
	}
	title := s.Metadata().Title
	if title == "" {
		title = "retroframe"
	}
	p, err := ui.New(video, title, s.Properties(), conf.Session.Scale, log)
	if err != nil {
		return err
	}
	s.Attach(p)

	return s.Run()
}

// sessionOptions translates flags into run options, opening the watch
// output file when one is requested.
func sessionOptions(f flags) (session.Options, func(), error) {
	cleanup := func() {}
	opts := session.Options{
		CycleLimit: f.cycles,
		Uncapped:   f.uncapped,
	}
	if !f.interactive {
		opts.FrameLimit = f.frames
	}

	for _, w := range f.watches {
		watch, err := session.ParseWatch(w)
		if err != nil {
			return opts, cleanup, err
		}
		opts.Watches = append(opts.Watches, watch)
	}
	if f.watchOutput != "" {
		out, err := os.Create(f.watchOutput)
		if err != nil {
			return opts, cleanup, err
		}
		opts.WatchOut = out
		cleanup = func() { _ = out.Close() }
	}

	if f.dumpRange != "" {
		start, length, err := session.ParseRange(f.dumpRange)
		if err != nil {
			return opts, cleanup, err
		}
		format := session.DumpHex
		switch f.dumpFormat {
		case "hex":
		case "binary":
			format = session.DumpBinary
		default:
			return opts, cleanup, fmt.Errorf("unknown dump format %q", f.dumpFormat)
		}
		opts.Dump = &session.DumpRequest{Start: start, Len: length, Format: format, Output: f.dumpOutput}
	}
	return opts, cleanup, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
