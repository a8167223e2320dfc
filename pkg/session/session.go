// Package session owns one backend handle and drives it through the
// fixed-cadence run loop: input merge, stepping, presentation and the
// automation channel all happen on the loop's goroutine, once per frame.
package session

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"time"

	"github.com/gofrs/uuid"

	"github.com/retroframe/retroframe/pkg/config"
	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/emulator/registry"
	"github.com/retroframe/retroframe/pkg/logger"
	xos "github.com/retroframe/retroframe/pkg/os"
	"github.com/retroframe/retroframe/pkg/recorder"
)

// State is the session lifecycle phase.
type State int

const (
	Resolving State = iota
	BackendReady
	Running
	Paused
	Terminating
	Terminated
	Faulted
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case BackendReady:
		return "ready"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Terminating:
		return "terminating"
	case Terminated:
		return "terminated"
	case Faulted:
		return "faulted"
	}
	return "?"
}

// Presenter is the host-side surface a session renders into. The null
// presenter keeps headless runs on the exact same loop.
type Presenter interface {
	Present(frame *image.RGBA) error
	PlayAudio(samples []int16)
	// Poll drains host events, reporting the merged input state plus
	// quit and pause-toggle requests. Called once per frame boundary.
	Poll() (in emulator.InputState, quit, pauseToggle bool)
	Close() error
}

// Options selects per-run behavior on top of the app config.
type Options struct {
	// FrameLimit stops the loop after that many completed frames.
	FrameLimit uint64
	// CycleLimit runs the backend by cycle count instead of frames.
	CycleLimit uint64
	Uncapped   bool

	Watches  []Watch
	WatchOut io.Writer // defaults to stdout
	Dump     *DumpRequest
}

type Session struct {
	id   string
	log  *logger.Logger
	conf config.Config
	opts Options

	kind registry.Kind
	emu  emulator.Emulator

	presenter Presenter
	stream    *watchStream
	rec       *recorder.Recording

	state  State
	frames uint64
	last   *image.RGBA
}

// New resolves the image and constructs its backend. Watches are
// validated against the backend's capabilities here: an out-of-range
// watch closes the handle and the session never starts.
func New(romPath string, conf config.Config, opts Options, log *logger.Logger) (*Session, error) {
	id := uuid.Must(uuid.NewV4()).String()[:8]
	s := &Session{
		id:    id,
		log:   log.Extend(log.With().Str("s", id)),
		conf:  conf,
		opts:  opts,
		state: Resolving,
	}

	kind, emu, err := openBackend(romPath, conf.Emulator, s.log)
	if err != nil {
		return nil, err
	}
	s.kind, s.emu = kind, emu

	caps := emu.Caps()
	seen := make(map[string]struct{}, len(opts.Watches))
	for _, w := range opts.Watches {
		if _, dup := seen[w.Name]; dup {
			_ = emu.Close()
			return nil, &emulator.ValidationError{Field: "watch " + w.Name, Detail: "duplicate name"}
		}
		seen[w.Name] = struct{}{}
		if caps.Memory {
			if err := w.validate(caps); err != nil {
				_ = emu.Close()
				return nil, err
			}
		}
	}

	s.state = BackendReady
	s.log.Info().
		Str("kind", kind.String()).
		Str("title", metadata(emu).Title).
		Msg("backend ready")
	return s, nil
}

func (s *Session) ID() string                      { return s.id }
func (s *Session) State() State                    { return s.state }
func (s *Session) Frames() uint64                  { return s.frames }
func (s *Session) Backend() emulator.Emulator      { return s.emu }
func (s *Session) Properties() emulator.Properties { return properties(s.emu) }
func (s *Session) Metadata() emulator.Metadata     { return metadata(s.emu) }

// Attach sets the presentation surface. Must happen before Run.
func (s *Session) Attach(p Presenter) { s.presenter = p }

// Run drives the session to completion and returns the first fatal
// error, if any. The backend handle is closed exactly once regardless.
func (s *Session) Run() error {
	if s.state != BackendReady {
		return fmt.Errorf("session is %s, cannot run", s.state)
	}

	if s.conf.Recording.Enabled {
		props := properties(s.emu)
		rec, err := recorder.New(recorder.Options{
			Dir:       s.conf.Recording.Dir,
			Fps:       props.FPS,
			Frequency: props.SampleRate,
			Game:      metadata(s.emu).Title,
		})
		if err != nil {
			s.terminate(nil)
			return err
		}
		s.rec = rec
		s.log.Info().Str("dir", rec.Dir()).Msg("recording")
	}

	if len(s.opts.Watches) > 0 {
		if s.emu.Caps().Memory {
			out := s.opts.WatchOut
			if out == nil {
				out = os.Stdout
			}
			s.stream = newWatchStream(out, s.opts.Watches)
		} else {
			// Reported once, the session keeps running without it.
			s.log.Warn().Msg("watch stream unavailable: backend exposes no memory")
		}
	}

	err := s.loop()
	s.terminate(err)
	if err != nil {
		return err
	}
	return nil
}

func (s *Session) loop() error {
	props := properties(s.emu)
	ticker := time.NewTicker(emulator.FramePeriod(props.FPS))
	defer ticker.Stop()

	// A cycle budget is spent through the same loop, one frame's worth
	// of cycles per iteration, so presentation and the watch stream see
	// every completed frame of the run.
	var cyclesPerFrame, cyclesLeft uint64
	if s.opts.CycleLimit > 0 {
		if s.emu.Caps().Cycles && props.ClockHz > 0 {
			cyclesPerFrame = uint64(math.Round(float64(props.ClockHz) / props.FPS))
			cyclesLeft = s.opts.CycleLimit
		} else {
			s.log.Warn().Msg("cycle stepping unavailable, running frames")
		}
	}

	termination := xos.ExpectTermination()
	s.state = Running
	kind := s.kind.String()

	for {
		var in emulator.InputState
		if s.presenter != nil {
			var quit, pauseToggle bool
			in, quit, pauseToggle = s.presenter.Poll()
			if quit {
				return nil
			}
			if pauseToggle {
				s.togglePause()
			}
		}
		select {
		case <-termination:
			return nil
		default:
		}

		if s.state == Paused {
			if s.presenter != nil && s.last != nil {
				_ = s.presenter.Present(s.last)
			}
			<-ticker.C
			continue
		}

		start := time.Now()
		var frame *emulator.FrameOutput
		var err error
		if cyclesPerFrame > 0 {
			n := cyclesPerFrame
			if n > cyclesLeft {
				n = cyclesLeft
			}
			switch err = s.emu.StepCycles(n); {
			case err == nil:
				cyclesLeft -= n
				if n < cyclesPerFrame {
					// Sub-frame tail of the budget, nothing to emit.
					s.log.Info().Uint64("cycles", s.opts.CycleLimit).Msg("cycle budget done")
					return nil
				}
				// The boundary frame is latched, this does not step.
				frame, err = s.emu.StepFrame(in)
			case errors.Is(err, emulator.ErrUnsupportedOperation):
				s.log.Warn().Msg("cycle stepping unavailable, running frames")
				cyclesPerFrame, cyclesLeft = 0, 0
				frame, err = s.emu.StepFrame(in)
			}
		} else {
			frame, err = s.emu.StepFrame(in)
		}
		metricFrameTime.Observe(time.Since(start).Seconds())
		if err != nil {
			var fault *emulator.FaultError
			if errors.As(err, &fault) {
				s.state = Faulted
				metricFaults.WithLabelValues(kind).Inc()
			}
			return err
		}
		s.frames++
		metricFrames.WithLabelValues(kind).Inc()

		if s.presenter != nil {
			if err := s.presenter.Present(frame.Video); err != nil {
				return err
			}
			if len(frame.Audio) > 0 {
				s.presenter.PlayAudio(frame.Audio)
			}
		}
		s.last = frame.Video

		if s.rec != nil {
			if err := s.rec.WriteVideo(frame.Video, frame.Duration); err != nil {
				return err
			}
			if err := s.rec.WriteAudio(frame.Audio); err != nil {
				return err
			}
		}

		if s.stream != nil {
			// Zero-based: the first completed frame is record 0.
			if err := s.stream.emit(s.frames-1, s.emu); err != nil {
				if isUnsupported(err) {
					s.log.Warn().Msg("watch stream unavailable, disabling")
					s.stream = nil
				} else {
					return err
				}
			} else {
				metricWatchRecords.Inc()
			}
		}

		if cyclesPerFrame > 0 && cyclesLeft == 0 {
			s.log.Info().Uint64("cycles", s.opts.CycleLimit).Msg("cycle budget done")
			return nil
		}
		if s.opts.FrameLimit > 0 && s.frames >= s.opts.FrameLimit {
			return nil
		}
		if !s.opts.Uncapped {
			<-ticker.C
		}
	}
}

func (s *Session) togglePause() {
	switch s.state {
	case Running:
		s.state = Paused
		s.log.Info().Msg("paused")
	case Paused:
		s.state = Running
		s.log.Info().Msg("resumed")
	}
}

// terminate persists pending state, executes a queued dump and closes
// the handle. Safe against a faulted backend.
func (s *Session) terminate(runErr error) {
	if s.state != Faulted {
		s.state = Terminating
	}

	if s.state == Terminating {
		if err := s.emu.PersistState(""); err != nil {
			s.log.Error().Err(err).Msg("persist on close")
		}
		if d := s.opts.Dump; d != nil {
			if err := d.execute(s.emu); err != nil {
				if isUnsupported(err) {
					s.log.Warn().Msg("memory dump unavailable for this backend")
				} else {
					s.log.Error().Err(err).Msg("memory dump")
				}
			}
		}
	}

	if s.rec != nil {
		if err := s.rec.Close(); err != nil {
			s.log.Error().Err(err).Msg("recording close")
		}
	}
	if s.presenter != nil {
		_ = s.presenter.Close()
	}
	if err := s.emu.Close(); err != nil {
		s.log.Error().Err(err).Msg("backend close")
	}
	if s.state != Faulted {
		s.state = Terminated
	}
	s.log.Info().Uint64("frames", s.frames).Err(runErr).Msg("session finished")
}
