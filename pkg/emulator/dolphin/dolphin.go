// Package dolphin delegates disc images to an external emulator process
// (Dolphin for GameCube, DuckStation for PlayStation) while exposing the
// same backend contract as every other kind. Without a binary installed
// it still resolves, parses disc metadata and produces stub output.
package dolphin

import (
	"fmt"
	"os/exec"

	"github.com/retroframe/retroframe/pkg/config"
	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/logger"
)

var frameDuration = emulator.FramePeriod(stubFPS)

// Delegate is the external-process backend. The contract handle only
// ever drives the stub; the child process, when present, owns the real
// emulation.
type Delegate struct {
	log  *logger.Logger
	md   emulator.Metadata
	stub *stub
	cmd  *exec.Cmd
	wait bool

	closed bool
}

// NewGameCube resolves a GameCube disc image.
func NewGameCube(imagePath string, conf config.Dolphin, log *logger.Logger) (*Delegate, error) {
	md := parseHeader(imagePath)
	return newDelegate(imagePath, gamecubeProgram, md, conf, log)
}

// NewPlayStation resolves a PlayStation disc image. The delegate shares
// the GameCube plumbing; only binary discovery and metadata differ.
func NewPlayStation(imagePath string, conf config.Dolphin, log *logger.Logger) (*Delegate, error) {
	md := parseHeader(imagePath)
	md.GameCode, md.MakerCode = "", ""
	return newDelegate(imagePath, playstationProgram, md, conf, log)
}

func newDelegate(imagePath string, prog program, md emulator.Metadata, conf config.Dolphin, log *logger.Logger) (*Delegate, error) {
	d := &Delegate{
		log:  log.Extend(log.With().Str("m", "delegate")),
		md:   md,
		wait: conf.Wait,
	}

	lines := []string{md.Title}
	if md.GameCode != "" {
		lines = append(lines, fmt.Sprintf("%s-%s disc %d rev %d", md.GameCode, md.MakerCode, md.Disc+1, md.Version))
	}

	if bin := prog.findBinary(conf.Bin); bin != "" {
		args := append(append([]string{}, prog.batch...), imagePath)
		cmd := exec.Command(bin, args...)
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start %s: %w", bin, err)
		}
		d.cmd = cmd
		d.md.External = true
		d.log.Info().Str("bin", bin).Int("pid", cmd.Process.Pid).Msg("external core started")
	} else {
		lines = append(lines, "NO EXTERNAL CORE")
		d.log.Warn().Str("env", prog.env).Msg("no external core binary found, running the stub")
	}

	d.stub = newStub(lines)
	return d, nil
}

func (d *Delegate) Reset() error {
	if d.closed {
		return emulator.ErrClosed
	}
	d.stub.frame = 0
	return nil
}

func (d *Delegate) StepFrame(emulator.InputState) (*emulator.FrameOutput, error) {
	if d.closed {
		return nil, emulator.ErrClosed
	}
	return &emulator.FrameOutput{
		Video:    d.stub.render(),
		Audio:    d.stub.sound(),
		Duration: frameDuration,
	}, nil
}

func (d *Delegate) StepCycles(uint64) error {
	if d.closed {
		return emulator.ErrClosed
	}
	return emulator.ErrUnsupportedOperation
}

func (d *Delegate) ReadMemory(uint, int) ([]byte, error) {
	if d.closed {
		return nil, emulator.ErrClosed
	}
	return nil, emulator.ErrUnsupportedOperation
}

func (d *Delegate) WriteMemory(uint, []byte) error {
	if d.closed {
		return emulator.ErrClosed
	}
	return emulator.ErrUnsupportedOperation
}

// The external process manages its own saves.
func (d *Delegate) PersistState(string) error { return nil }
func (d *Delegate) RestoreState(string) error { return nil }

func (d *Delegate) Caps() emulator.Capabilities { return emulator.Capabilities{} }

func (d *Delegate) Metadata() emulator.Metadata { return d.md }

func (d *Delegate) Properties() emulator.Properties {
	return emulator.Properties{Width: stubWidth, Height: stubHeight, FPS: stubFPS, SampleRate: stubRate}
}

func (d *Delegate) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.cmd == nil {
		return nil
	}
	if d.wait {
		return d.cmd.Wait()
	}
	// Let the child live; it owns the user's play session.
	return d.cmd.Process.Release()
}
