// Package console runs NES class images on an in-tree interpreter.
// The console has no battery storage, so state persistence is a no-op.
package console

import (
	"fmt"
	"os"

	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/logger"
)

const addressSpace = 0x10000

var frameDuration = emulator.FramePeriod(FPS)

type Console struct {
	log     *logger.Logger
	m       *machine
	pending *emulator.FrameOutput
	closed  bool
}

func New(romPath string, log *logger.Logger) (*Console, error) {
	data, err := os.ReadFile(romPath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	r, err := parseROM(data)
	if err != nil {
		return nil, fmt.Errorf("parse image: %w", err)
	}
	c := &Console{
		log: log.Extend(log.With().Str("m", "console")),
		m:   newMachine(r),
	}
	c.log.Info().
		Int("prg", len(r.prg)).
		Int("chr", len(r.chr)).
		Msg("image loaded")
	return c, nil
}

func (c *Console) Reset() error {
	if c.closed {
		return emulator.ErrClosed
	}
	c.m.powerOn()
	c.pending = nil
	return nil
}

func (c *Console) StepFrame(in emulator.InputState) (*emulator.FrameOutput, error) {
	if c.closed {
		return nil, emulator.ErrClosed
	}
	if f := c.pending; f != nil {
		c.pending = nil
		return f, nil
	}
	c.m.pad = packInput(in)
	c.m.run(CyclesPerFrame - c.m.frameCycle)
	return c.frame(), nil
}

func (c *Console) StepCycles(n uint64) error {
	if c.closed {
		return emulator.ErrClosed
	}
	if c.m.run(n) {
		c.pending = c.frame()
	}
	return nil
}

func (c *Console) frame() *emulator.FrameOutput {
	return &emulator.FrameOutput{
		Video:    c.m.render(),
		Audio:    c.m.sound(),
		Duration: frameDuration,
	}
}

// packInput arranges buttons in the console's controller bit order:
// A, B, Select, Start, Up, Down, Left, Right.
func packInput(in emulator.InputState) byte {
	order := [8]emulator.Button{
		emulator.BtnA, emulator.BtnB, emulator.BtnSelect, emulator.BtnStart,
		emulator.BtnUp, emulator.BtnDown, emulator.BtnLeft, emulator.BtnRight,
	}
	var v byte
	for i, b := range order {
		if in.Pressed(b) {
			v |= 1 << i
		}
	}
	return v
}

func (c *Console) ReadMemory(addr uint, n int) ([]byte, error) {
	if c.closed {
		return nil, emulator.ErrClosed
	}
	if n < 0 || addr+uint(n) > addressSpace {
		return nil, &emulator.ValidationError{
			Field:  "address range",
			Detail: fmt.Sprintf("0x%X+%d exceeds 0x%X", addr, n, addressSpace),
		}
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = c.m.read(uint16(addr + uint(i)))
	}
	return out, nil
}

func (c *Console) WriteMemory(addr uint, data []byte) error {
	if c.closed {
		return emulator.ErrClosed
	}
	if addr+uint(len(data)) > addressSpace {
		return &emulator.ValidationError{
			Field:  "address range",
			Detail: fmt.Sprintf("0x%X+%d exceeds 0x%X", addr, len(data), addressSpace),
		}
	}
	for i, b := range data {
		c.m.write(uint16(addr+uint(i)), b)
	}
	return nil
}

func (c *Console) PersistState(string) error { return nil }
func (c *Console) RestoreState(string) error { return nil }

func (c *Console) Caps() emulator.Capabilities {
	return emulator.Capabilities{
		Memory:       true,
		AddressSpace: addressSpace,
		Cycles:       true,
	}
}

func (c *Console) Properties() emulator.Properties {
	return emulator.Properties{Width: Width, Height: Height, FPS: FPS, SampleRate: SampleRate, ClockHz: ClockHz}
}

func (c *Console) Close() error {
	c.closed = true
	return nil
}
