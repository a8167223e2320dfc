// Package handheld runs Game Boy class images on an in-tree interpreter
// with banked cartridge memory and battery-backed saves.
package handheld

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/logger"
	xos "github.com/retroframe/retroframe/pkg/os"
)

const addressSpace = 0x10000

var frameDuration = emulator.FramePeriod(FPS)

// Handheld adapts the in-tree handheld machine to the backend contract.
// Each instance owns its machine exclusively.
type Handheld struct {
	log     *logger.Logger
	romPath string
	cart    *cartridge
	m       *machine
	pending *emulator.FrameOutput
	closed  bool
}

func New(romPath string, log *logger.Logger) (*Handheld, error) {
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	cart, err := newCartridge(rom)
	if err != nil {
		return nil, fmt.Errorf("parse image: %w", err)
	}
	h := &Handheld{
		log:     log.Extend(log.With().Str("m", "handheld")),
		romPath: romPath,
		cart:    cart,
		m:       newMachine(cart),
	}
	if cart.battery {
		if err := h.RestoreState(""); err != nil {
			return nil, err
		}
	}
	h.log.Info().
		Str("title", cart.title).
		Int("banks", cart.banks()).
		Bool("battery", cart.battery).
		Msg("cartridge loaded")
	return h, nil
}

func (h *Handheld) Reset() error {
	if h.closed {
		return emulator.ErrClosed
	}
	h.m.powerOn()
	h.pending = nil
	return nil
}

func (h *Handheld) StepFrame(in emulator.InputState) (*emulator.FrameOutput, error) {
	if h.closed {
		return nil, emulator.ErrClosed
	}
	if f := h.pending; f != nil {
		h.pending = nil
		return f, nil
	}
	h.applyInput(in)
	h.m.run(CyclesPerFrame - h.m.frameCycle)
	return h.frame(), nil
}

func (h *Handheld) StepCycles(n uint64) error {
	if h.closed {
		return emulator.ErrClosed
	}
	if h.m.run(n) {
		// Boundary crossed mid-call: latch the frame so the next
		// StepFrame returns it instead of producing a second one.
		h.pending = h.frame()
	}
	return nil
}

func (h *Handheld) frame() *emulator.FrameOutput {
	return &emulator.FrameOutput{
		Video:    h.m.render(),
		Audio:    h.m.sound(),
		Duration: frameDuration,
	}
}

func (h *Handheld) applyInput(in emulator.InputState) {
	dirs, btns := byte(0x0F), byte(0x0F)
	press := func(mask *byte, bit byte, b emulator.Button) {
		if in.Pressed(b) {
			*mask &^= 1 << bit
		}
	}
	press(&dirs, 0, emulator.BtnRight)
	press(&dirs, 1, emulator.BtnLeft)
	press(&dirs, 2, emulator.BtnUp)
	press(&dirs, 3, emulator.BtnDown)
	press(&btns, 0, emulator.BtnA)
	press(&btns, 1, emulator.BtnB)
	press(&btns, 2, emulator.BtnSelect)
	press(&btns, 3, emulator.BtnStart)
	h.m.dirs, h.m.btns = dirs, btns
}

func (h *Handheld) ReadMemory(addr uint, n int) ([]byte, error) {
	if h.closed {
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
		out[i] = h.m.read(uint16(addr + uint(i)))
	}
	return out, nil
}

func (h *Handheld) WriteMemory(addr uint, data []byte) error {
	if h.closed {
		return emulator.ErrClosed
	}
	if addr+uint(len(data)) > addressSpace {
		return &emulator.ValidationError{
			Field:  "address range",
			Detail: fmt.Sprintf("0x%X+%d exceeds 0x%X", addr, len(data), addressSpace),
		}
	}
	for i, b := range data {
		h.m.write(uint16(addr+uint(i)), b)
	}
	return nil
}

func (h *Handheld) savePath() string {
	return strings.TrimSuffix(h.romPath, filepath.Ext(h.romPath)) + ".sav"
}

func (h *Handheld) PersistState(path string) error {
	if !h.cart.battery || h.cart.ramSize == 0 {
		return nil
	}
	if path == "" {
		path = h.savePath()
	}
	if err := xos.WriteFile(path, h.m.eram[:h.cart.ramSize], 0o644); err != nil {
		return fmt.Errorf("persist battery state: %w", err)
	}
	h.log.Debug().Str("path", path).Msg("battery state saved")
	return nil
}

func (h *Handheld) RestoreState(path string) error {
	if !h.cart.battery || h.cart.ramSize == 0 {
		return nil
	}
	if path == "" {
		path = h.savePath()
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore battery state: %w", err)
	}
	copy(h.m.eram[:h.cart.ramSize], data)
	return nil
}

func (h *Handheld) Caps() emulator.Capabilities {
	return emulator.Capabilities{
		Memory:       true,
		AddressSpace: addressSpace,
		Cycles:       true,
		Persistent:   h.cart.battery,
	}
}

func (h *Handheld) Metadata() emulator.Metadata {
	return emulator.Metadata{Title: h.cart.title}
}

func (h *Handheld) Properties() emulator.Properties {
	return emulator.Properties{Width: Width, Height: Height, FPS: FPS, SampleRate: SampleRate, ClockHz: ClockHz}
}

func (h *Handheld) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.PersistState("")
}
