package console

import (
	"fmt"
	"image"
	"image/color"
)

const (
	Width  = 256
	Height = 240

	ClockHz        = 1789773
	CyclesPerFrame = 29781
	FPS            = 60.0988

	SampleRate = 44100
)

const inesHeaderLen = 16

var inesMagic = []byte{'N', 'E', 'S', 0x1A}

// rom is a parsed iNES image.
type rom struct {
	prg []byte
	chr []byte
}

func parseROM(data []byte) (*rom, error) {
	if len(data) < inesHeaderLen {
		return nil, fmt.Errorf("image too small: %d bytes", len(data))
	}
	for i, b := range inesMagic {
		if data[i] != b {
			return nil, fmt.Errorf("bad iNES magic")
		}
	}
	prgLen := int(data[4]) * 0x4000
	chrLen := int(data[5]) * 0x2000
	body := data[inesHeaderLen:]
	if len(body) < prgLen+chrLen {
		return nil, fmt.Errorf("image truncated: want %d body bytes, have %d", prgLen+chrLen, len(body))
	}
	return &rom{prg: body[:prgLen], chr: body[prgLen : prgLen+chrLen]}, nil
}

// prgRead maps 0x8000-0xFFFF, mirroring a single 16 KiB bank.
func (r *rom) prgRead(addr uint16) byte {
	if len(r.prg) == 0 {
		return 0xFF
	}
	return r.prg[int(addr-0x8000)%len(r.prg)]
}

// machine is a deterministic reference interpreter with the console's
// memory map. Video is rendered from the pattern tables, so output is a
// pure function of machine state.
type machine struct {
	rom *rom
	ram [0x800]byte
	ppu [8]byte
	pad byte // latched controller bits

	cycles     uint64
	frameCycle uint64
	frames     uint64
	audioFrac  int
}

func newMachine(r *rom) *machine {
	return &machine{rom: r}
}

func (m *machine) powerOn() {
	clear(m.ram[:])
	clear(m.ppu[:])
	m.pad = 0
	m.cycles, m.frameCycle, m.frames, m.audioFrac = 0, 0, 0, 0
}

func (m *machine) read(addr uint16) byte {
	switch {
	case addr < 0x2000: // 2 KiB RAM mirrored
		return m.ram[addr%0x800]
	case addr < 0x4000: // PPU registers mirrored every 8
		return m.ppu[addr%8]
	case addr == 0x4016:
		return m.pad
	case addr >= 0x8000:
		return m.rom.prgRead(addr)
	}
	return 0
}

func (m *machine) write(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		m.ram[addr%0x800] = v
	case addr < 0x4000:
		m.ppu[addr%8] = v
	case addr == 0x4016:
		m.pad = v
	}
}

func (m *machine) run(n uint64) bool {
	m.cycles += n
	m.frameCycle += n
	crossed := false
	for m.frameCycle >= CyclesPerFrame {
		m.frameCycle -= CyclesPerFrame
		m.frames++
		crossed = true
	}
	return crossed
}

var palette = [4]color.RGBA{
	{0x00, 0x00, 0x00, 0xFF},
	{0x55, 0x55, 0x55, 0xFF},
	{0xAA, 0xAA, 0xAA, 0xFF},
	{0xFF, 0xFF, 0xFF, 0xFF},
}

// render tiles the first pattern table across the screen, offset by the
// nametable base selected in PPUCTRL so register writes are visible.
func (m *machine) render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	if len(m.rom.chr) == 0 {
		return img
	}
	base := int(m.ppu[0]&0x10) << 8 // pattern table select
	for ty := 0; ty < Height/8; ty++ {
		for tx := 0; tx < Width/8; tx++ {
			tile := (ty*32 + tx) % 256
			off := (base + tile*16) % len(m.rom.chr)
			for row := 0; row < 8; row++ {
				lo := m.rom.chr[(off+row)%len(m.rom.chr)]
				hi := m.rom.chr[(off+row+8)%len(m.rom.chr)]
				for col := 0; col < 8; col++ {
					bit := 7 - col
					px := (lo>>bit)&1 | ((hi>>bit)&1)<<1
					img.SetRGBA(tx*8+col, ty*8+row, palette[px])
				}
			}
		}
	}
	return img
}

// sound produces one frame of silence at the nominal sample cadence,
// carrying the fractional sample remainder between frames.
func (m *machine) sound() []int16 {
	want := SampleRate*CyclesPerFrame + m.audioFrac
	n := want / ClockHz
	m.audioFrac = want % ClockHz
	return make([]int16, n*2)
}
