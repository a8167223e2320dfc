package handheld

import (
	"image"
	"image/color"
)

// Display and timing constants of the handheld class.
const (
	Width  = 160
	Height = 144

	ClockHz        = 4194304
	CyclesPerFrame = 70224
	FPS            = float64(ClockHz) / float64(CyclesPerFrame)

	SampleRate = 44100
)

// I/O registers the machine models.
const (
	regJoy  = 0xFF00
	regCh1F = 0xFF13 // tone low bits
	regCh1C = 0xFF14 // tone high bits + trigger
	regLY   = 0xFF44
	regBGP  = 0xFF47
	regCtl  = 0xFF26 // sound on/off
)

// machine is a deterministic reference interpreter with the memory map
// of the original handheld. Video is rendered from the tile data and
// tile map in VRAM, audio from the channel-1 tone registers, so all
// output is a pure function of machine state.
type machine struct {
	cart *cartridge
	vram [0x2000]byte
	eram [0x8000]byte
	wram [0x2000]byte
	hram [0x7F]byte
	io   [0x80]byte

	// active-low button nibbles, composed through the joypad register
	dirs byte
	btns byte

	cycles     uint64 // total cycles since reset
	frameCycle uint64 // cycles into the current frame
	frames     uint64
	audioFrac  int
}

func newMachine(cart *cartridge) *machine {
	m := &machine{cart: cart}
	m.powerOn()
	return m
}

func (m *machine) powerOn() {
	clear(m.vram[:])
	clear(m.wram[:])
	clear(m.hram[:])
	clear(m.io[:])
	m.io[regBGP&0x7F] = 0xFC
	m.dirs, m.btns = 0x0F, 0x0F
	m.cart.bank = 1
	m.cycles, m.frameCycle, m.frames, m.audioFrac = 0, 0, 0, 0
}

func (m *machine) read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		return m.cart.read(addr)
	case addr < 0xA000:
		return m.vram[addr-0x8000]
	case addr < 0xC000:
		if m.cart.ramSize == 0 {
			return 0xFF
		}
		return m.eram[int(addr-0xA000)%m.cart.ramSize]
	case addr < 0xE000:
		return m.wram[addr-0xC000]
	case addr < 0xFE00: // echo RAM
		return m.wram[addr-0xE000]
	case addr >= 0xFF00 && addr < 0xFF80:
		switch addr {
		case regLY:
			return byte(m.frameCycle / 456 % 154)
		case regJoy:
			sel := m.io[0] & 0x30
			v := 0xC0 | sel | 0x0F
			if sel&0x10 == 0 {
				v &= 0xF0 | m.dirs
			}
			if sel&0x20 == 0 {
				v &= 0xF0 | m.btns
			}
			return v
		}
		return m.io[addr-0xFF00]
	case addr >= 0xFF80 && addr < 0xFFFF:
		return m.hram[addr-0xFF80]
	}
	return 0xFF
}

func (m *machine) write(addr uint16, v byte) {
	switch {
	case addr >= 0x2000 && addr < 0x4000:
		m.cart.selectBank(v)
	case addr >= 0x8000 && addr < 0xA000:
		m.vram[addr-0x8000] = v
	case addr >= 0xA000 && addr < 0xC000:
		if m.cart.ramSize > 0 {
			m.eram[int(addr-0xA000)%m.cart.ramSize] = v
		}
	case addr >= 0xC000 && addr < 0xE000:
		m.wram[addr-0xC000] = v
	case addr >= 0xE000 && addr < 0xFE00:
		m.wram[addr-0xE000] = v
	case addr >= 0xFF00 && addr < 0xFF80:
		m.io[addr-0xFF00] = v
	case addr >= 0xFF80 && addr < 0xFFFF:
		m.hram[addr-0xFF80] = v
	}
}

// run advances n cycles and returns true when a frame boundary was
// crossed. A boundary reached mid-call latches exactly one frame.
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

var shades = [4]color.RGBA{
	{0xE0, 0xF8, 0xD0, 0xFF},
	{0x88, 0xC0, 0x70, 0xFF},
	{0x34, 0x68, 0x56, 0xFF},
	{0x08, 0x18, 0x20, 0xFF},
}

// render draws the background layer: the 32x32 tile map at 0x9800 over
// 2bpp tile data at 0x8000, through the palette register.
func (m *machine) render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	bgp := m.io[regBGP&0x7F]
	for ty := 0; ty < Height/8; ty++ {
		for tx := 0; tx < Width/8; tx++ {
			tile := m.vram[0x1800+ty*32+tx]
			base := int(tile) * 16
			for row := 0; row < 8; row++ {
				lo, hi := m.vram[base+row*2], m.vram[base+row*2+1]
				for col := 0; col < 8; col++ {
					bit := 7 - col
					px := (lo>>bit)&1 | ((hi>>bit)&1)<<1
					shade := (bgp >> (px * 2)) & 3
					img.SetRGBA(tx*8+col, ty*8+row, shades[shade])
				}
			}
		}
	}
	return img
}

// sound synthesizes one frame of stereo samples from the channel-1
// tone registers. Silence when the master enable bit is clear.
func (m *machine) sound() []int16 {
	want := SampleRate*CyclesPerFrame + m.audioFrac
	n := want / ClockHz
	m.audioFrac = want % ClockHz
	out := make([]int16, n*2)

	if m.io[regCtl&0x7F]&0x80 == 0 {
		return out
	}
	raw := int(m.io[regCh1C&0x7F]&0x07)<<8 | int(m.io[regCh1F&0x7F])
	hz := 131072 / (2048 - raw)
	period := SampleRate / maxInt(hz, 1)
	if period < 2 {
		period = 2
	}
	phase := int(m.frames) * n
	for i := 0; i < n; i++ {
		var s int16
		if (phase+i)%period < period/2 {
			s = 6000
		} else {
			s = -6000
		}
		out[i*2], out[i*2+1] = s, s
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
