package handheld

import (
	"fmt"
	"strings"
)

const (
	headerTitle   = 0x134
	headerType    = 0x147
	headerRomSize = 0x148
	headerRamSize = 0x149

	bankSize = 0x4000
)

// cartridge is a parsed ROM image plus its bank state.
type cartridge struct {
	rom     []byte
	title   string
	battery bool
	ramSize int
	bank    int
}

// batteryTypes are the cartridge type codes declaring battery-backed RAM.
var batteryTypes = map[byte]bool{
	0x03: true, 0x06: true, 0x09: true, 0x0D: true, 0x0F: true,
	0x10: true, 0x13: true, 0x1B: true, 0x1E: true, 0x22: true, 0xFF: true,
}

// ramSizes maps the header code to banked RAM bytes. Sizes beyond one
// 32KiB window are clamped to it, larger carts are not banked here.
var ramSizes = map[byte]int{
	0x00: 0,
	0x01: 0x800,
	0x02: 0x2000,
	0x03: 0x8000,
	0x04: 0x8000,
	0x05: 0x8000,
}

func newCartridge(rom []byte) (*cartridge, error) {
	if len(rom) < 0x150 {
		return nil, fmt.Errorf("image too small: %d bytes", len(rom))
	}
	title := strings.TrimRight(string(rom[headerTitle:headerTitle+16]), "\x00")
	return &cartridge{
		rom:     rom,
		title:   strings.TrimSpace(title),
		battery: batteryTypes[rom[headerType]],
		ramSize: ramSizes[rom[headerRamSize]],
		bank:    1,
	}, nil
}

func (c *cartridge) banks() int {
	n := len(c.rom) / bankSize
	if n < 2 {
		n = 2
	}
	return n
}

// selectBank handles writes to the 0x2000-0x3FFF bank select range.
// Bank 0 maps to 1, as the hardware does.
func (c *cartridge) selectBank(v byte) {
	b := int(v) % c.banks()
	if b == 0 {
		b = 1
	}
	c.bank = b
}

// read resolves the currently mapped bank for the switchable window.
func (c *cartridge) read(addr uint16) byte {
	var off int
	switch {
	case addr < bankSize:
		off = int(addr)
	default:
		off = c.bank*bankSize + int(addr-bankSize)
	}
	if off >= len(c.rom) {
		return 0xFF
	}
	return c.rom[off]
}
