package dolphin

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroframe/retroframe/pkg/emulator"
)

// GameCube disc header layout.
const (
	offGameCode  = 0x00 // 4 bytes
	offMakerCode = 0x04 // 2 bytes
	offDisc      = 0x06
	offVersion   = 0x07
	offStreaming = 0x08
	offTitle     = 0x20
	titleMax     = 0x80

	headerLen = offTitle + titleMax
)

var cisoMagic = []byte("CISO")

// parseHeader reads disc metadata straight from the image, without any
// external binary. Compressed containers whose header block cannot be
// reached degrade to metadata derived from the file name, never to an
// error.
func parseHeader(path string) emulator.Metadata {
	fallback := emulator.Metadata{
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	var off int64
	magic := make([]byte, 4)
	if _, err := f.ReadAt(magic, 0); err != nil {
		return fallback
	}
	switch {
	case string(magic) == string(cisoMagic):
		// The first data block follows the 32 KiB block map.
		off = 0x8000
	case binary.LittleEndian.Uint32(magic) == 0xB10BC001, // gcz
		string(magic[:3]) == "RVZ",
		string(magic[:3]) == "WIA":
		// Compressed container, header block not reachable directly.
		return fallback
	}

	raw := make([]byte, headerLen)
	if _, err := f.ReadAt(raw, off); err != nil {
		return fallback
	}
	md := emulator.Metadata{
		GameCode:  printable(raw[offGameCode : offGameCode+4]),
		MakerCode: printable(raw[offMakerCode : offMakerCode+2]),
		Disc:      raw[offDisc],
		Version:   raw[offVersion],
		Streaming: raw[offStreaming] != 0,
		Title:     printable(raw[offTitle : offTitle+titleMax]),
	}
	if md.Title == "" {
		md.Title = fallback.Title
	}
	return md
}

// printable trims the NUL tail and rejects garbage from non-header data.
func printable(b []byte) string {
	s := strings.TrimRight(string(b), "\x00")
	for _, r := range s {
		if r < 0x20 || r > 0x7E {
			return ""
		}
	}
	return strings.TrimSpace(s)
}
