// Package registry maps image files to backend kinds. Resolution is a
// pure function of the file's extension and, for extensions shared
// between console families, a fixed-size header sniff; it never consults
// the environment.
package registry

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind identifies a supported backend architecture.
type Kind int

const (
	Handheld Kind = iota
	Console
	Nintendo64
	GameCube
	PlayStation
)

func (k Kind) String() string {
	switch k {
	case Handheld:
		return "Game Boy"
	case Console:
		return "NES"
	case Nintendo64:
		return "Nintendo 64"
	case GameCube:
		return "GameCube"
	case PlayStation:
		return "PlayStation"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Requirement names the assets a kind needs beyond the image itself.
type Requirement int

const (
	// NeedsNothing marks kinds executed fully in-process.
	NeedsNothing Requirement = iota
	// NeedsPluginSet marks kinds backed by a native plugin directory.
	NeedsPluginSet
	// NeedsExternalBinary marks kinds preferring an external emulator
	// binary, with a metadata stub fallback.
	NeedsExternalBinary
)

func (k Kind) Requirement() Requirement {
	switch k {
	case Nintendo64:
		return NeedsPluginSet
	case GameCube, PlayStation:
		return NeedsExternalBinary
	}
	return NeedsNothing
}

// UnsupportedFormatError reports a file the registry cannot classify.
// It is fatal and surfaced before any backend is constructed.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q: %s", e.Path, e.Reason)
}

// sniffLen covers the GameCube boot header and the ISO9660 system area
// holding the PlayStation license text.
const sniffLen = 0x10000

// gcBootMagic sits at offset 0x1C of a GameCube boot header.
var gcBootMagic = []byte{0xC2, 0x33, 0x9F, 0x3D}

var psMarkers = [][]byte{
	[]byte("PS-X EXE"),
	[]byte("PLAYSTATION"),
	[]byte("Sony Computer Entertainment"),
}

// extKinds lists candidate kinds per extension in sniff priority order.
// A single candidate resolves on extension alone; multiple candidates
// require a header match with no extension-only fallback.
var extKinds = map[string][]Kind{
	"gb":  {Handheld},
	"gbc": {Handheld},
	"nes": {Console},
	"n64": {Nintendo64},
	"z64": {Nintendo64},
	"v64": {Nintendo64},
	"gcm": {GameCube},
	"gcz": {GameCube},
	"gcn": {GameCube},
	"rvz": {GameCube},
	"dol": {GameCube},
	"cue": {PlayStation},
	"exe": {PlayStation},
	"iso": {GameCube, PlayStation},
	"bin": {GameCube, PlayStation},
	// ciso is used by both families; the header starts with "CISO"
	// followed by the wrapped image, so the sniff still applies.
	"ciso": {GameCube, PlayStation},
}

// Resolve classifies the file at path, reading at most sniffLen header
// bytes when the extension alone is ambiguous.
func Resolve(path string) (Kind, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return 0, &UnsupportedFormatError{Path: path, Reason: "file has no extension"}
	}
	kinds, ok := extKinds[ext]
	if !ok {
		return 0, &UnsupportedFormatError{Path: path, Reason: fmt.Sprintf("unknown extension %q", ext)}
	}
	if len(kinds) == 1 {
		return kinds[0], nil
	}

	header, err := readHeader(path)
	if err != nil {
		return 0, &UnsupportedFormatError{Path: path, Reason: fmt.Sprintf("cannot read header: %v", err)}
	}
	return ResolveHeader(path, ext, header)
}

// ResolveHeader classifies an ambiguous extension from already-read
// header bytes. Exposed separately so callers holding the image in
// memory avoid a second read.
func ResolveHeader(path, ext string, header []byte) (Kind, error) {
	kinds, ok := extKinds[strings.ToLower(ext)]
	if !ok || len(kinds) < 2 {
		return 0, &UnsupportedFormatError{Path: path, Reason: fmt.Sprintf("extension %q is not ambiguous", ext)}
	}
	for _, k := range kinds {
		if sniff(k, header) {
			return k, nil
		}
	}
	return 0, &UnsupportedFormatError{Path: path, Reason: "header matches no known console family"}
}

func sniff(k Kind, header []byte) bool {
	switch k {
	case GameCube:
		return len(header) >= 0x20 && bytes.Equal(header[0x1C:0x20], gcBootMagic)
	case PlayStation:
		for _, m := range psMarkers {
			if bytes.Contains(header, m) {
				return true
			}
		}
	}
	return false
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// SupportedExtensions returns every recognized extension, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extKinds))
	for ext := range extKinds {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
