package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/retroframe/retroframe/pkg/emulator"
)

// Watch is a named memory range re-read and emitted after every
// completed frame.
type Watch struct {
	Name  string
	Start uint
	Len   int
}

// ParseWatch parses the NAME:START:LEN form. Numbers are decimal or
// 0x-prefixed hex.
func ParseWatch(s string) (Watch, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Watch{}, &emulator.ValidationError{Field: "watch", Detail: fmt.Sprintf("%q is not NAME:START:LEN", s)}
	}
	if parts[0] == "" {
		return Watch{}, &emulator.ValidationError{Field: "watch", Detail: "empty name"}
	}
	start, err := parseNum(parts[1])
	if err != nil {
		return Watch{}, &emulator.ValidationError{Field: "watch", Detail: fmt.Sprintf("bad start %q", parts[1])}
	}
	length, err := parseNum(parts[2])
	if err != nil || length == 0 {
		return Watch{}, &emulator.ValidationError{Field: "watch", Detail: fmt.Sprintf("bad length %q", parts[2])}
	}
	return Watch{Name: parts[0], Start: uint(start), Len: int(length)}, nil
}

func parseNum(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// validate checks the range against the backend's address space.
func (w Watch) validate(caps emulator.Capabilities) error {
	if !caps.Memory {
		return emulator.ErrUnsupportedOperation
	}
	if w.Start+uint(w.Len) > caps.AddressSpace {
		return &emulator.ValidationError{
			Field:  "watch " + w.Name,
			Detail: fmt.Sprintf("0x%X+%d exceeds address space 0x%X", w.Start, w.Len, caps.AddressSpace),
		}
	}
	return nil
}

type watchEntry struct {
	Name    string `json:"name"`
	Start   uint   `json:"start"`
	DataHex string `json:"data_hex"`
}

type watchRecord struct {
	Frame   uint64       `json:"frame"`
	Watches []watchEntry `json:"watches"`
}

// watchStream emits one JSON line per completed frame, flushed per
// record so consumers can tail the output.
type watchStream struct {
	watches []Watch
	w       *bufio.Writer
	enc     *json.Encoder
}

func newWatchStream(out io.Writer, watches []Watch) *watchStream {
	w := bufio.NewWriter(out)
	return &watchStream{watches: watches, w: w, enc: json.NewEncoder(w)}
}

// emit reads every watch and appends one record for the given frame.
func (s *watchStream) emit(frame uint64, emu emulator.Emulator) error {
	rec := watchRecord{Frame: frame, Watches: make([]watchEntry, 0, len(s.watches))}
	for _, w := range s.watches {
		data, err := emu.ReadMemory(w.Start, w.Len)
		if err != nil {
			return err
		}
		rec.Watches = append(rec.Watches, watchEntry{
			Name:    w.Name,
			Start:   w.Start,
			DataHex: hexUpper(data),
		})
	}
	if err := s.enc.Encode(rec); err != nil {
		return err
	}
	return s.w.Flush()
}

func hexUpper(data []byte) string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, len(data)*2)
	for i, b := range data {
		out[i*2] = digits[b>>4]
		out[i*2+1] = digits[b&0xF]
	}
	return string(out)
}
