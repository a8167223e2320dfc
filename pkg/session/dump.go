package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/retroframe/retroframe/pkg/emulator"
)

type DumpFormat int

const (
	DumpHex DumpFormat = iota
	DumpBinary
)

// DumpRequest is a queued one-shot memory dump, executed once when the
// session reaches its terminating state.
type DumpRequest struct {
	Start  uint
	Len    int
	Format DumpFormat
	// Output is a file path; empty means stdout.
	Output string
}

// ParseRange parses the START:LEN form shared by dump requests.
func ParseRange(s string) (uint, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, &emulator.ValidationError{Field: "range", Detail: fmt.Sprintf("%q is not START:LEN", s)}
	}
	start, err := parseNum(parts[0])
	if err != nil {
		return 0, 0, &emulator.ValidationError{Field: "range", Detail: fmt.Sprintf("bad start %q", parts[0])}
	}
	length, err := parseNum(parts[1])
	if err != nil || length == 0 {
		return 0, 0, &emulator.ValidationError{Field: "range", Detail: fmt.Sprintf("bad length %q", parts[1])}
	}
	return uint(start), int(length), nil
}

// execute reads the range and writes the dump. The memory read happens
// before any output is created, so an unsupported backend never leaves
// a partial file behind.
func (d DumpRequest) execute(emu emulator.Emulator) error {
	data, err := emu.ReadMemory(d.Start, d.Len)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if d.Output != "" {
		f, err := os.Create(d.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if d.Format == DumpBinary {
		_, err := w.Write(data)
		return err
	}
	return writeHexTable(w, d.Start, data)
}

// isUnsupported reports whether the dump failed only because the
// backend cannot expose memory.
func isUnsupported(err error) bool {
	return errors.Is(err, emulator.ErrUnsupportedOperation)
}

func writeHexTable(w io.Writer, start uint, data []byte) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Dumping %d bytes from 0x%04X\n", len(data), start)
	for row := 0; row < len(data); row += 16 {
		fmt.Fprintf(bw, "0x%04X:", start+uint(row))
		end := row + 16
		if end > len(data) {
			end = len(data)
		}
		for _, b := range data[row:end] {
			fmt.Fprintf(bw, " %02X", b)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
