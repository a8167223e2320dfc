package session

import (
	"testing"
)

func TestParseWatch(t *testing.T) {
	tests := []struct {
		in   string
		want Watch
		err  bool
	}{
		{"board:0xC0A0:200", Watch{"board", 0xC0A0, 200}, false},
		{"state:49664:0x20", Watch{"state", 49664, 32}, false},
		{"noparts", Watch{}, true},
		{"a:b:c", Watch{}, true},
		{":0x10:4", Watch{}, true},
		{"zero:0x10:0", Watch{}, true},
	}
	for _, tc := range tests {
		got, err := ParseWatch(tc.in)
		if tc.err {
			if err == nil {
				t.Errorf("ParseWatch(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseWatch(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseWatch(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseRange(t *testing.T) {
	start, n, err := ParseRange("0xC000:0x100")
	if err != nil {
		t.Fatal(err)
	}
	if start != 0xC000 || n != 0x100 {
		t.Errorf("ParseRange = %#x:%d", start, n)
	}
	for _, bad := range []string{"0xC000", "1:2:3", "x:4", "8:0"} {
		if _, _, err := ParseRange(bad); err == nil {
			t.Errorf("ParseRange(%q): expected error", bad)
		}
	}
}

func TestHexUpper(t *testing.T) {
	if got := hexUpper([]byte{0x00, 0xAB, 0xFF}); got != "00ABFF" {
		t.Errorf("hexUpper = %q", got)
	}
}
