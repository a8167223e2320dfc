package media

import (
	"reflect"
	"testing"
)

func seq(from, n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(from + i)
	}
	return s
}

func TestRingWriteRead(t *testing.T) {
	r := NewRing(8)
	r.Write(seq(0, 6))
	if r.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", r.Len())
	}
	out := make([]int16, 4)
	if n := r.Read(out); n != 4 {
		t.Fatalf("Read() = %d, want 4", n)
	}
	if !reflect.DeepEqual(out, seq(0, 4)) {
		t.Errorf("read %v, want %v", out, seq(0, 4))
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRingDropsOldest(t *testing.T) {
	r := NewRing(8)
	r.Write(seq(0, 8))
	r.Write(seq(8, 4))
	if r.Dropped() != 4 {
		t.Fatalf("Dropped() = %d, want 4", r.Dropped())
	}
	out := make([]int16, 8)
	if n := r.Read(out); n != 8 {
		t.Fatalf("Read() = %d, want 8", n)
	}
	if !reflect.DeepEqual(out, seq(4, 8)) {
		t.Errorf("read %v, want %v", out, seq(4, 8))
	}
}

func TestRingOversizedWrite(t *testing.T) {
	r := NewRing(4)
	r.Write(seq(0, 10))
	out := make([]int16, 4)
	if n := r.Read(out); n != 4 {
		t.Fatalf("Read() = %d, want 4", n)
	}
	if !reflect.DeepEqual(out, seq(6, 4)) {
		t.Errorf("read %v, want %v", out, seq(6, 4))
	}
}

func TestRingShortRead(t *testing.T) {
	r := NewRing(8)
	r.Write(seq(0, 2))
	out := make([]int16, 8)
	if n := r.Read(out); n != 2 {
		t.Errorf("Read() = %d, want 2", n)
	}
	if n := r.Read(out); n != 0 {
		t.Errorf("Read() on empty = %d, want 0", n)
	}
}

func TestRingOddCapacityRoundsUp(t *testing.T) {
	r := NewRing(7)
	r.Write(seq(0, 8))
	if r.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", r.Dropped())
	}
}
