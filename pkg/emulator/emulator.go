// Package emulator defines the capability contract every backend must
// satisfy in order to be driven by the session runtime: in-process
// interpreters, native plugin sets and external process delegates all
// expose the same surface, and callers branch only on the capabilities a
// handle reports, never on what kind of backend produced it.
package emulator

import (
	img "image"
	"time"
)

// Emulator is one running backend instance. A handle is exclusively
// owned, never copied, and must be closed exactly once; Close releases
// whatever native resources back the handle (loaded libraries, child
// processes).
type Emulator interface {
	// Reset returns the backend to its power-on state. Idempotent.
	Reset() error

	// StepFrame advances exactly one display frame, applying in at the
	// start of the frame. The returned frame buffer is only valid until
	// the next StepFrame call. A *FaultError return means the handle is
	// dead: no further stepping may be attempted and the session must
	// tear it down.
	StepFrame(in InputState) (*FrameOutput, error)

	// StepCycles advances a precise number of execution cycles for
	// backends with sub-frame granularity. Backends without it return
	// ErrUnsupportedOperation.
	StepCycles(n uint64) error

	// ReadMemory reads n bytes starting at addr from the backend's
	// address space, resolving any currently mapped banks. Backends that
	// cannot expose memory return ErrUnsupportedOperation.
	ReadMemory(addr uint, n int) ([]byte, error)

	// WriteMemory writes data into the backend's address space.
	WriteMemory(addr uint, data []byte) error

	// PersistState writes battery-backed state next to the source image
	// (or under the given path when not empty). Backends without
	// persistent storage report success and do nothing.
	PersistState(path string) error

	// RestoreState is the inverse of PersistState. A missing save file is
	// not an error.
	RestoreState(path string) error

	// Caps reports what this handle supports. The session uses it to
	// validate watch descriptors and to skip unsupported automation
	// features; it never identifies the backend kind.
	Caps() Capabilities

	// Close tears the handle down. A closed handle cannot be reused.
	Close() error
}

// Capabilities describes the optional parts of the contract a handle
// implements.
type Capabilities struct {
	// Memory reports whether ReadMemory/WriteMemory work.
	Memory bool
	// AddressSpace is the number of addressable bytes when Memory is set.
	AddressSpace uint
	// Cycles reports whether StepCycles works.
	Cycles bool
	// Persistent reports whether PersistState writes anything.
	Persistent bool
}

// FrameOutput is the result of stepping one frame.
type FrameOutput struct {
	// Video is produced by the backend and stable for one tick only; the
	// presentation layer must copy or blit it before the next step.
	Video *img.RGBA
	// Audio holds the interleaved stereo samples produced this frame.
	Audio []int16
	// Duration is the nominal wall time this frame represents.
	Duration time.Duration
}

// FramePeriod converts a display rate into the wall time of one frame.
func FramePeriod(fps float64) time.Duration {
	return time.Duration(float64(time.Second) / fps)
}

// Metadata describes the loaded image for display purposes. It is
// read-only for the session; only backends that parse an image header
// provide it (see the MetadataProvider interface).
type Metadata struct {
	Title     string
	GameCode  string
	MakerCode string
	Disc      uint8
	Version   uint8
	Streaming bool
	// External reports whether an external binary is executing the image
	// (as opposed to the metadata stub).
	External bool
}

// MetadataProvider is implemented by backends that extract display
// metadata from the image header.
type MetadataProvider interface {
	Metadata() Metadata
}

// Properties are the fixed display/audio characteristics of a handle,
// needed by the session for pacing and presentation.
type Properties struct {
	Width      int
	Height     int
	FPS        float64
	SampleRate int
	// ClockHz is the core clock rate for backends with cycle stepping,
	// zero otherwise.
	ClockHz int
}

// PropertiesProvider is implemented by every backend in this repository;
// it is separate from Emulator so the contract stays minimal for tests.
type PropertiesProvider interface {
	Properties() Properties
}
