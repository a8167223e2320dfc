package emulator

// Button is a logical controller button in the canonical layout. Systems
// that lack a button simply ignore it.
type Button uint

const (
	BtnUp Button = iota
	BtnDown
	BtnLeft
	BtnRight
	BtnA
	BtnB
	BtnX
	BtnY
	BtnL
	BtnR
	BtnL2
	BtnR2
	BtnStart
	BtnSelect

	ButtonCount
)

var buttonNames = [ButtonCount]string{
	"up", "down", "left", "right",
	"a", "b", "x", "y",
	"l", "r", "l2", "r2",
	"start", "select",
}

func (b Button) String() string {
	if b < ButtonCount {
		return buttonNames[b]
	}
	return "?"
}

// Axis indexes into InputState.Axes.
type Axis uint

const (
	AxisLeftX Axis = iota
	AxisLeftY
	AxisCX
	AxisCY

	AxisCount
)

// InputState is the canonical per-tick controller snapshot: one bit per
// logical button, signed stick axes and analog triggers. It is a plain
// value; backends receive a fresh copy at each frame boundary and replay
// it on every input poll within that frame.
type InputState struct {
	Buttons  uint32
	Axes     [AxisCount]int16
	Triggers [2]uint8
}

func (s InputState) Pressed(b Button) bool { return s.Buttons>>uint(b)&1 == 1 }

func (s *InputState) Set(b Button, pressed bool) {
	if pressed {
		s.Buttons |= 1 << uint(b)
	} else {
		s.Buttons &^= 1 << uint(b)
	}
}

// Merge combines several input sources into one state: buttons are OR-ed,
// each axis takes the largest magnitude, triggers take the maximum.
func Merge(states ...InputState) InputState {
	var out InputState
	for _, s := range states {
		out.Buttons |= s.Buttons
		for i, v := range s.Axes {
			if abs16(v) > abs16(out.Axes[i]) {
				out.Axes[i] = v
			}
		}
		for i, v := range s.Triggers {
			if v > out.Triggers[i] {
				out.Triggers[i] = v
			}
		}
	}
	return out
}

func abs16(v int16) int32 {
	w := int32(v)
	if w < 0 {
		return -w
	}
	return w
}
