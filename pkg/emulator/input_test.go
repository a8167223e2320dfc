package emulator

import "testing"

func TestInputStateSetPressed(t *testing.T) {
	var s InputState
	for b := Button(0); b < ButtonCount; b++ {
		if s.Pressed(b) {
			t.Errorf("button %v pressed on zero state", b)
		}
	}
	s.Set(BtnA, true)
	s.Set(BtnStart, true)
	if !s.Pressed(BtnA) || !s.Pressed(BtnStart) {
		t.Errorf("expected a+start pressed, got %032b", s.Buttons)
	}
	s.Set(BtnA, false)
	if s.Pressed(BtnA) {
		t.Error("a still pressed after release")
	}
	if !s.Pressed(BtnStart) {
		t.Error("release of a cleared start")
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		in   []InputState
		want InputState
	}{
		{name: "empty"},
		{
			name: "buttons or",
			in: []InputState{
				{Buttons: 1 << BtnA},
				{Buttons: 1 << BtnB},
			},
			want: InputState{Buttons: 1<<BtnA | 1<<BtnB},
		},
		{
			name: "axes largest magnitude",
			in: []InputState{
				{Axes: [AxisCount]int16{100, -200, 0, 5}},
				{Axes: [AxisCount]int16{-300, 50, 10, -5}},
			},
			want: InputState{Axes: [AxisCount]int16{-300, -200, 10, 5}},
		},
		{
			name: "axis min value does not overflow",
			in: []InputState{
				{Axes: [AxisCount]int16{-32768, 0, 0, 0}},
				{Axes: [AxisCount]int16{32767, 0, 0, 0}},
			},
			want: InputState{Axes: [AxisCount]int16{-32768, 0, 0, 0}},
		},
		{
			name: "triggers max",
			in: []InputState{
				{Triggers: [2]uint8{10, 250}},
				{Triggers: [2]uint8{200, 20}},
			},
			want: InputState{Triggers: [2]uint8{200, 250}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Merge(tc.in...); got != tc.want {
				t.Errorf("merge = %+v, want %+v", got, tc.want)
			}
		})
	}
}
