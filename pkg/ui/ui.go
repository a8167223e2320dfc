// Package ui provides the presentation surfaces a session renders into:
// an SDL2 window (build tag sdl2), a terminal renderer and a null
// presenter for fully headless runs.
package ui

import (
	"fmt"
	"image"

	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/logger"
	"github.com/retroframe/retroframe/pkg/session"
)

// New constructs a presenter by name: "sdl", "terminal" or "null".
func New(name, title string, props emulator.Properties, scale int, log *logger.Logger) (session.Presenter, error) {
	switch name {
	case "sdl":
		return NewSDL(title, props, scale, log)
	case "terminal":
		return NewTerminal(props, log)
	case "null", "":
		return Null{}, nil
	}
	return nil, fmt.Errorf("unknown video backend %q", name)
}

// Null is the headless presenter: frames are dropped, no input arrives.
type Null struct{}

func (Null) Present(*image.RGBA) error               { return nil }
func (Null) PlayAudio([]int16)                       {}
func (Null) Poll() (emulator.InputState, bool, bool) { return emulator.InputState{}, false, false }
func (Null) Close() error                            { return nil }
