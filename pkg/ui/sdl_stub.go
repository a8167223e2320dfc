//go:build !sdl2

package ui

import (
	"errors"

	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/logger"
	"github.com/retroframe/retroframe/pkg/session"
)

// The SDL2 window needs the native development libraries; it is only
// compiled in with the sdl2 build tag.
func NewSDL(string, emulator.Properties, int, *logger.Logger) (session.Presenter, error) {
	return nil, errors.New("built without sdl2 support, use --video terminal or null")
}
