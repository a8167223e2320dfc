package session

import (
	"github.com/retroframe/retroframe/pkg/config"
	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/emulator/console"
	"github.com/retroframe/retroframe/pkg/emulator/dolphin"
	"github.com/retroframe/retroframe/pkg/emulator/handheld"
	"github.com/retroframe/retroframe/pkg/emulator/mupen"
	"github.com/retroframe/retroframe/pkg/emulator/registry"
	"github.com/retroframe/retroframe/pkg/logger"
)

// openBackend resolves the image through the registry and constructs
// the matching backend, exactly one per session.
func openBackend(path string, conf config.Emulator, log *logger.Logger) (registry.Kind, emulator.Emulator, error) {
	kind, err := registry.Resolve(path)
	if err != nil {
		return 0, nil, err
	}

	var emu emulator.Emulator
	switch kind {
	case registry.Handheld:
		emu, err = handheld.New(path, log)
	case registry.Console:
		emu, err = console.New(path, log)
	case registry.Nintendo64:
		emu, err = mupen.New(path, conf.Mupen, log)
	case registry.GameCube:
		emu, err = dolphin.NewGameCube(path, conf.Dolphin, log)
	case registry.PlayStation:
		emu, err = dolphin.NewPlayStation(path, conf.Dolphin, log)
	}
	if err != nil {
		return kind, nil, err
	}
	return kind, emu, nil
}

// properties reports the backend's display parameters, with a sane
// fallback for handles that do not expose them.
func properties(emu emulator.Emulator) emulator.Properties {
	if p, ok := emu.(emulator.PropertiesProvider); ok {
		return p.Properties()
	}
	return emulator.Properties{Width: 320, Height: 240, FPS: 60, SampleRate: 44100}
}

// metadata reports disc/cartridge metadata when the backend has any.
func metadata(emu emulator.Emulator) emulator.Metadata {
	if m, ok := emu.(emulator.MetadataProvider); ok {
		return m.Metadata()
	}
	return emulator.Metadata{}
}
