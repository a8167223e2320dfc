package config

import (
	"time"
)

type (
	// Config is the root app configuration.
	Config struct {
		Emulator   Emulator
		Session    Session
		Recording  Recording
		Monitoring Monitoring
	}
	Emulator struct {
		// Storage is the directory for save states and battery saves
		// that cannot live next to the source image.
		Storage string `fig:"storage" default:"./storage"`
		Mupen   Mupen
		Dolphin Dolphin
	}
	// Mupen configures the Nintendo 64 native plugin set.
	Mupen struct {
		// Root mirrors the M64P_ROOT environment override.
		Root      string
		PluginDir string
		ConfigDir string
		Bundle    Bundle
	}
	// Bundle configures the auto-downloaded plugin bundle (Linux only).
	Bundle struct {
		Sync    bool   `fig:"sync" default:"true"`
		Url     string `fig:"url" default:"https://github.com/mupen64plus/mupen64plus-core/releases/download/2.5.9/mupen64plus-bundle-linux64-2.5.9.tar.gz"`
		Version string `fig:"version" default:"2.5.9"`
		// ExtLock synchronizes the download across processes.
		ExtLock string `fig:"extLock" default:".lock"`
	}
	Dolphin struct {
		// Bin overrides external binary discovery, same as DOLPHIN_BIN.
		Bin string
		// Wait blocks session teardown until the child process exits.
		Wait bool
	}
	Session struct {
		Scale    int  `fig:"scale" default:"4"`
		Uncapped bool
		// HideOverlay disables the metadata overlay for delegate backends.
		HideOverlay bool
		// CloseTimeout bounds backend teardown.
		CloseTimeout time.Duration `fig:"closeTimeout" default:"5s"`
	}
	Recording struct {
		Enabled bool
		Dir     string `fig:"dir" default:"./recordings"`
	}
	Monitoring struct {
		Port             int
		URLPrefix        string
		ProfilingEnabled bool
		MetricEnabled    bool
	}
)

func (m Monitoring) IsEnabled() bool {
	return m.Port > 0 && (m.ProfilingEnabled || m.MetricEnabled)
}
