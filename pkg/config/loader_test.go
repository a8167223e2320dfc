package config

import (
	"os"
	"testing"
)

func chtemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())
}

func TestLoadConfigWithoutFileUsesDefaults(t *testing.T) {
	chtemp(t)
	var conf Config
	if err := LoadConfig(&conf, ""); err != nil {
		t.Fatalf("load with no config file: %v", err)
	}
	if conf.Session.Scale != 4 {
		t.Errorf("Session.Scale = %d, want the default 4", conf.Session.Scale)
	}
	if conf.Emulator.Mupen.Bundle.Version != "2.5.9" {
		t.Errorf("Bundle.Version = %q, want the default", conf.Emulator.Mupen.Bundle.Version)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	chtemp(t)
	t.Setenv("RETROFRAME_SESSION_SCALE", "2")
	var conf Config
	if err := LoadConfig(&conf, ""); err != nil {
		t.Fatal(err)
	}
	if conf.Session.Scale != 2 {
		t.Errorf("Session.Scale = %d, want the env override 2", conf.Session.Scale)
	}
}

func TestLoadConfigExplicitDirMustExist(t *testing.T) {
	chtemp(t)
	var conf Config
	if err := LoadConfig(&conf, t.TempDir()); err == nil {
		t.Fatal("expected an error for an explicit dir without config.yaml")
	}
}
