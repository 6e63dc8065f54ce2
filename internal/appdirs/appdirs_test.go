package appdirs

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDirsFollowXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("xdg variables only apply on linux")
	}
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))

	path, err := ConfigFilePath()
	if err != nil {
		t.Fatalf("ConfigFilePath: %v", err)
	}
	if want := filepath.Join(root, "config", AppName, "config.toml"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}
	state, err := StateFilePath("settings.db")
	if err != nil {
		t.Fatalf("StateFilePath: %v", err)
	}
	if want := filepath.Join(root, "state", AppName, "state", "settings.db"); state != want {
		t.Fatalf("expected %s, got %s", want, state)
	}
	if _, err := os.Stat(filepath.Dir(state)); err != nil {
		t.Fatalf("state dir not created: %v", err)
	}
}

func TestEnsureDirsUsePrivatePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not portable on windows")
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")

	for name, ensure := range map[string]func() (string, error){
		"config": EnsureConfigDir,
		"state":  EnsureStateDir,
	} {
		dir, err := ensure()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("%s: stat: %v", name, err)
		}
		if perms := info.Mode().Perm(); perms&0o077 != 0 {
			t.Fatalf("%s: expected private permissions, got %o", name, perms)
		}
	}
}
