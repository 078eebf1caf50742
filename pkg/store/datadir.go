package store

import (
	"os"
	"path/filepath"
	"runtime"

	homedir "github.com/mitchellh/go-homedir"
)

const appName = "weekplan"

// DefaultDataDir is where week files live unless data_dir is configured:
// Application Support on macOS, the first of %LOCALAPPDATA% or %APPDATA% on
// Windows, and $XDG_DATA_HOME (else ~/.local/share) everywhere else.
func DefaultDataDir() string {
	home, _ := homedir.Dir()
	return dataDirFor(runtime.GOOS, home, os.Getenv)
}

func dataDirFor(goos, home string, getenv func(string) string) string {
	var envs []string
	fallback := filepath.Join(home, ".local", "share")

	switch goos {
	case "darwin":
		fallback = filepath.Join(home, "Library", "Application Support")
	case "windows":
		envs = []string{"LOCALAPPDATA", "APPDATA"}
		fallback = home
	default:
		envs = []string{"XDG_DATA_HOME"}
	}

	for _, env := range envs {
		if dir := getenv(env); dir != "" {
			return filepath.Join(dir, appName)
		}
	}
	return filepath.Join(fallback, appName)
}
