package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// BotsyncHome returns the directory holding botsync's own files.
// BOTSYNC_HOME overrides the default of ~/.botsync.
func BotsyncHome() string {
	if dir := os.Getenv("BOTSYNC_HOME"); dir != "" {
		return ExpandPath(dir)
	}
	return filepath.Join(HomeDir(), ".botsync")
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(p string) string {
	if p == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(HomeDir(), p[2:])
	}
	return p
}
