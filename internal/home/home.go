// Package home provides utilities for dealing with the user's home directory.
package home

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var homedir = sync.OnceValue(func() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		slog.Error("Failed to get user home directory", "error", err)
	}
	return dir
})

// Dir returns the user home directory.
func Dir() string {
	return homedir()
}

// Short replaces the actual home path from [Dir] with `~`.
func Short(p string) string {
	if h := Dir(); h == "" || !strings.HasPrefix(p, h) {
		return p
	}
	return filepath.Join("~", strings.TrimPrefix(p, Dir()))
}

// Long replaces the `~` with actual home path from [Dir].
func Long(p string) string {
	if h := Dir(); h == "" || !strings.HasPrefix(p, "~") {
		return p
	}
	return strings.Replace(p, "~", Dir(), 1)
}
