// Package storage persists games, user preferences and game statistics in BadgerDB.
package storage

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "rayfish"

// baseDataDir is the per-user root for application data on this platform.
func baseDataDir() (string, error) {
	home, err := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "AppData", "Roaming"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

// GetDataDir returns the application data directory, creating it if needed:
// ~/Library/Application Support/rayfish on macOS, %APPDATA%\rayfish on
// Windows and $XDG_DATA_HOME/rayfish (default ~/.local/share) elsewhere.
func GetDataDir() (string, error) {
	base, err := baseDataDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, appName)
	return dir, os.MkdirAll(dir, 0755)
}

// GetDatabaseDir returns the directory holding the BadgerDB files.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}
	log.Printf("database directory: %s", dbDir)
	return dbDir, nil
}
