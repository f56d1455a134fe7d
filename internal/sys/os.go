package sys

import (
	"fmt"
	"os"
	"path/filepath"
)

// OS contains fields and methods for interacting with the state directory.
type OS struct {
	StateDir    string
	DatabaseDir string
}

// DefaultOS returns a fresh OS instance with default values, creating the directories if createDir is set.
func DefaultOS(stateDir string, createDir bool) (*OS, error) {
	os := &OS{
		StateDir:    stateDir,
		DatabaseDir: filepath.Join(stateDir, "database"),
	}

	err := os.init(createDir)
	if err != nil {
		return nil, err
	}

	return os, nil
}

func (s *OS) init(createDir bool) error {
	dirs := []struct {
		path string
		mode os.FileMode
	}{
		{s.StateDir, 0711},
		{s.DatabaseDir, 0700},
	}

	for _, dir := range dirs {
		// If we are not creating the directories, ensure they still exist.
		if !createDir {
			_, err := os.Stat(dir.path)
			if err != nil {
				return fmt.Errorf("Unable to get state dir information: %w", err)
			}

			continue
		}

		err := os.MkdirAll(dir.path, dir.mode)
		if err != nil {
			return fmt.Errorf("Failed to init dir %q: %w", dir.path, err)
		}

		err = os.Chmod(dir.path, dir.mode)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("Failed to chmod dir %q: %w", dir.path, err)
		}
	}

	return nil
}

// ConfigPath returns the path of the render configuration file.
func (s *OS) ConfigPath() string {
	return filepath.Join(s.StateDir, "sqlmagic.yaml")
}

// LogPath returns the path of the log file.
func (s *OS) LogPath() string {
	return filepath.Join(s.StateDir, "sqlmagic.log")
}

// HistoryPath returns the path of the shell history file.
func (s *OS) HistoryPath() string {
	return filepath.Join(s.StateDir, "history")
}

// DatabasePath returns the path of the SQLite database file.
func (s *OS) DatabasePath() string {
	return filepath.Join(s.DatabaseDir, "sqlmagic.db")
}

// ControlSocket returns the path of the unix socket serving the REST API locally.
func (s *OS) ControlSocket() string {
	return filepath.Join(s.StateDir, "control.socket")
}
