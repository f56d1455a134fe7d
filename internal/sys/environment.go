package sys

import (
	"os"
	"path/filepath"
)

const (
	// StateDir is the environment variable holding the location of the state directory.
	StateDir = "SQLMAGIC_STATE_DIR"

	// Dataset is the environment variable naming the dataset to load at startup.
	Dataset = "SQLMAGIC_DATASET"
)

// DefaultStateDir returns the state directory from the environment, or ~/.sqlmagic.
func DefaultStateDir() string {
	dir := os.Getenv(StateDir)
	if dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".sqlmagic"
	}

	return filepath.Join(home, ".sqlmagic")
}
