package logging

import (
	"os"
	"path/filepath"
)

// LogFileName is the base name of the symdex log file.
const LogFileName = "symdex.log"

// DefaultLogDir returns ~/.symdex/logs, or a temp-dir fallback when the
// home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".symdex", "logs")
	}
	return filepath.Join(home, ".symdex", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), LogFileName)
}
