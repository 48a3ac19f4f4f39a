package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const scriptPerm = 0o700

// materialize writes script to a new owner-only executable file in dir and
// returns its path. Nothing is prepended; the shell template picks the
// interpreter.
func materialize(dir, script string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	name := fmt.Sprintf("script-%d-%s", time.Now().UnixMilli(), uuid.NewString())
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, scriptPerm) //nolint:gosec // path is generated above
	if err != nil {
		return "", fmt.Errorf("create script: %w", err)
	}

	if _, err := f.WriteString(script); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return "", fmt.Errorf("write script: %w", err)
	}

	// The umask may have narrowed the mode at creation.
	if err := f.Chmod(scriptPerm); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return "", fmt.Errorf("chmod script: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)

		return "", fmt.Errorf("close script: %w", err)
	}

	return path, nil
}
