// Package store implements the durable stores backing the roster:
// a whole-file JSON record table and a line-oriented credential file.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// studentsFileName is the record table file inside the data directory.
	studentsFileName = "students.json"
	// usersFileName is the credential file inside the data directory.
	usersFileName = "users.txt"
)

// writeFileAtomic replaces the file at path with data in one step.
//
// The data is written to a temporary file in the same directory, synced, and
// renamed over the target. A crash mid-write leaves either the old content or
// the new content, never a torn file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	// CreateTemp uses 0600; widen to the target's intended mode before the
	// rename makes the file visible.
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
