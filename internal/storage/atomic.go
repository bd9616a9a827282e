// Package storage holds file persistence helpers.
package storage

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// RenameError is returned when the final rename fails. The temporary file
// has been removed by then; TempPath reports where it was.
type RenameError struct {
	Err      error
	tempPath string
}

func (e RenameError) Error() string    { return e.Err.Error() }
func (e RenameError) TempPath() string { return e.tempPath }
func (e RenameError) Unwrap() error    { return e.Err }

// AtomicWriteFile replaces filename with data. Readers see either the old
// contents or the new, never a partial file.
func AtomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	return AtomicWrite(filename, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// AtomicWrite is AtomicWriteFile for content produced by a callback. If fill
// returns an error, filename is left untouched.
func AtomicWrite(filename string, perm os.FileMode, fill func(w io.Writer) error) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Same directory so the rename cannot cross filesystems.
	tmp, err := os.CreateTemp(dir, ".tmp-cliplay-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	var success bool
	defer func() {
		if !success {
			if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
				slog.Warn("failed to remove temporary file", "path", tmp.Name(), "error", err)
			}
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := fill(bw); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %q: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := renameReplace(tmp.Name(), filename); err != nil {
		return RenameError{Err: err, tempPath: tmp.Name()}
	}
	success = true
	return nil
}
