package translation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pitabwire/langstore/scope"
)

const (
	// ResourcesDirName is the directory next to a unit holding its resource files.
	ResourcesDirName = "Resources"
	// FileExtension is the extension of every resource file.
	FileExtension = ".lang"

	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

// ResourceFileName returns "<unit name>.<culture>.lang".
func ResourceFileName(owner scope.Owner, cultureCode string) string {
	return owner.Unit.Name + "." + cultureCode + FileExtension
}

// ResourcePath returns "<unit dir>/Resources/<unit name>.<culture>.lang".
func ResourcePath(owner scope.Owner, cultureCode string) string {
	return filepath.Join(owner.Unit.Dir, ResourcesDirName, ResourceFileName(owner, cultureCode))
}

// ensureFile creates the resources directory and an empty file when they are missing.
// Existing content is left untouched.
func ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("%w: create directory %s: %w", ErrResourceIO, filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, filePerm)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrResourceIO, path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrResourceIO, path, err)
	}
	return nil
}

// readFile returns the content of path. A missing file reads as empty.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrResourceIO, path, err)
	}
	return data, nil
}

// writeFile replaces path through a temporary file in the same directory so readers never
// observe a partially written document.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("%w: create directory %s: %w", ErrResourceIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %w", ErrResourceIO, path, err)
	}
	tmpPath := tmp.Name()

	writeErr := func() error {
		if _, wErr := tmp.Write(data); wErr != nil {
			return wErr
		}
		if sErr := tmp.Sync(); sErr != nil {
			return sErr
		}
		if cErr := tmp.Close(); cErr != nil {
			return cErr
		}
		return os.Chmod(tmpPath, filePerm)
	}()
	if writeErr != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write %s: %w", ErrResourceIO, path, writeErr)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: finalize %s: %w", ErrResourceIO, path, err)
	}
	return nil
}
