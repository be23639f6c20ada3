package artifact

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore resolves artifact paths on the local filesystem.
type LocalStore struct {
	// Root is joined to relative locations. Empty means the working directory.
	Root string
}

// NewLocalStore returns a LocalStore rooted at root.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{Root: root}
}

// Exists implements Store.
func (s *LocalStore) Exists(ctx context.Context, location string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Stat(s.Path(location)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Path returns the filesystem path for a location.
func (s *LocalStore) Path(location string) string {
	if filepath.IsAbs(location) || s.Root == "" {
		return location
	}
	return filepath.Join(s.Root, location)
}
