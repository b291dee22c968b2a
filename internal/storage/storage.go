// Package storage resolves course media files under a base directory.
package storage

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrInvalidPath is returned for names that would escape the base directory
var ErrInvalidPath = errors.New("invalid media path")

// localStorage reads media files from the local filesystem
type localStorage struct {
	basePath string
}

// NewLocalStorage creates a new localStorage instance rooted at basePath
func NewLocalStorage(basePath string) *localStorage {
	return &localStorage{
		basePath: basePath,
	}
}

// resolve maps a slash separated media name to a path under the base directory
func (s *localStorage) resolve(name string) (string, error) {
	local := filepath.FromSlash(name)
	if name == "" || !filepath.IsLocal(local) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.basePath, local), nil
}

// OpenFile opens a media file for reading
func (s *localStorage) OpenFile(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// ReadFile reads a whole media file
func (s *localStorage) ReadFile(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
