// Package blob stores uploaded profile images on the local filesystem.
// Each blob lives under a generated unique name; the name is what the
// students table persists as the image reference.
package blob

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrBlobNotFound is returned by Read when the named blob does not exist.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrInvalidName is returned for names that would escape the storage root.
	ErrInvalidName = errors.New("invalid blob name")
)

type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates the storage directory if absent and returns a Store rooted there.
func NewStore(root string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", root, err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Root returns the storage directory, e.g. for serving blobs statically.
func (s *Store) Root() string {
	return s.root
}

// Save writes content under a freshly generated name ending in ext and returns
// that name. Names combine the current time with a random component and the
// file is opened O_EXCL, so an existing blob is never overwritten.
func (s *Store) Save(content []byte, ext string) (string, error) {
	name := fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), uuid.NewString(), strings.ToLower(ext))

	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create blob %s: %w", name, err)
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(filepath.Join(s.root, name))
		return "", fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close blob %s: %w", name, err)
	}

	return name, nil
}

// Delete removes the named blob. A missing blob is not an error, so deleting
// the same name twice is safe.
func (s *Store) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	return nil
}

// Read returns the blob contents, or ErrBlobNotFound when absent. Callers
// decide how to render absence; the student service shows it as "no image".
func (s *Store) Read(name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return content, nil
}

// Exists reports whether the named blob is present.
func (s *Store) Exists(name string) bool {
	path, err := s.resolve(name)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// resolve rejects names that are not plain file names; stored references come
// from Save but the check keeps a corrupted row from reaching outside root.
func (s *Store) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		s.logger.Warn("rejected blob name", "name", name)
		return "", ErrInvalidName
	}
	return filepath.Join(s.root, name), nil
}
