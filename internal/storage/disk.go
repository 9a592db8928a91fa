package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore writes images under a local uploads directory.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	ext, err := extensionFor(contentType)

	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)

	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	_, err = io.Copy(f, r)

	closeErr := f.Close()

	if err == nil {
		err = closeErr
	}

	if err != nil {
		// do not leave half-written files around
		_ = os.Remove(path)
		return "", fmt.Errorf("write image file: %w", err)
	}

	return path, nil
}

func (s *DiskStore) Remove(ctx context.Context, ref string) error {
	// only ever remove files inside the upload dir
	clean := filepath.Clean(ref)

	if !strings.HasPrefix(clean, filepath.Clean(s.dir)+string(filepath.Separator)) {
		return errors.New("refusing to remove file outside upload dir")
	}

	return os.Remove(clean)
}
