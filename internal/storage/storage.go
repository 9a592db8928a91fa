package storage

import (
	"context"
	"errors"
	"io"
)

// Store persists uploaded images and releases them again. The string
// it returns is the reference stored on the entity (a served path for
// disk, an object key for minio).
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, ref string) error
}

var ErrUnsupportedType = errors.New("unsupported image type")

// allowedTypes mirrors what the upload form accepts.
var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpeg",
	"image/jpg":  ".jpg",
}

func extensionFor(contentType string) (string, error) {
	ext, ok := allowedTypes[contentType]

	if !ok {
		return "", ErrUnsupportedType
	}

	return ext, nil
}
