package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps images in an object storage bucket. References are
// object keys.
type MinioStore struct {
	client *minio.Client
	bucket string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})

	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &MinioStore{client: client, bucket: cfg.Bucket}

	exists, err := client.BucketExists(ctx, cfg.Bucket)

	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{})

		if err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return s, nil
}

func (s *MinioStore) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	ext, err := extensionFor(contentType)

	if err != nil {
		return "", err
	}

	key := uuid.NewString() + ext

	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})

	if err != nil {
		return "", fmt.Errorf("put image object: %w", err)
	}

	return key, nil
}

func (s *MinioStore) Remove(ctx context.Context, ref string) error {
	return s.client.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{})
}
