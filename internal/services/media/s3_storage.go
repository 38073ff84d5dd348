package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

const imageCacheControl = "public, max-age=31536000, immutable"

var errStorageOffline = errors.New("object storage is not configured")

// S3Storage keeps uploaded images in a single bucket. Object keys are immutable,
// so every object is served with a long-lived cache header.
type S3Storage struct {
	client *minio.Client
	bucket string

	mu    sync.Mutex
	ready bool
}

func NewS3Storage(client *minio.Client, bucket string) *S3Storage {
	return &S3Storage{client: client, bucket: strings.TrimSpace(bucket)}
}

// EnsureBucket creates the bucket on first use. A failed attempt is retried on
// the next upload so a storage outage at boot does not stick.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	if s.client == nil || s.bucket == "" {
		return errStorageOffline
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			if code := minio.ToErrorResponse(err).Code; code != "BucketAlreadyOwnedByYou" && code != "BucketAlreadyExists" {
				return fmt.Errorf("create bucket %q: %w", s.bucket, err)
			}
		}
	}
	s.ready = true
	return nil
}

func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.client == nil {
		return errStorageOffline
	}
	if key == "" || body == nil || size <= 0 {
		return ErrValidation
	}

	opts := minio.PutObjectOptions{
		ContentType:        contentType,
		CacheControl:       imageCacheControl,
		ContentDisposition: "inline",
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, body, size, opts); err != nil {
		return fmt.Errorf("put image %q: %w", key, err)
	}
	return nil
}

func (s *S3Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", errStorageOffline
	}
	if key == "" {
		return "", ErrValidation
	}
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}

	params := url.Values{}
	params.Set("response-cache-control", imageCacheControl)
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("presign image %q: %w", key, err)
	}
	return signed.String(), nil
}

// Delete treats a missing object as already removed.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if s.client == nil {
		return errStorageOffline
	}
	if key == "" {
		return nil
	}
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err == nil || minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return fmt.Errorf("delete image %q: %w", key, err)
}
