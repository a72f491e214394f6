// Package blobstore persists evidence artifacts to an S3-compatible bucket
// (DigitalOcean Spaces in production) and hands out presigned links.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store is the write-then-link sink for every persisted evidence artifact.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// SpacesStore implements Store on an S3-compatible endpoint.
type SpacesStore struct {
	client *minio.Client
	bucket string
}

// NewSpacesStore connects to the configured endpoint. The endpoint may carry
// an https:// scheme; it is stripped for the client.
func NewSpacesStore(endpoint, region, key, secret, bucket string) (*SpacesStore, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("blob store endpoint is not configured")
	}
	secure := !strings.HasPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create blob store client: %w", err)
	}
	return &SpacesStore{client: client, bucket: bucket}, nil
}

// Put uploads bytes under the given key and returns the key.
func (s *SpacesStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// PresignedURL returns a temporary public link for the key.
func (s *SpacesStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

// HealthPing verifies the bucket is reachable; used by health checking.
func (s *SpacesStore) HealthPing(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
