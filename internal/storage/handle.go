package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/wadaln3ma/Web-GIS-Resource-Manager/internal/config"
)

// ErrNotReady is returned by every Handle call made before Init completes.
var ErrNotReady = errors.New("object storage not initialized")

// Handle is the two-phase object storage client: constructed empty at
// startup, completed by Init once configuration is available. Consuming
// calls fail fast with ErrNotReady until then.
type Handle struct {
	mu       sync.RWMutex
	client   *minio.Client
	bucket   string
	endpoint string
	secure   bool
}

// NewHandle constructs a not-yet-ready storage handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Init connects to MinIO, ensures the bucket exists and makes it
// public-read so attachment URLs need no authorization step.
func (h *Handle) Init(ctx context.Context, cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSSL,
	})
	if err != nil {
		return errors.Wrap(err, "minio client")
	}
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return errors.Wrap(err, "bucket check")
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: ""}); err != nil {
			return errors.Wrap(err, "bucket create")
		}
		log.Printf("Created bucket %s", cfg.MinioBucket)
	}
	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"AWS": ["*"]},
			"Action": ["s3:GetObject"],
			"Resource": ["arn:aws:s3:::%s/*"]
		}]
	}`, cfg.MinioBucket)
	if err := client.SetBucketPolicy(ctx, cfg.MinioBucket, policy); err != nil {
		return errors.Wrap(err, "bucket policy")
	}

	h.mu.Lock()
	h.client = client
	h.bucket = cfg.MinioBucket
	h.endpoint = cfg.MinioEndpoint
	h.secure = cfg.MinioSSL
	h.mu.Unlock()
	return nil
}

// Ready reports whether Init has completed.
func (h *Handle) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client != nil
}

func (h *Handle) snapshot() (*minio.Client, string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.client == nil {
		return nil, "", ErrNotReady
	}
	return h.client, h.bucket, nil
}

// Bucket returns the configured bucket name, or empty before Init.
func (h *Handle) Bucket() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bucket
}

// Upload stores an object under key with the given content type.
func (h *Handle) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	client, bucket, err := h.snapshot()
	if err != nil {
		return err
	}
	_, err = client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Remove deletes an object from the bucket.
func (h *Handle) Remove(ctx context.Context, key string) error {
	client, bucket, err := h.snapshot()
	if err != nil {
		return err
	}
	return client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

// PublicURL derives the publicly retrievable URL for a stored object. The
// bucket is public-read, so no signing is involved.
func (h *Handle) PublicURL(key string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.client == nil {
		return "", ErrNotReady
	}
	scheme := "http"
	if h.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, h.endpoint, h.bucket, key), nil
}
