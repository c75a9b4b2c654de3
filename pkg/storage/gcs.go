// Package storage uploads generated assets to object storage and returns
// their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrStorage is wrapped by every upload failure.
var ErrStorage = errors.New("blob storage failure")

// Error describes a failed upload.
type Error struct {
	Bucket string
	Object string
	Cause  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: gs://%s/%s: %v", ErrStorage, e.Bucket, e.Object, e.Cause)
}

// Is lets errors.Is(err, ErrStorage) match.
func (e *Error) Is(target error) bool {
	return target == ErrStorage
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// BlobStore stores a blob and returns a publicly reachable URL for it.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// GCSConfig configures the Cloud Storage uploader.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	// Prefix is prepended to generated object names, e.g. "adcreative".
	Prefix string
}

// GCSUploader writes blobs to a Cloud Storage bucket.
type GCSUploader struct {
	client *storage.Client
	cfg    GCSConfig
	logger *zap.Logger
}

// NewGCSUploader creates a Cloud Storage client for cfg.Bucket.
func NewGCSUploader(ctx context.Context, cfg GCSConfig, logger *zap.Logger) (*GCSUploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "adcreative"
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSUploader{
		client: client,
		cfg:    cfg,
		logger: logger.Named("storage"),
	}, nil
}

// Upload implements BlobStore. Objects are named <prefix>_<uuid>.<ext>.
func (u *GCSUploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	name := ObjectName(u.cfg.Prefix, contentType)

	w := u.client.Bucket(u.cfg.Bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", &Error{Bucket: u.cfg.Bucket, Object: name, Cause: err}
	}
	if err := w.Close(); err != nil {
		return "", &Error{Bucket: u.cfg.Bucket, Object: name, Cause: err}
	}

	u.logger.Debug("Uploaded blob",
		zap.String("bucket", u.cfg.Bucket),
		zap.String("object", name),
		zap.Int("bytes", len(data)))

	return PublicURL(u.cfg.Bucket, name), nil
}

// Close releases the storage client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// ObjectName builds a unique object name for the content type.
func ObjectName(prefix, contentType string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, uuid.New().String(), extension(contentType))
}

// PublicURL is the storage.googleapis.com URL for an object.
func PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}

func extension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

var _ BlobStore = (*GCSUploader)(nil)
