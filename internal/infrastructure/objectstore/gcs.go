package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"invoicer/internal/core/apperror"
	"invoicer/pkg/logger"
)

// GCSConfig configures the bucket store.
type GCSConfig struct {
	Bucket string
	// CredentialsJSON is a service account key. Empty uses application default credentials.
	CredentialsJSON string
	// PublicBaseURL prefixes object keys. Defaults to https://storage.googleapis.com/<bucket>.
	PublicBaseURL string
}

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCS creates the client and checks the bucket is reachable.
func NewGCS(ctx context.Context, cfg GCSConfig) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("gcs bucket %q not accessible: %w", cfg.Bucket, err)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com/" + cfg.Bucket
	}
	return &GCS{client: client, bucket: cfg.Bucket, baseURL: strings.TrimSuffix(base, "/")}, nil
}

// Close releases the client.
func (s *GCS) Close() error {
	return s.client.Close()
}

func (s *GCS) url(key string) string {
	return s.baseURL + "/" + key
}

func (s *GCS) write(ctx context.Context, key string, src io.Reader, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		// The writer may have created the object; hand the URL back for cleanup.
		return s.url(key), apperror.NewUploadFailed(err)
	}
	if err := w.Close(); err != nil {
		return s.url(key), apperror.NewUploadFailed(err)
	}
	logger.Debug(ctx, "object stored", "bucket", s.bucket, "key", key)
	return s.url(key), nil
}

// Upload implements Store.
func (s *GCS) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", apperror.NewUploadFailed(err)
	}
	defer f.Close()
	return s.write(ctx, key, f, contentTypeOf(key))
}

// UploadBytes implements Store.
func (s *GCS) UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return s.write(ctx, key, bytes.NewReader(data), contentType)
}

// Delete implements Store.
func (s *GCS) Delete(ctx context.Context, url string) error {
	key, ok := keyFromURL(s.baseURL, url)
	if !ok {
		return foreignURL(url)
	}
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

var _ Store = (*GCS)(nil)
