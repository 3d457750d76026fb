// Package objectstore keeps rendered documents and uploaded pictures in a
// bucket or a local directory and addresses them by public URL.
package objectstore

import (
	"context"
	"mime"
	"path"
	"strings"

	"invoicer/internal/core/apperror"
)

// Store is the object store used by the document workflow and the image publisher.
type Store interface {
	// Upload copies the local file to key and returns its public URL.
	Upload(ctx context.Context, localPath, key string) (string, error)
	// UploadBytes stores data at key and returns its public URL.
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes the object behind url. Missing objects are not an error.
	Delete(ctx context.Context, url string) error
}

// keyFromURL strips base from url. ok is false for URLs of another store.
func keyFromURL(base, url string) (string, bool) {
	prefix := strings.TrimSuffix(base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

func contentTypeOf(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func foreignURL(url string) error {
	return apperror.NewValidation("url does not belong to this store").WithDetail("url", url)
}
