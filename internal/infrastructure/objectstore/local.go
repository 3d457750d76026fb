package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"invoicer/internal/core/apperror"
)

// Local stores objects under a directory that the HTTP server exposes at PublicBaseURL.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates root when missing.
func NewLocal(root, publicBaseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{root: root, baseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

// Root is the directory objects are stored in.
func (s *Local) Root() string {
	return s.root
}

func (s *Local) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *Local) write(key string, src io.Reader) (string, error) {
	if strings.Contains(key, "..") {
		return "", apperror.NewValidation("invalid object key").WithDetail("key", key)
	}
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", apperror.NewUploadFailed(err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", apperror.NewUploadFailed(err)
	}
	url := s.baseURL + "/" + key
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return url, apperror.NewUploadFailed(err)
	}
	if err := f.Close(); err != nil {
		return url, apperror.NewUploadFailed(err)
	}
	return url, nil
}

// Upload implements Store.
func (s *Local) Upload(_ context.Context, localPath, key string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", apperror.NewUploadFailed(err)
	}
	defer src.Close()
	return s.write(key, src)
}

// UploadBytes implements Store.
func (s *Local) UploadBytes(_ context.Context, key string, data []byte, _ string) (string, error) {
	return s.write(key, bytes.NewReader(data))
}

// Delete implements Store.
func (s *Local) Delete(_ context.Context, url string) error {
	key, ok := keyFromURL(s.baseURL, url)
	if !ok {
		return foreignURL(url)
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

var _ Store = (*Local)(nil)
