// Package media normalizes uploaded pictures before they are stored.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"

	"invoicer/internal/core/apperror"
	"invoicer/pkg/logger"
)

// MaxUploadBytes caps a single picture.
const MaxUploadBytes = 5 << 20

// Uploader is the part of the object store the publisher writes to.
type Uploader interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// Publisher decodes pictures, bounds them to MaxSide pixels and stores them.
// PNG input stays PNG so transparent logos and stamps survive; everything else becomes JPEG.
type Publisher struct {
	store   Uploader
	maxSide int
}

// NewPublisher creates a publisher. maxSide <= 0 defaults to 1024.
func NewPublisher(store Uploader, maxSide int) *Publisher {
	if maxSide <= 0 {
		maxSide = 1024
	}
	return &Publisher{store: store, maxSide: maxSide}
}

// Publish implements item.ImagePublisher and auth.AssetPublisher.
func (p *Publisher) Publish(ctx context.Context, key string, src io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(src, MaxUploadBytes+1))
	if err != nil {
		return "", apperror.NewUploadFailed(err)
	}
	if len(data) > MaxUploadBytes {
		return "", apperror.NewValidation("file size exceeds 5MB limit").WithDetail("limit", MaxUploadBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", apperror.NewValidation("unsupported image").WithCause(err)
	}

	out, contentType, ext, err := p.normalize(img, format)
	if err != nil {
		return "", apperror.NewUploadFailed(err)
	}

	key = strings.TrimSuffix(key, path.Ext(key)) + ext
	url, err := p.store.UploadBytes(ctx, key, out, contentType)
	if err != nil {
		if url != "" {
			if delErr := p.store.Delete(context.WithoutCancel(ctx), url); delErr != nil {
				logger.Warn(ctx, "failed to remove partial upload", "url", url, "error", delErr)
			}
		}
		return "", err
	}
	return url, nil
}

func (p *Publisher) normalize(img image.Image, format string) ([]byte, string, string, error) {
	b := img.Bounds()
	if b.Dx() > p.maxSide || b.Dy() > p.maxSide {
		img = imaging.Fit(img, p.maxSide, p.maxSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if format == "png" {
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", ".png", nil
	}
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, "", "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", ".jpg", nil
}

// Remove implements item.ImagePublisher and auth.AssetPublisher.
func (p *Publisher) Remove(ctx context.Context, url string) error {
	return p.store.Delete(ctx, url)
}
