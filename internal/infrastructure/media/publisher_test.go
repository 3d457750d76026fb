package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
)

type fakeStore struct {
	keys    []string
	data    map[string][]byte
	deleted []string
	failErr error
}

func (s *fakeStore) UploadBytes(_ context.Context, key string, data []byte, _ string) (string, error) {
	url := "https://cdn.test/" + key
	if s.failErr != nil {
		return url, s.failErr
	}
	if s.data == nil {
		s.data = map[string][]byte{}
	}
	s.keys = append(s.keys, key)
	s.data[key] = data
	return url, nil
}

func (s *fakeStore) Delete(_ context.Context, url string) error {
	s.deleted = append(s.deleted, url)
	return nil
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 128})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestPublish_PNGStaysPNGAndIsBounded(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(store, 100)

	url, err := p.Publish(context.Background(), "owner/branding/logo-1.PNG", bytes.NewReader(encodePNG(t, 400, 200)))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/owner/branding/logo-1.png", url)

	img, format, err := image.Decode(bytes.NewReader(store.data["owner/branding/logo-1.png"]))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestPublish_JPEGKeepsSmallImages(t *testing.T) {
	store := &fakeStore{}
	p := NewPublisher(store, 0)

	url, err := p.Publish(context.Background(), "owner/items/abc.jpeg", bytes.NewReader(encodeJPEG(t, 64, 32)))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "/owner/items/abc.jpg"))

	img, _, err := image.Decode(bytes.NewReader(store.data["owner/items/abc.jpg"]))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestPublish_RejectsNonImage(t *testing.T) {
	p := NewPublisher(&fakeStore{}, 0)
	_, err := p.Publish(context.Background(), "k.png", strings.NewReader("not an image"))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestPublish_RejectsOversize(t *testing.T) {
	p := NewPublisher(&fakeStore{}, 0)
	_, err := p.Publish(context.Background(), "k.png", bytes.NewReader(make([]byte, MaxUploadBytes+1)))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestPublish_FailedUploadIsCleanedUp(t *testing.T) {
	store := &fakeStore{failErr: apperror.NewUploadFailed(errors.New("boom"))}
	p := NewPublisher(store, 0)

	_, err := p.Publish(context.Background(), "owner/k.png", bytes.NewReader(encodePNG(t, 8, 8)))
	require.Error(t, err)
	assert.Equal(t, []string{"https://cdn.test/owner/k.png"}, store.deleted)
}
