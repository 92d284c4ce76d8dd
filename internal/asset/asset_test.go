package asset

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0xFF, A: 0xFF})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFileLoader(t *testing.T) {
	fsys := fstest.MapFS{
		"img/logo.png": {Data: encodePNG(t, 40, 20)},
	}
	l := NewFS(fsys, "img/logo.png")

	img, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())

	// Served from cache once decoded.
	delete(fsys, "img/logo.png")
	again, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, img, again)
}

func TestFileLoaderNotFound(t *testing.T) {
	_, err := NewFS(fstest.MapFS{}, "logo.png").Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileLoaderDecodeError(t *testing.T) {
	fsys := fstest.MapFS{
		"logo.png": {Data: []byte("not an image")},
	}
	_, err := NewFS(fsys, "logo.png").Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileLoaderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFS(fstest.MapFS{}, "logo.png").Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNone(t *testing.T) {
	img, err := None{}.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, img)
}
