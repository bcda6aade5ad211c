package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestImage encodes a gradient image so JPEG compression behaves like
// it would on photographic content.
func writeTestImage(t *testing.T, path string, width, height int, encodePNG bool) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}

	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	if encodePNG {
		require.NoError(t, png.Encode(out, img))
		return
	}
	require.NoError(t, jpeg.Encode(out, img, &jpeg.Options{Quality: 90}))
}

func decodeConfig(t *testing.T, path string) (image.Config, string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg, format
}

func TestTranscodeResizesWideSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	dst := filepath.Join(dir, "compressed-photo.jpg")
	writeTestImage(t, src, 2000, 1500, false)

	err := ImagingTranscoder{}.Transcode(context.Background(), src, dst)
	require.NoError(t, err)

	cfg, format := decodeConfig(t, dst)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height) // aspect ratio preserved

	// source is never touched
	_, err = os.Stat(src)
	assert.NoError(t, err)
}

func TestTranscodeNeverUpscales(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.jpg")
	dst := filepath.Join(dir, "compressed-small.jpg")
	writeTestImage(t, src, 400, 300, false)

	err := ImagingTranscoder{}.Transcode(context.Background(), src, dst)
	require.NoError(t, err)

	cfg, _ := decodeConfig(t, dst)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestTranscodeReencodesPNGAsJPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "picture.png")
	dst := filepath.Join(dir, "compressed-picture.png")
	writeTestImage(t, src, 1000, 500, true)

	err := ImagingTranscoder{}.Transcode(context.Background(), src, dst)
	require.NoError(t, err)

	// the name keeps the client extension, the bytes are always JPEG
	_, format := decodeConfig(t, dst)
	assert.Equal(t, "jpeg", format)
}

func TestTranscodeUndecodableSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.txt")
	dst := filepath.Join(dir, "compressed-empty.txt")
	require.NoError(t, os.WriteFile(src, nil, 0o644))

	err := ImagingTranscoder{}.Transcode(context.Background(), src, dst)
	require.Error(t, err)

	// no partial derivative left behind
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTranscodeCancelledContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ImagingTranscoder{}.Transcode(ctx, filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.jpg"))
	assert.ErrorIs(t, err, context.Canceled)
}
