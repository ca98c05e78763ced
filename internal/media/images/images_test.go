package images

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/rosterapp/roster/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngPayload builds a small solid-color PNG and returns its base64 payload.
func pngPayload(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestEncodeFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")

	raw, err := base64.StdEncoding.DecodeString(pngPayload(t, 8, 8))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0644))

	payload, err := EncodeFile(path)
	require.NoError(t, err)

	img, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
}

func TestEncodeFile_RejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	_, err := EncodeFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestEncodeFile_MissingFile(t *testing.T) {
	_, err := EncodeFile(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDataAccess))
}

func TestDecode_RejectsBadBase64(t *testing.T) {
	_, err := Decode("!!not base64!!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/png", DetectMIME(pngPayload(t, 8, 8)))

	// Unrecognizable payloads fall back to jpeg so a data URI stays valid.
	assert.Equal(t, "image/jpeg", DetectMIME("!!not base64!!"))
	assert.Equal(t, "image/jpeg", DetectMIME(base64.StdEncoding.EncodeToString([]byte("plain text"))))
}

func TestDetectMIME_LongPayloadSniffsPrefix(t *testing.T) {
	assert.Equal(t, "image/png", DetectMIME(pngPayload(t, 400, 400)))
}

func TestComputeBlurHash(t *testing.T) {
	hash, err := ComputeBlurHash(pngPayload(t, 32, 32))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	// Deterministic for the same payload.
	again, err := ComputeBlurHash(pngPayload(t, 32, 32))
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestComputeBlurHash_LargeImageDownscaled(t *testing.T) {
	hash, err := ComputeBlurHash(pngPayload(t, 300, 120))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestThumbnail_PreservesAspectRatio(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	small := thumbnail(img)
	assert.Equal(t, 64, small.Bounds().Dx())
	assert.Equal(t, 32, small.Bounds().Dy())

	tiny := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Equal(t, tiny, thumbnail(tiny))
}
