// Package images handles the photo payloads attached to roster records.
//
// Photos travel as base64 text inside the record itself, so the helpers here
// convert between files, base64 payloads, and decoded images, and derive
// BlurHash placeholders for previews.
package images

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"
	"strings"

	"github.com/bbrks/go-blurhash"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rosterapp/roster/internal/errors"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// maxPhotoBytes caps the raw photo size. The whole record table is rewritten
// on every save, so oversized payloads hurt every operation, not just this one.
const maxPhotoBytes = 5 * 1024 * 1024

// thumbnailSize is the target size for BlurHash computation. BlurHash is a
// low-resolution placeholder; a small thumbnail gives nearly identical output
// at a fraction of the cost.
const thumbnailSize = 64

// EncodeFile reads an image file and returns its base64 payload.
// The bytes must decode as a supported image format.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.DataAccessf("failed to read image %q", path).WithCause(err)
	}
	if len(data) > maxPhotoBytes {
		return "", errors.Validationf("image %q exceeds %d bytes", path, maxPhotoBytes)
	}

	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return "", errors.Validationf("file %q is not a supported image", path).WithCause(err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode turns a base64 photo payload back into an image.
func Decode(payload string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Validation("photo payload is not valid base64").WithCause(err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Validation("photo payload is not a supported image").WithCause(err)
	}
	return img, nil
}

// DetectMIME sniffs the content type of a base64 photo payload. Payloads
// that are not recognizable images report "image/jpeg" so callers always get
// something usable in a data URI.
func DetectMIME(payload string) string {
	// Magic numbers live in the first bytes; sniffing needs no full decode.
	// 512 is a multiple of 4, so the truncation keeps whole base64 quanta.
	const sniffLen = 512
	if len(payload) > sniffLen {
		payload = payload[:sniffLen]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "image/jpeg"
	}

	mime := mimetype.Detect(data).String()
	if !strings.HasPrefix(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}

// ComputeBlurHash derives a BlurHash placeholder from a base64 photo payload.
// 4x3 components keep the hash around 20-30 characters with enough detail
// for a portrait preview.
func ComputeBlurHash(payload string) (string, error) {
	img, err := Decode(payload)
	if err != nil {
		return "", err
	}

	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return "", errors.Internal("failed to encode blurhash").WithCause(err)
	}
	return hash, nil
}

// thumbnail downscales img to at most thumbnailSize on its longer edge using
// nearest-neighbor sampling, which is plenty for BlurHash input.
func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	if srcW <= thumbnailSize && srcH <= thumbnailSize {
		return img
	}

	dstW, dstH := thumbnailSize, thumbnailSize
	if srcW > srcH {
		dstH = max(1, (srcH*thumbnailSize)/srcW)
	} else {
		dstW = max(1, (srcW*thumbnailSize)/srcH)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			dst.Set(x, y, img.At(bounds.Min.X+int(float64(x)*xRatio), bounds.Min.Y+int(float64(y)*yRatio)))
		}
	}
	return dst
}
