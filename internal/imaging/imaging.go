// Package imaging provides image decoding, upload validation, and the decoded
// image cache backing image elements on the canvas.
package imaging

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxUploadBytes caps the accepted upload size.
const MaxUploadBytes = 10 << 20

// maxDecodedEdge bounds the longest edge of a cached image. Larger decodes
// are downscaled before caching so one huge photo cannot dominate memory.
const maxDecodedEdge = 2048

// SupportedFormats returns the accepted upload file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}
}

// IsSupportedFormat checks whether path has an accepted image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// LoadFile reads and decodes an image for upload, enforcing the format and
// size limits.
func LoadFile(path string) (image.Image, error) {
	if !IsSupportedFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxUploadBytes {
		return nil, fmt.Errorf("image too large: %d bytes (limit %d)", info.Size(), MaxUploadBytes)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// UploadName builds a collision-free server-side filename preserving the
// original extension.
func UploadName(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return uuid.NewString() + ext
}

// FitWithin scales the given size down to fit within maxW x maxH, preserving
// aspect ratio. Sizes already within the limit pass through unchanged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// Downscale resamples img to the given size. The original is returned when it
// already matches.
func Downscale(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// clampDecoded bounds an image's longest edge to maxDecodedEdge.
func clampDecoded(img image.Image) image.Image {
	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), maxDecodedEdge, maxDecodedEdge)
	return Downscale(img, w, h)
}
