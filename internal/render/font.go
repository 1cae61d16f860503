package render

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// FontCache parses the embedded font once and hands out faces per size.
// Faces are not safe for concurrent use; the cache is only ever touched from
// the render path.
type FontCache struct {
	once  sync.Once
	ttf   *truetype.Font
	err   error
	faces map[float64]font.Face
}

// NewFontCache returns an empty cache backed by the Go Regular font.
func NewFontCache() *FontCache {
	return &FontCache{faces: make(map[float64]font.Face)}
}

// Face returns a font face at the given point size.
func (f *FontCache) Face(size float64) (font.Face, error) {
	f.once.Do(func() {
		f.ttf, f.err = truetype.Parse(goregular.TTF)
	})
	if f.err != nil {
		return nil, f.err
	}
	if face, ok := f.faces[size]; ok {
		return face, nil
	}
	face := truetype.NewFace(f.ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	f.faces[size] = face
	return face, nil
}
