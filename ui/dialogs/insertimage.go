// Package dialogs provides application dialogs.
package dialogs

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"notecanvas/internal/api"
	"notecanvas/internal/app"
	"notecanvas/internal/element"
	"notecanvas/internal/imaging"
)

// Default placement box for inserted images, in canvas units. The decoded
// image is fitted inside while keeping its aspect ratio.
const (
	placeMaxW = 480
	placeMaxH = 360
	placeX    = 80
	placeY    = 80
)

// ShowInsertImage opens a file picker, validates and decodes the chosen
// image, uploads it, and places the returned element on the canvas.
func ShowInsertImage(session *app.Session, window fyne.Window) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		if err := insertImage(session, reader); err != nil {
			session.Log.Error().Err(err).Msg("insert image failed")
			dialog.ShowError(err, window)
		}
	}, window)

	fd.SetFilter(storage.NewExtensionFileFilter(imaging.SupportedFormats()))
	fd.Show()
}

func insertImage(session *app.Session, reader fyne.URIReadCloser) error {
	name := reader.URI().Name()
	if !imaging.IsSupportedFormat(name) {
		return fmt.Errorf("unsupported image format: %s", name)
	}

	data, err := io.ReadAll(io.LimitReader(reader, imaging.MaxUploadBytes+1))
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if len(data) > imaging.MaxUploadBytes {
		return fmt.Errorf("image too large (limit %d bytes)", imaging.MaxUploadBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	w, h := imaging.FitWithin(b.Dx(), b.Dy(), placeMaxW, placeMaxH)

	// Oversized sources are shrunk to the placement size before upload so
	// the server never stores more pixels than the canvas shows.
	if w < b.Dx() || h < b.Dy() {
		img = imaging.Downscale(img, w, h)
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode image: %w", err)
		}
		data = buf.Bytes()
		name = "canvas.png"
	}

	session.Editor.InsertImage(api.UploadRequest{
		Filename: imaging.UploadName(name),
		Data:     data,
		X:        placeX,
		Y:        placeY,
		Width:    w,
		Height:   h,
	}, func(created element.Element) {
		session.Images.Put(created.ImageURL, img)
	})
	return nil
}
