// Package persist writes composited images to disk, choosing the encoder
// from the file extension.
package persist

import (
	stderrors "errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"facial-editor/internal/composite"
	"facial-editor/internal/raster"
	"facial-editor/pkg/colorutil"
	"facial-editor/pkg/errors"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// DefaultExt is appended to paths that have no extension.
const DefaultExt = ".png"

// DefaultJPEGQuality matches the quality most photo tools default to.
const DefaultJPEGQuality = 95

// Sink persists a rendered image. Write returns the path actually written,
// which differs from path when an extension had to be added.
type Sink interface {
	Write(img *image.NRGBA, path string) (string, error)
}

// Format describes how one extension is encoded.
type Format struct {
	Ext         string
	ContentType string
	KeepsAlpha  bool
}

var formats = map[string]Format{
	".png":  {".png", "image/png", true},
	".tif":  {".tif", "image/tiff", true},
	".tiff": {".tiff", "image/tiff", true},
	".jpg":  {".jpg", "image/jpeg", false},
	".jpeg": {".jpeg", "image/jpeg", false},
	".bmp":  {".bmp", "image/bmp", false},
}

// Formats returns the writable extensions.
func Formats() []string {
	return []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff"}
}

// LookupFormat returns the format for ext (with or without the dot).
func LookupFormat(ext string) (Format, error) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == "" {
		ext = DefaultExt
	}
	f, ok := formats[ext]
	if !ok {
		return Format{}, errors.New(errors.ErrCodeUnsupportedFormat, "cannot write %q images", ext)
	}
	return f, nil
}

// FileSink writes images to the local filesystem.
type FileSink struct {
	// JPEGQuality is used for .jpg and .jpeg, 1-100.
	JPEGQuality int
	// Background replaces transparency in formats without an alpha channel.
	Background color.NRGBA
}

// NewFileSink creates a FileSink with the default JPEG quality and a white
// background.
func NewFileSink() *FileSink {
	return &FileSink{JPEGQuality: DefaultJPEGQuality, Background: colorutil.White}
}

// Write implements Sink. Every failure is a PERSISTENCE error; permission
// problems additionally carry PERMISSION_DENIED and encoder failures
// ENCODING.
func (s *FileSink) Write(img *image.NRGBA, path string) (string, error) {
	if img == nil {
		return "", errors.Wrap(errors.ErrCodePersistence,
			errors.New(errors.ErrCodeEncoding, "no image to write"), "could not save image")
	}
	if filepath.Ext(path) == "" {
		path += DefaultExt
	}
	f, err := LookupFormat(filepath.Ext(path))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodePersistence, err, "could not save %s", path)
	}

	file, err := os.Create(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrPermission) {
			err = errors.Wrap(errors.ErrCodePermissionDenied, err, "permission denied")
		}
		return "", errors.Wrap(errors.ErrCodePersistence, err, "could not save %s", path)
	}

	if err := s.Encode(file, img, f); err != nil {
		file.Close()
		os.Remove(path)
		return "", errors.Wrap(errors.ErrCodePersistence, err, "could not save %s", path)
	}
	if err := file.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodePersistence, err, "could not save %s", path)
	}
	return path, nil
}

// Encode writes img to w in format f. Failures are ENCODING errors.
func (s *FileSink) Encode(w io.Writer, img *image.NRGBA, f Format) error {
	var out image.Image = img
	if !f.KeepsAlpha {
		out = Flatten(img, s.Background)
	}

	var err error
	switch f.ContentType {
	case "image/png":
		err = png.Encode(w, out)
	case "image/jpeg":
		q := s.JPEGQuality
		if q <= 0 || q > 100 {
			q = DefaultJPEGQuality
		}
		err = jpeg.Encode(w, out, &jpeg.Options{Quality: q})
	case "image/bmp":
		err = bmp.Encode(w, out)
	case "image/tiff":
		err = tiff.Encode(w, out, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return errors.New(errors.ErrCodeUnsupportedFormat, "cannot write %s", f.ContentType)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeEncoding, err, "%s encoding failed", f.Ext)
	}
	return nil
}

// Flatten composites img over an opaque background and returns an opaque
// RGBA image.
func Flatten(img *image.NRGBA, bg color.NRGBA) *image.RGBA {
	bg.A = 255
	base := raster.Uniform(img.Bounds().Dx(), img.Bounds().Dy(), bg)
	composite.Over(base, raster.ToNRGBA(img), image.Point{})
	// Opaque NRGBA and RGBA share a pixel layout.
	return &image.RGBA{Pix: base.Pix, Stride: base.Stride, Rect: base.Rect}
}
