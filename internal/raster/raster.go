// Package raster provides sticker assets and the NRGBA conversions, loading
// and comparison helpers shared by the transform engine and compositor.
//
// All rasters handled by the editor are *image.NRGBA anchored at (0,0):
// straight (non-premultiplied) alpha, so opacity changes touch only the
// alpha channel.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Asset is a named sticker raster. It is immutable once created: the
// editor never writes into Image, and constructors copy their input.
type Asset struct {
	Category string
	Name     string
	img      *image.NRGBA
}

// NewAsset creates an Asset from any image, copying its pixels.
func NewAsset(category, name string, img image.Image) *Asset {
	return &Asset{Category: category, Name: name, img: ToNRGBA(img)}
}

// Image returns the asset's pixels. Callers must treat them as read-only.
func (a *Asset) Image() *image.NRGBA {
	return a.img
}

// Width returns the image width in pixels.
func (a *Asset) Width() int {
	if a == nil || a.img == nil {
		return 0
	}
	return a.img.Bounds().Dx()
}

// Height returns the image height in pixels.
func (a *Asset) Height() int {
	if a == nil || a.img == nil {
		return 0
	}
	return a.img.Bounds().Dy()
}

// PixelAt returns the color at the specified pixel coordinates, or
// transparent outside the asset.
func (a *Asset) PixelAt(x, y int) color.NRGBA {
	if a == nil || a.img == nil {
		return color.NRGBA{}
	}
	if !(image.Point{X: x, Y: y}).In(a.img.Rect) {
		return color.NRGBA{}
	}
	return a.img.NRGBAAt(x, y)
}

// ToNRGBA returns a copy of img as *image.NRGBA with bounds starting at (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			srcOff := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()*4], src.Pix[srcOff:srcOff+b.Dx()*4])
		}
		return out
	}
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Clone returns a deep copy of img.
func Clone(img *image.NRGBA) *image.NRGBA {
	if img == nil {
		return nil
	}
	out := &image.NRGBA{
		Pix:    make([]uint8, len(img.Pix)),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	copy(out.Pix, img.Pix)
	return out
}

// Resize resamples img to exactly w×h with the Catmull-Rom kernel.
func Resize(img *image.NRGBA, w, h int) *image.NRGBA {
	if img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		return Clone(img)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return ToNRGBA(dst)
}

// Uniform returns a w×h raster filled with c.
func Uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// Equal reports whether a and b have the same bounds and identical pixels.
func Equal(a, b *image.NRGBA) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Rect != b.Rect {
		return false
	}
	w := a.Rect.Dx() * 4
	for y := a.Rect.Min.Y; y < a.Rect.Max.Y; y++ {
		ao := a.PixOffset(a.Rect.Min.X, y)
		bo := b.PixOffset(b.Rect.Min.X, y)
		if !bytes.Equal(a.Pix[ao:ao+w], b.Pix[bo:bo+w]) {
			return false
		}
	}
	return true
}

// Decode reads an image in any registered format and converts it to NRGBA.
func Decode(r io.Reader) (*image.NRGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return ToNRGBA(img), format, nil
}

// Load loads an image from the specified path.
func Load(path string) (*image.NRGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// SupportedFormats returns the list of readable image extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// FileFilter returns a file filter string for use in file dialogs.
func FileFilter() string {
	return "Image Files (*.png, *.jpg, *.jpeg, *.gif, *.bmp, *.tiff, *.tif, *.webp)"
}
