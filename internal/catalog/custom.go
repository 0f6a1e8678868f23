package catalog

import (
	"fmt"
	"image"
	"strings"

	"facial-editor/internal/composite"
	"facial-editor/internal/raster"
	"facial-editor/pkg/colorutil"
	"facial-editor/pkg/errors"
	"facial-editor/pkg/geometry"
)

// Size limits for user uploads and gallery tiles.
const (
	CustomMaxSize    = 300
	ThumbnailSize    = 150
	ThumbnailContent = 120
)

// AddCustom shrinks img to fit within 300×300 and adds it to s under the
// custom category. An empty name is replaced by "Custom Feature N". A name
// already in use gets a " (2)", " (3)", ... suffix, so existing custom
// features and the overlays referring to them never change.
func AddCustom(s *Store, img image.Image, name string) (*raster.Asset, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "custom feature image is empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = autoName(s)
	} else {
		name = uniqueName(s, name)
	}

	src := raster.ToNRGBA(img)
	w, h := geometry.FitWithin(src.Bounds().Dx(), src.Bounds().Dy(), CustomMaxSize, CustomMaxSize)
	a := raster.NewAsset(CustomCategory, name, raster.Resize(src, w, h))
	s.Add(a)
	return a, nil
}

func autoName(s *Store) string {
	for n := len(s.Names(CustomCategory)) + 1; ; n++ {
		name := fmt.Sprintf("Custom Feature %d", n)
		if !s.Has(CustomCategory, name) {
			return name
		}
	}
}

func uniqueName(s *Store, name string) string {
	if !s.Has(CustomCategory, name) {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !s.Has(CustomCategory, candidate) {
			return candidate
		}
	}
}

// Thumbnail renders a gallery tile: the asset shrunk to fit 120×120,
// centered on an opaque white 150×150 square.
func Thumbnail(a *raster.Asset) *image.NRGBA {
	tile := raster.Uniform(ThumbnailSize, ThumbnailSize, colorutil.White)
	src := a.Image()
	w, h := geometry.FitWithin(src.Bounds().Dx(), src.Bounds().Dy(), ThumbnailContent, ThumbnailContent)
	fitted := raster.Resize(src, w, h)
	composite.Over(tile, fitted, image.Point{X: (ThumbnailSize - w) / 2, Y: (ThumbnailSize - h) / 2})
	return tile
}
