package panels

import (
	"math"

	"facial-editor/internal/catalog"
	"facial-editor/internal/placement"
	"facial-editor/pkg/geometry"
	"facial-editor/ui/canvas"
)

// categories returns the category names of listings, in order.
func categories(listings []catalog.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.Category)
	}
	return out
}

// namesIn returns the asset names listed under category.
func namesIn(listings []catalog.Listing, category string) []string {
	for _, l := range listings {
		if l.Category == category {
			return l.Names
		}
	}
	return nil
}

func indexOf(items []string, item string) int {
	for i, s := range items {
		if s == item {
			return i
		}
	}
	return -1
}

// clampSlider keeps v inside a slider's range so restored parameters that
// lie outside the configured bounds still display.
func clampSlider(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// opacityPercent converts an opacity in [0,1] to a whole percentage.
func opacityPercent(op float64) float64 {
	return math.Round(op * 100)
}

// PreviewMarker outlines where o lands on the canvas: the footprint of a
// w×h sticker after scaling and rotation, centered on the click point.
// It returns nil when the footprint would be too large to render.
func PreviewMarker(o placement.Overlay, w, h int) *canvas.Marker {
	sw, sh, err := geometry.ScaledSize(w, h, o.Params.Scale)
	if err != nil {
		return nil
	}
	frame, err := geometry.RotatedFrame(sw, sh, o.Params.Rotation)
	if err != nil {
		return nil
	}
	return &canvas.Marker{
		At:  o.At,
		Box: geometry.CenteredAt(o.At, frame.Width, frame.Height),
	}
}
