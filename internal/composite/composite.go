// Package composite renders a canvas with its overlay stack and pending
// preview into a single raster.
package composite

import (
	"image"
	"log/slog"

	"facial-editor/internal/placement"
	"facial-editor/internal/raster"
	"facial-editor/internal/transform"
	"facial-editor/pkg/colorutil"
	"facial-editor/pkg/errors"
	"facial-editor/pkg/geometry"
)

// Lookup resolves an asset reference to its raster.
type Lookup interface {
	Get(category, name string) (*raster.Asset, error)
}

// Compositor draws overlays onto a canvas. It holds no per-render state, so
// one Compositor may serve any number of sessions.
type Compositor struct {
	lookup Lookup
	engine transform.Engine
	logger *slog.Logger
}

// New creates a Compositor. A nil engine selects the default resampler and a
// nil logger selects slog.Default().
func New(lookup Lookup, engine transform.Engine, logger *slog.Logger) *Compositor {
	if engine == nil {
		engine = transform.NewResampler()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Compositor{lookup: lookup, engine: engine, logger: logger}
}

// Render returns a new raster: a copy of canvas with every stack overlay
// painted in order, then the preview on top. Overlays whose asset cannot be
// found are skipped with a warning. The canvas is never modified.
func (c *Compositor) Render(canvas *image.NRGBA, stack []placement.Overlay, preview *placement.Overlay) *image.NRGBA {
	if canvas == nil {
		return nil
	}
	out := raster.ToNRGBA(canvas)
	for i := range stack {
		c.paint(out, stack[i])
	}
	if preview != nil {
		c.paint(out, *preview)
	}
	return out
}

// RenderSnapshot renders the canvas, stack and preview held in snap.
func (c *Compositor) RenderSnapshot(snap placement.Snapshot) *image.NRGBA {
	return c.Render(snap.Canvas, snap.Stack, snap.Preview)
}

func (c *Compositor) paint(dst *image.NRGBA, o placement.Overlay) {
	asset, err := c.lookup.Get(o.Ref.Category, o.Ref.Name)
	if err != nil || asset == nil {
		c.logger.Warn("skipping overlay",
			"category", o.Ref.Category,
			"name", o.Ref.Name,
			"code", errors.ErrCodeAssetNotFound,
			"error", err)
		return
	}
	src, err := c.engine.Apply(asset.Image(), o.Params)
	if err != nil {
		c.logger.Warn("skipping overlay",
			"category", o.Ref.Category,
			"name", o.Ref.Name,
			"code", errors.GetCode(err),
			"error", err)
		return
	}
	r := geometry.CenteredAt(o.At, src.Bounds().Dx(), src.Bounds().Dy())
	Over(dst, src, image.Point{X: r.X, Y: r.Y})
}

// Over blends src onto dst with its top-left corner at at, clipping to dst.
// Both images use straight alpha:
//
//	out = src*sa + dst*(1-sa)
//	outA = sa + da*(1-sa)
//
// with every channel rounded back to 8 bits.
func Over(dst, src *image.NRGBA, at image.Point) {
	sb := src.Bounds()
	area := image.Rectangle{Min: at, Max: at.Add(sb.Size())}.Intersect(dst.Bounds())
	if area.Empty() {
		return
	}

	for y := area.Min.Y; y < area.Max.Y; y++ {
		sy := sb.Min.Y + y - at.Y
		si := src.PixOffset(sb.Min.X+area.Min.X-at.X, sy)
		di := dst.PixOffset(area.Min.X, y)
		for x := area.Min.X; x < area.Max.X; x, si, di = x+1, si+4, di+4 {
			s := src.Pix[si : si+4 : si+4]
			d := dst.Pix[di : di+4 : di+4]
			if s[3] == 0 {
				continue
			}
			sa := float64(s[3]) / 255
			da := float64(d[3]) / 255
			inv := 1 - sa
			d[0] = colorutil.Clamp8(float64(s[0])*sa + float64(d[0])*inv)
			d[1] = colorutil.Clamp8(float64(s[1])*sa + float64(d[1])*inv)
			d[2] = colorutil.Clamp8(float64(s[2])*sa + float64(d[2])*inv)
			d[3] = colorutil.Clamp8((sa + da*inv) * 255)
		}
	}
}
