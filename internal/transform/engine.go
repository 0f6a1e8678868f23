// Package transform turns a sticker raster and its parameters into the
// raster that gets composited: scale, then rotate, then fade.
package transform

import (
	"fmt"
	"image"
	"math"
	"sort"
	"sync"

	"facial-editor/internal/raster"
	"facial-editor/pkg/colorutil"
	"facial-editor/pkg/geometry"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Engine applies overlay parameters to a raster. Implementations must be
// pure: the same input always yields the same pixels and src is never
// modified. The result never aliases src. Parameters that would produce a
// raster larger than geometry.MaxDimension fail with INVALID_INPUT.
type Engine interface {
	Apply(src *image.NRGBA, p Params) (*image.NRGBA, error)
}

// Resampler is the pure Go engine built on golang.org/x/image/draw.
type Resampler struct {
	Kernel *draw.Kernel
}

// NewResampler creates a Resampler using the Catmull-Rom kernel. The kernel
// widens its support when shrinking, so downscales average every source
// pixel instead of skipping some.
func NewResampler() *Resampler {
	return &Resampler{Kernel: draw.CatmullRom}
}

// Apply implements Engine.
func (r *Resampler) Apply(src *image.NRGBA, p Params) (*image.NRGBA, error) {
	out, err := r.Scale(src, p.Scale)
	if err != nil {
		return nil, err
	}
	if out, err = r.Rotate(out, p.Rotation); err != nil {
		return nil, err
	}
	out = Fade(out, p.Opacity)
	if out == src {
		return raster.Clone(src), nil
	}
	return out, nil
}

// Scale resizes src to round(w*s) × round(h*s). A factor of exactly 1
// returns src itself.
func (r *Resampler) Scale(src *image.NRGBA, s float64) (*image.NRGBA, error) {
	if s == 1 {
		return src, nil
	}
	w, h, err := geometry.ScaledSize(src.Bounds().Dx(), src.Bounds().Dy(), s)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	r.Kernel.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return raster.ToNRGBA(dst), nil
}

// Rotate turns src counter-clockwise by degrees about its center. The
// output frame grows to hold every rotated pixel and the uncovered corners
// are transparent. Multiples of 360 return src itself.
func (r *Resampler) Rotate(src *image.NRGBA, degrees float64) (*image.NRGBA, error) {
	if math.Mod(degrees, 360) == 0 {
		return src, nil
	}
	frame, err := geometry.RotatedFrame(src.Bounds().Dx(), src.Bounds().Dy(), degrees)
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	r.Kernel.Transform(dst, f64.Aff3(frame.Transform.Aff3()), src, src.Bounds(), draw.Src, nil)
	return raster.ToNRGBA(dst), nil
}

// Fade multiplies every alpha value by opacity, rounding to the nearest
// level. Color channels are left alone. An opacity of 1 returns src itself.
func Fade(src *image.NRGBA, opacity float64) *image.NRGBA {
	if opacity >= 1 {
		return src
	}
	out := raster.Clone(src)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = colorutil.Clamp8(float64(out.Pix[i]) * opacity)
	}
	return out
}

// Backends

// Factory creates an Engine.
type Factory func() Engine

var (
	backendsMu sync.RWMutex
	backends   = map[string]Factory{
		"resample": func() Engine { return NewResampler() },
	}
)

// DefaultBackend is the backend used when none is configured.
const DefaultBackend = "resample"

// Register makes a backend available under name.
func Register(name string, f Factory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = f
}

// New creates the engine registered under name. An empty name selects
// DefaultBackend.
func New(name string) (Engine, error) {
	if name == "" {
		name = DefaultBackend
	}
	backendsMu.RLock()
	f, ok := backends[name]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown transform backend %q (available: %v)", name, Backends())
	}
	return f(), nil
}

// Backends lists the registered backend names.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
