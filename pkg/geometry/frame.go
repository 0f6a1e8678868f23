package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"facial-editor/pkg/errors"
)

// boundsEpsilon absorbs float noise from sin/cos so that quarter turns keep
// exact integer frame sizes.
const boundsEpsilon = 1e-9

// MaxDimension caps either side of a scaled or rotated raster.
const MaxDimension = 1 << 14

func checkDimensions(w, h float64) error {
	// Negated so NaN is rejected too.
	if !(w <= MaxDimension && h <= MaxDimension) {
		return errors.New(errors.ErrCodeInvalidInput,
			"output %.0fx%.0f exceeds %dx%d", w, h, MaxDimension, MaxDimension)
	}
	return nil
}

// Frame describes where a rotated w×h raster lands: the smallest integer
// frame that contains every rotated corner, and the transform mapping source
// pixel space into that frame.
type Frame struct {
	Width     int
	Height    int
	Transform AffineTransform
}

// RotatedFrame computes the expanded frame of a w×h raster rotated about its
// own center by degrees (counter-clockwise on screen for positive values).
// Frames larger than MaxDimension on either side are rejected.
func RotatedFrame(w, h int, degrees float64) (Frame, error) {
	rot := ScreenRotation(degrees)

	r := mat.NewDense(2, 2, []float64{
		rot.A, rot.B,
		rot.C, rot.D,
	})
	fw, fh := float64(w), float64(h)
	corners := mat.NewDense(2, 4, []float64{
		0, fw, fw, 0,
		0, 0, fh, fh,
	})

	var rotated mat.Dense
	rotated.Mul(r, corners)

	xs := mat.Row(nil, 0, &rotated)
	ys := mat.Row(nil, 1, &rotated)

	fnw := math.Ceil(floats.Max(xs) - floats.Min(xs) - boundsEpsilon)
	fnh := math.Ceil(floats.Max(ys) - floats.Min(ys) - boundsEpsilon)
	if err := checkDimensions(fnw, fnh); err != nil {
		return Frame{}, err
	}
	nw, nh := int(fnw), int(fnh)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	// Rotate about the source center, then move that center to the frame center.
	t := Translation(float64(nw)/2, float64(nh)/2).
		Compose(rot).
		Compose(Translation(-fw/2, -fh/2))

	return Frame{Width: nw, Height: nh, Transform: t}, nil
}

// NormalizeDegrees maps any angle into the half-open range (-180, 180].
func NormalizeDegrees(degrees float64) float64 {
	d := math.Mod(degrees, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// ScaledSize returns round(w*scale) × round(h*scale), never smaller than 1×1.
// Results larger than MaxDimension on either side are rejected.
func ScaledSize(w, h int, scale float64) (int, int, error) {
	fw := math.Round(float64(w) * scale)
	fh := math.Round(float64(h) * scale)
	if err := checkDimensions(fw, fh); err != nil {
		return 0, 0, err
	}
	sw, sh := roundSize(fw, fh)
	return sw, sh, nil
}

func roundSize(fw, fh float64) (int, int) {
	sw, sh := int(fw), int(fh)
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}

// FitWithin shrinks w×h to fit inside maxW×maxH, preserving aspect ratio.
// Sizes that already fit are returned unchanged; nothing is enlarged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return roundSize(math.Round(float64(w)*ratio), math.Round(float64(h)*ratio))
}

// NormalizedToPixel maps a point given as fractions of a w×h raster onto
// pixel coordinates, clamped to the raster.
func NormalizedToPixel(nx, ny float64, w, h int) PointInt {
	return PointInt{
		X: clampInt(int(math.Floor(nx*float64(w))), 0, w-1),
		Y: clampInt(int(math.Floor(ny*float64(h))), 0, h-1),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
