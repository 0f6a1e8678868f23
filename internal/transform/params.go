package transform

import (
	"fmt"
	"math"
	"strings"

	"facial-editor/pkg/errors"
	"facial-editor/pkg/geometry"
)

// Params are the per-overlay transform parameters, applied in the fixed
// order scale, rotate, opacity.
type Params struct {
	Scale    float64 `json:"scale"`    // Uniform scale factor, > 0
	Rotation float64 `json:"rotation"` // Degrees, positive = counter-clockwise, normalized to (-180, 180]
	Opacity  float64 `json:"opacity"`  // 0 (invisible) to 1 (as drawn)
}

// DefaultParams returns the parameters a fresh selection starts with.
func DefaultParams() Params {
	return Params{Scale: 1.0, Rotation: 0, Opacity: 1.0}
}

// IsIdentity reports whether applying p leaves a raster unchanged.
func (p Params) IsIdentity() bool {
	return p.Scale == 1 && math.Mod(p.Rotation, 360) == 0 && p.Opacity == 1
}

// Validate checks the hard parameter constraints.
func (p Params) Validate() error {
	if math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) || p.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be a positive number, got %v", p.Scale)
	}
	if math.IsNaN(p.Rotation) || math.IsInf(p.Rotation, 0) {
		return errors.New(errors.ErrCodeInvalidInput, "rotation must be finite, got %v", p.Rotation)
	}
	if math.IsNaN(p.Opacity) || p.Opacity < 0 || p.Opacity > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "opacity must be between 0 and 1, got %v", p.Opacity)
	}
	return nil
}

// Bounds is the scale range accepted from callers. Validate only enforces
// that the scale is positive; Bounds keeps interactive and restored values
// inside a range the engines can render.
type Bounds struct {
	ScaleMin float64
	ScaleMax float64
}

// DefaultBounds matches the scale slider range.
func DefaultBounds() Bounds {
	return Bounds{ScaleMin: 0.02, ScaleMax: 3.0}
}

// Check rejects parameters whose scale lies outside b.
func (b Bounds) Check(p Params) error {
	if !(p.Scale >= b.ScaleMin && p.Scale <= b.ScaleMax) {
		return errors.New(errors.ErrCodeInvalidInput,
			"scale must be between %g and %g, got %v", b.ScaleMin, b.ScaleMax, p.Scale)
	}
	return nil
}

// Normalized returns p with the rotation folded into (-180, 180].
func (p Params) Normalized() Params {
	p.Rotation = geometry.NormalizeDegrees(p.Rotation)
	return p
}

// With returns a copy of p with one field replaced. The result is validated
// and normalized.
func (p Params) With(field Field, v float64) (Params, error) {
	switch field {
	case FieldScale:
		p.Scale = v
	case FieldRotation:
		p.Rotation = v
	case FieldOpacity:
		p.Opacity = v
	default:
		return p, errors.New(errors.ErrCodeInvalidInput, "unknown parameter %d", int(field))
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p.Normalized(), nil
}

// Get returns the value of one field.
func (p Params) Get(field Field) float64 {
	switch field {
	case FieldScale:
		return p.Scale
	case FieldRotation:
		return p.Rotation
	case FieldOpacity:
		return p.Opacity
	}
	return 0
}

// Field names one adjustable parameter.
type Field int

const (
	FieldScale Field = iota
	FieldRotation
	FieldOpacity
)

func (f Field) String() string {
	switch f {
	case FieldScale:
		return "scale"
	case FieldRotation:
		return "rotation"
	case FieldOpacity:
		return "opacity"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// ParseField parses a parameter name as used by the API and CLI.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scale", "size":
		return FieldScale, nil
	case "rotation", "rotate", "angle":
		return FieldRotation, nil
	case "opacity", "alpha":
		return FieldOpacity, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown parameter %q", s)
}
