package transform

import (
	"image"
	"image/color"
	"math"
	"testing"

	"facial-editor/internal/raster"
	"facial-editor/pkg/errors"
)

func opaqueBlock(w, h int, c color.NRGBA) *image.NRGBA {
	return raster.Uniform(w, h, c)
}

func mustApply(t *testing.T, e Engine, src *image.NRGBA, p Params) *image.NRGBA {
	t.Helper()
	out, err := e.Apply(src, p)
	if err != nil {
		t.Fatalf("Apply(%+v): %v", p, err)
	}
	return out
}

func TestApplyIdentity(t *testing.T) {
	src := opaqueBlock(30, 20, color.NRGBA{R: 45, G: 28, B: 18, A: 220})
	e := NewResampler()

	got := mustApply(t, e, src, DefaultParams())
	if got == src {
		t.Fatal("Apply returned its input")
	}
	if !raster.Equal(got, src) {
		t.Error("identity parameters changed pixels")
	}

	full := mustApply(t, e, src, Params{Scale: 1, Rotation: 360, Opacity: 1})
	if !raster.Equal(full, src) {
		t.Error("a full turn should be the identity")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	src := opaqueBlock(16, 16, color.NRGBA{R: 200, A: 200})
	before := raster.Clone(src)
	mustApply(t, NewResampler(), src, Params{Scale: 1.7, Rotation: 33, Opacity: 0.4})
	if !raster.Equal(src, before) {
		t.Error("Apply modified its input")
	}
}

func TestApplyDeterministic(t *testing.T) {
	src := opaqueBlock(21, 13, color.NRGBA{G: 90, B: 30, A: 180})
	p := Params{Scale: 0.8, Rotation: -47.5, Opacity: 0.6}
	e := NewResampler()
	if !raster.Equal(mustApply(t, e, src, p), mustApply(t, e, src, p)) {
		t.Error("Apply is not deterministic")
	}
}

func TestScaleSize(t *testing.T) {
	src := opaqueBlock(180, 140, color.NRGBA{A: 255})
	tests := []struct {
		scale float64
		w, h  int
	}{
		{0.5, 90, 70},
		{2, 360, 280},
		{0.1, 18, 14},
		{0.001, 1, 1},
		{1.25, 225, 175},
	}
	e := NewResampler()
	for _, tt := range tests {
		got, err := e.Scale(src, tt.scale)
		if err != nil {
			t.Errorf("Scale(%v): %v", tt.scale, err)
			continue
		}
		if got.Bounds().Dx() != tt.w || got.Bounds().Dy() != tt.h {
			t.Errorf("Scale(%v) = %v, want %dx%d", tt.scale, got.Bounds(), tt.w, tt.h)
		}
	}
}

func TestScaleKeepsUniformColor(t *testing.T) {
	c := color.NRGBA{R: 55, G: 35, B: 22, A: 255}
	got, err := NewResampler().Scale(opaqueBlock(40, 40, c), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < got.Bounds().Dy(); y++ {
		for x := 0; x < got.Bounds().Dx(); x++ {
			p := got.NRGBAAt(x, y)
			if absDiff(p.R, c.R) > 1 || absDiff(p.G, c.G) > 1 || absDiff(p.B, c.B) > 1 || p.A != 255 {
				t.Fatalf("(%d,%d) = %v, want ~%v", x, y, p, c)
			}
		}
	}
}

func TestRotateExpandsFrame(t *testing.T) {
	e := NewResampler()
	tests := []struct {
		w, h    int
		degrees float64
		wantW   int
		wantH   int
	}{
		{20, 10, 90, 10, 20},
		{20, 10, -90, 10, 20},
		{20, 10, 180, 20, 10},
		{100, 100, 45, 142, 142},
	}
	for _, tt := range tests {
		got, err := e.Rotate(opaqueBlock(tt.w, tt.h, color.NRGBA{A: 255}), tt.degrees)
		if err != nil {
			t.Errorf("Rotate(%v): %v", tt.degrees, err)
			continue
		}
		if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
			t.Errorf("Rotate(%dx%d, %v) = %v, want %dx%d",
				tt.w, tt.h, tt.degrees, got.Bounds(), tt.wantW, tt.wantH)
		}
	}
}

func TestRotateCornersTransparent(t *testing.T) {
	got, err := NewResampler().Rotate(opaqueBlock(100, 100, color.NRGBA{R: 255, A: 255}), 45)
	if err != nil {
		t.Fatal(err)
	}
	for _, pt := range []image.Point{{0, 0}, {141, 0}, {0, 141}, {141, 141}} {
		if a := got.NRGBAAt(pt.X, pt.Y).A; a != 0 {
			t.Errorf("corner %v alpha = %d, want 0", pt, a)
		}
	}
	if a := got.NRGBAAt(71, 71).A; a < 250 {
		t.Errorf("center alpha = %d", a)
	}
}

func TestRotatePositiveIsCounterClockwise(t *testing.T) {
	// Opaque red on the right quarter of a 20x10 raster.
	src := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 15; x < 20; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	got, err := NewResampler().Rotate(src, 90)
	if err != nil {
		t.Fatal(err)
	}

	// The right edge turns to the top.
	if p := got.NRGBAAt(5, 2); p.A < 250 || p.R < 250 {
		t.Errorf("top = %v, want opaque red", p)
	}
	if p := got.NRGBAAt(5, 17); p.A != 0 {
		t.Errorf("bottom = %v, want transparent", p)
	}
}

func TestFade(t *testing.T) {
	src := opaqueBlock(2, 2, color.NRGBA{R: 45, G: 28, B: 18, A: 220})
	got := Fade(src, 0.5)
	if got == src {
		t.Fatal("Fade returned its input")
	}
	want := color.NRGBA{R: 45, G: 28, B: 18, A: 110}
	if p := got.NRGBAAt(1, 1); p != want {
		t.Errorf("Fade = %v, want %v", p, want)
	}
	if p := Fade(src, 0).NRGBAAt(0, 0); p.A != 0 || p.R != 45 {
		t.Errorf("Fade(0) = %v", p)
	}
	if Fade(src, 1) != src {
		t.Error("Fade(1) should be a no-op")
	}
}

func TestApplyOrder(t *testing.T) {
	src := opaqueBlock(40, 20, color.NRGBA{B: 255, A: 255})
	got := mustApply(t, NewResampler(), src, Params{Scale: 0.5, Rotation: 90, Opacity: 0.5})
	if got.Bounds().Dx() != 10 || got.Bounds().Dy() != 20 {
		t.Errorf("bounds = %v, want 10x20", got.Bounds())
	}
	if a := got.NRGBAAt(5, 10).A; a < 126 || a > 128 {
		t.Errorf("center alpha = %d, want ~128", a)
	}
}

func TestApplyRejectsOversizedOutput(t *testing.T) {
	src := opaqueBlock(180, 140, color.NRGBA{A: 255})
	e := NewResampler()
	for _, p := range []Params{
		{Scale: 1e7, Opacity: 1},
		{Scale: 100, Rotation: 45, Opacity: 1},
	} {
		if _, err := e.Apply(src, p); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Apply(%+v) err = %v, want INVALID_INPUT", p, err)
		}
	}
}

func TestBoundsCheck(t *testing.T) {
	b := DefaultBounds()
	tests := []struct {
		scale   float64
		wantErr bool
	}{
		{1, false},
		{b.ScaleMin, false},
		{b.ScaleMax, false},
		{0.01, true},
		{3.5, true},
		{1e7, true},
		{math.NaN(), true},
	}
	for _, tt := range tests {
		err := b.Check(Params{Scale: tt.scale, Opacity: 1})
		if tt.wantErr != (err != nil) {
			t.Errorf("Check(scale %v) err = %v, wantErr %v", tt.scale, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Check(scale %v) code = %v", tt.scale, errors.GetCode(err))
		}
	}
}

func TestParamsWith(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name    string
		field   Field
		value   float64
		want    float64
		wantErr bool
	}{
		{"scale", FieldScale, 1.5, 1.5, false},
		{"zero scale", FieldScale, 0, 0, true},
		{"negative scale", FieldScale, -1, 0, true},
		{"rotation wraps", FieldRotation, 270, -90, false},
		{"rotation -180", FieldRotation, -180, 180, false},
		{"opacity", FieldOpacity, 0.25, 0.25, false},
		{"opacity above one", FieldOpacity, 1.01, 0, true},
		{"opacity negative", FieldOpacity, -0.1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.With(tt.field, tt.value)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Fatalf("err = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if v := got.Get(tt.field); v != tt.want {
				t.Errorf("%s = %v, want %v", tt.field, v, tt.want)
			}
		})
	}
}

func TestParseField(t *testing.T) {
	for in, want := range map[string]Field{"Scale": FieldScale, "rotation": FieldRotation, " opacity ": FieldOpacity} {
		got, err := ParseField(in)
		if err != nil || got != want {
			t.Errorf("ParseField(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseField("hue"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseField(hue) err = %v", err)
	}
}

func TestNewBackend(t *testing.T) {
	e, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*Resampler); !ok {
		t.Errorf("default backend = %T", e)
	}
	if _, err := New("nope"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
