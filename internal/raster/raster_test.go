package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestToNRGBAOffsetBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 8, 7))
	src.SetNRGBA(5, 5, color.NRGBA{R: 10, A: 255})
	src.SetNRGBA(7, 6, color.NRGBA{B: 30, A: 128})

	got := ToNRGBA(src)
	if got.Rect != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds = %v", got.Rect)
	}
	if c := got.NRGBAAt(0, 0); c != (color.NRGBA{R: 10, A: 255}) {
		t.Errorf("(0,0) = %v", c)
	}
	if c := got.NRGBAAt(2, 1); c != (color.NRGBA{B: 30, A: 128}) {
		t.Errorf("(2,1) = %v", c)
	}

	got.Pix[0] = 99
	if src.NRGBAAt(5, 5).R != 10 {
		t.Error("ToNRGBA must copy pixels")
	}
}

func TestToNRGBAFromGray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 2))
	g.SetGray(1, 1, color.Gray{Y: 200})
	got := ToNRGBA(g)
	if c := got.NRGBAAt(1, 1); c != (color.NRGBA{R: 200, G: 200, B: 200, A: 255}) {
		t.Errorf("(1,1) = %v", c)
	}
}

func TestCloneAndEqual(t *testing.T) {
	a := Uniform(4, 3, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	b := Clone(a)
	if !Equal(a, b) {
		t.Fatal("clone differs")
	}
	b.Pix[5] = 77
	if Equal(a, b) {
		t.Error("Equal missed a pixel change")
	}
	if a.Pix[5] == 77 {
		t.Error("Clone shares pixel storage")
	}
	if Equal(a, Uniform(3, 4, color.NRGBA{})) {
		t.Error("Equal ignored bounds")
	}
	if !Equal(nil, nil) || Equal(a, nil) {
		t.Error("nil handling")
	}
}

func TestAssetAccessors(t *testing.T) {
	a := NewAsset("beard", "Full Beard", Uniform(180, 140, color.NRGBA{A: 255}))
	if a.Width() != 180 || a.Height() != 140 {
		t.Errorf("size = %dx%d", a.Width(), a.Height())
	}
	if c := a.PixelAt(-1, 0); c != (color.NRGBA{}) {
		t.Errorf("outside pixel = %v", c)
	}
	if c := a.PixelAt(0, 0); c.A != 255 {
		t.Errorf("inside pixel = %v", c)
	}
	var nilAsset *Asset
	if nilAsset.Width() != 0 || nilAsset.Height() != 0 {
		t.Error("nil asset should have zero size")
	}
}

func TestLoadPNG(t *testing.T) {
	img := Uniform(3, 3, color.NRGBA{R: 40, G: 50, B: 60, A: 70})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "x.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(got, img) {
		t.Error("loaded pixels differ")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsSupportedFormat(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.PNG", true},
		{"b.jpeg", true},
		{"c.webp", true},
		{"d.tif", true},
		{"e.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsSupportedFormat(tt.path); got != tt.want {
			t.Errorf("IsSupportedFormat(%q) = %v", tt.path, got)
		}
	}
}

func TestResize(t *testing.T) {
	src := Uniform(30, 20, color.NRGBA{R: 255, A: 255})
	got := Resize(src, 15, 10)
	if got.Bounds() != image.Rect(0, 0, 15, 10) {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if c := got.NRGBAAt(7, 5); c.R < 254 || c.A != 255 {
		t.Errorf("center = %v", c)
	}
	same := Resize(src, 30, 20)
	if same == src || !Equal(same, src) {
		t.Error("same-size resize should copy")
	}
}
