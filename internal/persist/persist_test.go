package persist

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"facial-editor/internal/raster"
	"facial-editor/pkg/colorutil"
	"facial-editor/pkg/errors"
)

func halfTransparent() *image.NRGBA {
	return raster.Uniform(8, 6, color.NRGBA{R: 200, G: 100, B: 0, A: 128})
}

func TestWriteFormats(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink()

	tests := []struct {
		name      string
		file      string
		wantPath  string
		wantAlpha bool
	}{
		{"png keeps alpha", "a.png", "a.png", true},
		{"no extension becomes png", "b", "b.png", true},
		{"tiff keeps alpha", "c.tiff", "c.tiff", true},
		{"tif keeps alpha", "c2.TIF", "c2.TIF", true},
		{"jpg flattens", "d.jpg", "d.jpg", false},
		{"jpeg flattens", "e.jpeg", "e.jpeg", false},
		{"bmp flattens", "f.bmp", "f.bmp", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sink.Write(halfTransparent(), filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatal(err)
			}
			if want := filepath.Join(dir, tt.wantPath); got != want {
				t.Errorf("path = %q, want %q", got, want)
			}
			img, err := raster.Load(got)
			if err != nil {
				t.Fatal(err)
			}
			if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
				t.Errorf("bounds = %v", img.Bounds())
			}
			a := img.NRGBAAt(3, 3).A
			if tt.wantAlpha && a != 128 {
				t.Errorf("alpha = %d, want 128", a)
			}
			if !tt.wantAlpha && a != 255 {
				t.Errorf("alpha = %d, want opaque", a)
			}
		})
	}
}

func TestWriteUnsupported(t *testing.T) {
	_, err := NewFileSink().Write(halfTransparent(), filepath.Join(t.TempDir(), "x.webp"))
	if !errors.Is(err, errors.ErrCodePersistence) || !errors.Is(err, errors.ErrCodeUnsupportedFormat) {
		t.Errorf("err = %v", err)
	}
}

func TestWritePermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(dir, 0o700)

	_, err := NewFileSink().Write(halfTransparent(), filepath.Join(dir, "x.png"))
	if !errors.Is(err, errors.ErrCodePersistence) {
		t.Fatalf("err = %v, want PERSISTENCE", err)
	}
	if !errors.Is(err, errors.ErrCodePermissionDenied) {
		t.Errorf("err = %v, want PERMISSION_DENIED", err)
	}
}

func TestWriteMissingDirectory(t *testing.T) {
	_, err := NewFileSink().Write(halfTransparent(), filepath.Join(t.TempDir(), "nope", "x.png"))
	if !errors.Is(err, errors.ErrCodePersistence) {
		t.Errorf("err = %v", err)
	}
}

func TestFlatten(t *testing.T) {
	img := raster.Uniform(1, 1, color.NRGBA{R: 0, G: 0, B: 0, A: 128})
	got := Flatten(img, colorutil.White)
	c := got.RGBAAt(0, 0)
	// 0*128/255 + 255*(1-128/255) = 127.
	if c.R != 127 || c.G != 127 || c.B != 127 || c.A != 255 {
		t.Errorf("Flatten = %v", c)
	}
}

func TestEncodeToWriter(t *testing.T) {
	f, err := LookupFormat("png")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := NewFileSink().Encode(&buf, halfTransparent(), f); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("not a PNG stream")
	}

	if f, _ := LookupFormat(""); f.Ext != ".png" {
		t.Errorf("default format = %+v", f)
	}
	if _, err := LookupFormat(".gif"); !errors.Is(err, errors.ErrCodeUnsupportedFormat) {
		t.Errorf("err = %v", err)
	}
}
