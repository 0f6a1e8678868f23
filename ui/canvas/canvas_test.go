package canvas

import (
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"

	"facial-editor/pkg/geometry"
)

func TestCanvasToImage(t *testing.T) {
	bounds := image.Rect(0, 0, 400, 500)
	tests := []struct {
		x, y, zoom float64
		want       geometry.PointInt
		ok         bool
	}{
		{250, 300, 1, geometry.PointInt{X: 250, Y: 300}, true},
		{500, 600, 2, geometry.PointInt{X: 250, Y: 300}, true},
		{125, 150, 0.5, geometry.PointInt{X: 250, Y: 300}, true},
		{399.9, 0, 1, geometry.PointInt{X: 399, Y: 0}, true},
		{400, 0, 1, geometry.PointInt{}, false},
		{-1, 10, 1, geometry.PointInt{}, false},
	}
	for _, tt := range tests {
		got, ok := canvasToImage(tt.x, tt.y, tt.zoom, bounds)
		if ok != tt.ok || got != tt.want {
			t.Errorf("canvasToImage(%v, %v, %v) = %v, %v; want %v, %v", tt.x, tt.y, tt.zoom, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFitZoom(t *testing.T) {
	z, ok := fitZoom(image.Rect(0, 0, 400, 200), fyne.NewSize(200, 200))
	if !ok || z != 0.5*0.95 {
		t.Errorf("fitZoom = %v, %v", z, ok)
	}
	if _, ok := fitZoom(image.Rect(0, 0, 0, 0), fyne.NewSize(200, 200)); ok {
		t.Error("empty image should not fit")
	}
}

func TestClampZoom(t *testing.T) {
	if got := clampZoom(100); got != maxZoom {
		t.Errorf("clampZoom(100) = %v", got)
	}
	if got := clampZoom(0); got != minZoom {
		t.Errorf("clampZoom(0) = %v", got)
	}
}

func TestMarkerDraw(t *testing.T) {
	out := image.NewRGBA(image.Rect(0, 0, 100, 100))
	red := color.RGBA{R: 255, A: 255}
	m := &Marker{
		At:    geometry.PointInt{X: 50, Y: 50},
		Box:   geometry.CenteredAt(geometry.PointInt{X: 50, Y: 50}, 40, 20),
		Color: red,
	}
	m.draw(out, 1, 1)

	if got := out.RGBAAt(50, 50); got != red {
		t.Errorf("cross center = %v", got)
	}
	if got := out.RGBAAt(30, 40); got != red {
		t.Errorf("box corner = %v", got)
	}
	if got := out.RGBAAt(45, 45); got != (color.RGBA{}) {
		t.Errorf("inside box = %v", got)
	}

	// Markers partly off the image are clipped.
	m.At = geometry.PointInt{X: 99, Y: 99}
	m.Box = geometry.CenteredAt(m.At, 40, 40)
	m.draw(out, 1, 1)
}
