package canvas

import (
	"image"
	"image/color"

	"facial-editor/pkg/geometry"
)

// Marker outlines the pending preview: a dashed box around the sticker's
// footprint and a cross at the click point. Coordinates are image pixels.
type Marker struct {
	At    geometry.PointInt
	Box   geometry.RectInt
	Color color.RGBA
}

const dash = 6

// draw paints the marker onto out, whose pixels are sx, sy times the
// image's.
func (m *Marker) draw(out *image.RGBA, sx, sy float64) {
	c := m.Color
	if c.A == 0 {
		c = color.RGBA{R: 0xFF, G: 0xD5, A: 0xFF}
	}

	x0 := int(float64(m.Box.X) * sx)
	y0 := int(float64(m.Box.Y) * sy)
	x1 := int(float64(m.Box.X+m.Box.Width) * sx)
	y1 := int(float64(m.Box.Y+m.Box.Height) * sy)
	for x := x0; x <= x1; x++ {
		if (x-x0)/dash%2 == 0 {
			setIn(out, x, y0, c)
			setIn(out, x, y1, c)
		}
	}
	for y := y0; y <= y1; y++ {
		if (y-y0)/dash%2 == 0 {
			setIn(out, x0, y, c)
			setIn(out, x1, y, c)
		}
	}

	cx := int(float64(m.At.X) * sx)
	cy := int(float64(m.At.Y) * sy)
	for d := -dash; d <= dash; d++ {
		setIn(out, cx+d, cy, c)
		setIn(out, cx, cy+d, c)
	}
}

func setIn(out *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(out.Rect) {
		out.SetRGBA(x, y, c)
	}
}
