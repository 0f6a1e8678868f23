package catalog

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"facial-editor/internal/raster"

	"github.com/gogpu/gg"
)

// shapeKind selects how a shape's box is interpreted.
type shapeKind int

const (
	ellipse shapeKind = iota
	rect
	arc
	line
	polygon
)

// shape is one drawing step. Boxes are inclusive pixel bounds
// [x0, y0, x1, y1]; arcs run clockwise on screen from start to end degrees,
// measured from 3 o'clock.
type shape struct {
	kind    shapeKind
	box     [4]float64
	points  [][2]float64
	fill    color.NRGBA
	outline color.NRGBA
	width   float64
	start   float64
	end     float64
}

type design struct {
	category string
	name     string
	w, h     int
	shapes   []shape
}

var (
	brown     = color.NRGBA{R: 45, G: 28, B: 18, A: 255}
	brownSoft = color.NRGBA{R: 45, G: 28, B: 18, A: 220}
)

func fillEllipse(x0, y0, x1, y1 float64, c color.NRGBA) shape {
	return shape{kind: ellipse, box: [4]float64{x0, y0, x1, y1}, fill: c}
}

func fillRect(x0, y0, x1, y1 float64, c color.NRGBA) shape {
	return shape{kind: rect, box: [4]float64{x0, y0, x1, y1}, fill: c}
}

func outlined(s shape, c color.NRGBA, width float64) shape {
	s.outline = c
	s.width = width
	return s
}

func strokeArc(x0, y0, x1, y1, start, end float64, c color.NRGBA, width float64) shape {
	return shape{kind: arc, box: [4]float64{x0, y0, x1, y1}, start: start, end: end, outline: c, width: width}
}

func strokeLine(x0, y0, x1, y1 float64, c color.NRGBA, width float64) shape {
	return shape{kind: line, box: [4]float64{x0, y0, x1, y1}, outline: c, width: width}
}

func fillPolygon(c color.NRGBA, pts ...[2]float64) shape {
	return shape{kind: polygon, points: pts, fill: c}
}

// designs is the built-in catalog, in display order.
var designs = []design{
	{"beard", "Full Beard", 180, 140, []shape{
		fillEllipse(30, 20, 150, 120, brownSoft),
		fillEllipse(40, 10, 140, 100, color.NRGBA{R: 55, G: 35, B: 22, A: 200}),
	}},
	{"beard", "Goatee", 120, 100, []shape{
		fillEllipse(30, 30, 90, 90, brownSoft),
		fillRect(45, 10, 75, 50, brownSoft),
	}},
	{"beard", "Stubble", 160, 120, []shape{
		fillEllipse(30, 20, 130, 100, color.NRGBA{R: 60, G: 40, B: 30, A: 150}),
	}},
	{"beard", "Van Dyke", 140, 110, []shape{
		fillEllipse(40, 50, 100, 105, brownSoft),
		fillRect(60, 10, 80, 60, brownSoft),
	}},
	{"beard", "Chin Strap", 180, 100, []shape{
		strokeArc(20, 20, 80, 90, 180, 360, brown, 15),
		strokeArc(100, 20, 160, 90, 180, 360, brown, 15),
		strokeLine(40, 90, 140, 90, brown, 15),
	}},

	{"mustache", "Handlebar", 180, 60, []shape{
		strokeArc(10, 15, 70, 55, 200, 340, brown, 12),
		strokeArc(110, 15, 170, 55, 200, 340, brown, 12),
		fillRect(65, 30, 115, 42, brown),
	}},
	{"mustache", "Pencil", 120, 30, []shape{
		fillRect(20, 12, 100, 18, brown),
	}},
	{"mustache", "Walrus", 160, 80, []shape{
		fillEllipse(20, 10, 70, 70, brownSoft),
		fillEllipse(90, 10, 140, 70, brownSoft),
		fillRect(60, 30, 100, 50, brownSoft),
	}},
	{"mustache", "Chevron", 140, 50, []shape{
		fillRect(20, 15, 120, 35, color.NRGBA{R: 45, G: 28, B: 18, A: 240}),
	}},

	{"sunglasses", "Aviator", 200, 80, []shape{
		outlined(fillEllipse(20, 15, 85, 65, color.NRGBA{R: 20, G: 20, B: 20, A: 180}), color.NRGBA{R: 50, G: 50, B: 50, A: 255}, 2),
		outlined(fillEllipse(115, 15, 180, 65, color.NRGBA{R: 20, G: 20, B: 20, A: 180}), color.NRGBA{R: 50, G: 50, B: 50, A: 255}, 2),
		fillRect(83, 38, 117, 42, color.NRGBA{R: 50, G: 50, B: 50, A: 255}),
	}},
	{"sunglasses", "Wayfarer", 200, 70, []shape{
		outlined(fillRect(20, 15, 85, 55, color.NRGBA{R: 20, G: 20, B: 20, A: 200}), color.NRGBA{R: 10, G: 10, B: 10, A: 255}, 3),
		outlined(fillRect(115, 15, 180, 55, color.NRGBA{R: 20, G: 20, B: 20, A: 200}), color.NRGBA{R: 10, G: 10, B: 10, A: 255}, 3),
		fillRect(83, 33, 117, 37, color.NRGBA{R: 10, G: 10, B: 10, A: 255}),
	}},
	{"sunglasses", "Round", 200, 80, []shape{
		outlined(fillEllipse(25, 20, 80, 60, color.NRGBA{R: 100, G: 100, B: 150, A: 120}), color.NRGBA{R: 40, G: 40, B: 40, A: 255}, 3),
		outlined(fillEllipse(120, 20, 175, 60, color.NRGBA{R: 100, G: 100, B: 150, A: 120}), color.NRGBA{R: 40, G: 40, B: 40, A: 255}, 3),
		fillRect(78, 38, 122, 42, color.NRGBA{R: 40, G: 40, B: 40, A: 255}),
	}},
	{"sunglasses", "Cat Eye", 220, 75, []shape{
		outlined(fillPolygon(color.NRGBA{R: 20, G: 20, B: 20, A: 200},
			[2]float64{15, 40}, [2]float64{30, 25}, [2]float64{75, 25}, [2]float64{90, 40}, [2]float64{75, 50}, [2]float64{30, 50}),
			color.NRGBA{R: 10, G: 10, B: 10, A: 255}, 1),
		outlined(fillPolygon(color.NRGBA{R: 20, G: 20, B: 20, A: 200},
			[2]float64{130, 40}, [2]float64{145, 25}, [2]float64{190, 25}, [2]float64{205, 40}, [2]float64{190, 50}, [2]float64{145, 50}),
			color.NRGBA{R: 10, G: 10, B: 10, A: 255}, 1),
		fillRect(88, 38, 132, 42, color.NRGBA{R: 10, G: 10, B: 10, A: 255}),
	}},

	{"hat", "Top Hat", 160, 180, []shape{
		fillRect(40, 20, 120, 120, color.NRGBA{R: 30, G: 30, B: 35, A: 255}),
		fillEllipse(20, 110, 140, 145, color.NRGBA{R: 35, G: 35, B: 40, A: 255}),
		fillRect(35, 116, 125, 125, color.NRGBA{R: 80, G: 20, B: 20, A: 255}),
	}},
	{"hat", "Baseball Cap", 180, 100, []shape{
		fillEllipse(30, 30, 150, 85, color.NRGBA{R: 200, G: 50, B: 50, A: 255}),
		fillEllipse(20, 55, 90, 95, color.NRGBA{R: 180, G: 40, B: 40, A: 255}),
	}},
	{"hat", "Cowboy", 200, 120, []shape{
		fillEllipse(20, 70, 180, 110, color.NRGBA{R: 139, G: 90, B: 43, A: 255}),
		fillPolygon(color.NRGBA{R: 160, G: 100, B: 50, A: 255}, [2]float64{100, 25}, [2]float64{60, 70}, [2]float64{140, 70}),
		fillEllipse(70, 60, 130, 85, color.NRGBA{R: 139, G: 90, B: 43, A: 255}),
	}},
	{"hat", "Beanie", 140, 90, []shape{
		fillEllipse(20, 30, 120, 80, color.NRGBA{R: 100, G: 100, B: 120, A: 255}),
		fillEllipse(50, 15, 90, 45, color.NRGBA{R: 100, G: 100, B: 120, A: 255}),
	}},

	{"hair", "Afro", 200, 180, []shape{
		fillEllipse(20, 20, 180, 160, brown),
	}},
	{"hair", "Long Hair", 220, 200, []shape{
		fillEllipse(30, 10, 100, 80, color.NRGBA{R: 60, G: 40, B: 20, A: 255}),
		fillEllipse(120, 10, 190, 80, color.NRGBA{R: 60, G: 40, B: 20, A: 255}),
		fillRect(30, 50, 190, 180, color.NRGBA{R: 60, G: 40, B: 20, A: 255}),
	}},
	{"hair", "Mohawk", 80, 150, []shape{
		fillRect(25, 20, 55, 140, color.NRGBA{R: 200, G: 50, B: 50, A: 255}),
		fillPolygon(color.NRGBA{R: 200, G: 50, B: 50, A: 255}, [2]float64{25, 20}, [2]float64{40, 5}, [2]float64{55, 20}),
	}},
	{"hair", "Bob Cut", 180, 140, []shape{
		fillEllipse(20, 10, 160, 90, color.NRGBA{R: 139, G: 69, B: 19, A: 255}),
		fillRect(20, 50, 160, 120, color.NRGBA{R: 139, G: 69, B: 19, A: 255}),
	}},

	{"glasses", "Nerd Glasses", 200, 80, []shape{
		outlined(fillRect(20, 25, 80, 60, color.NRGBA{R: 255, G: 255, B: 255, A: 100}), color.NRGBA{R: 20, G: 20, B: 20, A: 255}, 4),
		outlined(fillRect(120, 25, 180, 60, color.NRGBA{R: 255, G: 255, B: 255, A: 100}), color.NRGBA{R: 20, G: 20, B: 20, A: 255}, 4),
		fillRect(78, 40, 122, 45, color.NRGBA{R: 20, G: 20, B: 20, A: 255}),
	}},
	{"glasses", "Reading", 180, 70, []shape{
		outlined(fillEllipse(20, 20, 75, 60, color.NRGBA{R: 255, G: 255, B: 255, A: 80}), color.NRGBA{R: 100, G: 80, B: 60, A: 255}, 2),
		outlined(fillEllipse(105, 20, 160, 60, color.NRGBA{R: 255, G: 255, B: 255, A: 80}), color.NRGBA{R: 100, G: 80, B: 60, A: 255}, 2),
		fillRect(73, 38, 107, 42, color.NRGBA{R: 100, G: 80, B: 60, A: 255}),
	}},
	{"glasses", "Monocle", 100, 100, []shape{
		outlined(fillEllipse(20, 20, 80, 80, color.NRGBA{R: 255, G: 255, B: 255, A: 100}), color.NRGBA{R: 180, G: 150, B: 100, A: 255}, 3),
		fillRect(75, 48, 90, 52, color.NRGBA{R: 180, G: 150, B: 100, A: 255}),
	}},
}

// Builtin returns a Store holding the procedurally drawn sticker set.
func Builtin() (*Store, error) {
	s := NewStore()
	for _, d := range designs {
		img, err := d.render()
		if err != nil {
			return nil, fmt.Errorf("drawing %s/%s: %w", d.category, d.name, err)
		}
		s.Add(raster.NewAsset(d.category, d.name, img))
	}
	return s, nil
}

func (d design) render() (image.Image, error) {
	dc := gg.NewContext(d.w, d.h)
	defer dc.Close()
	for _, sh := range d.shapes {
		if err := sh.draw(dc); err != nil {
			return nil, err
		}
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func (s shape) draw(dc *gg.Context) error {
	x0, y0, x1, y1 := s.box[0], s.box[1], s.box[2], s.box[3]

	switch s.kind {
	case ellipse:
		if s.fill.A > 0 {
			dc.SetColor(s.fill)
			dc.DrawEllipse((x0+x1+1)/2, (y0+y1+1)/2, (x1-x0+1)/2, (y1-y0+1)/2)
			if err := dc.Fill(); err != nil {
				return err
			}
		}
		if s.width > 0 {
			// Outlines are drawn inside the box.
			in := s.width / 2
			dc.SetColor(s.outline)
			dc.SetLineWidth(s.width)
			dc.DrawEllipse((x0+x1+1)/2, (y0+y1+1)/2, (x1-x0+1)/2-in, (y1-y0+1)/2-in)
			return dc.Stroke()
		}

	case rect:
		if s.fill.A > 0 {
			dc.SetColor(s.fill)
			dc.DrawRectangle(x0, y0, x1-x0+1, y1-y0+1)
			if err := dc.Fill(); err != nil {
				return err
			}
		}
		if s.width > 0 {
			in := s.width / 2
			dc.SetColor(s.outline)
			dc.SetLineWidth(s.width)
			dc.DrawRectangle(x0+in, y0+in, x1-x0+1-s.width, y1-y0+1-s.width)
			return dc.Stroke()
		}

	case arc:
		cx, cy := (x0+x1+1)/2, (y0+y1+1)/2
		rx, ry := (x1-x0+1-s.width)/2, (y1-y0+1-s.width)/2
		const steps = 48
		for i := 0; i <= steps; i++ {
			a := (s.start + (s.end-s.start)*float64(i)/steps) * math.Pi / 180
			x, y := cx+rx*math.Cos(a), cy+ry*math.Sin(a)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.SetColor(s.outline)
		dc.SetLineWidth(s.width)
		return dc.Stroke()

	case line:
		dc.SetColor(s.outline)
		dc.SetLineWidth(s.width)
		dc.DrawLine(x0, y0, x1, y1)
		return dc.Stroke()

	case polygon:
		for i, p := range s.points {
			if i == 0 {
				dc.MoveTo(p[0], p[1])
			} else {
				dc.LineTo(p[0], p[1])
			}
		}
		dc.ClosePath()
		dc.SetColor(s.fill)
		if s.width > 0 {
			if err := dc.FillPreserve(); err != nil {
				return err
			}
			dc.SetColor(s.outline)
			dc.SetLineWidth(s.width)
			return dc.Stroke()
		}
		return dc.Fill()
	}
	return nil
}
