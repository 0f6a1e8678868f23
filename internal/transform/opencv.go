//go:build opencv

package transform

import (
	"image"
	"image/color"
	"math"

	"facial-editor/internal/raster"
	"facial-editor/pkg/geometry"

	"gocv.io/x/gocv"
)

func init() {
	Register("opencv", func() Engine { return OpenCV{} })
}

// OpenCV is an Engine backed by gocv. It uses area interpolation when
// shrinking, bicubic when enlarging and a bicubic affine warp for rotation.
type OpenCV struct{}

// Apply implements Engine.
func (OpenCV) Apply(src *image.NRGBA, p Params) (*image.NRGBA, error) {
	if p.Scale == 1 && math.Mod(p.Rotation, 360) == 0 {
		return Fade(raster.Clone(src), p.Opacity), nil
	}

	mat, err := nrgbaToMat(src)
	if err != nil {
		return NewResampler().Apply(src, p)
	}
	defer func() { mat.Close() }()

	if p.Scale != 1 {
		w, h, err := geometry.ScaledSize(mat.Cols(), mat.Rows(), p.Scale)
		if err != nil {
			return nil, err
		}
		interp := gocv.InterpolationCubic
		if p.Scale < 1 {
			interp = gocv.InterpolationArea
		}
		scaled := gocv.NewMat()
		gocv.Resize(mat, &scaled, image.Point{X: w, Y: h}, 0, 0, interp)
		mat.Close()
		mat = scaled
	}

	if math.Mod(p.Rotation, 360) != 0 {
		frame, err := geometry.RotatedFrame(mat.Cols(), mat.Rows(), p.Rotation)
		if err != nil {
			return nil, err
		}
		rotated := warpAffine(mat, frame)
		mat.Close()
		mat = rotated
	}

	return Fade(matToNRGBA(mat), p.Opacity), nil
}

// warpAffine renders mat into frame. OpenCV addresses pixel centers at
// integer coordinates, so the continuous frame transform is shifted by half
// a pixel on both sides.
func warpAffine(src gocv.Mat, frame geometry.Frame) gocv.Mat {
	t := geometry.Translation(-0.5, -0.5).
		Compose(frame.Transform).
		Compose(geometry.Translation(0.5, 0.5))

	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer m.Close()
	m.SetDoubleAt(0, 0, t.A)
	m.SetDoubleAt(0, 1, t.B)
	m.SetDoubleAt(0, 2, t.TX)
	m.SetDoubleAt(1, 0, t.C)
	m.SetDoubleAt(1, 1, t.D)
	m.SetDoubleAt(1, 2, t.TY)

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(src, &dst, m, image.Point{X: frame.Width, Y: frame.Height},
		gocv.InterpolationCubic, gocv.BorderConstant, color.RGBA{})
	return dst
}

func nrgbaToMat(img *image.NRGBA) (gocv.Mat, error) {
	b := img.Bounds()
	return gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, raster.Clone(img).Pix)
}

func matToNRGBA(mat gocv.Mat) *image.NRGBA {
	h, w := mat.Rows(), mat.Cols()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w*4; x++ {
			img.Pix[y*img.Stride+x] = mat.GetUCharAt(y, x)
		}
	}
	return img
}
