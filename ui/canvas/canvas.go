// Package canvas provides the zoomable image view the editor paints
// composites into and receives placement clicks from.
package canvas

import (
	"image"
	"image/color"
	"math"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"

	"facial-editor/pkg/geometry"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

var backdrop = color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}

// ImageCanvas displays one image with zoom and reports clicks in image
// pixel coordinates.
type ImageCanvas struct {
	widget.BaseWidget

	img    image.Image
	marker *Marker

	raster *fynecanvas.Raster
	zoom   float64

	scroll  *zoomScroll
	content *clickableContent
	imgSize fyne.Size

	fitToWindow    bool
	lastScrollSize fyne.Size

	onZoomChange func(zoom float64)
	onLeftClick  func(pt geometry.PointInt)
	onRightClick func(pt geometry.PointInt)
}

// zoomScroll wraps a scroll container but uses the wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *ImageCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *ImageCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// clickableContent wraps the raster to receive taps.
type clickableContent struct {
	widget.BaseWidget
	canvas *ImageCanvas
	raster *fynecanvas.Raster
}

func newClickableContent(ic *ImageCanvas, raster *fynecanvas.Raster) *clickableContent {
	cc := &clickableContent{canvas: ic, raster: raster}
	cc.ExtendBaseWidget(cc)
	return cc
}

func (cc *clickableContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(cc.raster)
}

func (cc *clickableContent) MinSize() fyne.Size {
	return cc.raster.MinSize()
}

func (cc *clickableContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		cc.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		cc.canvas.ZoomOut()
	}
}

// Tapped handles left clicks.
func (cc *clickableContent) Tapped(ev *fyne.PointEvent) {
	if pt, ok := cc.imagePoint(ev); ok && cc.canvas.onLeftClick != nil {
		cc.canvas.onLeftClick(pt)
	}
}

// TappedSecondary handles right clicks.
func (cc *clickableContent) TappedSecondary(ev *fyne.PointEvent) {
	if pt, ok := cc.imagePoint(ev); ok && cc.canvas.onRightClick != nil {
		cc.canvas.onRightClick(pt)
	}
}

// imagePoint converts a tap to image pixels. Taps outside the widget or
// the image are rejected.
func (cc *clickableContent) imagePoint(ev *fyne.PointEvent) (geometry.PointInt, bool) {
	size := cc.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return geometry.PointInt{}, false
	}
	return cc.canvas.CanvasToImage(float64(ev.Position.X), float64(ev.Position.Y))
}

// NewImageCanvas creates an empty image canvas.
func NewImageCanvas() *ImageCanvas {
	ic := &ImageCanvas{
		zoom:    1.0,
		imgSize: fyne.NewSize(400, 300),
	}

	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(ic.imgSize)

	ic.content = newClickableContent(ic, ic.raster)
	ic.scroll = newZoomScroll(ic.content, ic)

	ic.ExtendBaseWidget(ic)
	return ic
}

// Container returns the canvas container for embedding in layouts.
func (ic *ImageCanvas) Container() fyne.CanvasObject {
	return ic.scroll
}

// SetImage replaces the displayed image.
func (ic *ImageCanvas) SetImage(img image.Image) {
	sizeChanged := ic.img == nil || img == nil || !img.Bounds().Eq(ic.img.Bounds())
	ic.img = img
	if sizeChanged {
		ic.updateContentSize()
		if ic.fitToWindow {
			ic.FitToWindow()
		}
		return
	}
	ic.raster.Refresh()
}

// Image returns the displayed image.
func (ic *ImageCanvas) Image() image.Image {
	return ic.img
}

// SetMarker shows m over the image; nil hides it.
func (ic *ImageCanvas) SetMarker(m *Marker) {
	ic.marker = m
	ic.raster.Refresh()
}

// SetZoom sets the zoom level.
func (ic *ImageCanvas) SetZoom(zoom float64) {
	ic.zoom = clampZoom(zoom)
	ic.updateContentSize()

	if ic.onZoomChange != nil {
		ic.onZoomChange(ic.zoom)
	}
}

func clampZoom(zoom float64) float64 {
	return math.Max(minZoom, math.Min(maxZoom, zoom))
}

// Zoom returns the current zoom level.
func (ic *ImageCanvas) Zoom() float64 {
	return ic.zoom
}

// ZoomIn increases the zoom level.
func (ic *ImageCanvas) ZoomIn() {
	ic.SetZoom(ic.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (ic *ImageCanvas) ZoomOut() {
	ic.SetZoom(ic.zoom / zoomStep)
}

// FitToWindow adjusts zoom to fit the image in the visible area.
func (ic *ImageCanvas) FitToWindow() {
	if ic.img == nil {
		return
	}
	viewSize := ic.scroll.Size()
	if z, ok := fitZoom(ic.img.Bounds(), viewSize); ok {
		ic.SetZoom(z)
	}
}

// fitZoom returns the zoom that fits bounds into view with a small margin.
func fitZoom(bounds image.Rectangle, view fyne.Size) (float64, bool) {
	if bounds.Dx() == 0 || bounds.Dy() == 0 || view.Width <= 0 || view.Height <= 0 {
		return 0, false
	}
	zoomX := float64(view.Width) / float64(bounds.Dx())
	zoomY := float64(view.Height) / float64(bounds.Dy())
	return math.Min(zoomX, zoomY) * 0.95, true
}

// SetFitToWindow enables or disables auto-fit on resize.
func (ic *ImageCanvas) SetFitToWindow(fit bool) {
	ic.fitToWindow = fit
	if fit {
		ic.FitToWindow()
	}
}

// FitsToWindow reports whether auto-fit is enabled.
func (ic *ImageCanvas) FitsToWindow() bool {
	return ic.fitToWindow
}

// checkResize auto-fits when the viewport size changed.
func (ic *ImageCanvas) checkResize(size fyne.Size) {
	if !ic.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != ic.lastScrollSize {
		ic.lastScrollSize = size
		ic.FitToWindow()
	}
}

// OnZoomChange sets a callback for zoom changes.
func (ic *ImageCanvas) OnZoomChange(callback func(zoom float64)) {
	ic.onZoomChange = callback
}

// OnLeftClick sets a callback for left clicks, in image pixels.
func (ic *ImageCanvas) OnLeftClick(callback func(pt geometry.PointInt)) {
	ic.onLeftClick = callback
}

// OnRightClick sets a callback for right clicks, in image pixels.
func (ic *ImageCanvas) OnRightClick(callback func(pt geometry.PointInt)) {
	ic.onRightClick = callback
}

// CanvasToImage converts a position on the zoomed content to an image
// pixel. It fails for positions outside the image.
func (ic *ImageCanvas) CanvasToImage(x, y float64) (geometry.PointInt, bool) {
	if ic.img == nil {
		return geometry.PointInt{}, false
	}
	return canvasToImage(x, y, ic.zoom, ic.img.Bounds())
}

func canvasToImage(x, y, zoom float64, bounds image.Rectangle) (geometry.PointInt, bool) {
	px := int(math.Floor(x / zoom))
	py := int(math.Floor(y / zoom))
	if px < 0 || py < 0 || px >= bounds.Dx() || py >= bounds.Dy() {
		return geometry.PointInt{}, false
	}
	return geometry.PointInt{X: px, Y: py}, true
}

// ImageToCanvas converts image pixels to content coordinates.
func (ic *ImageCanvas) ImageToCanvas(pt geometry.PointInt) (float64, float64) {
	return float64(pt.X) * ic.zoom, float64(pt.Y) * ic.zoom
}

// Refresh redraws the canvas.
func (ic *ImageCanvas) Refresh() {
	ic.raster.Refresh()
}

func (ic *ImageCanvas) updateContentSize() {
	if ic.img == nil || ic.img.Bounds().Empty() {
		ic.imgSize = fyne.NewSize(400, 300)
	} else {
		b := ic.img.Bounds()
		ic.imgSize = fyne.NewSize(float32(float64(b.Dx())*ic.zoom), float32(float64(b.Dy())*ic.zoom))
	}

	ic.raster.SetMinSize(ic.imgSize)
	ic.raster.Resize(ic.imgSize)
	if ic.content != nil {
		ic.content.Resize(ic.imgSize)
		ic.content.Refresh()
	}
	ic.raster.Refresh()
	if ic.scroll != nil {
		ic.scroll.Refresh()
	}
}

// draw is the raster drawing function. w and h are device pixels, which
// may differ from the zoomed size on high-DPI screens.
func (ic *ImageCanvas) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(out, out.Bounds(), image.NewUniform(backdrop), image.Point{}, xdraw.Src)
	if ic.img == nil || w == 0 || h == 0 {
		return out
	}

	kernel := xdraw.Interpolator(xdraw.ApproxBiLinear)
	if ic.zoom >= 2 {
		kernel = xdraw.NearestNeighbor
	}
	kernel.Scale(out, out.Bounds(), ic.img, ic.img.Bounds(), xdraw.Over, nil)

	if ic.marker != nil {
		sx := float64(w) / float64(ic.img.Bounds().Dx())
		sy := float64(h) / float64(ic.img.Bounds().Dy())
		ic.marker.draw(out, sx, sy)
	}
	return out
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &imageCanvasRenderer{canvas: ic}
}

type imageCanvasRenderer struct {
	canvas *ImageCanvas
}

func (r *imageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.scroll.Resize(size)
	r.canvas.checkResize(size)
}

func (r *imageCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *imageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *imageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *imageCanvasRenderer) Destroy() {}
