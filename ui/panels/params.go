package panels

import (
	"facial-editor/internal/config"
	"facial-editor/internal/session"
	"facial-editor/internal/transform"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// paramSlider is a slider with a caption showing its value. toParam and
// fromParam convert between slider and parameter units.
type paramSlider struct {
	field     transform.Field
	slider    *widget.Slider
	label     *widget.Label
	toParam   func(float64) float64
	fromParam func(float64) float64
}

func (ps *paramSlider) show(v float64) {
	ps.label.SetText(session.ParamStatus(ps.field, ps.toParam(v)))
}

// ParamsPanel adjusts scale, rotation and opacity of the selected feature
// and its preview.
type ParamsPanel struct {
	ctrl      *session.Controller
	container fyne.CanvasObject
	sliders   []*paramSlider
}

// NewParamsPanel creates a parameter panel whose slider ranges come from
// bounds.
func NewParamsPanel(ctrl *session.Controller, bounds config.ParamBounds) *ParamsPanel {
	pp := &ParamsPanel{ctrl: ctrl}
	identity := func(v float64) float64 { return v }

	scale := pp.newSlider(transform.FieldScale, bounds.ScaleMin, bounds.ScaleMax, bounds.ScaleStep, identity, identity)
	rotation := pp.newSlider(transform.FieldRotation, -180, 180, 1, identity, identity)
	opacity := pp.newSlider(transform.FieldOpacity, opacityPercent(bounds.OpacityMin), 100, 1,
		func(v float64) float64 { return v / 100 },
		opacityPercent,
	)

	resetBtn := widget.NewButton("Reset", pp.reset)

	box := container.NewVBox()
	for _, ps := range []*paramSlider{scale, rotation, opacity} {
		box.Add(ps.label)
		box.Add(ps.slider)
	}
	box.Add(resetBtn)
	pp.container = box

	pp.Sync()
	return pp
}

func (pp *ParamsPanel) newSlider(field transform.Field, lo, hi, step float64, to, from func(float64) float64) *paramSlider {
	ps := &paramSlider{
		field:     field,
		slider:    widget.NewSlider(lo, hi),
		label:     widget.NewLabel(""),
		toParam:   to,
		fromParam: from,
	}
	ps.slider.Step = step
	ps.slider.OnChanged = ps.show
	ps.slider.OnChangeEnded = func(v float64) {
		pp.ctrl.Adjust(field, ps.toParam(v))
	}
	pp.sliders = append(pp.sliders, ps)
	return ps
}

// Container returns the panel container.
func (pp *ParamsPanel) Container() fyne.CanvasObject {
	return pp.container
}

// Sync moves the sliders to the selection's parameters, or the defaults
// when nothing is selected.
func (pp *ParamsPanel) Sync() {
	params := transform.DefaultParams()
	if sel, ok := pp.ctrl.Selection(); ok {
		params = sel.Params
	}
	for _, ps := range pp.sliders {
		v := clampSlider(ps.fromParam(params.Get(ps.field)), ps.slider.Min, ps.slider.Max)
		ps.slider.SetValue(v)
		ps.show(v)
	}
}

func (pp *ParamsPanel) reset() {
	if _, ok := pp.ctrl.Selection(); !ok {
		pp.Sync()
		return
	}
	d := transform.DefaultParams()
	for _, ps := range pp.sliders {
		pp.ctrl.Adjust(ps.field, d.Get(ps.field))
	}
	pp.Sync()
}
