// Package panels provides the editor's side panels.
package panels

import (
	"facial-editor/internal/config"
	"facial-editor/internal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	ctrl      *session.Controller
	container fyne.CanvasObject

	Features *FeaturesPanel
	Params   *ParamsPanel
	Placed   *PlacedPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(ctrl *session.Controller, bounds config.ParamBounds) *SidePanel {
	sp := &SidePanel{ctrl: ctrl}

	sp.Features = NewFeaturesPanel(ctrl)
	sp.Params = NewParamsPanel(ctrl, bounds)
	sp.Placed = NewPlacedPanel(ctrl)

	tabs := container.NewAppTabs(
		container.NewTabItem("Features", sp.Features.Container()),
		container.NewTabItem("Adjust", sp.Params.Container()),
		container.NewTabItem("Placed", sp.Placed.Container()),
	)

	confirmBtn := widget.NewButton("Confirm", func() { ctrl.Confirm() })
	confirmBtn.Importance = widget.HighImportance
	cancelBtn := widget.NewButton("Cancel", func() { ctrl.Cancel() })
	undoBtn := widget.NewButton("Undo", func() { ctrl.Undo() })
	clearBtn := widget.NewButton("Clear All", func() { ctrl.Clear() })

	actions := container.NewGridWithColumns(2, confirmBtn, cancelBtn, undoBtn, clearBtn)
	sp.container = container.NewBorder(nil, actions, nil, nil, tabs)
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window, location func() fyne.ListableURI) {
	sp.Features.SetWindow(w, location)
}

// Sync refreshes every section from the controller.
func (sp *SidePanel) Sync() {
	sp.Features.Sync()
	sp.Params.Sync()
	sp.Placed.Sync()
}

// PlacedPanel lists the confirmed overlays and the pending preview.
type PlacedPanel struct {
	ctrl      *session.Controller
	summary   *widget.Label
	container fyne.CanvasObject
}

// NewPlacedPanel creates a placed-overlays panel.
func NewPlacedPanel(ctrl *session.Controller) *PlacedPanel {
	pp := &PlacedPanel{ctrl: ctrl}
	pp.summary = widget.NewLabel("")
	pp.summary.Wrapping = fyne.TextWrapWord
	pp.container = container.NewVScroll(pp.summary)
	pp.Sync()
	return pp
}

// Container returns the panel container.
func (pp *PlacedPanel) Container() fyne.CanvasObject {
	return pp.container
}

// Sync redraws the overlay list.
func (pp *PlacedPanel) Sync() {
	pp.summary.SetText(pp.ctrl.SummaryText())
}
