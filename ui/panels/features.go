package panels

import (
	"image"

	"facial-editor/internal/catalog"
	"facial-editor/internal/session"
	"facial-editor/ui/dialogs"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// FeaturesPanel is the sticker picker: a category selector, the names in
// that category and a thumbnail of the highlighted one.
type FeaturesPanel struct {
	ctrl      *session.Controller
	window    fyne.Window
	location  func() fyne.ListableURI
	container fyne.CanvasObject

	listings []catalog.Listing
	category string
	names    []string
	syncing  bool

	categorySelect *widget.Select
	list           *widget.List
	thumbnail      *fynecanvas.Image

	// OnCustomAdded is called with the image path after a custom feature is
	// added.
	OnCustomAdded func(path string)
}

// NewFeaturesPanel creates a features panel.
func NewFeaturesPanel(ctrl *session.Controller) *FeaturesPanel {
	fp := &FeaturesPanel{ctrl: ctrl}

	fp.thumbnail = fynecanvas.NewImageFromImage(nil)
	fp.thumbnail.FillMode = fynecanvas.ImageFillContain
	fp.thumbnail.SetMinSize(fyne.NewSize(catalog.ThumbnailSize, catalog.ThumbnailSize))

	fp.categorySelect = widget.NewSelect(nil, func(cat string) {
		fp.showCategory(cat)
	})
	fp.categorySelect.PlaceHolder = "Category"

	fp.list = widget.NewList(
		func() int {
			return len(fp.names)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Feature")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(fp.names) {
				obj.(*widget.Label).SetText(fp.names[id])
			}
		},
	)
	fp.list.OnSelected = func(id widget.ListItemID) {
		if id >= len(fp.names) {
			return
		}
		name := fp.names[id]
		fp.showThumbnail(fp.category, name)
		if !fp.syncing {
			fp.ctrl.Select(fp.category, name)
		}
	}

	addBtn := widget.NewButton("Add Custom...", fp.onAddCustom)

	fp.container = container.NewBorder(
		fp.categorySelect,
		container.NewVBox(container.NewCenter(fp.thumbnail), addBtn),
		nil, nil,
		fp.list,
	)

	fp.Reload()
	return fp
}

// Container returns the panel container.
func (fp *FeaturesPanel) Container() fyne.CanvasObject {
	return fp.container
}

// SetWindow sets the parent window for dialogs and a source for the file
// picker's starting directory.
func (fp *FeaturesPanel) SetWindow(w fyne.Window, location func() fyne.ListableURI) {
	fp.window = w
	fp.location = location
}

// Reload re-reads the catalog, keeping the current category if it still
// exists.
func (fp *FeaturesPanel) Reload() {
	fp.listings = fp.ctrl.Catalog()
	cats := categories(fp.listings)
	fp.categorySelect.Options = cats
	fp.categorySelect.Refresh()

	cat := fp.category
	if indexOf(cats, cat) < 0 && len(cats) > 0 {
		cat = cats[0]
	}
	if cat != "" {
		fp.categorySelect.SetSelected(cat)
	}
	fp.showCategory(cat)
}

// Sync highlights the controller's current selection without re-selecting
// it.
func (fp *FeaturesPanel) Sync() {
	sel, ok := fp.ctrl.Selection()
	if !ok {
		fp.list.UnselectAll()
		return
	}
	fp.syncing = true
	defer func() { fp.syncing = false }()

	if sel.Ref.Category != fp.category {
		fp.categorySelect.SetSelected(sel.Ref.Category)
	}
	if i := indexOf(fp.names, sel.Ref.Name); i >= 0 {
		fp.list.Select(i)
	}
}

func (fp *FeaturesPanel) showCategory(cat string) {
	if cat == fp.category && fp.names != nil {
		return
	}
	fp.category = cat
	fp.names = namesIn(fp.listings, cat)
	fp.list.UnselectAll()
	fp.list.Refresh()
	fp.thumbnail.Image = nil
	fp.thumbnail.Refresh()
}

func (fp *FeaturesPanel) showThumbnail(cat, name string) {
	a, err := fp.ctrl.Asset(cat, name)
	if err != nil {
		return
	}
	fp.thumbnail.Image = catalog.Thumbnail(a)
	fp.thumbnail.Refresh()
}

func (fp *FeaturesPanel) onAddCustom() {
	if fp.window == nil {
		return
	}
	var loc fyne.ListableURI
	if fp.location != nil {
		loc = fp.location()
	}
	dialogs.NewCustomFeatureDialog(fp.window, loc, func(img image.Image, name, path string) {
		fr := fp.ctrl.AddCustomFeature(img, name)
		if fr.Err != nil {
			return
		}
		fp.names = nil
		fp.Reload()
		fp.Sync()
		if fp.OnCustomAdded != nil {
			fp.OnCustomAdded(path)
		}
	}).Show()
}
