// Package dialogs provides application dialogs.
package dialogs

import (
	"image"
	"path/filepath"
	"strings"

	"facial-editor/internal/raster"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// CustomFeatureDialog lets the user pick an image file and name it as a
// custom feature.
type CustomFeatureDialog struct {
	window   fyne.Window
	location fyne.ListableURI

	img       image.Image
	path      string
	nameEntry *widget.Entry
	fileLabel *widget.Label
	preview   *fynecanvas.Image

	onAdd func(img image.Image, name, path string)
}

// NewCustomFeatureDialog creates the dialog. location, if non-nil, is where
// the file picker starts.
func NewCustomFeatureDialog(window fyne.Window, location fyne.ListableURI, onAdd func(img image.Image, name, path string)) *CustomFeatureDialog {
	return &CustomFeatureDialog{
		window:   window,
		location: location,
		onAdd:    onAdd,
	}
}

// Show displays the dialog.
func (d *CustomFeatureDialog) Show() {
	d.nameEntry = widget.NewEntry()
	d.nameEntry.SetPlaceHolder("Custom Feature N")
	d.fileLabel = widget.NewLabel("No image chosen")
	d.fileLabel.Truncation = fyne.TextTruncateEllipsis

	d.preview = fynecanvas.NewImageFromImage(nil)
	d.preview.FillMode = fynecanvas.ImageFillContain
	d.preview.SetMinSize(fyne.NewSize(150, 150))

	chooseBtn := widget.NewButton("Choose Image...", d.chooseFile)

	form := widget.NewForm(
		widget.NewFormItem("Image", container.NewBorder(nil, nil, nil, chooseBtn, d.fileLabel)),
		widget.NewFormItem("Name", d.nameEntry),
	)
	content := container.NewBorder(form, nil, nil, nil, d.preview)

	dlg := dialog.NewCustomConfirm("Add Custom Feature", "Add", "Cancel", content, func(add bool) {
		if !add {
			return
		}
		if d.img == nil {
			dialog.ShowInformation("Add Custom Feature", "Choose an image first.", d.window)
			return
		}
		if d.onAdd != nil {
			d.onAdd(d.img, d.nameEntry.Text, d.path)
		}
	}, d.window)
	dlg.Resize(fyne.NewSize(420, 420))
	dlg.Show()
}

func (d *CustomFeatureDialog) chooseFile() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()

		img, _, err := raster.Decode(reader)
		if err != nil {
			dialog.ShowError(err, d.window)
			return
		}
		d.img = img
		d.path = reader.URI().Path()
		d.fileLabel.SetText(filepath.Base(d.path))
		if d.nameEntry.Text == "" {
			d.nameEntry.SetText(SuggestName(d.path))
		}
		d.preview.Image = img
		d.preview.Refresh()
	}, d.window)
	fd.SetFilter(storage.NewExtensionFileFilter(raster.SupportedFormats()))
	if d.location != nil {
		fd.SetLocation(d.location)
	}
	fd.Show()
}

// SuggestName derives a feature name from an image path: the base name
// without extension, with separators turned into spaces.
func SuggestName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
