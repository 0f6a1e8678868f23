// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"facial-editor/internal/config"
	"facial-editor/internal/raster"
	"facial-editor/internal/scene"
	"facial-editor/internal/session"
	"facial-editor/internal/version"
	"facial-editor/pkg/geometry"
	"facial-editor/ui/canvas"
	"facial-editor/ui/panels"
	"facial-editor/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const appTitle = "Facial Feature Editor"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	ctrl   *session.Controller
	prefs  *prefs.Prefs
	logger *slog.Logger

	canvas    *canvas.ImageCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	headline  *widget.Label

	photoPath string
	scenePath string

	// Menu items that need state tracking
	fitToWindowItem *fyne.MenuItem
}

// New creates the main window around a controller.
func New(fyneApp fyne.App, ctrl *session.Controller, p *prefs.Prefs, bounds config.ParamBounds, logger *slog.Logger) *MainWindow {
	mw := &MainWindow{
		Window: fyneApp.NewWindow(appTitle),
		app:    fyneApp,
		ctrl:   ctrl,
		prefs:  p,
		logger: logger,
	}

	mw.setupUI(bounds)
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.showFrame(ctrl.Render())

	mw.SetCloseIntercept(func() {
		mw.SavePreferences()
		mw.Close()
	})
	mw.Resize(fyne.NewSize(1200, 800))
	return mw
}

func (mw *MainWindow) setupUI(bounds config.ParamBounds) {
	mw.canvas = canvas.NewImageCanvas()
	mw.canvas.SetFitToWindow(mw.prefs.Bool(prefs.KeyFitToWindow, true))
	mw.canvas.OnLeftClick(func(pt geometry.PointInt) { mw.ctrl.Click(pt) })
	mw.canvas.OnRightClick(func(geometry.PointInt) { mw.ctrl.Cancel() })

	mw.sidePanel = panels.NewSidePanel(mw.ctrl, bounds)
	mw.sidePanel.SetWindow(mw.Window, mw.lastDir)
	mw.sidePanel.Features.OnCustomAdded = mw.saveLastDir

	mw.statusBar = widget.NewLabel("Upload a photo to start")
	mw.statusBar.Truncation = fyne.TextTruncateEllipsis
	mw.headline = widget.NewLabel("")

	canvasArea := container.NewBorder(
		mw.createToolbar(),
		nil,
		nil,
		nil,
		mw.canvas.Container(),
	)

	split := container.NewHSplit(mw.sidePanel.Container(), canvasArea)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,
		container.NewPadded(container.NewBorder(nil, nil, nil, mw.headline, mw.statusBar)),
		nil,
		nil,
		split,
	)
	mw.SetContent(content)
}

func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.onZoomOut),
		widget.NewButton("+", mw.onZoomIn),
		widget.NewButton("Fit", mw.onToggleFitToWindow),
		widget.NewButton("1:1", mw.onActualSize),
	)
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Photo...", mw.onOpenPhoto),
		fyne.NewMenuItem("Open Scene...", mw.onOpenScene),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Scene", mw.onSaveScene),
		fyne.NewMenuItem("Save Scene As...", mw.onSaveSceneAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Image...", mw.onExportImage),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Confirm Placement", func() { mw.ctrl.Confirm() }),
		fyne.NewMenuItem("Cancel Preview", func() { mw.ctrl.Cancel() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Undo", func() { mw.ctrl.Undo() }),
		fyne.NewMenuItem("Clear All", func() { mw.ctrl.Clear() }),
	)

	mw.fitToWindowItem = fyne.NewMenuItem("Fit to Window", mw.onToggleFitToWindow)
	mw.fitToWindowItem.Checked = mw.canvas.FitsToWindow()

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for controller events.
func (mw *MainWindow) setupEventHandlers() {
	mw.ctrl.On(session.EventChanged, mw.showFrame)
	mw.ctrl.On(session.EventRejected, func(f session.Frame) {
		mw.updateStatus(f.Status)
	})
	mw.ctrl.On(session.EventSaved, func(f session.Frame) {
		mw.logger.Info("exported", "status", f.Status)
	})
}

// showFrame puts a rendered frame on screen and resyncs the panels.
func (mw *MainWindow) showFrame(f session.Frame) {
	mw.canvas.SetImage(f.Image)
	mw.canvas.SetMarker(mw.previewMarker())
	mw.sidePanel.Sync()
	mw.headline.SetText(mw.ctrl.Summary().Headline())
	if f.Status != "" {
		mw.updateStatus(f.Status)
	}
	if sel, ok := mw.ctrl.Selection(); ok {
		mw.prefs.SetParams(sel.Params)
	}
}

func (mw *MainWindow) previewMarker() *canvas.Marker {
	p := mw.ctrl.Summary().Preview
	if p == nil {
		return nil
	}
	a, err := mw.ctrl.Asset(p.Ref.Category, p.Ref.Name)
	if err != nil {
		return nil
	}
	return panels.PreviewMarker(*p, a.Width(), a.Height())
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateTitle() {
	switch {
	case mw.scenePath != "":
		mw.SetTitle(appTitle + " - " + filepath.Base(mw.scenePath))
	case mw.photoPath != "":
		mw.SetTitle(appTitle + " - " + filepath.Base(mw.photoPath))
	default:
		mw.SetTitle(appTitle)
	}
}

// lastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) lastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) saveLastDir(filePath string) {
	if filePath != "" {
		mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
	}
}

// SavePreferences writes window preferences to disk.
func (mw *MainWindow) SavePreferences() {
	mw.prefs.SetBool(prefs.KeyFitToWindow, mw.canvas.FitsToWindow())
	if err := mw.prefs.Save(); err != nil {
		mw.logger.Warn("cannot save preferences", "err", err)
	}
}

// SavePreferencesIfChanged writes preferences only when something changed.
func (mw *MainWindow) SavePreferencesIfChanged() {
	if err := mw.prefs.SaveIfChanged(); err != nil {
		mw.logger.Warn("cannot save preferences", "err", err)
	}
}

// Open loads a photo or, for scene files, a scene.
func (mw *MainWindow) Open(path string) error {
	if isScene(path) {
		return mw.OpenScene(path)
	}
	return mw.OpenPhoto(path)
}

// OpenPhoto makes the image at path the canvas.
func (mw *MainWindow) OpenPhoto(path string) error {
	img, err := raster.Load(path)
	if err != nil {
		return err
	}
	if f := mw.ctrl.SetCanvas(img); f.Err != nil {
		return f.Err
	}
	mw.photoPath = path
	mw.scenePath = ""
	mw.prefs.SetString(prefs.KeyLastPhoto, path)
	mw.prefs.SetString(prefs.KeyLastScene, "")
	mw.saveLastDir(path)
	mw.updateTitle()
	return nil
}

// OpenScene restores the photo and overlays saved in a scene file.
func (mw *MainWindow) OpenScene(path string) error {
	f, err := scene.Load(path)
	if err != nil {
		return err
	}
	photo, err := f.LoadCanvas(path)
	if err != nil {
		return err
	}
	if fr := mw.ctrl.Restore(f.Placement(photo), nil); fr.Err != nil {
		return fr.Err
	}
	mw.photoPath = f.CanvasFile(path)
	mw.scenePath = path
	mw.prefs.SetString(prefs.KeyLastScene, path)
	mw.saveLastDir(path)
	mw.updateTitle()
	return nil
}

// RestoreLast reopens the scene or photo from the previous run, if any.
func (mw *MainWindow) RestoreLast() {
	for _, key := range []string{prefs.KeyLastScene, prefs.KeyLastPhoto} {
		path := mw.prefs.String(key)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := mw.Open(path); err != nil {
			mw.logger.Warn("cannot restore last file", "path", path, "err", err)
			continue
		}
		return
	}
}

func (mw *MainWindow) saveScene(path string) error {
	if mw.photoPath == "" {
		return fmt.Errorf("open a photo before saving a scene")
	}
	f := scene.New(strings.TrimSuffix(filepath.Base(path), scene.Ext))
	f.SetCanvas(path, mw.photoPath)
	f.Capture(mw.ctrl.Snapshot())
	if err := f.Save(path); err != nil {
		return err
	}
	mw.scenePath = path
	mw.prefs.SetString(prefs.KeyLastScene, path)
	mw.saveLastDir(path)
	mw.updateTitle()
	mw.updateStatus("Scene saved to " + path)
	return nil
}

// Menu action handlers

func (mw *MainWindow) onOpenPhoto() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		if err := mw.OpenPhoto(reader.URI().Path()); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(raster.SupportedFormats()))
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenScene() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		if err := mw.OpenScene(reader.URI().Path()); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{scene.Ext}))
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveScene() {
	if mw.scenePath == "" {
		mw.onSaveSceneAs()
		return
	}
	if err := mw.saveScene(mw.scenePath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveSceneAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		if err := mw.saveScene(withExt(writer.URI().Path(), scene.Ext)); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName(sceneName(mw.photoPath))
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportImage() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if f := mw.ctrl.Save(path); f.Err != nil {
			dialog.ShowError(f.Err, mw.Window)
			return
		}
		mw.saveLastDir(path)
	}, mw.Window)
	fd.SetFileName(exportName(mw.photoPath))
	if loc := mw.lastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	enabled := !mw.canvas.FitsToWindow()
	mw.canvas.SetFitToWindow(enabled)
	mw.fitToWindowItem.Checked = enabled
	mw.MainMenu().Refresh()
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) disableFitToWindow() {
	if mw.canvas.FitsToWindow() {
		mw.canvas.SetFitToWindow(false)
		mw.fitToWindowItem.Checked = false
		mw.MainMenu().Refresh()
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Place beards, hats, glasses and more on your photos.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
