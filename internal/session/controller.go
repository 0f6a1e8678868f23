// Package session runs editing sessions: a Controller turns user events into
// placement transitions and rendered frames, and a Registry keeps many
// isolated controllers alive for the HTTP API.
package session

import (
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"facial-editor/internal/catalog"
	"facial-editor/internal/composite"
	"facial-editor/internal/persist"
	"facial-editor/internal/placement"
	"facial-editor/internal/raster"
	"facial-editor/internal/transform"
	"facial-editor/pkg/colorutil"
	"facial-editor/pkg/errors"
	"facial-editor/pkg/geometry"
)

// Placeholder size shown before a canvas is loaded.
const (
	PlaceholderWidth  = 600
	PlaceholderHeight = 400
)

// Frame is the result of one event: the best raster available, a status
// line for the user and, if the event was rejected, the error.
type Frame struct {
	Image  *image.NRGBA
	Status string
	Err    error
}

// EventType identifies controller notifications.
type EventType int

const (
	// EventChanged fires after every accepted event with the new Frame.
	EventChanged EventType = iota
	// EventRejected fires when an event fails, with the error Frame.
	EventRejected
	// EventSaved fires after a successful save; the Frame status names the file.
	EventSaved
)

// Listener is called when an event occurs.
type Listener func(Frame)

// Options configure a Controller.
type Options struct {
	// Catalog is the shared, read-only sticker catalog.
	Catalog *catalog.Store
	// Engine transforms stickers; nil selects the default resampler.
	Engine transform.Engine
	// Sink writes saved images; nil selects a default FileSink.
	Sink persist.Sink
	// Bounds limits the scale accepted by Adjust and Restore; the zero
	// value selects transform.DefaultBounds.
	Bounds transform.Bounds
	// Logger receives session diagnostics; nil selects slog.Default.
	Logger *slog.Logger
}

// Controller serializes the events of one editing session. Every method is
// safe for concurrent use; events are applied strictly one at a time.
type Controller struct {
	mu         sync.Mutex
	machine    *placement.Machine
	shared     *catalog.Store
	custom     *catalog.Store
	lookup     catalog.Chain
	compositor *composite.Compositor
	sink       persist.Sink
	bounds     transform.Bounds
	logger     *slog.Logger
	lastActive time.Time

	lmu       sync.RWMutex
	listeners map[EventType][]Listener
}

// NewController creates a Controller with no canvas.
func NewController(opts Options) *Controller {
	shared := opts.Catalog
	if shared == nil {
		shared = catalog.NewStore()
	}
	sink := opts.Sink
	if sink == nil {
		sink = persist.NewFileSink()
	}
	bounds := opts.Bounds
	if bounds == (transform.Bounds{}) {
		bounds = transform.DefaultBounds()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	custom := catalog.NewStore()
	lookup := catalog.Chain{custom, shared}

	return &Controller{
		machine:    placement.NewMachine(),
		shared:     shared,
		custom:     custom,
		lookup:     lookup,
		compositor: composite.New(lookup, opts.Engine, logger),
		sink:       sink,
		bounds:     bounds,
		logger:     logger,
		lastActive: time.Now(),
		listeners:  make(map[EventType][]Listener),
	}
}

// On registers a listener for the specified event type.
func (c *Controller) On(event EventType, listener Listener) {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	c.listeners[event] = append(c.listeners[event], listener)
}

func (c *Controller) emit(event EventType, f Frame) {
	c.lmu.RLock()
	listeners := c.listeners[event]
	c.lmu.RUnlock()

	for _, l := range listeners {
		l(f)
	}
}

// do runs fn under the session lock and builds the resulting Frame. fn
// returns the status line for a successful event. Listeners run after the
// lock is released.
func (c *Controller) do(fn func() (string, error)) Frame {
	f := c.apply(fn)
	if f.Err != nil {
		c.logger.Debug("event rejected", "code", errors.GetCode(f.Err), "error", f.Err)
		c.emit(EventRejected, f)
	} else {
		c.emit(EventChanged, f)
	}
	return f
}

// apply runs fn and renders the result while holding the lock. A panic in
// fn or in rendering rolls the placement state back to where it was before
// the event and is reported as INTERNAL_ERROR.
func (c *Controller) apply(fn func() (string, error)) (f Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()

	before := c.machine.Snapshot()
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		c.logger.Error("event panicked", "panic", r, "stack", string(debug.Stack()))
		if _, err := c.machine.Restore(before); err != nil {
			c.logger.Error("rollback failed", "error", err)
		}
		err := errors.New(errors.ErrCodeInternal, "internal error: %v", r)
		f = Frame{Image: fallbackImage(before.Canvas), Status: errors.UserMessage(err), Err: err}
	}()

	status, err := fn()
	f = Frame{Image: c.renderLocked(), Status: status, Err: err}
	if err != nil {
		f.Status = errors.UserMessage(err)
	}
	return f
}

// fallbackImage is shown when rendering failed: the bare canvas, or the
// placeholder before one is loaded.
func fallbackImage(canvas *image.NRGBA) *image.NRGBA {
	if canvas == nil {
		return raster.Uniform(PlaceholderWidth, PlaceholderHeight, colorutil.Placeholder)
	}
	return raster.Clone(canvas)
}

func (c *Controller) renderLocked() *image.NRGBA {
	canvas := c.machine.Canvas()
	if canvas == nil {
		return raster.Uniform(PlaceholderWidth, PlaceholderHeight, colorutil.Placeholder)
	}
	snap := c.machine.Snapshot()
	return c.compositor.Render(snap.Canvas, snap.Stack, snap.Preview)
}

// SetCanvas loads a new base photo, discarding every overlay, the preview
// and the selection.
func (c *Controller) SetCanvas(img image.Image) Frame {
	return c.do(func() (string, error) {
		if img == nil {
			return "", errors.New(errors.ErrCodeInvalidInput, "Please upload an image first")
		}
		if _, err := c.machine.SetCanvas(raster.ToNRGBA(img)); err != nil {
			return "", err
		}
		return "Image loaded! Select a feature from the catalog.", nil
	})
}

// Select chooses the feature the next click places. A pending preview is
// committed first.
func (c *Controller) Select(category, name string) Frame {
	return c.do(func() (string, error) {
		if c.machine.Canvas() == nil {
			return "", errors.New(errors.ErrCodeNoCanvas, "Please upload an image first")
		}
		if _, err := c.lookup.Get(category, name); err != nil {
			return "", err
		}
		t, err := c.machine.Select(placement.AssetRef{Category: category, Name: name})
		if err != nil {
			return "", err
		}
		status := fmt.Sprintf("Selected: %s from %s", name, category)
		if t.AutoConfirmed != nil {
			status = fmt.Sprintf("Confirmed %s. %s", t.AutoConfirmed.Ref.Name, status)
		}
		return status, nil
	})
}

// Adjust changes one live parameter of the selection and of the preview.
func (c *Controller) Adjust(field transform.Field, v float64) Frame {
	return c.do(func() (string, error) {
		if _, ok := c.machine.Selection(); ok && field == transform.FieldScale {
			if err := c.bounds.Check(transform.Params{Scale: v}); err != nil {
				return "", err
			}
		}
		if _, err := c.machine.Adjust(field, v); err != nil {
			return "", err
		}
		sel, _ := c.machine.Selection()
		return ParamStatus(field, sel.Params.Get(field)), nil
	})
}

// ParamStatus formats a parameter value for the status line.
func ParamStatus(field transform.Field, v float64) string {
	switch field {
	case transform.FieldScale:
		return fmt.Sprintf("Scale: %.2fx", v)
	case transform.FieldRotation:
		return fmt.Sprintf("Rotation: %g°", v)
	case transform.FieldOpacity:
		return fmt.Sprintf("Opacity: %d%%", int(v*100+0.5))
	}
	return fmt.Sprintf("%s: %g", field, v)
}

// Click previews the selection centered on pt, or moves the preview there.
func (c *Controller) Click(pt geometry.PointInt) Frame {
	return c.do(func() (string, error) {
		return c.clickLocked(pt)
	})
}

// ClickNormalized is Click with coordinates given as fractions of the
// canvas size, each in [0, 1].
func (c *Controller) ClickNormalized(nx, ny float64) Frame {
	return c.do(func() (string, error) {
		canvas := c.machine.Canvas()
		if canvas == nil {
			return "", errors.New(errors.ErrCodeNoCanvas, "Please upload an image first")
		}
		if !(nx >= 0 && nx <= 1 && ny >= 0 && ny <= 1) {
			return "", errors.New(errors.ErrCodeInvalidInput, "click position (%v, %v) is outside the image", nx, ny)
		}
		pt := geometry.NormalizedToPixel(nx, ny, canvas.Bounds().Dx(), canvas.Bounds().Dy())
		return c.clickLocked(pt)
	})
}

func (c *Controller) clickLocked(pt geometry.PointInt) (string, error) {
	t, err := c.machine.Click(pt)
	if err != nil {
		return "", err
	}
	name := t.Overlay.Ref.Name
	if t.Moved {
		return fmt.Sprintf("Moved %s to (%d, %d). Click 'Confirm' or click again to adjust.", name, pt.X, pt.Y), nil
	}
	return fmt.Sprintf("Preview: %s at (%d, %d). Click 'Confirm' to keep it, or click again to move it.", name, pt.X, pt.Y), nil
}

// Confirm commits the preview.
func (c *Controller) Confirm() Frame {
	return c.do(func() (string, error) {
		t, err := c.machine.Confirm()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Confirmed %s! Select another feature or adjust this one.", t.Overlay.Ref.Name), nil
	})
}

// Cancel drops the preview.
func (c *Controller) Cancel() Frame {
	return c.do(func() (string, error) {
		if _, err := c.machine.Cancel(); err != nil {
			return "", err
		}
		return "Preview cancelled", nil
	})
}

// Undo removes the preview, or the most recent overlay if there is none.
func (c *Controller) Undo() Frame {
	return c.do(func() (string, error) {
		t, err := c.machine.Undo()
		if err != nil {
			return "", err
		}
		if t.UndonePreview {
			return "Cancelled preview", nil
		}
		return fmt.Sprintf("Undid last action (removed %s)", t.Overlay.Ref.Name), nil
	})
}

// Clear removes every overlay and the preview, keeping the selection.
func (c *Controller) Clear() Frame {
	return c.do(func() (string, error) {
		if _, err := c.machine.Clear(); err != nil {
			return "", err
		}
		return "Cleared all features", nil
	})
}

// AddCustomFeature adds a user image to this session's custom category and
// selects it.
func (c *Controller) AddCustomFeature(img image.Image, name string) Frame {
	return c.do(func() (string, error) {
		if c.machine.Canvas() == nil {
			return "", errors.New(errors.ErrCodeNoCanvas, "Please upload an image first")
		}
		a, err := catalog.AddCustom(c.custom, img, name)
		if err != nil {
			return "", err
		}
		t, err := c.machine.Select(placement.AssetRef{Category: a.Category, Name: a.Name})
		if err != nil {
			return "", err
		}
		status := fmt.Sprintf("Added custom feature %s. Click on the image to place it.", a.Name)
		if t.AutoConfirmed != nil {
			status = fmt.Sprintf("Confirmed %s. %s", t.AutoConfirmed.Ref.Name, status)
		}
		return status, nil
	})
}

// Render returns the current composite without changing anything.
func (c *Controller) Render() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Frame{Image: c.renderLocked(), Status: c.summaryLocked().Headline()}
}

// ExportImage renders the composite for saving. It fails with
// UNCONFIRMED_PREVIEW while a preview is pending and NO_CANVAS before a
// photo is loaded.
func (c *Controller) ExportImage() (*image.NRGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()
	return c.exportLocked()
}

func (c *Controller) exportLocked() (*image.NRGBA, error) {
	if c.machine.Canvas() == nil {
		return nil, errors.New(errors.ErrCodeNoCanvas, "Please upload an image first")
	}
	if _, ok := c.machine.Preview(); ok {
		return nil, errors.New(errors.ErrCodeUnconfirmedPreview,
			"Confirm or cancel the preview before saving")
	}
	return c.renderLocked(), nil
}

// Save renders the composite and writes it to path. Nothing is written
// while a preview is pending.
func (c *Controller) Save(path string) Frame {
	var written string
	f := c.do(func() (string, error) {
		img, err := c.exportLocked()
		if err != nil {
			return "", err
		}
		written, err = c.sink.Write(img, path)
		if err != nil {
			c.logger.Error("save failed", "path", path, "error", err)
			return "", err
		}
		return "Saved to " + written, nil
	})
	if f.Err == nil {
		c.logger.Info("image saved", "path", written)
		c.emit(EventSaved, f)
	}
	return f
}

// Summary describes the placed overlays.
type Summary struct {
	Overlays []placement.Overlay
	Preview  *placement.Overlay
}

// Headline is a one-line description of the summary.
func (s Summary) Headline() string {
	switch {
	case len(s.Overlays) == 0 && s.Preview == nil:
		return "No features placed yet"
	case s.Preview != nil:
		return fmt.Sprintf("%d confirmed, previewing %s", len(s.Overlays), s.Preview.Ref.Name)
	default:
		return fmt.Sprintf("%d confirmed", len(s.Overlays))
	}
}

// String formats the summary as the overlay list shown beside the photo.
func (s Summary) String() string {
	if len(s.Overlays) == 0 && s.Preview == nil {
		return "No features placed yet"
	}

	var b strings.Builder
	b.WriteString("Confirmed Features:\n")
	if len(s.Overlays) == 0 {
		b.WriteString("None\n")
	}
	for i, o := range s.Overlays {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, o.Ref.Name, o.Ref.Category)
	}
	if s.Preview != nil {
		fmt.Fprintf(&b, "\nPreview: %s (click Confirm or click again to move)", s.Preview.Ref.Name)
	}
	return b.String()
}

// Summary returns the committed overlays in paint order and the preview.
func (c *Controller) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaryLocked()
}

func (c *Controller) summaryLocked() Summary {
	s := Summary{Overlays: c.machine.Stack()}
	if p, ok := c.machine.Preview(); ok {
		s.Preview = &p
	}
	return s
}

// SummaryText formats Summary for display.
func (c *Controller) SummaryText() string {
	return c.Summary().String()
}

// Kind returns the current placement state kind.
func (c *Controller) Kind() placement.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Kind()
}

// Selection returns the selected feature and its live parameters.
func (c *Controller) Selection() (placement.Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Selection()
}

// Snapshot returns a copy of the placement state.
func (c *Controller) Snapshot() placement.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Snapshot()
}

// Restore replaces the placement state and the session's custom features.
func (c *Controller) Restore(snap placement.Snapshot, custom *catalog.Store) Frame {
	return c.do(func() (string, error) {
		if err := c.checkBounds(snap); err != nil {
			return "", err
		}
		if _, err := c.machine.Restore(snap); err != nil {
			return "", err
		}
		if custom != nil {
			c.custom.Merge(custom)
		}
		return "Session restored", nil
	})
}

func (c *Controller) checkBounds(snap placement.Snapshot) error {
	params := make([]transform.Params, 0, len(snap.Stack)+2)
	for _, o := range snap.Stack {
		params = append(params, o.Params)
	}
	if snap.Preview != nil {
		params = append(params, snap.Preview.Params)
	}
	if snap.Selection != nil {
		params = append(params, snap.Selection.Params)
	}
	for _, p := range params {
		if err := c.bounds.Check(p); err != nil {
			return err
		}
	}
	return nil
}

// CustomAssets returns the session's custom features.
func (c *Controller) CustomAssets() []*raster.Asset {
	return c.custom.Entries(catalog.CustomCategory)
}

// Catalog lists the shared catalog followed by the session's custom
// features.
func (c *Controller) Catalog() []catalog.Listing {
	return catalog.List(c.shared, c.custom)
}

// Asset looks up a feature in the session's view of the catalog.
func (c *Controller) Asset(category, name string) (*raster.Asset, error) {
	return c.lookup.Get(category, name)
}

// LastActive returns the time of the most recent event.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Controller) touch(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.lastActive) {
		c.lastActive = t
	}
}
