// Package scene provides scene file handling: a canvas photo plus the
// overlays placed on it, saved as JSON next to the photo.
package scene

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"facial-editor/internal/placement"
	"facial-editor/internal/raster"
	"facial-editor/internal/transform"
)

// Ext is the scene file extension.
const Ext = ".facescene"

// CurrentVersion is written to new scene files.
const CurrentVersion = 1

// File represents a scene file.
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	// Canvas image path (relative to scene file)
	CanvasPath string `json:"canvas,omitempty"`

	// Committed overlays in paint order
	Overlays []placement.Overlay `json:"overlays"`

	// Uncommitted overlay, if the scene was saved mid-placement
	Preview *placement.Overlay `json:"preview,omitempty"`

	// Selected feature and its live parameters
	Selection *placement.Selection `json:"selection,omitempty"`
}

// New creates an empty scene.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  CurrentVersion,
		Name:     name,
		Created:  now,
		Modified: now,
		Overlays: []placement.Overlay{},
	}
}

// Load loads a scene from a file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scene %s: %w", path, err)
	}
	if f.Version > CurrentVersion {
		return nil, fmt.Errorf("scene %s has version %d, newer than supported version %d", path, f.Version, CurrentVersion)
	}
	return &f, nil
}

// Save saves the scene to a file.
func (f *File) Save(path string) error {
	f.Modified = time.Now()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetCanvas records the canvas image path relative to the scene file.
func (f *File) SetCanvas(scenePath, imagePath string) {
	rel, err := filepath.Rel(filepath.Dir(scenePath), imagePath)
	if err != nil {
		f.CanvasPath = imagePath
	} else {
		f.CanvasPath = rel
	}
	f.Modified = time.Now()
}

// CanvasFile returns the absolute path to the canvas image.
func (f *File) CanvasFile(scenePath string) string {
	if f.CanvasPath == "" {
		return ""
	}
	if filepath.IsAbs(f.CanvasPath) {
		return f.CanvasPath
	}
	return filepath.Join(filepath.Dir(scenePath), f.CanvasPath)
}

// LoadCanvas loads the canvas image referenced by the scene.
func (f *File) LoadCanvas(scenePath string) (*image.NRGBA, error) {
	path := f.CanvasFile(scenePath)
	if path == "" {
		return nil, fmt.Errorf("scene %s has no canvas image", scenePath)
	}
	return raster.Load(path)
}

// Capture copies the overlays, preview and selection of snap into f.
func (f *File) Capture(snap placement.Snapshot) {
	f.Overlays = append([]placement.Overlay{}, snap.Stack...)
	f.Preview = nil
	if snap.Preview != nil {
		p := *snap.Preview
		f.Preview = &p
	}
	f.Selection = nil
	if snap.Selection != nil {
		s := *snap.Selection
		f.Selection = &s
	}
	f.Modified = time.Now()
}

// Placement builds a placement snapshot from the scene and a canvas.
// Scenes written by hand often list overlays without a selection; the
// feature of the topmost overlay is selected for them.
func (f *File) Placement(canvas *image.NRGBA) placement.Snapshot {
	snap := placement.Snapshot{
		Canvas: canvas,
		Stack:  append([]placement.Overlay(nil), f.Overlays...),
	}
	if f.Preview != nil {
		p := *f.Preview
		snap.Preview = &p
	}
	switch {
	case f.Selection != nil:
		s := *f.Selection
		snap.Selection = &s
	case snap.Preview != nil:
		snap.Selection = &placement.Selection{Ref: snap.Preview.Ref, Params: snap.Preview.Params}
	case len(snap.Stack) > 0:
		top := snap.Stack[len(snap.Stack)-1]
		snap.Selection = &placement.Selection{Ref: top.Ref, Params: transform.DefaultParams()}
	}
	return snap
}
