package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"facial-editor/internal/catalog"
	"facial-editor/internal/placement"
	"facial-editor/internal/raster"
)

// Snapshot is a self-contained copy of a session: the scene plus the
// canvas and custom features as PNG bytes. It is what session stores keep.
type Snapshot struct {
	SessionID string        `json:"session_id"`
	Saved     time.Time     `json:"saved"`
	Scene     *File         `json:"scene"`
	Canvas    []byte        `json:"canvas,omitempty"`
	Custom    []CustomAsset `json:"custom,omitempty"`
}

// CustomAsset is a user-uploaded feature stored with its session.
type CustomAsset struct {
	Name string `json:"name"`
	PNG  []byte `json:"png"`
}

// Capture builds a Snapshot of a session's placement state and custom
// features.
func Capture(sessionID string, snap placement.Snapshot, custom []*raster.Asset) (*Snapshot, error) {
	s := &Snapshot{
		SessionID: sessionID,
		Saved:     time.Now(),
		Scene:     New(sessionID),
	}
	s.Scene.Capture(snap)

	if snap.Canvas != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, snap.Canvas); err != nil {
			return nil, fmt.Errorf("encoding canvas: %w", err)
		}
		s.Canvas = buf.Bytes()
	}
	for _, a := range custom {
		var buf bytes.Buffer
		if err := png.Encode(&buf, a.Image()); err != nil {
			return nil, fmt.Errorf("encoding custom feature %s: %w", a.Name, err)
		}
		s.Custom = append(s.Custom, CustomAsset{Name: a.Name, PNG: buf.Bytes()})
	}
	return s, nil
}

// Restore decodes the snapshot back into placement state and a store of
// custom features.
func (s *Snapshot) Restore() (placement.Snapshot, *catalog.Store, error) {
	custom := catalog.NewStore()
	for _, c := range s.Custom {
		img, _, err := raster.Decode(bytes.NewReader(c.PNG))
		if err != nil {
			return placement.Snapshot{}, nil, fmt.Errorf("custom feature %s: %w", c.Name, err)
		}
		custom.Add(raster.NewAsset(catalog.CustomCategory, c.Name, img))
	}

	if len(s.Canvas) == 0 {
		return placement.Snapshot{}, custom, nil
	}
	canvas, _, err := raster.Decode(bytes.NewReader(s.Canvas))
	if err != nil {
		return placement.Snapshot{}, nil, fmt.Errorf("canvas: %w", err)
	}
	f := s.Scene
	if f == nil {
		f = New(s.SessionID)
	}
	return f.Placement(canvas), custom, nil
}

// Marshal encodes the snapshot as JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes a snapshot written by Marshal.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session snapshot: %w", err)
	}
	return &s, nil
}
