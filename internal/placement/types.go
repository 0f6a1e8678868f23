// Package placement holds the overlay data model and the state machine that
// decides how a sticker goes from selected, to previewed, to committed.
package placement

import (
	"fmt"
	"image"

	"facial-editor/internal/transform"
	"facial-editor/pkg/geometry"
)

// AssetRef identifies a sticker in the catalog.
type AssetRef struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

// IsZero reports whether the reference names nothing.
func (r AssetRef) IsZero() bool {
	return r.Category == "" && r.Name == ""
}

func (r AssetRef) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.Category)
}

// Overlay is one sticker placed on the canvas: which asset, where its
// center goes, and how it is transformed. Overlays are values; two overlays
// are equal when all their fields are.
type Overlay struct {
	Ref    AssetRef          `json:"asset"`
	At     geometry.PointInt `json:"at"`
	Params transform.Params  `json:"params"`
}

// Selection is the asset the next click will place, with the live
// parameters that new previews start from.
type Selection struct {
	Ref    AssetRef         `json:"asset"`
	Params transform.Params `json:"params"`
}

// Kind names a state of the machine.
type Kind int

const (
	KindEmpty Kind = iota
	KindReady
	KindSelected
	KindPreviewing
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindReady:
		return "ready"
	case KindSelected:
		return "selected"
	case KindPreviewing:
		return "previewing"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is one of Empty, Ready, Selected or Previewing. Each carries only
// the data that exists in that state.
type State interface {
	Kind() Kind
	isState()
}

// Empty is the state before any canvas has been loaded.
type Empty struct{}

// Ready has a canvas but nothing selected and nothing placed.
type Ready struct {
	Canvas *image.NRGBA
}

// Selected has a canvas, a selection and zero or more committed overlays.
type Selected struct {
	Canvas    *image.NRGBA
	Stack     []Overlay
	Selection Selection
}

// Previewing is Selected plus one uncommitted overlay.
type Previewing struct {
	Canvas    *image.NRGBA
	Stack     []Overlay
	Selection Selection
	Preview   Overlay
}

func (Empty) Kind() Kind      { return KindEmpty }
func (Ready) Kind() Kind      { return KindReady }
func (Selected) Kind() Kind   { return KindSelected }
func (Previewing) Kind() Kind { return KindPreviewing }

func (Empty) isState()      {}
func (Ready) isState()      {}
func (Selected) isState()   {}
func (Previewing) isState() {}

// Event names a machine input.
type Event int

const (
	EventSetCanvas Event = iota
	EventSelect
	EventAdjust
	EventClick
	EventConfirm
	EventCancel
	EventUndo
	EventClear
	EventRestore
)

func (e Event) String() string {
	switch e {
	case EventSetCanvas:
		return "set-canvas"
	case EventSelect:
		return "select"
	case EventAdjust:
		return "adjust"
	case EventClick:
		return "click"
	case EventConfirm:
		return "confirm"
	case EventCancel:
		return "cancel"
	case EventUndo:
		return "undo"
	case EventClear:
		return "clear"
	case EventRestore:
		return "restore"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Transition reports what an accepted event did.
type Transition struct {
	Event Event
	From  Kind
	To    Kind

	// Overlay is the overlay the event acted on: the preview created or
	// moved by Click, pushed by Confirm, dropped by Cancel, or removed by
	// Undo.
	Overlay *Overlay

	// Moved is set when Click relocated an existing preview.
	Moved bool

	// AutoConfirmed is the preview that Select committed before switching
	// to the new asset.
	AutoConfirmed *Overlay

	// UndonePreview is set when Undo dropped the preview rather than a
	// committed overlay.
	UndonePreview bool

	// Cleared is the number of overlays removed by Clear, preview included.
	Cleared int
}

// Snapshot is a plain copy of the machine's data, used to persist and
// rebuild sessions.
type Snapshot struct {
	Canvas    *image.NRGBA
	Stack     []Overlay
	Selection *Selection
	Preview   *Overlay
}
