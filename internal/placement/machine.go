package placement

import (
	"image"
	"slices"

	"facial-editor/internal/transform"
	"facial-editor/pkg/errors"
	"facial-editor/pkg/geometry"
)

// Machine applies placement events to the current State. A rejected event
// returns an error and leaves the state untouched. Machine is not safe for
// concurrent use; the session controller serializes access.
type Machine struct {
	state State
}

// NewMachine creates a Machine in the Empty state.
func NewMachine() *Machine {
	return &Machine{state: Empty{}}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Kind returns the kind of the current state.
func (m *Machine) Kind() Kind {
	return m.state.Kind()
}

// Canvas returns the base image, or nil before one is set.
func (m *Machine) Canvas() *image.NRGBA {
	switch s := m.state.(type) {
	case Ready:
		return s.Canvas
	case Selected:
		return s.Canvas
	case Previewing:
		return s.Canvas
	}
	return nil
}

// Stack returns a copy of the committed overlays in paint order.
func (m *Machine) Stack() []Overlay {
	switch s := m.state.(type) {
	case Selected:
		return slices.Clone(s.Stack)
	case Previewing:
		return slices.Clone(s.Stack)
	}
	return nil
}

// Preview returns the pending overlay, if any.
func (m *Machine) Preview() (Overlay, bool) {
	if s, ok := m.state.(Previewing); ok {
		return s.Preview, true
	}
	return Overlay{}, false
}

// Selection returns the selected asset and its live parameters, if any.
func (m *Machine) Selection() (Selection, bool) {
	switch s := m.state.(type) {
	case Selected:
		return s.Selection, true
	case Previewing:
		return s.Selection, true
	}
	return Selection{}, false
}

// SetCanvas replaces the base image. The stack, preview and selection are
// discarded.
func (m *Machine) SetCanvas(img *image.NRGBA) (Transition, error) {
	if img == nil || img.Bounds().Empty() {
		return Transition{}, errors.New(errors.ErrCodeInvalidInput, "canvas image is empty")
	}
	return m.move(EventSetCanvas, Ready{Canvas: img}), nil
}

// Select makes ref the asset for the next placement, resetting the live
// parameters to their defaults. Selecting while a preview is pending commits
// that preview first; the Transition reports it in AutoConfirmed.
func (m *Machine) Select(ref AssetRef) (Transition, error) {
	if ref.Name == "" {
		return Transition{}, errors.New(errors.ErrCodeInvalidInput, "feature name is required")
	}
	canvas := m.Canvas()
	if canvas == nil {
		return Transition{}, errors.New(errors.ErrCodeNoCanvas, "Please upload an image first")
	}

	stack := m.Stack()
	var committed *Overlay
	if s, ok := m.state.(Previewing); ok {
		p := s.Preview
		committed = &p
		stack = append(stack, p)
	}

	t := m.move(EventSelect, Selected{
		Canvas:    canvas,
		Stack:     stack,
		Selection: Selection{Ref: ref, Params: transform.DefaultParams()},
	})
	t.AutoConfirmed = committed
	return t, nil
}

// Adjust changes one live parameter. A pending preview follows the change so
// it always shows what Confirm would commit.
func (m *Machine) Adjust(field transform.Field, v float64) (Transition, error) {
	switch s := m.state.(type) {
	case Selected:
		params, err := s.Selection.Params.With(field, v)
		if err != nil {
			return Transition{}, err
		}
		s.Selection.Params = params
		return m.move(EventAdjust, s), nil

	case Previewing:
		params, err := s.Selection.Params.With(field, v)
		if err != nil {
			return Transition{}, err
		}
		preview, err := s.Preview.Params.With(field, params.Get(field))
		if err != nil {
			return Transition{}, err
		}
		s.Selection.Params = params
		s.Preview.Params = preview
		t := m.move(EventAdjust, s)
		t.Overlay = &s.Preview
		return t, nil

	case Empty:
		return Transition{}, errors.New(errors.ErrCodeNoCanvas, "Please upload an image first")
	}
	return Transition{}, errors.New(errors.ErrCodeNoSelection, "Please select a feature from the catalog first")
}

// Click places a preview of the selection centered on pt, or moves the
// existing preview there.
func (m *Machine) Click(pt geometry.PointInt) (Transition, error) {
	switch s := m.state.(type) {
	case Empty:
		return Transition{}, errors.New(errors.ErrCodeNoCanvas, "Please upload an image first")
	case Ready:
		return Transition{}, errors.New(errors.ErrCodeNoSelection, "Please select a feature from the catalog first")

	case Selected:
		preview := Overlay{Ref: s.Selection.Ref, At: pt, Params: s.Selection.Params}
		t := m.move(EventClick, Previewing{
			Canvas:    s.Canvas,
			Stack:     s.Stack,
			Selection: s.Selection,
			Preview:   preview,
		})
		t.Overlay = &preview
		return t, nil

	case Previewing:
		s.Preview.At = pt
		t := m.move(EventClick, s)
		t.Overlay = &s.Preview
		t.Moved = true
		return t, nil
	}
	return Transition{}, errors.New(errors.ErrCodeInternal, "unknown state %T", m.state)
}

// Confirm commits the preview to the top of the stack.
func (m *Machine) Confirm() (Transition, error) {
	s, ok := m.state.(Previewing)
	if !ok {
		return Transition{}, errors.New(errors.ErrCodeNoPreview, "No feature to confirm")
	}
	t := m.move(EventConfirm, Selected{
		Canvas:    s.Canvas,
		Stack:     append(slices.Clone(s.Stack), s.Preview),
		Selection: s.Selection,
	})
	t.Overlay = &s.Preview
	return t, nil
}

// Cancel drops the preview.
func (m *Machine) Cancel() (Transition, error) {
	s, ok := m.state.(Previewing)
	if !ok {
		return Transition{}, errors.New(errors.ErrCodeNoPreview, "No preview to cancel")
	}
	t := m.move(EventCancel, Selected{
		Canvas:    s.Canvas,
		Stack:     s.Stack,
		Selection: s.Selection,
	})
	t.Overlay = &s.Preview
	return t, nil
}

// Undo removes exactly one unit: the preview if there is one, otherwise the
// most recently committed overlay.
func (m *Machine) Undo() (Transition, error) {
	switch s := m.state.(type) {
	case Previewing:
		t := m.move(EventUndo, Selected{
			Canvas:    s.Canvas,
			Stack:     s.Stack,
			Selection: s.Selection,
		})
		t.Overlay = &s.Preview
		t.UndonePreview = true
		return t, nil

	case Selected:
		if len(s.Stack) > 0 {
			last := s.Stack[len(s.Stack)-1]
			s.Stack = slices.Clone(s.Stack[:len(s.Stack)-1])
			t := m.move(EventUndo, s)
			t.Overlay = &last
			return t, nil
		}
	}
	return Transition{}, errors.New(errors.ErrCodeNothingToUndo, "Nothing to undo")
}

// Clear removes every overlay and the preview. The selection is kept.
func (m *Machine) Clear() (Transition, error) {
	var t Transition
	switch s := m.state.(type) {
	case Empty, Ready:
		t = m.move(EventClear, s)
	case Selected:
		t = m.move(EventClear, Selected{Canvas: s.Canvas, Selection: s.Selection})
		t.Cleared = len(s.Stack)
	case Previewing:
		t = m.move(EventClear, Selected{Canvas: s.Canvas, Selection: s.Selection})
		t.Cleared = len(s.Stack) + 1
	}
	return t, nil
}

// Snapshot returns a copy of the machine's data.
func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{Canvas: m.Canvas(), Stack: m.Stack()}
	if sel, ok := m.Selection(); ok {
		snap.Selection = &sel
	}
	if p, ok := m.Preview(); ok {
		snap.Preview = &p
	}
	return snap
}

// Restore replaces the state with one rebuilt from snap. Snapshots that no
// reachable state could produce are rejected: overlays or a selection
// without a canvas, overlays or a preview without a selection, or invalid
// parameters.
func (m *Machine) Restore(snap Snapshot) (Transition, error) {
	next, err := stateFromSnapshot(snap)
	if err != nil {
		return Transition{}, err
	}
	return m.move(EventRestore, next), nil
}

func stateFromSnapshot(snap Snapshot) (State, error) {
	if snap.Canvas == nil {
		if len(snap.Stack) > 0 || snap.Selection != nil || snap.Preview != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "overlays require a canvas")
		}
		return Empty{}, nil
	}
	if snap.Canvas.Bounds().Empty() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "canvas image is empty")
	}
	if snap.Selection == nil {
		if len(snap.Stack) > 0 || snap.Preview != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "overlays require a selected feature")
		}
		return Ready{Canvas: snap.Canvas}, nil
	}

	sel := *snap.Selection
	if err := validOverlay(sel.Ref, sel.Params); err != nil {
		return nil, err
	}
	sel.Params = sel.Params.Normalized()

	stack := make([]Overlay, 0, len(snap.Stack))
	for _, o := range snap.Stack {
		if err := validOverlay(o.Ref, o.Params); err != nil {
			return nil, err
		}
		o.Params = o.Params.Normalized()
		stack = append(stack, o)
	}

	if snap.Preview == nil {
		return Selected{Canvas: snap.Canvas, Stack: stack, Selection: sel}, nil
	}
	preview := *snap.Preview
	if err := validOverlay(preview.Ref, preview.Params); err != nil {
		return nil, err
	}
	preview.Params = preview.Params.Normalized()
	return Previewing{Canvas: snap.Canvas, Stack: stack, Selection: sel, Preview: preview}, nil
}

func validOverlay(ref AssetRef, p transform.Params) error {
	if ref.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "overlay has no feature name")
	}
	return p.Validate()
}

func (m *Machine) move(e Event, next State) Transition {
	t := Transition{Event: e, From: m.state.Kind(), To: next.Kind()}
	m.state = next
	return t
}
