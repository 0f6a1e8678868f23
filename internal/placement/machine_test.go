package placement

import (
	"image"
	"testing"

	"facial-editor/internal/transform"
	"facial-editor/pkg/errors"
	"facial-editor/pkg/geometry"
)

var (
	fullBeard = AssetRef{Category: "beard", Name: "Full Beard"}
	aviator   = AssetRef{Category: "sunglasses", Name: "Aviator"}
)

func canvas() *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, 500, 500))
}

func selectedMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine()
	if _, err := m.SetCanvas(canvas()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Select(fullBeard); err != nil {
		t.Fatal(err)
	}
	return m
}

func mustClick(t *testing.T, m *Machine, x, y int) Transition {
	t.Helper()
	tr, err := m.Click(geometry.Pt(x, y))
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestNewMachineIsEmpty(t *testing.T) {
	m := NewMachine()
	if m.Kind() != KindEmpty {
		t.Fatalf("kind = %v", m.Kind())
	}
	if m.Canvas() != nil || m.Stack() != nil {
		t.Error("empty machine has data")
	}
}

func TestErrorsLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) *Machine
		event func(m *Machine) error
		code  errors.Code
	}{
		{
			name:  "click without canvas",
			setup: func(t *testing.T) *Machine { return NewMachine() },
			event: func(m *Machine) error { _, err := m.Click(geometry.Pt(1, 1)); return err },
			code:  errors.ErrCodeNoCanvas,
		},
		{
			name:  "select without canvas",
			setup: func(t *testing.T) *Machine { return NewMachine() },
			event: func(m *Machine) error { _, err := m.Select(fullBeard); return err },
			code:  errors.ErrCodeNoCanvas,
		},
		{
			name: "click without selection",
			setup: func(t *testing.T) *Machine {
				m := NewMachine()
				m.SetCanvas(canvas())
				return m
			},
			event: func(m *Machine) error { _, err := m.Click(geometry.Pt(1, 1)); return err },
			code:  errors.ErrCodeNoSelection,
		},
		{
			name: "adjust without selection",
			setup: func(t *testing.T) *Machine {
				m := NewMachine()
				m.SetCanvas(canvas())
				return m
			},
			event: func(m *Machine) error { _, err := m.Adjust(transform.FieldScale, 2); return err },
			code:  errors.ErrCodeNoSelection,
		},
		{
			name:  "confirm without preview",
			setup: selectedMachine,
			event: func(m *Machine) error { _, err := m.Confirm(); return err },
			code:  errors.ErrCodeNoPreview,
		},
		{
			name:  "cancel without preview",
			setup: selectedMachine,
			event: func(m *Machine) error { _, err := m.Cancel(); return err },
			code:  errors.ErrCodeNoPreview,
		},
		{
			name:  "undo with nothing",
			setup: selectedMachine,
			event: func(m *Machine) error { _, err := m.Undo(); return err },
			code:  errors.ErrCodeNothingToUndo,
		},
		{
			name:  "undo on empty",
			setup: func(t *testing.T) *Machine { return NewMachine() },
			event: func(m *Machine) error { _, err := m.Undo(); return err },
			code:  errors.ErrCodeNothingToUndo,
		},
		{
			name:  "invalid scale",
			setup: selectedMachine,
			event: func(m *Machine) error { _, err := m.Adjust(transform.FieldScale, 0); return err },
			code:  errors.ErrCodeInvalidInput,
		},
		{
			name: "invalid opacity while previewing",
			setup: func(t *testing.T) *Machine {
				m := selectedMachine(t)
				mustClick(t, m, 10, 10)
				return m
			},
			event: func(m *Machine) error { _, err := m.Adjust(transform.FieldOpacity, 2); return err },
			code:  errors.ErrCodeInvalidInput,
		},
		{
			name:  "nil canvas",
			setup: selectedMachine,
			event: func(m *Machine) error { _, err := m.SetCanvas(nil); return err },
			code:  errors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.setup(t)
			before := m.Snapshot()
			beforeKind := m.Kind()

			err := tt.event(m)
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
			if m.Kind() != beforeKind {
				t.Errorf("kind changed %v -> %v", beforeKind, m.Kind())
			}
			assertSnapshotEqual(t, before, m.Snapshot())
		})
	}
}

func TestClickCreatesThenMovesPreview(t *testing.T) {
	m := selectedMachine(t)

	tr := mustClick(t, m, 250, 300)
	if tr.To != KindPreviewing || tr.Moved {
		t.Fatalf("first click = %+v", tr)
	}
	p, ok := m.Preview()
	if !ok || p.At != geometry.Pt(250, 300) || p.Ref != fullBeard {
		t.Fatalf("preview = %+v, %v", p, ok)
	}
	if p.Params != transform.DefaultParams() {
		t.Errorf("preview params = %+v", p.Params)
	}

	tr = mustClick(t, m, 100, 120)
	if !tr.Moved {
		t.Error("second click should move the preview")
	}
	p, _ = m.Preview()
	if p.At != geometry.Pt(100, 120) {
		t.Errorf("moved preview at %v", p.At)
	}
	if len(m.Stack()) != 0 {
		t.Error("clicking must not commit")
	}
}

func TestConfirmPushesPreview(t *testing.T) {
	m := selectedMachine(t)
	mustClick(t, m, 250, 300)

	tr, err := m.Confirm()
	if err != nil {
		t.Fatal(err)
	}
	if tr.To != KindSelected || tr.Overlay == nil || tr.Overlay.At != geometry.Pt(250, 300) {
		t.Fatalf("confirm = %+v", tr)
	}
	if _, ok := m.Preview(); ok {
		t.Error("preview survived confirm")
	}
	if st := m.Stack(); len(st) != 1 || st[0].Ref != fullBeard {
		t.Errorf("stack = %+v", st)
	}
}

func TestCancelDropsPreview(t *testing.T) {
	m := selectedMachine(t)
	mustClick(t, m, 250, 300)
	if _, err := m.Cancel(); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Preview(); ok {
		t.Error("preview survived cancel")
	}
	if len(m.Stack()) != 0 {
		t.Error("cancel committed the preview")
	}
	if _, ok := m.Selection(); !ok {
		t.Error("cancel dropped the selection")
	}
}

func TestAdjustUpdatesPreview(t *testing.T) {
	m := selectedMachine(t)
	if _, err := m.Adjust(transform.FieldScale, 1.5); err != nil {
		t.Fatal(err)
	}
	mustClick(t, m, 250, 300)
	if _, err := m.Adjust(transform.FieldRotation, 270); err != nil {
		t.Fatal(err)
	}

	p, _ := m.Preview()
	want := transform.Params{Scale: 1.5, Rotation: -90, Opacity: 1}
	if p.Params != want {
		t.Errorf("preview params = %+v, want %+v", p.Params, want)
	}
	sel, _ := m.Selection()
	if sel.Params != want {
		t.Errorf("live params = %+v, want %+v", sel.Params, want)
	}
}

func TestAdjustDoesNotTouchStack(t *testing.T) {
	m := selectedMachine(t)
	mustClick(t, m, 10, 10)
	m.Confirm()
	m.Adjust(transform.FieldOpacity, 0.3)
	if st := m.Stack(); st[0].Params.Opacity != 1 {
		t.Errorf("committed overlay changed: %+v", st[0].Params)
	}
}

func TestSelectAutoConfirmsPreview(t *testing.T) {
	m := selectedMachine(t)
	mustClick(t, m, 250, 300)

	tr, err := m.Select(aviator)
	if err != nil {
		t.Fatal(err)
	}
	if tr.AutoConfirmed == nil || tr.AutoConfirmed.Ref != fullBeard {
		t.Fatalf("AutoConfirmed = %+v", tr.AutoConfirmed)
	}
	st := m.Stack()
	if len(st) != 1 || st[0].Ref != fullBeard || st[0].At != geometry.Pt(250, 300) {
		t.Errorf("stack = %+v", st)
	}
	if _, ok := m.Preview(); ok {
		t.Error("preview survived select")
	}
	sel, _ := m.Selection()
	if sel.Ref != aviator || sel.Params != transform.DefaultParams() {
		t.Errorf("selection = %+v", sel)
	}

	// The auto-confirmed overlay is undone like any other.
	if _, err := m.Undo(); err != nil {
		t.Fatal(err)
	}
	if len(m.Stack()) != 0 {
		t.Error("undo did not remove the auto-confirmed overlay")
	}
}

func TestSelectWithoutPreviewResetsParams(t *testing.T) {
	m := selectedMachine(t)
	m.Adjust(transform.FieldScale, 2)
	tr, err := m.Select(aviator)
	if err != nil {
		t.Fatal(err)
	}
	if tr.AutoConfirmed != nil {
		t.Error("nothing to auto-confirm")
	}
	sel, _ := m.Selection()
	if sel.Params.Scale != 1 {
		t.Errorf("scale = %v, want reset to 1", sel.Params.Scale)
	}
}

func TestUndoRemovesExactlyOneUnit(t *testing.T) {
	m := selectedMachine(t)
	mustClick(t, m, 10, 10)
	m.Confirm()
	mustClick(t, m, 20, 20)
	m.Confirm()
	mustClick(t, m, 30, 30)

	tr, err := m.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if !tr.UndonePreview {
		t.Error("first undo should drop the preview")
	}
	if len(m.Stack()) != 2 {
		t.Fatalf("stack len = %d, want 2", len(m.Stack()))
	}

	tr, _ = m.Undo()
	if tr.UndonePreview || tr.Overlay.At != geometry.Pt(20, 20) {
		t.Errorf("second undo = %+v", tr)
	}
	if st := m.Stack(); len(st) != 1 || st[0].At != geometry.Pt(10, 10) {
		t.Errorf("stack = %+v", st)
	}

	m.Undo()
	if _, err := m.Undo(); !errors.Is(err, errors.ErrCodeNothingToUndo) {
		t.Errorf("err = %v", err)
	}
}

func TestSetCanvasResets(t *testing.T) {
	m := selectedMachine(t)
	mustClick(t, m, 10, 10)
	m.Confirm()
	mustClick(t, m, 20, 20)

	replacement := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	tr, err := m.SetCanvas(replacement)
	if err != nil {
		t.Fatal(err)
	}
	if tr.To != KindReady {
		t.Errorf("to = %v", tr.To)
	}
	if m.Canvas() != replacement || len(m.Stack()) != 0 {
		t.Error("canvas replacement kept overlays")
	}
	if _, ok := m.Preview(); ok {
		t.Error("canvas replacement kept the preview")
	}
	if _, ok := m.Selection(); ok {
		t.Error("canvas replacement kept the selection")
	}
}

func TestClearKeepsSelection(t *testing.T) {
	m := selectedMachine(t)
	mustClick(t, m, 10, 10)
	m.Confirm()
	mustClick(t, m, 20, 20)

	tr, err := m.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if tr.Cleared != 2 || tr.To != KindSelected {
		t.Errorf("clear = %+v", tr)
	}
	if len(m.Stack()) != 0 {
		t.Error("stack not cleared")
	}
	if sel, ok := m.Selection(); !ok || sel.Ref != fullBeard {
		t.Error("clear dropped the selection")
	}

	empty := NewMachine()
	if tr, err := empty.Clear(); err != nil || tr.To != KindEmpty {
		t.Errorf("clear on empty = %+v, %v", tr, err)
	}
}

func TestStackIsCopied(t *testing.T) {
	m := selectedMachine(t)
	mustClick(t, m, 10, 10)
	m.Confirm()

	st := m.Stack()
	st[0].At = geometry.Pt(99, 99)
	if m.Stack()[0].At != geometry.Pt(10, 10) {
		t.Error("Stack exposed internal storage")
	}
}

func TestRestore(t *testing.T) {
	sel := &Selection{Ref: aviator, Params: transform.Params{Scale: 1, Rotation: 450, Opacity: 1}}
	preview := &Overlay{Ref: aviator, At: geometry.Pt(5, 5), Params: transform.DefaultParams()}
	stack := []Overlay{{Ref: fullBeard, At: geometry.Pt(1, 2), Params: transform.DefaultParams()}}

	tests := []struct {
		name    string
		snap    Snapshot
		want    Kind
		wantErr bool
	}{
		{"empty", Snapshot{}, KindEmpty, false},
		{"ready", Snapshot{Canvas: canvas()}, KindReady, false},
		{"selected", Snapshot{Canvas: canvas(), Stack: stack, Selection: sel}, KindSelected, false},
		{"previewing", Snapshot{Canvas: canvas(), Stack: stack, Selection: sel, Preview: preview}, KindPreviewing, false},
		{"selection without canvas", Snapshot{Selection: sel}, 0, true},
		{"stack without selection", Snapshot{Canvas: canvas(), Stack: stack}, 0, true},
		{"preview without selection", Snapshot{Canvas: canvas(), Preview: preview}, 0, true},
		{
			"bad params",
			Snapshot{Canvas: canvas(), Selection: &Selection{Ref: aviator, Params: transform.Params{Scale: -1, Opacity: 1}}},
			0, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := selectedMachine(t)
			tr, err := m.Restore(tt.snap)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Fatalf("err = %v", err)
				}
				if m.Kind() != KindSelected {
					t.Error("failed restore changed state")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tr.To != tt.want || m.Kind() != tt.want {
				t.Errorf("kind = %v, want %v", m.Kind(), tt.want)
			}
		})
	}

	m := NewMachine()
	m.Restore(Snapshot{Canvas: canvas(), Selection: sel})
	if got, _ := m.Selection(); got.Params.Rotation != 90 {
		t.Errorf("restored rotation = %v, want 90", got.Params.Rotation)
	}
}

func assertSnapshotEqual(t *testing.T, a, b Snapshot) {
	t.Helper()
	if a.Canvas != b.Canvas {
		t.Error("canvas changed")
	}
	if len(a.Stack) != len(b.Stack) {
		t.Fatalf("stack len %d -> %d", len(a.Stack), len(b.Stack))
	}
	for i := range a.Stack {
		if a.Stack[i] != b.Stack[i] {
			t.Errorf("stack[%d] changed", i)
		}
	}
	if (a.Selection == nil) != (b.Selection == nil) || (a.Selection != nil && *a.Selection != *b.Selection) {
		t.Error("selection changed")
	}
	if (a.Preview == nil) != (b.Preview == nil) || (a.Preview != nil && *a.Preview != *b.Preview) {
		t.Error("preview changed")
	}
}
