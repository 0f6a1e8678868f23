package session

import (
	"context"
	"testing"
	"time"

	"facial-editor/internal/logging"
	"facial-editor/internal/placement"
	"facial-editor/pkg/errors"
	"facial-editor/pkg/geometry"
)

func newTestRegistry(store Store) *Registry {
	return NewRegistry(Options{Catalog: testCatalog(), Logger: logging.Discard()}, store, time.Minute)
}

func TestRegistryIsolation(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(nil)

	idA, a := r.Create()
	idB, _ := r.Create()
	if idA == idB {
		t.Fatal("duplicate session ids")
	}

	a.SetCanvas(whiteCanvas())
	a.Select("beard", "Full Beard")
	a.Click(geometry.PointInt{X: 100, Y: 100})

	b, err := r.Get(ctx, idB)
	if err != nil {
		t.Fatal(err)
	}
	if b.Kind() != placement.KindEmpty {
		t.Errorf("session B kind = %v, want Empty", b.Kind())
	}
	got, err := r.Get(ctx, idA)
	if err != nil || got != a {
		t.Errorf("Get(A) = %p, %v", got, err)
	}
}

func TestRegistryUnknownSession(t *testing.T) {
	r := newTestRegistry(nil)
	for _, id := range []string{"nope", "3f0c5a3e-8a1b-4c55-9d4e-0d7a9b1c2e3f"} {
		if _, err := r.Get(context.Background(), id); !errors.Is(err, errors.ErrCodeSessionNotFound) {
			t.Errorf("Get(%q): err = %v", id, err)
		}
	}
}

func TestRegistryEvictAndRestore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := newTestRegistry(store)

	id, c := r.Create()
	c.SetCanvas(whiteCanvas())
	c.Select("beard", "Full Beard")
	c.Click(geometry.PointInt{X: 250, Y: 300})
	c.Confirm()
	c.Click(geometry.PointInt{X: 50, Y: 60})
	before := c.Render().Image

	if n := r.Evict(ctx, time.Now()); n != 0 {
		t.Fatalf("evicted %d active sessions", n)
	}
	if n := r.Evict(ctx, time.Now().Add(2*time.Minute)); n != 1 {
		t.Fatalf("evicted %d, want 1", n)
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d after eviction", r.Len())
	}

	restored, err := r.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	s := restored.Summary()
	if len(s.Overlays) != 1 || s.Preview == nil {
		t.Fatalf("restored summary = %+v", s)
	}
	if s.Preview.At != (geometry.PointInt{X: 50, Y: 60}) {
		t.Errorf("preview at %v", s.Preview.At)
	}
	after := restored.Render().Image
	if !after.Bounds().Eq(before.Bounds()) {
		t.Fatalf("bounds %v != %v", after.Bounds(), before.Bounds())
	}
	if after.NRGBAAt(250, 300) != before.NRGBAAt(250, 300) {
		t.Errorf("restored pixel differs")
	}
}

func TestRegistryGetKeepsSessionAlive(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(NewMemoryStore())
	id, c := r.Create()

	c.mu.Lock()
	c.lastActive = time.Now().Add(-time.Hour)
	c.mu.Unlock()

	got, err := r.Get(ctx, id)
	if err != nil || got != c {
		t.Fatalf("Get = %p, %v", got, err)
	}
	if idle := time.Since(c.LastActive()); idle > time.Minute {
		t.Errorf("LastActive is %v old after Get", idle)
	}
	if n := r.Evict(ctx, time.Now()); n != 0 {
		t.Errorf("evicted %d sessions right after Get", n)
	}

	// Changes made through the fetched controller must stay visible.
	got.SetCanvas(whiteCanvas())
	again, err := r.Get(ctx, id)
	if err != nil || again != got {
		t.Fatalf("second Get = %p, %v; want the same controller", again, err)
	}
	if again.Kind() != placement.KindReady {
		t.Errorf("kind = %v, want Ready", again.Kind())
	}
}

func TestRegistryRestoresCustomFeatures(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(NewMemoryStore())

	id, c := r.Create()
	c.SetCanvas(whiteCanvas())
	c.AddCustomFeature(whiteCanvas(), "Sticker")
	c.Click(geometry.PointInt{X: 10, Y: 10})
	c.Confirm()

	r.Evict(ctx, time.Now().Add(time.Hour))
	restored, err := r.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := restored.Asset("custom", "Sticker"); err != nil {
		t.Errorf("custom feature not restored: %v", err)
	}
}

func TestRegistryDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(NewMemoryStore())
	id, _ := r.Create()

	if err := r.Persist(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get(ctx, id); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Get after Delete: err = %v", err)
	}
	if err := r.Delete(ctx, id); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("second Delete: err = %v", err)
	}
}

func TestRegistryRun(t *testing.T) {
	r := NewRegistry(Options{Catalog: testCatalog(), Logger: logging.Discard()}, nil, time.Millisecond)
	r.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for r.Len() > 0 {
		select {
		case <-deadline:
			t.Fatal("idle session was never evicted")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
