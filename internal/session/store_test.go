package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"facial-editor/internal/placement"
	"facial-editor/internal/scene"
)

func testSnapshot(t *testing.T, id string) *scene.Snapshot {
	t.Helper()
	snap, err := scene.Capture(id, placement.Snapshot{Canvas: whiteCanvas()}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("Get(missing) = %v, %v", got, err)
	}

	if err := s.Set(ctx, testSnapshot(t, "a"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err = s.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.SessionID != "a" || len(got.Canvas) == 0 {
		t.Fatalf("Get(a) = %+v", got)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(ctx, "a"); got != nil {
		t.Error("snapshot survived Delete")
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Errorf("deleting a missing session: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Set(ctx, testSnapshot(t, "old"), time.Nanosecond)
	time.Sleep(time.Millisecond)

	if got, _ := s.Get(ctx, "old"); got != nil {
		t.Error("expired snapshot returned")
	}
	s.Cleanup(ctx)
	if len(s.records) != 0 {
		t.Errorf("records = %d after Cleanup", len(s.records))
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestFileStoreCleanup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	s.Set(ctx, testSnapshot(t, "old"), time.Nanosecond)
	s.Set(ctx, testSnapshot(t, "new"), time.Hour)
	time.Sleep(time.Millisecond)

	if err := s.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.json")); !os.IsNotExist(err) {
		t.Error("expired session file kept")
	}
	if _, err := os.Stat(filepath.Join(dir, "new.json")); err != nil {
		t.Errorf("live session file removed: %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("FACIAL_EDITOR_TEST_REDIS")
	if addr == "" {
		t.Skip("FACIAL_EDITOR_TEST_REDIS not set")
	}
	s, err := NewRedisStore(context.Background(), RedisConfig{Addr: addr, Prefix: "facial-editor-test:"})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}
