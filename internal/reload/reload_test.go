package reload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"facial-editor/internal/logging"
)

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCheckReportsOnce(t *testing.T) {
	dir := tempDir(t)
	path := filepath.Join(dir, "facial-editor.toml")
	if err := os.WriteFile(path, []byte("log_level = \"info\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := New(logging.Discard(), path)

	if got := w.Check(); len(got) != 0 {
		t.Fatalf("unchanged file reported: %v", got)
	}

	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	got := w.Check()
	if len(got) != 1 || got[0] != path {
		t.Fatalf("Check = %v, want [%s]", got, path)
	}
	if got := w.Check(); len(got) != 0 {
		t.Errorf("change reported twice: %v", got)
	}
}

func TestCheckMissingThenCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.toml")
	w := New(logging.Discard(), path)
	if got := w.Check(); len(got) != 0 {
		t.Fatalf("missing file reported: %v", got)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := w.Check(); len(got) != 1 {
		t.Errorf("created file not reported: %v", got)
	}
}

func TestRunFiresOnChange(t *testing.T) {
	dir := tempDir(t)
	path := filepath.Join(dir, "binary")
	if err := os.WriteFile(path, []byte("v1"), 0o755); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatal(err)
	}

	w := New(logging.Discard(), path)
	changed := make(chan string, 1)
	w.OnChange(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, 20*time.Millisecond) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	tmp := filepath.Join(dir, "binary.tmp")
	if err := os.WriteFile(tmp, []byte("v2"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != path {
			t.Errorf("changed = %q, want %q", got, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run = %v", err)
	}
}
