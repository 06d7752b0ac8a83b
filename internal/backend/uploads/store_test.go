package uploads

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewStore_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "static", "uploads")

	first, err := NewStore(dir, "/static/uploads")
	if err != nil {
		t.Fatalf("first NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })

	second, err := NewStore(dir, "/static/uploads")
	if err != nil {
		t.Fatalf("second NewStore on existing directory failed: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected upload directory to exist, stat err: %v", err)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/static/uploads")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Save("leaf.png", []byte("first version, longer")); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save("leaf.png", []byte("second")); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(store.Dir(), "leaf.png"))
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if !bytes.Equal(got, []byte("second")) {
		t.Errorf("expected last write to win, got %q", got)
	}
}

func TestStore_SaveRejectsPaths(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "uploads")
	store, err := NewStore(dir, "/static/uploads")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	for _, name := range []string{"", ".", "..", "../escape.png", "sub/dir.png"} {
		if err := store.Save(name, []byte("x")); err == nil {
			t.Errorf("Save(%q) succeeded, want error", name)
		}
	}
	if _, err := os.Stat(filepath.Join(parent, "escape.png")); !os.IsNotExist(err) {
		t.Errorf("file escaped the upload directory, stat err: %v", err)
	}
}

func TestStore_SanitizedTraversalStaysInside(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/static/uploads")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	name, err := SanitizeFilename("../../etc/passwd.png")
	if err != nil {
		t.Fatalf("SanitizeFilename failed: %v", err)
	}
	if err := store.Save(name, []byte("png")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	resolved, err := filepath.Abs(filepath.Join(store.Dir(), name))
	if err != nil {
		t.Fatalf("Abs failed: %v", err)
	}
	if !strings.HasPrefix(resolved, store.Dir()+string(filepath.Separator)) {
		t.Errorf("resolved path %s is not inside %s", resolved, store.Dir())
	}
}

func TestStore_URL(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/static/uploads")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if got := store.URL("test.png"); got != "/static/uploads/test.png" {
		t.Errorf("URL() = %q, want %q", got, "/static/uploads/test.png")
	}
}
