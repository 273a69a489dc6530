package upload

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	s, err := NewDiskStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestSaveReturnsReference(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save("scan One.JPG", bytes.NewReader([]byte("fake image bytes")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(ref, "/uploads/") || !strings.HasSuffix(ref, ".jpg") {
		t.Fatalf("unexpected reference %q", ref)
	}

	name := strings.TrimPrefix(ref, "/uploads/")
	b, err := os.ReadFile(filepath.Join(s.Dir(), name))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != "fake image bytes" {
		t.Fatalf("content mismatch: %q", b)
	}
}

func TestSaveRefusesUnsupportedExtension(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Save("malware.exe", bytes.NewReader([]byte("x"))); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := s.Save("noextension", bytes.NewReader([]byte("x"))); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestSaveRefusesOversizedFile(t *testing.T) {
	s := newTestStore(t)
	big := bytes.NewReader(make([]byte, MaxUploadBytes+1))
	if _, err := s.Save("huge.png", big); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatal("oversized upload must not leave a partial file behind")
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	ref, err := s.Save("a.png", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Remove(ref); err != nil {
		t.Fatalf("remove: %v", err)
	}
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 0 {
		t.Fatal("file must be gone after remove")
	}

	// Removing a missing reference is not an error.
	if err := s.Remove(ref); err != nil {
		t.Fatalf("remove twice: %v", err)
	}
	if err := s.Remove("/uploads/../../etc/passwd"); err == nil {
		t.Fatal("path traversal reference must be refused")
	}
}
