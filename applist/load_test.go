package applist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSafeMissingFile(t *testing.T) {
	list := LoadSafe(context.Background(), filepath.Join(t.TempDir(), "does-not-exist.xml"))
	if len(list.Entries) != 0 {
		t.Errorf("expected empty list, got %d entries", len(list.Entries))
	}
}

func TestLoadSafeMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app-list.xml")
	if err := os.WriteFile(path, []byte("not xml at all <<<"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	list := LoadSafe(context.Background(), path)
	if len(list.Entries) != 0 {
		t.Errorf("expected empty list on malformed content, got %d entries", len(list.Entries))
	}
}

func TestLoadSafeValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app-list.xml")
	data, err := Marshal(sampleList())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	list := LoadSafe(context.Background(), path)
	if len(list.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(list.Entries))
	}
}
