package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestCompositeAddTriesStoresInOrder(t *testing.T) {
	roRoot := t.TempDir()
	ro, err := New(roRoot, false)
	if err != nil {
		t.Fatalf("New(ro): %v", err)
	}
	ro.Kind = ReadOnly

	rwRoot := t.TempDir()
	rw, err := New(rwRoot, false)
	if err != nil {
		t.Fatalf("New(rw): %v", err)
	}

	c := NewComposite(ro, rw)

	src := t.TempDir()
	writeFileWithMTime(t, filepath.Join(src, "hello"), []byte("hi\n"), 1577836800, 0o644)
	digest := digestForDir(t, src)

	if err := c.AddDirectory(context.Background(), src, digest, nil); err != nil {
		t.Fatalf("AddDirectory: %v", err)
	}

	if ro.Contains(digest) {
		t.Error("read-only store should not have received the add")
	}
	if !rw.Contains(digest) {
		t.Error("read-write store should have received the add")
	}
	if !c.Contains(digest) {
		t.Error("composite should report the digest as present")
	}
}

func TestCompositeAddAllReadOnlyFails(t *testing.T) {
	roRoot := t.TempDir()
	ro, err := New(roRoot, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ro.Kind = ReadOnly
	c := NewComposite(ro)

	src := t.TempDir()
	writeFileWithMTime(t, filepath.Join(src, "hello"), []byte("hi\n"), 1577836800, 0o644)
	digest := digestForDir(t, src)

	if err := c.AddDirectory(context.Background(), src, digest, nil); err == nil {
		t.Error("expected error when every store is read-only")
	}
}

func TestCompositeOwnerRoutesRemoveAndVerify(t *testing.T) {
	root1 := t.TempDir()
	s1, err := New(root1, false)
	if err != nil {
		t.Fatalf("New(s1): %v", err)
	}
	root2 := t.TempDir()
	s2, err := New(root2, false)
	if err != nil {
		t.Fatalf("New(s2): %v", err)
	}
	c := NewComposite(s1, s2)

	src := t.TempDir()
	writeFileWithMTime(t, filepath.Join(src, "hello"), []byte("hi\n"), 1577836800, 0o644)
	digest := digestForDir(t, src)
	if err := s2.AddDirectory(context.Background(), src, digest, nil); err != nil {
		t.Fatalf("AddDirectory to s2: %v", err)
	}

	if err := c.Verify(context.Background(), digest, nil); err != nil {
		t.Fatalf("Verify via composite: %v", err)
	}

	removed, err := c.Remove(context.Background(), digest, nil)
	if err != nil {
		t.Fatalf("Remove via composite: %v", err)
	}
	if !removed {
		t.Error("expected Remove to report removed=true")
	}
	if c.Contains(digest) {
		t.Error("digest should be gone after Remove")
	}
}
