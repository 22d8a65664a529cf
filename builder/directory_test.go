package builder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDirectoryBuilderAddFileAndDirectory(t *testing.T) {
	root := t.TempDir()
	b, err := NewDirectoryBuilder(root)
	if err != nil {
		t.Fatalf("NewDirectoryBuilder: %v", err)
	}

	if err := b.AddDirectory("sub", nil); err != nil {
		t.Fatalf("AddDirectory: %v", err)
	}
	if err := b.AddFile("sub/hello.txt", strings.NewReader("hi\n"), 1577836800, false); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "sub", "hello.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hi\n" {
		t.Errorf("content = %q", data)
	}

	fi, err := os.Stat(filepath.Join(root, "sub", "hello.txt"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if fi.ModTime().Unix() != 1577836800 {
		t.Errorf("mtime = %d, want 1577836800", fi.ModTime().Unix())
	}
}

func TestDirectoryBuilderOverlayOverwrites(t *testing.T) {
	root := t.TempDir()
	b, err := NewDirectoryBuilder(root)
	if err != nil {
		t.Fatalf("NewDirectoryBuilder: %v", err)
	}
	if err := b.AddFile("a.txt", strings.NewReader("first"), 100, false); err != nil {
		t.Fatalf("AddFile first: %v", err)
	}
	if err := b.AddFile("a.txt", strings.NewReader("second"), 200, false); err != nil {
		t.Fatalf("AddFile second: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q (later write should overwrite)", data, "second")
	}
}

func TestDirectoryBuilderQueueHardlink(t *testing.T) {
	root := t.TempDir()
	b, err := NewDirectoryBuilder(root)
	if err != nil {
		t.Fatalf("NewDirectoryBuilder: %v", err)
	}
	if err := b.AddFile("orig.txt", strings.NewReader("content"), 100, false); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := b.QueueHardlink("link.txt", "orig.txt", false); err != nil {
		t.Fatalf("QueueHardlink: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	origInfo, err := os.Stat(filepath.Join(root, "orig.txt"))
	if err != nil {
		t.Fatalf("Stat orig: %v", err)
	}
	linkInfo, err := os.Stat(filepath.Join(root, "link.txt"))
	if err != nil {
		t.Fatalf("Stat link: %v", err)
	}
	if !os.SameFile(origInfo, linkInfo) {
		t.Error("expected orig.txt and link.txt to be the same inode")
	}
}

func TestDirectoryBuilderHardlinkUnseenTargetFails(t *testing.T) {
	root := t.TempDir()
	b, err := NewDirectoryBuilder(root)
	if err != nil {
		t.Fatalf("NewDirectoryBuilder: %v", err)
	}
	if err := b.QueueHardlink("link.txt", "never-added.txt", false); err != nil {
		t.Fatalf("QueueHardlink: %v", err)
	}
	if err := b.Commit(); err == nil {
		t.Error("Commit with unresolved hardlink target should fail")
	}
}

func TestDirectoryBuilderAbortRemovesRoot(t *testing.T) {
	root := t.TempDir()
	b, err := NewDirectoryBuilder(root)
	if err != nil {
		t.Fatalf("NewDirectoryBuilder: %v", err)
	}
	if err := b.AddFile("a.txt", strings.NewReader("x"), 100, false); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := b.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("expected root to be removed, stat err = %v", err)
	}
}

func TestDirectoryBuilderPathEscapeRejected(t *testing.T) {
	root := t.TempDir()
	b, err := NewDirectoryBuilder(root)
	if err != nil {
		t.Fatalf("NewDirectoryBuilder: %v", err)
	}
	if err := b.AddFile("../escape.txt", strings.NewReader("x"), 100, false); err == nil {
		t.Error("AddFile with escaping path should fail")
	}
}
