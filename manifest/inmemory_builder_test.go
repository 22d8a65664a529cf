package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestInMemoryBuilderMatchesGenerate checks that hashing a tree through
// InMemoryBuilder produces the same digest as writing the identical
// tree to disk and running Generate over it.
func TestInMemoryBuilderMatchesGenerate(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	files := []struct {
		rel  string
		data string
		mode os.FileMode
	}{
		{"a.txt", "aaa", 0o644},
		{"run.sh", "#!/bin/sh\n", 0o755},
		{"sub/b.txt", "bbb", 0o644},
	}
	const mtime = 1600000000
	ts := time.Unix(mtime, 0)
	for _, f := range files {
		full := filepath.Join(dir, filepath.FromSlash(f.rel))
		if err := os.WriteFile(full, []byte(f.data), f.mode); err != nil {
			t.Fatalf("WriteFile(%s): %v", f.rel, err)
		}
		if err := os.Chtimes(full, ts, ts); err != nil {
			t.Fatalf("Chtimes(%s): %v", f.rel, err)
		}
	}

	for _, algo := range []Algorithm{SHA1New, SHA256, SHA256New} {
		onDisk, err := Generate(dir, algo)
		if err != nil {
			t.Fatalf("Generate(%s): %v", algo, err)
		}
		diskDigest, err := onDisk.Digest()
		if err != nil {
			t.Fatalf("Digest(%s): %v", algo, err)
		}

		b := NewInMemoryBuilder()
		if err := b.AddDirectory("sub", nil); err != nil {
			t.Fatalf("AddDirectory: %v", err)
		}
		if err := b.AddFile("a.txt", strings.NewReader("aaa"), mtime, false); err != nil {
			t.Fatalf("AddFile a.txt: %v", err)
		}
		if err := b.AddFile("run.sh", strings.NewReader("#!/bin/sh\n"), mtime, true); err != nil {
			t.Fatalf("AddFile run.sh: %v", err)
		}
		if err := b.AddFile("sub/b.txt", strings.NewReader("bbb"), mtime, false); err != nil {
			t.Fatalf("AddFile sub/b.txt: %v", err)
		}
		if err := b.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}

		memDigest, err := b.Digest(algo)
		if err != nil {
			t.Fatalf("mem Digest(%s): %v", algo, err)
		}
		if memDigest != diskDigest {
			t.Errorf("[%s] in-memory digest %s != on-disk digest %s", algo, memDigest, diskDigest)
		}
	}
}
