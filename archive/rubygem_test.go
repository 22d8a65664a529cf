package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zero-install/zeroinstall/builder"
)

// buildGem assembles a minimal .gem file: an uncompressed outer tar
// containing metadata.gz, data.tar.gz and checksums.yaml.gz members,
// mirroring the RubyGems package format.
func buildGem(t *testing.T, dataFiles map[string]string) []byte {
	t.Helper()

	var dataBuf bytes.Buffer
	dtw := tar.NewWriter(&dataBuf)
	for name, content := range dataFiles {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), ModTime: time.Unix(1577836800, 0)}
		if err := dtw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader(%s): %v", name, err)
		}
		if _, err := dtw.Write([]byte(content)); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	if err := dtw.Close(); err != nil {
		t.Fatalf("data tar Close: %v", err)
	}

	var dataGz bytes.Buffer
	gw := gzip.NewWriter(&dataGz)
	if _, err := gw.Write(dataBuf.Bytes()); err != nil {
		t.Fatalf("gzip Write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}

	var outer bytes.Buffer
	otw := tar.NewWriter(&outer)
	members := map[string][]byte{
		"metadata.gz":       {0x1f, 0x8b},
		"data.tar.gz":       dataGz.Bytes(),
		"checksums.yaml.gz": {0x1f, 0x8b},
	}
	for _, name := range []string{"metadata.gz", "data.tar.gz", "checksums.yaml.gz"} {
		content := members[name]
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), ModTime: time.Unix(1577836800, 0)}
		if err := otw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader(%s): %v", name, err)
		}
		if _, err := otw.Write(content); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	if err := otw.Close(); err != nil {
		t.Fatalf("outer tar Close: %v", err)
	}
	return outer.Bytes()
}

func TestExtractRubyGem(t *testing.T) {
	gem := buildGem(t, map[string]string{"lib/foo.rb": "puts 'hi'\n"})
	root := t.TempDir()
	b, err := builder.NewDirectoryBuilder(root)
	if err != nil {
		t.Fatalf("NewDirectoryBuilder: %v", err)
	}
	if err := Extract(context.Background(), MimeRubyGem, bytes.NewReader(gem), int64(len(gem)), b, Options{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	out, err := os.ReadFile(filepath.Join(root, "lib", "foo.rb"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(out) != "puts 'hi'\n" {
		t.Errorf("content = %q", out)
	}
}

func TestExtractRubyGemSubdir(t *testing.T) {
	gem := buildGem(t, map[string]string{
		"lib/foo.rb":   "keep",
		"spec/test.rb": "skip",
	})
	root := t.TempDir()
	b, err := builder.NewDirectoryBuilder(root)
	if err != nil {
		t.Fatalf("NewDirectoryBuilder: %v", err)
	}
	if err := Extract(context.Background(), MimeRubyGem, bytes.NewReader(gem), int64(len(gem)), b, Options{ExtractSubdir: "lib"}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "foo.rb")); err != nil {
		t.Errorf("expected foo.rb: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "spec")); !os.IsNotExist(err) {
		t.Errorf("expected spec/ excluded, stat err = %v", err)
	}
}

func TestExtractRubyGemMissingDataMember(t *testing.T) {
	var outer bytes.Buffer
	otw := tar.NewWriter(&outer)
	hdr := &tar.Header{Name: "metadata.gz", Mode: 0o644, Size: 2, ModTime: time.Unix(1577836800, 0)}
	if err := otw.WriteHeader(hdr); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if _, err := otw.Write([]byte{0x1f, 0x8b}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := otw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	root := t.TempDir()
	b, err := builder.NewDirectoryBuilder(root)
	if err != nil {
		t.Fatalf("NewDirectoryBuilder: %v", err)
	}
	data := outer.Bytes()
	if err := Extract(context.Background(), MimeRubyGem, bytes.NewReader(data), int64(len(data)), b, Options{}); err == nil {
		t.Error("expected error for gem with no data.tar.gz member")
	}
}
