package builder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zero-install/zeroinstall/zerr"
)

// DirectoryBuilder is the filesystem-backed Builder: it writes the
// directory tree directly under Root, applying flag files (.xbit,
// .symlink) on platforms without native POSIX executable bits or
// symlinks, the way the manifest engine's generator reads them back.
type DirectoryBuilder struct {
	Root string

	posix     bool
	hardlinks []queuedHardlink
	seen      map[string]bool
	xbits     []string
	symlinks  []string
	committed bool
}

type queuedHardlink struct {
	relativePath       string
	targetRelativePath string
	executable         bool
}

// NewDirectoryBuilder creates the root directory (if absent) and
// returns a DirectoryBuilder rooted there.
func NewDirectoryBuilder(root string) (*DirectoryBuilder, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &zerr.IO{Op: "mkdir", Path: root, Cause: err}
	}
	return &DirectoryBuilder{
		Root:  root,
		posix: runtime.GOOS != "windows",
		seen:  map[string]bool{},
	}, nil
}

func (b *DirectoryBuilder) abs(relativePath string) (string, error) {
	clean, err := NormalizePath(relativePath)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.Root, filepath.FromSlash(clean)), nil
}

func (b *DirectoryBuilder) AddDirectory(relativePath string, mtime *int64) error {
	abs, err := b.abs(relativePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return &zerr.IO{Op: "mkdir", Path: abs, Cause: err}
	}
	b.seen[cleanRel(relativePath)] = true
	if mtime != nil {
		_ = os.Chtimes(abs, time.Unix(*mtime, 0), time.Unix(*mtime, 0))
	}
	return nil
}

func (b *DirectoryBuilder) AddFile(relativePath string, content io.Reader, mtime int64, executable bool) error {
	abs, err := b.abs(relativePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return &zerr.IO{Op: "mkdir", Path: filepath.Dir(abs), Cause: err}
	}

	mode := os.FileMode(0o644)
	if executable && b.posix {
		mode = 0o755
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return &zerr.IO{Op: "create", Path: abs, Cause: err}
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return &zerr.IO{Op: "write", Path: abs, Cause: err}
	}
	if err := f.Close(); err != nil {
		return &zerr.IO{Op: "close", Path: abs, Cause: err}
	}
	if err := os.Chtimes(abs, time.Unix(mtime, 0), time.Unix(mtime, 0)); err != nil {
		return &zerr.IO{Op: "chtimes", Path: abs, Cause: err}
	}

	rel := cleanRel(relativePath)
	b.seen[rel] = true
	if executable && !b.posix {
		b.xbits = append(b.xbits, rel)
	}
	return nil
}

func (b *DirectoryBuilder) AddSymlink(relativePath string, target string, mtime *int64) error {
	abs, err := b.abs(relativePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return &zerr.IO{Op: "mkdir", Path: filepath.Dir(abs), Cause: err}
	}

	rel := cleanRel(relativePath)
	if b.posix {
		if err := os.Symlink(target, abs); err != nil {
			return &zerr.IO{Op: "symlink", Path: abs, Cause: err}
		}
	} else {
		if err := os.WriteFile(abs, []byte(target), 0o644); err != nil {
			return &zerr.IO{Op: "write", Path: abs, Cause: err}
		}
		b.symlinks = append(b.symlinks, rel)
	}
	b.seen[rel] = true
	return nil
}

// QueueHardlink defers linking until Commit, since the target may not
// have been seen yet at the point the archive names the hardlink entry.
func (b *DirectoryBuilder) QueueHardlink(relativePath, targetRelativePath string, executable bool) error {
	if _, err := NormalizePath(relativePath); err != nil {
		return err
	}
	if _, err := NormalizePath(targetRelativePath); err != nil {
		return err
	}
	b.hardlinks = append(b.hardlinks, queuedHardlink{relativePath, targetRelativePath, executable})
	return nil
}

// Commit resolves queued hardlinks and writes the .xbit/.symlink flag
// files this root needs, if any.
func (b *DirectoryBuilder) Commit() error {
	for _, hl := range b.hardlinks {
		targetRel := cleanRel(hl.targetRelativePath)
		if !b.seen[targetRel] {
			return &zerr.InvalidData{Context: "hardlink", Cause: fmt.Errorf("hardlink target %q not seen before commit", hl.targetRelativePath)}
		}
		srcAbs, err := b.abs(hl.targetRelativePath)
		if err != nil {
			return err
		}
		dstAbs, err := b.abs(hl.relativePath)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dstAbs), 0o755); err != nil {
			return &zerr.IO{Op: "mkdir", Path: filepath.Dir(dstAbs), Cause: err}
		}
		if err := os.Link(srcAbs, dstAbs); err != nil {
			return &zerr.IO{Op: "link", Path: dstAbs, Cause: err}
		}
		b.seen[cleanRel(hl.relativePath)] = true
		if hl.executable && !b.posix {
			b.xbits = append(b.xbits, cleanRel(hl.relativePath))
		}
	}

	if len(b.xbits) > 0 {
		if err := writeFlagFile(filepath.Join(b.Root, ".xbit"), b.xbits); err != nil {
			return err
		}
	}
	if len(b.symlinks) > 0 {
		if err := writeFlagFile(filepath.Join(b.Root, ".symlink"), b.symlinks); err != nil {
			return err
		}
	}
	b.committed = true
	return nil
}

// Abort deletes everything written so far under Root.
func (b *DirectoryBuilder) Abort() error {
	if err := os.RemoveAll(b.Root); err != nil {
		return &zerr.IO{Op: "removeall", Path: b.Root, Cause: err}
	}
	return nil
}

func writeFlagFile(path string, names []string) error {
	var buf []byte
	for _, n := range names {
		buf = append(buf, []byte("/"+n+"\n")...)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return &zerr.IO{Op: "write", Path: path, Cause: err}
	}
	return nil
}

func cleanRel(relativePath string) string {
	clean, err := NormalizePath(relativePath)
	if err != nil {
		return relativePath
	}
	return clean
}
