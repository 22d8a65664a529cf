package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zero-install/zeroinstall/archive"
	"github.com/zero-install/zeroinstall/builder"
	"github.com/zero-install/zeroinstall/internal/zlog"
	"github.com/zero-install/zeroinstall/manifest"
	"github.com/zero-install/zeroinstall/zerr"
)

const manifestFileName = ".manifest"

// AddDirectory clones sourcePath into the store under expected,
// verifying its digest along the way (spec.md §4.D add_directory).
func (s *Store) AddDirectory(ctx context.Context, sourcePath string, expected manifest.Digest, handler Handler) error {
	if s.Contains(expected) {
		return &zerr.AlreadyInStore{Digest: expected.Best()}
	}

	tempDir, err := s.newTempDir()
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	if err := cloneDirectory(ctx, sourcePath, tempDir); err != nil {
		return err
	}

	return s.verifyAndAdd(ctx, tempDir, expected, handler)
}

// AddArchives extracts archives, in order, into the store under
// expected (spec.md §4.D add_archives; overlay semantics via
// archive.ExtractAll).
func (s *Store) AddArchives(ctx context.Context, archives []archive.Source, expected manifest.Digest, handler Handler) error {
	if s.Contains(expected) {
		return &zerr.AlreadyInStore{Digest: expected.Best()}
	}

	tempDir, err := s.newTempDir()
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	b, err := builder.NewDirectoryBuilder(tempDir)
	if err != nil {
		return err
	}
	if err := archive.ExtractAll(ctx, archives, b); err != nil {
		_ = b.Abort()
		return err
	}
	if err := b.Commit(); err != nil {
		return err
	}

	return s.verifyAndAdd(ctx, tempDir, expected, handler)
}

func (s *Store) newTempDir() (string, error) {
	dir := filepath.Join(s.Root, ".tmp-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &zerr.IO{Op: "mkdir", Path: dir, Cause: err}
	}
	return dir, nil
}

// verifyAndAdd implements spec.md §4.D verify_and_add: generate,
// compare, retry with rounded timestamps, write .manifest, rename
// under the rename lock, write-protect.
func (s *Store) verifyAndAdd(ctx context.Context, tempDir string, expected manifest.Digest, handler Handler) error {
	algo, expectedHex, ok := expected.BestAlgorithm()
	if !ok {
		return &zerr.InvalidData{Context: "verify_and_add", Cause: errNoExpectedDigest}
	}

	m, err := manifest.Generate(tempDir, algo)
	if err != nil {
		return err
	}
	actualHex, err := m.Digest()
	if err != nil {
		return err
	}

	if actualHex != expectedHex {
		zlog.Get(ctx).Warnf("digest mismatch for %s, retrying with rounded timestamps", expectedHex)
		if err := roundOddTimestamps(tempDir); err != nil {
			return err
		}
		m, err = manifest.Generate(tempDir, algo)
		if err != nil {
			return err
		}
		actualHex, err = m.Digest()
		if err != nil {
			return err
		}
		if actualHex != expectedHex {
			expectedManifest, actualManifest := optionalSerialize(expected, m)
			return &zerr.DigestMismatch{
				Expected:         string(algo) + "_" + expectedHex,
				Actual:           string(algo) + "_" + actualHex,
				ExpectedManifest: expectedManifest,
				ActualManifest:   actualManifest,
			}
		}
	}

	data, err := m.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(tempDir, manifestFileName), data, 0o644); err != nil {
		return &zerr.IO{Op: "write", Path: tempDir, Cause: err}
	}

	finalPath := filepath.Join(s.Root, string(algo)+"_"+actualHex)

	if err := s.lock.Lock(ctx); err != nil {
		return err
	}
	defer s.lock.Unlock()

	if _, err := os.Stat(finalPath); err == nil {
		return &zerr.AlreadyInStore{Digest: string(algo) + "_" + actualHex}
	}
	if err := os.Rename(tempDir, finalPath); err != nil {
		return &zerr.IO{Op: "rename", Path: finalPath, Cause: err}
	}

	if s.WriteProtect {
		if err := writeProtectTree(finalPath); err != nil {
			return err
		}
	}
	return nil
}

func optionalSerialize(expected manifest.Digest, actual manifest.Manifest) (expectedManifest, actualManifest []byte) {
	actualManifest, _ = actual.Serialize()
	return nil, actualManifest
}

// roundOddTimestamps rounds every regular file's odd-second mtime down
// by one second, in place, per spec.md §4.D verify_and_add step 2's
// "with_rounded_timestamps" fallback.
func roundOddTimestamps(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return &zerr.IO{Op: "stat", Path: path, Cause: err}
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		mt := fi.ModTime()
		if mt.Unix()%2 == 0 {
			return nil
		}
		rounded := time.Unix(mt.Unix()-1, 0)
		return os.Chtimes(path, rounded, rounded)
	})
}

func cloneDirectory(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := checkCancel(ctx); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return &zerr.IO{Op: "stat", Path: path, Cause: err}
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case info.Mode()&os.ModeSymlink != 0:
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return &zerr.IO{Op: "readlink", Path: path, Cause: err}
			}
			return os.Symlink(linkTarget, target)
		default:
			return copyFile(path, target, info)
		}
	})
}

func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return &zerr.IO{Op: "open", Path: src, Cause: err}
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &zerr.IO{Op: "mkdir", Path: filepath.Dir(dst), Cause: err}
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return &zerr.IO{Op: "create", Path: dst, Cause: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &zerr.IO{Op: "write", Path: dst, Cause: err}
	}
	if err := out.Close(); err != nil {
		return &zerr.IO{Op: "close", Path: dst, Cause: err}
	}
	mt := info.ModTime()
	return os.Chtimes(dst, mt, mt)
}

type verifyError string

func (e verifyError) Error() string { return string(e) }

const errNoExpectedDigest = verifyError("expected digest has no algorithm value")
