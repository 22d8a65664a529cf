package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zero-install/zeroinstall/internal/zlog"
	"github.com/zero-install/zeroinstall/manifest"
	"github.com/zero-install/zeroinstall/zerr"
)

// Remove deletes the implementation at digest: disable write
// protection, atomically rename to a throwaway name, then recursively
// delete (spec.md §4.D remove). Refuses to remove the store's own
// install base.
func (s *Store) Remove(ctx context.Context, digest manifest.Digest, handler Handler) (bool, error) {
	path, ok := s.path(digest)
	if !ok {
		return false, nil
	}
	if isOwnInstallBase(path) {
		return false, &zerr.PermissionDenied{Action: "remove own install base"}
	}

	if s.WriteProtect {
		if err := unprotectTree(path); err != nil {
			zlog.Get(ctx).WithError(err).Warn("could not clear write protection before remove, skipping")
			return false, nil
		}
	}

	trash := filepath.Join(s.Root, ".trash-"+uuid.NewString())
	if err := os.Rename(path, trash); err != nil {
		zlog.Get(ctx).WithError(err).Warn("remove: file still in use, skipping")
		return false, nil
	}
	if err := os.RemoveAll(trash); err != nil {
		return true, &zerr.IO{Op: "removeall", Path: trash, Cause: err}
	}
	return true, nil
}

// isOwnInstallBase guards against removing the directory this process
// was itself launched from, a safeguard the spec requires but leaves
// the exact detection mechanism to the implementation.
func isOwnInstallBase(path string) bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(filepath.Clean(exe), abs+string(os.PathSeparator))
}

// Verify recomputes digest's manifest and compares it to the stored
// one; on mismatch it offers removal through handler.
func (s *Store) Verify(ctx context.Context, digest manifest.Digest, handler Handler) error {
	path, ok := s.path(digest)
	if !ok {
		return &zerr.NotFound{Kind: "implementation", ID: digest.Best()}
	}

	algo, expectedHex, _ := digest.BestAlgorithm()
	m, err := manifest.Generate(path, algo)
	if err != nil {
		return err
	}
	actualHex, err := m.Digest()
	if err != nil {
		return err
	}
	if actualHex == expectedHex {
		return nil
	}

	mismatch := &zerr.DigestMismatch{
		Expected: string(algo) + "_" + expectedHex,
		Actual:   string(algo) + "_" + actualHex,
	}
	if handler != nil && handler.Ask("implementation "+digest.Best()+" is corrupt, remove it?", false) {
		if _, rerr := s.Remove(ctx, digest, handler); rerr != nil {
			return rerr
		}
	}
	return mismatch
}
