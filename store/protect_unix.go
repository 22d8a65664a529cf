//go:build !windows

package store

import (
	"os"
	"path/filepath"

	"github.com/zero-install/zeroinstall/zerr"
)

// probeUnixFS creates and removes a symlink: filesystems that reject
// it (vfat, smb without unix extensions) need the .xbit/.symlink flag
// file fallback even on a POSIX host.
func probeUnixFS(root string) bool {
	path := filepath.Join(root, ".unix-fs-probe")
	if err := os.Symlink("target", path); err != nil {
		return false
	}
	os.Remove(path)
	return true
}

// writeProtectTree clears the write bits on every file and directory
// under root, POSIX-style (spec.md §4.D.5).
func writeProtectTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return &zerr.IO{Op: "stat", Path: path, Cause: err}
		}
		mode := fi.Mode().Perm() &^ 0o222
		if err := os.Chmod(path, mode); err != nil {
			return &zerr.IO{Op: "chmod", Path: path, Cause: err}
		}
		return nil
	})
}

// unprotectTree restores owner write permission so the tree can be
// renamed away and deleted.
func unprotectTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return &zerr.IO{Op: "stat", Path: path, Cause: err}
		}
		mode := fi.Mode().Perm() | 0o200
		if d.IsDir() {
			mode |= 0o100
		}
		if err := os.Chmod(path, mode); err != nil {
			return &zerr.IO{Op: "chmod", Path: path, Cause: err}
		}
		return nil
	})
}
