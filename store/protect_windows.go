//go:build windows

package store

import "os"

// probeUnixFS is always false on Windows: symlinks and POSIX
// permission bits are not native, so the generator/builder flag-file
// fallback (.xbit, .symlink) is always used.
func probeUnixFS(root string) bool { return false }

// writeProtectTree and unprotectTree fall back to the readonly
// attribute via os.Chmod, which the Go runtime maps onto
// FILE_ATTRIBUTE_READONLY on Windows. No deny-write ACL (spec.md
// §4.D.5) is applied, and only root itself is chmodded.
func writeProtectTree(root string) error {
	return os.Chmod(root, 0o444)
}

func unprotectTree(root string) error {
	return os.Chmod(root, 0o755)
}
