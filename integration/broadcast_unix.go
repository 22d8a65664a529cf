//go:build !windows

package integration

// broadcastChange is a no-op on POSIX: the registered window message
// broadcast (spec.md §4.F) announcing AppList changes is a Windows
// shell-integration mechanism with no POSIX equivalent.
func broadcastChange(path string) {}
