package applist

import (
	"context"
	"os"

	"github.com/zero-install/zeroinstall/internal/zlog"
)

// LoadSafe reads and parses the AppList at path, tolerating a missing
// file (empty list) and malformed content (logs and returns empty)
// per spec.md §4.E load_safe.
func LoadSafe(ctx context.Context, path string) *AppList {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			zlog.Get(ctx).WithError(err).Warnf("app-list: could not read %s, treating as empty", path)
		}
		return &AppList{}
	}
	list, err := Unmarshal(data)
	if err != nil {
		zlog.Get(ctx).WithError(err).Warnf("app-list: malformed content at %s, treating as empty", path)
		return &AppList{}
	}
	return list
}
