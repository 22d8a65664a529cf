//go:build !windows

package integration

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// namedMutex is backed by an advisory file lock under the OS temp
// directory on POSIX, since there is no native named-mutex primitive;
// the teacher's stack has no cross-process lock of its own, so this
// reuses gofrs/flock exactly as store's rename lock does.
type namedMutex struct {
	flk *flock.Flock
}

func newNamedMutex(name string) *namedMutex {
	return &namedMutex{flk: flock.New(filepath.Join(os.TempDir(), name+".lock"))}
}

func (m *namedMutex) TryLock() error {
	locked, err := m.flk.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		return errAlreadyLocked
	}
	return nil
}

func (m *namedMutex) Unlock() error {
	return m.flk.Unlock()
}

type mutexError string

func (e mutexError) Error() string { return string(e) }

const errAlreadyLocked = mutexError("mutex already held")
