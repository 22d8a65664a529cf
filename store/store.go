// Package store implements the Content-Addressed Implementation Store
// (spec.md §4.D): a directory of extracted implementations keyed by
// manifest digest, with atomic add, verify, optimise and safe
// concurrent access.
package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/zero-install/zeroinstall/internal/zlog"
	"github.com/zero-install/zeroinstall/zerr"
)

// Kind distinguishes a writable store from one that is read-only for
// this process (e.g. a shared, machine-wide store the user lacks
// write access to).
type Kind int

const (
	ReadWrite Kind = iota
	ReadOnly
)

// Handler is the narrow slice of ITaskHandler (spec.md §6) the store
// needs: user prompts for destructive operations. Cancellation comes
// from the ctx argument, not the Handler. Nil is a valid Handler
// (treated as non-interactive).
type Handler interface {
	// Ask presents a yes/no question and returns the user's answer,
	// falling back to def when running non-interactively.
	Ask(question string, def bool) bool
}

// Store is one content-addressed root directory.
type Store struct {
	Root         string
	Kind         Kind
	WriteProtect bool
	isUnixFS     bool
	lock         *renameLock
}

const (
	noUnixFSFlag    = ".no-unix-fs"
	deletionInfoTxt = "..you-can-delete-this-directory-manually.txt"
)

const deletionInfoBody = `This directory contains Zero Install implementations extracted from
downloaded archives. It is safe to delete; anything still needed will
be re-downloaded and re-extracted automatically.
`

// New opens (creating if absent) a store rooted at root, probing
// filesystem timestamp resolution and write access per spec.md §4.D.
func New(root string, writeProtect bool) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &zerr.IO{Op: "mkdir", Path: root, Cause: err}
	}

	if err := probeTimeAccuracy(root); err != nil {
		return nil, err
	}

	s := &Store{Root: root, WriteProtect: writeProtect, isUnixFS: probeUnixFS(root), lock: newRenameLock(root)}
	s.Kind = ReadWrite
	if !probeWritable(root) {
		s.Kind = ReadOnly
		return s, nil
	}

	if !s.isUnixFS {
		flagPath := filepath.Join(root, noUnixFSFlag)
		if _, err := os.Stat(flagPath); os.IsNotExist(err) {
			_ = os.WriteFile(flagPath, nil, 0o644)
		}
	}
	infoPath := filepath.Join(root, deletionInfoTxt)
	if _, err := os.Stat(infoPath); os.IsNotExist(err) {
		_ = os.WriteFile(infoPath, []byte(deletionInfoBody), 0o644)
	}

	return s, nil
}

// probeTimeAccuracy writes a throwaway file, sets an odd-second mtime
// and rereads it, rejecting filesystems (notably FAT) that only
// support coarser-than-one-second resolution.
func probeTimeAccuracy(root string) error {
	f, err := os.CreateTemp(root, ".time-probe-*")
	if err != nil {
		return &zerr.IO{Op: "create", Path: root, Cause: err}
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	want := time.Unix(1000000001, 0)
	if err := os.Chtimes(path, want, want); err != nil {
		return &zerr.IO{Op: "chtimes", Path: path, Cause: err}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return &zerr.IO{Op: "stat", Path: path, Cause: err}
	}
	if fi.ModTime().Unix()%2 != 1 {
		return &zerr.InsufficientTimeAccuracy{Path: root}
	}
	return nil
}

func probeWritable(root string) bool {
	f, err := os.CreateTemp(root, ".write-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		zlog.Get(ctx).Debug("store operation cancelled")
		return &zerr.Cancelled{}
	default:
		return nil
	}
}
