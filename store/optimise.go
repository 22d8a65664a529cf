package store

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zero-install/zeroinstall/internal/zlog"
	"github.com/zero-install/zeroinstall/manifest"
	"github.com/zero-install/zeroinstall/zerr"
)

// optimiseScanConcurrency bounds how many implementation manifests are
// read and parsed at once, the way garbagecollect's repository walk
// bounds its own fan-out.
const optimiseScanConcurrency = 8

type dedupKey struct {
	hash       string
	size       int64
	executable bool
}

type candidate struct {
	implDigest string
	path       string
}

// Optimise finds files across every implementation in the store whose
// (hash, size, executable) match, and hardlinks them together, saving
// disk space without touching file content (spec.md §4.D optimise).
// It never crosses filesystem boundaries: a failed link (EXDEV or
// otherwise) is logged and that pair is skipped rather than aborting
// the whole pass.
func (s *Store) Optimise(ctx context.Context, handler Handler) (int64, error) {
	names, err := s.ListAll()
	if err != nil {
		return 0, &zerr.IO{Op: "readdir", Path: s.Root, Cause: err}
	}

	groups := map[dedupKey][]candidate{}
	var mu sync.Mutex

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(optimiseScanConcurrency)
	for _, name := range names {
		g.Go(func() error {
			if err := checkCancel(groupCtx); err != nil {
				return err
			}
			implPath := filepath.Join(s.Root, name)
			algo, _, err := manifest.SplitDigestString(name)
			if err != nil {
				return nil
			}
			data, err := os.ReadFile(filepath.Join(implPath, manifestFileName))
			if err != nil {
				zlog.Get(ctx).WithError(err).Warnf("optimise: skipping %s, no manifest", name)
				return nil
			}
			m, err := manifest.Parse(data, algo)
			if err != nil {
				zlog.Get(ctx).WithError(err).Warnf("optimise: skipping %s, unreadable manifest", name)
				return nil
			}
			local := map[dedupKey][]candidate{}
			collectCandidates(m, implPath, name, local)

			mu.Lock()
			for k, v := range local {
				groups[k] = append(groups[k], v...)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	keys := make([]dedupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].hash < keys[j].hash })

	var saved int64
	for _, key := range keys {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		canonical := members[0].path
		for _, m := range members[1:] {
			if err := checkCancel(ctx); err != nil {
				return saved, err
			}
			if sameInode(canonical, m.path) {
				continue
			}
			linked, err := hardlinkOver(canonical, m.path)
			if err != nil {
				zlog.Get(ctx).WithError(err).Warnf("optimise: could not link %s to %s, skipping", m.path, canonical)
				continue
			}
			if linked {
				saved += key.size
			}
		}
	}
	return saved, nil
}

func collectCandidates(m manifest.Manifest, implPath, implDigest string, groups map[dedupKey][]candidate) {
	currentDir := ""
	for _, e := range m.Entries {
		switch e.Kind {
		case manifest.KindDir:
			currentDir = e.Path[1:] // strip leading "/"
		case manifest.KindFile, manifest.KindExecutable:
			rel := path.Join(currentDir, e.Name)
			key := dedupKey{hash: e.Hash, size: e.Size, executable: e.Kind == manifest.KindExecutable}
			groups[key] = append(groups[key], candidate{implDigest: implDigest, path: filepath.Join(implPath, filepath.FromSlash(rel))})
		}
	}
}

func sameInode(a, b string) bool {
	fa, err := os.Stat(a)
	if err != nil {
		return false
	}
	fb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(fa, fb)
}

// hardlinkOver replaces dst's content with a hardlink to src, atomic
// per spec.md §4.D.6 via temp-name-then-rename.
func hardlinkOver(src, dst string) (bool, error) {
	tmp := dst + ".optimise-" + uuid.NewString()
	if err := os.Link(src, tmp); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return false, err
	}
	return true, nil
}
