package store

import (
	"os"
	"path/filepath"

	"github.com/zero-install/zeroinstall/manifest"
)

// Contains reports whether any algorithm value in digest matches an
// existing implementation subdirectory.
func (s *Store) Contains(digest manifest.Digest) bool {
	_, ok := s.path(digest)
	return ok
}

// Path returns the on-disk path for digest, preferring the strongest
// algorithm present per manifest.Digest.Best ordering.
func (s *Store) Path(digest manifest.Digest) (string, bool) {
	return s.path(digest)
}

func (s *Store) path(digest manifest.Digest) (string, bool) {
	for _, algo := range reversePreference(digest.Algorithms()) {
		hex, ok := digest.Get(algo)
		if !ok {
			continue
		}
		name := string(algo) + "_" + hex
		full := filepath.Join(s.Root, name)
		if fi, err := os.Stat(full); err == nil && fi.IsDir() {
			return full, true
		}
	}
	return "", false
}

// reversePreference orders algos strongest-first without depending on
// manifest's unexported preference slice, mirroring Digest.Best.
func reversePreference(algos []manifest.Algorithm) []manifest.Algorithm {
	order := map[manifest.Algorithm]int{manifest.SHA1New: 0, manifest.SHA256: 1, manifest.SHA256New: 2}
	out := make([]manifest.Algorithm, len(algos))
	copy(out, algos)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if order[out[j]] > order[out[i]] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// ListAll returns the "algo_hex" names of every subdirectory whose
// name parses as a digest.
func (s *Store) ListAll() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, _, err := manifest.SplitDigestString(e.Name()); err == nil {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// ListAllTemp returns the paths of subdirectories whose name does not
// parse as a digest: stale staging directories left by an interrupted
// add.
func (s *Store) ListAllTemp() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, _, err := manifest.SplitDigestString(e.Name()); err != nil {
			out = append(out, filepath.Join(s.Root, e.Name()))
		}
	}
	return out, nil
}
