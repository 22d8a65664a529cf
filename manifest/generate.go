package manifest

import (
	"bufio"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zero-install/zeroinstall/zerr"
)

// xbitFileName and symlinkFlagFileName carry the executable bit and
// symlink-ness on filesystems that lack native support for them (see
// spec.md §4.A "Executable bit"/"Symlinks").
const (
	xbitFileName        = ".xbit"
	symlinkFlagFileName = ".symlink"
)

// Generate walks root and emits a canonical Manifest for algo. It
// returns zerr.UnsupportedFormat for an unknown algo, zerr.InvalidData
// for an mtime beyond the 32-bit unsigned range, and zerr.IO for
// filesystem failures.
func Generate(root string, algo Algorithm) (Manifest, error) {
	f, ok := lookupFormat(algo)
	if !ok {
		return Manifest{}, &zerr.UnsupportedFormat{MIMEType: string(algo)}
	}

	xbits, err := readFlagFile(filepath.Join(root, xbitFileName))
	if err != nil {
		return Manifest{}, err
	}
	symlinkFlags, err := readFlagFile(filepath.Join(root, symlinkFlagFileName))
	if err != nil {
		return Manifest{}, err
	}

	g := &generator{root: root, format: f, xbits: xbits, symlinkFlags: symlinkFlags}

	if f.includeDirLines {
		if err := g.walkHierarchical("", &g.entries); err != nil {
			return Manifest{}, err
		}
	} else {
		if err := g.walkFlat(""); err != nil {
			return Manifest{}, err
		}
		sort.Slice(g.entries, func(i, j int) bool { return g.entries[i].Name < g.entries[j].Name })
	}

	return Manifest{Algorithm: algo, Entries: g.entries}, nil
}

type generator struct {
	root         string
	format       format
	xbits        map[string]bool
	symlinkFlags map[string]bool
	entries      []Entry
}

func readFlagFile(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &zerr.IO{Op: "open", Path: path, Cause: err}
	}
	defer f.Close()

	out := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			out[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &zerr.IO{Op: "scan", Path: path, Cause: err}
	}
	return out, nil
}

// walkFlat accumulates File/Symlink entries with full relative path
// names (no directory separators emitted) for the sha1new/sha256
// formats.
func (g *generator) walkFlat(relDir string) error {
	absDir := filepath.Join(g.root, relDir)
	infos, err := readDirSorted(absDir)
	if err != nil {
		return err
	}
	for _, name := range infos {
		relPath := path.Join(relDir, name)
		absPath := filepath.Join(absDir, name)
		if isFlagFile(name) {
			continue
		}
		fi, err := os.Lstat(absPath)
		if err != nil {
			return &zerr.IO{Op: "lstat", Path: absPath, Cause: err}
		}
		switch {
		case fi.Mode()&os.ModeSymlink != 0 || g.symlinkFlags["/"+relPath]:
			entry, err := g.symlinkEntry(absPath, relPath, fi)
			if err != nil {
				return err
			}
			g.entries = append(g.entries, entry)
		case fi.IsDir():
			if err := g.walkFlat(relPath); err != nil {
				return err
			}
		default:
			entry, err := g.fileEntry(absPath, relPath, relPath, fi)
			if err != nil {
				return err
			}
			g.entries = append(g.entries, entry)
		}
	}
	return nil
}

// walkHierarchical implements the sha256new layout: files/symlinks of
// the current directory first (sorted by basename), then for each
// subdirectory (sorted by basename) a "dir" separator followed by that
// subdirectory's own entries.
func (g *generator) walkHierarchical(relDir string, out *[]Entry) error {
	absDir := filepath.Join(g.root, relDir)
	names, err := readDirSorted(absDir)
	if err != nil {
		return err
	}

	var dirs []string
	for _, name := range names {
		if isFlagFile(name) {
			continue
		}
		relPath := path.Join(relDir, name)
		absPath := filepath.Join(absDir, name)
		fi, err := os.Lstat(absPath)
		if err != nil {
			return &zerr.IO{Op: "lstat", Path: absPath, Cause: err}
		}
		switch {
		case fi.Mode()&os.ModeSymlink != 0 || g.symlinkFlags["/"+relPath]:
			entry, err := g.symlinkEntry(absPath, relPath, fi)
			if err != nil {
				return err
			}
			*out = append(*out, entry)
		case fi.IsDir():
			dirs = append(dirs, name)
		default:
			entry, err := g.fileEntry(absPath, relPath, name, fi)
			if err != nil {
				return err
			}
			*out = append(*out, entry)
		}
	}

	for _, name := range dirs {
		relPath := path.Join(relDir, name)
		*out = append(*out, Entry{Kind: KindDir, Path: "/" + relPath})
		if err := g.walkHierarchical(relPath, out); err != nil {
			return err
		}
	}
	return nil
}

func readDirSorted(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &zerr.IO{Op: "readdir", Path: dir, Cause: err}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sortNames(names)
	return names, nil
}

func isFlagFile(name string) bool {
	return name == xbitFileName || name == symlinkFlagFileName || name == ".manifest"
}

func (g *generator) fileEntry(absPath, relPath, name string, fi fs.FileInfo) (Entry, error) {
	h, size, err := hashFile(absPath, g.format.newHash)
	if err != nil {
		return Entry{}, err
	}
	mtime := fi.ModTime().Unix()
	if mtime > math.MaxUint32 {
		return Entry{}, &zerr.InvalidData{Context: absPath, Cause: fmt.Errorf("mtime %d exceeds 32-bit unsigned range", mtime)}
	}
	kind := KindFile
	if isExecutable(fi, g.xbits["/"+relPath]) {
		kind = KindExecutable
	}
	return Entry{Kind: kind, Hash: h, MTime: mtime, Size: size, Name: name}, nil
}

func (g *generator) symlinkEntry(absPath, relPath string, fi fs.FileInfo) (Entry, error) {
	var target []byte
	var err error
	if fi.Mode()&os.ModeSymlink != 0 {
		t, lerr := os.Readlink(absPath)
		if lerr != nil {
			return Entry{}, &zerr.IO{Op: "readlink", Path: absPath, Cause: lerr}
		}
		target = []byte(t)
	} else {
		// Non-symlink filesystem: the flag-file-marked entry's content
		// bytes ARE the link target.
		target, err = os.ReadFile(absPath)
		if err != nil {
			return Entry{}, &zerr.IO{Op: "read", Path: absPath, Cause: err}
		}
	}

	h := g.format.newHash()
	h.Write(target)
	name := relPath
	if g.format.includeDirLines {
		name = path.Base(relPath)
	}
	return Entry{Kind: KindSymlink, Hash: encodeHash(h), Size: int64(len(target)), Name: name}, nil
}

func isExecutable(fi fs.FileInfo, flagged bool) bool {
	if flagged {
		return true
	}
	return fi.Mode()&0o100 != 0
}

func hashFile(path string, newHash func() hash.Hash) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, &zerr.IO{Op: "open", Path: path, Cause: err}
	}
	defer f.Close()

	h := newHash()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, &zerr.IO{Op: "read", Path: path, Cause: err}
	}
	return encodeHash(h), n, nil
}
