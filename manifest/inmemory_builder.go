package manifest

import (
	"io"
	"path"
	"sort"

	"github.com/zero-install/zeroinstall/builder"
	"github.com/zero-install/zeroinstall/zerr"
)

// InMemoryBuilder is the builder.Builder implementation that never
// touches disk: it accumulates a directory tree in memory so Digest can
// be computed straight from an archive stream, and so tests can drive a
// Builder without a filesystem. See spec.md §4.B.
type InMemoryBuilder struct {
	root      *node
	hardlinks []queuedHardlink
}

type queuedHardlink struct {
	relativePath       string
	targetRelativePath string
	executable         bool
}

type node struct {
	isDir    bool
	children map[string]*node
	kind     EntryKind // valid when !isDir
	content  []byte
	mtime    int64
}

// NewInMemoryBuilder returns an empty builder.
func NewInMemoryBuilder() *InMemoryBuilder {
	return &InMemoryBuilder{root: &node{isDir: true, children: map[string]*node{}}}
}

func (b *InMemoryBuilder) walkTo(relativePath string, createDirs bool) (*node, string, error) {
	clean, err := builder.NormalizePath(relativePath)
	if err != nil {
		return nil, "", err
	}
	parts := splitPath(clean)
	cur := b.root
	for _, part := range parts[:len(parts)-1] {
		child, ok := cur.children[part]
		if !ok {
			if !createDirs {
				return nil, "", &zerr.InvalidData{Context: "path", Cause: errNoSuchDir(relativePath)}
			}
			child = &node{isDir: true, children: map[string]*node{}}
			cur.children[part] = child
		}
		if !child.isDir {
			return nil, "", &zerr.InvalidData{Context: "path", Cause: errNotADir(part)}
		}
		cur = child
	}
	return cur, parts[len(parts)-1], nil
}

func splitPath(clean string) []string {
	var parts []string
	for _, p := range splitSlash(clean) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func splitSlash(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

type errNoSuchDir string

func (e errNoSuchDir) Error() string { return "parent directory not created: " + string(e) }

type errNotADir string

func (e errNotADir) Error() string { return "not a directory: " + string(e) }

func (b *InMemoryBuilder) AddDirectory(relativePath string, _ *int64) error {
	parent, name, err := b.walkTo(relativePath, true)
	if err != nil {
		return err
	}
	if _, ok := parent.children[name]; !ok {
		parent.children[name] = &node{isDir: true, children: map[string]*node{}}
	}
	return nil
}

func (b *InMemoryBuilder) AddFile(relativePath string, content io.Reader, mtime int64, executable bool) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return &zerr.IO{Op: "read", Path: relativePath, Cause: err}
	}
	parent, name, err := b.walkTo(relativePath, true)
	if err != nil {
		return err
	}
	kind := KindFile
	if executable {
		kind = KindExecutable
	}
	parent.children[name] = &node{kind: kind, content: data, mtime: mtime}
	return nil
}

func (b *InMemoryBuilder) AddSymlink(relativePath string, target string, _ *int64) error {
	parent, name, err := b.walkTo(relativePath, true)
	if err != nil {
		return err
	}
	parent.children[name] = &node{kind: KindSymlink, content: []byte(target)}
	return nil
}

func (b *InMemoryBuilder) QueueHardlink(relativePath, targetRelativePath string, executable bool) error {
	b.hardlinks = append(b.hardlinks, queuedHardlink{relativePath, targetRelativePath, executable})
	return nil
}

func (b *InMemoryBuilder) Commit() error {
	for _, hl := range b.hardlinks {
		parent, name, err := b.walkTo(hl.targetRelativePath, false)
		if err != nil {
			return err
		}
		src, ok := parent.children[name]
		if !ok || src.isDir {
			return &zerr.InvalidData{Context: "hardlink", Cause: errNoSuchDir(hl.targetRelativePath)}
		}
		dstParent, dstName, err := b.walkTo(hl.relativePath, true)
		if err != nil {
			return err
		}
		kind := src.kind
		if hl.executable {
			kind = KindExecutable
		}
		dstParent.children[dstName] = &node{kind: kind, content: src.content, mtime: src.mtime}
	}
	return nil
}

func (b *InMemoryBuilder) Abort() error {
	b.root = &node{isDir: true, children: map[string]*node{}}
	b.hardlinks = nil
	return nil
}

// Digest computes the manifest digest of the tree accumulated so far,
// without ever touching disk.
func (b *InMemoryBuilder) Digest(algo Algorithm) (string, error) {
	m, err := b.Manifest(algo)
	if err != nil {
		return "", err
	}
	return m.Digest()
}

// Manifest renders the accumulated tree into a canonical Manifest, the
// in-memory equivalent of Generate.
func (b *InMemoryBuilder) Manifest(algo Algorithm) (Manifest, error) {
	f, ok := lookupFormat(algo)
	if !ok {
		return Manifest{}, &zerr.UnsupportedFormat{MIMEType: string(algo)}
	}
	var entries []Entry
	if f.includeDirLines {
		walkNodeHierarchical(b.root, "", f, &entries)
	} else {
		walkNodeFlat(b.root, "", f, &entries)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	}
	return Manifest{Algorithm: algo, Entries: entries}, nil
}

func walkNodeFlat(n *node, prefix string, f format, out *[]Entry) {
	names := sortedKeys(n.children)
	for _, name := range names {
		child := n.children[name]
		rel := path.Join(prefix, name)
		if child.isDir {
			walkNodeFlat(child, rel, f, out)
			continue
		}
		*out = append(*out, entryFromNode(child, rel, f))
	}
}

// walkNodeHierarchical emits the children of n (files/symlinks sorted
// by basename, then each subdirectory's "dir" line followed by its own
// entries), with dir paths rendered relative to the tree root.
func walkNodeHierarchical(n *node, prefix string, f format, out *[]Entry) {
	names := sortedKeys(n.children)
	var dirs []string
	for _, name := range names {
		child := n.children[name]
		if child.isDir {
			dirs = append(dirs, name)
			continue
		}
		*out = append(*out, entryFromNode(child, name, f))
	}
	for _, name := range dirs {
		rel := path.Join(prefix, name)
		*out = append(*out, Entry{Kind: KindDir, Path: "/" + rel})
		walkNodeHierarchical(n.children[name], rel, f, out)
	}
}

func entryFromNode(n *node, name string, f format) Entry {
	h := f.newHash()
	h.Write(n.content)
	kind := n.kind
	switch kind {
	case KindSymlink:
		return Entry{Kind: KindSymlink, Hash: encodeHash(h), Size: int64(len(n.content)), Name: name}
	default:
		return Entry{Kind: kind, Hash: encodeHash(h), MTime: n.mtime, Size: int64(len(n.content)), Name: name}
	}
}

func sortedKeys(m map[string]*node) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sortNames(out)
	return out
}

var _ builder.Builder = (*InMemoryBuilder)(nil)
