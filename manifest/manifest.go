// Package manifest implements the Manifest Engine: canonical,
// hash-stable serialization of a directory tree, and the digest
// algorithms ("sha1new", "sha256", "sha256new") preserved bit-exact
// from the original Zero Install implementation.
package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zero-install/zeroinstall/zerr"
)

// EntryKind discriminates the four line types a Manifest is made of.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindExecutable
	KindSymlink
	KindDir
)

// Entry is one line of a Manifest. Name is populated for File,
// Executable and Symlink entries (a full relative path for "flat"
// formats, a bare basename for the hierarchical sha256new format).
// Path is populated only for Dir entries.
type Entry struct {
	Kind  EntryKind
	Hash  string
	MTime int64
	Size  int64
	Name  string
	Path  string // "/<relative-path>", Dir entries only
}

// Manifest is an ordered sequence of Entry produced by a depth-first,
// name-sorted traversal of a directory tree. Two directories with
// identical canonical trees produce byte-identical manifests.
type Manifest struct {
	Algorithm Algorithm
	Entries   []Entry
}

// Digest hashes the manifest's canonical byte form with the same
// algorithm used for its per-entry hashes — this value is the store's
// primary key.
func (m Manifest) Digest() (string, error) {
	data, err := m.Serialize()
	if err != nil {
		return "", err
	}
	f, ok := lookupFormat(m.Algorithm)
	if !ok {
		return "", &zerr.UnsupportedFormat{MIMEType: string(m.Algorithm)}
	}
	h := f.newHash()
	h.Write(data)
	return encodeHash(h), nil
}

// Serialize renders the manifest to its canonical, newline-terminated
// byte form.
func (m Manifest) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range m.Entries {
		line, err := serializeEntry(e)
		if err != nil {
			return nil, err
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func serializeEntry(e Entry) (string, error) {
	switch e.Kind {
	case KindFile:
		return fmt.Sprintf("file %s %d %d %s", e.Hash, e.MTime, e.Size, e.Name), nil
	case KindExecutable:
		return fmt.Sprintf("executable %s %d %d %s", e.Hash, e.MTime, e.Size, e.Name), nil
	case KindSymlink:
		return fmt.Sprintf("symlink %s %d %s", e.Hash, e.Size, e.Name), nil
	case KindDir:
		return fmt.Sprintf("dir %s", e.Path), nil
	default:
		return "", &zerr.InvalidData{Context: "manifest entry", Cause: fmt.Errorf("unknown entry kind %d", e.Kind)}
	}
}

// Parse is the inverse of Serialize: it rejects malformed lines with a
// zerr.InvalidData naming the offending line number.
func Parse(data []byte, algo Algorithm) (Manifest, error) {
	if _, ok := lookupFormat(algo); !ok {
		return Manifest{}, &zerr.UnsupportedFormat{MIMEType: string(algo)}
	}

	m := Manifest{Algorithm: algo}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		entry, err := parseLine(line)
		if err != nil {
			return Manifest{}, &zerr.InvalidData{
				Context: fmt.Sprintf("manifest line %d", lineNo),
				Cause:   err,
			}
		}
		m.Entries = append(m.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return Manifest{}, &zerr.IO{Op: "scan", Path: "<manifest>", Cause: err}
	}
	return m, nil
}

func parseLine(line string) (Entry, error) {
	tag, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Entry{}, fmt.Errorf("malformed manifest line: %q", line)
	}
	switch tag {
	case "file", "executable":
		// hash, mtime, size, name — name is the remainder of the line
		// and may itself contain spaces.
		fields := strings.SplitN(rest, " ", 4)
		if len(fields) != 4 {
			return Entry{}, fmt.Errorf("malformed %s line: %q", tag, line)
		}
		mtime, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("bad mtime in line %q: %w", line, err)
		}
		size, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("bad size in line %q: %w", line, err)
		}
		kind := KindFile
		if tag == "executable" {
			kind = KindExecutable
		}
		return Entry{Kind: kind, Hash: fields[0], MTime: mtime, Size: size, Name: fields[3]}, nil
	case "symlink":
		// hash, size, name — name may itself contain spaces.
		fields := strings.SplitN(rest, " ", 3)
		if len(fields) != 3 {
			return Entry{}, fmt.Errorf("malformed symlink line: %q", line)
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("bad size in line %q: %w", line, err)
		}
		return Entry{Kind: KindSymlink, Hash: fields[0], Size: size, Name: fields[2]}, nil
	case "dir":
		return Entry{Kind: KindDir, Path: rest}, nil
	default:
		return Entry{}, fmt.Errorf("unknown entry tag %q in line %q", tag, line)
	}
}

// WithRoundedTimestamps returns a copy of m in which every odd-second
// mtime is rounded down to the preceding even second, a compatibility
// fallback for filesystems/tools that only ever produce even
// timestamps. The store's verifyAndAdd does not call it: it applies the
// same rounding to the files on disk and generates the manifest again.
func (m Manifest) WithRoundedTimestamps() Manifest {
	out := Manifest{Algorithm: m.Algorithm, Entries: make([]Entry, len(m.Entries))}
	for i, e := range m.Entries {
		if (e.Kind == KindFile || e.Kind == KindExecutable) && e.MTime%2 != 0 {
			e.MTime--
		}
		out.Entries[i] = e
	}
	return out
}

// sortNames sorts a slice of names with ordinal byte comparison, as
// required for canonical traversal order.
func sortNames(names []string) {
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
}
