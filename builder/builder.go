// Package builder defines the forward-only directory-sink abstraction
// (IBuilder in spec.md §4.B / §6) that archive extractors and the
// manifest engine's own hashing path drive. Calls must be issued in
// traversal order; QueueHardlink is resolved only at Commit.
package builder

import (
	"io"
	"path"
	"strings"

	"github.com/zero-install/zeroinstall/zerr"
)

// Builder is the sink archive extractors and directory cloners drive.
type Builder interface {
	AddDirectory(relativePath string, mtime *int64) error
	AddFile(relativePath string, content io.Reader, mtime int64, executable bool) error
	AddSymlink(relativePath string, target string, mtime *int64) error
	QueueHardlink(relativePath string, targetRelativePath string, executable bool) error
	Commit() error
	Abort() error
}

// NormalizePath validates and normalizes relativePath per spec.md §4.B:
// Unix-style "/" is accepted, "\" is not special here (callers coming
// from archive entries convert "\" to "/" before calling), and the
// result never escapes the builder's root.
func NormalizePath(relativePath string) (string, error) {
	p := strings.TrimPrefix(relativePath, "./")
	p = strings.TrimPrefix(p, "/")
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == "" {
		return "", &zerr.InvalidData{Context: "builder path", Cause: errEmptyPath}
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", &zerr.InvalidData{Context: "builder path " + relativePath, Cause: errPathEscape}
	}
	if len(cleaned) >= 2 && cleaned[1] == ':' {
		// drive-letter path such as "C:/..."
		return "", &zerr.InvalidData{Context: "builder path " + relativePath, Cause: errPathEscape}
	}
	return cleaned, nil
}

type pathError string

func (e pathError) Error() string { return string(e) }

const (
	errEmptyPath  = pathError("empty relative path")
	errPathEscape = pathError("path escapes builder root")
)
