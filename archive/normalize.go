package archive

import (
	"path"
	"strings"

	"github.com/zero-install/zeroinstall/zerr"
)

// normalizeEntryName applies spec.md §4.C's per-entry normalisation:
//  1. "\" becomes "/".
//  2. Leading "./" and "/" are stripped.
//  3. If extractSubdir is set, the entry must start with it (otherwise
//     it is dropped, reported via the ok=false return).
//  4. The result must not escape the extraction root.
func normalizeEntryName(name, extractSubdir string) (rel string, ok bool, err error) {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "", false, nil
	}

	if extractSubdir != "" {
		prefix := strings.TrimSuffix(extractSubdir, "/") + "/"
		if name == strings.TrimSuffix(extractSubdir, "/") {
			// The subdir entry itself (e.g. the directory marker) has
			// nothing left to extract under it.
			return "", false, nil
		}
		if !strings.HasPrefix(name, prefix) {
			return "", false, nil
		}
		name = strings.TrimPrefix(name, prefix)
		if name == "" {
			return "", false, nil
		}
	}

	cleaned := path.Clean(name)
	if cleaned == "." {
		return "", false, nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", false, &zerr.InvalidData{Context: "archive entry " + name, Cause: errEntryEscapesRoot}
	}
	return cleaned, true, nil
}

type archiveError string

func (e archiveError) Error() string { return string(e) }

const errEntryEscapesRoot = archiveError("entry path escapes extraction root")
