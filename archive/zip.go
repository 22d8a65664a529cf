package archive

import (
	"archive/zip"
	"context"
	"io"

	"github.com/zero-install/zeroinstall/builder"
	"github.com/zero-install/zeroinstall/zerr"
)

// unixModeSymlink / unixModeExecAny are the relevant bits of the st_mode
// value zip stores in the upper 16 bits of ExternalAttrs when the
// entry was written on a Unix host (external attrs format 3).
const (
	unixModeSymlink = 0120000
	unixModeTypeDir = 0040000
	unixModeExecAny = 0111
)

func extractZip(ctx context.Context, body io.ReaderAt, size int64, b builder.Builder, subdir string) error {
	r, err := zip.NewReader(body, size)
	if err != nil {
		return &zerr.ArchiveDamaged{MIMEType: MimeZip, Cause: err}
	}

	for _, f := range r.File {
		if err := checkCancel(ctx); err != nil {
			return err
		}

		rel, ok, err := normalizeEntryName(f.Name, subdir)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		mode := unixFileMode(f)
		switch {
		case f.FileInfo().IsDir():
			if err := b.AddDirectory(rel, zipMTime(f)); err != nil {
				return err
			}
		case mode&unixModeSymlink == unixModeSymlink:
			target, err := readZipEntry(f)
			if err != nil {
				return &zerr.ArchiveDamaged{MIMEType: MimeZip, Cause: err}
			}
			mt := zipMTime(f)
			if err := b.AddSymlink(rel, string(target), mt); err != nil {
				return err
			}
		default:
			rc, err := f.Open()
			if err != nil {
				return &zerr.ArchiveDamaged{MIMEType: MimeZip, Cause: err}
			}
			mt := zipMTime(f)
			err = b.AddFile(rel, rc, *mt, mode&unixModeExecAny != 0)
			rc.Close()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// unixFileMode extracts the POSIX permission/type bits from a zip
// entry's external attributes, returning 0 when the archive was not
// written with Unix attributes (version made by high byte == 3).
func unixFileMode(f *zip.File) uint32 {
	if f.CreatorVersion>>8 != 3 {
		return 0
	}
	return f.ExternalAttrs >> 16
}

func zipMTime(f *zip.File) *int64 {
	t := f.Modified.Unix()
	return &t
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
