package archive

import (
	"context"
	"io"

	"github.com/nwaples/rardecode/v2"
	"github.com/zero-install/zeroinstall/builder"
	"github.com/zero-install/zeroinstall/zerr"
)

func extractRar(ctx context.Context, r io.Reader, b builder.Builder, subdir string) error {
	rr, err := rardecode.NewReader(r)
	if err != nil {
		return &zerr.ArchiveDamaged{MIMEType: MimeRar, Cause: err}
	}

	for {
		if err := checkCancel(ctx); err != nil {
			return err
		}

		hdr, err := rr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &zerr.ArchiveDamaged{MIMEType: MimeRar, Cause: err}
		}

		rel, ok, err := normalizeEntryName(hdr.Name, subdir)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		mtime := hdr.ModificationTime.Unix()
		switch {
		case hdr.IsDir:
			if err := b.AddDirectory(rel, &mtime); err != nil {
				return err
			}
		case hdr.IsSymlink:
			target, err := io.ReadAll(rr)
			if err != nil {
				return &zerr.ArchiveDamaged{MIMEType: MimeRar, Cause: err}
			}
			if err := b.AddSymlink(rel, string(target), &mtime); err != nil {
				return err
			}
		default:
			executable := hdr.Mode&0111 != 0
			if err := b.AddFile(rel, rr, mtime, executable); err != nil {
				return err
			}
		}
	}
}
