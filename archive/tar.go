package archive

import (
	"archive/tar"
	"context"
	"io"

	"github.com/zero-install/zeroinstall/builder"
	"github.com/zero-install/zeroinstall/zerr"
)

func extractTar(ctx context.Context, r io.Reader, b builder.Builder, subdir string) error {
	tr := tar.NewReader(r)
	for {
		if err := checkCancel(ctx); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &zerr.ArchiveDamaged{MIMEType: MimeTar, Cause: err}
		}

		rel, ok, err := normalizeEntryName(hdr.Name, subdir)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		mtime := hdr.ModTime.Unix()
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := b.AddDirectory(rel, &mtime); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := b.AddSymlink(rel, hdr.Linkname, &mtime); err != nil {
				return err
			}
		case tar.TypeLink:
			targetRel, ok, err := normalizeEntryName(hdr.Linkname, subdir)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := b.QueueHardlink(rel, targetRel, hdr.Mode&0111 != 0); err != nil {
				return err
			}
		case tar.TypeReg, tar.TypeRegA:
			executable := hdr.Mode&0111 != 0
			if err := b.AddFile(rel, tr, mtime, executable); err != nil {
				return err
			}
		default:
			// Device nodes, FIFOs and similar are outside the
			// implementation model and are silently skipped.
		}
	}
}
