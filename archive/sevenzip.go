package archive

import (
	"context"
	"io"

	"github.com/bodgit/sevenzip"
	"github.com/zero-install/zeroinstall/builder"
	"github.com/zero-install/zeroinstall/zerr"
)

func extract7z(ctx context.Context, body io.ReaderAt, size int64, b builder.Builder, subdir string) error {
	r, err := sevenzip.NewReader(body, size)
	if err != nil {
		return &zerr.ArchiveDamaged{MIMEType: Mime7z, Cause: err}
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

		mtime := f.Modified.Unix()
		if f.FileInfo().IsDir() {
			if err := b.AddDirectory(rel, &mtime); err != nil {
				return err
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return &zerr.ArchiveDamaged{MIMEType: Mime7z, Cause: err}
		}
		executable := f.Mode()&0111 != 0
		err = b.AddFile(rel, rc, mtime, executable)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
