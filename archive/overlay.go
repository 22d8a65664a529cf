package archive

import (
	"context"
	"io"

	"github.com/zero-install/zeroinstall/builder"
)

// Source is one archive to overlay onto a target implementation.
type Source struct {
	MIMEType string
	Body     io.ReaderAt
	Size     int64
	Options  Options
}

// ExtractAll drives b with each source's archive in order, per
// spec.md §4.C overlay semantics: later entries for the same path
// overwrite earlier ones because each Extract call simply re-invokes
// the same Builder methods on it.
func ExtractAll(ctx context.Context, sources []Source, b builder.Builder) error {
	for _, src := range sources {
		if err := Extract(ctx, src.MIMEType, src.Body, src.Size, b, src.Options); err != nil {
			return err
		}
	}
	return nil
}
