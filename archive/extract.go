package archive

import (
	"context"
	"io"

	"github.com/zero-install/zeroinstall/builder"
	"github.com/zero-install/zeroinstall/internal/zlog"
	"github.com/zero-install/zeroinstall/zerr"
)

// Options configures a single Extract call.
type Options struct {
	// ExtractSubdir, if non-empty, selects the archive sub-path whose
	// contents are extracted; entries outside it are dropped.
	ExtractSubdir string
	// StartOffset skips this many bytes of src before the archive
	// itself begins (spec.md §3 Archive metadata).
	StartOffset int64
}

// Extract decodes the archive in src (of the given size, at
// opts.StartOffset) according to mimeType, driving b in the archive's
// own entry order. Cancellation is checked between entries via ctx.
func Extract(ctx context.Context, mimeType string, src io.ReaderAt, size int64, b builder.Builder, opts Options) error {
	body := io.NewSectionReader(src, opts.StartOffset, size-opts.StartOffset)

	switch mimeType {
	case MimeZip:
		return extractZip(ctx, body, size-opts.StartOffset, b, opts.ExtractSubdir)
	case MimeTar:
		return extractTar(ctx, body, b, opts.ExtractSubdir)
	case MimeTarGzip:
		r, err := newGzipReader(body)
		if err != nil {
			return &zerr.ArchiveDamaged{MIMEType: mimeType, Cause: err}
		}
		defer r.Close()
		return extractTar(ctx, r, b, opts.ExtractSubdir)
	case MimeTarBzip2:
		return extractTar(ctx, newBzip2Reader(body), b, opts.ExtractSubdir)
	case MimeTarXz:
		r, err := newXzReader(body)
		if err != nil {
			return &zerr.ArchiveDamaged{MIMEType: mimeType, Cause: err}
		}
		return extractTar(ctx, r, b, opts.ExtractSubdir)
	case MimeTarLzma:
		r, err := newLzmaReader(body)
		if err != nil {
			return &zerr.ArchiveDamaged{MIMEType: mimeType, Cause: err}
		}
		return extractTar(ctx, r, b, opts.ExtractSubdir)
	case MimeTarLzip:
		r, err := newLzipReader(body)
		if err != nil {
			return &zerr.ArchiveDamaged{MIMEType: mimeType, Cause: err}
		}
		return extractTar(ctx, r, b, opts.ExtractSubdir)
	case MimeTarZstd:
		r, err := newZstdReader(body)
		if err != nil {
			return &zerr.ArchiveDamaged{MIMEType: mimeType, Cause: err}
		}
		defer r.Close()
		return extractTar(ctx, r, b, opts.ExtractSubdir)
	case Mime7z:
		return extract7z(ctx, body, size-opts.StartOffset, b, opts.ExtractSubdir)
	case MimeRar:
		return extractRar(ctx, body, b, opts.ExtractSubdir)
	case MimeRubyGem:
		return extractRubyGem(ctx, body, b, opts.ExtractSubdir)
	case MimeCab, MimeMsi:
		return extractWindowsOnly(ctx, body, size-opts.StartOffset, b, opts.ExtractSubdir, mimeType)
	default:
		return &zerr.UnsupportedFormat{MIMEType: mimeType}
	}
}

// checkCancel is invoked between archive entries per spec.md §5
// cancellation requirements.
func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		zlog.Get(ctx).Debug("archive extraction cancelled")
		return &zerr.Cancelled{}
	default:
		return nil
	}
}
