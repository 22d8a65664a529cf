package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"io"

	"github.com/zero-install/zeroinstall/builder"
	"github.com/zero-install/zeroinstall/zerr"
)

// extractRubyGem unwraps the outer, uncompressed tar a .gem file is
// (metadata.gz, data.tar.gz, checksums.yaml.gz) and extracts the
// contents of data.tar.gz, the member holding the installed payload.
func extractRubyGem(ctx context.Context, r io.Reader, b builder.Builder, subdir string) error {
	tr := tar.NewReader(r)
	for {
		if err := checkCancel(ctx); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return &zerr.ArchiveDamaged{MIMEType: MimeRubyGem, Cause: errNoGemData}
		}
		if err != nil {
			return &zerr.ArchiveDamaged{MIMEType: MimeRubyGem, Cause: err}
		}
		if hdr.Name != "data.tar.gz" {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return &zerr.ArchiveDamaged{MIMEType: MimeRubyGem, Cause: err}
		}
		return Extract(ctx, MimeTarGzip, bytes.NewReader(data), int64(len(data)), b, Options{ExtractSubdir: subdir})
	}
}

type rubyGemError string

func (e rubyGemError) Error() string { return string(e) }

const errNoGemData = rubyGemError("gem archive has no data.tar.gz member")
