//go:build windows

package archive

import (
	"context"
	"io"

	"github.com/zero-install/zeroinstall/builder"
	"github.com/zero-install/zeroinstall/zerr"
)

// extractWindowsOnly remains unimplemented even on Windows: no
// actively maintained Go library in the reference corpus decodes cab
// or msi containers (see DESIGN.md). The build tag is kept so a future
// implementation only needs to land in this file.
func extractWindowsOnly(_ context.Context, _ io.ReaderAt, _ int64, _ builder.Builder, _ string, mimeType string) error {
	return &zerr.UnsupportedFormat{MIMEType: mimeType}
}
