//go:build !windows

package archive

import (
	"context"
	"io"

	"github.com/zero-install/zeroinstall/builder"
	"github.com/zero-install/zeroinstall/zerr"
)

// extractWindowsOnly is a stub on non-Windows platforms: cab and msi
// are used exclusively by Windows feed implementations, and decoding
// them has no non-Windows library in the corpus (see DESIGN.md).
func extractWindowsOnly(_ context.Context, _ io.ReaderAt, _ int64, _ builder.Builder, _ string, mimeType string) error {
	return &zerr.UnsupportedFormat{MIMEType: mimeType}
}
