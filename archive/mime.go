// Package archive implements the multi-format streaming Archive
// Extractor (spec.md §4.C): it decodes zip, tar (+gzip/bzip2/xz/lzma/
// lzip/zstd), 7z, rar, and ruby-gem archives, driving a builder.Builder
// in the archive's own entry order, with cab/msi reserved for a
// Windows-only build.
package archive

// MIME type constants recognized by Extract. Unknown types yield
// zerr.UnsupportedFormat.
const (
	MimeZip      = "application/zip"
	MimeTar      = "application/x-tar"
	MimeTarGzip  = "application/x-tar+gzip"
	MimeTarBzip2 = "application/x-tar+bzip2"
	MimeTarXz    = "application/x-tar+xz"
	MimeTarLzma  = "application/x-tar+lzma"
	MimeTarLzip  = "application/x-tar+lzip"
	MimeTarZstd  = "application/x-tar+zstd"
	Mime7z       = "application/x-7z-compressed"
	MimeRar      = "application/vnd.rar"
	MimeRubyGem  = "application/x-rubygem"
	MimeCab      = "application/vnd.ms-cab-compressed" // Windows only
	MimeMsi      = "application/x-msi"                 // Windows only
)
