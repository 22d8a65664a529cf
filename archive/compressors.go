package archive

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

func newGzipReader(r io.Reader) (*gzip.Reader, error) {
	return gzip.NewReader(r)
}

func newBzip2Reader(r io.Reader) io.Reader {
	return bzip2.NewReader(r)
}

func newXzReader(r io.Reader) (io.Reader, error) {
	return xz.NewReader(r)
}

// newLzmaReader decodes the legacy .lzma "alone" stream format used by
// tar.lzma archives (as opposed to the container format .xz uses).
func newLzmaReader(r io.Reader) (io.Reader, error) {
	return lzma.NewReader(r)
}

// newLzipReader decodes lzip: an LZMA1 stream wrapped in a small
// "LZIP" header/trailer rather than the .lzma "alone" header. ulikunitz/xz
// does not implement the lzip container directly, so the 6-byte
// "LZIP"+version+coded-dictionary-size header is read by hand and
// replaced with the equivalent 13-byte .lzma header before the body is
// fed to lzma.NewReader. The lzip trailer after the end-of-stream
// marker is neither read nor checked.
func newLzipReader(r io.Reader) (io.Reader, error) {
	header := make([]byte, 6)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if string(header[:4]) != "LZIP" {
		return nil, errNotLzip
	}
	base := uint32(1) << (header[5] & 0x1f)
	dictSize := base - (base/16)*uint32(header[5]>>5)
	alone := make([]byte, 13)
	alone[0] = 0x5d // lc=3, lp=0, pb=2: the only properties lzip uses
	binary.LittleEndian.PutUint32(alone[1:5], dictSize)
	for i := 5; i < 13; i++ {
		alone[i] = 0xff // size unknown: lzip streams end with an end marker
	}
	return lzma.NewReader(io.MultiReader(bytes.NewReader(alone), r))
}

type lzipError string

func (e lzipError) Error() string { return string(e) }

const errNotLzip = lzipError("not an lzip stream")

type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

func newZstdReader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return zstdReadCloser{d}, nil
}
