// Package deflate wraps the zlib-framed DEFLATE backend as an opaque,
// swappable compression step. Grounded on shutej-apng/writer.go, which
// already reaches for compress/zlib to produce IDAT payloads; generalized
// here into a level-indexed, size-bounded Deflater.
package deflate

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/pkg/errors"
)

// ErrTooLarge is returned when a compressed payload would exceed the
// caller's configured max size, letting a losing trial abort early instead
// of compressing to completion.
var ErrTooLarge = errors.New("deflate: compressed size exceeds limit")

// Deflater is the opaque compression backend the evaluator and filter
// engine call through, kept narrow so a different backend can be swapped
// in without touching either caller.
type Deflater interface {
	// Deflate compresses data at the given oxipng-style level (0-12,
	// mapped onto zlib's -2..9 internally) and returns the zlib-wrapped
	// bytes. If maxSize is positive and the result would exceed it,
	// Deflate returns ErrTooLarge.
	Deflate(data []byte, level, maxSize int) ([]byte, error)
}

// ZlibDeflater is the only Deflater implementation: compress/zlib, the same
// library shutej-apng already uses for IDAT.
type ZlibDeflater struct{}

// levelTable maps oxipng's 0-12 compression level scale onto zlib's
// -2 (HuffmanOnly) .. 9 (BestCompression) range, per original_source's
// options.rs level table: 0-1 favor speed, 10-12 exceed zlib's own scale
// and clamp to BestCompression.
var levelTable = [...]int{
	0:  zlib.HuffmanOnly,
	1:  zlib.BestSpeed,
	2:  2,
	3:  3,
	4:  4,
	5:  5,
	6:  zlib.DefaultCompression,
	7:  7,
	8:  8,
	9:  zlib.BestCompression,
	10: zlib.BestCompression,
	11: zlib.BestCompression,
	12: zlib.BestCompression,
}

func zlibLevel(level int) int {
	if level < 0 {
		return zlib.DefaultCompression
	}
	if level >= len(levelTable) {
		return zlib.BestCompression
	}
	return levelTable[level]
}

func (ZlibDeflater) Deflate(data []byte, level, maxSize int) ([]byte, error) {
	var buf bytes.Buffer
	var dst io.Writer = &buf
	if maxSize > 0 {
		dst = boundedWriter{&buf, maxSize}
	}
	zw, err := zlib.NewWriterLevel(dst, zlibLevel(level))
	if err != nil {
		return nil, errors.Wrap(err, "deflate: open writer")
	}
	if _, err := zw.Write(data); err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, ErrTooLarge
		}
		return nil, errors.Wrap(err, "deflate: write")
	}
	if err := zw.Close(); err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, ErrTooLarge
		}
		return nil, errors.Wrap(err, "deflate: close")
	}
	if maxSize > 0 && buf.Len() > maxSize {
		return nil, ErrTooLarge
	}
	return buf.Bytes(), nil
}

// boundedWriter aborts with ErrTooLarge as soon as more than limit bytes
// have been written to it, so a trial compression in the Brute strategy or
// the evaluator doesn't spend time fully compressing output that's already
// known to lose.
type boundedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (b boundedWriter) Write(p []byte) (int, error) {
	if b.buf.Len()+len(p) > b.limit {
		return 0, ErrTooLarge
	}
	return b.buf.Write(p)
}

var _ io.Writer = boundedWriter{}

// Inflate decompresses a zlib-wrapped IDAT stream, stopping early with
// ErrTooLarge once more than maxSize bytes have been produced, guarding
// against decompression bombs.
func Inflate(data []byte, maxSize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "deflate: open reader")
	}
	defer zr.Close()

	var out bytes.Buffer
	limit := int64(maxSize)
	if limit <= 0 {
		limit = 1<<63 - 2 // leaves room for the limit+1 below without overflow
	}
	n, err := io.CopyN(&out, zr, limit+1)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "deflate: read")
	}
	if n > limit {
		return nil, ErrTooLarge
	}
	return out.Bytes(), nil
}
