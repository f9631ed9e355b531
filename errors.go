package oxipng

import (
	"fmt"

	"github.com/oxipng/oxipng/internal/colors"
)

// ErrorKind tags the variant of a PngError, mirroring oxipng's
// error.rs enum. Go has no tagged unions, so PngError is a flat struct with
// only the fields relevant to Kind populated — the same shape fumin-png
// uses for its FormatError/UnsupportedError pair, generalized to one type
// with a kind tag covering far more variants than fumin-png needed.
type ErrorKind int

const (
	KindNotPNG ErrorKind = iota
	KindTruncatedData
	KindInvalidData
	KindCRCMismatch
	KindChunkMissing
	KindInvalidDepthForType
	KindIncorrectDataLength
	KindAPNGOutOfOrder
	KindDeflatedDataTooLong
	KindInflatedDataTooLong
	KindC2PAMetadataPreventsChanges
	KindReadFailed
	KindWriteFailed
	KindOther
)

// PngError is the core's error type, covering every failure kind the
// optimizer can report.
type PngError struct {
	Kind ErrorKind

	ChunkType   string          // CRCMismatch, ChunkMissing
	BitDepth    colors.BitDepth // InvalidDepthForType
	ColorType   colors.ColorType
	ActualLen   int // IncorrectDataLength
	ExpectedLen int
	Limit       int    // DeflatedDataTooLong, InflatedDataTooLong
	Path        string // ReadFailed, WriteFailed
	Cause       error
	Message     string // Other
}

func (e *PngError) Error() string {
	switch e.Kind {
	case KindNotPNG:
		return "invalid header detected; not a PNG file"
	case KindTruncatedData:
		return "missing data in the file; the file is truncated"
	case KindInvalidData:
		return "invalid data found; unable to read PNG file"
	case KindCRCMismatch:
		return fmt.Sprintf("CRC mismatch in %s chunk; may be recoverable by using fix mode", e.ChunkType)
	case KindChunkMissing:
		return fmt.Sprintf("chunk %s missing or empty", e.ChunkType)
	case KindInvalidDepthForType:
		return fmt.Sprintf("invalid bit depth %s for color type %s", e.BitDepth, e.ColorType)
	case KindIncorrectDataLength:
		return fmt.Sprintf("data length %d does not match the expected length %d", e.ActualLen, e.ExpectedLen)
	case KindAPNGOutOfOrder:
		return "APNG chunks are out of order"
	case KindDeflatedDataTooLong:
		return "deflated data too long"
	case KindInflatedDataTooLong:
		return "inflated data too long"
	case KindC2PAMetadataPreventsChanges:
		return "the image contains a C2PA manifest that would be invalidated by any file changes"
	case KindReadFailed:
		return fmt.Sprintf("failed to read %s: %v", e.Path, e.Cause)
	case KindWriteFailed:
		return fmt.Sprintf("failed to write %s: %v", e.Path, e.Cause)
	default:
		return e.Message
	}
}

func (e *PngError) Unwrap() error { return e.Cause }

func newOther(msg string) *PngError { return &PngError{Kind: KindOther, Message: msg} }
