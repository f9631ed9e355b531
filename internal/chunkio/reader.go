// Package chunkio implements the raw PNG chunk framing: signature
// verification, length/type/payload/CRC parsing, and the mirror-image
// writer. It knows nothing about what any chunk type means.
package chunkio

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
)

// Signature is the eight magic bytes every PNG stream must begin with.
var Signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Chunk is one (type, payload) pair read from a PNG stream. CRCValid is
// false only when the stream was read in lenient mode and the CRC did not
// match; the payload is still returned so the caller can decide what to do.
type Chunk struct {
	Type     string
	Data     []byte
	CRCValid bool
}

// ErrNotPNG, ErrTruncated and ErrCRCMismatch are sentinel causes a caller can
// match with errors.Is after unwrapping a wrapped error.
var (
	ErrNotPNG      = errors.New("not a png file")
	ErrTruncated   = errors.New("truncated png data")
	ErrCRCMismatch = errors.New("chunk crc mismatch")
	ErrChunkTooBig = errors.New("chunk length exceeds 2^31-1")
)

// ReadChunks validates the signature and reads every chunk up to and
// including IEND. Bytes after IEND are ignored. When
// lenient is true, CRC mismatches are tolerated (Chunk.CRCValid is set to
// false instead of returning an error).
func ReadChunks(r io.Reader, lenient bool) ([]Chunk, error) {
	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(ErrTruncated, "reading signature")
		}
		return nil, errors.WithStack(err)
	}
	if sig != Signature {
		return nil, errors.WithStack(ErrNotPNG)
	}

	var chunks []Chunk
	for {
		c, err := readOneChunk(r, lenient)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
		if c.Type == "IEND" {
			break
		}
	}
	return chunks, nil
}

func readOneChunk(r io.Reader, lenient bool) (Chunk, error) {
	var head [8]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Chunk{}, errors.Wrap(ErrTruncated, "reading chunk header")
		}
		return Chunk{}, errors.WithStack(err)
	}
	length := binary.BigEndian.Uint32(head[:4])
	if length > 0x7fffffff {
		return Chunk{}, errors.WithStack(ErrChunkTooBig)
	}
	typeBytes := head[4:8]
	chunkType := string(typeBytes)

	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return Chunk{}, errors.Wrapf(ErrTruncated, "reading %s payload", chunkType)
			}
			return Chunk{}, errors.WithStack(err)
		}
	}

	var crcBuf [4]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Chunk{}, errors.Wrapf(ErrTruncated, "reading %s crc", chunkType)
		}
		return Chunk{}, errors.WithStack(err)
	}

	crc := crc32.NewIEEE()
	crc.Write(typeBytes)
	crc.Write(data)
	wantCRC := binary.BigEndian.Uint32(crcBuf[:])
	valid := crc.Sum32() == wantCRC
	if !valid && !lenient {
		return Chunk{}, errors.Wrapf(ErrCRCMismatch, "%s", chunkType)
	}

	return Chunk{Type: chunkType, Data: data, CRCValid: valid}, nil
}
