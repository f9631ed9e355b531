package chunkio

import (
	"encoding/binary"
	"hash/crc32"
	"io"
)

// WriteChunk writes one length||type||payload||crc32 chunk, following
// shutej-apng/writer.go's writeChunkTo shape.
func WriteChunk(w io.Writer, chunkType string, data []byte) (int64, error) {
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	copy(header[4:8], chunkType)

	crc := crc32.NewIEEE()
	crc.Write(header[4:8])
	crc.Write(data)
	var footer [4]byte
	binary.BigEndian.PutUint32(footer[:], crc.Sum32())

	var n int64
	hn, err := w.Write(header[:])
	n += int64(hn)
	if err != nil {
		return n, err
	}
	if len(data) > 0 {
		dn, err := w.Write(data)
		n += int64(dn)
		if err != nil {
			return n, err
		}
	}
	fn, err := w.Write(footer[:])
	n += int64(fn)
	return n, err
}

// ChunkSize is the on-wire byte count of a chunk with the given payload
// length: 4 (length) + 4 (type) + payload + 4 (crc).
func ChunkSize(dataLen int) int {
	return 12 + dataLen
}

// WriteSignature writes the 8-byte PNG signature.
func WriteSignature(w io.Writer) (int, error) {
	return w.Write(Signature[:])
}

// SplitIDAT splits a single IDAT payload into chunks of at most maxChunkLen
// bytes each, since decoders may require IDAT/fdAT chunks kept under a
// given size for compatibility. maxChunkLen of 0 or greater than 2^31-1 is
// clamped.
func SplitIDAT(data []byte, maxChunkLen int) [][]byte {
	const hardMax = 0x7fffffff
	if maxChunkLen <= 0 || maxChunkLen > hardMax {
		maxChunkLen = hardMax
	}
	if len(data) == 0 {
		return [][]byte{{}}
	}
	var parts [][]byte
	for off := 0; off < len(data); off += maxChunkLen {
		end := off + maxChunkLen
		if end > len(data) {
			end = len(data)
		}
		parts = append(parts, data[off:end])
	}
	return parts
}
