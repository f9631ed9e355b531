// Package apngchunk implements the byte layout of the PNG/APNG chunks the
// writer assembles: IHDR, PLTE, tRNS, acTL, fcTL, IDAT, fdAT, and IEND.
// Adapted from shutej-apng's writer.go, generalized from an
// image.Image/color.Palette source (which only ever produced one
// non-interlaced 8-bit frame per call) to the already-filtered,
// already-deflated byte buffers internal/writer hands it for any color
// type, bit depth, and interlacing setting the reduction cascade may have
// chosen. The per-pixel encode loop (writeImage) and its channel-based
// Encoder_IDAT/Encoder_fdAT streaming wrapper are dropped: internal/writer
// already owns filtering (internal/filters) and compression
// (internal/deflate) and hands this package finished bytes, so there is no
// image to stream pixels out of here anymore.
package apngchunk

import (
	"hash/crc32"
	"io"

	"github.com/oxipng/oxipng/internal/colors"
)

// Chunk_IHDR is the image header chunk, as per the PNG spec.
type Chunk_IHDR struct {
	Width           uint32
	Height          uint32
	BitDepth        colors.BitDepth
	ColorType       colors.ColorType
	InterlaceMethod uint8
}

// WriteTo encodes the IHDR chunk to the io.Writer.
func (c *Chunk_IHDR) WriteTo(w io.Writer) (int64, error) {
	var buf [13]byte
	writeUint32(buf[0:4], c.Width)
	writeUint32(buf[4:8], c.Height)
	buf[8] = byte(c.BitDepth)
	buf[9] = byte(c.ColorType)
	buf[10] = 0 // compression method: always 0
	buf[11] = 0 // filter method: always 0
	buf[12] = c.InterlaceMethod
	return writeChunkTo("IHDR", buf[:], w)
}

// Chunk_PLTE is the palette chunk. Write this after IHDR but before tRNS or
// any image data.
type Chunk_PLTE struct {
	data []byte
}

// NewChunk_PLTE builds a palette chunk from an ordered RGBA8 palette (alpha
// is dropped here; callers emit a separate Chunk_tRNS when any entry is
// translucent).
func NewChunk_PLTE(palette []colors.RGBA8) *Chunk_PLTE {
	data := make([]byte, 3*len(palette))
	for i, c := range palette {
		data[3*i+0] = c.R
		data[3*i+1] = c.G
		data[3*i+2] = c.B
	}
	return &Chunk_PLTE{data: data}
}

// WriteTo encodes the palette chunk to the io.Writer.
func (c *Chunk_PLTE) WriteTo(w io.Writer) (int64, error) {
	return writeChunkTo("PLTE", c.data, w)
}

// Chunk_tRNS is the transparency chunk. Write this after IHDR and PLTE but
// before any image data.
type Chunk_tRNS struct {
	data []byte
}

// NewChunk_tRNS_Indexed builds a tRNS chunk from a palette's per-entry
// alpha, trimming trailing fully-opaque entries as the PNG spec allows.
func NewChunk_tRNS_Indexed(palette []colors.RGBA8) *Chunk_tRNS {
	last := -1
	for i, c := range palette {
		if c.A != 255 {
			last = i
		}
	}
	if last < 0 {
		return nil
	}
	data := make([]byte, last+1)
	for i := 0; i <= last; i++ {
		data[i] = palette[i].A
	}
	return &Chunk_tRNS{data: data}
}

// NewChunk_tRNS_Color builds a tRNS chunk from the single transparent
// color value(s) a Grayscale (one word) or RGB (three words) image
// carries.
func NewChunk_tRNS_Color(words []uint16) *Chunk_tRNS {
	data := make([]byte, 2*len(words))
	for i, v := range words {
		writeUint16(data[2*i:2*i+2], v)
	}
	return &Chunk_tRNS{data: data}
}

// WriteTo encodes the transparency chunk to the io.Writer.
func (c *Chunk_tRNS) WriteTo(w io.Writer) (int64, error) {
	return writeChunkTo("tRNS", c.data, w)
}

// Chunk_IEND is the ending chunk. Write this after all other chunks.
type Chunk_IEND struct{}

// WriteTo encodes the ending chunk to the io.Writer.
func (c *Chunk_IEND) WriteTo(w io.Writer) (int64, error) {
	return writeChunkTo("IEND", nil, w)
}

// Chunk_acTL is the animation control chunk, as per the APNG spec. Write
// this before any image data.
type Chunk_acTL struct {
	NumFrames uint32
	NumPlays  uint32
}

// WriteTo encodes the animation control chunk to the io.Writer.
func (c *Chunk_acTL) WriteTo(w io.Writer) (int64, error) {
	var buf [8]byte
	writeUint32(buf[0:4], c.NumFrames)
	writeUint32(buf[4:8], c.NumPlays)
	return writeChunkTo("acTL", buf[:], w)
}

// DisposeOp is the dispose operator, as per the APNG spec.
type DisposeOp uint8

const (
	DisposeOp_None       = DisposeOp(0)
	DisposeOp_Background = DisposeOp(1)
	DisposeOp_Previous   = DisposeOp(2)
)

// BlendOp is the blend operator, as per the APNG spec.
type BlendOp uint8

const (
	BlendOp_Source = BlendOp(0)
	BlendOp_Over   = BlendOp(1)
)

// Chunk_fcTL is the frame control chunk, as per the APNG spec.
type Chunk_fcTL struct {
	SequenceNumber uint32
	Width          uint32
	Height         uint32
	XOffset        uint32
	YOffset        uint32
	DelayNum       uint16
	DelayDen       uint16
	DisposeOp      DisposeOp
	BlendOp        BlendOp
}

// WriteTo encodes the frame control chunk to the io.Writer.
func (c *Chunk_fcTL) WriteTo(w io.Writer) (int64, error) {
	var buf [26]byte
	writeUint32(buf[0:4], c.SequenceNumber)
	writeUint32(buf[4:8], c.Width)
	writeUint32(buf[8:12], c.Height)
	writeUint32(buf[12:16], c.XOffset)
	writeUint32(buf[16:20], c.YOffset)
	writeUint16(buf[20:22], c.DelayNum)
	writeUint16(buf[22:24], c.DelayDen)
	buf[24] = byte(c.DisposeOp)
	buf[25] = byte(c.BlendOp)
	return writeChunkTo("fcTL", buf[:], w)
}

// SequenceNumbers tracks sequence numbers across all fcTL and fdAT chunks
// in a file; the APNG spec requires these to be strictly increasing from
// zero regardless of which frame they belong to.
type SequenceNumbers uint32

func NewSequenceNumbers() *SequenceNumbers { return new(SequenceNumbers) }

func (s *SequenceNumbers) Next() uint32 {
	tmp := uint32(*s)
	*s++
	return tmp
}

// Chunk_IDAT is one image data chunk, already zlib-compressed by
// internal/deflate. Split it with internal/chunkio.SplitIDAT first if it
// exceeds a chunk's 2^31-1 byte limit.
type Chunk_IDAT []byte

// WriteTo encodes the image data chunk to the io.Writer.
func (c Chunk_IDAT) WriteTo(w io.Writer) (int64, error) {
	return writeChunkTo("IDAT", c, w)
}

// Chunk_fdAT is the frame data chunk, as per the APNG spec.
type Chunk_fdAT struct {
	SequenceNumber uint32
	Data           []byte
}

// WriteTo encodes the frame data chunk to the io.Writer.
func (c *Chunk_fdAT) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, 4+len(c.Data))
	writeUint32(buf[0:4], c.SequenceNumber)
	copy(buf[4:], c.Data)
	return writeChunkTo("fdAT", buf, w)
}

func writeUint16(b []byte, u uint16) {
	b[0] = byte(u >> 8)
	b[1] = byte(u)
}

func writeUint32(b []byte, u uint32) {
	b[0] = byte(u >> 24)
	b[1] = byte(u >> 16)
	b[2] = byte(u >> 8)
	b[3] = byte(u)
}

func writeChunkTo(name string, b []byte, w io.Writer) (int64, error) {
	var header [8]byte
	var footer [4]byte

	writeUint32(header[:4], uint32(len(b)))
	copy(header[4:8], name)

	crc := crc32.NewIEEE()
	crc.Write(header[4:8])
	crc.Write(b)
	writeUint32(footer[:4], crc.Sum32())

	hl, err := w.Write(header[:])
	if err != nil {
		return int64(hl), err
	}
	bl, err := w.Write(b)
	if err != nil {
		return int64(hl + bl), err
	}
	fl, err := w.Write(footer[:])
	return int64(hl + bl + fl), err
}
