package writer

import (
	"io"

	"github.com/pkg/errors"

	"github.com/oxipng/oxipng/internal/apngchunk"
	"github.com/oxipng/oxipng/internal/chunkio"
	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/headers"
	"github.com/oxipng/oxipng/internal/pngimage"
)

// Options configures how WriteImage lays out a file.
type Options struct {
	Strip           headers.StripChunks
	MaxIDATChunkLen int // 0 means the 2^31-1 hard limit
}

// FrameData is one frame's already-filtered, already-zlib-compressed
// payload, produced by internal/evaluate. Frames[i] in the Image must line
// up with FrameData[i] here.
type FrameData [][]byte

// WriteImage writes the complete PNG/APNG byte stream for img, in
// standard PNG/APNG chunk order, using frameData[i] as frame
// i's IDAT/fdAT payload.
func WriteImage(w io.Writer, img *pngimage.Image, frameData FrameData, opts Options) error {
	if len(frameData) != len(img.Frames) {
		return errors.Errorf("writer: %d frames but %d payloads", len(img.Frames), len(frameData))
	}

	if _, err := chunkio.WriteSignature(w); err != nil {
		return errors.WithStack(err)
	}

	ihdr := &apngchunk.Chunk_IHDR{
		Width: img.Ihdr.Width, Height: img.Ihdr.Height,
		BitDepth: img.Ihdr.BitDepth, ColorType: img.Ihdr.ColorType,
		InterlaceMethod: uint8(img.Ihdr.Interlacing),
	}
	if _, err := ihdr.WriteTo(w); err != nil {
		return errors.WithStack(err)
	}

	pre, postPalette, trailing := bucketAuxChunks(img.AuxChunks)

	if err := writeAuxBucket(w, pre, opts.Strip); err != nil {
		return err
	}

	if img.Ihdr.ColorType == colors.Indexed {
		plte := apngchunk.NewChunk_PLTE(img.Ihdr.Palette)
		if _, err := plte.WriteTo(w); err != nil {
			return errors.WithStack(err)
		}
		if trns := apngchunk.NewChunk_tRNS_Indexed(img.Ihdr.Palette); trns != nil {
			if _, err := trns.WriteTo(w); err != nil {
				return errors.WithStack(err)
			}
		}
	} else if len(img.Ihdr.TransparentColor) > 0 {
		trns := apngchunk.NewChunk_tRNS_Color(img.Ihdr.TransparentColor)
		if _, err := trns.WriteTo(w); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := writeAuxBucket(w, postPalette, opts.Strip); err != nil {
		return err
	}

	// A strip policy that drops acTL (e.g. All) degrades the file to a
	// static PNG: emitting fcTL/fdAT without acTL would be invalid, so in
	// that case only the default image's data is written and every other
	// frame is dropped.
	emitAnimation := img.IsAPNG && opts.Strip.Keep("acTL")

	if emitAnimation {
		actl := &apngchunk.Chunk_acTL{NumFrames: uint32(len(img.Frames)), NumPlays: img.NumPlays}
		if _, err := actl.WriteTo(w); err != nil {
			return errors.WithStack(err)
		}
	}

	seq := apngchunk.NewSequenceNumbers()
	if emitAnimation {
		for i, f := range img.Frames {
			if err := writeFrame(w, &f, frameData[i], seq, opts, true); err != nil {
				return err
			}
		}
	} else if err := writeFrame(w, &img.Frames[0], frameData[0], seq, opts, false); err != nil {
		return err
	}

	if err := writeAuxBucket(w, trailing, opts.Strip); err != nil {
		return err
	}

	iend := &apngchunk.Chunk_IEND{}
	_, err := iend.WriteTo(w)
	return errors.WithStack(err)
}

func writeFrame(w io.Writer, f *pngimage.Frame, data []byte, seq *apngchunk.SequenceNumbers, opts Options, allowFcTL bool) error {
	hasFcTL := allowFcTL && f.PartOfAnimation
	if hasFcTL {
		fctl := &apngchunk.Chunk_fcTL{
			SequenceNumber: seq.Next(),
			Width:          f.Width, Height: f.Height,
			XOffset: f.XOffset, YOffset: f.YOffset,
			DelayNum: f.DelayNum, DelayDen: f.DelayDen,
			DisposeOp: apngchunk.DisposeOp(f.Dispose), BlendOp: apngchunk.BlendOp(f.Blend),
		}
		if _, err := fctl.WriteTo(w); err != nil {
			return errors.WithStack(err)
		}
	}

	parts := chunkio.SplitIDAT(data, opts.MaxIDATChunkLen)
	if f.IsDefaultImage {
		for _, part := range parts {
			if _, err := apngchunk.Chunk_IDAT(part).WriteTo(w); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	for _, part := range parts {
		fdat := &apngchunk.Chunk_fdAT{SequenceNumber: seq.Next(), Data: part}
		if _, err := fdat.WriteTo(w); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func writeAuxBucket(w io.Writer, chunks []pngimage.AuxChunk, strip headers.StripChunks) error {
	for _, c := range chunks {
		if !strip.Keep(c.Type) {
			continue
		}
		if _, err := chunkio.WriteChunk(w, c.Type, c.Data); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
