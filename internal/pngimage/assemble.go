package pngimage

import (
	"encoding/binary"
	"errors"

	"github.com/oxipng/oxipng/internal/chunkio"
	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/deflate"
	"github.com/oxipng/oxipng/internal/filters"
	"github.com/oxipng/oxipng/internal/headers"
)

// known chunk types the assembler interprets structurally; everything else
// is carried through as an AuxChunk.
var structuralChunks = map[string]bool{
	"IHDR": true, "PLTE": true, "tRNS": true, "IDAT": true, "IEND": true,
	"acTL": true, "fcTL": true, "fdAT": true,
}

type frameBuilder struct {
	geom            fcTLGeom
	hasGeom         bool
	isDefaultImage  bool
	partOfAnimation bool
	raw             []byte
}

type fcTLGeom struct {
	width, height    uint32
	xOffset, yOffset uint32
	delayNum         uint16
	delayDen         uint16
	dispose          DisposeOp
	blend            BlendOp
}

// Assemble decodes a flat chunk stream (as produced by chunkio.ReadChunks)
// into an Image: it inflates IDAT/fdAT data, reverses the delta filters and
// Adam7 interlacing, and validates APNG frame sequencing. maxInflatedSize
// bounds decompression against zip-bomb-style inputs; 0 means unbounded.
func Assemble(chunks []chunkio.Chunk, maxInflatedSize int) (*Image, error) {
	var ihdr headers.IhdrData
	var haveIHDR bool
	var img Image

	for _, c := range chunks {
		switch c.Type {
		case "IHDR":
			if len(c.Data) != 13 {
				return nil, &IncorrectDataLengthError{Actual: len(c.Data), Expected: 13}
			}
			ihdr.Width = binary.BigEndian.Uint32(c.Data[0:4])
			ihdr.Height = binary.BigEndian.Uint32(c.Data[4:8])
			ihdr.BitDepth = colors.BitDepth(c.Data[8])
			ihdr.ColorType = colors.ColorType(c.Data[9])
			ihdr.Interlacing = headers.Interlacing(c.Data[12])
			if !colors.ValidCombination(ihdr.ColorType, ihdr.BitDepth) {
				return nil, &InvalidDepthError{ColorType: ihdr.ColorType.String(), BitDepth: ihdr.BitDepth.String()}
			}
			haveIHDR = true
		case "PLTE":
			if len(c.Data)%3 != 0 {
				return nil, &IncorrectDataLengthError{Actual: len(c.Data), Expected: (len(c.Data) / 3) * 3}
			}
			ihdr.Palette = make([]colors.RGBA8, len(c.Data)/3)
			for i := range ihdr.Palette {
				ihdr.Palette[i] = colors.RGBA8{R: c.Data[3*i], G: c.Data[3*i+1], B: c.Data[3*i+2], A: 255}
			}
		case "tRNS":
			applyTRNS(&ihdr, c.Data)
		case "acTL":
			if len(c.Data) != 8 {
				return nil, &IncorrectDataLengthError{Actual: len(c.Data), Expected: 8}
			}
			img.IsAPNG = true
			img.NumPlays = binary.BigEndian.Uint32(c.Data[4:8])
		}
	}
	if !haveIHDR {
		return nil, &ChunkMissingError{ChunkType: "IHDR"}
	}
	if ihdr.ColorType == colors.Indexed && len(ihdr.Palette) == 0 {
		return nil, &ChunkMissingError{ChunkType: "PLTE"}
	}
	img.Ihdr = ihdr

	frames, err := collectFrames(chunks, ihdr)
	if err != nil {
		return nil, err
	}
	for i := range frames {
		f, err := decodeFrame(&ihdr, &frames[i], maxInflatedSize)
		if err != nil {
			return nil, err
		}
		img.Frames = append(img.Frames, f)
	}
	if len(img.Frames) == 0 {
		return nil, &ChunkMissingError{ChunkType: "IDAT"}
	}

	for _, c := range chunks {
		if !structuralChunks[c.Type] {
			img.AuxChunks = append(img.AuxChunks, AuxChunk{Type: c.Type, Data: c.Data})
		}
	}
	return &img, nil
}

func applyTRNS(ihdr *headers.IhdrData, data []byte) {
	switch ihdr.ColorType {
	case colors.Indexed:
		for i, a := range data {
			if i < len(ihdr.Palette) {
				ihdr.Palette[i].A = a
			}
		}
	case colors.Grayscale:
		if len(data) >= 2 {
			ihdr.TransparentColor = []uint16{binary.BigEndian.Uint16(data[0:2])}
		}
	case colors.RGB:
		if len(data) >= 6 {
			ihdr.TransparentColor = []uint16{
				binary.BigEndian.Uint16(data[0:2]),
				binary.BigEndian.Uint16(data[2:4]),
				binary.BigEndian.Uint16(data[4:6]),
			}
		}
	}
}

// collectFrames walks the chunk stream once, grouping IDAT/fdAT payloads by
// the fcTL (if any) that precedes them and validating strictly increasing
// sequence numbers, reporting APNGOutOfOrderError on any gap or
// out-of-sequence fdAT.
func collectFrames(chunks []chunkio.Chunk, ihdr headers.IhdrData) ([]frameBuilder, error) {
	var frames []frameBuilder
	var cur *frameBuilder
	nextSeq := uint32(0)

	finalize := func() {
		if cur != nil {
			frames = append(frames, *cur)
			cur = nil
		}
	}

	for _, c := range chunks {
		switch c.Type {
		case "fcTL":
			if len(c.Data) != 26 {
				return nil, &IncorrectDataLengthError{Actual: len(c.Data), Expected: 26}
			}
			seq := binary.BigEndian.Uint32(c.Data[0:4])
			if seq != nextSeq {
				return nil, &APNGOutOfOrderError{}
			}
			nextSeq++
			finalize()
			cur = &frameBuilder{
				hasGeom:         true,
				partOfAnimation: true,
				geom: fcTLGeom{
					width:    binary.BigEndian.Uint32(c.Data[4:8]),
					height:   binary.BigEndian.Uint32(c.Data[8:12]),
					xOffset:  binary.BigEndian.Uint32(c.Data[12:16]),
					yOffset:  binary.BigEndian.Uint32(c.Data[16:20]),
					delayNum: binary.BigEndian.Uint16(c.Data[20:22]),
					delayDen: binary.BigEndian.Uint16(c.Data[22:24]),
					dispose:  DisposeOp(c.Data[24]),
					blend:    BlendOp(c.Data[25]),
				},
			}
			if len(frames) == 0 {
				cur.isDefaultImage = true
			}
		case "IDAT":
			if cur == nil {
				cur = &frameBuilder{isDefaultImage: true}
			}
			cur.raw = append(cur.raw, c.Data...)
		case "fdAT":
			if len(c.Data) < 4 {
				return nil, &IncorrectDataLengthError{Actual: len(c.Data), Expected: 4}
			}
			seq := binary.BigEndian.Uint32(c.Data[0:4])
			if seq != nextSeq {
				return nil, &APNGOutOfOrderError{}
			}
			nextSeq++
			if cur == nil {
				return nil, &APNGOutOfOrderError{}
			}
			cur.raw = append(cur.raw, c.Data[4:]...)
		}
	}
	finalize()
	return frames, nil
}

func decodeFrame(ihdr *headers.IhdrData, fb *frameBuilder, maxInflatedSize int) (Frame, error) {
	width, height := ihdr.Width, ihdr.Height
	var geom fcTLGeom
	if fb.hasGeom {
		geom = fb.geom
		width, height = geom.width, geom.height
	}

	raw, err := deflate.Inflate(fb.raw, maxInflatedSize)
	if err != nil {
		if errors.Is(err, deflate.ErrTooLarge) {
			return Frame{}, &InflatedDataTooLongError{Limit: maxInflatedSize}
		}
		return Frame{}, err
	}

	bpp := BytesPerPixel(ihdr.ColorType, ihdr.BitDepth)
	stride := BytesPerRow(width, ihdr.ColorType, ihdr.BitDepth)

	var planeData [][]byte
	var usedFilters []filters.RowFilter
	if ihdr.Interlacing == headers.None {
		rows, fs, err := unfilterStraight(raw, bpp, stride, int(height))
		if err != nil {
			return Frame{}, err
		}
		planeData = [][]byte{rows}
		usedFilters = fs
	} else {
		var err error
		planeData, usedFilters, err = unfilterInterlaced(raw, ihdr.ColorType, ihdr.BitDepth, int(width), int(height))
		if err != nil {
			return Frame{}, err
		}
	}
	data := ScatterPlanes(width, height, ihdr.ColorType, ihdr.BitDepth, ihdr.Interlacing, planeData)

	f := Frame{
		XOffset: geom.xOffset, YOffset: geom.yOffset,
		Width: width, Height: height,
		DelayNum: geom.delayNum, DelayDen: geom.delayDen,
		Dispose: geom.dispose, Blend: geom.blend,
		IsDefaultImage:  fb.isDefaultImage,
		PartOfAnimation: fb.partOfAnimation,
		Data:            data,
		OriginalFilters: filters.PredefinedStrategy(usedFilters),
	}
	if !fb.hasGeom {
		f.DelayNum, f.DelayDen = 0, 1
	}
	return f, nil
}

func unfilterStraight(raw []byte, bpp, stride, rows int) ([]byte, []filters.RowFilter, error) {
	if rows == 0 {
		return nil, nil, nil
	}
	if len(raw) != (stride+1)*rows {
		return nil, nil, &IncorrectDataLengthError{Actual: len(raw), Expected: (stride + 1) * rows}
	}
	out := make([]byte, stride*rows)
	used := make([]filters.RowFilter, rows)
	prev := make([]byte, stride)
	var line []byte
	for i := 0; i < rows; i++ {
		filterByte := raw[i*(stride+1)]
		payload := raw[i*(stride+1)+1 : (i+1)*(stride+1)]
		used[i] = filters.RowFilter(filterByte)
		filters.UnfilterLine(used[i], bpp, payload, prev, &line)
		copy(out[i*stride:(i+1)*stride], line)
		prev = out[i*stride : (i+1)*stride]
	}
	return out, used, nil
}

func unfilterInterlaced(raw []byte, ct colors.ColorType, bd colors.BitDepth, width, height int) ([][]byte, []filters.RowFilter, error) {
	bpp := BytesPerPixel(ct, bd)
	var planes [][]byte
	var used []filters.RowFilter
	offset := 0
	for _, pass := range adam7Passes(width, height) {
		if pass.rows == 0 || pass.cols == 0 {
			continue
		}
		stride := BytesPerRow(uint32(pass.cols), ct, bd)
		size := (stride + 1) * pass.rows
		if offset+size > len(raw) {
			return nil, nil, &IncorrectDataLengthError{Actual: len(raw) - offset, Expected: size}
		}
		rows, fs, err := unfilterStraight(raw[offset:offset+size], bpp, stride, pass.rows)
		if err != nil {
			return nil, nil, err
		}
		planes = append(planes, rows)
		used = append(used, fs...)
		offset += size
	}
	return planes, used, nil
}
