// Package headers holds the IHDR data model and the ancillary-chunk strip
// policy, following the field layout oxipng's options.rs and headers.rs use.
package headers

import (
	"github.com/oxipng/oxipng/internal/colors"
)

// Interlacing is the IHDR interlace-method byte.
type Interlacing uint8

const (
	None  Interlacing = 0
	Adam7 Interlacing = 1
)

// IhdrData is the decoded IHDR chunk plus the palette/transparency data that
// the PNG spec ties to particular color types.
type IhdrData struct {
	Width       uint32
	Height      uint32
	BitDepth    colors.BitDepth
	ColorType   colors.ColorType
	Interlacing Interlacing

	// Palette holds the PLTE entries for Indexed images, in palette-index
	// order. Entry alpha comes from tRNS (defaulting to opaque) and is
	// folded in here so palette reductions only need to look in one place.
	Palette []colors.RGBA8

	// TransparentColor is the tRNS value for Grayscale/RGB color types: one
	// word (the gray level) or three (R,G,B), each the full bit depth's
	// range regardless of 8/16-bit storage. Nil means no tRNS chunk.
	TransparentColor []uint16
}

// Valid reports whether the (color type, bit depth) combination is
// PNG-legal and that Indexed images carry a non-empty palette no larger
// than 2^bit_depth.
func (h *IhdrData) Valid() bool {
	if !colors.ValidCombination(h.ColorType, h.BitDepth) {
		return false
	}
	if h.ColorType == colors.Indexed {
		maxEntries := 1 << uint(h.BitDepth)
		if len(h.Palette) == 0 || len(h.Palette) > maxEntries || len(h.Palette) > 256 {
			return false
		}
	}
	return true
}

// ChannelsPerPixel is colors.ColorType.Channels, kept as a method for
// convenience at call sites that only have an IhdrData in hand.
func (h *IhdrData) ChannelsPerPixel() int {
	return h.ColorType.Channels()
}

// StripPolicyKind tags which StripChunks variant is active.
type StripPolicyKind int

const (
	StripNone StripPolicyKind = iota
	StripSafe
	StripAll
	StripKeep
	StripSet
)

// StripChunks is the ancillary-chunk strip policy an optimization run is
// configured with.
type StripChunks struct {
	Kind StripPolicyKind
	// Set holds the chunk types for StripKeep (chunks to retain, plus
	// always-kept critical chunks) or StripSet (chunks to drop).
	Set map[string]bool
}

// DisplayRelevantChunks is the fixed "display-relevant" set StripSafe keeps:
// chromaticity, gamma, ICC, significant bits, sRGB intent, background,
// histogram, physical pixel dimensions, suggested palette, and the APNG
// control chunks (acTL/fcTL/fdAT are handled separately by the writer since
// they aren't plain ancillary chunks under this policy's byte-matching).
var DisplayRelevantChunks = map[string]bool{
	"cHRM": true,
	"gAMA": true,
	"iCCP": true,
	"sBIT": true,
	"sRGB": true,
	"bKGD": true,
	"hIST": true,
	"pHYs": true,
	"sPLT": true,
}

// criticalChunks may never be stripped by any policy.
var criticalChunks = map[string]bool{
	"IHDR": true,
	"IDAT": true,
	"PLTE": true,
	"tRNS": true,
	"IEND": true,
}

// Keep reports whether a chunk of the given 4-byte type should be retained
// under this policy. caBX (C2PA) is always retained by every policy except
// StripAll/StripSet-naming-it/StripKeep-omitting-it. Keep looks only at the
// chunk type: chunks whose payload depends on the final color type or bit
// depth (bKGD/sBIT/hIST/iDOT) get no special treatment here, and
// internal/writer writes every aux chunk Keep retains as-is.
func (s StripChunks) Keep(chunkType string) bool {
	if criticalChunks[chunkType] {
		return true
	}
	switch s.Kind {
	case StripNone:
		return true
	case StripSafe:
		return DisplayRelevantChunks[chunkType] || chunkType == "acTL" || chunkType == "fcTL" || chunkType == "fdAT" || chunkType == "caBX"
	case StripAll:
		return false
	case StripKeep:
		return s.Set[chunkType]
	case StripSet:
		return !s.Set[chunkType]
	default:
		return true
	}
}
