// Package reduction implements the lossless reduction cascade:
// palette reduction, the color-type cascade, bit-depth
// reduction, and the interlacing toggle. Grounded on
// original_source/src/reduction/mod.rs (ported from Rust's Cow-based
// "returns Some iff improved" style into Go's "returns changed bool, and
// mutates in place on success" idiom, since oxipng itself has no Go
// precedent in the retrieved examples for this kind of data-flow).
package reduction

import (
	"sort"

	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/pngimage"
)

// ReducePalette rewrites an Indexed image's palette and pixel indices to
// drop unused entries and order them by (ascending alpha, descending
// luma), deduplicating exact-color entries. Reports whether anything
// changed. Mirrors reduced_palette in original_source/src/reduction/mod.rs.
func ReducePalette(img *pngimage.Image) bool {
	if img.Ihdr.ColorType != colors.Indexed {
		return false
	}
	if img.Ihdr.BitDepth == colors.One {
		// Gains top out at one byte; not worth the recoding cost.
		return false
	}

	palette := img.Ihdr.Palette
	used := make([]bool, 256)
	markUsedIndices(img, used)

	order := make([]int, 256)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sortValue(palette, order[a]) < sortValue(palette, order[b])
	})

	remap := make([]uint8, 256)
	newPalette := make([]colors.RGBA8, 0, len(palette))
	seen := make(map[colors.RGBA8]uint8, len(palette))
	changed := false
	for _, i := range order {
		if !used[i] {
			continue
		}
		c := paletteEntry(palette, i)
		if existing, ok := seen[c]; ok {
			remap[i] = existing
			changed = true
			continue
		}
		idx := uint8(len(newPalette))
		newPalette = append(newPalette, c)
		seen[c] = idx
		remap[i] = idx
		if idx != uint8(i) {
			changed = true
		}
	}
	if len(newPalette) != len(palette) {
		changed = true
	}
	if !changed {
		return false
	}

	for fi := range img.Frames {
		remapIndices(&img.Frames[fi], img.Ihdr.BitDepth, remap)
	}
	for ai := range img.AuxChunks {
		if img.AuxChunks[ai].Type == "bKGD" {
			img.AuxChunks[ai].Data = RemapBackgroundIndex(img.AuxChunks[ai].Data, remap)
		}
	}
	img.Ihdr.Palette = newPalette
	return true
}

func paletteEntry(palette []colors.RGBA8, i int) colors.RGBA8 {
	if i < len(palette) {
		return palette[i]
	}
	return colors.RGBA8{A: 255}
}

func sortValue(palette []colors.RGBA8, i int) int32 {
	return paletteEntry(palette, i).SortKey()
}

func markUsedIndices(img *pngimage.Image, used []bool) {
	for _, f := range img.Frames {
		width, height := int(f.Width), int(f.Height)
		stride := pngimage.BytesPerRow(f.Width, colors.Indexed, img.Ihdr.BitDepth)
		for y := 0; y < height; y++ {
			row := f.Data[y*stride : (y+1)*stride]
			for x := 0; x < width; x++ {
				idx := pngimage.GetPixel(row, x, colors.Indexed, img.Ihdr.BitDepth)[0]
				if int(idx) < len(used) {
					used[idx] = true
				}
			}
		}
	}
}

func remapIndices(f *pngimage.Frame, bitDepth colors.BitDepth, remap []uint8) {
	width, height := int(f.Width), int(f.Height)
	stride := pngimage.BytesPerRow(f.Width, colors.Indexed, bitDepth)
	for y := 0; y < height; y++ {
		row := f.Data[y*stride : (y+1)*stride]
		for x := 0; x < width; x++ {
			v := pngimage.GetPixel(row, x, colors.Indexed, bitDepth)
			v[0] = uint16(remap[v[0]])
			pngimage.SetPixel(row, x, colors.Indexed, bitDepth, v)
		}
	}
}

// RemapBackgroundIndex adjusts a bKGD chunk's palette index the same way
// ReducePalette remapped pixel data, so a background color reference
// still points at the right palette entry. Returns the chunk unchanged
// if it isn't a 1-byte palette index (i.e. the image isn't Indexed).
func RemapBackgroundIndex(data []byte, remap []uint8) []byte {
	if len(data) != 1 {
		return data
	}
	return []byte{remap[data[0]]}
}
