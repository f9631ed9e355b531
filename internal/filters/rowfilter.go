// Package filters implements the PNG delta row filters, the heuristic and
// brute-force strategies for choosing among them, and the alpha-aware
// pre-optimization of fully transparent pixels. Grounded on
// shutej-apng/util.go's filter() heuristic and fumin-png/reader.go's
// unfiltering switch, generalized to every bit depth and color type.
package filters

import "fmt"

// RowFilter is one of the five PNG delta filters, per the PNG spec.
type RowFilter uint8

const (
	None RowFilter = iota
	Sub
	Up
	Average
	Paeth
)

// All is every RowFilter in enumeration order.
var All = [5]RowFilter{None, Sub, Up, Average, Paeth}

// SingleLine is the filter set usable when there is no previous scanline to
// reference (single-row images, or images with fewer than two channels'
// worth of cross-line context).
var SingleLine = [2]RowFilter{None, Sub}

func (f RowFilter) String() string {
	switch f {
	case None:
		return "None"
	case Sub:
		return "Sub"
	case Up:
		return "Up"
	case Average:
		return "Average"
	case Paeth:
		return "Paeth"
	default:
		return fmt.Sprintf("RowFilter(%d)", uint8(f))
	}
}

// PaethPredictor is the standard 3-neighbor predictor used by filter type 4:
// the nearest of a, b, c to p = a+b-c, ties broken left, then up, then
// upleft.
func PaethPredictor(a, b, c uint8) uint8 {
	p := int32(a) + int32(b) - int32(c)
	pa := abs32(p - int32(a))
	pb := abs32(p - int32(b))
	pc := abs32(p - int32(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// FilterLine applies f to one scanline of raw bytes, writing the
// filter-byte-prefixed output to dst (which is reset and reused). bpp is
// the number of bytes per complete pixel (max(1,
// ceil(channels*bitdepth/8))). prevLine is the previous reconstructed
// scanline of the same Adam7 pass, or an all-zero slice of the same length
// for the first line of a pass.
func FilterLine(f RowFilter, bpp int, data, prevLine []byte, dst *[]byte) {
	if len(data) != len(prevLine) {
		panic("filters: data/prevLine length mismatch")
	}
	buf := (*dst)[:0]
	buf = append(buf, byte(f))
	switch f {
	case None:
		buf = append(buf, data...)
	case Sub:
		for i, cur := range data {
			var left byte
			if i >= bpp {
				left = data[i-bpp]
			}
			buf = append(buf, cur-left)
		}
	case Up:
		for i, cur := range data {
			buf = append(buf, cur-prevLine[i])
		}
	case Average:
		for i, cur := range data {
			var left uint16
			if i >= bpp {
				left = uint16(data[i-bpp])
			}
			avg := uint8((left + uint16(prevLine[i])) / 2)
			buf = append(buf, cur-avg)
		}
	case Paeth:
		for i, cur := range data {
			var left, upLeft byte
			if i >= bpp {
				left = data[i-bpp]
				upLeft = prevLine[i-bpp]
			}
			buf = append(buf, cur-PaethPredictor(left, prevLine[i], upLeft))
		}
	default:
		panic("filters: bad RowFilter")
	}
	*dst = buf
}

// UnfilterLine reverses FilterLine: data is the filtered bytes (without the
// leading filter-type byte), dst receives the reconstructed raw scanline.
func UnfilterLine(f RowFilter, bpp int, data, prevLine []byte, dst *[]byte) {
	if len(data) != len(prevLine) {
		panic("filters: data/prevLine length mismatch")
	}
	buf := (*dst)[:0]
	switch f {
	case None:
		buf = append(buf, data...)
	case Sub:
		for i, cur := range data {
			var left byte
			if i >= bpp {
				left = buf[i-bpp]
			}
			buf = append(buf, cur+left)
		}
	case Up:
		for i, cur := range data {
			buf = append(buf, cur+prevLine[i])
		}
	case Average:
		for i, cur := range data {
			var left uint16
			if i >= bpp {
				left = uint16(buf[i-bpp])
			}
			avg := uint8((left + uint16(prevLine[i])) / 2)
			buf = append(buf, cur+avg)
		}
	case Paeth:
		for i, cur := range data {
			var left, upLeft byte
			if i >= bpp {
				left = buf[i-bpp]
				upLeft = prevLine[i-bpp]
			}
			buf = append(buf, cur+PaethPredictor(left, prevLine[i], upLeft))
		}
	default:
		panic("filters: bad RowFilter")
	}
	*dst = buf
}
