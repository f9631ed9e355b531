package filters

// OptimizeAlphaLine rewrites the color bytes of fully-transparent pixels in
// data (a mutable scratch copy of one scanline) so that the delta filter f
// will compress them to near-zero. bpp is bytes per pixel,
// colorBytes is bpp minus the trailing alpha byte count (e.g. 3 for RGBA8,
// 2 for GrayscaleAlpha16's 2-byte gray sample... callers pass the
// byte-accurate split). Grounded on original_source/src/filters.rs's
// optimize_alpha, adapted from Rust's chunks_exact_mut into direct indexing
// since Go lacks a matching mutable-chunk-slice idiom.
func OptimizeAlphaLine(f RowFilter, bpp, colorBytes int, data, prevLine []byte) {
	if f == None {
		// Assume transparent pixels' color bytes are already zero.
		return
	}
	if bpp <= 0 || colorBytes <= 0 || colorBytes >= bpp {
		return
	}
	numPixels := len(data) / bpp

	isTransparent := func(i int) bool {
		px := data[i*bpp : i*bpp+bpp]
		for _, b := range px[colorBytes:] {
			if b != 0 {
				return false
			}
		}
		return true
	}

	for i := 0; i < numPixels; i++ {
		if !isTransparent(i) {
			continue
		}
		prev := i - 1
		if i == 0 {
			prev = i
			for j := 0; j < numPixels; j++ {
				if !isTransparent(j) {
					prev = j
					break
				}
			}
		}

		cur := data[i*bpp : i*bpp+bpp]
		prevUp := prevLine[i*bpp : i*bpp+bpp]

		switch f {
		case Sub:
			if prev != i {
				src := data[prev*bpp : prev*bpp+colorBytes]
				copy(cur[:colorBytes], src)
			}
		case Up:
			copy(cur[:colorBytes], prevUp[:colorBytes])
		case Average:
			for j := 0; j < colorBytes; j++ {
				if i == 0 {
					cur[j] = prevUp[j] >> 1
				} else {
					leftPx := data[(i-1)*bpp : (i-1)*bpp+bpp]
					cur[j] = uint8((uint16(leftPx[j]) + uint16(prevUp[j])) >> 1)
				}
			}
		case Paeth:
			for j := 0; j < colorBytes; j++ {
				if i == 0 {
					prevPx := data[prev*bpp : prev*bpp+bpp]
					a, b := prevPx[j], prevUp[j]
					if a < b {
						cur[j] = a
					} else {
						cur[j] = b
					}
				} else {
					leftPx := data[(i-1)*bpp : (i-1)*bpp+bpp]
					prevLeftUp := prevLine[(i-1)*bpp : (i-1)*bpp+bpp]
					cur[j] = PaethPredictor(leftPx[j], prevUp[j], prevLeftUp[j])
				}
			}
		}
	}
}
