package reduction

import (
	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/pngimage"
)

// Toggles controls which parts of the cascade run, mirroring oxipng's
// per-reduction opt-out flags (options.rs) plus the two opt-in transforms
// (scale16, interlacing target is handled separately by the caller since
// it's a target state rather than a toggle).
type Toggles struct {
	BitDepth  bool
	ColorType bool
	Palette   bool
	Grayscale bool
	Scale16   bool
}

// DefaultToggles enables every lossless reduction; scale16 stays opt-in
// even here since it's lossy-in-representation (though not in rendering).
var DefaultToggles = Toggles{BitDepth: true, ColorType: true, Palette: true, Grayscale: true}

// RunCascade applies bit-depth, color-type, and palette reduction once
// each in a single pass, following the ordering lib.rs's optimize() uses:
// bit-depth first (catches a 16-bit image that's trivially narrowable
// before anything else runs), then the color-type cascade (which can
// newly unlock palette and bit-depth reductions of its own), then
// palette, re-running bit-depth whenever color-type reduction landed on
// Indexed or changed sample range. Reports whether anything changed
// across the whole pass.
func RunCascade(img *pngimage.Image, t Toggles) bool {
	changed := false

	if t.BitDepth && ReduceBitDepth(img, t.Scale16) {
		changed = true
	}

	if t.ColorType && ReduceColorType(img, t.Grayscale) {
		changed = true
		if img.Ihdr.ColorType == colors.Indexed && t.Palette {
			ReducePalette(img)
		}
		if t.BitDepth {
			ReduceBitDepth(img, t.Scale16)
		}
	}

	if t.Palette && ReducePalette(img) {
		changed = true
	}

	return changed
}
