package oxipng

import (
	"runtime"

	"github.com/oxipng/oxipng/internal/filters"
	"github.com/oxipng/oxipng/internal/headers"
)

// MinGainKind tags which MinGain variant is active.
type MinGainKind int

const (
	MinGainNone MinGainKind = iota
	MinGainBytes
	MinGainRatio
)

// MinGain gates whether a write happens at all: if the achieved savings
// fall below the threshold, the original bytes are returned unchanged.
type MinGain struct {
	Kind  MinGainKind
	Bytes int
	Ratio float64
}

// Met reports whether shrinking from inSize to outSize clears the gate.
func (g MinGain) Met(inSize, outSize int) bool {
	switch g.Kind {
	case MinGainBytes:
		return inSize-outSize >= g.Bytes
	case MinGainRatio:
		if inSize == 0 {
			return false
		}
		return float64(inSize-outSize)/float64(inSize) >= g.Ratio
	default:
		return true
	}
}

// ReductionToggles controls which parts of the reduction cascade run,
// mirroring oxipng's per-reduction opt-out flags in options.rs. Grayscale
// reduction is kept as its own toggle (rather than folded into
// ColorTypeReduction) since the original lets RGB->Grayscale and
// GrayscaleAlpha->Grayscale be disabled independently of the rest of the
// cascade.
type ReductionToggles struct {
	BitDepthReduction  bool
	ColorTypeReduction bool
	PaletteReduction   bool
	GrayscaleReduction bool
	Scale16            bool
	Interlace          *headers.Interlacing // nil means "leave as-is"
}

// DefaultReductionToggles enables every lossless reduction; Scale16 stays
// opt-in since it changes pixel values (though not visible rendering) for
// images that aren't already losslessly 8-bit-representable.
var DefaultReductionToggles = ReductionToggles{
	BitDepthReduction:  true,
	ColorTypeReduction: true,
	PaletteReduction:   true,
	GrayscaleReduction: true,
}

// Options configures one optimization run, following the shape of oxipng's
// options.rs: a flat struct of independently meaningful knobs rather than a
// builder, since every example repo in the pack favors plain struct literals
// over functional options.
type Options struct {
	// CompressionLevel is the zlib level (0-12 on oxipng's scale) the
	// Deflater uses for trial and final compression.
	CompressionLevel int
	// Filters is the set of FilterStrategy values the evaluator tries.
	// An empty set means "reuse the original filter_used, recompress only".
	Filters []filters.FilterStrategy
	// FastEvaluation runs a cheap first pass at the baseline level to rank
	// filters, then a full pass at CompressionLevel with only the winner.
	FastEvaluation bool

	Reductions ReductionToggles

	// OptimizeAlpha enables the opt-in alpha-channel color-byte rewrite for
	// fully transparent pixels.
	OptimizeAlpha bool

	// IdatRecoding forces a filter/deflate round even when no reduction was
	// accepted. A reduction always forces recoding regardless of this flag.
	IdatRecoding bool

	// Strip controls which ancillary chunks survive to the output.
	Strip headers.StripChunks

	// MaxDecompressedSize caps IDAT/fdAT inflation during assembly; 0 means
	// unbounded. Guards against decompression bombs.
	MaxDecompressedSize int

	// MaxIDATChunkLen caps each emitted IDAT/fdAT chunk's payload length; 0
	// means the 2^31-1 hard limit.
	MaxIDATChunkLen int

	// Lenient tolerates CRC mismatches on read instead of failing.
	Lenient bool

	// Force writes the output even if it isn't smaller than the input.
	Force bool

	// Threads bounds evaluator worker-pool concurrency; 0 or negative
	// leaves it effectively unbounded. OptionsFromPreset sets it to
	// runtime.GOMAXPROCS(0).
	Threads int
}

// DefaultOptions returns preset 2's configuration: the point where filter
// re-selection starts paying off without the cost of brute-force trials.
func DefaultOptions() Options {
	return OptionsFromPreset(2)
}

// MaxCompression returns preset 6's configuration, oxipng's
// Options::max_compression.
func MaxCompression() Options {
	return OptionsFromPreset(6)
}

// OptionsFromPreset mirrors original_source/src/options.rs's
// apply_preset_{0..6}: each preset level fixes a deflater level and a
// filter search space, trading optimization time for ratio. Levels above 6
// clamp to 6 (the CLI, not this core, is responsible for warning about an
// out-of-range request).
func OptionsFromPreset(level int) Options {
	opts := Options{
		Reductions:      DefaultReductionToggles,
		IdatRecoding:    true,
		MaxIDATChunkLen: 0,
		Threads:         runtime.GOMAXPROCS(0),
	}

	switch {
	case level <= 0:
		opts.CompressionLevel = 5
		opts.Filters = nil
	case level == 1:
		opts.CompressionLevel = 10
		opts.Filters = nil
	case level == 2:
		opts.CompressionLevel = 11
		opts.Filters = []filters.FilterStrategy{
			filters.StrategyNone, filters.StrategySub,
			filters.StrategyEntropy, filters.StrategyBigrams,
		}
	case level == 3:
		opts.CompressionLevel = 11
		opts.Filters = []filters.FilterStrategy{
			filters.StrategyNone, filters.StrategyBigrams, filters.StrategyBigEnt,
			filters.BruteStrategy(3, 1),
		}
	case level == 4:
		opts.CompressionLevel = 12
		opts.Filters = []filters.FilterStrategy{
			filters.StrategyNone, filters.StrategyBigrams, filters.StrategyBigEnt,
			filters.BruteStrategy(4, 1),
		}
	case level == 5:
		opts.CompressionLevel = 12
		opts.Filters = []filters.FilterStrategy{
			filters.StrategyNone, filters.StrategySub, filters.StrategyUp,
			filters.StrategyMinSum, filters.StrategyEntropy, filters.StrategyBigrams,
			filters.StrategyBigEnt, filters.BruteStrategy(4, 4),
		}
	default: // >= 6
		opts.CompressionLevel = 12
		opts.Filters = []filters.FilterStrategy{
			filters.StrategyNone, filters.StrategySub, filters.StrategyUp,
			filters.StrategyAverage, filters.StrategyPaeth,
			filters.StrategyMinSum, filters.StrategyEntropy, filters.StrategyBigrams,
			filters.StrategyBigEnt, filters.BruteStrategy(8, 5),
		}
	}
	return opts
}
