package oxipng

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/oxipng/oxipng/internal/chunkio"
	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/deflate"
	"github.com/oxipng/oxipng/internal/evaluate"
	"github.com/oxipng/oxipng/internal/filters"
	"github.com/oxipng/oxipng/internal/pngimage"
	"github.com/oxipng/oxipng/internal/reduction"
	"github.com/oxipng/oxipng/internal/writer"
)

// InFile selects where Optimize reads its input from: either a named
// path or standard input.
type InFile struct {
	Path    string
	IsStdin bool
}

// FromPath builds an InFile reading from the given filesystem path.
func FromPath(path string) InFile { return InFile{Path: path} }

// FromStdin builds an InFile reading from standard input.
func FromStdin() InFile { return InFile{IsStdin: true} }

// OutFile selects where Optimize writes its output: a named path, a
// request to skip writing, or standard output.
type OutFile struct {
	Path     string
	NoOutput bool
	IsStdout bool
}

// ToPath builds an OutFile writing to the given filesystem path.
func ToPath(path string) OutFile { return OutFile{Path: path} }

// ToStdout builds an OutFile writing to standard output.
func ToStdout() OutFile { return OutFile{IsStdout: true} }

// Discard builds an OutFile that never writes, used to measure a dry run.
func Discard() OutFile { return OutFile{NoOutput: true} }

// OptimizeFromMemory runs the full decode/reduce/evaluate/encode pipeline
// over input and returns the re-encoded bytes, or a *PngError describing
// why the file could not be processed.
func OptimizeFromMemory(ctx context.Context, input []byte, opts Options) ([]byte, error) {
	chunks, err := chunkio.ReadChunks(bytes.NewReader(input), opts.Lenient)
	if err != nil {
		return nil, translateReadErr(err)
	}

	img, err := pngimage.Assemble(chunks, opts.MaxDecompressedSize)
	if err != nil {
		return nil, translateAssembleErr(err)
	}

	hasCaBX := false
	for _, c := range img.AuxChunks {
		if c.Type == "caBX" {
			hasCaBX = true
			break
		}
	}

	out, err := runPipeline(ctx, img, opts, input)
	if err != nil {
		return nil, err
	}

	if hasCaBX && opts.Strip.Keep("caBX") && !bytes.Equal(out, input) {
		return nil, &PngError{Kind: KindC2PAMetadataPreventsChanges}
	}
	return out, nil
}

// Optimize reads in, runs OptimizeFromMemory, and writes the result to out
// unless minGain's threshold isn't met (in which case the original bytes
// are what would have been written, and no write happens, even with Force)
// or the output is not smaller than the input and Force is off. Returns the
// input and output sizes.
func Optimize(ctx context.Context, in InFile, out OutFile, opts Options, minGain MinGain) (inSize, outSize int, err error) {
	input, err := readInput(in)
	if err != nil {
		return 0, 0, err
	}

	output, err := OptimizeFromMemory(ctx, input, opts)
	if err != nil {
		return len(input), 0, err
	}

	inSize = len(input)
	outSize = len(output)

	write := opts.Force || outSize < inSize
	if !minGain.Met(inSize, outSize) {
		write = false
		output = input
		outSize = inSize
	}
	if !write && !opts.Force {
		output = input
		outSize = inSize
	}

	if out.NoOutput || !write {
		return inSize, outSize, nil
	}
	if err := writeOutput(out, output); err != nil {
		return inSize, outSize, err
	}
	return inSize, outSize, nil
}

func readInput(in InFile) ([]byte, error) {
	if in.IsStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, &PngError{Kind: KindReadFailed, Path: "<stdin>", Cause: err}
		}
		return data, nil
	}
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, &PngError{Kind: KindReadFailed, Path: in.Path, Cause: err}
	}
	return data, nil
}

func writeOutput(out OutFile, data []byte) error {
	if out.IsStdout {
		if _, err := os.Stdout.Write(data); err != nil {
			return &PngError{Kind: KindWriteFailed, Path: "<stdout>", Cause: err}
		}
		return nil
	}
	if err := os.WriteFile(out.Path, data, 0o644); err != nil {
		return &PngError{Kind: KindWriteFailed, Path: out.Path, Cause: err}
	}
	return nil
}

// runPipeline implements the REDUCE*/EVAL/WRITE portion of the file
// lifecycle: build the baseline and reduced image variants, evaluate every
// variant under every configured filter, and write the winner.
func runPipeline(ctx context.Context, img *pngimage.Image, opts Options, input []byte) ([]byte, error) {
	deflater := deflate.ZlibDeflater{}

	type variant struct {
		image       *pngimage.Image
		description string
		dirty       bool
	}

	variants := []variant{{image: img, description: "original"}}

	reduced := img.Clone()
	toggles := reduction.Toggles{
		BitDepth:  opts.Reductions.BitDepthReduction,
		ColorType: opts.Reductions.ColorTypeReduction,
		Palette:   opts.Reductions.PaletteReduction,
		Grayscale: opts.Reductions.GrayscaleReduction,
		Scale16:   opts.Reductions.Scale16,
	}
	changed := reduction.RunCascade(reduced, toggles)
	if opts.Reductions.Interlace != nil && reduction.SetInterlacing(reduced, *opts.Reductions.Interlace) {
		changed = true
	}
	if changed {
		variants = append(variants, variant{image: reduced, description: "reduced", dirty: true})
	}

	anyDirty := false
	for _, v := range variants {
		if v.dirty {
			anyDirty = true
		}
	}
	if !anyDirty && !opts.IdatRecoding {
		// Nothing a reduction would change, and recoding wasn't forced:
		// skip filtering/deflating entirely and hand the input straight
		// back, since re-running the pipeline could only match or lose to
		// the bytes already on disk.
		return append([]byte(nil), input...), nil
	}

	estimateHolder := writer.Options{Strip: opts.Strip, MaxIDATChunkLen: opts.MaxIDATChunkLen}
	estimate := func(im *pngimage.Image, idat []byte) int {
		return len(idat) + writer.FixedOverhead(im, estimateHolder)
	}

	strategySets := make([][]filters.FilterStrategy, len(variants))
	for i, v := range variants {
		strategies := opts.Filters
		if len(strategies) == 0 {
			strategies = frameOriginalStrategies(v.image)
		}
		strategySets[i] = strategies
	}

	// fast_evaluation (spec.md §4.6): rank filters at a cheap deflate level
	// first, then run only the winner through the expensive configured
	// level, instead of paying the full level for every losing filter too.
	if opts.FastEvaluation {
		rankLevel := fastEvaluationRankLevel(opts.CompressionLevel)
		for i, v := range variants {
			if len(strategySets[i]) <= 1 {
				continue
			}
			rankEv := evaluate.NewEvaluator(ctx, opts.Threads, rankLevel, deflater, estimate)
			rankEv.TryImage(v.image, v.description, strategySets[i], opts.OptimizeAlpha)
			ranked, err := rankEv.GetBestCandidate()
			if err != nil {
				return nil, errors.Wrap(err, "optimize: fast-evaluation ranking")
			}
			if ranked != nil && len(ranked.FilterUsed) > 0 {
				strategySets[i] = []filters.FilterStrategy{ranked.FilterUsed[0]}
			}
		}
	}

	ev := evaluate.NewEvaluator(ctx, opts.Threads, opts.CompressionLevel, deflater, estimate)
	for i, v := range variants {
		ev.TryImage(v.image, v.description, strategySets[i], opts.OptimizeAlpha)
	}

	best, err := ev.GetBestCandidate()
	if err != nil {
		return nil, errors.Wrap(err, "optimize: evaluation")
	}
	if best == nil {
		return nil, newOther("no viable encoding found")
	}

	frameData, err := splitFrameData(best, opts.CompressionLevel)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	wopts := writer.Options{Strip: opts.Strip, MaxIDATChunkLen: opts.MaxIDATChunkLen}
	if err := writer.WriteImage(&buf, best.Image, frameData, wopts); err != nil {
		return nil, errors.Wrap(err, "optimize: write")
	}
	return buf.Bytes(), nil
}

// frameOriginalStrategies builds a per-image strategy list reusing each
// frame's original per-row filter choice, for presets that skip filter
// re-selection (level <= 1). The evaluator's FilterPlanes dispatch is
// keyed on one FilterStrategy per call, so with mixed per-frame originals
// this degrades to the first frame's sequence length matching every
// frame's row count (true whenever no reduction changed interlacing).
func frameOriginalStrategies(img *pngimage.Image) []filters.FilterStrategy {
	if len(img.Frames) == 0 {
		return []filters.FilterStrategy{filters.StrategyNone}
	}
	return []filters.FilterStrategy{img.Frames[0].OriginalFilters}
}

// splitFrameData produces one independent deflate stream per frame. The
// evaluator scores a candidate by deflating every frame's filtered bytes
// as a single concatenated stream (cheaper, and the right shape for the
// single-frame case, where that stream is the whole IDAT payload
// unmodified). APNG's fdAT chunks each carry their own zlib stream, so for
// a multi-frame candidate each frame's planes are re-filtered with the
// winning per-frame filter sequence and deflated on their own.
func splitFrameData(best *evaluate.Candidate, level int) (writer.FrameData, error) {
	if len(best.Image.Frames) == 1 {
		return writer.FrameData{best.IdatData}, nil
	}

	deflater := deflate.ZlibDeflater{}
	out := make(writer.FrameData, len(best.Image.Frames))
	for i, frame := range best.Image.Frames {
		planes := best.Image.Plane(&frame)
		filtered, _, err := filters.FilterPlanes(planes, best.FilterUsed[i], false, nil)
		if err != nil {
			return nil, errors.Wrap(err, "optimize: re-filter frame")
		}
		idat, err := deflater.Deflate(filtered, level, 0)
		if err != nil {
			return nil, errors.Wrap(err, "optimize: re-deflate frame")
		}
		out[i] = idat
	}
	return out, nil
}

// fastEvaluationRankLevel picks the cheap deflate level fast_evaluation's
// ranking pass uses: fast enough that ranking every losing filter is close
// to free, but still zlib (not HuffmanOnly, which compresses too poorly to
// rank filters meaningfully against each other). A configured level below 1
// is returned unchanged, so level 0 ranks with HuffmanOnly.
func fastEvaluationRankLevel(configured int) int {
	if configured < 1 {
		return configured
	}
	return 1
}

func translateReadErr(err error) error {
	switch {
	case stderrors.Is(err, chunkio.ErrNotPNG):
		return &PngError{Kind: KindNotPNG, Cause: err}
	case stderrors.Is(err, chunkio.ErrTruncated):
		return &PngError{Kind: KindTruncatedData, Cause: err}
	case stderrors.Is(err, chunkio.ErrCRCMismatch):
		return &PngError{Kind: KindCRCMismatch, Cause: err}
	case stderrors.Is(err, chunkio.ErrChunkTooBig):
		return &PngError{Kind: KindInvalidData, Cause: err}
	default:
		return &PngError{Kind: KindInvalidData, Cause: err}
	}
}

func translateAssembleErr(err error) error {
	var missing *pngimage.ChunkMissingError
	var depth *pngimage.InvalidDepthError
	var length *pngimage.IncorrectDataLengthError
	var order *pngimage.APNGOutOfOrderError
	var tooLong *pngimage.InflatedDataTooLongError

	switch {
	case stderrors.As(err, &missing):
		return &PngError{Kind: KindChunkMissing, ChunkType: missing.ChunkType}
	case stderrors.As(err, &depth):
		return &PngError{Kind: KindInvalidDepthForType, BitDepth: parseBitDepth(depth.BitDepth), ColorType: parseColorType(depth.ColorType)}
	case stderrors.As(err, &length):
		return &PngError{Kind: KindIncorrectDataLength, ActualLen: length.Actual, ExpectedLen: length.Expected}
	case stderrors.As(err, &order):
		return &PngError{Kind: KindAPNGOutOfOrder}
	case stderrors.As(err, &tooLong):
		return &PngError{Kind: KindInflatedDataTooLong, Limit: tooLong.Limit}
	default:
		return &PngError{Kind: KindInvalidData, Cause: err}
	}
}

// parseBitDepth/parseColorType recover the typed enum from the string
// formatting pngimage's decode errors use, since those errors carry the
// bit depth and color type as strings.
func parseBitDepth(s string) colors.BitDepth {
	switch s {
	case "1":
		return colors.One
	case "2":
		return colors.Two
	case "4":
		return colors.Four
	case "16":
		return colors.Sixteen
	default:
		return colors.Eight
	}
}

func parseColorType(s string) colors.ColorType {
	switch s {
	case "RGB":
		return colors.RGB
	case "Indexed":
		return colors.Indexed
	case "GrayscaleAlpha":
		return colors.GrayscaleAlpha
	case "RGBA":
		return colors.RGBA
	default:
		return colors.Grayscale
	}
}
