// Package evaluate implements the trial scheduler: it
// fans a set of FilterStrategy candidates out across a worker pool, keeps
// a lock-free running best size so losing trials abandon their deflate
// early, and picks the smallest result under a deterministic total order.
// Grounded on original_source/src/evaluate.rs (rayon::spawn + an
// IndexSet of filters + an AtomicMin best size), ported onto
// golang.org/x/sync's errgroup+semaphore pair the way
// ideamans-lightfile6-png's worker pool does, since Go has no rayon
// work-stealing pool in the retrieved examples.
package evaluate

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/oxipng/oxipng/internal/atomicmin"
	"github.com/oxipng/oxipng/internal/deflate"
	"github.com/oxipng/oxipng/internal/filters"
	"github.com/oxipng/oxipng/internal/pngimage"
)

// Candidate is one trial's result: a filtered-and-deflated rendition of an
// image plane set, scored by EstimatedOutputSize. Image is kept so the
// caller can recover which reduction variant won.
type Candidate struct {
	Image               *pngimage.Image
	Description         string
	IdatData            []byte
	EstimatedOutputSize int
	Filter              filters.FilterStrategy
	// FilterUsed holds one entry per frame (same order as Image.Frames),
	// the concrete filter sequence FilterPlanes picked for that frame's
	// planes, so a later pass can replay it without recomputing.
	FilterUsed []filters.FilterStrategy
	nth        int
}

// less implements the candidate ordering: estimated output size
// ASC, image data length ASC, filter ASC, then sequence number DESC (the
// last-submitted candidate — conventionally the baseline — wins ties).
func (c *Candidate) less(o *Candidate) bool {
	if c.EstimatedOutputSize != o.EstimatedOutputSize {
		return c.EstimatedOutputSize < o.EstimatedOutputSize
	}
	cLen, oLen := dataLen(c.Image), dataLen(o.Image)
	if cLen != oLen {
		return cLen < oLen
	}
	if c.Filter.Key() != o.Filter.Key() {
		return c.Filter.Less(o.Filter)
	}
	return c.nth > o.nth
}

func dataLen(img *pngimage.Image) int {
	n := 0
	for _, f := range img.Frames {
		n += len(f.Data)
	}
	return n
}

// EstimateSize computes a trial's estimated final file size:
// the IDAT payload size plus the fixed per-file chunk overhead the final
// write will add, so candidates from different reduction variants (which
// carry different IHDR/PLTE/tRNS overhead) compare fairly.
type EstimateSize func(img *pngimage.Image, idat []byte) int

// Evaluator runs filter/deflate trials concurrently, bounded by a
// semaphore, and tracks the best (smallest) result seen so far so losing
// trials can abort their deflate early via Deflater's maxSize parameter.
type Evaluator struct {
	ctx      context.Context
	sem      *semaphore.Weighted
	deflater deflate.Deflater
	level    int
	estimate EstimateSize
	bestSize *atomicmin.Int
	nth      int

	g    *errgroup.Group
	mu   candidateMu
	best *Candidate
}

// candidateMu is a tiny channel-based mutex wrapper kept as a named type,
// matching the style of shutej-apng's small single-purpose wrapper types.
// Its zero value has a nil channel and blocks forever on lock; build one
// with newMu.
type candidateMu struct{ ch chan struct{} }

func newMu() candidateMu {
	m := candidateMu{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}

func (m candidateMu) lock()   { <-m.ch }
func (m candidateMu) unlock() { m.ch <- struct{}{} }

// NewEvaluator builds an Evaluator bounded to maxWorkers concurrent
// filter/deflate trials (0 or negative means unbounded within the
// errgroup's own goroutine scheduling). level is the oxipng-style 0-12
// compression level every trial's final Deflate call uses (distinct from a
// Brute strategy's own window-trial level, which it carries itself).
func NewEvaluator(ctx context.Context, maxWorkers, level int, deflater deflate.Deflater, estimate EstimateSize) *Evaluator {
	if maxWorkers <= 0 {
		maxWorkers = 1 << 20 // effectively unbounded
	}
	g, gctx := errgroup.WithContext(ctx)
	return &Evaluator{
		ctx:      gctx,
		sem:      semaphore.NewWeighted(int64(maxWorkers)),
		deflater: deflater,
		level:    level,
		estimate: estimate,
		bestSize: atomicmin.NewInt(),
		g:        g,
		mu:       newMu(),
	}
}

// SetBestSize seeds the running best size when a candidate size is already
// known in advance (e.g. the previous optimization round's output), so the
// first batch of trials can abort early instead of always deflating fully.
func (e *Evaluator) SetBestSize(size int) {
	e.bestSize.Set(int64(size))
}

// TryImage schedules one image variant for evaluation: every registered
// filter strategy is tried against it on the worker pool, each producing
// at most one Candidate fed back into the running best.
func (e *Evaluator) TryImage(image *pngimage.Image, description string, strategies []filters.FilterStrategy, optimizeAlpha bool) {
	for _, strat := range strategies {
		e.nth++
		nth := e.nth
		strat := strat
		e.g.Go(func() error {
			if err := e.sem.Acquire(e.ctx, 1); err != nil {
				return nil // context cancelled/deadline passed: stop taking new work
			}
			defer e.sem.Release(1)
			return e.runTrial(image, description, strat, optimizeAlpha, nth)
		})
	}
}

func (e *Evaluator) runTrial(image *pngimage.Image, description string, strat filters.FilterStrategy, optimizeAlpha bool, nth int) error {
	if e.ctx.Err() != nil {
		return nil
	}

	var bruteDeflate filters.BruteDeflate
	if strat.Kind == filters.KindBrute {
		bruteDeflate = func(data []byte, level int) ([]byte, error) {
			return e.deflater.Deflate(data, level, 0)
		}
	}

	var filtered []byte
	used := make([]filters.FilterStrategy, len(image.Frames))
	for i, frame := range image.Frames {
		planes := image.Plane(&frame)
		out, u, err := filters.FilterPlanes(planes, strat, optimizeAlpha, bruteDeflate)
		if err != nil {
			return nil
		}
		filtered = append(filtered, out...)
		used[i] = u
	}

	maxSize := 0
	if sz, ok := e.bestSize.Get(); ok {
		maxSize = int(sz)
	}
	idat, err := e.deflater.Deflate(filtered, e.level, maxSize)
	if err != nil {
		return nil // ErrTooLarge or a real deflate error: this trial loses, not fatal
	}

	size := e.estimate(image, idat)
	e.bestSize.Set(int64(size))

	cand := &Candidate{
		Image:               image,
		Description:         description,
		IdatData:            idat,
		EstimatedOutputSize: size,
		Filter:              strat,
		FilterUsed:          used,
		nth:                 nth,
	}
	e.mu.lock()
	if e.best == nil || cand.less(e.best) {
		e.best = cand
	}
	e.mu.unlock()
	return nil
}

// GetBestCandidate waits for every scheduled trial to finish and returns
// the smallest one under the candidate ordering, or nil if nothing
// was ever scheduled (or every trial failed).
func (e *Evaluator) GetBestCandidate() (*Candidate, error) {
	if err := e.g.Wait(); err != nil {
		return nil, err
	}
	return e.best, nil
}
