// Package prefetch runs a background planner that keeps the frame
// cache warm around a viewer's current position, using a generation
// counter for cooperative cancellation instead of hard goroutine
// kills: superseded work notices the mismatch at its next checkpoint
// and returns quietly.
package prefetch

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/openexr-go/exrcore/cache"
	"github.com/openexr-go/exrcore/exr"
)

// Strategy selects which frames around Current the planner visits,
// and in what order.
type Strategy int

const (
	// OnDemand visits only Current, then Recent in most-recently-used
	// order.
	OnDemand Strategy = iota
	// Forward visits Current+1, Current+2, ... wrapping modulo Length.
	Forward
	// Bidirectional visits an expanding radius around Current,
	// alternating +r/-r.
	Bidirectional
	// FullRange visits Current, Current+1, ..., Current-1, wrapping
	// modulo Length: the entire sequence once, starting at Current.
	FullRange
)

// FrameSource maps a sequence index to the FrameID the cache should
// key it under and supplies that frame's raw bytes.
type FrameSource interface {
	FrameID(index int) cache.FrameID
	ReadBytes(ctx context.Context, index int) ([]byte, error)
}

// Config parameterizes one Start call.
type Config struct {
	Strategy    Strategy
	Current     int
	Length      int // total frames in the sequence
	Concurrency int // clamped to [1, 8]
	// Recent holds prior positions, most-recently-visited first, used
	// only by OnDemand.
	Recent []int
}

// Planner is a generational, cooperatively-cancellable prefetch
// worker. It is not safe for concurrent Start calls; Start itself
// is safe to call repeatedly from one goroutine (e.g. on every
// viewer navigation) and supersedes any run still in flight.
type Planner struct {
	cache      *cache.FrameCache
	source     FrameSource
	sink       exr.EventSink
	generation atomic.Uint64
}

// New returns a planner backed by c, pulling frame bytes from source.
func New(c *cache.FrameCache, source FrameSource) *Planner {
	return &Planner{cache: c, source: source}
}

// SetEventSink installs sink to receive decode events raised by
// prefetch workers. A nil sink disables delivery.
func (p *Planner) SetEventSink(sink exr.EventSink) {
	p.sink = sink
}

// Start bumps the generation counter, superseding any in-flight run,
// and launches cfg.Concurrency cooperative workers over the index
// order cfg.Strategy describes. Start returns immediately; workers
// run in the background until they finish, are superseded by the
// next Start, or ctx is cancelled.
func (p *Planner) Start(ctx context.Context, cfg Config) {
	gen := p.generation.Add(1)
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 8 {
		concurrency = 8
	}
	order := buildOrder(cfg)
	go p.run(ctx, gen, concurrency, order)
}

func (p *Planner) run(ctx context.Context, gen uint64, concurrency int, order []int) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, idx := range order {
		if p.stale(gen) {
			break
		}
		id := p.source.FrameID(idx)
		if p.cache.HasFrame(id) {
			continue
		}
		idx := idx
		g.Go(func() error {
			p.processOne(gctx, gen, idx)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Planner) stale(gen uint64) bool {
	return p.generation.Load() != gen
}

// processOne runs the three-stage pipeline for one sequence index:
// read its bytes into the buffer cache, parse its structure, decode
// part 0 into the frame cache. Every stage boundary re-checks the
// generation and the cache, so a superseded or now-redundant fetch
// stops without doing further work. All errors are swallowed here —
// prefetch is advisory, and the embedder's own decode path reports
// errors on the frames it actually needs.
func (p *Planner) processOne(ctx context.Context, gen uint64, idx int) {
	if p.stale(gen) {
		return
	}
	id := p.source.FrameID(idx)
	if p.cache.HasFrame(id) {
		return
	}

	raw, ok := p.cache.GetBuffer(id)
	if !ok {
		data, err := p.source.ReadBytes(ctx, idx)
		if err != nil {
			p.emit("prefetch.read_failed", idx, err)
			return
		}
		p.cache.SetBuffer(id, data)
		raw = data
	}
	if p.stale(gen) {
		return
	}

	file, err := exr.Parse(raw)
	if err != nil {
		p.emit("prefetch.parse_failed", idx, err)
		return
	}
	if p.stale(gen) {
		return
	}

	part, err := exr.DecodePart(file, 0)
	if err != nil {
		p.emit("prefetch.decode_failed", idx, err)
		return
	}
	if p.stale(gen) {
		return
	}

	p.cache.SetFrame(id, cache.FrameEntry{PartID: 0, Structure: file, Part: part})
}

func (p *Planner) emit(code string, idx int, err error) {
	if p.sink == nil {
		return
	}
	p.sink.Notify(exr.Event{
		Phase:   exr.PhaseDecode,
		Level:   exr.LevelWarn,
		Code:    code,
		Message: "prefetch step failed, skipped",
		Metrics: map[string]any{"index": idx, "error": err.Error()},
	})
}

// buildOrder expands cfg into the concrete visit order its strategy
// describes, deduplicated and bounded to cfg.Length.
func buildOrder(cfg Config) []int {
	if cfg.Length <= 0 {
		return nil
	}
	seen := make(map[int]bool, cfg.Length)
	var order []int
	add := func(i int) {
		i = mod(i, cfg.Length)
		if !seen[i] {
			seen[i] = true
			order = append(order, i)
		}
	}

	switch cfg.Strategy {
	case OnDemand:
		add(cfg.Current)
		for _, r := range cfg.Recent {
			add(r)
		}

	case Forward:
		for i := 1; i <= cfg.Length; i++ {
			add(cfg.Current + i)
		}

	case Bidirectional:
		add(cfg.Current)
		for r := 1; r <= cfg.Length; r++ {
			add(cfg.Current + r)
			add(cfg.Current - r)
		}

	case FullRange:
		for i := 0; i < cfg.Length; i++ {
			add(cfg.Current + i)
		}
	}
	return order
}

func mod(i, length int) int {
	i %= length
	if i < 0 {
		i += length
	}
	return i
}
