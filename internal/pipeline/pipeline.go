// Package pipeline orchestrates aggregation, market tables and indicators
// across multiple timeframes driven by one base-timeframe candle stream.
//
// Step is a pure, non-suspending computation; the only suspension point is
// candle retrieval, which RunToCompletion delegates to a model.CandleSource.
// Callers serialize all steps.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tradesim/internal/indicator"
	"tradesim/internal/market"
	"tradesim/internal/model"
	"tradesim/internal/timeframe"
)

// IndicatorSpec names one indicator instantiation: a registry name plus its
// numeric parameters, e.g. {"sma", [20]}.
type IndicatorSpec struct {
	Name   string
	Params []float64
}

// Config describes a pipeline: the base timeframe, the indicators to run per
// timeframe, whether the inverted (newest-first) table ordering is
// maintained, and the per-timeframe bar retention (0 = unbounded).
type Config struct {
	Base       string
	Indicators map[string][]IndicatorSpec
	Inverted   bool
	Keep       int
}

// boundIndicator is one indicator instance on one timeframe with its
// threaded streaming state. prev is the state through the last finalized
// bar; curr is the state through the current (possibly still open) bar.
type boundIndicator struct {
	ind     indicator.Indicator
	prev    indicator.State
	curr    indicator.State
	fixedUp bool
}

type track struct {
	tf     timeframe.Timeframe
	agg    *timeframe.Aggregator // nil for the base timeframe
	tbl    *market.Table
	lastTS time.Time
	hasBar bool
	inds   []*boundIndicator
}

// Pipeline maintains one track per distinct timeframe.
type Pipeline struct {
	base      timeframe.Timeframe
	tracks    []*track
	byName    map[string]*track
	keep      int
	lastBase  time.Time
	primed    bool

	// Optional hooks, for metrics. Called synchronously from Step.
	OnBoundary  func(tf string)
	OnDrop      func(c model.Candle)
	OnIndicator func(name string, elapsed time.Duration)
}

// StepResult reports what one Step did.
type StepResult struct {
	// Dropped is true when the candle arrived out of order and was ignored.
	Dropped bool

	// Boundaries maps timeframe name to whether this step opened a new bar
	// of that timeframe.
	Boundaries map[string]bool
}

// New builds a pipeline from a config. Unknown indicator names and malformed
// timeframe strings abort construction.
func New(cfg Config) (*Pipeline, error) {
	base, err := timeframe.Parse(cfg.Base)
	if err != nil {
		return nil, fmt.Errorf("base timeframe: %w", err)
	}

	p := &Pipeline{
		base:   base,
		byName: make(map[string]*track),
		keep:   cfg.Keep,
	}

	addTrack := func(tf timeframe.Timeframe) *track {
		name := tf.String()
		if tr, ok := p.byName[name]; ok {
			return tr
		}
		tr := &track{tf: tf, tbl: market.New(cfg.Inverted)}
		if tf != base {
			tr.agg = timeframe.NewAggregator(tf)
		}
		p.byName[name] = tr
		p.tracks = append(p.tracks, tr)
		return tr
	}

	// The base timeframe is always tracked, with or without indicators.
	addTrack(base)

	for tfStr, specs := range cfg.Indicators {
		tf, err := timeframe.Parse(tfStr)
		if err != nil {
			return nil, fmt.Errorf("timeframe %q: %w", tfStr, err)
		}
		tr := addTrack(tf)
		for _, spec := range specs {
			ind, err := indicator.New(spec.Name, spec.Params)
			if err != nil {
				return nil, fmt.Errorf("timeframe %q: %w", tfStr, err)
			}
			tr.inds = append(tr.inds, &boundIndicator{ind: ind})
		}
	}

	// Deterministic track order: base first, then ascending duration.
	sort.SliceStable(p.tracks, func(i, j int) bool {
		if p.tracks[i].tf == base {
			return p.tracks[j].tf != base
		}
		if p.tracks[j].tf == base {
			return false
		}
		return p.tracks[i].tf.Duration() < p.tracks[j].tf.Duration()
	})

	return p, nil
}

// Timeframes returns the tracked timeframe names in track order.
func (p *Pipeline) Timeframes() []string {
	out := make([]string, len(p.tracks))
	for i, tr := range p.tracks {
		out[i] = tr.tf.String()
	}
	return out
}

// Table returns the market table for a tracked timeframe, or nil.
func (p *Pipeline) Table(tf string) *market.Table {
	tr, ok := p.byName[tf]
	if !ok {
		return nil
	}
	return tr.tbl
}

// Step ingests one base-timeframe candle. Candles older than the latest
// known base timestamp are dropped silently, preserving monotonic ingestion;
// re-delivery of the current timestamp revises bars in place instead of
// appending.
func (p *Pipeline) Step(c model.Candle) StepResult {
	res := StepResult{Boundaries: make(map[string]bool, len(p.tracks))}

	if p.primed && c.TS.Before(p.lastBase) {
		res.Dropped = true
		if p.OnDrop != nil {
			p.OnDrop(c)
		}
		return res
	}
	p.lastBase = c.TS
	p.primed = true

	for _, tr := range p.tracks {
		p.stepTrack(tr, c, res)
	}
	return res
}

func (p *Pipeline) stepTrack(tr *track, c model.Candle, res StepResult) {
	tfc, boundary := c, true
	if tr.agg != nil {
		tfc, boundary = tr.agg.Step(c)
	}

	newBar := false
	switch {
	case boundary && (!tr.hasBar || !tfc.TS.Equal(tr.lastTS)):
		tr.tbl.AppendBar(tfc)
		newBar = true
	case !tr.hasBar:
		// Stream started mid-bar: seed the first (partial) bar without
		// treating it as a boundary.
		tr.tbl.AppendBar(tfc)
	default:
		tr.tbl.ReviseBar(tfc)
	}
	tr.lastTS = tfc.TS
	tr.hasBar = true

	name := tr.tf.String()
	res.Boundaries[name] = newBar
	if newBar && p.OnBoundary != nil {
		p.OnBoundary(name)
	}

	for _, bi := range tr.inds {
		start := time.Now()
		if newBar {
			p.insert(tr, bi)
		} else {
			bi.curr = bi.ind.Update(tr.tbl, bi.prev)
		}
		if p.OnIndicator != nil {
			p.OnIndicator(bi.ind.Name(), time.Since(start))
		}
	}

	if p.keep > 0 {
		tr.tbl.Trim(p.keep)
	}
}

// insert finalizes the previous bar and opens a new output slot, applying
// the first-value fix-up on aggregated timeframes: the very first state is
// computed against a table whose opening bar was still partial, so Insert is
// replayed against a snapshot rewound by one bar to recover the state through
// the finalized bars, and the just-opened bar's provisional output is
// re-derived from that state. The re-derivation matters when the base stream
// gaps straight to the next boundary: the open bar then finalizes without any
// in-bar update, and must already hold its own value.
func (p *Pipeline) insert(tr *track, bi *boundIndicator) {
	bi.prev = bi.curr
	bi.curr = bi.ind.Insert(tr.tbl, bi.prev)

	if bi.fixedUp || bi.curr == nil {
		return
	}
	if bi.prev == nil && tr.agg != nil {
		rewound := tr.tbl.Rewound()
		if st := bi.ind.Insert(rewound, nil); st != nil {
			bi.prev = st
			bi.curr = bi.ind.Update(tr.tbl, bi.prev)
		}
	}
	bi.fixedUp = true
}

// RunToCompletion pulls candles from src and steps the pipeline until the
// source is exhausted or the context is cancelled.
func (p *Pipeline) RunToCompletion(ctx context.Context, src model.CandleSource) error {
	for {
		c, ok, err := src.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		p.Step(c)
	}
}
