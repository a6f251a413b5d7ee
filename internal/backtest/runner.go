// Package backtest wires the candle pipeline, a strategy, and the simulated
// exchange into a replay loop.
//
// Orders a strategy emits on bar N are filed and executed against bar N+1,
// so a signal can never fill at prices the strategy had already seen.
package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"tradesim/internal/exchange"
	"tradesim/internal/model"
	"tradesim/internal/pipeline"
	"tradesim/internal/report"
	"tradesim/internal/strategy"
)

// Config describes one backtest run.
type Config struct {
	// Base is the timeframe of the incoming candle stream, e.g. "1m".
	Base string

	Strategy     strategy.Strategy
	StartBalance float64

	// Keep bounds table retention; 0 keeps everything.
	Keep int

	// Indicators beyond what the strategy declares, keyed by timeframe.
	// Useful for recording extra columns alongside a run.
	Indicators map[string][]pipeline.IndicatorSpec

	Logger *slog.Logger

	// OnReports, when set, receives each step's execution reports. Used to
	// journal fills.
	OnReports func([]exchange.Report)

	// OnBar, when set, is called after each accepted bar with the account
	// state at that point. Used to drive gauges.
	OnBar func(c model.Candle, st exchange.State)
}

// Runner replays a candle source through the pipeline and strategy.
type Runner struct {
	cfg   Config
	pipe  *pipeline.Pipeline
	state exchange.State

	pendingOrders []exchange.Order
	pendingEdits  []exchange.Edit
}

// New builds a runner, merging the strategy's indicator needs into the
// pipeline configuration.
func New(cfg Config) (*Runner, error) {
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("backtest: no strategy configured")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	inds := make(map[string][]pipeline.IndicatorSpec, len(cfg.Indicators)+1)
	for tf, specs := range cfg.Indicators {
		inds[tf] = append(inds[tf], specs...)
	}
	stratTF := cfg.Strategy.Timeframe()
	inds[stratTF] = append(inds[stratTF], cfg.Strategy.Indicators()...)

	pipe, err := pipeline.New(pipeline.Config{
		Base:       cfg.Base,
		Indicators: inds,
		Inverted:   true,
		Keep:       cfg.Keep,
	})
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	return &Runner{
		cfg:   cfg,
		pipe:  pipe,
		state: exchange.NewState(cfg.StartBalance),
	}, nil
}

// Pipeline exposes the underlying pipeline, mainly for inspection after a run.
func (r *Runner) Pipeline() *pipeline.Pipeline { return r.pipe }

// State returns the current account state.
func (r *Runner) State() exchange.State { return r.state }

// Run drains the candle source and returns the run summary. It stops early
// when ctx is cancelled or the source errors.
func (r *Runner) Run(ctx context.Context, src model.CandleSource) (report.Summary, error) {
	log := r.cfg.Logger
	builder := report.NewBuilder(r.cfg.StartBalance)
	stratTF := r.cfg.Strategy.Timeframe()
	lastClose := 0.0

	for {
		c, ok, err := src.Next(ctx)
		if err != nil {
			return builder.Finish(r.state.MarkToMarket(lastClose)), fmt.Errorf("backtest: source: %w", err)
		}
		if !ok {
			break
		}

		// The pipeline decides first: a bar it refuses never reaches
		// matching, so a stale re-delivery cannot fill orders at prices
		// the strategy has already seen.
		res := r.pipe.Step(c)
		if res.Dropped {
			continue
		}

		// Signals raised on the previous accepted bar execute here.
		st, reps := exchange.Step(r.state, r.pendingOrders, r.pendingEdits, &c)
		r.state = st
		r.pendingOrders = r.pendingOrders[:0]
		r.pendingEdits = r.pendingEdits[:0]
		r.observe(log, builder, reps)
		lastClose = c.Close
		builder.ObserveEquity(c.TS, r.state.MarkToMarket(c.Close))
		if r.cfg.OnBar != nil {
			r.cfg.OnBar(c, r.state)
		}

		if res.Boundaries[stratTF] {
			orders, edits := r.cfg.Strategy.OnBoundary(r.pipe.Table(stratTF), r.state)
			r.pendingOrders = append(r.pendingOrders, orders...)
			r.pendingEdits = append(r.pendingEdits, edits...)
		}
	}

	sum := builder.Finish(r.state.MarkToMarket(lastClose))
	log.Info("backtest complete",
		"bars", sum.Bars,
		"fills", sum.Fills,
		"net_pnl", sum.NetPnL.String(),
		"final_balance", sum.FinalBalance.String(),
	)
	return sum, nil
}

func (r *Runner) observe(log *slog.Logger, builder *report.Builder, reps []exchange.Report) {
	builder.ObserveReports(reps)
	if r.cfg.OnReports != nil && len(reps) > 0 {
		r.cfg.OnReports(reps)
	}
	for _, rep := range reps {
		switch rep.Status {
		case exchange.Filled:
			log.Info("fill",
				"order_id", rep.Order.ID,
				"side", rep.Order.Side.String(),
				"qty", rep.Order.Qty,
				"price", rep.FillPrice,
				"realized", rep.Realized,
			)
		case exchange.Rejected:
			log.Warn("order rejected", "order_id", rep.Order.ID, "reason", rep.Reason)
		}
	}
}
