// cmd/backtest replays historical candle data through the pipeline, a
// strategy, and the simulated exchange, then prints the run summary.
//
// Usage:
//
//	go run ./cmd/backtest --run=run.yaml --from=0
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tradesim/config"
	"tradesim/internal/backtest"
	"tradesim/internal/exchange"
	"tradesim/internal/feed"
	"tradesim/internal/logger"
	"tradesim/internal/metrics"
	"tradesim/internal/model"
	"tradesim/internal/pipeline"
	"tradesim/internal/report"
	"tradesim/internal/strategy"
	sqlitestore "tradesim/internal/store/sqlite"
)

func main() {
	runPath := flag.String("run", "run.yaml", "Path to the YAML run definition")
	fromTS := flag.Int64("from", 0, "Unix timestamp to start replay from (0=all)")
	level := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	serveMetrics := flag.Bool("metrics", false, "Expose Prometheus metrics during the run")
	flag.Parse()

	// .env is optional; environment wins over file values.
	godotenv.Load()

	log := logger.Init("backtest", logger.ParseLevel(*level))
	cfg := config.Load()

	rc, err := config.LoadRun(*runPath)
	if err != nil {
		log.Error("run config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	src, err := openFeed(ctx, cfg, *fromTS)
	if err != nil {
		log.Error("feed", "err", err)
		os.Exit(1)
	}
	defer src.Close()

	journal, err := sqlitestore.NewJournal(cfg.JournalPath)
	if err != nil {
		log.Error("journal", "err", err)
		os.Exit(1)
	}
	defer journal.Close()

	m := metrics.New(nil)
	if *serveMetrics {
		srv := metrics.NewServer(cfg.MetricsAddr)
		srv.Start()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			srv.Stop(sctx)
		}()
	}

	strat := strategy.NewSMACrossover(rc.Strategy.TF, rc.Strategy.Fast, rc.Strategy.Slow, rc.Strategy.Qty, log)

	extra := make(map[string][]pipeline.IndicatorSpec)
	for _, ind := range rc.Extra {
		extra[ind.TF] = append(extra[ind.TF], pipeline.IndicatorSpec{Name: ind.Name, Params: ind.Params})
	}

	var lastTS time.Time
	runner, err := backtest.New(backtest.Config{
		Base:         rc.Base,
		Strategy:     strat,
		StartBalance: rc.StartBalance,
		Keep:         rc.Keep,
		Indicators:   extra,
		Logger:       log,
		OnReports: func(reps []exchange.Report) {
			m.ObserveReports(reps)
			if err := journal.Record(lastTS, reps); err != nil {
				log.Warn("journal write", "err", err)
			}
		},
		OnBar: func(c model.Candle, st exchange.State) {
			lastTS = c.TS
			m.CandlesTotal.Inc()
			m.ObserveAccount(st, c.Close)
		},
	})
	if err != nil {
		log.Error("runner", "err", err)
		os.Exit(1)
	}
	m.BindPipeline(runner.Pipeline())

	sum, err := runner.Run(ctx, src)
	if err != nil {
		log.Error("run", "err", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(report.Render(sum))
}

func openFeed(ctx context.Context, cfg *config.Config, fromTS int64) (model.CandleSource, error) {
	switch cfg.Feed {
	case "sqlite":
		return feed.NewSQLite(cfg.SQLitePath, fromTS)
	case "redis":
		return feed.NewRedis(feed.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Stream:   cfg.RedisStream,
		})
	case "ws":
		if cfg.WSURL == "" {
			return nil, fmt.Errorf("feed ws: WS_URL not set")
		}
		return feed.DialWS(ctx, cfg.WSURL)
	default:
		return nil, fmt.Errorf("unknown feed %q", cfg.Feed)
	}
}
