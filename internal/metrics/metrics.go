// Package metrics exposes Prometheus metrics for the backtest engine.
package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	CandlesTotal  prometheus.Counter
	DroppedTotal  prometheus.Counter
	BoundariesHit *prometheus.CounterVec // labels: tf

	IndicatorComputeDur *prometheus.HistogramVec // labels: indicator
	IndicatorsTotal     prometheus.Counter

	OrdersTotal  *prometheus.CounterVec // labels: status
	FillPrice    prometheus.Gauge
	EquityMark   prometheus.Gauge
	OpenPosition prometheus.Gauge
}

// New registers and returns the engine metrics on reg; a nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		CandlesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradesim_candles_total",
			Help: "Total base candles stepped through the pipeline",
		}),
		DroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradesim_candles_dropped_total",
			Help: "Out-of-order candles dropped",
		}),
		BoundariesHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesim_boundaries_total",
			Help: "Bar boundaries crossed per timeframe",
		}, []string{"tf"}),
		IndicatorComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradesim_indicator_compute_duration_seconds",
			Help:    "Indicator insert/update latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"indicator"}),
		IndicatorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradesim_indicator_updates_total",
			Help: "Total indicator insert/update calls",
		}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesim_orders_total",
			Help: "Order reports by status",
		}, []string{"status"}),
		FillPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradesim_last_fill_price",
			Help: "Price of the most recent fill",
		}),
		EquityMark: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradesim_equity",
			Help: "Mark-to-market account value",
		}),
		OpenPosition: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradesim_position",
			Help: "Signed open position",
		}),
	}

	reg.MustRegister(
		m.CandlesTotal,
		m.DroppedTotal,
		m.BoundariesHit,
		m.IndicatorComputeDur,
		m.IndicatorsTotal,
		m.OrdersTotal,
		m.FillPrice,
		m.EquityMark,
		m.OpenPosition,
	)
	return m
}

// Server runs an HTTP server exposing /metrics.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates the metrics server.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("metrics server", "err", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
