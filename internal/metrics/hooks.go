package metrics

import (
	"time"

	"tradesim/internal/exchange"
	"tradesim/internal/model"
	"tradesim/internal/pipeline"
)

// BindPipeline attaches the metrics to a pipeline's observation hooks.
func (m *Metrics) BindPipeline(p *pipeline.Pipeline) {
	p.OnBoundary = func(tf string) {
		m.BoundariesHit.WithLabelValues(tf).Inc()
	}
	p.OnDrop = func(_ model.Candle) { m.DroppedTotal.Inc() }
	p.OnIndicator = func(name string, elapsed time.Duration) {
		m.IndicatorsTotal.Inc()
		m.IndicatorComputeDur.WithLabelValues(name).Observe(elapsed.Seconds())
	}
}

// ObserveReports updates order metrics from one step's execution reports.
func (m *Metrics) ObserveReports(reports []exchange.Report) {
	for _, r := range reports {
		m.OrdersTotal.WithLabelValues(r.Status.String()).Inc()
		if r.Status == exchange.Filled {
			m.FillPrice.Set(r.FillPrice)
		}
	}
}

// ObserveAccount updates the account gauges after a bar.
func (m *Metrics) ObserveAccount(st exchange.State, markPrice float64) {
	m.EquityMark.Set(st.MarkToMarket(markPrice))
	m.OpenPosition.Set(st.Position)
}
