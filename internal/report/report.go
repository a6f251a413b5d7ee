// Package report accumulates execution results into a backtest summary.
// Monetary aggregates use decimal arithmetic so repeated additions over long
// runs do not drift.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/exchange"
)

// Summary is the final accounting of a backtest run.
type Summary struct {
	Bars       int             `json:"bars"`
	Fills      int             `json:"fills"`
	Rejections int             `json:"rejections"`
	Wins       int             `json:"wins"`
	Losses     int             `json:"losses"`
	GrossWin   decimal.Decimal `json:"gross_win"`
	GrossLoss  decimal.Decimal `json:"gross_loss"`
	NetPnL     decimal.Decimal `json:"net_pnl"`

	StartBalance decimal.Decimal `json:"start_balance"`
	FinalBalance decimal.Decimal `json:"final_balance"`
	MaxDrawdown  decimal.Decimal `json:"max_drawdown"`

	FirstBar time.Time `json:"first_bar"`
	LastBar  time.Time `json:"last_bar"`
}

// WinRate returns wins over decided trades, 0 when no trade closed.
func (s Summary) WinRate() decimal.Decimal {
	decided := s.Wins + s.Losses
	if decided == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Wins)).
		Div(decimal.NewFromInt(int64(decided))).
		Round(4)
}

// Builder accumulates per-step execution reports and equity marks.
type Builder struct {
	sum  Summary
	peak decimal.Decimal
}

// NewBuilder starts a summary from the given opening balance.
func NewBuilder(startBalance float64) *Builder {
	start := decimal.NewFromFloat(startBalance)
	return &Builder{
		sum:  Summary{StartBalance: start, FinalBalance: start},
		peak: start,
	}
}

// ObserveReports folds one step's execution reports into the summary.
func (b *Builder) ObserveReports(reports []exchange.Report) {
	for _, r := range reports {
		switch r.Status {
		case exchange.Filled:
			b.sum.Fills++
			if !r.Reduced {
				continue
			}
			pnl := decimal.NewFromFloat(r.Realized)
			b.sum.NetPnL = b.sum.NetPnL.Add(pnl)
			if pnl.Sign() >= 0 {
				b.sum.Wins++
				b.sum.GrossWin = b.sum.GrossWin.Add(pnl)
			} else {
				b.sum.Losses++
				b.sum.GrossLoss = b.sum.GrossLoss.Add(pnl.Neg())
			}
		case exchange.Rejected:
			b.sum.Rejections++
		}
	}
}

// ObserveEquity records the mark-to-market account value after one bar and
// updates the running drawdown.
func (b *Builder) ObserveEquity(ts time.Time, equity float64) {
	b.sum.Bars++
	if b.sum.FirstBar.IsZero() {
		b.sum.FirstBar = ts
	}
	b.sum.LastBar = ts

	eq := decimal.NewFromFloat(equity)
	if eq.GreaterThan(b.peak) {
		b.peak = eq
	}
	if dd := b.peak.Sub(eq); dd.GreaterThan(b.sum.MaxDrawdown) {
		b.sum.MaxDrawdown = dd
	}
}

// Finish seals the summary with the closing balance.
func (b *Builder) Finish(finalBalance float64) Summary {
	b.sum.FinalBalance = decimal.NewFromFloat(finalBalance)
	return b.sum
}

// Render formats the summary as the boxed text block printed at the end of a
// run.
func Render(s Summary) string {
	var sb strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&sb, "║  %-18s %-16s ║\n", label+":", value)
	}
	sb.WriteString("╔══════════════════════════════════════╗\n")
	sb.WriteString("║         BACKTEST COMPLETE            ║\n")
	sb.WriteString("╠══════════════════════════════════════╣\n")
	line("Bars", fmt.Sprintf("%d", s.Bars))
	line("Fills", fmt.Sprintf("%d", s.Fills))
	line("Rejections", fmt.Sprintf("%d", s.Rejections))
	line("Wins / Losses", fmt.Sprintf("%d / %d", s.Wins, s.Losses))
	line("Win rate", s.WinRate().String())
	line("Net PnL", s.NetPnL.String())
	line("Max drawdown", s.MaxDrawdown.String())
	line("Final balance", s.FinalBalance.String())
	sb.WriteString("╚══════════════════════════════════════╝")
	return sb.String()
}
