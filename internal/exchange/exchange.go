// Package exchange simulates order execution against OHLCV bars without
// contacting a live exchange.
//
// Step is a pure state-transition function: given the pending-order pools,
// the new orders and edits of this step, and the bar to execute against, it
// returns the next state plus execution reports. It is deterministic and
// side-effect-free; identical inputs produce identical outputs. The intrabar
// execution path is synthesized from OHLC alone: the bar is replayed as
// open→high→low→close when the opening move down is larger than the move up,
// open→low→high→close otherwise, with every price inside each leg assumed
// reachable.
package exchange

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"tradesim/internal/model"
)

// idNamespace seeds deterministic v5 order IDs, keeping Step idempotent.
var idNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// State is the full simulator state: pending pools by order type, the signed
// position (long > 0, short < 0, flat 0), the cash balance, and the average
// entry price of the open position. Balance and average entry are only
// mutated by fills recorded in the same Step that produced them.
type State struct {
	PendingLimit  []Order `json:"pending_limit"`
	PendingStop   []Order `json:"pending_stop"`
	PendingMarket []Order `json:"pending_market"`

	Position float64 `json:"position"`
	Balance  float64 `json:"balance"`
	AvgEntry float64 `json:"avg_entry"`

	// Seq numbers exchange-assigned order IDs.
	Seq int `json:"seq"`
}

// NewState returns a flat state with the given starting balance.
func NewState(balance float64) State {
	return State{Balance: balance}
}

// MarkToMarket returns the account value with the open position liquidated
// at price: cash plus the proceeds a full close at that price would book.
func (s State) MarkToMarket(price float64) float64 {
	if s.Position == 0 {
		return s.Balance
	}
	qty := math.Abs(s.Position)
	if s.Position > 0 {
		return s.Balance + qty*s.AvgEntry + (price-s.AvgEntry)*qty
	}
	return s.Balance + qty*s.AvgEntry + (s.AvgEntry-price)*qty
}

// clone deep-copies the pool slices so Step never aliases its input.
func (s State) clone() State {
	s.PendingLimit = append([]Order(nil), s.PendingLimit...)
	s.PendingStop = append([]Order(nil), s.PendingStop...)
	s.PendingMarket = append([]Order(nil), s.PendingMarket...)
	return s
}

// Step files newOrders into the pending pools, executes everything pending
// against the candle, applies edits, and returns the next state plus the
// execution reports in execution order: market fills, then each leg's fills
// in travelled order, then edit results. A nil candle files orders without
// executing anything.
func Step(st State, newOrders []Order, edits []Edit, candle *model.Candle) (State, []Report) {
	next := st.clone()
	var reports []Report

	for _, o := range newOrders {
		if o.ID == "" {
			next.Seq++
			o.ID = uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("order-%d", next.Seq))).String()
		}
		switch o.Type {
		case Market:
			next.PendingMarket = append(next.PendingMarket, o)
		case Limit:
			next.PendingLimit = append(next.PendingLimit, o)
		case StopMarket, StopLimit:
			next.PendingStop = append(next.PendingStop, o)
		default:
			reports = append(reports, Report{
				Order: o, Status: Rejected, Reason: "unknown order type",
			})
		}
	}

	if candle != nil {
		reports = append(reports, match(&next, *candle)...)
	}

	for _, e := range edits {
		reports = append(reports, applyEdit(&next, e))
	}

	return next, reports
}

// match executes pending orders against one bar.
func match(st *State, c model.Candle) []Report {
	var reports []Report

	// Market orders fill first, unconditionally, at the bar's open.
	for _, o := range st.PendingMarket {
		reports = append(reports, fill(st, o, c.Open, false))
	}
	st.PendingMarket = st.PendingMarket[:0]

	// Intrabar path: which extreme was hit first.
	var path []float64
	if c.Open-c.Low > c.High-c.Open {
		path = []float64{c.Open, c.High, c.Low, c.Close}
	} else {
		path = []float64{c.Open, c.Low, c.High, c.Close}
	}

	for i := 0; i+1 < len(path); i++ {
		reports = append(reports, matchLeg(st, path[i], path[i+1])...)
	}
	return reports
}

// candidate pairs a pending order with the price at which this leg touches
// it: the limit price for limit orders, the trigger for stops.
type candidate struct {
	order Order
	touch float64
}

// matchLeg executes orders reachable while price travels from a to b.
func matchLeg(st *State, a, b float64) []Report {
	lo, hi := math.Min(a, b), math.Max(a, b)
	var reports []Report

	// Marketable limits: a buy priced at or above the leg's reachable high
	// (a sell at or below its reachable low) crosses the market and fills
	// immediately at the leg's starting price, converted to a market fill.
	remaining := st.PendingLimit[:0]
	for _, o := range st.PendingLimit {
		if (o.Side == Buy && o.Price >= hi) || (o.Side == Sell && o.Price <= lo) {
			r := fill(st, o, a, true)
			reports = append(reports, r)
			continue
		}
		remaining = append(remaining, o)
	}
	st.PendingLimit = remaining

	// Collect everything the leg touches, then execute in the direction of
	// travel so fills happen in the order price reaches them.
	var touched []candidate
	remaining = st.PendingLimit[:0]
	for _, o := range st.PendingLimit {
		if o.Price >= lo && o.Price <= hi {
			touched = append(touched, candidate{order: o, touch: o.Price})
			continue
		}
		remaining = append(remaining, o)
	}
	st.PendingLimit = remaining

	remaining = st.PendingStop[:0]
	for _, o := range st.PendingStop {
		if o.StopPrice >= lo && o.StopPrice <= hi {
			touched = append(touched, candidate{order: o, touch: o.StopPrice})
			continue
		}
		remaining = append(remaining, o)
	}
	st.PendingStop = remaining

	ascending := b > a
	sort.SliceStable(touched, func(i, j int) bool {
		if ascending {
			return touched[i].touch < touched[j].touch
		}
		return touched[i].touch > touched[j].touch
	})

	for _, cand := range touched {
		o := cand.order
		switch o.Type {
		case Limit:
			reports = append(reports, fill(st, o, o.Price, false))
		case StopMarket:
			reports = append(reports, fill(st, o, o.StopPrice, false))
		case StopLimit:
			if r, ok := triggerStopLimit(st, o, b); ok {
				reports = append(reports, r)
			}
		}
	}
	return reports
}

// triggerStopLimit handles a stop-limit whose trigger was touched: it is now
// a limit order evaluated against the rest of the leg. Reachable limits fill
// at the limit price; crossed ones convert and fill at the trigger, recorded
// the same way as marketable limits; otherwise the order rests silently in
// the limit pool for later bars and the second return is false.
func triggerStopLimit(st *State, o Order, legEnd float64) (Report, bool) {
	rlo, rhi := math.Min(o.StopPrice, legEnd), math.Max(o.StopPrice, legEnd)
	switch {
	case (o.Side == Buy && o.Price >= rhi) || (o.Side == Sell && o.Price <= rlo):
		return fill(st, o, o.StopPrice, true), true
	case o.Price >= rlo && o.Price <= rhi:
		return fill(st, o, o.Price, false), true
	default:
		parked := o
		parked.Type = Limit
		st.PendingLimit = append(st.PendingLimit, parked)
		return Report{}, false
	}
}

// fill applies one execution at price, enforcing reduce-only, balance and
// position constraints. Increasing a position updates the average entry by a
// quantity-weighted average; decreasing one realizes PnL against the prior
// average entry, which is left unchanged while the position stays open and
// reset when flat.
func fill(st *State, o Order, price float64, converted bool) Report {
	r := Report{Order: o, FillPrice: price}
	if converted {
		r.Converted = true
		r.OldType = o.Type
		r.Order.Type = Market
	}

	dir := 1.0
	if o.Side == Sell {
		dir = -1.0
	}
	closing := st.Position != 0 && math.Signbit(st.Position) != math.Signbit(dir)

	if o.ReduceOnly && !closing {
		r.Status = Rejected
		r.Reason = "reduce-only order would increase position"
		return r
	}

	if closing {
		held := math.Abs(st.Position)
		if o.Qty > held {
			r.Status = Rejected
			r.Reason = "quantity exceeds position"
			return r
		}
		var realized float64
		if dir > 0 { // buying back a short
			realized = (st.AvgEntry - price) * o.Qty
		} else { // selling out of a long
			realized = (price - st.AvgEntry) * o.Qty
		}
		st.Balance += o.Qty*st.AvgEntry + realized
		st.Position += dir * o.Qty
		if st.Position == 0 {
			st.AvgEntry = 0
		}
		r.Status = Filled
		r.Realized = realized
		r.Reduced = true
		return r
	}

	cost := o.Qty * price
	if cost > st.Balance {
		r.Status = Rejected
		r.Reason = "insufficient funds"
		return r
	}
	held := math.Abs(st.Position)
	st.AvgEntry = (st.AvgEntry*held + cost) / (held + o.Qty)
	st.Balance -= cost
	st.Position += dir * o.Qty
	r.Status = Filled
	return r
}

// applyEdit mutates pending orders by id or group.
func applyEdit(st *State, e Edit) Report {
	switch e.Op {
	case CancelByID:
		for _, pool := range []*[]Order{&st.PendingLimit, &st.PendingStop, &st.PendingMarket} {
			for i, o := range *pool {
				if o.ID == e.ID {
					*pool = append((*pool)[:i], (*pool)[i+1:]...)
					return Report{Order: o, Status: Cancelled}
				}
			}
		}
		return Report{Order: Order{ID: e.ID}, Status: Rejected, Reason: "no pending order with id"}

	case CancelByGroup:
		removed := 0
		for _, pool := range []*[]Order{&st.PendingLimit, &st.PendingStop, &st.PendingMarket} {
			kept := (*pool)[:0]
			for _, o := range *pool {
				if o.Group == e.Group && e.Group != "" {
					removed++
					continue
				}
				kept = append(kept, o)
			}
			*pool = kept
		}
		if removed == 0 {
			return Report{Order: Order{Group: e.Group}, Status: Rejected, Reason: "no pending orders in group"}
		}
		return Report{
			Order:  Order{Group: e.Group},
			Status: Cancelled,
			Reason: fmt.Sprintf("cancelled %d orders", removed),
		}

	case UpdateByID:
		for _, pool := range []*[]Order{&st.PendingLimit, &st.PendingStop, &st.PendingMarket} {
			for i, o := range *pool {
				if o.ID != e.ID {
					continue
				}
				if e.Price != 0 {
					o.Price = e.Price
				}
				if e.StopPrice != 0 {
					o.StopPrice = e.StopPrice
				}
				if e.Qty != 0 {
					o.Qty = e.Qty
				}
				(*pool)[i] = o
				return Report{Order: o, Status: Updated}
			}
		}
		return Report{Order: Order{ID: e.ID}, Status: Rejected, Reason: "no pending order with id"}

	default:
		return Report{Status: Rejected, Reason: "unknown edit op"}
	}
}
