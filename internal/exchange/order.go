package exchange

// Type tags the order variants the matcher understands. Matching logic
// switches exhaustively over these instead of comparing strings.
type Type uint8

const (
	Market Type = iota
	Limit
	StopMarket
	StopLimit
)

func (t Type) String() string {
	switch t {
	case Market:
		return "market"
	case Limit:
		return "limit"
	case StopMarket:
		return "stop-market"
	case StopLimit:
		return "stop-limit"
	default:
		return "invalid"
	}
}

// Side is the order direction.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Status is an order's lifecycle state in an execution report.
type Status uint8

const (
	Pending Status = iota
	Filled
	Rejected
	Cancelled
	Updated
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Filled:
		return "filled"
	case Rejected:
		return "rejected"
	case Cancelled:
		return "cancelled"
	case Updated:
		return "updated"
	default:
		return "invalid"
	}
}

// Order is a pending instruction to trade. Price is the limit price (Limit,
// StopLimit); StopPrice is the trigger (StopMarket, StopLimit). ReduceOnly
// orders may only shrink an open position, never open or flip one.
type Order struct {
	ID         string  `json:"id"`
	Group      string  `json:"group,omitempty"`
	Type       Type    `json:"type"`
	Side       Side    `json:"side"`
	Qty        float64 `json:"qty"`
	Price      float64 `json:"price,omitempty"`
	StopPrice  float64 `json:"stop_price,omitempty"`
	ReduceOnly bool    `json:"reduce_only,omitempty"`
}

// EditOp selects what an Edit does to pending orders.
type EditOp uint8

const (
	CancelByID EditOp = iota
	CancelByGroup
	UpdateByID
)

// Edit mutates pending orders by id or group, outside OHLC matching.
// For UpdateByID a zero Price/StopPrice/Qty leaves that field unchanged.
type Edit struct {
	Op        EditOp
	ID        string
	Group     string
	Price     float64
	StopPrice float64
	Qty       float64
}

// Report is one entry of the executed-order list returned by Step, in
// execution order. Status is Filled or Rejected for matched orders (Reason
// set when rejected), Cancelled/Updated/Rejected for edit results. Converted
// marks an order that crossed the market and filled as a market order (a
// marketable limit, or a triggered stop-limit whose limit price was out of
// reach); OldType then records the original type.
type Report struct {
	Order     Order   `json:"order"`
	Status    Status  `json:"status"`
	Reason    string  `json:"reason,omitempty"`
	FillPrice float64 `json:"fill_price,omitempty"`
	Converted bool    `json:"converted,omitempty"`
	OldType   Type    `json:"old_type,omitempty"`

	// Realized is the PnL booked by a position-reducing fill, zero otherwise.
	Realized float64 `json:"realized,omitempty"`
	Reduced  bool    `json:"reduced,omitempty"`
}
