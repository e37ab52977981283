package position

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// NewHandler returns an empty position handler
func NewHandler() *Handler {
	return &Handler{positions: make(map[market.Asset]map[order.Direction]*Position)}
}

// Transact applies t to its position, creating it if absent and removing it
// once it is flat. The applied transaction is returned
func (h *Handler) Transact(t *Transaction) (*Transaction, error) {
	if t == nil {
		return nil, common.ErrNilArguments
	}
	byDirection, ok := h.positions[t.Asset]
	if !ok {
		byDirection = make(map[order.Direction]*Position)
	}
	var effective *Transaction
	p, ok := byDirection[t.Direction]
	if ok {
		var err error
		effective, err = p.Transact(t)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		p, effective, err = New(t)
		if err != nil {
			return nil, err
		}
	}
	if p.IsZero() {
		h.closedRealised = h.closedRealised.Add(p.RealisedPnL)
		delete(byDirection, t.Direction)
	} else {
		byDirection[t.Direction] = p
	}
	if len(byDirection) == 0 {
		delete(h.positions, t.Asset)
	} else {
		h.positions[t.Asset] = byDirection
	}
	return effective, nil
}

// Position returns the open position for asset and direction
func (h *Handler) Position(a market.Asset, d order.Direction) (*Position, bool) {
	p, ok := h.positions[a][d]
	return p, ok
}

// HasPosition returns whether a position is open for asset and direction
func (h *Handler) HasPosition(a market.Asset, d order.Direction) bool {
	_, ok := h.positions[a][d]
	return ok
}

// NetSize returns the signed net size of a position, zero when absent
func (h *Handler) NetSize(a market.Asset, d order.Direction) decimal.Decimal {
	if p, ok := h.positions[a][d]; ok {
		return p.NetSize()
	}
	return decimal.Zero
}

// Positions returns every open position ordered by asset then direction
func (h *Handler) Positions() []*Position {
	resp := make([]*Position, 0, len(h.positions))
	for _, byDirection := range h.positions {
		for _, p := range byDirection {
			resp = append(resp, p)
		}
	}
	sort.Slice(resp, func(i, j int) bool {
		if c := resp[i].Asset.Compare(resp[j].Asset); c != 0 {
			return c < 0
		}
		return resp[i].Direction < resp[j].Direction
	})
	return resp
}

// Assets returns every asset with at least one open position
func (h *Handler) Assets() []market.Asset {
	resp := make([]market.Asset, 0, len(h.positions))
	for a := range h.positions {
		resp = append(resp, a)
	}
	sort.Slice(resp, func(i, j int) bool {
		return resp[i].Less(resp[j])
	})
	return resp
}

// Len returns the number of open positions
func (h *Handler) Len() int {
	var l int
	for _, byDirection := range h.positions {
		l += len(byDirection)
	}
	return l
}

// UpdatePrice marks both directions of an asset to price. Unknown assets are
// ignored
func (h *Handler) UpdatePrice(a market.Asset, price decimal.Decimal, ts time.Time) error {
	var errs error
	for _, p := range h.positions[a] {
		errs = common.AppendError(errs, p.UpdatePrice(price, ts))
	}
	return errs
}

func (h *Handler) sum(fn func(*Position) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, byDirection := range h.positions {
		for _, p := range byDirection {
			total = total.Add(fn(p))
		}
	}
	return total
}

// TotalMarketValue sums the signed market value of every position
func (h *Handler) TotalMarketValue() decimal.Decimal {
	return h.sum((*Position).MarketValue)
}

// TotalUnrealisedPnL sums open profit
func (h *Handler) TotalUnrealisedPnL() decimal.Decimal {
	return h.sum((*Position).UnrealisedPnL)
}

// TotalRealisedPnL sums realised profit of open and closed positions
func (h *Handler) TotalRealisedPnL() decimal.Decimal {
	return h.closedRealised.Add(h.sum(func(p *Position) decimal.Decimal { return p.RealisedPnL }))
}

// TotalPnL is realised plus unrealised profit
func (h *Handler) TotalPnL() decimal.Decimal {
	return h.TotalRealisedPnL().Add(h.TotalUnrealisedPnL())
}
