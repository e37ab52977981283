package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// New returns an empty portfolio denominated in currency
func New(currency string) (*Portfolio, error) {
	if currency == "" {
		return nil, errEmptyCurrency
	}
	return &Portfolio{
		currency:  strings.ToUpper(currency),
		positions: position.NewHandler(),
	}, nil
}

// Currency returns the portfolio currency
func (p *Portfolio) Currency() string {
	return p.currency
}

// Cash returns the available cash
func (p *Portfolio) Cash() decimal.Decimal {
	return p.cash
}

// Positions returns the position handler
func (p *Portfolio) Positions() *position.Handler {
	return p.positions
}

// History returns a copy of the ledger
func (p *Portfolio) History() []Event {
	resp := make([]Event, len(p.history))
	copy(resp, p.history)
	return resp
}

// SubscribeFunds adds cash to the portfolio
func (p *Portfolio) SubscribeFunds(amount decimal.Decimal, ts time.Time) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: subscription of %v %v", ErrBadAmount, amount, p.currency)
	}
	p.cash = p.cash.Add(amount)
	p.history = append(p.history, Event{Type: Subscription, Amount: amount, Cash: p.cash, Timestamp: ts})
	return nil
}

// WithdrawFunds removes cash from the portfolio
func (p *Portfolio) WithdrawFunds(amount decimal.Decimal, ts time.Time) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: withdrawal of %v %v", ErrBadAmount, amount, p.currency)
	}
	if amount.GreaterThan(p.cash) {
		return fmt.Errorf("%w: withdrawal of %v %v, cash %v", ErrInsufficientCash, amount, p.currency, p.cash)
	}
	p.cash = p.cash.Sub(amount)
	p.history = append(p.history, Event{Type: Withdrawal, Amount: amount.Neg(), Cash: p.cash, Timestamp: ts})
	return nil
}

// Transact applies a fill to its position and moves cash by its signed cost.
// A fill costing more than the available cash is refused and leaves the
// portfolio unchanged. The applied transaction is returned
func (p *Portfolio) Transact(t *position.Transaction) (*position.Transaction, error) {
	if t == nil {
		return nil, common.ErrNilArguments
	}
	if cost := t.CostWithCommission(); cost.GreaterThan(p.cash) {
		log.Warnf(log.Portfolio, "refusing %v: cost %v exceeds cash %v %v", t, cost, p.cash, p.currency)
		return nil, fmt.Errorf("%w: cost %v, cash %v", ErrInsufficientCash, cost, p.cash)
	}
	effective, err := p.positions.Transact(t)
	if err != nil {
		return nil, err
	}
	if effective.Size.IsZero() {
		log.Warnf(log.Portfolio, "%v %v had no open size to apply, cash unchanged", t.Asset, t.Direction)
		return effective, nil
	}
	debit := effective.CostWithCommission()
	p.cash = p.cash.Sub(debit)
	p.history = append(p.history, Event{
		Type:        Trade,
		Amount:      debit.Neg(),
		Cash:        p.cash,
		Timestamp:   effective.Timestamp,
		Transaction: effective,
	})
	log.Debugf(log.Portfolio, "transacted %v, cash %v %v", effective, p.cash, p.currency)
	return effective, nil
}

// UpdateMarketValue marks every position of the asset to price. Unknown
// assets are ignored. Zero is a valid mark, negative prices are refused
func (p *Portfolio) UpdateMarketValue(a market.Asset, price decimal.Decimal, ts time.Time) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: %v %v", ErrBadPrice, a, price)
	}
	return p.positions.UpdatePrice(a, price, ts)
}

// HasPosition returns whether a position is open for asset and direction
func (p *Portfolio) HasPosition(a market.Asset, d order.Direction) bool {
	return p.positions.HasPosition(a, d)
}

// NetSize returns the signed net size of a position
func (p *Portfolio) NetSize(a market.Asset, d order.Direction) decimal.Decimal {
	return p.positions.NetSize(a, d)
}

// TotalMarketValue sums the signed market value of every position
func (p *Portfolio) TotalMarketValue() decimal.Decimal {
	return p.positions.TotalMarketValue()
}

// TotalEquity is cash plus total market value
func (p *Portfolio) TotalEquity() decimal.Decimal {
	return p.cash.Add(p.positions.TotalMarketValue())
}

// TotalRealisedPnL sums realised profit including closed positions
func (p *Portfolio) TotalRealisedPnL() decimal.Decimal {
	return p.positions.TotalRealisedPnL()
}

// TotalUnrealisedPnL sums open profit
func (p *Portfolio) TotalUnrealisedPnL() decimal.Decimal {
	return p.positions.TotalUnrealisedPnL()
}

// Snapshot returns a copy of the portfolio's current valuation
func (p *Portfolio) Snapshot() Snapshot {
	positions := p.positions.Positions()
	resp := Snapshot{
		Currency:       p.currency,
		Cash:           p.cash,
		MarketValue:    p.TotalMarketValue(),
		Equity:         p.TotalEquity(),
		RealisedPnL:    p.TotalRealisedPnL(),
		UnrealisedPnL:  p.TotalUnrealisedPnL(),
		Positions:      make([]PositionSnapshot, len(positions)),
		HistoryEntries: len(p.history),
	}
	for i := range positions {
		resp.Positions[i] = PositionSnapshot{
			Asset:         positions[i].Asset,
			Direction:     positions[i].Direction,
			NetSize:       positions[i].NetSize(),
			AvgPrice:      positions[i].AvgPrice(),
			Price:         positions[i].Price,
			MarketValue:   positions[i].MarketValue(),
			RealisedPnL:   positions[i].RealisedPnL,
			UnrealisedPnL: positions[i].UnrealisedPnL(),
		}
	}
	return resp
}
