package position

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/order"
)

// New returns a position for the transaction's asset and direction with the
// transaction applied
func New(t *Transaction) (*Position, *Transaction, error) {
	if t == nil {
		return nil, nil, common.ErrNilArguments
	}
	p := &Position{
		Asset:     t.Asset,
		Direction: t.Direction,
	}
	effective, err := p.Transact(t)
	if err != nil {
		return nil, nil, err
	}
	return p, effective, nil
}

// NetSize is buy size minus sell size
func (p *Position) NetSize() decimal.Decimal {
	return p.BuySize.Sub(p.SellSize)
}

// IsZero returns whether the position holds nothing
func (p *Position) IsZero() bool {
	return p.NetSize().IsZero()
}

// AvgPrice is the opening leg's average price including its commission
func (p *Position) AvgPrice() decimal.Decimal {
	if p.IsZero() {
		return decimal.Zero
	}
	switch p.Direction {
	case order.Long:
		if p.BuySize.IsZero() {
			return decimal.Zero
		}
		return p.AvgBought.Mul(p.BuySize).Add(p.BuyCommission).Div(p.BuySize)
	default:
		if p.SellSize.IsZero() {
			return decimal.Zero
		}
		return p.AvgSold.Mul(p.SellSize).Sub(p.SellCommission).Div(p.SellSize)
	}
}

// MarketValue is price times signed net size
func (p *Position) MarketValue() decimal.Decimal {
	return p.Price.Mul(p.NetSize())
}

// UnrealisedPnL is the open profit at the last price
func (p *Position) UnrealisedPnL() decimal.Decimal {
	return p.Price.Sub(p.AvgPrice()).Mul(p.NetSize())
}

// TotalPnL is realised plus unrealised profit
func (p *Position) TotalPnL() decimal.Decimal {
	return p.RealisedPnL.Add(p.UnrealisedPnL())
}

// Transact applies t and returns the transaction that was actually applied.
// A closing leg larger than the open size is clamped to it, so a position
// never flips through zero
func (p *Position) Transact(t *Transaction) (*Transaction, error) {
	if t == nil {
		return nil, common.ErrNilArguments
	}
	if t.Asset != p.Asset || t.Direction != p.Direction {
		return nil, fmt.Errorf("%w: %v %v applied to %v %v",
			ErrMismatchedPosition, t.Asset, t.Direction, p.Asset, p.Direction)
	}
	if t.Timestamp.Before(p.Timestamp) {
		return nil, fmt.Errorf("%w: %v %v transaction at %v, position updated at %v",
			ErrBackwardsTime, p.Asset, p.Direction, t.Timestamp, p.Timestamp)
	}
	effective := *t
	if t.Size.IsZero() {
		return &effective, nil
	}
	if t.IsClosing() {
		open := p.NetSize().Abs()
		if effective.Size.GreaterThan(open) {
			log.Warnf(log.Portfolio, "%v %v %v size %v exceeds open size %v, clamping",
				p.Asset, p.Direction, t.Action, t.Size, open)
			effective.Size = open
		}
	}
	if effective.Size.IsPositive() {
		switch effective.Action {
		case order.Buy:
			p.buy(&effective)
		default:
			p.sell(&effective)
		}
	}
	p.Price = t.Price
	p.Timestamp = t.Timestamp
	return &effective, nil
}

func (p *Position) buy(t *Transaction) {
	if t.IsClosing() {
		// covering a short realises against the average sale price
		p.RealisedPnL = p.RealisedPnL.Add(p.AvgPrice().Sub(t.Price).Mul(t.Size)).Sub(t.Commission)
	}
	total := p.BuySize.Add(t.Size)
	p.AvgBought = p.AvgBought.Mul(p.BuySize).Add(t.Size.Mul(t.Price)).Div(total)
	p.BuySize = total
	p.BuyCommission = p.BuyCommission.Add(t.Commission)
}

func (p *Position) sell(t *Transaction) {
	if t.IsClosing() {
		p.RealisedPnL = p.RealisedPnL.Add(t.Price.Sub(p.AvgPrice()).Mul(t.Size)).Sub(t.Commission)
	}
	total := p.SellSize.Add(t.Size)
	p.AvgSold = p.AvgSold.Mul(p.SellSize).Add(t.Size.Mul(t.Price)).Div(total)
	p.SellSize = total
	p.SellCommission = p.SellCommission.Add(t.Commission)
}

// UpdatePrice marks the position to price at ts
func (p *Position) UpdatePrice(price decimal.Decimal, ts time.Time) error {
	if ts.Before(p.Timestamp) {
		return fmt.Errorf("%w: %v %v price at %v, position updated at %v",
			ErrBackwardsTime, p.Asset, p.Direction, ts, p.Timestamp)
	}
	p.Price = price
	p.Timestamp = ts
	return nil
}

// String implements fmt.Stringer
func (p *Position) String() string {
	return fmt.Sprintf("%v %v net %v avg %v price %v", p.Asset, p.Direction, p.NetSize(), p.AvgPrice(), p.Price)
}
