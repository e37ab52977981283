package position

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// NewTransaction validates and returns a fill with a fresh ID
func NewTransaction(a market.Asset, action order.Action, direction order.Direction, size, price, commission decimal.Decimal, orderID string, ts time.Time) (*Transaction, error) {
	t := &Transaction{
		Asset:      a,
		Size:       size,
		Action:     action,
		Direction:  direction,
		Price:      price,
		OrderID:    orderID,
		Commission: commission,
		Timestamp:  ts,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	t.ID = id.String()
	return t, nil
}

// Validate checks the fill can be applied to a position
func (t *Transaction) Validate() error {
	if err := t.Asset.Validate(); err != nil {
		return err
	}
	if err := t.Action.Validate(); err != nil {
		return err
	}
	if err := t.Direction.Validate(); err != nil {
		return err
	}
	if !t.Size.IsPositive() {
		return fmt.Errorf("%w: %v", errInvalidSize, t.Size)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("%w: %v", errInvalidPrice, t.Price)
	}
	return nil
}

// IsClosing returns whether the fill reduces its position
func (t *Transaction) IsClosing() bool {
	return order.IsClosing(t.Action, t.Direction)
}

// Cost is size multiplied by price, positive for buys and negative for sells
func (t *Transaction) Cost() decimal.Decimal {
	c := t.Size.Mul(t.Price)
	if t.Action == order.Sell {
		return c.Neg()
	}
	return c
}

// CostWithCommission adds commission to Cost regardless of side
func (t *Transaction) CostWithCommission() decimal.Decimal {
	return t.Cost().Add(t.Commission)
}

// String implements fmt.Stringer
func (t *Transaction) String() string {
	return fmt.Sprintf("%s %s %s %s %v@%v fee %v", t.Timestamp.Format(time.RFC3339), t.Asset, t.Action, t.Direction, t.Size, t.Price, t.Commission)
}
