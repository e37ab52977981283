package size

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/order"
)

// New returns a Sizer. A nil s uses the defaults
func New(b Broker, p Portfolio, s *Settings) (*Sizer, error) {
	if b == nil {
		return nil, errNilBroker
	}
	if p == nil {
		return nil, errNilPortfolio
	}
	if s == nil {
		s = &Settings{}
	}
	risk := s.MaxRisk
	if risk.IsZero() {
		risk = MaximumRiskPerTrade
	}
	if !risk.IsPositive() || risk.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: %v", errInvalidRisk, risk)
	}
	return &Sizer{
		broker:      b,
		portfolio:   p,
		maxRisk:     risk,
		integerSize: !s.FractionalSize,
	}, nil
}

// MaxRisk returns the share of equity one entry may commit
func (s *Sizer) MaxRisk() decimal.Decimal {
	return s.maxRisk
}

// SizeOrder sizes every leaf of item. Cover and bracket orders size their
// initiation and give each protective leg the same size
func (s *Sizer) SizeOrder(item order.Item) error {
	if item == nil {
		return common.ErrNilArguments
	}
	if o, ok := item.(*order.Order); ok {
		return s.sizeLeaf(o)
	}
	if in, ok := item.(initiator); ok {
		head := in.Initiation()
		if err := s.sizeLeaf(head); err != nil {
			return err
		}
		for _, leaf := range item.Leaves() {
			leaf.Size = head.Size
		}
		return nil
	}
	var errs error
	for _, leaf := range item.Leaves() {
		errs = common.AppendError(errs, s.sizeLeaf(leaf))
	}
	return errs
}

func (s *Sizer) sizeLeaf(o *order.Order) error {
	size, err := s.leafSize(o)
	if err != nil {
		return err
	}
	if !size.IsPositive() {
		return fmt.Errorf("%w for %v %v %v", errCannotAllocate, o.Asset, o.Action, o.Direction)
	}
	o.Size = size
	log.Debugf(log.Portfolio, "sized %s %v %v %v to %v", o.ID, o.Asset, o.Action, o.Direction, size)
	return nil
}

// leafSize is the open position for an exit, else the smaller of the risk
// and cash limits
func (s *Sizer) leafSize(o *order.Order) (decimal.Decimal, error) {
	if o.IsExit() {
		return s.portfolio.NetSize(o.Asset, o.Direction).Abs(), nil
	}
	risk := s.portfolio.TotalEquity().Mul(s.maxRisk)
	byRisk, err := s.broker.MaxEntryOrderSize(o.Asset, o.Direction, decimal.NewNullDecimal(risk))
	if err != nil {
		return decimal.Zero, err
	}
	byCash, err := s.broker.MaxEntryOrderSize(o.Asset, o.Direction, decimal.NullDecimal{})
	if err != nil {
		return decimal.Zero, err
	}
	size := decimal.Min(byRisk, byCash)
	if s.integerSize {
		size = size.Truncate(0)
	}
	return size, nil
}
