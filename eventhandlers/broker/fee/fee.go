package fee

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
)

// New returns the model described by s. An empty model name means a zero
// fixed fee
func New(s *Settings) (Model, error) {
	if s == nil {
		return &Fixed{}, nil
	}
	for _, v := range []decimal.Decimal{s.Commission, s.Tax, s.CommissionRate, s.TaxRate, s.Minimum} {
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: %v", errNegativeFee, v)
		}
	}
	switch strings.ToLower(s.Model) {
	case "", FixedModel:
		return &Fixed{Commission: s.Commission, Tax: s.Tax}, nil
	case PercentageModel:
		return &Percentage{CommissionRate: s.CommissionRate, TaxRate: s.TaxRate, Minimum: s.Minimum}, nil
	}
	return nil, fmt.Errorf("%w %q", errUnknownModel, s.Model)
}

// CalcTotalCost returns the fixed commission plus tax
func (f *Fixed) CalcTotalCost(market.Asset, decimal.Decimal, decimal.Decimal) decimal.Decimal {
	return f.Commission.Add(f.Tax)
}

// CalcMaxSizeForCash returns (cash - costs) / price, never negative
func (f *Fixed) CalcMaxSizeForCash(cash, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	available := cash.Sub(f.Commission).Sub(f.Tax)
	if !available.IsPositive() {
		return decimal.Zero
	}
	return available.Div(price)
}

// CalcTotalCost returns max(rate*consideration, minimum) plus tax
func (p *Percentage) CalcTotalCost(_ market.Asset, _, consideration decimal.Decimal) decimal.Decimal {
	c := consideration.Abs()
	commission := decimal.Max(c.Mul(p.CommissionRate), p.Minimum)
	return commission.Add(c.Mul(p.TaxRate))
}

// CalcMaxSizeForCash returns the largest size satisfying both the rate and the
// minimum commission, never negative
func (p *Percentage) CalcMaxSizeForCash(cash, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() || !cash.IsPositive() {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	byRate := cash.Div(price.Mul(one.Add(p.CommissionRate).Add(p.TaxRate)))
	byMinimum := cash.Sub(p.Minimum).Div(price.Mul(one.Add(p.TaxRate)))
	size := decimal.Min(byRate, byMinimum)
	if size.IsNegative() {
		return decimal.Zero
	}
	return size
}
