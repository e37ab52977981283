package fee

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
)

// Model names accepted by New
const (
	FixedModel      = "fixed"
	PercentageModel = "percentage"
)

var (
	errNegativeFee  = errors.New("fee parameters cannot be negative")
	errUnknownModel = errors.New("unknown fee model")
)

// Model computes trading costs
type Model interface {
	// CalcTotalCost returns commission plus tax for a fill of size whose
	// consideration is price times size
	CalcTotalCost(a market.Asset, size, consideration decimal.Decimal) decimal.Decimal
	// CalcMaxSizeForCash returns the largest size whose consideration plus
	// costs fits in cash
	CalcMaxSizeForCash(cash, price decimal.Decimal) decimal.Decimal
}

// Fixed charges a constant commission and tax per fill
type Fixed struct {
	Commission decimal.Decimal
	Tax        decimal.Decimal
}

// Percentage charges rates of the consideration with a minimum commission
type Percentage struct {
	CommissionRate decimal.Decimal
	TaxRate        decimal.Decimal
	Minimum        decimal.Decimal
}

// Settings selects and parameterises a fee model
type Settings struct {
	Model          string          `json:"model"`
	Commission     decimal.Decimal `json:"commission"`
	Tax            decimal.Decimal `json:"tax"`
	CommissionRate decimal.Decimal `json:"commissionRate"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	Minimum        decimal.Decimal `json:"minimum"`
}
