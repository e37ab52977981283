package fee

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/tradecore/market"
)

var aapl = market.NewAsset("AAPL", "IEX")

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestNew(t *testing.T) {
	t.Parallel()
	m, err := New(nil)
	require.NoError(t, err)
	assert.IsType(t, &Fixed{}, m)

	m, err = New(&Settings{Model: "PERCENTAGE", CommissionRate: dec(0.001)})
	require.NoError(t, err)
	assert.IsType(t, &Percentage{}, m)

	_, err = New(&Settings{Model: "tiered"})
	assert.ErrorIs(t, err, errUnknownModel)
	_, err = New(&Settings{Commission: dec(-1)})
	assert.ErrorIs(t, err, errNegativeFee)
}

func TestFixed(t *testing.T) {
	t.Parallel()
	zero := &Fixed{}
	assert.True(t, zero.CalcTotalCost(aapl, dec(10), dec(1000)).IsZero())
	assert.True(t, zero.CalcMaxSizeForCash(dec(1000), dec(100)).Equal(dec(10)))

	f := &Fixed{Commission: dec(5), Tax: dec(1)}
	assert.True(t, f.CalcTotalCost(aapl, dec(1), dec(1)).Equal(dec(6)))
	assert.True(t, f.CalcMaxSizeForCash(dec(106), dec(10)).Equal(dec(10)))
	assert.True(t, f.CalcMaxSizeForCash(dec(5), dec(10)).IsZero())
	assert.True(t, f.CalcMaxSizeForCash(dec(100), decimal.Zero).IsZero())
}

func TestPercentage(t *testing.T) {
	t.Parallel()
	p := &Percentage{CommissionRate: dec(0.01), TaxRate: dec(0.005), Minimum: dec(2)}
	assert.True(t, p.CalcTotalCost(aapl, dec(10), dec(1000)).Equal(dec(15)))
	assert.True(t, p.CalcTotalCost(aapl, dec(1), dec(100)).Equal(dec(2.5)), "minimum commission applies")
	assert.True(t, p.CalcTotalCost(aapl, dec(1), dec(-100)).Equal(dec(2.5)))

	size := p.CalcMaxSizeForCash(dec(1015), dec(100))
	assert.True(t, size.Equal(dec(10)), size.String())
	consideration := size.Mul(dec(100))
	assert.True(t, consideration.Add(p.CalcTotalCost(aapl, size, consideration)).LessThanOrEqual(dec(1015)))

	assert.True(t, p.CalcMaxSizeForCash(dec(1), dec(100)).IsZero())
	assert.True(t, p.CalcMaxSizeForCash(dec(100), dec(-1)).IsZero())
}
