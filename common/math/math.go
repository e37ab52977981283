package math

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	oneHundred = decimal.NewFromInt(100)
	two        = decimal.NewFromInt(2)
)

// CalculatePercentageGainOrLoss returns the percentage rise over a certain
// period
func CalculatePercentageGainOrLoss(priceNow, priceThen decimal.Decimal) decimal.Decimal {
	if priceThen.IsZero() {
		return decimal.Zero
	}
	return priceNow.Sub(priceThen).Div(priceThen).Mul(oneHundred)
}

// CalculateMaxDrawdown returns the largest peak to trough fall of the series
// expressed as a positive percentage of the peak
func CalculateMaxDrawdown(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	peak := values[0]
	maxDrawdown := decimal.Zero
	for x := range values {
		if values[x].GreaterThan(peak) {
			peak = values[x]
			continue
		}
		if peak.IsZero() {
			continue
		}
		dd := peak.Sub(values[x]).Div(peak).Mul(oneHundred)
		if dd.GreaterThan(maxDrawdown) {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// ArithmeticAverage is the basic form of calculating an average.
// Divide the sum of all values by the length of values
func ArithmeticAverage(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values))))
}

// SampleStandardDeviation returns the sample standard deviation of the values.
// The square root is taken in float64 as decimal has no exact root
func SampleStandardDeviation(values []decimal.Decimal) decimal.Decimal {
	if len(values) < 2 {
		return decimal.Zero
	}
	mean := ArithmeticAverage(values)
	sumSquares := decimal.Zero
	for x := range values {
		diff := values[x].Sub(mean)
		sumSquares = sumSquares.Add(diff.Mul(diff))
	}
	variance, _ := sumSquares.Div(decimal.NewFromInt(int64(len(values) - 1))).Float64()
	return decimal.NewFromFloat(math.Sqrt(variance))
}

// CalculateSharpeRatio returns sharpe ratio of the returns compared to risk-free
func CalculateSharpeRatio(movementPerCandle []decimal.Decimal, riskFreeRate decimal.Decimal) decimal.Decimal {
	if len(movementPerCandle) <= 1 {
		return decimal.Zero
	}
	excessReturns := make([]decimal.Decimal, len(movementPerCandle))
	for i := range movementPerCandle {
		excessReturns[i] = movementPerCandle[i].Sub(riskFreeRate)
	}
	standardDeviation := SampleStandardDeviation(excessReturns)
	if standardDeviation.IsZero() {
		return decimal.Zero
	}
	return ArithmeticAverage(excessReturns).Div(standardDeviation)
}

// CalculatePercentageDifference returns the percentage of difference between
// two amounts relative to their midpoint
func CalculatePercentageDifference(amount, secondAmount decimal.Decimal) decimal.Decimal {
	mid := amount.Add(secondAmount).Div(two)
	if mid.IsZero() {
		return decimal.Zero
	}
	return amount.Sub(secondAmount).Div(mid).Mul(oneHundred)
}
