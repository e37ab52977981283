package statistics

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
)

var (
	errReceivedNoData    = errors.New("received no data")
	errOutOfOrderCandle  = errors.New("candle is older than the last one recorded for the asset")
	errInvalidStartValue = errors.New("initial equity must be positive")
)

// ValueAtTime is one point of a time series
type ValueAtTime struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// Swing holds a drawdown from its peak to its trough
type Swing struct {
	Highest          ValueAtTime     `json:"highest"`
	Lowest           ValueAtTime     `json:"lowest"`
	DrawdownPercent  decimal.Decimal `json:"drawdown"`
	IntervalDuration time.Duration   `json:"interval-duration"`
}

// AssetStatistic holds the per asset results of a run
type AssetStatistic struct {
	Asset           market.Asset    `json:"asset"`
	Candles         int64           `json:"candles"`
	FirstClose      decimal.Decimal `json:"first-close"`
	LastClose       decimal.Decimal `json:"last-close"`
	LastTimestamp   time.Time       `json:"last-timestamp"`
	MarketMovement  decimal.Decimal `json:"market-movement"`
	BuyOrders       int64           `json:"buy-orders"`
	SellOrders      int64           `json:"sell-orders"`
	TotalCommission decimal.Decimal `json:"total-commission"`
}

// Statistic holds the results of a run, from the equity curve to order
// counts. It is fed candles by the event loop and order outcomes as a broker
// observer
type Statistic struct {
	StrategyName     string           `json:"strategy-name"`
	Currency         string           `json:"currency"`
	StartDate        time.Time        `json:"start-date"`
	EndDate          time.Time        `json:"end-date"`
	InitialEquity    decimal.Decimal  `json:"initial-equity"`
	FinalEquity      decimal.Decimal  `json:"final-equity"`
	FinalCash        decimal.Decimal  `json:"final-cash"`
	RealisedPnL      decimal.Decimal  `json:"realised-pnl"`
	UnrealisedPnL    decimal.Decimal  `json:"unrealised-pnl"`
	StrategyMovement decimal.Decimal  `json:"strategy-movement"`
	MaxDrawdown      Swing            `json:"max-drawdown"`
	TotalCandles     int64            `json:"total-candles"`
	SubmittedOrders  int64            `json:"submitted-orders"`
	CompletedOrders  int64            `json:"completed-orders"`
	DroppedOrders    int64            `json:"dropped-orders"`
	TotalBuyOrders   int64            `json:"total-buy-orders"`
	TotalSellOrders  int64            `json:"total-sell-orders"`
	TotalCommission  decimal.Decimal  `json:"total-commission"`
	EquityCurve      []ValueAtTime    `json:"equity-curve"`
	AssetStatistics  []AssetStatistic `json:"asset-statistics"`

	assets map[market.Asset]*AssetStatistic
}
