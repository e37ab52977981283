package portfolio

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

var (
	// ErrBadAmount is returned for negative money amounts
	ErrBadAmount = errors.New("amount cannot be negative")
	// ErrInsufficientCash is returned when a withdrawal or transaction exceeds
	// the available cash
	ErrInsufficientCash = errors.New("insufficient cash")
	// ErrBadPrice is returned for negative prices
	ErrBadPrice = errors.New("price cannot be negative")

	errEmptyCurrency = errors.New("portfolio currency cannot be empty")
)

// EventType identifies a history entry
type EventType string

// History entry types
const (
	Subscription EventType = "SUBSCRIPTION"
	Withdrawal   EventType = "WITHDRAWAL"
	Trade        EventType = "TRANSACTION"
)

// Event is one entry of the portfolio ledger. Amount is the signed cash
// movement: positive credits cash, negative debits it
type Event struct {
	Type        EventType             `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
	Cash        decimal.Decimal       `json:"cash"`
	Timestamp   time.Time             `json:"timestamp"`
	Transaction *position.Transaction `json:"transaction,omitempty"`
}

// Portfolio is single currency cash plus positions and an append only
// history of every cash movement
type Portfolio struct {
	currency  string
	cash      decimal.Decimal
	positions *position.Handler
	history   []Event
}

// Snapshot is a point in time copy of the portfolio valuation
type Snapshot struct {
	Currency       string             `json:"currency"`
	Cash           decimal.Decimal    `json:"cash"`
	MarketValue    decimal.Decimal    `json:"marketValue"`
	Equity         decimal.Decimal    `json:"equity"`
	RealisedPnL    decimal.Decimal    `json:"realisedPnl"`
	UnrealisedPnL  decimal.Decimal    `json:"unrealisedPnl"`
	Positions      []PositionSnapshot `json:"positions"`
	HistoryEntries int                `json:"historyEntries"`
}

// PositionSnapshot is a point in time copy of one position
type PositionSnapshot struct {
	Asset         market.Asset    `json:"asset"`
	Direction     order.Direction `json:"direction"`
	NetSize       decimal.Decimal `json:"netSize"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	Price         decimal.Decimal `json:"price"`
	MarketValue   decimal.Decimal `json:"marketValue"`
	RealisedPnL   decimal.Decimal `json:"realisedPnl"`
	UnrealisedPnL decimal.Decimal `json:"unrealisedPnl"`
}
