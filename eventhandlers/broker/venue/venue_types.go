package venue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/fee"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
	"golang.org/x/time/rate"
)

var (
	// ErrOrderRejected is returned when a venue refuses an order
	ErrOrderRejected = errors.New("order rejected by venue")
	// ErrAdapterUnavailable is returned on transient venue or network
	// failures, including timeouts
	ErrAdapterUnavailable = errors.New("venue adapter unavailable")

	errNilVenue = errors.New("nil venue")
)

// Venue is implemented by every live trading adapter. Each call must be safe
// to repeat once per loop iteration
type Venue interface {
	Name() string
	UpdateCashBalances(ctx context.Context) (map[string]decimal.Decimal, error)
	UpdatePositions(ctx context.Context) ([]Position, error)
	UpdateTransactions(ctx context.Context, since time.Time) ([]Fill, error)
	UpdatePrice(ctx context.Context, a market.Asset) (decimal.Decimal, error)
	UpdateProducts(ctx context.Context) ([]Product, error)
	ExecuteMarketOrder(ctx context.Context, r *Request) (string, error)
	ExecuteLimitOrder(ctx context.Context, r *Request) (string, error)
	ExecuteStopOrder(ctx context.Context, r *Request) (string, error)
	ExecuteTargetOrder(ctx context.Context, r *Request) (string, error)
	ExecuteTrailingStopOrder(ctx context.Context, r *Request) (string, error)
	HasOpenedPosition(ctx context.Context, a market.Asset, d order.Direction) (bool, error)
}

// Product is venue metadata for one tradable asset
type Product struct {
	Asset     market.Asset    `json:"asset"`
	Symbol    string          `json:"symbol"`
	PriceTick decimal.Decimal `json:"priceTick"`
	LotSize   decimal.Decimal `json:"lotSize"`
	MinSize   decimal.Decimal `json:"minSize"`
}

// Position is an open position as reported by the venue. Size is absolute
type Position struct {
	Asset     market.Asset    `json:"asset"`
	Direction order.Direction `json:"direction"`
	Size      decimal.Decimal `json:"size"`
	AvgPrice  decimal.Decimal `json:"avgPrice"`
}

// Fill is an execution reported by the venue
type Fill struct {
	ID           string          `json:"id"`
	VenueOrderID string          `json:"venueOrderId"`
	Asset        market.Asset    `json:"asset"`
	Action       order.Action    `json:"action"`
	Direction    order.Direction `json:"direction"`
	Size         decimal.Decimal `json:"size"`
	Price        decimal.Decimal `json:"price"`
	Commission   decimal.Decimal `json:"commission"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Request is an order already translated to venue terms: mapped symbol,
// tick rounded levels and lot truncated size
type Request struct {
	ClientOrderID string              `json:"clientOrderId"`
	Asset         market.Asset        `json:"asset"`
	Symbol        string              `json:"symbol"`
	Action        order.Action        `json:"action"`
	Direction     order.Direction     `json:"direction"`
	Type          order.Type          `json:"type"`
	Size          decimal.Decimal     `json:"size"`
	Limit         decimal.NullDecimal `json:"limit"`
	Stop          decimal.NullDecimal `json:"stop"`
	Target        decimal.NullDecimal `json:"target"`
	StopPct       decimal.NullDecimal `json:"stopPct"`
}

// RateLimited decorates a venue with a request rate limit and a per call
// timeout
type RateLimited struct {
	venue   Venue
	limiter *rate.Limiter
	timeout time.Duration
}

// Paper is an in-memory venue. Market orders fill at the last set price,
// conditional orders rest until a price update triggers them
type Paper struct {
	m           sync.Mutex
	name        string
	currency    string
	fees        fee.Model
	balances    map[string]decimal.Decimal
	prices      map[market.Asset]decimal.Decimal
	priceTimes  map[market.Asset]time.Time
	products    map[market.Asset]Product
	positions   map[market.Asset]map[order.Direction]*Position
	resting     []*restingOrder
	fills       []Fill
	unavailable bool
}

type restingOrder struct {
	id  string
	req Request
}
