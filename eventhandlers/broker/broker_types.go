package broker

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/clock"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/fee"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/venue"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// Refresh thresholds of live venue resources
const (
	BalancesRefresh     = 10 * time.Second
	PricesRefresh       = 10 * time.Second
	PositionsRefresh    = 10 * time.Second
	TransactionsRefresh = 10 * time.Second
	ProductsRefresh     = 10 * 24 * time.Hour
)

var (
	// ErrUnknownCurrency is returned for a currency the broker does not
	// support
	ErrUnknownCurrency = errors.New("unknown currency")

	errNoPrice          = errors.New("no price for asset")
	errNilClock         = errors.New("nil clock")
	errNilPortfolio     = errors.New("nil portfolio")
	errEmptyCurrency    = errors.New("base currency cannot be empty")
	errCurrencyMismatch = errors.New("portfolio currency differs from broker base currency")
)

// Settings configures a broker
type Settings struct {
	BaseCurrency        string
	SupportedCurrencies []string
	InitialCash         decimal.Decimal
	// CloseOnEndOfDay flattens every position of an asset at session close
	CloseOnEndOfDay bool
	// Now is the time live refresh thresholds are measured against. Wall
	// time is used when nil
	Now func() time.Time
}

// Observer is notified of order lifecycle changes the broker causes
type Observer interface {
	OnOrderSubmitted(o *order.Order)
	OnOrderCompleted(o *order.Order, t *position.Transaction)
	OnOrderDropped(o *order.Order)
}

// Broker owns order execution for one portfolio. It queues submitted leaf
// orders, keeps at most one exit order (or one OCO of exits) per position
// and executes queued orders either locally or through a venue
type Broker struct {
	clock           clock.Clock
	portfolio       *portfolio.Portfolio
	fees            fee.Model
	baseCurrency    string
	supported       map[string]struct{}
	cashBalances    map[string]decimal.Decimal
	openOrders      []*order.Order
	exitOrders      map[market.Asset]map[order.Direction]order.Item
	lastPrices      map[market.Asset]decimal.Decimal
	closeOnEndOfDay bool
	observer        Observer
	exec            executor
}

// executor is the execution backend of a broker
type executor interface {
	// execute attempts o and reports whether it must be queued again
	execute(ctx context.Context, b *Broker, o *order.Order) (requeue bool, err error)
	synchronize(ctx context.Context, b *Broker) error
	hasOpenedPosition(ctx context.Context, b *Broker, a market.Asset, d order.Direction) bool
	name() string
}

type simulated struct{}

type resource string

const (
	balancesResource     resource = "balances"
	pricesResource       resource = "prices"
	positionsResource    resource = "positions"
	transactionsResource resource = "transactions"
	productsResource     resource = "products"
)

// live routes orders through a venue and mirrors its fills into the
// portfolio
type live struct {
	venue      venue.Venue
	products   map[market.Asset]venue.Product
	executed   map[string]struct{}
	open       map[string]*order.Order
	processed  map[string]struct{}
	lastUpdate map[resource]time.Time
	thresholds map[resource]time.Duration
	fillsSince time.Time
	now        func() time.Time
}
