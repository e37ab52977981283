package engine

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/thrasher-corp/tradecore/clock"
	"github.com/thrasher-corp/tradecore/common/cache"
	"github.com/thrasher-corp/tradecore/config"
	"github.com/thrasher-corp/tradecore/data"
	"github.com/thrasher-corp/tradecore/database"
	"github.com/thrasher-corp/tradecore/database/repository/candle"
	orderrepo "github.com/thrasher-corp/tradecore/database/repository/order"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/venue"
	"github.com/thrasher-corp/tradecore/eventhandlers/eventholder"
	"github.com/thrasher-corp/tradecore/eventhandlers/ordermanager"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio"
	"github.com/thrasher-corp/tradecore/eventhandlers/statistics"
	"github.com/thrasher-corp/tradecore/eventhandlers/strategies"
	"github.com/thrasher-corp/tradecore/eventtypes/event"
	"github.com/thrasher-corp/tradecore/indicators"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// Loop timings and cache sizes
const (
	// DefaultLoopInterval throttles live iterations
	DefaultLoopInterval = time.Minute
	// DefaultOrdersInterval throttles live processing of pending signals and
	// open orders
	DefaultOrdersInterval = 10 * time.Second
	// SeenCandlesCapacity bounds the per asset duplicate candle cache
	SeenCandlesCapacity = 10
	// CandleCacheSize is the existence cache size of the candle repository
	CandleCacheSize = 1 << 16

	persistTimeout = 5 * time.Second
)

var (
	// ErrAlreadyRunning is returned when Run is called on a running engine
	ErrAlreadyRunning = errors.New("engine already running")

	errNilFeed        = errors.New("nil feed")
	errUnhandledEvent = errors.New("unhandled event")
	errDatabaseNeeded = errors.New("database connection required")
)

// Engine owns every component of a trading run and drives them from a single
// event loop
type Engine struct {
	cfg        *config.Config
	live       bool
	interval   market.Interval
	assets     []market.Asset
	clock      clock.Clock
	holder     *eventholder.Holder
	feed       data.Feed
	indicators *indicators.Manager
	strategies []strategies.Handler
	portfolio  *portfolio.Portfolio
	broker     *broker.Broker
	orders     *ordermanager.Manager
	statistic  *statistics.Statistic
	paper      *venue.Paper
	db         *database.Instance
	candles    *candle.Repository
	orderRepo  *orderrepo.Repository

	delayed  map[market.Asset][]event.Handler
	seen     map[market.Asset]*cache.LRU[int64, struct{}]
	finished map[market.Asset]bool
	// stopping is set once cancellation has ended every asset's data
	stopping bool

	loopInterval     time.Duration
	ordersInterval   time.Duration
	lastOrdersUpdate time.Time
	now              func() time.Time

	server *http.Server
	status statusHolder

	running sync.Mutex
}

// Status is the point in time view published after each loop iteration
type Status struct {
	Name       string             `json:"name"`
	Live       bool               `json:"live"`
	Updated    time.Time          `json:"updated"`
	Portfolio  portfolio.Snapshot `json:"portfolio"`
	OpenOrders []order.Order      `json:"openOrders"`
	Finished   []market.Asset     `json:"finished"`
}

type statusHolder struct {
	m      sync.RWMutex
	status Status
}

// Route is a status server endpoint
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}
