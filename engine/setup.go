package engine

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/thrasher-corp/tradecore/clock"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/common/cache"
	"github.com/thrasher-corp/tradecore/config"
	"github.com/thrasher-corp/tradecore/data"
	"github.com/thrasher-corp/tradecore/data/csv"
	datadb "github.com/thrasher-corp/tradecore/data/database"
	"github.com/thrasher-corp/tradecore/data/kafka"
	"github.com/thrasher-corp/tradecore/data/websocket"
	"github.com/thrasher-corp/tradecore/database"
	"github.com/thrasher-corp/tradecore/database/drivers/postgres"
	sqlite "github.com/thrasher-corp/tradecore/database/drivers/sqlite3"
	"github.com/thrasher-corp/tradecore/database/repository/candle"
	orderrepo "github.com/thrasher-corp/tradecore/database/repository/order"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/fee"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/venue"
	"github.com/thrasher-corp/tradecore/eventhandlers/eventholder"
	"github.com/thrasher-corp/tradecore/eventhandlers/ordercreator"
	"github.com/thrasher-corp/tradecore/eventhandlers/ordermanager"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/size"
	"github.com/thrasher-corp/tradecore/eventhandlers/statistics"
	"github.com/thrasher-corp/tradecore/eventtypes/event"
	"github.com/thrasher-corp/tradecore/indicators"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/metrics"
)

// sessionClock is a clock that can be given a daily session close
type sessionClock interface {
	clock.Clock
	SetSessionClose(time.Duration) error
}

// New builds every component of a run from cfg. Nothing is started until
// Run is called
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		return nil, common.ErrNilArguments
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	assets, err := cfg.GetAssets()
	if err != nil {
		return nil, err
	}
	interval, err := cfg.GetInterval()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:            cfg,
		live:           cfg.Live,
		interval:       interval,
		assets:         assets,
		holder:         &eventholder.Holder{},
		delayed:        make(map[market.Asset][]event.Handler),
		seen:           make(map[market.Asset]*cache.LRU[int64, struct{}]),
		finished:       make(map[market.Asset]bool),
		loopInterval:   DefaultLoopInterval,
		ordersInterval: DefaultOrdersInterval,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, setup := range []func() error{
		e.setupClock,
		e.setupStrategies,
		e.setupBroker,
		e.setupOrderManager,
		e.setupDatabase,
		e.setupObservers,
		e.setupFeed,
	} {
		if err := setup(); err != nil {
			if e.db != nil {
				if closeErr := e.db.CloseConnection(); closeErr != nil {
					log.Errorf(log.Database, "closing database: %v", closeErr)
				}
			}
			return nil, err
		}
	}
	if cfg.Server.Enabled {
		e.server = &http.Server{
			Addr:              cfg.Server.ListenAddress,
			Handler:           e.newRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	mode := "backtest"
	if e.live {
		mode = "live"
	}
	log.Infof(log.EventLoop, "%s %s run configured for %d assets at %v with %d strategies",
		cfg.Name, mode, len(e.assets), e.interval, len(e.strategies))
	return e, nil
}

func (e *Engine) setupClock() error {
	var c sessionClock
	if e.live {
		c = clock.NewLive()
	} else {
		c = clock.NewSimulated()
	}
	if e.cfg.Session.EndOfDay {
		if err := c.SetSessionClose(e.cfg.Session.Close); err != nil {
			return err
		}
	}
	e.clock = c
	return nil
}

func (e *Engine) setupStrategies() error {
	e.indicators = indicators.NewManager(e.interval)
	for _, a := range e.assets {
		e.indicators.SetInterval(a, e.interval)
	}
	strats, err := e.cfg.LoadStrategies()
	if err != nil {
		return err
	}
	for _, s := range strats {
		if err := s.Init(e.indicators, e.assets); err != nil {
			return fmt.Errorf("strategy %s: %w", s.Name(), err)
		}
		log.Infof(log.Strategy, "loaded strategy %s", s.Name())
	}
	e.strategies = strats
	return nil
}

func (e *Engine) setupBroker() error {
	p, err := portfolio.New(e.cfg.Currency)
	if err != nil {
		return err
	}
	fees, err := fee.New(&e.cfg.Broker.Fees)
	if err != nil {
		return err
	}
	settings := e.cfg.BrokerSettings()
	settings.Now = func() time.Time { return e.now() }
	var b *broker.Broker
	if e.live {
		e.paper = venue.NewPaper(e.cfg.Venue.Name, e.cfg.Currency, e.cfg.InitialCash, fees)
		limited, err := venue.NewRateLimited(e.paper,
			venue.NewRateLimit(e.cfg.Venue.RateLimitWindow, e.cfg.Venue.RateLimitActions),
			e.cfg.Venue.Timeout)
		if err != nil {
			return err
		}
		b, err = broker.NewLive(e.clock, p, fees, settings, limited)
		if err != nil {
			return err
		}
	} else {
		b, err = broker.New(e.clock, p, fees, settings)
		if err != nil {
			return err
		}
	}
	if err := b.SubscribeFundsToPortfolio(e.cfg.InitialCash); err != nil {
		return err
	}
	e.portfolio = p
	e.broker = b
	return nil
}

func (e *Engine) setupOrderManager() error {
	sizer, err := size.New(e.broker, e.portfolio, e.cfg.SizerSettings())
	if err != nil {
		return err
	}
	settings, err := e.cfg.CreatorSettings()
	if err != nil {
		return err
	}
	creator, err := ordercreator.New(e.broker, e.clock, settings)
	if err != nil {
		return err
	}
	e.orders, err = ordermanager.New(e.clock, e.broker, creator, sizer, e.cfg.BarsDelay)
	if err != nil {
		return err
	}
	e.statistic, err = statistics.New(e.cfg.Name, e.portfolio.Currency(), e.cfg.InitialCash)
	return err
}

func (e *Engine) setupDatabase() error {
	if !e.cfg.Database.Enabled {
		return nil
	}
	var err error
	switch e.cfg.Database.Driver {
	case database.DBSQLite3:
		e.db, err = sqlite.Connect(&e.cfg.Database, "")
	case database.DBPostgreSQL:
		e.db, err = postgres.Connect(&e.cfg.Database)
	default:
		err = fmt.Errorf("%w %q", database.ErrUnsupportedDriver, e.cfg.Database.Driver)
	}
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if e.cfg.Database.AutoMigrate {
		if err := e.db.Migrate("up", database.MigrationDir, ""); err != nil {
			return err
		}
	}
	return e.setRepositories(e.db.GetSQL())
}

func (e *Engine) setRepositories(db *sql.DB) error {
	var err error
	if e.candles, err = candle.New(db, CandleCacheSize); err != nil {
		return err
	}
	e.orderRepo, err = orderrepo.New(db)
	return err
}

func (e *Engine) setupObservers() error {
	obs := observers{e.statistic, metrics.OrderObserver{}}
	if e.orderRepo != nil {
		obs = append(obs, &orderPersister{repo: e.orderRepo, timeout: persistTimeout})
	}
	e.broker.SetObserver(obs)
	return nil
}

func (e *Engine) setupFeed() error {
	var (
		f   data.Feed
		err error
	)
	switch e.cfg.Feed.Type {
	case config.FeedCSV:
		var sources []csv.Source
		if sources, err = e.cfg.CSVSources(); err != nil {
			return err
		}
		f, err = csv.New(e.holder, sources)
	case config.FeedDatabase:
		if e.candles == nil {
			return fmt.Errorf("%w: %s feed", errDatabaseNeeded, config.FeedDatabase)
		}
		f, err = datadb.New(e.holder, e.candles, e.assets, e.interval, e.cfg.Feed.Start, e.cfg.Feed.End)
	case config.FeedKafka:
		f, err = kafka.New(e.holder, e.assets, &e.cfg.Feed.Kafka)
	case config.FeedWebsocket:
		f, err = websocket.New(e.holder, e.assets, &e.cfg.Feed.Websocket)
	default:
		err = fmt.Errorf("%w %q", config.ErrInvalidConfig, e.cfg.Feed.Type)
	}
	if err != nil {
		return err
	}
	return e.SetFeed(f)
}

// SetFeed replaces the configured feed. It must be called before Run
func (e *Engine) SetFeed(f data.Feed) error {
	if f == nil {
		return errNilFeed
	}
	e.feed = f
	return nil
}

// warmup pushes stored history preceding the run through the indicator graph
func (e *Engine) warmup(ctx context.Context) error {
	bars := e.cfg.WarmupBars
	if bars <= 0 {
		return nil
	}
	if e.candles == nil {
		return fmt.Errorf("%w: warmup", errDatabaseNeeded)
	}
	end := e.cfg.Feed.Start
	if end.IsZero() {
		end = e.now()
	}
	// the repository range is inclusive and stored at second precision
	end = end.Add(-time.Second)
	start := end.Add(-time.Duration(bars) * e.interval.Duration())
	var errs error
	for _, a := range e.assets {
		candles, err := e.candles.GetCandlesInRange(ctx, a, e.interval, start, end)
		if err != nil {
			errs = common.AppendError(errs, fmt.Errorf("warmup %v: %w", a, err))
			continue
		}
		if err := e.indicators.Warmup(candles); err != nil {
			errs = common.AppendError(errs, fmt.Errorf("warmup %v: %w", a, err))
		}
		log.Infof(log.Indicators, "warmed up %v with %d stored candles", a, len(candles))
	}
	return errs
}
