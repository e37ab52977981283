package config

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/data/kafka"
	"github.com/thrasher-corp/tradecore/data/websocket"
	"github.com/thrasher-corp/tradecore/database"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/fee"
	"github.com/thrasher-corp/tradecore/log"
)

// Constants declared here are filenames and defaults used by the config
const (
	File                 = "config.json"
	EnvPrefix            = "TRADECORE"
	DefaultName          = "tradecore"
	DefaultCurrency      = "USD"
	DefaultInterval      = "1m"
	DefaultListenAddress = "localhost:9053"
	DefaultVenueTimeout  = 10 * time.Second
)

// Feed types
const (
	FeedCSV       = "csv"
	FeedDatabase  = "database"
	FeedKafka     = "kafka"
	FeedWebsocket = "websocket"
)

var (
	// ErrInvalidConfig is returned when a loaded config fails validation
	ErrInvalidConfig = errors.New("invalid config")

	errNilConfig       = errors.New("nil config")
	errUnknownFeed     = errors.New("unknown feed type")
	errLiveFeed        = errors.New("live trading requires a streaming feed")
	errBacktestFeed    = errors.New("backtesting requires a historical feed")
	errDatabaseFeed    = errors.New("database feed requires an enabled database")
	errMissingCSVAsset = errors.New("csv source asset is not in the asset list")
	errInvalidRange    = errors.New("feed end must be after start")
	errLiveBarsDelay   = errors.New("live trading counts no bars so barsDelay must be 0")
)

// Config is the full runtime configuration of a trading run
type Config struct {
	Name        string          `json:"name" mapstructure:"name"`
	Live        bool            `json:"live" mapstructure:"live"`
	Currency    string          `json:"currency" mapstructure:"currency"`
	InitialCash decimal.Decimal `json:"initialCash" mapstructure:"initialCash"`
	// Assets are EXCHANGE:SYMBOL strings
	Assets     []string         `json:"assets" mapstructure:"assets"`
	Interval   string           `json:"interval" mapstructure:"interval"`
	BarsDelay  int64            `json:"barsDelay" mapstructure:"barsDelay"`
	WarmupBars int              `json:"warmupBars" mapstructure:"warmupBars"`
	Session    SessionConfig    `json:"session" mapstructure:"session"`
	Broker     BrokerConfig     `json:"broker" mapstructure:"broker"`
	Sizer      SizerConfig      `json:"sizer" mapstructure:"sizer"`
	Orders     OrdersConfig     `json:"orders" mapstructure:"orders"`
	Strategies []StrategyConfig `json:"strategies" mapstructure:"strategies"`
	Feed       FeedConfig       `json:"feed" mapstructure:"feed"`
	Venue      VenueConfig      `json:"venue" mapstructure:"venue"`
	Database   database.Config  `json:"database" mapstructure:"database"`
	Logging    log.Config       `json:"logging" mapstructure:"logging"`
	Server     ServerConfig     `json:"server" mapstructure:"server"`
	Statistics StatisticsConfig `json:"statistics" mapstructure:"statistics"`
}

// SessionConfig enables end of day handling at a UTC time of day
type SessionConfig struct {
	EndOfDay bool          `json:"endOfDay" mapstructure:"endOfDay"`
	Close    time.Duration `json:"close" mapstructure:"close"`
}

// BrokerConfig holds cash and fee settings
type BrokerConfig struct {
	SupportedCurrencies []string     `json:"supportedCurrencies" mapstructure:"supportedCurrencies"`
	CloseOnEndOfDay     bool         `json:"closeOnEndOfDay" mapstructure:"closeOnEndOfDay"`
	Fees                fee.Settings `json:"fees" mapstructure:"fees"`
}

// SizerConfig holds position sizing settings
type SizerConfig struct {
	MaxRisk        decimal.Decimal `json:"maxRisk" mapstructure:"maxRisk"`
	FractionalSize bool            `json:"fractionalSize" mapstructure:"fractionalSize"`
}

// OrdersConfig holds order creation settings. Percentages are fractions of
// the current price
type OrdersConfig struct {
	Policy       string          `json:"policy" mapstructure:"policy"`
	Type         string          `json:"type" mapstructure:"type"`
	LimitPct     decimal.Decimal `json:"limitPct" mapstructure:"limitPct"`
	StopPct      decimal.Decimal `json:"stopPct" mapstructure:"stopPct"`
	TargetPct    decimal.Decimal `json:"targetPct" mapstructure:"targetPct"`
	TrailingStop bool            `json:"trailingStop" mapstructure:"trailingStop"`
	TimeInForce  time.Duration   `json:"timeInForce" mapstructure:"timeInForce"`
}

// StrategyConfig selects a strategy by name and overrides its defaults
type StrategyConfig struct {
	Name     string         `json:"name" mapstructure:"name"`
	Settings map[string]any `json:"settings" mapstructure:"settings"`
}

// CSVSource maps an asset to a candle file
type CSVSource struct {
	Asset string `json:"asset" mapstructure:"asset"`
	Path  string `json:"path" mapstructure:"path"`
}

// FeedConfig selects and configures the market data feed
type FeedConfig struct {
	Type      string           `json:"type" mapstructure:"type"`
	CSV       []CSVSource      `json:"csv" mapstructure:"csv"`
	Start     time.Time        `json:"start" mapstructure:"start"`
	End       time.Time        `json:"end" mapstructure:"end"`
	Kafka     kafka.Config     `json:"kafka" mapstructure:"kafka"`
	Websocket websocket.Config `json:"websocket" mapstructure:"websocket"`
}

// VenueConfig configures the paper venue used for live runs and the rate
// limit applied to it
type VenueConfig struct {
	Name             string        `json:"name" mapstructure:"name"`
	RateLimitWindow  time.Duration `json:"rateLimitWindow" mapstructure:"rateLimitWindow"`
	RateLimitActions int           `json:"rateLimitActions" mapstructure:"rateLimitActions"`
	Timeout          time.Duration `json:"timeout" mapstructure:"timeout"`
}

// ServerConfig configures the status server
type ServerConfig struct {
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	ListenAddress string `json:"listenAddress" mapstructure:"listenAddress"`
}

// StatisticsConfig controls run reporting
type StatisticsConfig struct {
	Print     bool   `json:"print" mapstructure:"print"`
	ReportDir string `json:"reportDir" mapstructure:"reportDir"`
}
