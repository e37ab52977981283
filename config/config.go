package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/kat-co/vala"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/data/csv"
	"github.com/thrasher-corp/tradecore/data/kafka"
	"github.com/thrasher-corp/tradecore/data/websocket"
	"github.com/thrasher-corp/tradecore/database"
	"github.com/thrasher-corp/tradecore/encoding/json"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/fee"
	"github.com/thrasher-corp/tradecore/eventhandlers/ordercreator"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/size"
	"github.com/thrasher-corp/tradecore/eventhandlers/strategies"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// Default returns a backtest configuration with sane values for every
// setting. Assets, strategies and the feed still need to be provided
func Default() *Config {
	return &Config{
		Name:        DefaultName,
		Currency:    DefaultCurrency,
		InitialCash: decimal.NewFromInt(100000),
		Assets:      []string{},
		Interval:    DefaultInterval,
		Session:     SessionConfig{Close: 16 * time.Hour},
		Broker: BrokerConfig{
			SupportedCurrencies: []string{},
			Fees:                fee.Settings{Model: fee.FixedModel},
		},
		Sizer: SizerConfig{MaxRisk: size.MaximumRiskPerTrade},
		Orders: OrdersConfig{
			Policy: string(ordercreator.Plain),
			Type:   string(order.Market),
		},
		Strategies: []StrategyConfig{},
		Feed: FeedConfig{
			Type:      FeedCSV,
			CSV:       []CSVSource{},
			Kafka:     defaultKafka(),
			Websocket: defaultWebsocket(),
		},
		Venue: VenueConfig{
			Name:             "paper",
			RateLimitWindow:  time.Second,
			RateLimitActions: 10,
			Timeout:          DefaultVenueTimeout,
		},
		Database: database.Config{
			Driver:            database.DBSQLite3,
			ConnectionDetails: database.ConnectionDetails{Database: "tradecore.db"},
		},
		Logging: log.GenDefaultSettings(),
		Server:  ServerConfig{ListenAddress: DefaultListenAddress},
		Statistics: StatisticsConfig{
			Print: true,
		},
	}
}

func defaultKafka() (resp kafka.Config) {
	resp.Brokers = []string{}
	resp.Topic = "candles"
	resp.GroupID = DefaultName
	resp.MaxWait = 500 * time.Millisecond
	return resp
}

func defaultWebsocket() websocket.Config {
	return websocket.Config{
		Paths:             websocket.DefaultPaths(),
		ReconnectDelay:    websocket.DefaultReconnectDelay,
		MaxReconnectDelay: websocket.DefaultMaxReconnectDelay,
	}
}

// Load reads the defaults, then the file at path (JSON, YAML or TOML by
// extension) and finally TRADECORE_* environment overrides such as
// TRADECORE_BROKER_FEES_COMMISSION. The result is checked before it is
// returned
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults, err := json.Marshal(Default())
	if err != nil {
		return nil, err
	}
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := new(Config)
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		decimalHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.CheckConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decimalHook decodes strings and numbers into decimal.Decimal
func decimalHook(_, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(decimal.Decimal{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		if v == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	return data, nil
}

// SaveConfigToFile writes the config as indented JSON
func (c *Config) SaveConfigToFile(path string) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// CheckConfig fills defaults that cannot be expressed in Default, validates
// the result and applies the logger settings
func (c *Config) CheckConfig() error {
	if c == nil {
		return errNilConfig
	}
	c.checkDefaults()
	if err := c.Validate(); err != nil {
		return err
	}
	return c.CheckLoggerConfig()
}

func (c *Config) checkDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	c.Currency = strings.ToUpper(c.Currency)
	if c.Interval == "" {
		c.Interval = DefaultInterval
	}
	c.Feed.Type = strings.ToLower(c.Feed.Type)
	if c.Venue.Timeout <= 0 {
		c.Venue.Timeout = DefaultVenueTimeout
	}
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = DefaultListenAddress
	}
}

// CheckLoggerConfig falls back to the default logger when the logging
// section is incomplete and applies it
func (c *Config) CheckLoggerConfig() error {
	if c.Logging.Enabled == nil || c.Logging.Output == "" {
		c.Logging = log.GenDefaultSettings()
	}
	return log.SetupGlobalLogger(&c.Logging)
}

// Validate checks every section. Independent problems are reported together
func (c *Config) Validate() error {
	if c == nil {
		return errNilConfig
	}
	var errs error
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.Name, "name"),
		vala.StringNotEmpty(c.Currency, "currency"),
		vala.GreaterThan(len(c.Assets), 0, "assets"),
		vala.GreaterThan(len(c.Strategies), 0, "strategies"),
		positive(c.InitialCash, "initialCash"),
		notNegative(decimal.NewFromInt(c.BarsDelay), "barsDelay"),
		notNegative(decimal.NewFromInt(int64(c.WarmupBars)), "warmupBars"),
		notNegative(c.Sizer.MaxRisk, "sizer.maxRisk"),
		notNegative(c.Orders.LimitPct, "orders.limitPct"),
		notNegative(c.Orders.StopPct, "orders.stopPct"),
		notNegative(c.Orders.TargetPct, "orders.targetPct"),
	).Check()
	if err != nil {
		errs = common.AppendError(errs, err)
	}
	if _, err := c.GetAssets(); err != nil {
		errs = common.AppendError(errs, err)
	}
	if _, err := c.GetInterval(); err != nil {
		errs = common.AppendError(errs, err)
	}
	if c.Live && c.BarsDelay != 0 {
		errs = common.AppendError(errs, errLiveBarsDelay)
	}
	if c.Session.EndOfDay && (c.Session.Close < 0 || c.Session.Close >= 24*time.Hour) {
		errs = common.AppendError(errs, fmt.Errorf("session close %v must be within a day", c.Session.Close))
	}
	if _, err := fee.New(&c.Broker.Fees); err != nil {
		errs = common.AppendError(errs, err)
	}
	if _, err := c.CreatorSettings(); err != nil {
		errs = common.AppendError(errs, err)
	}
	if _, err := c.LoadStrategies(); err != nil {
		errs = common.AppendError(errs, err)
	}
	errs = common.AppendError(errs, c.checkFeedConfig())
	errs = common.AppendError(errs, c.checkDatabaseConfig())
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

func positive(d decimal.Decimal, name string) vala.Checker {
	return func() (bool, string) {
		return d.IsPositive(), fmt.Sprintf("parameter %s must be positive, got %v", name, d)
	}
}

func notNegative(d decimal.Decimal, name string) vala.Checker {
	return func() (bool, string) {
		return !d.IsNegative(), fmt.Sprintf("parameter %s cannot be negative, got %v", name, d)
	}
}

func (c *Config) checkFeedConfig() error {
	historical := false
	switch c.Feed.Type {
	case FeedCSV, FeedDatabase:
		historical = true
	case FeedKafka, FeedWebsocket:
	default:
		return fmt.Errorf("%w %q", errUnknownFeed, c.Feed.Type)
	}
	if c.Live && historical {
		return fmt.Errorf("%w, got %s", errLiveFeed, c.Feed.Type)
	}
	if !c.Live && !historical {
		return fmt.Errorf("%w, got %s", errBacktestFeed, c.Feed.Type)
	}
	switch c.Feed.Type {
	case FeedCSV:
		assets, err := c.GetAssets()
		if err != nil {
			return nil
		}
		known := make(map[market.Asset]struct{}, len(assets))
		for _, a := range assets {
			known[a] = struct{}{}
		}
		var errs error
		for _, s := range c.Feed.CSV {
			a, err := market.ParseAsset(s.Asset)
			if err != nil {
				errs = common.AppendError(errs, err)
				continue
			}
			if _, ok := known[a]; !ok {
				errs = common.AppendError(errs, fmt.Errorf("%w: %v", errMissingCSVAsset, a))
			}
		}
		return errs
	case FeedDatabase:
		if !c.Database.Enabled {
			return errDatabaseFeed
		}
		if c.Feed.Start.IsZero() || c.Feed.End.IsZero() {
			return fmt.Errorf("feed range: %w", common.ErrDateUnset)
		}
		if !c.Feed.End.After(c.Feed.Start) {
			return fmt.Errorf("%w: %v %v", errInvalidRange, c.Feed.Start, c.Feed.End)
		}
	}
	return nil
}

func (c *Config) checkDatabaseConfig() error {
	if !c.Database.Enabled {
		return nil
	}
	switch c.Database.Driver {
	case database.DBSQLite3, database.DBPostgreSQL:
	default:
		return fmt.Errorf("%w %q", database.ErrUnsupportedDriver, c.Database.Driver)
	}
	if c.Database.Database == "" {
		return database.ErrNoDatabaseProvided
	}
	return nil
}

// GetAssets parses the configured assets, dropping duplicates
func (c *Config) GetAssets() ([]market.Asset, error) {
	resp := make([]market.Asset, 0, len(c.Assets))
	seen := make(map[market.Asset]struct{}, len(c.Assets))
	var errs error
	for _, s := range c.Assets {
		a, err := market.ParseAsset(s)
		if err != nil {
			errs = common.AppendError(errs, err)
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		resp = append(resp, a)
	}
	return resp, errs
}

// GetInterval parses the bar interval
func (c *Config) GetInterval() (market.Interval, error) {
	return market.ParseInterval(c.Interval)
}

// CSVSources returns the configured CSV files with parsed assets
func (c *Config) CSVSources() ([]csv.Source, error) {
	resp := make([]csv.Source, 0, len(c.Feed.CSV))
	for _, s := range c.Feed.CSV {
		a, err := market.ParseAsset(s.Asset)
		if err != nil {
			return nil, err
		}
		resp = append(resp, csv.Source{Asset: a, Path: s.Path})
	}
	return resp, nil
}

// BrokerSettings returns the broker settings
func (c *Config) BrokerSettings() *broker.Settings {
	return &broker.Settings{
		BaseCurrency:        c.Currency,
		SupportedCurrencies: c.Broker.SupportedCurrencies,
		InitialCash:         c.InitialCash,
		CloseOnEndOfDay:     c.Broker.CloseOnEndOfDay,
	}
}

// SizerSettings returns the position sizer settings
func (c *Config) SizerSettings() *size.Settings {
	return &size.Settings{
		MaxRisk:        c.Sizer.MaxRisk,
		FractionalSize: c.Sizer.FractionalSize,
	}
}

// CreatorSettings returns the order creator settings
func (c *Config) CreatorSettings() (*ordercreator.Settings, error) {
	p := ordercreator.Policy(strings.ToLower(c.Orders.Policy))
	switch p {
	case "":
		p = ordercreator.Plain
	case ordercreator.Plain, ordercreator.Cover, ordercreator.Bracket:
	default:
		return nil, fmt.Errorf("unknown order policy %q", c.Orders.Policy)
	}
	t := order.Type(strings.ToUpper(c.Orders.Type))
	if t == "" {
		t = order.Market
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &ordercreator.Settings{
		Policy:       p,
		OrderType:    t,
		LimitPct:     c.Orders.LimitPct,
		StopPct:      c.Orders.StopPct,
		TargetPct:    c.Orders.TargetPct,
		TrailingStop: c.Orders.TrailingStop,
		TimeInForce:  c.Orders.TimeInForce,
	}, nil
}

// LoadStrategies returns the configured strategies with their custom
// settings applied
func (c *Config) LoadStrategies() ([]strategies.Handler, error) {
	resp := make([]strategies.Handler, 0, len(c.Strategies))
	var errs error
	for i := range c.Strategies {
		s, err := strategies.LoadStrategyByName(c.Strategies[i].Name)
		if err != nil {
			errs = common.AppendError(errs, err)
			continue
		}
		if len(c.Strategies[i].Settings) > 0 {
			if err := s.SetCustomSettings(c.Strategies[i].Settings); err != nil {
				errs = common.AppendError(errs, fmt.Errorf("strategy %s: %w", s.Name(), err))
				continue
			}
		}
		resp = append(resp, s)
	}
	return resp, errs
}
