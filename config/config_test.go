package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/database"
	"github.com/thrasher-corp/tradecore/eventhandlers/ordercreator"
	"github.com/thrasher-corp/tradecore/eventhandlers/strategies/base"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

const jsonConfig = `{
	"name": "sma crossover",
	"currency": "usd",
	"initialCash": "25000.50",
	"assets": ["IEX:AAPL", "IEX:MSFT", "IEX:AAPL"],
	"interval": "5m",
	"barsDelay": 1,
	"broker": {"fees": {"model": "percentage", "commissionRate": "0.001"}},
	"orders": {"policy": "cover", "stopPct": 0.05, "timeInForce": "1h"},
	"strategies": [{"name": "smacrossover", "settings": {"fast-period": 5, "slow-period": 20}}],
	"feed": {"type": "csv", "csv": [{"asset": "IEX:AAPL", "path": "aapl.csv"}]}
}`

const yamlConfig = `
name: rsi
initialCash: 1000
assets:
  - IEX:AAPL
strategies:
  - name: rsi
    settings:
      rsi-period: 7
live: true
feed:
  type: websocket
  websocket:
    url: ws://localhost:9443/ws
    reconnectDelay: 2s
database:
  enabled: true
  driver: postgres
  database: tradecore
  host: localhost
  port: 5432
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultNeedsAssetsAndStrategies(t *testing.T) {
	t.Parallel()
	err := Default().Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorContains(t, err, "assets")
	assert.ErrorContains(t, err, "strategies")

	var c *Config
	assert.ErrorIs(t, c.Validate(), errNilConfig)
	assert.ErrorIs(t, c.CheckConfig(), errNilConfig)
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	c, err := Load(writeFile(t, "config.json", jsonConfig))
	require.NoError(t, err)
	assert.Equal(t, "sma crossover", c.Name)
	assert.Equal(t, "USD", c.Currency)
	assert.True(t, c.InitialCash.Equal(decimal.RequireFromString("25000.50")))
	assert.True(t, c.Broker.Fees.CommissionRate.Equal(decimal.RequireFromString("0.001")))
	assert.True(t, c.Orders.StopPct.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, time.Hour, c.Orders.TimeInForce)
	assert.Equal(t, int64(1), c.BarsDelay)
	assert.Equal(t, DefaultVenueTimeout, c.Venue.Timeout, "unset values keep their defaults")
	assert.Equal(t, "candles", c.Feed.Kafka.Topic)

	assets, err := c.GetAssets()
	require.NoError(t, err)
	assert.Equal(t, []market.Asset{market.NewAsset("AAPL", "IEX"), market.NewAsset("MSFT", "IEX")}, assets)
	interval, err := c.GetInterval()
	require.NoError(t, err)
	assert.Equal(t, market.FiveMin, interval)

	strats, err := c.LoadStrategies()
	require.NoError(t, err)
	require.Len(t, strats, 1)
	assert.Equal(t, "smacrossover", strats[0].Name())

	cs, err := c.CreatorSettings()
	require.NoError(t, err)
	assert.Equal(t, ordercreator.Cover, cs.Policy)
	assert.Equal(t, order.Market, cs.OrderType)

	sources, err := c.CSVSources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, market.NewAsset("AAPL", "IEX"), sources[0].Asset)

	bs := c.BrokerSettings()
	assert.Equal(t, "USD", bs.BaseCurrency)
	assert.True(t, bs.InitialCash.Equal(c.InitialCash))
	assert.True(t, c.SizerSettings().MaxRisk.Equal(decimal.NewFromFloat(0.1)))
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	c, err := Load(writeFile(t, "config.yaml", yamlConfig))
	require.NoError(t, err)
	assert.True(t, c.Live)
	assert.True(t, c.InitialCash.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, FeedWebsocket, c.Feed.Type)
	assert.Equal(t, "ws://localhost:9443/ws", c.Feed.Websocket.URL)
	assert.Equal(t, 2*time.Second, c.Feed.Websocket.ReconnectDelay)
	assert.Equal(t, "asset.symbol", c.Feed.Websocket.Paths.Symbol)
	assert.Equal(t, database.DBPostgreSQL, c.Database.Driver)
	assert.Equal(t, uint16(5432), c.Database.Port)
	assert.Equal(t, "tradecore", c.Database.Database)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("TRADECORE_INITIALCASH", "42")
	t.Setenv("TRADECORE_BROKER_FEES_COMMISSION", "1.5")
	c, err := Load(writeFile(t, "config.json", jsonConfig))
	require.NoError(t, err)
	assert.True(t, c.InitialCash.Equal(decimal.NewFromInt(42)))
	assert.True(t, c.Broker.Fees.Commission.Equal(decimal.RequireFromString("1.5")))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config.json", `{"assets": ["AAPL"], "strategies": [{"name": "nope"}]}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, market.ErrInvalidAsset)
	assert.ErrorIs(t, err, base.ErrStrategyNotFound)
}

func validConfig() *Config {
	c := Default()
	c.Assets = []string{"IEX:AAPL"}
	c.Strategies = []StrategyConfig{{Name: "rsi"}}
	return c
}

func TestValidateFeed(t *testing.T) {
	t.Parallel()
	c := validConfig()
	require.NoError(t, c.Validate())

	c.Feed.Type = "ftp"
	assert.ErrorIs(t, c.Validate(), errUnknownFeed)

	c.Feed.Type = FeedKafka
	assert.ErrorIs(t, c.Validate(), errBacktestFeed)
	c.Live = true
	assert.NoError(t, c.Validate())
	c.BarsDelay = 1
	assert.ErrorIs(t, c.Validate(), errLiveBarsDelay)
	c.BarsDelay = 0

	c.Feed.Type = FeedCSV
	assert.ErrorIs(t, c.Validate(), errLiveFeed)

	c = validConfig()
	c.Feed.CSV = []CSVSource{{Asset: "IEX:TSLA", Path: "tsla.csv"}}
	assert.ErrorIs(t, c.Validate(), errMissingCSVAsset)

	c = validConfig()
	c.Feed.Type = FeedDatabase
	assert.ErrorIs(t, c.Validate(), errDatabaseFeed)
	c.Database.Enabled = true
	assert.ErrorIs(t, c.Validate(), common.ErrDateUnset)
	start := time.Date(2020, 6, 18, 0, 0, 0, 0, time.UTC)
	c.Feed.Start, c.Feed.End = start, start.Add(-time.Hour)
	assert.ErrorIs(t, c.Validate(), errInvalidRange)
	c.Feed.End = start.Add(time.Hour)
	assert.NoError(t, c.Validate())

	c.Database.Driver = "mysql"
	assert.ErrorIs(t, c.Validate(), database.ErrUnsupportedDriver)
}

func TestValidateAmounts(t *testing.T) {
	t.Parallel()
	c := validConfig()
	c.InitialCash = decimal.Zero
	c.Orders.StopPct = decimal.NewFromInt(-1)
	err := c.Validate()
	assert.ErrorContains(t, err, "initialCash")
	assert.ErrorContains(t, err, "orders.stopPct")

	c = validConfig()
	c.Orders.Policy = "iceberg"
	assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
	c.Orders.Policy = "bracket"
	c.Orders.Type = "limit"
	cs, err := c.CreatorSettings()
	require.NoError(t, err)
	assert.Equal(t, order.Limit, cs.OrderType)

	c = validConfig()
	c.Session = SessionConfig{EndOfDay: true, Close: 25 * time.Hour}
	assert.ErrorContains(t, c.Validate(), "session close")
}

func TestSaveConfigToFile(t *testing.T) {
	t.Parallel()
	c := validConfig()
	c.Name = "saved"
	c.Orders.TimeInForce = 90 * time.Second
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, c.SaveConfigToFile(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved", loaded.Name)
	assert.Equal(t, 90*time.Second, loaded.Orders.TimeInForce)
	assert.True(t, loaded.InitialCash.Equal(c.InitialCash))
}
