package websocket

import (
	"errors"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/thrasher-corp/tradecore/data"
)

// Default reconnect delays
const (
	DefaultReconnectDelay    = time.Second
	DefaultMaxReconnectDelay = time.Minute
)

var (
	errNoURL            = errors.New("no websocket url configured")
	errMissingField     = errors.New("missing payload field")
	errTooManyReconnect = errors.New("reconnect attempts exhausted")
)

// Paths locates candle fields in a payload. Each path is a dot separated
// list of object keys; an empty Closed path treats every bar as closed
type Paths struct {
	Symbol    string `json:"symbol" mapstructure:"symbol"`
	Exchange  string `json:"exchange" mapstructure:"exchange"`
	Open      string `json:"open" mapstructure:"open"`
	High      string `json:"high" mapstructure:"high"`
	Low       string `json:"low" mapstructure:"low"`
	Close     string `json:"close" mapstructure:"close"`
	Volume    string `json:"volume" mapstructure:"volume"`
	Timestamp string `json:"timestamp" mapstructure:"timestamp"`
	Closed    string `json:"closed" mapstructure:"closed"`
}

// Config describes a candle stream
type Config struct {
	URL string `json:"url" mapstructure:"url"`
	// Subscribe is sent as a text frame after every connect
	Subscribe string `json:"subscribe" mapstructure:"subscribe"`
	// Exchange is used when a payload carries no exchange
	Exchange          string        `json:"exchange" mapstructure:"exchange"`
	Paths             Paths         `json:"paths" mapstructure:"paths"`
	ReconnectDelay    time.Duration `json:"reconnectDelay" mapstructure:"reconnectDelay"`
	MaxReconnectDelay time.Duration `json:"maxReconnectDelay" mapstructure:"maxReconnectDelay"`
	// MaxReconnects bounds consecutive failed connects, zero means forever
	MaxReconnects int `json:"maxReconnects" mapstructure:"maxReconnects"`
}

// Feed streams closed bars from a websocket
type Feed struct {
	*data.Stream
	cfg    Config
	dialer *gws.Dialer
	paths  paths

	m       sync.Mutex
	cancel  func()
	wg      sync.WaitGroup
	started bool
}

type paths struct {
	symbol, exchange, open, high, low, close, volume, timestamp, closed []string
}
