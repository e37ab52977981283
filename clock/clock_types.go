package clock

import (
	"errors"
	"sync"
	"time"

	"github.com/thrasher-corp/tradecore/market"
)

// ErrUnknownAsset is returned by accessors that require the asset to have
// been seen
var ErrUnknownAsset = errors.New("unknown asset")

var errInvalidSessionClose = errors.New("session close must be within a day")

// Clock is the loop's time oracle
type Clock interface {
	CurrentTime(market.Asset) time.Time
	Update(market.Asset, time.Time)
	Bars(market.Asset) int64
	EndOfDay(market.Asset) bool
}

// session tracks an optional daily close time and which days have already
// reported end of day for each asset
type session struct {
	mu       sync.Mutex
	close    time.Duration
	hasClose bool
	reported map[market.Asset]time.Time
}

// Live reports wall time in UTC and does not count bars
type Live struct {
	session
	now func() time.Time
}

// Simulated tracks a time and bar count per asset, advanced by the loop
type Simulated struct {
	session
	m     sync.RWMutex
	times map[market.Asset]time.Time
	bars  map[market.Asset]int64
}
