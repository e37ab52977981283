package indicators

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
)

var (
	errInvalidPeriod    = errors.New("period must be greater than zero")
	errInvalidTimeframe = errors.New("timeframe must be a multiple of the base interval")
	errNilSource        = errors.New("nil indicator source")
	errKindMismatch     = errors.New("memoized indicator has a different type")
	errUnmanagedSource  = errors.New("indicator source is not owned by this manager")
)

// Point is a single indicator output tagged with the bar it was computed for
type Point struct {
	Time  time.Time
	Value decimal.Decimal
}

// Receiver accepts pushed values
type Receiver[T any] interface {
	Push(T)
}

// Source exposes a node's recent outputs and lets other nodes subscribe to
// new ones. At(0) is the newest value, negative indices are older
type Source[T any] interface {
	Subscribe(Receiver[T])
	At(int) (T, bool)
	Latest() (T, bool)
	Len() int
	EnsureCapacity(int)
}

// RollingWindow is a fixed capacity ring buffer that stores every pushed
// value and forwards it to subscribers
type RollingWindow[T any] struct {
	values      []T
	next        int
	count       int
	pushes      int64
	subscribers []Receiver[T]
}

// TimeFramedCandleRollingWindow aggregates base interval candles into
// timeframe candles and emits each one when its period completes
type TimeFramedCandleRollingWindow struct {
	*RollingWindow[market.Candle]
	base      market.Interval
	timeframe market.Interval
	partial   *market.Candle
}

// PriceRollingWindow extracts one price field from a candle source
type PriceRollingWindow struct {
	*RollingWindow[Point]
	field market.PriceField
}

// Sma is the simple moving average of the last period inputs
type Sma struct {
	*RollingWindow[Point]
	period int
	inputs []decimal.Decimal
	next   int
	seen   int
	sum    decimal.Decimal
}

// Ema is the exponential moving average seeded with the simple average of the
// first period inputs
type Ema struct {
	*RollingWindow[Point]
	period int
	factor decimal.Decimal
	warmup []decimal.Decimal
	ema    decimal.Decimal
	warm   bool
}

// CrossState is the sign of a-b
type CrossState int8

// Cross states
const (
	Below CrossState = -1
	Equal CrossState = 0
	Above CrossState = 1
)

// Crossover emits +1 when a moves above b, -1 when it moves below and 0
// otherwise. It only evaluates when both inputs have a point for the same bar
type Crossover struct {
	*RollingWindow[Point]
	state    CrossState
	latest   [2]Point
	has      [2]bool
	computed time.Time
}

type crossoverLeg struct {
	c    *Crossover
	side int
}

// Rsi is the relative strength index of its input, computed over a bounded
// history
type Rsi struct {
	*RollingWindow[Point]
	period  int
	history []float64
	maxLen  int
}

// Manager owns every indicator node and memoizes them by kind, asset and
// parameters so repeated requests share one node
type Manager struct {
	defaultInterval market.Interval
	intervals       map[market.Asset]market.Interval
	candles         map[market.Asset]*RollingWindow[market.Candle]
	nodes           map[nodeKey]any
	names           map[any]string
}

// Series identifies one price field of an asset at a timeframe. A zero
// timeframe means the asset's base interval
type Series struct {
	Asset     market.Asset
	Timeframe market.Interval
	Field     market.PriceField
}

type nodeKey struct {
	kind   string
	asset  market.Asset
	params string
}
