package statistics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/common"
	gctmath "github.com/thrasher-corp/tradecore/common/math"
	"github.com/thrasher-corp/tradecore/encoding/json"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// New returns an empty statistic for a run starting with initialEquity
func New(strategyName, currency string, initialEquity decimal.Decimal) (*Statistic, error) {
	if !initialEquity.IsPositive() {
		return nil, fmt.Errorf("%w: %v", errInvalidStartValue, initialEquity)
	}
	return &Statistic{
		StrategyName:  strategyName,
		Currency:      currency,
		InitialEquity: initialEquity,
		assets:        make(map[market.Asset]*AssetStatistic),
	}, nil
}

func (s *Statistic) asset(a market.Asset) *AssetStatistic {
	lookup, ok := s.assets[a]
	if !ok {
		lookup = &AssetStatistic{Asset: a}
		s.assets[a] = lookup
	}
	return lookup
}

// AddCandle records a processed candle and the portfolio equity after it.
// Candles of several assets sharing a timestamp produce one equity point
func (s *Statistic) AddCandle(c *market.Candle, equity decimal.Decimal) error {
	if c == nil {
		return common.ErrNilEvent
	}
	lookup := s.asset(c.Asset)
	if !lookup.LastTimestamp.IsZero() && c.Timestamp.Before(lookup.LastTimestamp) {
		return fmt.Errorf("%w %v %v", errOutOfOrderCandle, c.Asset, c.Timestamp)
	}
	if lookup.Candles == 0 {
		lookup.FirstClose = c.Close
	}
	lookup.Candles++
	lookup.LastClose = c.Close
	lookup.LastTimestamp = c.Timestamp
	s.TotalCandles++

	if s.StartDate.IsZero() || c.Timestamp.Before(s.StartDate) {
		s.StartDate = c.Timestamp
	}
	if c.Timestamp.After(s.EndDate) {
		s.EndDate = c.Timestamp
	}
	if n := len(s.EquityCurve); n > 0 && s.EquityCurve[n-1].Time.Equal(c.Timestamp) {
		s.EquityCurve[n-1].Value = equity
		return nil
	}
	s.EquityCurve = append(s.EquityCurve, ValueAtTime{Time: c.Timestamp, Value: equity})
	return nil
}

// OnOrderSubmitted counts a leaf order entering the broker queue
func (s *Statistic) OnOrderSubmitted(*order.Order) {
	s.SubmittedOrders++
}

// OnOrderCompleted counts a fill and its commission
func (s *Statistic) OnOrderCompleted(o *order.Order, t *position.Transaction) {
	s.CompletedOrders++
	lookup := s.asset(o.Asset)
	if o.Action == order.Buy {
		s.TotalBuyOrders++
		lookup.BuyOrders++
	} else {
		s.TotalSellOrders++
		lookup.SellOrders++
	}
	if t != nil {
		s.TotalCommission = s.TotalCommission.Add(t.Commission)
		lookup.TotalCommission = lookup.TotalCommission.Add(t.Commission)
	}
}

// OnOrderDropped counts an order that left the queue without a fill
func (s *Statistic) OnOrderDropped(*order.Order) {
	s.DroppedOrders++
}

// CalculateResults finalises the run against the closing portfolio snapshot
func (s *Statistic) CalculateResults(snap *portfolio.Snapshot) error {
	if snap == nil {
		return common.ErrNilArguments
	}
	if len(s.EquityCurve) == 0 {
		return errReceivedNoData
	}
	log.Info(log.Statistics, "calculating run results")
	s.FinalEquity = snap.Equity
	s.FinalCash = snap.Cash
	s.RealisedPnL = snap.RealisedPnL
	s.UnrealisedPnL = snap.UnrealisedPnL
	s.StrategyMovement = gctmath.CalculatePercentageGainOrLoss(s.FinalEquity, s.InitialEquity)
	s.MaxDrawdown = CalculateBiggestDrawdown(s.EquityCurve)

	s.AssetStatistics = make([]AssetStatistic, 0, len(s.assets))
	for _, lookup := range s.assets {
		lookup.MarketMovement = gctmath.CalculatePercentageGainOrLoss(lookup.LastClose, lookup.FirstClose)
		s.AssetStatistics = append(s.AssetStatistics, *lookup)
	}
	sort.Slice(s.AssetStatistics, func(i, j int) bool {
		return s.AssetStatistics[i].Asset.Less(s.AssetStatistics[j].Asset)
	})
	return nil
}

// CalculateBiggestDrawdown returns the largest peak to trough fall of the
// series. A series that never falls returns a zero swing anchored at its
// first value
func CalculateBiggestDrawdown(values []ValueAtTime) Swing {
	if len(values) == 0 {
		return Swing{}
	}
	var biggest Swing
	peak := values[0]
	for i := range values {
		if values[i].Value.GreaterThan(peak.Value) {
			peak = values[i]
			continue
		}
		if peak.Value.IsZero() {
			continue
		}
		dd := peak.Value.Sub(values[i].Value).Div(peak.Value).Mul(decimal.NewFromInt(100))
		if dd.GreaterThan(biggest.DrawdownPercent) {
			biggest = Swing{
				Highest:          peak,
				Lowest:           values[i],
				DrawdownPercent:  dd,
				IntervalDuration: values[i].Time.Sub(peak.Time),
			}
		}
	}
	if biggest.DrawdownPercent.IsZero() {
		return Swing{Highest: values[0], Lowest: values[0]}
	}
	return biggest
}

// FormatAmount renders an amount rounded to two decimal places with digit
// grouping
func FormatAmount(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// PrintResults logs the run summary
func (s *Statistic) PrintResults() {
	log.Info(log.Statistics, "------------------Strategy-----------------------------------")
	log.Infof(log.Statistics, "Strategy Name: %v", s.StrategyName)
	log.Infof(log.Statistics, "Start: %v End: %v Candles: %v", s.StartDate, s.EndDate, s.TotalCandles)
	log.Info(log.Statistics, "------------------Orders-------------------------------------")
	log.Infof(log.Statistics, "Submitted: %v Completed: %v Dropped: %v", s.SubmittedOrders, s.CompletedOrders, s.DroppedOrders)
	log.Infof(log.Statistics, "Buy orders: %v Sell orders: %v", s.TotalBuyOrders, s.TotalSellOrders)
	log.Infof(log.Statistics, "Total commission: %s %s", FormatAmount(s.TotalCommission), s.Currency)
	log.Info(log.Statistics, "------------------Results------------------------------------")
	log.Infof(log.Statistics, "Initial equity: %s %s", FormatAmount(s.InitialEquity), s.Currency)
	log.Infof(log.Statistics, "Final equity: %s %s", FormatAmount(s.FinalEquity), s.Currency)
	log.Infof(log.Statistics, "Final cash: %s %s", FormatAmount(s.FinalCash), s.Currency)
	log.Infof(log.Statistics, "Realised PnL: %s Unrealised PnL: %s", FormatAmount(s.RealisedPnL), FormatAmount(s.UnrealisedPnL))
	log.Infof(log.Statistics, "Strategy movement: %s%%", FormatAmount(s.StrategyMovement))
	if s.MaxDrawdown.DrawdownPercent.IsPositive() {
		log.Infof(log.Statistics, "Max drawdown: %s%% from %s at %v to %s at %v",
			FormatAmount(s.MaxDrawdown.DrawdownPercent),
			FormatAmount(s.MaxDrawdown.Highest.Value), s.MaxDrawdown.Highest.Time,
			FormatAmount(s.MaxDrawdown.Lowest.Value), s.MaxDrawdown.Lowest.Time)
	}
	for i := range s.AssetStatistics {
		log.Infof(log.Statistics, "%v: candles %v market movement %s%% buys %v sells %v",
			s.AssetStatistics[i].Asset,
			s.AssetStatistics[i].Candles,
			FormatAmount(s.AssetStatistics[i].MarketMovement),
			s.AssetStatistics[i].BuyOrders,
			s.AssetStatistics[i].SellOrders)
	}
}

// Serialise outputs the statistic as indented JSON
func (s *Statistic) Serialise() (string, error) {
	resp, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(resp), nil
}

// WriteReport saves the serialised statistic into dir and returns the file
// path
func (s *Statistic) WriteReport(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: report directory", common.ErrNilArguments)
	}
	name, err := common.GenerateFileName(s.StrategyName+" "+s.EndDate.Format("20060102150405"), "json")
	if err != nil {
		return "", err
	}
	data, err := s.Serialise()
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(dir, 0o770); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err = os.WriteFile(path, []byte(data), 0o600); err != nil {
		return "", err
	}
	log.Infof(log.Statistics, "report written to %s", path)
	return path, nil
}
