package signal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/eventtypes/event"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// New returns a validated signal with its identifier derived from asset,
// strategy and root candle timestamp
func New(asset market.Asset, action order.Action, direction order.Direction, strategyID string, root, generated time.Time, tif time.Duration) (*Signal, error) {
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	if err := action.Validate(); err != nil {
		return nil, err
	}
	if err := direction.Validate(); err != nil {
		return nil, err
	}
	if strategyID == "" {
		return nil, errMissingStrategy
	}
	return &Signal{
		Base: event.Base{
			Asset: asset,
			Time:  generated,
		},
		ID:                  GenerateID(asset, strategyID, root),
		Action:              action,
		Direction:           direction,
		Confidence:          decimal.NewFromInt(1),
		StrategyID:          strategyID,
		RootCandleTimestamp: root,
		TimeInForce:         tif,
	}, nil
}

// GenerateID returns asset|strategy|root_ts
func GenerateID(asset market.Asset, strategyID string, root time.Time) string {
	return fmt.Sprintf("%s|%s|%s", asset, strategyID, market.FormatTimestamp(root))
}

// Kind implements event.Handler
func (s *Signal) Kind() event.Kind {
	return event.Signal
}

// GetGenerationTime returns when the strategy produced the signal
func (s *Signal) GetGenerationTime() time.Time {
	return s.Time
}

// InForce returns whether generation_time + time_in_force > now
func (s *Signal) InForce(now time.Time) bool {
	if s.TimeInForce <= 0 {
		return true
	}
	return s.Time.Add(s.TimeInForce).After(now)
}

// IsExit returns whether acting on the signal closes a position
func (s *Signal) IsExit() bool {
	return order.IsClosing(s.Action, s.Direction)
}

// IsEntry returns whether acting on the signal opens a position
func (s *Signal) IsEntry() bool {
	return !s.IsExit()
}

// SetParameter records a strategy parameter that produced the signal
func (s *Signal) SetParameter(key, value string) {
	if s.Parameters == nil {
		s.Parameters = make(map[string]string)
	}
	s.Parameters[key] = value
}

// String implements fmt.Stringer
func (s *Signal) String() string {
	return fmt.Sprintf("%s %s %s", s.ID, s.Action, s.Direction)
}
