package strategies

import (
	"fmt"
	"strings"

	"github.com/thrasher-corp/tradecore/eventhandlers/strategies/base"
	"github.com/thrasher-corp/tradecore/eventhandlers/strategies/rsi"
	"github.com/thrasher-corp/tradecore/eventhandlers/strategies/smacrossover"
)

// LoadStrategyByName returns a new strategy with default settings
func LoadStrategyByName(name string) (Handler, error) {
	strats := GetStrategies()
	for i := range strats {
		if !strings.EqualFold(name, strats[i].Name()) {
			continue
		}
		strats[i].SetDefaults()
		return strats[i], nil
	}
	return nil, fmt.Errorf("strategy %q %w", name, base.ErrStrategyNotFound)
}

// GetStrategies returns a new instance of every registered strategy
func GetStrategies() []Handler {
	return []Handler{
		new(smacrossover.Strategy),
		new(rsi.Strategy),
	}
}
