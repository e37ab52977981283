package market

import (
	"fmt"
	"strings"
)

// NewAsset returns an upper-cased asset
func NewAsset(symbol, exchange string) Asset {
	return Asset{
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Exchange: strings.ToUpper(strings.TrimSpace(exchange)),
	}
}

// ParseAsset parses the EXCHANGE:SYMBOL form produced by String
func ParseAsset(s string) (Asset, error) {
	exch, sym, ok := strings.Cut(s, ":")
	if !ok {
		return Asset{}, fmt.Errorf("%w %q", ErrInvalidAsset, s)
	}
	a := NewAsset(sym, exch)
	return a, a.Validate()
}

// Validate checks that both symbol and exchange are set
func (a Asset) Validate() error {
	if a.Symbol == "" || a.Exchange == "" {
		return fmt.Errorf("%w %q", ErrInvalidAsset, a.String())
	}
	return nil
}

// String returns EXCHANGE:SYMBOL
func (a Asset) String() string {
	return a.Exchange + ":" + a.Symbol
}

// Compare orders assets by symbol then exchange
func (a Asset) Compare(b Asset) int {
	if c := strings.Compare(a.Symbol, b.Symbol); c != 0 {
		return c
	}
	return strings.Compare(a.Exchange, b.Exchange)
}

// Less reports whether a sorts before b
func (a Asset) Less(b Asset) bool {
	return a.Compare(b) < 0
}

// IsEmpty returns whether the asset is the zero value
func (a Asset) IsEmpty() bool {
	return a == Asset{}
}
