package candle

import (
	"database/sql"
	"errors"

	"github.com/dgraph-io/ristretto"
)

// DefaultCacheSize is the number of existence checks remembered
const DefaultCacheSize = 1 << 16

var (
	errInvalidInput = errors.New("exchange, symbol and interval must be set")
	errInvalidRange = errors.New("start must be before end")
)

// Repository stores candles. Positive existence checks are cached, a
// stored candle never disappears so a hit never goes stale
type Repository struct {
	db     *sql.DB
	exists *ristretto.Cache
}
