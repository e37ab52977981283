package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/data"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
)

var (
	errInvalidHeader = errors.New("csv header must be timestamp,open,high,low,close,volume")
	errInvalidRow    = errors.New("invalid csv row")
	errNoFile        = errors.New("no csv file configured")
)

var header = []string{"timestamp", "open", "high", "low", "close", "volume"}

// Source is one asset's CSV file
type Source struct {
	Asset market.Asset
	Path  string
}

// Feed replays candles from one CSV file per asset
type Feed struct {
	*data.Historical
	sources []Source
	started bool
}

// New returns a CSV feed. Same timestamp candles are emitted in the order
// the sources are listed
func New(sink data.Sink, sources []Source) (*Feed, error) {
	assets := make([]market.Asset, len(sources))
	for i := range sources {
		if sources[i].Path == "" {
			return nil, fmt.Errorf("%w for %v", errNoFile, sources[i].Asset)
		}
		assets[i] = sources[i].Asset
	}
	h, err := data.NewHistorical(sink, assets)
	if err != nil {
		return nil, err
	}
	return &Feed{Historical: h, sources: sources}, nil
}

// Start reads every file
func (f *Feed) Start(context.Context) error {
	if f.started {
		return data.ErrAlreadyStarted
	}
	f.started = true
	var errs error
	for i := range f.sources {
		candles, err := ReadFile(f.sources[i].Path, f.sources[i].Asset)
		if err != nil {
			errs = common.AppendError(errs, err)
			continue
		}
		if err := f.Load(candles); err != nil {
			errs = common.AppendError(errs, err)
		}
		log.Infof(log.Data, "loaded %d candles for %v from %s", len(candles), f.sources[i].Asset, f.sources[i].Path)
	}
	return errs
}

// ReadFile parses a candle CSV file for asset
func ReadFile(path string, asset market.Asset) (resp []market.Candle, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Errorln(log.Data, closeErr)
		}
	}()
	return Read(file, asset)
}

// Read parses candles for asset. The first row must be the header
// timestamp,open,high,low,close,volume
func Read(r io.Reader, asset market.Asset) ([]market.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(header)
	reader.TrimLeadingSpace = true
	row, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errInvalidHeader
		}
		return nil, err
	}
	for i := range header {
		if !strings.EqualFold(strings.TrimSpace(row[i]), header[i]) {
			return nil, fmt.Errorf("%w, received %v", errInvalidHeader, row)
		}
	}
	var resp []market.Candle
	for line := 2; ; line++ {
		row, err = reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return resp, nil
			}
			return resp, err
		}
		c, err := parseRow(row, asset)
		if err != nil {
			return resp, fmt.Errorf("%w on line %d: %w", errInvalidRow, line, err)
		}
		resp = append(resp, c)
	}
}

func parseRow(row []string, asset market.Asset) (market.Candle, error) {
	c := market.Candle{Asset: asset}
	var err error
	if c.Timestamp, err = parseTimestamp(row[0]); err != nil {
		return c, err
	}
	fields := []*decimal.Decimal{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
	for i := range fields {
		if *fields[i], err = decimal.NewFromString(strings.TrimSpace(row[i+1])); err != nil {
			return c, fmt.Errorf("%s: %w", header[i+1], err)
		}
	}
	return c, c.Validate()
}

// parseTimestamp accepts the candle wire layout, RFC 3339 and unix seconds
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(v, 0).UTC(), nil
	}
	return market.ParseTimestamp(s)
}
