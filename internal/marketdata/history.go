package marketdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/amitbh/stockscope/pkg/config"
	"github.com/amitbh/stockscope/pkg/logger"
)

// ErrDataUnavailable is returned when no price history can be obtained for
// a ticker from either the local cache or the upstream source.
var ErrDataUnavailable = errors.New("no price history available")

// Fetcher pulls bars from the upstream price source. Implementations must
// tolerate inverted or future-shifted ranges by returning an empty slice,
// not an error.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error)
}

// HistoryStore caches per-ticker price series as one CSV file per ticker
// and fills gaps incrementally from the upstream source. A fresh cache is
// answered without any network call; that is a quota-protection requirement
// because the upstream rate-limits, not just an optimization.
type HistoryStore struct {
	dir          string
	fetcher      Fetcher
	resolver     *Resolver
	historyYears int
	logger       *logger.Logger
}

// NewHistoryStore creates a history store from config.
func NewHistoryStore(cfg *config.Config, fetcher Fetcher, resolver *Resolver, log *logger.Logger) *HistoryStore {
	return &HistoryStore{
		dir:          cfg.Data.HistoryDir,
		fetcher:      fetcher,
		resolver:     resolver,
		historyYears: cfg.Market.HistoryYears,
		logger:       log,
	}
}

// Get returns the full price series for a ticker, refreshing the local
// cache from upstream when it is stale. Returns ErrDataUnavailable when the
// series is empty even after a fetch attempt.
func (s *HistoryStore) Get(ctx context.Context, ticker string) (Series, error) {
	defer logger.Measure(s.logger, "history.get")()

	cached, err := s.load(ticker)
	if err != nil {
		return nil, err
	}

	_, asOfClose, err := s.resolver.LastTradingDay()
	if err != nil {
		return nil, err
	}

	today := Day(s.resolver.now().In(s.resolver.location))

	var from time.Time
	if len(cached) == 0 {
		from = today.AddDate(-s.historyYears, 0, 0)
	} else {
		lastDate := cached.LastDate()
		if lastDate.Equal(asOfClose) || lastDate.After(asOfClose) {
			s.logger.WithFields(map[string]interface{}{
				"ticker":    ticker,
				"last_date": lastDate.Format("2006-01-02"),
			}).Debug("Price history cache is fresh")
			return cached, nil
		}
		from = lastDate.AddDate(0, 0, 1)
	}

	newBars, err := s.fetcher.Fetch(ctx, ticker, from, today)
	if err != nil {
		if len(cached) > 0 {
			// A stale cache still beats no data; the staleness filter in the
			// ranking driver decides whether it is usable.
			s.logger.WithError(err).WithField("ticker", ticker).Warn("Delta fetch failed, serving stale cache")
			return cached, nil
		}
		return nil, fmt.Errorf("fetch history for %s: %w", ticker, err)
	}

	merged := cached.Merge(newBars)
	if len(merged) == 0 {
		// Empty delta for a ticker with no cache at all: nothing to serve
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, ticker)
	}

	if len(newBars) > 0 {
		if err := s.save(ticker, merged); err != nil {
			return nil, fmt.Errorf("persist history for %s: %w", ticker, err)
		}
		s.logger.WithFields(map[string]interface{}{
			"ticker":   ticker,
			"fetched":  len(newBars),
			"total":    len(merged),
			"from":     from.Format("2006-01-02"),
		}).Info("Price history updated")
	}

	return merged, nil
}

// LastCachedDate returns the date of the newest bar in the local cache
// without touching the network. Zero time when no cache exists. Used as the
// cheap staleness pre-filter in broad ranking mode.
func (s *HistoryStore) LastCachedDate(ticker string) time.Time {
	cached, err := s.load(ticker)
	if err != nil {
		return time.Time{}
	}
	return cached.LastDate()
}

func (s *HistoryStore) path(ticker string) string {
	return filepath.Join(s.dir, ticker+".csv")
}

var historyHeader = []string{"date", "open", "high", "low", "close", "volume"}

// load reads the cached series for a ticker. A missing file is an empty
// series, not an error.
func (s *HistoryStore) load(ticker string) (Series, error) {
	f, err := os.Open(s.path(ticker))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history cache for %s: %w", ticker, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read history cache for %s: %w", ticker, err)
	}

	var series Series
	for i, row := range rows {
		if i == 0 || len(row) < 6 {
			continue // header
		}

		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("history cache for %s row %d: %w", ticker, i, err)
		}

		bar := Bar{Date: Day(date)}
		bar.Open, _ = strconv.ParseFloat(row[1], 64)
		bar.High, _ = strconv.ParseFloat(row[2], 64)
		bar.Low, _ = strconv.ParseFloat(row[3], 64)
		bar.Close, _ = strconv.ParseFloat(row[4], 64)
		bar.Volume, _ = strconv.ParseFloat(row[5], 64)
		series = append(series, bar)
	}

	series.Sort()
	return series, nil
}

// save rewrites the whole per-ticker cache file. Write cost is O(rows),
// which is fine at one write per ticker per trading day.
func (s *HistoryStore) save(ticker string, series Series) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ticker+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(historyHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}

	for _, b := range series {
		row := []string{
			b.Date.Format("2006-01-02"),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write bar: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return os.Rename(tmp.Name(), s.path(ticker))
}
