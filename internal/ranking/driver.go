package ranking

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/amitbh/stockscope/internal/indicator"
	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/internal/scoring"
	"github.com/amitbh/stockscope/pkg/logger"
)

// goodBuyRSICeiling is the broad-mode cut: tickers trading above this RSI
// level are already extended and not worth scoring in a wide sweep.
const goodBuyRSICeiling = 60

// HistorySource is the slice of the history store the driver needs: a
// cheap staleness probe and the cached series for the RSI pre-filter.
type HistorySource interface {
	LastCachedDate(ticker string) time.Time
	Get(ctx context.Context, ticker string) (marketdata.Series, error)
}

// ScoreComputer computes a fresh score record for a ticker.
type ScoreComputer interface {
	Compute(ctx context.Context, ticker string) (*scoring.Record, error)
}

// ScoreStore is the persistence slice the driver needs.
type ScoreStore interface {
	Get(ticker string, date time.Time) (*scoring.Record, error)
	Upsert(record *scoring.Record) error
}

// Progress reports batch advancement to the caller after each ticker.
type Progress struct {
	Done    int
	Total   int
	Ticker  string
	Elapsed time.Duration
	// ETA is a humanized estimate of the remaining time, from the running
	// average per-ticker duration. Empty until one ticker has finished.
	ETA string
}

// Options select the universe and mode for one ranking run.
type Options struct {
	Universe     []string
	ForceRefresh bool
	// Broad enables the wide-sweep pre-filters: only tickers whose cache
	// already covers the as-of-close session and whose RSI sits at or
	// below the good-buy ceiling are scored.
	Broad      bool
	OnProgress func(Progress)
}

// Driver runs the scoring pipeline over a ticker universe, one ticker at
// a time. A single ticker's failure is logged and skipped; it never
// aborts the batch.
type Driver struct {
	history  HistorySource
	computer ScoreComputer
	store    ScoreStore
	resolver scoring.SessionResolver
	logger   *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewDriver creates a ranking driver.
func NewDriver(history HistorySource, computer ScoreComputer, store ScoreStore, resolver scoring.SessionResolver, log *logger.Logger) *Driver {
	return &Driver{
		history:  history,
		computer: computer,
		store:    store,
		resolver: resolver,
		logger:   log,
		now:      time.Now,
	}
}

// Rank scores every ticker in the universe and returns the records sorted
// by trading date, newest first, then by final score, highest first.
func (d *Driver) Rank(ctx context.Context, opts Options) ([]*scoring.Record, error) {
	defer logger.Measure(d.logger, "ranking.rank")()

	_, asOfClose, err := d.resolver.LastTradingDay()
	if err != nil {
		return nil, err
	}

	start := d.now()
	var records []*scoring.Record

	for i, ticker := range opts.Universe {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if record := d.rankOne(ctx, ticker, asOfClose, opts); record != nil {
			records = append(records, record)
		}

		d.reportProgress(opts, i+1, ticker, start)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].Final > records[j].Final
	})

	d.logger.WithFields(map[string]interface{}{
		"universe": len(opts.Universe),
		"ranked":   len(records),
		"date":     asOfClose.Format("2006-01-02"),
	}).Info("Ranking run finished")
	return records, nil
}

// rankOne scores a single ticker, or returns nil when it is filtered out
// or failed.
func (d *Driver) rankOne(ctx context.Context, ticker string, asOfClose time.Time, opts Options) *scoring.Record {
	if opts.Broad && !d.passesBroadFilter(ctx, ticker, asOfClose) {
		return nil
	}

	if !opts.ForceRefresh {
		record, err := d.store.Get(ticker, asOfClose)
		if err == nil {
			return record
		}
		if !errors.Is(err, scoring.ErrNotFound) {
			d.logger.WithError(err).WithField("ticker", ticker).Warn("Score lookup failed, skipping ticker")
			return nil
		}
	}

	record, err := d.computer.Compute(ctx, ticker)
	if err != nil {
		d.logger.WithError(err).WithField("ticker", ticker).Warn("Score computation failed, skipping ticker")
		return nil
	}
	if err := d.store.Upsert(record); err != nil {
		d.logger.WithError(err).WithField("ticker", ticker).Warn("Score persist failed, skipping ticker")
		return nil
	}
	return record
}

// passesBroadFilter applies the cheap wide-sweep cuts before any scoring
// work: the cache must already cover the as-of-close session, and the
// ticker must not be extended past the good-buy RSI ceiling.
func (d *Driver) passesBroadFilter(ctx context.Context, ticker string, asOfClose time.Time) bool {
	lastCached := d.history.LastCachedDate(ticker)
	if !lastCached.Equal(asOfClose) {
		d.logger.WithFields(map[string]interface{}{
			"ticker":      ticker,
			"last_cached": lastCached.Format("2006-01-02"),
		}).Debug("Skipping stale ticker in broad mode")
		return false
	}

	series, err := d.history.Get(ctx, ticker)
	if err != nil {
		d.logger.WithError(err).WithField("ticker", ticker).Warn("History read failed, skipping ticker")
		return false
	}

	rsi := indicator.RawRSI(series)
	if !(rsi <= goodBuyRSICeiling) { // NaN also fails the cut
		d.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"rsi":    rsi,
		}).Debug("Skipping extended ticker in broad mode")
		return false
	}
	return true
}

func (d *Driver) reportProgress(opts Options, done int, ticker string, start time.Time) {
	if opts.OnProgress == nil {
		return
	}

	elapsed := d.now().Sub(start)
	p := Progress{
		Done:    done,
		Total:   len(opts.Universe),
		Ticker:  ticker,
		Elapsed: elapsed,
	}
	if done > 0 && done < p.Total {
		perTicker := elapsed / time.Duration(done)
		remaining := perTicker * time.Duration(p.Total-done)
		p.ETA = humanize.RelTime(d.now(), d.now().Add(remaining), "", "")
	}
	opts.OnProgress(p)
}
