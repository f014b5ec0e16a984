package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amitbh/stockscope/internal/indicator"
	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/pkg/logger"
)

// ErrInsufficientData is returned when a ticker has no price history to
// score at all.
var ErrInsufficientData = errors.New("insufficient price history")

// HistoryProvider supplies the full price series for a ticker.
type HistoryProvider interface {
	Get(ctx context.Context, ticker string) (marketdata.Series, error)
}

// SessionResolver reports the latest trading session and the latest
// session whose close is final.
type SessionResolver interface {
	LastTradingDay() (actual, asOfClose time.Time, err error)
}

// Aggregator computes a ticker's composite score by running every
// registered indicator over the same price series and summing their
// contributions.
type Aggregator struct {
	history  HistoryProvider
	resolver SessionResolver
	registry []indicator.Indicator
	logger   *logger.Logger
}

// NewAggregator creates an aggregator over the full indicator registry.
func NewAggregator(history HistoryProvider, resolver SessionResolver, log *logger.Logger) *Aggregator {
	return &Aggregator{
		history:  history,
		resolver: resolver,
		registry: indicator.Registry(),
		logger:   log,
	}
}

// Compute scores a ticker. The record is stamped with the as-of-close
// session, not wall-clock today, so a run before market close produces
// the previous session's record instead of a half-day one.
func (a *Aggregator) Compute(ctx context.Context, ticker string) (*Record, error) {
	defer logger.Measure(a.logger, "score.compute")()

	series, err := a.history.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientData, ticker)
	}

	_, asOfClose, err := a.resolver.LastTradingDay()
	if err != nil {
		return nil, err
	}

	scores := make(map[string]float64)
	var final float64
	for _, ind := range a.registry {
		result := ind.Compute(series)
		for col, v := range result.Scores {
			scores[col] = coerce32(v)
		}
		final += result.Final
	}

	record := &Record{
		Ticker: ticker,
		Date:   asOfClose,
		Final:  coerce32(final),
		Scores: scores,
	}

	a.logger.WithFields(map[string]interface{}{
		"ticker":      ticker,
		"date":        record.Date.Format("2006-01-02"),
		"final_score": record.Final,
	}).Debug("Computed composite score")
	return record, nil
}
