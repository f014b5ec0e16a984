package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amitbh/stockscope/internal/indicator"
	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/pkg/logger"
)

type stubHistory struct {
	series marketdata.Series
	err    error
}

func (s *stubHistory) Get(ctx context.Context, ticker string) (marketdata.Series, error) {
	return s.series, s.err
}

type stubResolver struct {
	actual    time.Time
	asOfClose time.Time
	err       error
}

func (s *stubResolver) LastTradingDay() (time.Time, time.Time, error) {
	return s.actual, s.asOfClose, s.err
}

func trendingSeries(n int) marketdata.Series {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(marketdata.Series, 0, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		s = append(s, marketdata.Bar{
			Date: start.AddDate(0, 0, i), Open: c - 0.5, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000 + float64(i%7)*100,
		})
	}
	return s
}

func TestComputeStampsAsOfClose(t *testing.T) {
	wednesday := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	agg := NewAggregator(
		&stubHistory{series: trendingSeries(300)},
		&stubResolver{actual: wednesday, asOfClose: tuesday},
		logger.Nop(),
	)

	record, err := agg.Compute(context.Background(), "INFY")
	require.NoError(t, err)

	assert.Equal(t, "INFY", record.Ticker)
	assert.Equal(t, tuesday, record.Date, "record must carry the as-of-close session, not today")
}

func TestComputeSumsAllIndicators(t *testing.T) {
	series := trendingSeries(300)
	agg := NewAggregator(
		&stubHistory{series: series},
		&stubResolver{asOfClose: time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)},
		logger.Nop(),
	)

	record, err := agg.Compute(context.Background(), "INFY")
	require.NoError(t, err)

	var wantColumns int
	var wantFinal float64
	for _, ind := range indicator.Registry() {
		result := ind.Compute(series)
		wantColumns += len(result.Scores)
		wantFinal += result.Final
	}

	assert.Len(t, record.Scores, wantColumns)
	assert.Equal(t, coerce32(wantFinal), record.Final)
}

func TestComputeEmptyHistory(t *testing.T) {
	agg := NewAggregator(&stubHistory{}, &stubResolver{}, logger.Nop())

	_, err := agg.Compute(context.Background(), "NEWIPO")
	assert.True(t, errors.Is(err, ErrInsufficientData), "expected ErrInsufficientData, got %v", err)
}

func TestComputeHistoryErrorPropagates(t *testing.T) {
	agg := NewAggregator(
		&stubHistory{err: marketdata.ErrDataUnavailable},
		&stubResolver{},
		logger.Nop(),
	)

	_, err := agg.Compute(context.Background(), "INFY")
	assert.True(t, errors.Is(err, marketdata.ErrDataUnavailable))
}

func TestComputeResolverErrorPropagates(t *testing.T) {
	agg := NewAggregator(
		&stubHistory{series: trendingSeries(50)},
		&stubResolver{err: marketdata.ErrNoTradingSession},
		logger.Nop(),
	)

	_, err := agg.Compute(context.Background(), "INFY")
	assert.True(t, errors.Is(err, marketdata.ErrNoTradingSession))
}
