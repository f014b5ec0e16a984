package triggers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/internal/portfolio"
	"github.com/amitbh/stockscope/pkg/logger"
)

func seriesFromCloses(closes []float64) marketdata.Series {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(marketdata.Series, 0, len(closes))
	for i, c := range closes {
		s = append(s, marketdata.Bar{
			Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
		})
	}
	return s
}

// slowUptrendWithDip rises gently so the 20-EMA hugs the 50-SMA, then
// dips under the 5-SMA on the last bar.
func slowUptrendWithDip() marketdata.Series {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + 0.1*float64(i)
	}
	closes[99] = closes[98] - 1
	return seriesFromCloses(closes)
}

func TestEMASMATriggerFires(t *testing.T) {
	alert, err := EMASMATrigger{}.Evaluate(context.Background(), "INFY", slowUptrendWithDip())
	require.NoError(t, err)
	require.NotNil(t, alert, "converging averages with a dip under the 5-SMA must fire")
	assert.Equal(t, "20 EMA and 50 SMA", alert.Trigger)
}

func TestEMASMATriggerQuietOnWideSpread(t *testing.T) {
	// A steep uptrend keeps the EMA far above the SMA
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + 2*float64(i)
	}
	closes[99] = closes[98] - 5 // dip alone is not enough

	alert, err := EMASMATrigger{}.Evaluate(context.Background(), "INFY", seriesFromCloses(closes))
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestEMASMATriggerQuietOnShortSeries(t *testing.T) {
	alert, err := EMASMATrigger{}.Evaluate(context.Background(), "INFY", seriesFromCloses([]float64{100, 101}))
	require.NoError(t, err)
	assert.Nil(t, alert)
}

type fakeQuotes struct {
	price float64
	err   error
}

func (f fakeQuotes) LastPrice(ctx context.Context, ticker string) (float64, error) {
	return f.price, f.err
}

func rising300() marketdata.Series {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return seriesFromCloses(closes)
}

func TestHigh52WeekTriggerFires(t *testing.T) {
	// Closing high is 399; a live price of 395 is within two percent
	trigger := High52WeekTrigger{Quotes: fakeQuotes{price: 395}}

	alert, err := trigger.Evaluate(context.Background(), "INFY", rising300())
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, "Near 52 Week High", alert.Trigger)
	assert.Contains(t, alert.Detail, "current diff")
}

func TestHigh52WeekTriggerQuietFarFromHigh(t *testing.T) {
	trigger := High52WeekTrigger{Quotes: fakeQuotes{price: 350}}

	alert, err := trigger.Evaluate(context.Background(), "INFY", rising300())
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestHigh52WeekTriggerQuietInDowntrend(t *testing.T) {
	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	closes[299] = closes[298] - 1 // last bar down

	trigger := High52WeekTrigger{Quotes: fakeQuotes{price: 398}}
	alert, err := trigger.Evaluate(context.Background(), "INFY", seriesFromCloses(closes))
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestHigh52WeekTriggerQuoteError(t *testing.T) {
	trigger := High52WeekTrigger{Quotes: fakeQuotes{err: errors.New("quote down")}}

	_, err := trigger.Evaluate(context.Background(), "INFY", rising300())
	assert.Error(t, err)
}

// crossRallyAndSelloff falls, rallies through a golden cross, tops out
// and sells off.
func crossRallyAndSelloff() marketdata.Series {
	var closes []float64
	for i := 0; i < 100; i++ {
		closes = append(closes, 200-float64(i))
	}
	for i := 0; i < 50; i++ {
		closes = append(closes, 100+2*float64(i))
	}
	for i := 1; i <= 20; i++ {
		closes = append(closes, 198-5*float64(i))
	}
	return seriesFromCloses(closes)
}

func TestDowntrendAfterHighFires(t *testing.T) {
	alert, err := DowntrendAfterHighTrigger{}.Evaluate(context.Background(), "INFY", crossRallyAndSelloff())
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, "Downtrend after high", alert.Trigger)
}

func TestDowntrendAfterHighQuietWhileRunning(t *testing.T) {
	// An unbroken rally is still making its post-cross high
	var closes []float64
	for i := 0; i < 100; i++ {
		closes = append(closes, 200-float64(i))
	}
	for i := 0; i < 80; i++ {
		closes = append(closes, 100+2*float64(i))
	}

	alert, err := DowntrendAfterHighTrigger{}.Evaluate(context.Background(), "INFY", seriesFromCloses(closes))
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestDowntrendAfterHighQuietWithoutCross(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 500 - float64(i)
	}

	alert, err := DowntrendAfterHighTrigger{}.Evaluate(context.Background(), "INFY", seriesFromCloses(closes))
	require.NoError(t, err)
	assert.Nil(t, alert)
}

type fakeHistory struct {
	series map[string]marketdata.Series
}

func (f *fakeHistory) Get(ctx context.Context, ticker string) (marketdata.Series, error) {
	s, ok := f.series[ticker]
	if !ok {
		return nil, marketdata.ErrDataUnavailable
	}
	return s, nil
}

func TestCompileSkipsFailingPosition(t *testing.T) {
	history := &fakeHistory{series: map[string]marketdata.Series{
		"INFY": slowUptrendWithDip(),
	}}
	compiler := NewCompiler(history, fakeQuotes{price: 1}, logger.Nop())

	holdings := []portfolio.Holding{
		{Ticker: "GONE", Company: "Gone Limited"},
		{Ticker: "INFY", Company: "Infosys Limited"},
	}

	alerts := compiler.Compile(context.Background(), holdings)
	require.Len(t, alerts, 1, "the unfetchable position is skipped, the batch continues")

	assert.Equal(t, "INFY", alerts[0].Ticker)
	assert.Equal(t, "Infosys Limited", alerts[0].Company)
	assert.Equal(t, "20 EMA and 50 SMA", alerts[0].Trigger)
}
