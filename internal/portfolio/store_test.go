package portfolio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amitbh/stockscope/pkg/config"
	"github.com/amitbh/stockscope/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.Config{
		Data: config.DataConfig{PortfolioFile: filepath.Join(t.TempDir(), "portfolio.csv")},
	}
	return NewStore(cfg, logger.Nop())
}

func buy(ticker string, qty, price float64) Transaction {
	return Transaction{
		Ticker:   ticker,
		Company:  ticker + " Limited",
		Date:     time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		Quantity: qty,
		Price:    price,
	}
}

func TestAddAndList(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Add(buy("INFY", 10, 1500)))
	require.NoError(t, store.Add(buy("TCS", 5, 3800)))

	txs, err := store.List()
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "INFY", txs[0].Ticker)
	assert.Equal(t, "INFY Limited", txs[0].Company)
	assert.Equal(t, 10.0, txs[0].Quantity)
	assert.Equal(t, 1500.0, txs[0].Price)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
	}{
		{"empty ticker", Transaction{Quantity: 1, Price: 100, Date: time.Now()}},
		{"zero quantity", Transaction{Ticker: "INFY", Quantity: 0, Price: 100, Date: time.Now()}},
		{"zero price", Transaction{Ticker: "INFY", Quantity: 1, Price: 0, Date: time.Now()}},
		{"negative price", Transaction{Ticker: "INFY", Quantity: 1, Price: -5, Date: time.Now()}},
		{"no date", Transaction{Ticker: "INFY", Quantity: 1, Price: 100}},
	}

	store := newTestStore(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.Add(tt.tx))
		})
	}

	txs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, txs, "invalid transactions must not reach the ledger")
}

func TestHoldingsNetsBuysAndSells(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Add(buy("INFY", 10, 1500)))
	require.NoError(t, store.Add(buy("INFY", 10, 1700)))
	sell := buy("INFY", -5, 1800)
	require.NoError(t, store.Add(sell))
	require.NoError(t, store.Add(buy("TCS", 5, 3800)))

	holdings, err := store.Holdings()
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	assert.Equal(t, "INFY", holdings[0].Ticker)
	assert.Equal(t, 15.0, holdings[0].Quantity)
	assert.InDelta(t, 1600.0, holdings[0].AvgPrice, 0.01)
	assert.Equal(t, "TCS", holdings[1].Ticker)
}

func TestHoldingsDropsClosedPositions(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Add(buy("INFY", 10, 1500)))
	require.NoError(t, store.Add(buy("INFY", -10, 1800)))
	require.NoError(t, store.Add(buy("TCS", 5, 3800)))

	tickers, err := store.Tickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS"}, tickers)
}

func TestEmptyLedger(t *testing.T) {
	store := newTestStore(t)

	holdings, err := store.Holdings()
	require.NoError(t, err)
	assert.Empty(t, holdings)

	tickers, err := store.Tickers()
	require.NoError(t, err)
	assert.Empty(t, tickers)
}
