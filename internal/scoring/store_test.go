package scoring

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amitbh/stockscope/pkg/config"
	"github.com/amitbh/stockscope/pkg/logger"
)

func newTestScoreStore(t *testing.T) *Store {
	t.Helper()
	cfg := &config.Config{
		Data: config.DataConfig{ScoresFile: filepath.Join(t.TempDir(), "scores.csv")},
	}
	return NewStore(cfg, logger.Nop())
}

func testRecord(ticker string, date time.Time, final float64) *Record {
	return &Record{
		Ticker: ticker,
		Date:   date,
		Final:  final,
		Scores: map[string]float64{
			"rsi_score":  1,
			"macd_score": 0,
		},
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestScoreStore(t)

	_, err := store.Get("INFY", time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestUpsertThenGet(t *testing.T) {
	store := newTestScoreStore(t)
	date := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(testRecord("INFY", date, 5)))

	got, err := store.Get("INFY", date)
	require.NoError(t, err)

	assert.Equal(t, "INFY", got.Ticker)
	assert.Equal(t, date, got.Date)
	assert.Equal(t, 5.0, got.Final)
	assert.Equal(t, 1.0, got.Scores["rsi_score"])
	assert.Equal(t, 0.0, got.Scores["macd_score"])
}

func TestSecondUpsertWins(t *testing.T) {
	store := newTestScoreStore(t)
	date := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(testRecord("INFY", date, 5)))
	require.NoError(t, store.Upsert(testRecord("INFY", date, 7)))

	got, err := store.Get("INFY", date)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.Final)

	all, err := store.All()
	require.NoError(t, err)
	assert.Len(t, all, 1, "upsert must replace, not append")
}

func TestUpsertKeepsOtherKeys(t *testing.T) {
	store := newTestScoreStore(t)
	wednesday := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(testRecord("INFY", tuesday, 3)))
	require.NoError(t, store.Upsert(testRecord("TCS", wednesday, 4)))
	require.NoError(t, store.Upsert(testRecord("INFY", wednesday, 5)))

	all, err := store.All()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := store.Get("INFY", tuesday)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Final)
}

func TestGetDuplicateSelfHeal(t *testing.T) {
	store := newTestScoreStore(t)

	// Two rows for the same key is a corruption state no write path can
	// produce; seed it directly
	content := strings.Join([]string{
		"ticker,date,final_score,macd_score,rsi_score",
		"INFY,2026-08-26,5,0,1",
		"INFY,2026-08-26,6,1,1",
		"TCS,2026-08-26,2,1,0",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(store.path, []byte(content), 0o644))

	date := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	_, err := store.Get("INFY", date)
	assert.True(t, errors.Is(err, ErrNotFound), "duplicates must heal to a miss, got %v", err)

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1, "both duplicate rows must be deleted")
	assert.Equal(t, "TCS", all[0].Ticker)

	// The healed store accepts a clean reinsert
	require.NoError(t, store.Upsert(testRecord("INFY", date, 5)))
	got, err := store.Get("INFY", date)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Final)
}

func TestDelete(t *testing.T) {
	store := newTestScoreStore(t)
	wednesday := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(testRecord("INFY", tuesday, 3)))
	require.NoError(t, store.Upsert(testRecord("INFY", wednesday, 5)))
	require.NoError(t, store.Upsert(testRecord("TCS", wednesday, 4)))

	require.NoError(t, store.Delete("INFY"))

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "TCS", all[0].Ticker)
}

func TestUnknownColumnsSurviveRewrite(t *testing.T) {
	store := newTestScoreStore(t)

	content := strings.Join([]string{
		"ticker,date,final_score,legacy_score",
		"OLD,2026-08-25,1,1",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(store.path, []byte(content), 0o644))

	date := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Upsert(testRecord("INFY", date, 5)))

	old, err := store.Get("OLD", time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1.0, old.Scores["legacy_score"])

	raw, err := os.ReadFile(store.path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "legacy_score")
}

func TestColumnOrderIsStable(t *testing.T) {
	store := newTestScoreStore(t)
	date := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	record := &Record{
		Ticker: "INFY",
		Date:   date,
		Final:  2,
		Scores: map[string]float64{
			"rsi_score":      1,
			"adx_score":      0,
			"macd_score":     1,
			"ma_trend_score": 0,
		},
	}
	require.NoError(t, store.Upsert(record))

	raw, err := os.ReadFile(store.path)
	require.NoError(t, err)

	header := strings.SplitN(string(raw), "\n", 2)[0]
	assert.Equal(t, "ticker,date,final_score,adx_score,ma_trend_score,macd_score,rsi_score", header)
}
