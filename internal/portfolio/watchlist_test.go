package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amitbh/stockscope/pkg/config"
)

func newTestWatchlist(t *testing.T, content string) *Watchlist {
	t.Helper()

	path := filepath.Join(t.TempDir(), "watchlist.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := &config.Config{}
	cfg.Data.WatchlistFile = path
	return NewWatchlist(cfg)
}

func TestWatchlistTickers(t *testing.T) {
	w := newTestWatchlist(t, "# large caps\nINFY\ntcs\n\nSBIN\nINFY\n")

	tickers, err := w.Tickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY", "TCS", "SBIN"}, tickers)
}

func TestWatchlistMissingFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.Data.WatchlistFile = filepath.Join(t.TempDir(), "absent.txt")

	tickers, err := NewWatchlist(cfg).Tickers()
	require.NoError(t, err)
	assert.Empty(t, tickers)
}
