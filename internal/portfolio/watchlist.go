package portfolio

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/amitbh/stockscope/pkg/config"
)

// Watchlist is the broader ticker universe for wide ranking sweeps, kept
// as a newline-separated file so it can be edited by hand.
type Watchlist struct {
	path string
}

// NewWatchlist creates a watchlist over the configured file.
func NewWatchlist(cfg *config.Config) *Watchlist {
	return &Watchlist{path: cfg.Data.WatchlistFile}
}

// Tickers returns the watched tickers. Blank lines and # comments are
// ignored; a missing file is an empty watchlist.
func (w *Watchlist) Tickers() ([]string, error) {
	f, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open watchlist: %w", err)
	}
	defer f.Close()

	var tickers []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ticker := strings.ToUpper(line)
		if seen[ticker] {
			continue
		}
		seen[ticker] = true
		tickers = append(tickers, ticker)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	return tickers, nil
}
