package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch [tickers...]",
	Short: "Refresh cached price history",
	Long: `Refresh the per-ticker daily price cache. Without arguments the
whole watchlist is refreshed; tickers already covering the last closed
session are served from cache.

Example:
  go run ./cmd/stockscope fetch
  go run ./cmd/stockscope fetch INFY TCS`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	tickers := make([]string, 0, len(args))
	for _, arg := range args {
		tickers = append(tickers, strings.ToUpper(strings.TrimSpace(arg)))
	}
	if len(tickers) == 0 {
		tickers, err = a.watchlist.Tickers()
		if err != nil {
			return fmt.Errorf("load watchlist: %w", err)
		}
	}
	if len(tickers) == 0 {
		fmt.Println("Nothing to fetch: the watchlist is empty")
		return nil
	}

	var failed int
	for i, ticker := range tickers {
		series, err := a.history.Get(cmd.Context(), ticker)
		if err != nil {
			a.log.WithError(err).WithField("ticker", ticker).Warn("History refresh failed")
			failed++
			continue
		}
		fmt.Printf("  [%d/%d] %s: %d bars through %s\n",
			i+1, len(tickers), ticker, len(series), series.LastDate().Format("2006-01-02"))
	}

	fmt.Printf("\nRefreshed %d ticker(s), %d failed\n", len(tickers)-failed, failed)
	return nil
}
