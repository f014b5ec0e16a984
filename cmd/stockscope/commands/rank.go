package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amitbh/stockscope/internal/ranking"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score and rank a ticker universe",
	Long: `Score the holdings universe (or the whole watchlist) and print
the ranking table, best score first within the freshest session.

Example:
  go run ./cmd/stockscope rank
  go run ./cmd/stockscope rank --all
  go run ./cmd/stockscope rank --refresh`,
	RunE: runRank,
}

var (
	rankAll     bool
	rankRefresh bool
)

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().BoolVar(&rankAll, "all", false, "rank the whole watchlist instead of holdings")
	rankCmd.Flags().BoolVar(&rankRefresh, "refresh", false, "recompute scores even when cached")
}

func runRank(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	var source interface{ Tickers() ([]string, error) } = a.portfolio
	if rankAll {
		source = a.watchlist
	}

	universe, err := source.Tickers()
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}
	if len(universe) == 0 {
		fmt.Println("Nothing to rank: the universe is empty")
		return nil
	}

	records, err := a.ranker.Rank(cmd.Context(), ranking.Options{
		Universe:     universe,
		ForceRefresh: rankRefresh,
		Broad:        rankAll,
		OnProgress: func(p ranking.Progress) {
			if p.ETA != "" {
				fmt.Printf("  [%d/%d] %s (about %s left)\n", p.Done, p.Total, p.Ticker, p.ETA)
				return
			}
			fmt.Printf("  [%d/%d] %s\n", p.Done, p.Total, p.Ticker)
		},
	})
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No tickers passed the filters")
		return nil
	}

	fmt.Printf("\n%-12s %-12s %s\n", "TICKER", "DATE", "FINAL")
	for _, rec := range records {
		fmt.Printf("%-12s %-12s %.1f\n", rec.Ticker, rec.Date.Format("2006-01-02"), rec.Final)
	}
	return nil
}
