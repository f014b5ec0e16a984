package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockscope",
	Short: "Personal NSE stock tracking dashboard",
	Long: `StockScope tracks a personal NSE portfolio and watchlist.

It caches daily price history per ticker, scores each ticker with a
battery of technical indicators, ranks the results, and screens open
positions against sell trigger rules.

Examples:
  go run ./cmd/stockscope serve
  go run ./cmd/stockscope rank --all
  go run ./cmd/stockscope portfolio add INFY --date 2026-08-25 --quantity 10 --price 1500
  go run ./cmd/stockscope triggers`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}
