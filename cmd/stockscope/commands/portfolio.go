package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/internal/portfolio"
)

// portfolioCmd represents the portfolio command
var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Manage the transaction ledger",
	Long: `Record transactions and inspect the open positions they net to.

Subcommands:
  add   - record a buy (positive quantity) or sell (negative quantity)
  list  - print the open positions

Example:
  go run ./cmd/stockscope portfolio add INFY --date 2026-08-25 --quantity 10 --price 1500
  go run ./cmd/stockscope portfolio add INFY --date 2026-08-26 --quantity -5 --price 1550
  go run ./cmd/stockscope portfolio list`,
}

var (
	portfolioAddCmd = &cobra.Command{
		Use:   "add [ticker]",
		Short: "Record a transaction",
		Args:  cobra.ExactArgs(1),
		RunE:  addTransaction,
	}

	portfolioListCmd = &cobra.Command{
		Use:   "list",
		Short: "Print the open positions",
		RunE:  listHoldings,
	}
)

var (
	txDate     string
	txQuantity float64
	txPrice    float64
)

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(portfolioAddCmd)
	portfolioCmd.AddCommand(portfolioListCmd)

	portfolioAddCmd.Flags().StringVar(&txDate, "date", "", "transaction date, YYYY-MM-DD (default today)")
	portfolioAddCmd.Flags().Float64Var(&txQuantity, "quantity", 0, "shares, negative for a sell")
	portfolioAddCmd.Flags().Float64Var(&txPrice, "price", 0, "price per share")
	portfolioAddCmd.MarkFlagRequired("quantity")
	portfolioAddCmd.MarkFlagRequired("price")
}

func addTransaction(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ticker := strings.ToUpper(strings.TrimSpace(args[0]))

	date := time.Now()
	if txDate != "" {
		date, err = time.Parse("2006-01-02", txDate)
		if err != nil {
			return fmt.Errorf("invalid --date (expected YYYY-MM-DD): %w", err)
		}
	}

	// The quote lookup validates the symbol and supplies the company name
	quote, err := a.nse.FetchQuote(cmd.Context(), ticker)
	if err != nil {
		return fmt.Errorf("unknown or unquotable ticker %s: %w", ticker, err)
	}

	tx := portfolio.Transaction{
		Ticker:   ticker,
		Company:  quote.CompanyName,
		Date:     marketdata.Day(date),
		Quantity: txQuantity,
		Price:    txPrice,
	}
	if err := a.portfolio.Add(tx); err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}

	fmt.Printf("Recorded %s %.0f @ %.2f (%s)\n", ticker, txQuantity, txPrice, quote.CompanyName)
	return nil
}

func listHoldings(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	holdings, err := a.portfolio.Holdings()
	if err != nil {
		return fmt.Errorf("load holdings: %w", err)
	}
	if len(holdings) == 0 {
		fmt.Println("No open positions")
		return nil
	}

	fmt.Printf("%-12s %-32s %10s %12s\n", "TICKER", "COMPANY", "QUANTITY", "AVG PRICE")
	for _, h := range holdings {
		fmt.Printf("%-12s %-32s %10.0f %12.2f\n", h.Ticker, h.Company, h.Quantity, h.AvgPrice)
	}
	return nil
}
