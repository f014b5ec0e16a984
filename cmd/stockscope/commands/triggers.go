package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amitbh/stockscope/internal/notify"
)

// triggersCmd represents the triggers command
var triggersCmd = &cobra.Command{
	Use:   "triggers",
	Short: "Screen holdings against the sell trigger rules",
	Long: `Evaluate every sell trigger rule against the open positions and
print the alerts.

Example:
  go run ./cmd/stockscope triggers`,
	RunE: runTriggers,
}

func init() {
	rootCmd.AddCommand(triggersCmd)
}

func runTriggers(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	holdings, err := a.portfolio.Holdings()
	if err != nil {
		return fmt.Errorf("load holdings: %w", err)
	}
	if len(holdings) == 0 {
		fmt.Println("No open positions to screen")
		return nil
	}

	alerts := a.compiler.Compile(cmd.Context(), holdings)
	if len(alerts) == 0 {
		fmt.Printf("Screened %d position(s): no sell triggers fired\n", len(holdings))
		return nil
	}

	fmt.Println(notify.FormatAlerts(alerts))
	return nil
}
