package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amitbh/stockscope/internal/scheduler/jobs"
)

// digestCmd represents the digest command
var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Send the sell trigger digest email now",
	Long: `Run the sell trigger digest once, outside its schedule. Nothing
is sent when no trigger fires.

Example:
  go run ./cmd/stockscope digest`,
	RunE: runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	job := jobs.NewSellDigestJob(a.portfolio, a.compiler, a.digest, a.cfg, a.log)
	if err := job.Run(cmd.Context()); err != nil {
		return fmt.Errorf("run digest: %w", err)
	}

	fmt.Println("Digest run complete")
	return nil
}
