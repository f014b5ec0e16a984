package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amitbh/stockscope/internal/api"
	"github.com/amitbh/stockscope/internal/api/handlers"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and scheduler",
	Long: `Start the REST API server with the background scheduler.

Endpoints:
  GET  /health                - Health check
  GET  /api/ranking           - Score ranking (?all=true for watchlist, ?refresh=true to recompute)
  GET  /api/scores/{ticker}   - Stored score record for the last closed session
  GET  /api/history/{ticker}  - Cached daily price history
  GET  /api/portfolio         - Open positions
  POST /api/portfolio         - Record a transaction
  GET  /api/triggers          - Sell trigger screen over holdings
  GET  /api/jobs              - Scheduled job statistics

Example:
  go run ./cmd/stockscope serve
  go run ./cmd/stockscope serve --port 8087`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if servePort != "" {
		a.cfg.Port = servePort
	}

	sched, err := a.newScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	router := api.NewRouter(api.Handlers{
		Ranking:   handlers.NewRankingHandler(a.ranker, a.portfolio, a.watchlist, a.log),
		Scores:    handlers.NewScoresHandler(a.scores, a.resolver, a.log),
		History:   handlers.NewHistoryHandler(a.history, a.log),
		Portfolio: handlers.NewPortfolioHandler(a.portfolio, a.nse, a.log),
		Triggers:  handlers.NewTriggersHandler(a.compiler, a.portfolio, a.log),
		Jobs:      handlers.NewJobsHandler(sched, a.log),
	}, a.log)

	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
