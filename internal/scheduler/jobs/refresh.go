package jobs

import (
	"context"
	"fmt"

	"github.com/amitbh/stockscope/internal/ranking"
	"github.com/amitbh/stockscope/internal/scoring"
	"github.com/amitbh/stockscope/pkg/logger"
)

// UniverseSource lists the tickers to refresh.
type UniverseSource interface {
	Tickers() ([]string, error)
}

// Ranker runs the scoring pipeline over a universe.
type Ranker interface {
	Rank(ctx context.Context, opts ranking.Options) ([]*scoring.Record, error)
}

// ScoreRefreshJob recomputes the scores of all held tickers after market
// close so the next morning's ranking reads warm from the store.
type ScoreRefreshJob struct {
	universe UniverseSource
	ranker   Ranker
	schedule string
	logger   *logger.Logger
}

// NewScoreRefreshJob creates the refresh job. The schedule runs shortly
// after the daily close on trading days.
func NewScoreRefreshJob(universe UniverseSource, ranker Ranker, log *logger.Logger) *ScoreRefreshJob {
	return &ScoreRefreshJob{
		universe: universe,
		ranker:   ranker,
		schedule: "0 15 16 * * MON-FRI",
		logger:   log,
	}
}

func (j *ScoreRefreshJob) Name() string { return "score_refresh" }

func (j *ScoreRefreshJob) Schedule() string { return j.schedule }

// Run force-refreshes scores for the whole holdings universe.
func (j *ScoreRefreshJob) Run(ctx context.Context) error {
	tickers, err := j.universe.Tickers()
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}
	if len(tickers) == 0 {
		j.logger.Debug("No open positions, skipping score refresh")
		return nil
	}

	records, err := j.ranker.Rank(ctx, ranking.Options{Universe: tickers, ForceRefresh: true})
	if err != nil {
		return fmt.Errorf("refresh scores: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"universe":  len(tickers),
		"refreshed": len(records),
	}).Info("Score refresh finished")
	return nil
}
