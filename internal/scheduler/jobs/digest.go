package jobs

import (
	"context"
	"fmt"

	"github.com/amitbh/stockscope/internal/portfolio"
	"github.com/amitbh/stockscope/internal/triggers"
	"github.com/amitbh/stockscope/pkg/config"
	"github.com/amitbh/stockscope/pkg/logger"
)

// HoldingsSource lists the open positions to evaluate.
type HoldingsSource interface {
	Holdings() ([]portfolio.Holding, error)
}

// TriggerCompiler evaluates all sell rules over the holdings.
type TriggerCompiler interface {
	Compile(ctx context.Context, holdings []portfolio.Holding) []triggers.Alert
}

// AlertNotifier delivers fired alerts.
type AlertNotifier interface {
	SendAlerts(alerts []triggers.Alert) error
}

// SellDigestJob compiles the sell triggers for all holdings after market
// close and mails the result.
type SellDigestJob struct {
	holdings HoldingsSource
	compiler TriggerCompiler
	notifier AlertNotifier
	schedule string
	logger   *logger.Logger
}

// NewSellDigestJob creates the digest job on the configured schedule.
func NewSellDigestJob(holdings HoldingsSource, compiler TriggerCompiler, notifier AlertNotifier, cfg *config.Config, log *logger.Logger) *SellDigestJob {
	return &SellDigestJob{
		holdings: holdings,
		compiler: compiler,
		notifier: notifier,
		schedule: cfg.Digest.Schedule,
		logger:   log,
	}
}

func (j *SellDigestJob) Name() string { return "sell_digest" }

func (j *SellDigestJob) Schedule() string { return j.schedule }

// Run evaluates and delivers the digest.
func (j *SellDigestJob) Run(ctx context.Context) error {
	holdings, err := j.holdings.Holdings()
	if err != nil {
		return fmt.Errorf("load holdings: %w", err)
	}
	if len(holdings) == 0 {
		j.logger.Debug("No open positions, skipping sell digest")
		return nil
	}

	alerts := j.compiler.Compile(ctx, holdings)
	return j.notifier.SendAlerts(alerts)
}
