package commands

import (
	"fmt"

	"github.com/amitbh/stockscope/internal/external/nse"
	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/internal/notify"
	"github.com/amitbh/stockscope/internal/portfolio"
	"github.com/amitbh/stockscope/internal/ranking"
	"github.com/amitbh/stockscope/internal/scheduler"
	"github.com/amitbh/stockscope/internal/scheduler/jobs"
	"github.com/amitbh/stockscope/internal/scoring"
	"github.com/amitbh/stockscope/internal/triggers"
	"github.com/amitbh/stockscope/pkg/config"
	"github.com/amitbh/stockscope/pkg/httputil"
	"github.com/amitbh/stockscope/pkg/logger"
)

// app wires the full pipeline once. Every command starts from here so
// construction order lives in a single place.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	nse       *nse.Client
	resolver  *marketdata.Resolver
	history   *marketdata.HistoryStore
	scores    *scoring.Store
	ranker    *ranking.Driver
	portfolio *portfolio.Store
	watchlist *portfolio.Watchlist
	compiler  *triggers.Compiler
	digest    *notify.Digest
}

// newApp loads config and builds the dependency graph.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	httpClient := httputil.New(cfg, log).
		WithRateLimit(cfg.Upstream.RateLimit, cfg.Upstream.RateBurst)

	calendar, err := marketdata.LoadHolidayCalendar(cfg.Market.HolidaysFile)
	if err != nil {
		return nil, fmt.Errorf("load holiday calendar: %w", err)
	}
	resolver := marketdata.NewResolver(calendar, cfg)

	nseClient := nse.NewClient(cfg, httpClient, log)
	history := marketdata.NewHistoryStore(cfg, nseClient, resolver, log)

	aggregator := scoring.NewAggregator(history, resolver, log)
	scores := scoring.NewStore(cfg, log)
	ranker := ranking.NewDriver(history, aggregator, scores, resolver, log)

	portfolioStore := portfolio.NewStore(cfg, log)
	watchlist := portfolio.NewWatchlist(cfg)
	compiler := triggers.NewCompiler(history, nseClient, log)
	digest := notify.NewDigest(notify.NewSMTPSender(cfg), cfg, log)

	return &app{
		cfg:       cfg,
		log:       log,
		nse:       nseClient,
		resolver:  resolver,
		history:   history,
		scores:    scores,
		ranker:    ranker,
		portfolio: portfolioStore,
		watchlist: watchlist,
		compiler:  compiler,
		digest:    digest,
	}, nil
}

// newScheduler registers the recurring jobs on a fresh scheduler.
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	refreshJob := jobs.NewScoreRefreshJob(a.portfolio, a.ranker, a.log)
	if err := sched.AddJob(refreshJob); err != nil {
		return nil, fmt.Errorf("register %s: %w", refreshJob.Name(), err)
	}

	if a.cfg.Digest.Enabled {
		digestJob := jobs.NewSellDigestJob(a.portfolio, a.compiler, a.digest, a.cfg, a.log)
		if err := sched.AddJob(digestJob); err != nil {
			return nil, fmt.Errorf("register %s: %w", digestJob.Name(), err)
		}
	}

	return sched, nil
}
