package triggers

import (
	"context"
	"fmt"
	"math"

	"github.com/amitbh/stockscope/internal/indicator"
	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/internal/portfolio"
	"github.com/amitbh/stockscope/pkg/logger"
)

// Alert is one fired sell signal for a held position.
type Alert struct {
	Ticker  string `json:"ticker"`
	Company string `json:"company"`
	Trigger string `json:"trigger"`
	Detail  string `json:"detail,omitempty"`
}

// Trigger evaluates one sell rule against a position's price series. A
// nil alert with a nil error means the rule did not fire.
type Trigger interface {
	Name() string
	Evaluate(ctx context.Context, ticker string, series marketdata.Series) (*Alert, error)
}

// EMASMATrigger fires when the price has dipped under its 5-day SMA while
// the 20-day EMA still sits above the 50-day SMA but within two percent
// of it: the trend support is about to be lost.
type EMASMATrigger struct{}

func (EMASMATrigger) Name() string { return "ema_sma_convergence" }

func (EMASMATrigger) Evaluate(_ context.Context, ticker string, series marketdata.Series) (*Alert, error) {
	if len(series) < 50 {
		return nil, nil
	}

	closes := series.Closes()
	lastClose := closes[len(closes)-1]

	sma5 := lastOf(indicator.SMA(closes, 5))
	ema20 := lastOf(indicator.EMA(closes, 20))
	sma50 := lastOf(indicator.SMA(closes, 50))
	if sma50 == 0 {
		return nil, nil
	}

	spreadPct := (ema20 - sma50) / sma50 * 100
	if lastClose < sma5 && ema20 > sma50 && spreadPct < 2 {
		return &Alert{
			Ticker:  ticker,
			Trigger: "20 EMA and 50 SMA",
			Detail:  fmt.Sprintf("spread %.2f%%", spreadPct),
		}, nil
	}
	return nil, nil
}

// QuoteSource supplies the live last traded price for a ticker.
type QuoteSource interface {
	LastPrice(ctx context.Context, ticker string) (float64, error)
}

// High52WeekTrigger fires when an uptrending position's live price sits
// within two percent of its 252-session closing high, a common
// profit-taking zone.
type High52WeekTrigger struct {
	Quotes QuoteSource
}

func (High52WeekTrigger) Name() string { return "near_52_week_high" }

func (t High52WeekTrigger) Evaluate(ctx context.Context, ticker string, series marketdata.Series) (*Alert, error) {
	const window = 252
	if len(series) < window {
		return nil, nil
	}

	closes := series.Closes()
	if closes[len(closes)-1] <= closes[len(closes)-2] {
		return nil, nil
	}

	high := closes[len(closes)-window]
	for _, c := range closes[len(closes)-window:] {
		if c > high {
			high = c
		}
	}
	if high == 0 {
		return nil, nil
	}

	lastPrice, err := t.Quotes.LastPrice(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("quote for %s: %w", ticker, err)
	}

	diffPct := (lastPrice - high) / high * 100
	if math.Abs(diffPct) < 2 {
		return &Alert{
			Ticker:  ticker,
			Trigger: "Near 52 Week High",
			Detail:  fmt.Sprintf("current diff: %.2f%%", diffPct),
		}, nil
	}
	return nil, nil
}

// DowntrendAfterHighTrigger fires when, after the latest golden cross of
// the 20-day EMA over the 50-day SMA, the price topped out and has since
// fallen back under the EMA: the post-cross run looks finished.
type DowntrendAfterHighTrigger struct{}

func (DowntrendAfterHighTrigger) Name() string { return "downtrend_after_high" }

func (DowntrendAfterHighTrigger) Evaluate(_ context.Context, ticker string, series marketdata.Series) (*Alert, error) {
	if len(series) < 51 {
		return nil, nil
	}

	closes := series.Closes()
	ema20 := indicator.EMA(closes, 20)
	sma50 := indicator.SMA(closes, 50)

	// Latest golden cross; scanning starts after the SMA warmup so early
	// equal-value bars cannot fake a cross
	crossIdx := -1
	for i := 50; i < len(closes); i++ {
		if ema20[i] > sma50[i] && ema20[i-1] < sma50[i-1] {
			crossIdx = i
		}
	}
	if crossIdx < 0 {
		return nil, nil
	}

	highIdx := -1
	for i := crossIdx + 1; i < len(closes); i++ {
		if highIdx < 0 || closes[i] > closes[highIdx] {
			highIdx = i
		}
	}
	// The run is still making its high on the latest bar
	if highIdx < 0 || highIdx == len(closes)-1 {
		return nil, nil
	}

	// Reference EMA: the third bar after the high, or the newest one if
	// the high is more recent than that
	refIdx := highIdx + 3
	if refIdx > len(closes)-1 {
		refIdx = len(closes) - 1
	}

	if closes[len(closes)-1] < ema20[refIdx] {
		return &Alert{Ticker: ticker, Trigger: "Downtrend after high"}, nil
	}
	return nil, nil
}

// HistorySource supplies the cached-or-fetched price series.
type HistorySource interface {
	Get(ctx context.Context, ticker string) (marketdata.Series, error)
}

// Compiler evaluates every trigger against every open position.
type Compiler struct {
	history  HistorySource
	triggers []Trigger
	logger   *logger.Logger
}

// NewCompiler creates a compiler with the full trigger set.
func NewCompiler(history HistorySource, quotes QuoteSource, log *logger.Logger) *Compiler {
	return &Compiler{
		history: history,
		triggers: []Trigger{
			EMASMATrigger{},
			High52WeekTrigger{Quotes: quotes},
			DowntrendAfterHighTrigger{},
		},
		logger: log,
	}
}

// Compile runs all triggers over the holdings. A position whose history
// cannot be fetched, or a single failing rule, is logged and skipped.
func (c *Compiler) Compile(ctx context.Context, holdings []portfolio.Holding) []Alert {
	defer logger.Measure(c.logger, "triggers.compile")()

	var alerts []Alert
	for _, holding := range holdings {
		series, err := c.history.Get(ctx, holding.Ticker)
		if err != nil {
			c.logger.WithError(err).WithField("ticker", holding.Ticker).Warn("History fetch failed, skipping position")
			continue
		}

		for _, trigger := range c.triggers {
			alert, err := trigger.Evaluate(ctx, holding.Ticker, series)
			if err != nil {
				c.logger.WithError(err).WithFields(map[string]interface{}{
					"ticker":  holding.Ticker,
					"trigger": trigger.Name(),
				}).Warn("Trigger evaluation failed")
				continue
			}
			if alert == nil {
				continue
			}
			alert.Company = holding.Company
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

func lastOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
