package handlers

import (
	"context"
	"net/http"

	"github.com/amitbh/stockscope/internal/ranking"
	"github.com/amitbh/stockscope/internal/scoring"
	"github.com/amitbh/stockscope/pkg/logger"
)

// Ranker runs the scoring pipeline over a universe.
type Ranker interface {
	Rank(ctx context.Context, opts ranking.Options) ([]*scoring.Record, error)
}

// UniverseSource lists tickers to rank.
type UniverseSource interface {
	Tickers() ([]string, error)
}

// RankingHandler serves the score ranking table.
type RankingHandler struct {
	ranker    Ranker
	holdings  UniverseSource
	watchlist UniverseSource
	logger    *logger.Logger
}

// NewRankingHandler creates a ranking handler.
func NewRankingHandler(ranker Ranker, holdings, watchlist UniverseSource, log *logger.Logger) *RankingHandler {
	return &RankingHandler{
		ranker:    ranker,
		holdings:  holdings,
		watchlist: watchlist,
		logger:    log,
	}
}

// RankingItem is one row of the ranking response.
type RankingItem struct {
	Ticker     string             `json:"ticker"`
	Date       string             `json:"date"`
	FinalScore float64            `json:"final_score"`
	Scores     map[string]float64 `json:"scores"`
}

// RankingResponse is the full ranking payload.
type RankingResponse struct {
	Universe int           `json:"universe"`
	Ranked   int           `json:"ranked"`
	Items    []RankingItem `json:"items"`
}

// GetRanking ranks the holdings universe, or the whole watchlist in
// broad mode.
// GET /api/ranking?all=true&refresh=true
func (h *RankingHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	broad := r.URL.Query().Get("all") == "true"
	refresh := r.URL.Query().Get("refresh") == "true"

	source := h.holdings
	if broad {
		source = h.watchlist
	}

	universe, err := source.Tickers()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load ranking universe")
		respondError(w, http.StatusInternalServerError, "Failed to load ranking universe")
		return
	}

	records, err := h.ranker.Rank(r.Context(), ranking.Options{
		Universe:     universe,
		ForceRefresh: refresh,
		Broad:        broad,
	})
	if err != nil {
		h.logger.WithError(err).Error("Ranking run failed")
		respondError(w, http.StatusInternalServerError, "Ranking run failed")
		return
	}

	items := make([]RankingItem, 0, len(records))
	for _, rec := range records {
		items = append(items, RankingItem{
			Ticker:     rec.Ticker,
			Date:       rec.Date.Format("2006-01-02"),
			FinalScore: rec.Final,
			Scores:     rec.Scores,
		})
	}

	respondJSON(w, http.StatusOK, RankingResponse{
		Universe: len(universe),
		Ranked:   len(items),
		Items:    items,
	})
}
