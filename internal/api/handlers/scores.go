package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/amitbh/stockscope/internal/scoring"
	"github.com/amitbh/stockscope/pkg/logger"
)

// ScoreSource reads persisted score records.
type ScoreSource interface {
	Get(ticker string, date time.Time) (*scoring.Record, error)
}

// ScoresHandler serves a ticker's stored score record for the latest
// closed session.
type ScoresHandler struct {
	scores   ScoreSource
	resolver scoring.SessionResolver
	logger   *logger.Logger
}

// NewScoresHandler creates a scores handler.
func NewScoresHandler(scores ScoreSource, resolver scoring.SessionResolver, log *logger.Logger) *ScoresHandler {
	return &ScoresHandler{scores: scores, resolver: resolver, logger: log}
}

// GetScores returns the stored record for a ticker at the as-of-close
// session.
// GET /api/scores/{ticker}
func (h *ScoresHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "Missing ticker")
		return
	}

	_, asOfClose, err := h.resolver.LastTradingDay()
	if err != nil {
		h.logger.WithError(err).Error("Trading day resolution failed")
		respondError(w, http.StatusInternalServerError, "Trading day resolution failed")
		return
	}

	record, err := h.scores.Get(ticker, asOfClose)
	if err != nil {
		if errors.Is(err, scoring.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No score for "+ticker+" on "+asOfClose.Format("2006-01-02"))
			return
		}
		h.logger.WithError(err).WithField("ticker", ticker).Error("Score lookup failed")
		respondError(w, http.StatusInternalServerError, "Score lookup failed")
		return
	}

	respondJSON(w, http.StatusOK, RankingItem{
		Ticker:     record.Ticker,
		Date:       record.Date.Format("2006-01-02"),
		FinalScore: record.Final,
		Scores:     record.Scores,
	})
}
