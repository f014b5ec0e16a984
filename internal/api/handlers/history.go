package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/pkg/logger"
)

// HistorySource supplies the cached-or-fetched price series.
type HistorySource interface {
	Get(ctx context.Context, ticker string) (marketdata.Series, error)
}

// HistoryHandler serves per-ticker price history.
type HistoryHandler struct {
	history HistorySource
	logger  *logger.Logger
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(history HistorySource, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: log}
}

// HistoryBar is one daily bar of the response.
type HistoryBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// GetHistory returns the full daily series for a ticker.
// GET /api/history/{ticker}
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "Missing ticker")
		return
	}

	series, err := h.history.Get(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, marketdata.ErrDataUnavailable) {
			respondError(w, http.StatusNotFound, "No price history for "+ticker)
			return
		}
		h.logger.WithError(err).WithField("ticker", ticker).Error("History fetch failed")
		respondError(w, http.StatusInternalServerError, "History fetch failed")
		return
	}

	bars := make([]HistoryBar, 0, len(series))
	for _, b := range series {
		bars = append(bars, HistoryBar{
			Date:   b.Date.Format("2006-01-02"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"bars":   bars,
	})
}
