package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/amitbh/stockscope/internal/external/nse"
	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/internal/portfolio"
	"github.com/amitbh/stockscope/pkg/logger"
)

// PortfolioStore is the ledger slice the handler needs.
type PortfolioStore interface {
	Add(tx portfolio.Transaction) error
	Holdings() ([]portfolio.Holding, error)
}

// QuoteSource validates tickers and names companies at add time.
type QuoteSource interface {
	FetchQuote(ctx context.Context, ticker string) (*nse.Quote, error)
}

// PortfolioHandler serves the holdings view and transaction entry.
type PortfolioHandler struct {
	store  PortfolioStore
	quotes QuoteSource
	logger *logger.Logger
}

// NewPortfolioHandler creates a portfolio handler.
func NewPortfolioHandler(store PortfolioStore, quotes QuoteSource, log *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{store: store, quotes: quotes, logger: log}
}

// GetPortfolio returns the open positions.
// GET /api/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.store.Holdings()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load holdings")
		respondError(w, http.StatusInternalServerError, "Failed to load holdings")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": holdings,
		"count":    len(holdings),
	})
}

// AddTransactionRequest is the POST body for a new transaction.
type AddTransactionRequest struct {
	Ticker   string  `json:"ticker"`
	Date     string  `json:"date"` // YYYY-MM-DD
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// AddTransaction validates the ticker against a live quote and appends
// the transaction to the ledger.
// POST /api/portfolio
func (h *PortfolioHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req AddTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "Missing ticker")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
		return
	}

	// The quote lookup doubles as symbol validation and supplies the
	// company name the ledger captures
	quote, err := h.quotes.FetchQuote(r.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Warn("Quote lookup failed for new transaction")
		respondError(w, http.StatusBadRequest, "Unknown or unquotable ticker "+ticker)
		return
	}

	tx := portfolio.Transaction{
		Ticker:   ticker,
		Company:  quote.CompanyName,
		Date:     marketdata.Day(date),
		Quantity: req.Quantity,
		Price:    req.Price,
	}
	if err := tx.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Add(tx); err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to record transaction")
		respondError(w, http.StatusInternalServerError, "Failed to record transaction")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"ticker":  tx.Ticker,
		"company": tx.Company,
	})
}
