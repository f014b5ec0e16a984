package handlers

import (
	"context"
	"net/http"

	"github.com/amitbh/stockscope/internal/portfolio"
	"github.com/amitbh/stockscope/internal/triggers"
	"github.com/amitbh/stockscope/pkg/logger"
)

// TriggerCompiler evaluates the sell rules over a set of holdings.
type TriggerCompiler interface {
	Compile(ctx context.Context, holdings []portfolio.Holding) []triggers.Alert
}

// HoldingsSource lists the open positions to screen.
type HoldingsSource interface {
	Holdings() ([]portfolio.Holding, error)
}

// TriggersHandler serves the sell-trigger screen.
type TriggersHandler struct {
	compiler TriggerCompiler
	holdings HoldingsSource
	logger   *logger.Logger
}

// NewTriggersHandler creates a triggers handler.
func NewTriggersHandler(compiler TriggerCompiler, holdings HoldingsSource, log *logger.Logger) *TriggersHandler {
	return &TriggersHandler{compiler: compiler, holdings: holdings, logger: log}
}

// GetTriggers evaluates every sell rule against the current holdings.
// GET /api/triggers
func (h *TriggersHandler) GetTriggers(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.holdings.Holdings()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load holdings")
		respondError(w, http.StatusInternalServerError, "Failed to load holdings")
		return
	}

	alerts := h.compiler.Compile(r.Context(), holdings)
	if alerts == nil {
		alerts = []triggers.Alert{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"holdings": len(holdings),
		"alerts":   alerts,
	})
}
