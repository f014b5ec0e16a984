package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/amitbh/stockscope/internal/api/handlers"
	"github.com/amitbh/stockscope/pkg/logger"
)

// Handlers bundles every endpoint handler the router mounts.
type Handlers struct {
	Ranking   *handlers.RankingHandler
	Scores    *handlers.ScoresHandler
	History   *handlers.HistoryHandler
	Portfolio *handlers.PortfolioHandler
	Triggers  *handlers.TriggersHandler
	Jobs      *handlers.JobsHandler
}

// NewRouter creates and configures the HTTP router. Routing lives only
// in this function.
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Ranking and scores
	api.HandleFunc("/ranking", h.Ranking.GetRanking).Methods("GET")
	api.HandleFunc("/scores/{ticker}", h.Scores.GetScores).Methods("GET")

	// Price history
	api.HandleFunc("/history/{ticker}", h.History.GetHistory).Methods("GET")

	// Portfolio ledger
	api.HandleFunc("/portfolio", h.Portfolio.GetPortfolio).Methods("GET")
	api.HandleFunc("/portfolio", h.Portfolio.AddTransaction).Methods("POST")

	// Sell triggers
	api.HandleFunc("/triggers", h.Triggers.GetTriggers).Methods("GET")

	// Scheduled jobs
	api.HandleFunc("/jobs", h.Jobs.GetJobs).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stockscope-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
