package handlers

import (
	"net/http"

	"github.com/amitbh/stockscope/internal/scheduler"
	"github.com/amitbh/stockscope/pkg/logger"
)

// JobStatsSource exposes scheduler run statistics.
type JobStatsSource interface {
	Stats() map[string]scheduler.JobStats
}

// JobsHandler serves scheduled-job status.
type JobsHandler struct {
	stats  JobStatsSource
	logger *logger.Logger
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(stats JobStatsSource, log *logger.Logger) *JobsHandler {
	return &JobsHandler{stats: stats, logger: log}
}

// GetJobs returns run statistics for every registered job.
// GET /api/jobs
func (h *JobsHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": h.stats.Stats(),
	})
}
