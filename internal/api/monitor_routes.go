package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/quantumdesk/quantum-backend/internal/models"
)

type monitorRunResponse struct {
	Success         bool              `json:"success"`
	Monitored       int               `json:"monitored"`
	Updated         int               `json:"updated"`
	Closed          int               `json:"closed"`
	Skipped         int               `json:"skipped"`
	ClosedPositions []models.Position `json:"closedPositions"`
}

// handleMonitorRun executes one monitor pass. No body required.
func (s *Server) handleMonitorRun(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Monitor.Run(r.Context())
	if err != nil {
		s.log.Error("monitor run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "monitor run failed")
		return
	}

	writeJSON(w, http.StatusOK, monitorRunResponse{
		Success:         true,
		Monitored:       report.Monitored,
		Updated:         report.Updated,
		Closed:          report.Closed,
		Skipped:         report.Skipped,
		ClosedPositions: report.ClosedPositions,
	})
}
