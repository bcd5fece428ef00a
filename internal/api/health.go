package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Database string `json:"database"`
	Monitor  string `json:"monitor"`
}

// handleHealth reports the database link and the background monitor
// loop. The probe itself always answers 200; a dead database shows up
// as status "degraded" rather than a failed request.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "connected"
	if err := s.pool.Ping(r.Context()); err != nil {
		dbStatus = "disconnected"
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services: healthServices{
			Database: dbStatus,
			Monitor:  monitorState(s.deps.Scheduler),
		},
	})
}

func monitorState(sched SchedulerStatus) string {
	switch {
	case sched == nil:
		return "disabled"
	case sched.Running():
		return "running"
	default:
		return "stopped"
	}
}
