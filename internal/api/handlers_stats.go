package api

import (
	"net/http"
)

func (s *Server) handleRenderStats(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		jsonError(w, "render stats unavailable", http.StatusServiceUnavailable)
		return
	}

	queued := 0
	if s.orchestrator != nil {
		queued = s.orchestrator.QueueDepth()
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"stats":         s.metrics.Latency.Snapshot(),
		"queued_builds": queued,
	})
}
