package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/schemadoc/internal/config"
)

type buildRequest struct {
	// Names of configured targets to build; empty builds all of them.
	Targets []string `json:"targets"`
}

// handleBuild queues a build of the configured targets. Clients can only
// pick targets by name, never supply output paths.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil || len(s.cfg.Targets) == 0 {
		jsonError(w, "no build targets configured", http.StatusBadRequest)
		return
	}

	var req buildRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	targets, err := selectTargets(s.cfg.Targets, req.Targets)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := s.orchestrator.Submit(targets)
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := job.Snapshot()
	jsonResponse(w, http.StatusAccepted, map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"targets":  snap.Progress.TotalTargets,
		"poll_url": fmt.Sprintf("/api/builds/%s", snap.ID),
	})
}

func (s *Server) handleBuildStatus(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, http.StatusOK, job.Snapshot())
}

func selectTargets(configured []config.Target, names []string) ([]config.Target, error) {
	if len(names) == 0 {
		return configured, nil
	}
	var out []config.Target
	for _, name := range names {
		found := false
		for _, t := range configured {
			if t.Name() == name {
				out = append(out, t)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown target %q", name)
		}
	}
	return out, nil
}
