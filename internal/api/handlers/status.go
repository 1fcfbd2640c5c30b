package handlers

import (
	"encoding/json"
	"net/http"

	"rehook/internal/engine/run"
	"rehook/internal/platform/models"
)

type StatusHandler struct {
	runner *run.Runner
}

func NewStatusHandler(runner *run.Runner) *StatusHandler {
	return &StatusHandler{runner: runner}
}

func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, last := h.runner.Status()

	response := struct {
		State   string             `json:"state"`
		LastRun *models.RunSummary `json:"last_run"`
	}{
		State:   string(state),
		LastRun: last,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
