package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	apiContext "rehook/internal/api/context"
	"rehook/internal/pkg/errors"
	"rehook/internal/platform/models"
	"rehook/internal/platform/repositories"
)

type RunsHandler struct {
	repo *repositories.RunRepository
}

func NewRunsHandler(repo *repositories.RunRepository) *RunsHandler {
	return &RunsHandler{repo: repo}
}

func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	runs, err := h.repo.Recent(limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list runs", nil)
		return
	}
	if runs == nil {
		runs = []*models.RunSummary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	runID := params.ByName("run_id")

	summary, err := h.repo.GetByID(runID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load run", nil)
		return
	}
	if summary == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Run not found", nil)
		return
	}

	mappings, err := h.repo.MappingsForRun(runID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load run mappings", nil)
		return
	}
	if mappings == nil {
		mappings = []*models.WebhookRecord{}
	}

	response := struct {
		Run      *models.RunSummary      `json:"run"`
		Mappings []*models.WebhookRecord `json:"mappings"`
	}{
		Run:      summary,
		Mappings: mappings,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
