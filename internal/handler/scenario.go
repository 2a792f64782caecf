package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BizNestAI/backoffice/internal/models"
)

type previewRequest struct {
	BusinessID       string                `json:"businessId"`
	ScenarioItems    []models.ScenarioItem `json:"scenarioItems"`
	BaselineForecast []models.BaselineRow  `json:"baselineForecast,omitempty"`
	StartingCash     *float64              `json:"startingCash,omitempty"`
}

type createScenarioRequest struct {
	BusinessID string                `json:"businessId"`
	Name       string                `json:"name"`
	Items      []models.ScenarioItem `json:"items"`
}

type updateScenarioRequest struct {
	Items []models.ScenarioItem `json:"items"`
}

type connectFeedRequest struct {
	AccessToken string `json:"accessToken"`
}

// PreviewScenario overlays the submitted items onto a baseline forecast
// and returns the adjusted series without persisting anything
func (h *Handler) PreviewScenario(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BusinessID == "" {
		writeError(w, http.StatusBadRequest, "businessId is required")
		return
	}

	rows, err := h.svc.PreviewScenario(r.Context(), req.BusinessID, req.ScenarioItems, req.BaselineForecast, req.StartingCash)
	if err != nil {
		h.log.Errorf("Scenario preview failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate forecast")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"forecast": rows})
}

// CreateScenario persists a named scenario
func (h *Handler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var req createScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BusinessID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "businessId and name are required")
		return
	}

	scenario, err := h.svc.CreateScenario(r.Context(), req.BusinessID, req.Name, req.Items)
	if err != nil {
		h.log.Errorf("Scenario creation failed: %v", err)
		writeError(w, httpStatus(err), "failed to create scenario")
		return
	}
	writeJSON(w, http.StatusCreated, scenario)
}

// ListScenarios returns scenario summaries for a business
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	businessID := r.URL.Query().Get("businessId")
	if businessID == "" {
		writeError(w, http.StatusBadRequest, "businessId is required")
		return
	}

	summaries, err := h.svc.ListScenarios(r.Context(), businessID)
	if err != nil {
		h.log.Errorf("Scenario listing failed: %v", err)
		writeError(w, httpStatus(err), "failed to list scenarios")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scenarios": summaries})
}

// GetScenario loads one scenario with its items
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	scenario, err := h.svc.LoadScenario(r.Context(), id)
	if err != nil {
		writeError(w, httpStatus(err), "failed to load scenario")
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}

// UpdateScenario replaces a scenario's item list
func (h *Handler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.UpdateScenario(r.Context(), id, req.Items); err != nil {
		writeError(w, httpStatus(err), "failed to update scenario")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteScenario removes a scenario
func (h *Handler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.svc.DeleteScenario(r.Context(), id); err != nil {
		writeError(w, httpStatus(err), "failed to delete scenario")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConnectFeed stores a bank-feed access token for a business
func (h *Handler) ConnectFeed(w http.ResponseWriter, r *http.Request) {
	businessID := mux.Vars(r)["id"]

	var req connectFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AccessToken == "" {
		writeError(w, http.StatusBadRequest, "accessToken is required")
		return
	}

	if err := h.svc.ConnectFeed(r.Context(), businessID, req.AccessToken); err != nil {
		h.log.Errorf("Feed connection failed: %v", err)
		writeError(w, httpStatus(err), "failed to connect bank feed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}
