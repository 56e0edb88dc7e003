package rest

import (
	"encoding/json"
	"net/http"

	"github.com/zlnvch/daybook/models"
)

type goalRequest struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

func (h *Handler) HandleCreateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	goal, err := h.Service.CreateGoal(r.Context(), user, req.Text, req.Tags)
	if err != nil {
		h.sendError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(goal)
}

type goalPageResponse struct {
	Items         []models.Goal `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

func (h *Handler) HandleListGoals(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	goals, token, err := h.Service.ListGoals(
		r.Context(),
		user,
		models.GoalStatus(q.Get("status")),
		parseIntQuery(r, "pageSize", 0),
		q.Get("pageToken"),
	)
	if err != nil {
		h.sendError(w, err)
		return
	}

	if goals == nil {
		goals = []models.Goal{}
	}
	h.sendResponse(w, goalPageResponse{Items: goals, NextPageToken: token})
}

func (h *Handler) HandleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	goal, err := h.Service.UpdateGoal(r.Context(), user, r.PathValue("goalId"), req.Text, req.Tags)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, goal)
}

func (h *Handler) HandleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	goal, err := h.Service.CompleteGoal(r.Context(), user, r.PathValue("goalId"))
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, goal)
}

type deleteGoalResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) HandleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteGoal(r.Context(), user, r.PathValue("goalId")); err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, deleteGoalResponse{Success: true})
}
