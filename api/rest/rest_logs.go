package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/service"
)

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

type createLogRequest struct {
	Date     string `json:"date"`
	Content  string `json:"content"`
	Timezone string `json:"timezone"`
}

func (h *Handler) HandleCreateLog(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req createLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	dailyLog, err := h.Service.CreateLog(r.Context(), service.CreateLogParams{
		User:     user,
		Date:     req.Date,
		Content:  req.Content,
		Timezone: req.Timezone,
	})
	if err != nil {
		h.sendError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dailyLog)
}

type logPageResponse struct {
	Items         []models.DailyLog `json:"items"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

func (h *Handler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	logs, token, err := h.Service.ListLogs(
		r.Context(),
		user,
		q.Get("startDate"),
		q.Get("endDate"),
		parseIntQuery(r, "pageSize", 0),
		q.Get("pageToken"),
	)
	if err != nil {
		h.sendError(w, err)
		return
	}

	if logs == nil {
		logs = []models.DailyLog{}
	}
	h.sendResponse(w, logPageResponse{Items: logs, NextPageToken: token})
}

type logByIdResponse struct {
	Log      models.DailyLog    `json:"log"`
	Feedback *models.AIFeedback `json:"feedback,omitempty"`
}

func (h *Handler) HandleGetLog(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	dailyLog, feedback, err := h.Service.GetLog(r.Context(), user, r.PathValue("logId"))
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, logByIdResponse{Log: dailyLog, Feedback: feedback})
}

type updateLogRequest struct {
	Content string `json:"content"`
}

func (h *Handler) HandleUpdateLog(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req updateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.Service.UpdateLog(r.Context(), user, r.PathValue("logId"), req.Content)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, updated)
}

type calendarMonthsResponse struct {
	Months []models.CalendarMonth `json:"months"`
}

func (h *Handler) HandleCalendarMonths(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	months, err := h.Service.ListCalendarMonths(
		r.Context(),
		user,
		parseIntQuery(r, "startYear", 0),
		parseIntQuery(r, "startMonth", 0),
		parseIntQuery(r, "numMonths", 3),
	)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, calendarMonthsResponse{Months: months})
}

type feedbackRequest struct {
	LogId    string `json:"logId"`
	Timezone string `json:"timezone"`
}

func (h *Handler) HandleRequestFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	feedback, err := h.Service.RequestFeedback(r.Context(), user, req.LogId, req.Timezone)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, feedback)
}

func (h *Handler) HandleGetFeedback(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	feedback, err := h.Service.GetFeedback(r.Context(), user, r.PathValue("logId"))
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, feedback)
}
