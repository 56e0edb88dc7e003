package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/zlnvch/daybook/clock"
	"github.com/zlnvch/daybook/cursor"
	"github.com/zlnvch/daybook/models"
	"github.com/zlnvch/daybook/ratelimit"
	"github.com/zlnvch/daybook/service"
	"github.com/zlnvch/daybook/store"
)

type Handler struct {
	Service *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{Service: svc}
}

type errorResponse struct {
	Error string `json:"error"`
}

// sendError maps service error kinds to status codes. Window errors and
// other validation failures keep their messages (they carry the computed
// local time); everything unrecognized is a 500 with a generic body.
func (h *Handler) sendError(w http.ResponseWriter, err error) {
	var windowErr *clock.WindowError

	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.As(err, &windowErr),
		errors.Is(err, clock.ErrInvalidTimezone),
		errors.Is(err, cursor.ErrMalformedCursor),
		errors.Is(err, service.ErrInvalidDate):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInsufficientTokens):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrLogExists):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, ratelimit.ErrRateLimitExceeded):
		status, msg = http.StatusTooManyRequests, err.Error()
	case errors.Is(err, store.ErrTransactionConflict):
		status, msg = http.StatusServiceUnavailable, "temporarily unavailable, please retry"
	default:
		log.Printf("Request failed: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) getTokenFromAuthHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return ""
	}
	return strings.TrimPrefix(authHeader, prefix)
}

// authenticate resolves the request's user or writes a 401.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, err := h.Service.AuthenticateToken(r.Context(), h.getTokenFromAuthHeader(r))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(errorResponse{Error: "invalid token"})
		return models.User{}, false
	}
	return user, true
}

type loginRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type loginResponse struct {
	Id         string `json:"id"`
	Email      string `json:"email"`
	Plan       string `json:"plan"`
	ChatTokens int    `json:"chatTokens"`
	Token      string `json:"token"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.Service.Login(r.Context(), req.Provider, req.Code)
	if err != nil {
		log.Printf("Login failed: %v", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, loginResponse{
		Id:         user.Id,
		Email:      user.Email,
		Plan:       string(user.Plan),
		ChatTokens: user.ChatTokens,
		Token:      token,
	})
}

type getUserResponse struct {
	Id         string `json:"id"`
	Email      string `json:"email"`
	Timezone   string `json:"timezone"`
	Plan       string `json:"plan"`
	ChatTokens int    `json:"chatTokens"`
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	user, err := h.Service.GetUser(r.Context(), user)
	if err != nil {
		h.sendError(w, err)
		return
	}

	h.sendResponse(w, getUserResponse{
		Id:         user.Id,
		Email:      user.Email,
		Timezone:   user.Timezone,
		Plan:       string(user.Plan),
		ChatTokens: user.ChatTokens,
	})
}

type deleteUserResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteUser(r.Context(), user); err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, deleteUserResponse{Success: true})
}

type streakResponse struct {
	CurrentStreak     int    `json:"currentStreak"`
	LongestStreak     int    `json:"longestStreak"`
	LastCompletedDate string `json:"lastCompletedDate,omitempty"`
}

func (h *Handler) HandleGetStreaks(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	state, err := h.Service.GetStreak(r.Context(), user)
	if err != nil {
		h.sendError(w, err)
		return
	}

	h.sendResponse(w, streakResponse{
		CurrentStreak:     state.CurrentStreak,
		LongestStreak:     state.LongestStreak,
		LastCompletedDate: state.LastCompletedDate,
	})
}
