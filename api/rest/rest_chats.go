package rest

import (
	"encoding/json"
	"net/http"

	"github.com/zlnvch/daybook/models"
)

type createChatRequest struct {
	ChatName   string `json:"chatName"`
	FeedbackId string `json:"feedbackId,omitempty"`
}

func (h *Handler) HandleCreateChat(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req createChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	chat, err := h.Service.CreateChat(r.Context(), user, req.ChatName, req.FeedbackId)
	if err != nil {
		h.sendError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(chat)
}

func (h *Handler) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	chat, err := h.Service.GetChat(r.Context(), user, r.PathValue("chatId"))
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, chat)
}

type chatPageResponse struct {
	Items         []models.Chat `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

func (h *Handler) HandleListChats(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	chats, token, err := h.Service.ListChats(
		r.Context(),
		user,
		parseIntQuery(r, "pageSize", 0),
		r.URL.Query().Get("pageToken"),
	)
	if err != nil {
		h.sendError(w, err)
		return
	}

	if chats == nil {
		chats = []models.Chat{}
	}
	h.sendResponse(w, chatPageResponse{Items: chats, NextPageToken: token})
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.Service.SendMessage(r.Context(), user, r.PathValue("chatId"), req.Message)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, reply)
}
