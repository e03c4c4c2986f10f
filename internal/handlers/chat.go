package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"swiftly/internal/service"
)

// ChatHandler handles HTTP requests for grounded question answering.
type ChatHandler struct {
	notes service.NoteService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(notes service.NoteService) *ChatHandler {
	return &ChatHandler{notes: notes}
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// ServeHTTP handles POST /api/users/{user}/chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "user")

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.notes.Answer(ctx, username, req.Query)
	if err != nil {
		handleServiceError(ctx, w, err, "could not complete request")
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Answer: answer})
}
