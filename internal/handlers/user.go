package handlers

import (
	"encoding/json"
	"net/http"

	"swiftly/internal/service"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	notes service.NoteService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(notes service.NoteService) *UserHandler {
	return &UserHandler{notes: notes}
}

// CreateUserRequest represents the HTTP request payload for user creation.
type CreateUserRequest struct {
	Name string `json:"name"`
}

// CreateUserResponse represents the HTTP response payload for user creation.
type CreateUserResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Create handles POST /api/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.notes.CreateUser(ctx, req.Name)
	if err != nil {
		handleServiceError(ctx, w, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, CreateUserResponse{
		ID:   user.ID,
		Name: user.Name,
	})
}
