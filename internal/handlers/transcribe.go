package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"swiftly/internal/service"
)

// maxAudioUploadBytes bounds transcription uploads (25 MB, the whisper limit).
const maxAudioUploadBytes = 25 << 20

// TranscribeHandler handles HTTP requests for transcribe-and-save.
type TranscribeHandler struct {
	notes service.NoteService
}

// NewTranscribeHandler creates a new TranscribeHandler.
func NewTranscribeHandler(notes service.NoteService) *TranscribeHandler {
	return &TranscribeHandler{notes: notes}
}

// ServeHTTP handles POST /api/users/{user}/notes/transcribe.
// Expects a multipart form with an "audio" file field; the transcript is
// saved as a new note with a generated title.
func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "user")

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	note, err := h.notes.TranscribeNote(ctx, username, header.Filename, file)
	if err != nil {
		handleServiceError(ctx, w, err, "failed to transcribe note")
		return
	}

	writeJSON(w, http.StatusCreated, NoteResponse{
		ID:       note.ID,
		Title:    note.Title,
		Content:  note.Content,
		Created:  note.Created,
		Favorite: note.Favorite,
	})
}
