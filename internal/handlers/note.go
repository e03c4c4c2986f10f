package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"swiftly/internal/contextutil"
	"swiftly/internal/service"
)

// NoteHandler handles HTTP requests for note CRUD and the rendered note view.
type NoteHandler struct {
	notes    service.NoteService
	markdown goldmark.Markdown
	template *template.Template
}

// notePageData holds template data for rendered note pages.
type notePageData struct {
	Title   string
	Created string
	Content template.HTML
}

var notePageTemplate = template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 720px;
      line-height: 1.7;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid #ddd;
      padding-bottom: 1rem;
    }
    .meta {
      color: #666;
      font-size: 0.95rem;
    }
    pre {
      background: #f5f5f5;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 6px;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
    <p class="meta">Created: {{.Created}}</p>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(notes service.NoteService) *NoteHandler {
	return &NoteHandler{
		notes: notes,
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
			),
		),
		template: notePageTemplate,
	}
}

// CreateNoteRequest represents the HTTP request payload for note creation.
// Title is optional; one is generated from the content when omitted.
type CreateNoteRequest struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// NoteResponse represents a full note in HTTP responses.
type NoteResponse struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Created  time.Time `json:"created"`
	Favorite bool      `json:"favorite"`
}

// NoteTitleResponse represents a note listing entry.
type NoteTitleResponse struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Created  time.Time `json:"created"`
	Favorite bool      `json:"favorite"`
}

// SetFavoriteRequest represents the HTTP request payload for the favorite toggle.
type SetFavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

// Create handles POST /api/users/{user}/notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "user")

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note, err := h.notes.CreateNote(ctx, username, req.Title, req.Content)
	if err != nil {
		handleServiceError(ctx, w, err, "failed to create note")
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

// List handles GET /api/users/{user}/notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "user")

	titles, err := h.notes.ListNotes(ctx, username)
	if err != nil {
		handleServiceError(ctx, w, err, "failed to list notes")
		return
	}

	resp := make([]NoteTitleResponse, 0, len(titles))
	for _, t := range titles {
		resp = append(resp, NoteTitleResponse{
			ID:       t.ID,
			Title:    t.Title,
			Created:  t.Created,
			Favorite: t.Favorite,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/users/{user}/notes/{noteID}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "user")
	noteID := chi.URLParam(r, "noteID")

	note, err := h.notes.GetNote(ctx, username, noteID)
	if err != nil {
		handleServiceError(ctx, w, err, "failed to get note")
		return
	}

	writeJSON(w, http.StatusOK, NoteResponse{
		ID:       note.ID,
		Title:    note.Title,
		Content:  note.Content,
		Created:  note.Created,
		Favorite: note.Favorite,
	})
}

// Delete handles DELETE /api/users/{user}/notes/{noteID}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "user")
	noteID := chi.URLParam(r, "noteID")

	if err := h.notes.DeleteNote(ctx, username, noteID); err != nil {
		handleServiceError(ctx, w, err, "failed to delete note")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetFavorite handles PUT /api/users/{user}/notes/{noteID}/favorite.
func (h *NoteHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "user")
	noteID := chi.URLParam(r, "noteID")

	var req SetFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.notes.SetFavorite(ctx, username, noteID, req.Favorite); err != nil {
		handleServiceError(ctx, w, err, "failed to update favorite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// View handles GET /api/users/{user}/notes/{noteID}/view and renders the
// note's markdown content as an HTML page.
func (h *NoteHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	username := chi.URLParam(r, "user")
	noteID := chi.URLParam(r, "noteID")

	note, err := h.notes.GetNote(ctx, username, noteID)
	if err != nil {
		handleServiceError(ctx, w, err, "failed to get note")
		return
	}

	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(note.Content), &buf); err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "note_id", noteID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render note")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, notePageData{
		Title:   note.Title,
		Created: note.Created.Format("2006-01-02 15:04"),
		Content: template.HTML(buf.String()),
	}); err != nil {
		logger.ErrorContext(ctx, "failed to execute note template", "note_id", noteID, "error", err)
	}
}
