package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"swiftly/internal/handlers"
	"swiftly/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	NoteService service.NoteService
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	userHandler := handlers.NewUserHandler(deps.NoteService)
	noteHandler := handlers.NewNoteHandler(deps.NoteService)
	transcribeHandler := handlers.NewTranscribeHandler(deps.NoteService)
	chatHandler := handlers.NewChatHandler(deps.NoteService)

	r.Method(http.MethodGet, "/healthz", handlers.NewHealthHandler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", userHandler.Create)

		r.Route("/users/{user}", func(r chi.Router) {
			r.Post("/notes", noteHandler.Create)
			r.Get("/notes", noteHandler.List)
			r.Method(http.MethodPost, "/notes/transcribe", transcribeHandler)
			r.Get("/notes/{noteID}", noteHandler.Get)
			r.Delete("/notes/{noteID}", noteHandler.Delete)
			r.Put("/notes/{noteID}/favorite", noteHandler.SetFavorite)
			r.Get("/notes/{noteID}/view", noteHandler.View)

			r.Method(http.MethodPost, "/chat", chatHandler)
		})
	})

	return r
}
