package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_service.go -package=mocks -mock_names=NoteService=MockNoteService swiftly/internal/service NoteService

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"swiftly/internal/contextutil"
	"swiftly/internal/storage"
)

// Transcriber converts uploaded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// TitleGenerator produces a short title for note content.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, content string) (string, error)
}

// Answerer answers a question grounded in a user's notes.
type Answerer interface {
	Answer(ctx context.Context, userID, query string) (string, error)
}

// IndexSynchronizer schedules best-effort index synchronization for a
// freshly created note. It must not block or fail the creation path.
type IndexSynchronizer interface {
	NoteCreated(userID, noteID, content string)
}

// NoteService provides user, note and chat functionality keyed by username,
// the external identifier of an account.
type NoteService interface {
	// CreateUser registers a new user.
	CreateUser(ctx context.Context, name string) (*storage.User, error)
	// CreateNote saves a note for the user and schedules index
	// synchronization. If title is empty, one is generated from the content.
	CreateNote(ctx context.Context, username, title, content string) (*storage.Note, error)
	// TranscribeNote transcribes the audio and saves the transcript as a
	// new note with a generated title.
	TranscribeNote(ctx context.Context, username, filename string, audio io.Reader) (*storage.Note, error)
	// GetNote returns one of the user's notes.
	GetNote(ctx context.Context, username, noteID string) (*storage.Note, error)
	// ListNotes returns title projections of the user's notes.
	ListNotes(ctx context.Context, username string) ([]storage.NoteTitle, error)
	// DeleteNote removes one of the user's notes.
	DeleteNote(ctx context.Context, username, noteID string) error
	// SetFavorite updates the favorite flag of one of the user's notes.
	SetFavorite(ctx context.Context, username, noteID string, favorite bool) error
	// Answer answers a question grounded in the user's notes.
	Answer(ctx context.Context, username, query string) (string, error)
}

// noteService implements NoteService.
type noteService struct {
	users        storage.UserStore
	notes        storage.NoteStore
	synchronizer IndexSynchronizer
	transcriber  Transcriber
	titler       TitleGenerator
	answerer     Answerer
	logger       *slog.Logger
}

// NewNoteService creates a new NoteService.
func NewNoteService(
	users storage.UserStore,
	notes storage.NoteStore,
	synchronizer IndexSynchronizer,
	transcriber Transcriber,
	titler TitleGenerator,
	answerer Answerer,
) NoteService {
	return &noteService{
		users:        users,
		notes:        notes,
		synchronizer: synchronizer,
		transcriber:  transcriber,
		titler:       titler,
		answerer:     answerer,
		logger:       slog.Default(),
	}
}

// CreateUser registers a new user.
func (s *noteService) CreateUser(ctx context.Context, name string) (*storage.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "cannot be empty"}
	}

	user, err := s.users.Create(ctx, name)
	if err != nil {
		return nil, WrapError(err, "failed to create user")
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "user created", "user_id", user.ID, "name", user.Name)
	return user, nil
}

// CreateNote saves a note and schedules index synchronization.
//
// The store write is authoritative: once it succeeds the note exists
// regardless of what happens to the embedding. Synchronization runs in the
// background and its failures never surface here.
func (s *noteService) CreateNote(ctx context.Context, username, title, content string) (*storage.Note, error) {
	logger := contextutil.LoggerFromContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Message: "cannot be empty"}
	}

	user, err := s.users.GetByName(ctx, username)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title, err = s.titler.GenerateTitle(ctx, content)
		if err != nil {
			return nil, WrapError(err, "failed to generate title")
		}
	}

	note, err := s.notes.Create(ctx, user.ID, title, content)
	if err != nil {
		return nil, WrapError(err, "failed to save note")
	}

	s.synchronizer.NoteCreated(user.ID, note.ID, note.Content)

	logger.InfoContext(ctx, "note created", "user_id", user.ID, "note_id", note.ID, "title", note.Title)
	return note, nil
}

// TranscribeNote transcribes the audio and saves the transcript as a note.
func (s *noteService) TranscribeNote(ctx context.Context, username, filename string, audio io.Reader) (*storage.Note, error) {
	transcript, err := s.transcriber.Transcribe(ctx, filename, audio)
	if err != nil {
		return nil, WrapError(err, "failed to transcribe audio")
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, &ValidationError{Field: "audio", Message: "transcription produced no text"}
	}

	return s.CreateNote(ctx, username, "", transcript)
}

// GetNote returns one of the user's notes.
func (s *noteService) GetNote(ctx context.Context, username, noteID string) (*storage.Note, error) {
	user, err := s.users.GetByName(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.notes.Get(ctx, user.ID, noteID)
}

// ListNotes returns title projections of the user's notes.
func (s *noteService) ListNotes(ctx context.Context, username string) ([]storage.NoteTitle, error) {
	user, err := s.users.GetByName(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.notes.ListTitles(ctx, user.ID)
}

// DeleteNote removes one of the user's notes. The vector index is not
// touched; retrieval filters the orphaned entry.
func (s *noteService) DeleteNote(ctx context.Context, username, noteID string) error {
	user, err := s.users.GetByName(ctx, username)
	if err != nil {
		return err
	}
	return s.notes.Delete(ctx, user.ID, noteID)
}

// SetFavorite updates the favorite flag of one of the user's notes.
func (s *noteService) SetFavorite(ctx context.Context, username, noteID string, favorite bool) error {
	user, err := s.users.GetByName(ctx, username)
	if err != nil {
		return err
	}
	return s.notes.SetFavorite(ctx, user.ID, noteID, favorite)
}

// Answer answers a question grounded in the user's notes.
func (s *noteService) Answer(ctx context.Context, username, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", &ValidationError{Field: "query", Message: "cannot be empty"}
	}

	user, err := s.users.GetByName(ctx, username)
	if err != nil {
		return "", err
	}

	return s.answerer.Answer(ctx, user.ID, query)
}
