package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"swiftly/internal/llm"
	"swiftly/internal/storage"
	storagemocks "swiftly/internal/storage/mocks"
)

// recordingSynchronizer captures NoteCreated calls.
type recordingSynchronizer struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingSynchronizer) NoteCreated(userID, noteID, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, noteID)
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	return f.transcript, f.err
}

type fakeTitler struct {
	title string
	err   error
	calls int
}

func (f *fakeTitler) GenerateTitle(ctx context.Context, content string) (string, error) {
	f.calls++
	return f.title, f.err
}

type fakeAnswerer struct {
	answer    string
	err       error
	gotUserID string
	gotQuery  string
}

func (f *fakeAnswerer) Answer(ctx context.Context, userID, query string) (string, error) {
	f.gotUserID = userID
	f.gotQuery = query
	return f.answer, f.err
}

func TestNoteService_CreateUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	users.EXPECT().Create(ctx, "alice").Return(&storage.User{ID: "user-1", Name: "alice"}, nil)

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, &fakeTranscriber{}, &fakeTitler{}, &fakeAnswerer{})
	user, err := svc.CreateUser(ctx, "  alice  ")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("CreateUser() id = %q", user.ID)
	}
}

func TestNoteService_CreateUser_EmptyName(t *testing.T) {
	ctrl := gomock.NewController(t)

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, &fakeTranscriber{}, &fakeTitler{}, &fakeAnswerer{})
	_, err := svc.CreateUser(context.Background(), "   ")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("CreateUser() error = %v, want ValidationError", err)
	}
}

func TestNoteService_CreateNote(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	synchronizer := &recordingSynchronizer{}
	titler := &fakeTitler{title: "should not be used"}

	users.EXPECT().GetByName(ctx, "alice").Return(&storage.User{ID: "user-1", Name: "alice"}, nil)
	notes.EXPECT().Create(ctx, "user-1", "Trip planning", "Book flights to Lisbon").
		Return(&storage.Note{ID: "note-1", UserID: "user-1", Title: "Trip planning", Content: "Book flights to Lisbon"}, nil)

	svc := NewNoteService(users, notes, synchronizer, &fakeTranscriber{}, titler, &fakeAnswerer{})
	note, err := svc.CreateNote(ctx, "alice", "Trip planning", "Book flights to Lisbon")
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if note.ID != "note-1" {
		t.Errorf("CreateNote() id = %q", note.ID)
	}
	if titler.calls != 0 {
		t.Errorf("title generator called %d times for a titled note, want 0", titler.calls)
	}
	if len(synchronizer.calls) != 1 || synchronizer.calls[0] != "note-1" {
		t.Errorf("synchronizer calls = %v, want [note-1]", synchronizer.calls)
	}
}

func TestNoteService_CreateNote_GeneratesTitle(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	titler := &fakeTitler{title: "Lisbon Trip"}

	users.EXPECT().GetByName(ctx, "alice").Return(&storage.User{ID: "user-1", Name: "alice"}, nil)
	notes.EXPECT().Create(ctx, "user-1", "Lisbon Trip", "Book flights to Lisbon").
		Return(&storage.Note{ID: "note-1", UserID: "user-1", Title: "Lisbon Trip", Content: "Book flights to Lisbon"}, nil)

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, &fakeTranscriber{}, titler, &fakeAnswerer{})
	note, err := svc.CreateNote(ctx, "alice", "", "Book flights to Lisbon")
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if note.Title != "Lisbon Trip" {
		t.Errorf("CreateNote() title = %q", note.Title)
	}
	if titler.calls != 1 {
		t.Errorf("title generator called %d times, want 1", titler.calls)
	}
}

func TestNoteService_CreateNote_TitleGenerationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	titler := &fakeTitler{err: llm.ErrGenerationUnavailable}

	users.EXPECT().GetByName(ctx, "alice").Return(&storage.User{ID: "user-1", Name: "alice"}, nil)

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, &fakeTranscriber{}, titler, &fakeAnswerer{})
	_, err := svc.CreateNote(ctx, "alice", "", "Book flights to Lisbon")
	if !errors.Is(err, llm.ErrGenerationUnavailable) {
		t.Errorf("CreateNote() error = %v, want ErrGenerationUnavailable", err)
	}
}

func TestNoteService_CreateNote_EmptyContent(t *testing.T) {
	ctrl := gomock.NewController(t)

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	synchronizer := &recordingSynchronizer{}

	svc := NewNoteService(users, notes, synchronizer, &fakeTranscriber{}, &fakeTitler{}, &fakeAnswerer{})
	_, err := svc.CreateNote(context.Background(), "alice", "title", "   ")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("CreateNote() error = %v, want ValidationError", err)
	}
	if len(synchronizer.calls) != 0 {
		t.Errorf("synchronizer must not run for rejected notes, got %v", synchronizer.calls)
	}
}

func TestNoteService_CreateNote_UnknownUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	users.EXPECT().GetByName(ctx, "ghost").Return(nil, storage.ErrUserNotFound)

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, &fakeTranscriber{}, &fakeTitler{}, &fakeAnswerer{})
	_, err := svc.CreateNote(ctx, "ghost", "title", "content")
	if !errors.Is(err, storage.ErrUserNotFound) {
		t.Errorf("CreateNote() error = %v, want ErrUserNotFound", err)
	}
}

func TestNoteService_TranscribeNote(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	synchronizer := &recordingSynchronizer{}
	transcriber := &fakeTranscriber{transcript: "Remember to water the plants."}
	titler := &fakeTitler{title: "Water The Plants"}

	users.EXPECT().GetByName(ctx, "alice").Return(&storage.User{ID: "user-1", Name: "alice"}, nil)
	notes.EXPECT().Create(ctx, "user-1", "Water The Plants", "Remember to water the plants.").
		Return(&storage.Note{ID: "note-1", UserID: "user-1", Title: "Water The Plants", Content: "Remember to water the plants."}, nil)

	svc := NewNoteService(users, notes, synchronizer, transcriber, titler, &fakeAnswerer{})
	note, err := svc.TranscribeNote(ctx, "alice", "memo.m4a", strings.NewReader("fake audio"))
	if err != nil {
		t.Fatalf("TranscribeNote() error = %v", err)
	}
	if note.Content != "Remember to water the plants." {
		t.Errorf("TranscribeNote() content = %q", note.Content)
	}
	if len(synchronizer.calls) != 1 {
		t.Errorf("synchronizer calls = %v, want one", synchronizer.calls)
	}
}

func TestNoteService_TranscribeNote_EmptyTranscript(t *testing.T) {
	ctrl := gomock.NewController(t)

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	transcriber := &fakeTranscriber{transcript: "   "}

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, transcriber, &fakeTitler{}, &fakeAnswerer{})
	_, err := svc.TranscribeNote(context.Background(), "alice", "memo.m4a", strings.NewReader("fake audio"))

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("TranscribeNote() error = %v, want ValidationError", err)
	}
}

func TestNoteService_TranscribeNote_ProviderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	transcriber := &fakeTranscriber{err: llm.ErrTranscriptionUnavailable}

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, transcriber, &fakeTitler{}, &fakeAnswerer{})
	_, err := svc.TranscribeNote(context.Background(), "alice", "memo.m4a", strings.NewReader("fake audio"))
	if !errors.Is(err, llm.ErrTranscriptionUnavailable) {
		t.Errorf("TranscribeNote() error = %v, want ErrTranscriptionUnavailable", err)
	}
}

func TestNoteService_Answer(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	answerer := &fakeAnswerer{answer: "You planned a trip to Lisbon."}

	users.EXPECT().GetByName(ctx, "alice").Return(&storage.User{ID: "user-1", Name: "alice"}, nil)

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, &fakeTranscriber{}, &fakeTitler{}, answerer)
	answer, err := svc.Answer(ctx, "alice", "Where am I traveling?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "You planned a trip to Lisbon." {
		t.Errorf("Answer() = %q", answer)
	}
	if answerer.gotUserID != "user-1" {
		t.Errorf("answerer scoped to %q, want the resolved user id", answerer.gotUserID)
	}
	if answerer.gotQuery != "Where am I traveling?" {
		t.Errorf("answerer query = %q", answerer.gotQuery)
	}
}

func TestNoteService_Answer_EmptyQuery(t *testing.T) {
	ctrl := gomock.NewController(t)

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, &fakeTranscriber{}, &fakeTitler{}, &fakeAnswerer{})
	_, err := svc.Answer(context.Background(), "alice", "  ")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("Answer() error = %v, want ValidationError", err)
	}
}

func TestNoteService_DeleteNote(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	users.EXPECT().GetByName(ctx, "alice").Return(&storage.User{ID: "user-1", Name: "alice"}, nil)
	notes.EXPECT().Delete(ctx, "user-1", "note-1").Return(nil)

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, &fakeTranscriber{}, &fakeTitler{}, &fakeAnswerer{})
	if err := svc.DeleteNote(ctx, "alice", "note-1"); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
}

func TestNoteService_SetFavorite(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	users := storagemocks.NewMockUserStore(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	users.EXPECT().GetByName(ctx, "alice").Return(&storage.User{ID: "user-1", Name: "alice"}, nil)
	notes.EXPECT().SetFavorite(ctx, "user-1", "note-1", true).Return(nil)

	svc := NewNoteService(users, notes, &recordingSynchronizer{}, &fakeTranscriber{}, &fakeTitler{}, &fakeAnswerer{})
	if err := svc.SetFavorite(ctx, "alice", "note-1", true); err != nil {
		t.Fatalf("SetFavorite() error = %v", err)
	}
}
