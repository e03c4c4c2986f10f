package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"swiftly/internal/llm"
	"swiftly/internal/storage"
	storagemocks "swiftly/internal/storage/mocks"
	vectormocks "swiftly/internal/vectorstore/mocks"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeGenerator records the messages it was asked to complete and replies
// with a canned answer.
type fakeGenerator struct {
	reply    string
	err      error
	messages []llm.Message
}

func (f *fakeGenerator) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestEngine_Retrieve_PreservesRanking(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	vector := []float32{0.1, 0.2, 0.3}
	embedder := &fakeEmbedder{vector: vector}
	index := vectormocks.NewMockVectorIndex(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	// The index ranks note-b above note-a; the result must keep that order
	// even though the store would naturally return them by creation time.
	index.EXPECT().Search(ctx, "user-1", vector, 2, 20).Return([]string{"note-b", "note-a"}, nil)
	notes.EXPECT().Get(ctx, "user-1", "note-b").Return(&storage.Note{ID: "note-b", UserID: "user-1", Title: "Trip", Content: "Lisbon in June"}, nil)
	notes.EXPECT().Get(ctx, "user-1", "note-a").Return(&storage.Note{ID: "note-a", UserID: "user-1", Title: "Groceries", Content: "eggs and milk"}, nil)

	e := NewEngine(embedder, index, notes, nil, 12000)
	got, err := e.Retrieve(ctx, "user-1", "travel plans", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Retrieve() returned %d notes, want 2", len(got))
	}
	if got[0].NoteID != "note-b" || got[1].NoteID != "note-a" {
		t.Errorf("Retrieve() order = [%s %s], want [note-b note-a]", got[0].NoteID, got[1].NoteID)
	}
	if got[0].Content != "Lisbon in June" {
		t.Errorf("Retrieve() top content = %q", got[0].Content)
	}
}

func TestEngine_Retrieve_DropsOrphanedEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	vector := []float32{0.1, 0.2, 0.3}
	embedder := &fakeEmbedder{vector: vector}
	index := vectormocks.NewMockVectorIndex(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	index.EXPECT().Search(ctx, "user-1", vector, 3, 30).Return([]string{"note-1", "deleted-note", "note-3"}, nil)
	notes.EXPECT().Get(ctx, "user-1", "note-1").Return(&storage.Note{ID: "note-1", Content: "first"}, nil)
	notes.EXPECT().Get(ctx, "user-1", "deleted-note").Return(nil, storage.ErrNoteNotFound)
	notes.EXPECT().Get(ctx, "user-1", "note-3").Return(&storage.Note{ID: "note-3", Content: "third"}, nil)

	e := NewEngine(embedder, index, notes, nil, 12000)
	got, err := e.Retrieve(ctx, "user-1", "anything", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Retrieve() returned %d notes, want 2", len(got))
	}
	if got[0].NoteID != "note-1" || got[1].NoteID != "note-3" {
		t.Errorf("Retrieve() = [%s %s], want [note-1 note-3]", got[0].NoteID, got[1].NoteID)
	}
}

func TestEngine_Retrieve_EmptyResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	vector := []float32{0.1, 0.2, 0.3}
	embedder := &fakeEmbedder{vector: vector}
	index := vectormocks.NewMockVectorIndex(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	index.EXPECT().Search(ctx, "user-1", vector, 5, 50).Return(nil, nil)

	e := NewEngine(embedder, index, notes, nil, 12000)
	got, err := e.Retrieve(ctx, "user-1", "anything", 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v, empty result must not be an error", err)
	}
	if len(got) != 0 {
		t.Errorf("Retrieve() returned %d notes, want 0", len(got))
	}
}

func TestEngine_Retrieve_EmbedFailureIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)

	embedder := &fakeEmbedder{err: llm.ErrEmbeddingUnavailable}
	index := vectormocks.NewMockVectorIndex(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	e := NewEngine(embedder, index, notes, nil, 12000)
	_, err := e.Retrieve(context.Background(), "user-1", "anything", 5)
	if !errors.Is(err, llm.ErrEmbeddingUnavailable) {
		t.Errorf("Retrieve() error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestEngine_Retrieve_DefaultK(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	vector := []float32{0.1}
	embedder := &fakeEmbedder{vector: vector}
	index := vectormocks.NewMockVectorIndex(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)

	index.EXPECT().Search(ctx, "user-1", vector, defaultK, defaultK*candidateMultiplier).Return(nil, nil)

	e := NewEngine(embedder, index, notes, nil, 12000)
	if _, err := e.Retrieve(ctx, "user-1", "anything", 0); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
}

func TestEngine_Answer(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	vector := []float32{0.1, 0.2, 0.3}
	embedder := &fakeEmbedder{vector: vector}
	index := vectormocks.NewMockVectorIndex(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	generator := &fakeGenerator{reply: "  You planned a trip to Lisbon in June.\n"}

	index.EXPECT().Search(ctx, "user-1", vector, defaultK, defaultK*candidateMultiplier).Return([]string{"note-1", "note-2"}, nil)
	notes.EXPECT().Get(ctx, "user-1", "note-1").Return(&storage.Note{ID: "note-1", Content: "Book flights to Lisbon in June"}, nil)
	notes.EXPECT().Get(ctx, "user-1", "note-2").Return(&storage.Note{ID: "note-2", Content: "Buy groceries: eggs, milk"}, nil)

	e := NewEngine(embedder, index, notes, generator, 12000)
	answer, err := e.Answer(ctx, "user-1", "Where am I traveling?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "You planned a trip to Lisbon in June." {
		t.Errorf("Answer() = %q, want trimmed reply", answer)
	}

	if len(generator.messages) != 4 {
		t.Fatalf("generator received %d messages, want 4", len(generator.messages))
	}
	contextMsg := generator.messages[1].Content
	if !strings.Contains(contextMsg, "Book flights to Lisbon in June") {
		t.Errorf("context message missing top note: %q", contextMsg)
	}
	if !strings.Contains(contextMsg, "Buy groceries: eggs, milk") {
		t.Errorf("context message missing second note: %q", contextMsg)
	}
	if last := generator.messages[3]; last.Role != "user" || last.Content != "Where am I traveling?" {
		t.Errorf("final message = %+v, want the user query", last)
	}
}

func TestEngine_Answer_NoNotesStillGenerates(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	vector := []float32{0.1}
	embedder := &fakeEmbedder{vector: vector}
	index := vectormocks.NewMockVectorIndex(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	generator := &fakeGenerator{reply: "Your notes don't mention that."}

	index.EXPECT().Search(ctx, "user-1", vector, defaultK, defaultK*candidateMultiplier).Return(nil, nil)

	e := NewEngine(embedder, index, notes, generator, 12000)
	answer, err := e.Answer(ctx, "user-1", "What did I say about quantum physics?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "Your notes don't mention that." {
		t.Errorf("Answer() = %q", answer)
	}
	if generator.messages == nil {
		t.Error("generation should still run with an empty context")
	}
}

func TestEngine_Answer_GenerationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	vector := []float32{0.1}
	embedder := &fakeEmbedder{vector: vector}
	index := vectormocks.NewMockVectorIndex(ctrl)
	notes := storagemocks.NewMockNoteStore(ctrl)
	generator := &fakeGenerator{err: llm.ErrGenerationUnavailable}

	index.EXPECT().Search(ctx, "user-1", vector, defaultK, defaultK*candidateMultiplier).Return(nil, nil)

	e := NewEngine(embedder, index, notes, generator, 12000)
	_, err := e.Answer(ctx, "user-1", "anything")
	if !errors.Is(err, llm.ErrGenerationUnavailable) {
		t.Errorf("Answer() error = %v, want ErrGenerationUnavailable", err)
	}
}

func TestBuildContext(t *testing.T) {
	tests := []struct {
		name   string
		notes  []RetrievedNote
		budget int
		want   string
	}{
		{
			name:   "no notes",
			notes:  nil,
			budget: 100,
			want:   "",
		},
		{
			name: "all fit",
			notes: []RetrievedNote{
				{Content: "first"},
				{Content: "second"},
			},
			budget: 100,
			want:   "first\nsecond",
		},
		{
			name: "lowest ranked dropped first",
			notes: []RetrievedNote{
				{Content: "first"},
				{Content: "second"},
				{Content: "third"},
			},
			budget: 12,
			want:   "first\nsecond",
		},
		{
			name: "top note alone over budget is cut",
			notes: []RetrievedNote{
				{Content: "a very long note that exceeds the budget"},
			},
			budget: 11,
			want:   "a very long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildContext(tt.notes, tt.budget); got != tt.want {
				t.Errorf("buildContext() = %q, want %q", got, tt.want)
			}
		})
	}
}
