package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"swiftly/internal/contextutil"
	"swiftly/internal/llm"
	"swiftly/internal/storage"
	"swiftly/internal/vectorstore"
)

const (
	// defaultK is the number of notes retrieved when the caller doesn't ask
	// for a specific amount.
	defaultK = 10
	// candidateMultiplier widens the ANN candidate pool relative to k to
	// reduce approximation error before ranking.
	candidateMultiplier = 10
)

// Embedder computes a fixed-dimension embedding for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a chat completion for a sequence of messages.
type Generator interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// Engine retrieves the notes most relevant to a query and answers questions
// grounded in them.
type Engine struct {
	embedder        Embedder
	index           vectorstore.VectorIndex
	notes           storage.NoteStore
	generator       Generator
	maxContextChars int
	logger          *slog.Logger
}

// NewEngine creates a new retrieval engine. maxContextChars bounds the
// context block assembled for generation; lowest-ranked notes are dropped
// first when over budget.
func NewEngine(embedder Embedder, index vectorstore.VectorIndex, notes storage.NoteStore, generator Generator, maxContextChars int) *Engine {
	return &Engine{
		embedder:        embedder,
		index:           index,
		notes:           notes,
		generator:       generator,
		maxContextChars: maxContextChars,
		logger:          slog.Default(),
	}
}

// Retrieve returns up to k of the user's notes ranked by descending semantic
// similarity to the query.
//
// The output order is exactly the similarity ranking produced by the index;
// ids are resolved against the store one by one to preserve it. Ids whose
// note no longer exists are dropped silently (the index is never pruned on
// delete). An empty result is a valid outcome, not an error.
func (e *Engine) Retrieve(ctx context.Context, userID, query string, k int) ([]RetrievedNote, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if k <= 0 {
		k = defaultK
	}

	queryVector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		// Fatal to the retrieval call; there is no keyword fallback.
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	noteIDs, err := e.index.Search(ctx, userID, queryVector, k, k*candidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	results := make([]RetrievedNote, 0, len(noteIDs))
	for _, noteID := range noteIDs {
		note, err := e.notes.Get(ctx, userID, noteID)
		if errors.Is(err, storage.ErrNoteNotFound) || errors.Is(err, storage.ErrUserNotFound) {
			// Orphaned index entry; the note was deleted after indexing.
			logger.DebugContext(ctx, "dropping orphaned index entry", "note_id", noteID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve note %s: %w", noteID, err)
		}
		results = append(results, RetrievedNote{
			NoteID:  note.ID,
			Title:   note.Title,
			Content: note.Content,
		})
	}

	logger.InfoContext(ctx, "retrieval completed", "requested", k, "ranked", len(noteIDs), "resolved", len(results))
	return results, nil
}

// Answer retrieves the user's most relevant notes and asks the generation
// provider for an answer grounded exclusively in them.
//
// An empty retrieval result still proceeds to generation; the provider is
// instructed to say when the notes hold no relevant information.
func (e *Engine) Answer(ctx context.Context, userID, query string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	retrieved, err := e.Retrieve(ctx, userID, query, defaultK)
	if err != nil {
		return "", err
	}

	contextBlock := buildContext(retrieved, e.maxContextChars)
	logger.DebugContext(ctx, "context assembled", "notes", len(retrieved), "context_length", len(contextBlock))

	messages := []llm.Message{
		{Role: "system", Content: "You are a personal assistant helping a person remember what their ideas and thoughts were."},
		{Role: "system", Content: fmt.Sprintf("Use this newline-separated list of notes to answer all questions: %s", contextBlock)},
		{Role: "system", Content: "Respond in the style of the query, and succinctly summarize the important notes to answer the question. If the notes contain no relevant information, say so."},
		{Role: "user", Content: query},
	}

	answer, err := e.generator.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	logger.InfoContext(ctx, "answer generated", "notes_used", len(retrieved), "answer_length", len(answer))
	return strings.TrimSpace(answer), nil
}

// buildContext joins retrieved content newline-delimited, within budget.
// Notes are taken in rank order until the budget runs out, so the
// lowest-ranked entries are the ones truncated. If even the top note exceeds
// the budget on its own, it is cut rather than dropped.
func buildContext(notes []RetrievedNote, budget int) string {
	var b strings.Builder
	for i, note := range notes {
		cost := len(note.Content)
		if i > 0 {
			cost++ // newline separator
		}
		if b.Len()+cost > budget {
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(note.Content)
	}

	if b.Len() == 0 && len(notes) > 0 && budget > 0 {
		content := notes[0].Content
		if len(content) > budget {
			content = content[:budget]
		}
		return content
	}

	return b.String()
}
