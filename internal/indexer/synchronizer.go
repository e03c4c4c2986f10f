package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"swiftly/internal/contextutil"
	"swiftly/internal/storage"
	"swiftly/internal/vectorstore"
)

// Embedder computes a fixed-dimension embedding for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Synchronizer keeps the vector index consistent with the note store.
//
// Synchronization is best-effort: note creation must never wait on, or fail
// because of, embedding generation. A note whose synchronization failed stays
// valid in the store and is picked up again by Reconcile.
type Synchronizer struct {
	embedder Embedder
	index    vectorstore.VectorIndex
	notes    storage.NoteStore
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewSynchronizer creates a new Synchronizer. timeout bounds each background
// synchronization of a single note.
func NewSynchronizer(embedder Embedder, index vectorstore.VectorIndex, notes storage.NoteStore, timeout time.Duration) *Synchronizer {
	return &Synchronizer{
		embedder: embedder,
		index:    index,
		notes:    notes,
		timeout:  timeout,
		logger:   slog.Default(),
	}
}

// NoteCreated schedules a background synchronization for a freshly created
// note and returns immediately. The work runs on a detached context so a
// finished HTTP request cannot cancel it. Failures are logged, never
// propagated: the note stays valid in the store either way.
func (s *Synchronizer) NoteCreated(userID, noteID, content string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.Sync(ctx, userID, noteID, content); err != nil {
			s.logger.ErrorContext(ctx, "note left unindexed", "user_id", userID, "note_id", noteID, "error", err)
		}
	}()
}

// Sync embeds the note content and inserts it into the vector index.
// On success the note is marked indexed in the store's bookkeeping so the
// reconciliation sweep skips it.
func (s *Synchronizer) Sync(ctx context.Context, userID, noteID, content string) error {
	logger := contextutil.LoggerFromContext(ctx)

	vector, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed note: %w", err)
	}

	recordID, err := s.index.Insert(ctx, userID, noteID, vector)
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}

	// Bookkeeping only; the embedding is already live for retrieval. If the
	// note was deleted in the meantime this fails on the foreign key and the
	// index entry becomes an orphan, which retrieval filters out.
	if err := s.notes.MarkIndexed(ctx, userID, noteID); err != nil {
		logger.WarnContext(ctx, "failed to record index bookkeeping", "note_id", noteID, "error", err)
	}

	logger.DebugContext(ctx, "note synchronized", "user_id", userID, "note_id", noteID, "record_id", recordID)
	return nil
}

// Reconcile re-embeds every note that has no recorded embedding. Errors for
// individual notes are logged but don't stop the sweep.
func (s *Synchronizer) Reconcile(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	unindexed, err := s.notes.ListUnindexed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unindexed notes: %w", err)
	}

	if len(unindexed) == 0 {
		return nil
	}

	logger.InfoContext(ctx, "reconciling unindexed notes", "count", len(unindexed))

	var successCount, errorCount int
	for _, note := range unindexed {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.Sync(ctx, note.UserID, note.ID, note.Content); err != nil {
			errorCount++
			logger.ErrorContext(ctx, "failed to reconcile note", "note_id", note.ID, "error", err)
			continue
		}
		successCount++
	}

	logger.InfoContext(ctx, "reconciliation completed", "success", successCount, "errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("reconciliation completed with %d errors", errorCount)
	}
	return nil
}

// Wait blocks until all in-flight background synchronizations finish.
// Called during shutdown.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}
