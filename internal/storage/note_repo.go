package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks swiftly/internal/storage NoteStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// NoteStore defines the interface for note storage operations.
// Every method is scoped by user id; the scoping parameter is mandatory, not
// a filter a caller can omit.
type NoteStore interface {
	// Create inserts a new note for the user.
	// Returns ErrUserNotFound if the user does not exist.
	Create(ctx context.Context, userID, title, content string) (*Note, error)
	// Get gets a note by id for the user.
	// Returns ErrNoteNotFound or ErrUserNotFound if not found.
	Get(ctx context.Context, userID, noteID string) (*Note, error)
	// ListTitles lists title projections of all of the user's notes in a
	// stable order. Returns ErrUserNotFound if the user does not exist.
	ListTitles(ctx context.Context, userID string) ([]NoteTitle, error)
	// Delete removes a note. Returns ErrNoteNotFound or ErrUserNotFound.
	Delete(ctx context.Context, userID, noteID string) error
	// SetFavorite updates the favorite flag of a note.
	// Returns ErrNoteNotFound or ErrUserNotFound.
	SetFavorite(ctx context.Context, userID, noteID string, favorite bool) error

	// MarkIndexed records that the note's embedding reached the vector index.
	MarkIndexed(ctx context.Context, userID, noteID string) error
	// ListUnindexed returns notes that have no recorded embedding, across
	// all users. Used by the reconciliation sweep.
	ListUnindexed(ctx context.Context) ([]Note, error)
}

// NoteRepo provides methods for note operations.
// It implements the NoteStore interface.
type NoteRepo struct {
	db *sql.DB
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// userExists reports whether the user id is present.
func (r *NoteRepo) userExists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return true, nil
}

// notFoundErr distinguishes a missing note from a missing user.
func (r *NoteRepo) notFoundErr(ctx context.Context, userID string) error {
	exists, err := r.userExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}
	return ErrNoteNotFound
}

// Create inserts a new note for the user.
func (r *NoteRepo) Create(ctx context.Context, userID, title, content string) (*Note, error) {
	exists, err := r.userExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	note := &Note{
		ID:      uuid.New().String(),
		UserID:  userID,
		Title:   title,
		Content: content,
		Created: nowUTC(),
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, title, content, created, favorite) VALUES (?, ?, ?, ?, ?, 0)`,
		note.ID, note.UserID, note.Title, note.Content, formatTimestamp(note.Created),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert note: %w", err)
	}

	return note, nil
}

// Get gets a note by id for the user.
func (r *NoteRepo) Get(ctx context.Context, userID, noteID string) (*Note, error) {
	var note Note
	var createdStr string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, content, created, favorite FROM notes WHERE user_id = ? AND id = ?`,
		userID, noteID,
	).Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &createdStr, &note.Favorite)
	if err == sql.ErrNoRows {
		return nil, r.notFoundErr(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}

	note.Created, err = parseTimestamp(createdStr)
	if err != nil {
		return nil, err
	}

	return &note, nil
}

// ListTitles lists title projections of all of the user's notes.
// Ordering is by creation time then id, which keeps listings stable across
// calls without implying any semantic ordering.
func (r *NoteRepo) ListTitles(ctx context.Context, userID string) ([]NoteTitle, error) {
	exists, err := r.userExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, created, favorite FROM notes WHERE user_id = ? ORDER BY created, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	titles := make([]NoteTitle, 0)
	for rows.Next() {
		var t NoteTitle
		var createdStr string
		if err := rows.Scan(&t.ID, &t.Title, &createdStr, &t.Favorite); err != nil {
			return nil, fmt.Errorf("failed to scan note title: %w", err)
		}
		t.Created, err = parseTimestamp(createdStr)
		if err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return titles, nil
}

// Delete removes a note. The note_embeddings bookkeeping row goes with it via
// ON DELETE CASCADE; the vector index entry is left behind and filtered at
// retrieval time.
func (r *NoteRepo) Delete(ctx context.Context, userID, noteID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE user_id = ? AND id = ?`,
		userID, noteID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return r.notFoundErr(ctx, userID)
	}

	return nil
}

// SetFavorite updates the favorite flag of a note.
func (r *NoteRepo) SetFavorite(ctx context.Context, userID, noteID string, favorite bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notes SET favorite = ? WHERE user_id = ? AND id = ?`,
		favorite, userID, noteID,
	)
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return r.notFoundErr(ctx, userID)
	}

	return nil
}

// MarkIndexed records that the note's embedding reached the vector index.
// Idempotent: re-marking an already indexed note refreshes the timestamp.
func (r *NoteRepo) MarkIndexed(ctx context.Context, userID, noteID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO note_embeddings (note_id, user_id, indexed_at) VALUES (?, ?, ?)
		 ON CONFLICT (note_id) DO UPDATE SET indexed_at = excluded.indexed_at`,
		noteID, userID, formatTimestamp(nowUTC()),
	)
	if err != nil {
		return fmt.Errorf("failed to mark note indexed: %w", err)
	}
	return nil
}

// ListUnindexed returns notes that have no recorded embedding.
func (r *NoteRepo) ListUnindexed(ctx context.Context) ([]Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT n.id, n.user_id, n.title, n.content, n.created, n.favorite
		 FROM notes n
		 LEFT JOIN note_embeddings e ON e.note_id = n.id
		 WHERE e.note_id IS NULL
		 ORDER BY n.created, n.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unindexed notes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	notes := make([]Note, 0)
	for rows.Next() {
		var note Note
		var createdStr string
		if err := rows.Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &createdStr, &note.Favorite); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		note.Created, err = parseTimestamp(createdStr)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unindexed notes: %w", err)
	}

	return notes, nil
}
