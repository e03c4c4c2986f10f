package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_index.go -package=mocks swiftly/internal/vectorstore VectorIndex

import (
	"context"
	"errors"
)

var (
	// ErrIndexInconsistent is returned on a vector dimension mismatch or a
	// malformed index record. Callers must treat this as fatal, not retry.
	ErrIndexInconsistent = errors.New("vector index inconsistent")
)

// VectorIndex is an append-only store of per-user note embeddings with
// scoped approximate nearest-neighbor search.
type VectorIndex interface {
	// Insert appends a new embedding record for the user's note and
	// returns the record id. It never overwrites; callers are expected to
	// avoid duplicate inserts for the same note.
	Insert(ctx context.Context, userID, noteID string, vector []float32) (string, error)

	// Search returns up to k note ids ranked by descending cosine
	// similarity to the query vector, considering only records belonging
	// to userID. candidatePool is the number of candidates the
	// approximate search expands before ranking; it is clamped to at
	// least k.
	Search(ctx context.Context, userID string, query []float32, k, candidatePool int) ([]string, error)
}
