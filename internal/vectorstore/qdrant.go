package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"swiftly/internal/contextutil"
)

// QdrantIndex implements VectorIndex using Qdrant.
// All records live in a single collection; per-user scoping is enforced with
// a mandatory payload filter on every query.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	vectorSize int
}

// NewQdrantIndex creates a new Qdrant-backed vector index.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantIndex(urlStr, collection string, vectorSize int) (*QdrantIndex, error) {
	if vectorSize <= 0 {
		return nil, fmt.Errorf("vector size must be greater than 0")
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	// Extract port from URL, default to 6333 for HTTP
	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{
		client:     client,
		collection: collection,
		vectorSize: vectorSize,
	}, nil
}

// checkDimension validates a vector against the configured dimension.
func (s *QdrantIndex) checkDimension(vector []float32) error {
	if len(vector) != s.vectorSize {
		return fmt.Errorf("%w: vector has dimension %d, index expects %d", ErrIndexInconsistent, len(vector), s.vectorSize)
	}
	return nil
}

// Insert appends a new embedding record for the user's note.
func (s *QdrantIndex) Insert(ctx context.Context, userID, noteID string, vector []float32) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if noteID == "" {
		return "", fmt.Errorf("note id is required")
	}
	if err := s.checkDimension(vector); err != nil {
		return "", err
	}

	recordID := uuid.New().String()
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(recordID),
		Vectors: qdrant.NewVectors(vector...),
		Payload: qdrant.NewValueMap(map[string]any{
			"user_id": userID,
			"note_id": noteID,
			"created": time.Now().UTC().Format(time.RFC3339),
		}),
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to insert embedding record", "collection", s.collection, "note_id", noteID, "error", err)
		return "", fmt.Errorf("failed to insert embedding record: %w", err)
	}

	logger.DebugContext(ctx, "inserted embedding record", "collection", s.collection, "record_id", recordID, "note_id", noteID)
	return recordID, nil
}

// Search returns up to k note ids ranked by descending similarity, scoped to
// the given user. candidatePool maps onto the HNSW ef search parameter so the
// approximate search considers a wider pool before ranking.
func (s *QdrantIndex) Search(ctx context.Context, userID string, query []float32, k, candidatePool int) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	if err := s.checkDimension(query); err != nil {
		return nil, err
	}
	if candidatePool < k {
		candidatePool = k
	}

	limit := uint64(k)
	ef := uint64(candidatePool)
	scoredPoints, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("user_id", userID),
			},
		},
		Params: &qdrant.SearchParams{
			HnswEf: &ef,
		},
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search embedding records", "collection", s.collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search embedding records: %w", err)
	}

	noteIDs := make([]string, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		if point.Payload == nil {
			continue
		}
		value, ok := point.Payload["note_id"]
		if !ok {
			return nil, fmt.Errorf("%w: record missing note_id payload", ErrIndexInconsistent)
		}
		noteID := value.GetStringValue()
		if noteID == "" {
			return nil, fmt.Errorf("%w: record has empty note_id payload", ErrIndexInconsistent)
		}
		noteIDs = append(noteIDs, noteID)
	}

	logger.DebugContext(ctx, "search completed", "collection", s.collection, "k", k, "candidate_pool", candidatePool, "results", len(noteIDs))
	return noteIDs, nil
}

// EnsureCollection ensures the collection exists with the configured vector
// size and cosine distance. If it exists with a different size, that is a
// fatal configuration error.
func (s *QdrantIndex) EnsureCollection(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", s.collection, "vector_size", s.vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	config := info.Config
	if config == nil || config.Params == nil {
		return fmt.Errorf("collection config is invalid")
	}
	vectorsConfig := config.Params.GetVectorsConfig()
	if vectorsConfig == nil {
		return fmt.Errorf("collection vectors config is invalid")
	}
	params := vectorsConfig.GetParams()
	if params == nil {
		return fmt.Errorf("collection vector params are invalid")
	}

	if int(params.Size) != s.vectorSize {
		return fmt.Errorf("%w: collection has size %d, expected %d", ErrIndexInconsistent, params.Size, s.vectorSize)
	}

	logger.InfoContext(ctx, "collection validated", "collection", s.collection, "vector_size", s.vectorSize)
	return nil
}
