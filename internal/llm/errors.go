package llm

import "errors"

var (
	// ErrEmbeddingUnavailable is returned when the embedding endpoint fails
	// or returns an unusable vector.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrGenerationUnavailable is returned when the chat completion endpoint fails.
	ErrGenerationUnavailable = errors.New("generation provider unavailable")
	// ErrTranscriptionUnavailable is returned when the transcription endpoint fails.
	ErrTranscriptionUnavailable = errors.New("transcription provider unavailable")
)
