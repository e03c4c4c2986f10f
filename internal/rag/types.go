package rag

// RetrievedNote is one unit of retrieval output: a live note's content,
// carried in similarity-rank order.
type RetrievedNote struct {
	NoteID  string
	Title   string
	Content string
}
