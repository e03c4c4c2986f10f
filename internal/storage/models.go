package storage

import "time"

// User represents an account that owns notes. The name is the external key
// used by the HTTP layer; the id is used everywhere internally, including
// vector index scoping.
type User struct {
	ID      string // UUID
	Name    string
	Created time.Time
}

// Note represents a single note owned by exactly one user.
type Note struct {
	ID       string // UUID
	UserID   string // Foreign key to users.id
	Title    string
	Content  string
	Created  time.Time
	Favorite bool
}

// NoteTitle is the listing projection of a note (no content).
type NoteTitle struct {
	ID       string
	Title    string
	Created  time.Time
	Favorite bool
}
