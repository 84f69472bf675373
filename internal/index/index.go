package index

// TaskIndex defines the interface for task indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type TaskIndex interface {
	ReplaceNote(n NoteRow, tasks []TaskRow) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Search(q TaskQuery) ([]TaskRow, error)
	Counts() (open, completed int, err error)
	Close() error
}

// Verify *DB satisfies TaskIndex at compile time.
var _ TaskIndex = (*DB)(nil)
