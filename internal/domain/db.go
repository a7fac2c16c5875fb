package domain

import "context"

// Database is a storage backend: its schema lifecycle plus the
// repositories bound to it. The SQLite package is the only implementation;
// a Postgres one would own its own migrations.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error

	Users() UserRepository
	Sessions() SessionRepository
	Questions() QuestionRepository
	Posts() PostRepository
	LoginHistory() LoginHistoryRepository
	FileStore() FileStore
}
