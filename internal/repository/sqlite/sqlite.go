package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/askhub/internal/domain"
	"github.com/msomdec/askhub/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle and hands out repositories bound to it.
// It implements domain.Database.
type DB struct {
	SqlDB *sql.DB
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Enable foreign key enforcement.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// One connection serialises writers, which the quota-bounded inserts
	// rely on for their count-and-insert statements.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{SqlDB: db}, nil
}

// Migrate applies the embedded schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

func (d *DB) Close() error {
	return d.SqlDB.Close()
}

func (d *DB) Users() domain.UserRepository                { return NewUserRepository(d) }
func (d *DB) Sessions() domain.SessionRepository          { return &sessionRepo{db: d.SqlDB} }
func (d *DB) Questions() domain.QuestionRepository        { return &questionRepo{db: d.SqlDB} }
func (d *DB) Posts() domain.PostRepository                { return &postRepo{db: d.SqlDB} }
func (d *DB) LoginHistory() domain.LoginHistoryRepository { return &loginHistoryRepo{db: d.SqlDB} }
func (d *DB) FileStore() domain.FileStore                 { return &fileStore{db: d.SqlDB} }
