package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/artyomka101/appforphone/internal/events"
	"github.com/artyomka101/appforphone/internal/logger"
	"github.com/artyomka101/appforphone/internal/storage"
	"github.com/artyomka101/appforphone/internal/storage/sqlstore"
)

type Store struct {
	*sqlstore.Store
	path string
}

var _ storage.Provider = (*Store)(nil)

// NewStore returns a store for the database file at path. bus may be nil.
func NewStore(path string, bus *events.Bus) *Store {
	return &Store{
		Store: sqlstore.New(sqlstore.SQLite, bus),
		path:  path,
	}
}

// dsn enables WAL, a busy timeout and foreign keys on every connection
func dsn(path string) string {
	v := url.Values{}
	v.Add("_pragma", "busy_timeout(5000)")
	v.Add("_pragma", "journal_mode(WAL)")
	v.Add("_pragma", "foreign_keys(1)")
	return "file:" + path + "?" + v.Encode()
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", dsn(s.path))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; transactions take the only connection
	db.SetMaxOpenConns(1)
	s.Attach(db)
	return nil
}

// Init creates the database if needed and applies migrations
func (s *Store) Init(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.DB() == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if _, err := s.Migrate(ctx, func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Open connects to an existing database without checking its schema
func (s *Store) Open(ctx context.Context) error {
	if s.DB() != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'habitkeeper init' first")
	}
	return s.open()
}

// Load opens an existing database and checks its schema version
func (s *Store) Load(ctx context.Context) error {
	if err := s.Open(ctx); err != nil {
		return err
	}
	return s.ValidateSchema(ctx)
}

func (s *Store) GetConfigPath() string {
	return s.path
}
