// Package sqlstore implements storage.Queries over database/sql for every
// supported dialect. Statements are written with ? placeholders and rebound.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/events"
	"github.com/artyomka101/appforphone/internal/logger"
	"github.com/artyomka101/appforphone/internal/migration"
	"github.com/artyomka101/appforphone/internal/storage"
	"github.com/artyomka101/appforphone/migrations"
)

// timestampLayout is fixed-width so stored timestamps sort lexically
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Dialect captures what differs between SQL backends
type Dialect struct {
	Name          string
	Placeholder   migration.Placeholder
	MigrationsDir string
}

var (
	SQLite   = Dialect{Name: "sqlite", Placeholder: migration.QuestionMark, MigrationsDir: "sqlite"}
	Postgres = Dialect{Name: "postgres", Placeholder: migration.Dollar, MigrationsDir: "postgres"}
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the shared SQL store. Dialect packages open the *sql.DB and call Attach.
type Store struct {
	*queries

	db      *sql.DB
	dialect Dialect
	bus     *events.Bus
}

var _ storage.Queries = (*Store)(nil)

// New returns a detached store. bus may be nil, in which case a private bus is created.
func New(d Dialect, bus *events.Bus) *Store {
	if bus == nil {
		bus = events.NewBus(64)
	}
	return &Store{dialect: d, bus: bus}
}

// Attach binds an open database handle
func (s *Store) Attach(db *sql.DB) {
	s.db = db
	s.queries = &queries{ex: db, d: s.dialect, emit: func(evt events.Event) { s.bus.Publish(evt) }}
}

// DB returns the underlying handle, nil before Attach
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the store's SQL dialect
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) migrationFS() (fs.FS, error) {
	sub, err := fs.Sub(migrations.FS, s.dialect.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s migrations: %w", s.dialect.Name, err)
	}
	return sub, nil
}

// Migrate applies pending schema migrations
func (s *Store) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	sub, err := s.migrationFS()
	if err != nil {
		return 0, err
	}
	return migration.NewRunner(s.db, sub, s.dialect.Placeholder).ApplyMigrations(ctx, logFn)
}

// ValidateSchema fails unless the database is at the latest schema version
func (s *Store) ValidateSchema(ctx context.Context) error {
	sub, err := s.migrationFS()
	if err != nil {
		return err
	}
	return migration.NewRunner(s.db, sub, s.dialect.Placeholder).ValidateVersion(ctx)
}

// Close releases the database handle and the change feed
func (s *Store) Close() error {
	s.bus.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Subscribe returns a feed of committed changes
func (s *Store) Subscribe() (<-chan events.Event, func()) {
	return s.bus.Subscribe()
}

// WithTx runs fn inside one transaction and publishes its change events after commit.
func (s *Store) WithTx(ctx context.Context, fn func(q storage.Queries) error) error {
	if s.db == nil {
		return apperrors.Store("begin transaction", fmt.Errorf("database is not open"))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("begin transaction", err)
	}

	var pending []events.Event
	q := &queries{ex: tx, d: s.dialect, emit: func(evt events.Event) { pending = append(pending, evt) }}

	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warn("Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Store("commit transaction", err)
	}

	seen := make(map[events.Event]struct{}, len(pending))
	for _, evt := range pending {
		if _, ok := seen[evt]; ok {
			continue
		}
		seen[evt] = struct{}{}
		s.bus.Publish(evt)
	}
	return nil
}

// DeleteHabit is always atomic, even outside WithTx
func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(q storage.Queries) error {
		return q.DeleteHabit(ctx, id)
	})
}

// queries runs statements against either the DB or a Tx
type queries struct {
	ex   execer
	d    Dialect
	emit func(events.Event)
}

// rebind rewrites ? placeholders for the dialect
func (q *queries) rebind(query string) string {
	if q.d.Name == SQLite.Name {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(q.d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (q *queries) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	res, err := q.ex.ExecContext(ctx, q.rebind(query), args...)
	if err != nil {
		return nil, apperrors.Store(op, err)
	}
	return res, nil
}

// execOne runs a statement that must touch exactly one row
func (q *queries) execOne(ctx context.Context, op, query string, notFound error, args ...any) error {
	res, err := q.exec(ctx, op, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Store(op, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (q *queries) query(ctx context.Context, op, query string, args ...any) (*sql.Rows, error) {
	rows, err := q.ex.QueryContext(ctx, q.rebind(query), args...)
	if err != nil {
		return nil, apperrors.Store(op, err)
	}
	return rows, nil
}

func (q *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.ex.QueryRowContext(ctx, q.rebind(query), args...)
}

func (q *queries) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := q.queryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperrors.Store(op, err)
	}
	return n, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
