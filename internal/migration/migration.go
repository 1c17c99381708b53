// Package migration applies the numbered NNN_name.sql schema files of one SQL
// dialect and tracks the applied version in a schema_version table.
package migration

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Placeholder renders the n-th (1-based) bind parameter for a driver
type Placeholder func(n int) string

// QuestionMark is the placeholder style of SQLite
func QuestionMark(int) string { return "?" }

// Dollar is the placeholder style of PostgreSQL
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

type Migration struct {
	Version int
	Name    string
	SQL     string
}

type Runner struct {
	db  *sql.DB
	src fs.FS
	ph  Placeholder
}

// NewRunner reads migrations from the root of src. A nil placeholder means QuestionMark.
func NewRunner(db *sql.DB, src fs.FS, ph Placeholder) *Runner {
	if ph == nil {
		ph = QuestionMark
	}
	return &Runner{db: db, src: src, ph: ph}
}

const versionTable = `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`

func (r *Runner) EnsureSchemaVersionTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, versionTable)
	return err
}

// GetCurrentVersion is 0 for a database no migration has touched
func (r *Runner) GetCurrentVersion(ctx context.Context) (int, error) {
	if err := r.EnsureSchemaVersionTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure schema_version table: %w", err)
	}
	var v int
	switch err := r.db.QueryRowContext(ctx, "SELECT version FROM schema_version").Scan(&v); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return v, nil
}

// parseName splits "007_add_index.sql" into 7 and "add_index"
func parseName(file string) (int, string, error) {
	num, name, ok := strings.Cut(strings.TrimSuffix(file, ".sql"), "_")
	if !ok {
		return 0, "", fmt.Errorf("invalid migration filename format: %s (expected NNN_name.sql)", file)
	}
	v, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", fmt.Errorf("invalid version number in filename %s: %w", file, err)
	}
	if v < 1 {
		return 0, "", fmt.Errorf("invalid version number in filename %s: version must be at least 1", file)
	}
	return v, name, nil
}

// ReadMigrationFiles returns every .sql file ordered by version
func (r *Runner) ReadMigrationFiles() ([]Migration, error) {
	entries, err := fs.ReadDir(r.src, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		v, name, err := parseName(e.Name())
		if err != nil {
			return nil, err
		}
		body, err := fs.ReadFile(r.src, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: v, Name: name, SQL: string(body)})
	}

	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", out[i].Version)
		}
	}
	return out, nil
}

func (r *Runner) GetLatestVersion() (int, error) {
	ms, err := r.ReadMigrationFiles()
	if err != nil || len(ms) == 0 {
		return 0, err
	}
	return ms[len(ms)-1].Version, nil
}

// ApplyMigrations brings the schema to the latest version, one transaction
// per file, and returns how many files were applied. logFn may be nil.
func (r *Runner) ApplyMigrations(ctx context.Context, logFn func(string)) (int, error) {
	logf := func(format string, args ...any) {
		if logFn != nil {
			logFn(fmt.Sprintf(format, args...))
		}
	}

	current, err := r.GetCurrentVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	all, err := r.ReadMigrationFiles()
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations: %w", err)
	}
	if len(all) == 0 {
		logf("No migration files found")
		return 0, nil
	}

	latest := all[len(all)-1].Version
	if current > latest {
		return 0, newerSchemaError(current, latest)
	}
	pending := slices.DeleteFunc(all, func(m Migration) bool { return m.Version <= current })
	if len(pending) == 0 {
		logf("Database schema is up to date (version %d)", current)
		return 0, nil
	}

	logf("Migrating schema from version %d to %d (%d migration(s))", current, latest, len(pending))
	start := time.Now()
	for i, m := range pending {
		logf("  Applying migration %d: %s", m.Version, m.Name)
		if err := r.apply(ctx, m); err != nil {
			return i, err
		}
	}
	logf("Applied %d migration(s) in %v", len(pending), time.Since(start).Round(time.Millisecond))
	return len(pending), nil
}

func (r *Runner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to clear version in migration %d: %w", m.Version, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES ("+r.ph(1)+")", m.Version); err != nil {
		return fmt.Errorf("failed to set version in migration %d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}

// ValidateVersion fails unless the database is exactly at the latest version
func (r *Runner) ValidateVersion(ctx context.Context) error {
	current, err := r.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}
	latest, err := r.GetLatestVersion()
	if err != nil {
		return err
	}
	switch {
	case current > latest:
		return newerSchemaError(current, latest)
	case current < latest:
		return fmt.Errorf("database schema version (%d) is older than required (%d), run 'habitkeeper migrate'", current, latest)
	}
	return nil
}

func newerSchemaError(current, latest int) error {
	return fmt.Errorf("database schema version (%d) is newer than supported version (%d), please upgrade habitkeeper", current, latest)
}
