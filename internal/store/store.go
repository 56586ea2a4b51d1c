// Package store keeps scripts and the results of their runs in a SQL
// database. SQLite, MySQL and PostgreSQL are supported.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"hsl/internal/object"
)

var (
	ErrNotFound          = errors.New("script not found")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

type Script struct {
	Name      string
	Source    string
	UpdatedAt time.Time
}

// Result is one stored entry of a run's results map, rendered as text.
type Result struct {
	ID        string
	RunID     string
	Script    string
	Name      string
	Kind      string
	Value     string
	CreatedAt time.Time
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
	now     func() time.Time
}

// Open connects to the database and creates the tables when missing.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", d.driver, err)
	}
	if d.maxOpenConn > 0 {
		db.SetMaxOpenConns(d.maxOpenConn)
	}

	s := &Store{db: db, dialect: d, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug("store opened", slog.String("driver", d.driver))
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// SaveScript stores source under name, replacing any previous version.
func (s *Store) SaveScript(ctx context.Context, name, source string) error {
	query := s.dialect.rebind("INSERT INTO scripts (name, source, updated_at) VALUES (?, ?, ?) " + s.dialect.upsertTail)
	if _, err := s.db.ExecContext(ctx, query, name, source, s.timestamp()); err != nil {
		return fmt.Errorf("saving script %s: %w", name, err)
	}
	s.logger.Debug("script saved", slog.String("script", name), slog.Int("bytes", len(source)))
	return nil
}

func (s *Store) LoadScript(ctx context.Context, name string) (Script, error) {
	query := s.dialect.rebind("SELECT name, source, updated_at FROM scripts WHERE name = ?")
	row := s.db.QueryRowContext(ctx, query, name)

	var script Script
	var updated any
	err := row.Scan(&script.Name, &script.Source, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Script{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Script{}, fmt.Errorf("loading script %s: %w", name, err)
	}
	script.UpdatedAt = parseTime(updated)
	return script, nil
}

// ListScripts returns every stored script ordered by name, without sources.
func (s *Store) ListScripts(ctx context.Context) ([]Script, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, updated_at FROM scripts ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing scripts: %w", err)
	}
	defer rows.Close()

	var scripts []Script
	for rows.Next() {
		var script Script
		var updated any
		if err := rows.Scan(&script.Name, &updated); err != nil {
			return nil, fmt.Errorf("listing scripts: %w", err)
		}
		script.UpdatedAt = parseTime(updated)
		scripts = append(scripts, script)
	}
	return scripts, rows.Err()
}

// SaveResults stores every entry of a run's results map in one transaction.
func (s *Store) SaveResults(ctx context.Context, runID, script string, results map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving results of %s: %w", runID, err)
	}
	defer tx.Rollback()

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	query := s.dialect.rebind("INSERT INTO results (id, run_id, script, name, kind, value, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	created := s.timestamp()
	for _, name := range names {
		v := results[name]
		_, err := tx.ExecContext(ctx, query,
			uuid.New().String(), runID, script, name, object.TypeName(v), object.Inspect(v), created)
		if err != nil {
			return fmt.Errorf("saving result %s of %s: %w", name, runID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving results of %s: %w", runID, err)
	}
	s.logger.Debug("results saved", slog.String("run", runID), slog.Int("count", len(names)))
	return nil
}

// LoadResults returns the stored results of a run ordered by name.
func (s *Store) LoadResults(ctx context.Context, runID string) ([]Result, error) {
	query := s.dialect.rebind("SELECT id, run_id, script, name, kind, value, created_at FROM results WHERE run_id = ? ORDER BY name")
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("loading results of %s: %w", runID, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var value, created any
		if err := rows.Scan(&r.ID, &r.RunID, &r.Script, &r.Name, &r.Kind, &value, &created); err != nil {
			return nil, fmt.Errorf("loading results of %s: %w", runID, err)
		}
		r.Value = text(value)
		r.CreatedAt = parseTime(created)
		results = append(results, r)
	}
	return results, rows.Err()
}

// text maps what the drivers return for a TEXT column onto a string.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func parseTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(text(v)))
	if err != nil {
		return time.Time{}
	}
	return t
}
