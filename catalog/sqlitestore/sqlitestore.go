// Package sqlitestore is a catalog.Store backed by a SQLite file (pure Go driver).
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/skosovsky/fnguard"
	"github.com/skosovsky/fnguard/catalog"
)

// Store keeps profiles and tools as JSON bodies keyed by name, plus a
// tool_profiles association table that cascades on delete.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: pragmas are per connection and :memory: is per connection too.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			name TEXT PRIMARY KEY,
			body TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tools (
			name TEXT PRIMARY KEY,
			body TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tool_profiles (
			tool    TEXT NOT NULL REFERENCES tools(name) ON DELETE CASCADE,
			profile TEXT NOT NULL REFERENCES profiles(name) ON DELETE CASCADE,
			PRIMARY KEY (tool, profile)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tool_profiles_profile ON tool_profiles(profile)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) GetProfile(ctx context.Context, name string) (*fnguard.Profile, error) {
	var p fnguard.Profile
	if err := s.getBody(ctx, `SELECT body FROM profiles WHERE name = ?`, name, &p); err != nil {
		return nil, notFound(err, "profile", name)
	}
	return &p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]fnguard.Profile, error) {
	return listBodies[fnguard.Profile](ctx, s.db, `SELECT body FROM profiles ORDER BY name`)
}

func (s *Store) UpsertProfile(ctx context.Context, p fnguard.Profile) error {
	p.Tools = nil
	return s.upsert(ctx, `INSERT INTO profiles (name, body) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body`, p.Name, p)
}

func (s *Store) DeleteProfile(ctx context.Context, name string) error {
	return s.deleteRow(ctx, `DELETE FROM profiles WHERE name = ?`, "profile", name)
}

func (s *Store) GetTool(ctx context.Context, name string) (*fnguard.Tool, error) {
	var t fnguard.Tool
	if err := s.getBody(ctx, `SELECT body FROM tools WHERE name = ?`, name, &t); err != nil {
		return nil, notFound(err, "tool", name)
	}
	return &t, nil
}

func (s *Store) ListTools(ctx context.Context) ([]fnguard.Tool, error) {
	return listBodies[fnguard.Tool](ctx, s.db, `SELECT body FROM tools ORDER BY name`)
}

func (s *Store) UpsertTool(ctx context.Context, t fnguard.Tool) error {
	return s.upsert(ctx, `INSERT INTO tools (name, body) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body`, t.Function.Name, t)
}

func (s *Store) DeleteTool(ctx context.Context, name string) error {
	return s.deleteRow(ctx, `DELETE FROM tools WHERE name = ?`, "tool", name)
}

func (s *Store) AddAssociations(ctx context.Context, tool string, profiles []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin associate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := exists(ctx, tx, `SELECT 1 FROM tools WHERE name = ?`, "tool", tool); err != nil {
		return err
	}
	for _, p := range profiles {
		if err := exists(ctx, tx, `SELECT 1 FROM profiles WHERE name = ?`, "profile", p); err != nil {
			return err
		}
	}
	for _, p := range profiles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tool_profiles (tool, profile) VALUES (?, ?) ON CONFLICT DO NOTHING`, tool, p); err != nil {
			return fmt.Errorf("associate %q with %q: %w", tool, p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit associate: %w", err)
	}
	return nil
}

func (s *Store) RemoveAssociations(ctx context.Context, tool string, profiles []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin dissociate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := exists(ctx, tx, `SELECT 1 FROM tools WHERE name = ?`, "tool", tool); err != nil {
		return err
	}
	for _, p := range profiles {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM tool_profiles WHERE tool = ? AND profile = ?`, tool, p); err != nil {
			return fmt.Errorf("dissociate %q from %q: %w", tool, p, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dissociate: %w", err)
	}
	return nil
}

func (s *Store) ToolProfiles(ctx context.Context, tool string) ([]string, error) {
	if err := exists(ctx, s.db, `SELECT 1 FROM tools WHERE name = ?`, "tool", tool); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT profile FROM tool_profiles WHERE tool = ? ORDER BY profile`, tool)
	if err != nil {
		return nil, fmt.Errorf("query tool profiles: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan tool profiles: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tool profiles: %w", err)
	}
	return out, nil
}

func (s *Store) ProfileTools(ctx context.Context, profile string) ([]fnguard.Tool, error) {
	if err := exists(ctx, s.db, `SELECT 1 FROM profiles WHERE name = ?`, "profile", profile); err != nil {
		return nil, err
	}
	return listBodies[fnguard.Tool](ctx, s.db, `
		SELECT t.body FROM tools t
		JOIN tool_profiles tp ON tp.tool = t.name
		WHERE tp.profile = ?
		ORDER BY t.name`, profile)
}

func (s *Store) getBody(ctx context.Context, query, name string, v any) error {
	var body string
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&body); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("decode %q: %w", name, err)
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, query, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", name, err)
	}
	if _, err := s.db.ExecContext(ctx, query, name, string(body)); err != nil {
		return fmt.Errorf("upsert %q: %w", name, err)
	}
	return nil
}

func (s *Store) deleteRow(ctx context.Context, query, kind, name string) error {
	res, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", kind, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", kind, name, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, name, catalog.ErrNotFound)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q queryer, query, kind, name string) error {
	var one int
	if err := q.QueryRowContext(ctx, query, name).Scan(&one); err != nil {
		return notFound(err, kind, name)
	}
	return nil
}

func listBodies[T any](ctx context.Context, q queryer, query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var v T
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}

// notFound maps sql.ErrNoRows to catalog.ErrNotFound and leaves other errors alone.
func notFound(err error, kind, name string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", kind, name, catalog.ErrNotFound)
	}
	return fmt.Errorf("%s %q: %w", kind, name, err)
}

var _ catalog.Store = (*Store)(nil)
