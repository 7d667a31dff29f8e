// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists build state and element metadata in SQLite.
// The builder uses it to skip unchanged models in incremental mode; the
// catalog commands use it to search elements across every published model.
//
// Ranked full-text search needs go-sqlite3 built with the sqlite_fts5 tag.
// Without it the catalog falls back to substring matching.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ifc-pages/pkg/types"
)

// DefaultPath is the catalog location used when none is configured.
const DefaultPath = ".ifc-pages/catalog.db"

// Store manages the catalog database.
type Store struct {
	db         *sql.DB
	path       string
	maxResults int
	fts        bool
}

// Open opens or creates the catalog database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.CatalogConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	// Builder workers share the store; one connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, path: path, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// FullText reports whether ranked FTS5 search is available.
func (s *Store) FullText() bool { return s.fts }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS models (
			slug TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			source_path TEXT,
			sha256 TEXT,
			schema_id TEXT,
			updated TEXT,
			status TEXT NOT NULL,
			element_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS elements (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			guid TEXT NOT NULL,
			model_slug TEXT NOT NULL REFERENCES models(slug) ON DELETE CASCADE,
			type TEXT NOT NULL,
			name TEXT,
			tag TEXT,
			storey TEXT,
			psets TEXT,
			UNIQUE(model_slug, guid)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_elements_model ON elements(model_slug)`,
		`CREATE INDEX IF NOT EXISTS idx_elements_type ON elements(type)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	if _, err := s.db.Exec(`CREATE VIRTUAL TABLE temp.fts_check USING fts5(x)`); err != nil {
		if !strings.Contains(err.Error(), "no such module") {
			return fmt.Errorf("probing FTS5: %w", err)
		}
		if s.hasTable("elements_fts") {
			return fmt.Errorf("%s was created with FTS5: build with -tags sqlite_fts5 or remove it", s.path)
		}
		return nil
	}
	s.db.Exec(`DROP TABLE temp.fts_check`)

	// FTS5 virtual table with triggers for sync.
	if !s.hasTable("elements_fts") {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE elements_fts USING fts5(name, type, tag, storey, psets, content=elements, content_rowid=rowid)`,
			`CREATE TRIGGER elements_ai AFTER INSERT ON elements BEGIN
				INSERT INTO elements_fts(rowid, name, type, tag, storey, psets)
				VALUES (new.rowid, new.name, new.type, new.tag, new.storey, new.psets);
			END`,
			`CREATE TRIGGER elements_ad AFTER DELETE ON elements BEGIN
				INSERT INTO elements_fts(elements_fts, rowid, name, type, tag, storey, psets)
				VALUES ('delete', old.rowid, old.name, old.type, old.tag, old.storey, old.psets);
			END`,
			`CREATE TRIGGER elements_au AFTER UPDATE ON elements BEGIN
				INSERT INTO elements_fts(elements_fts, rowid, name, type, tag, storey, psets)
				VALUES ('delete', old.rowid, old.name, old.type, old.tag, old.storey, old.psets);
				INSERT INTO elements_fts(rowid, name, type, tag, storey, psets)
				VALUES (new.rowid, new.name, new.type, new.tag, new.storey, new.psets);
			END`,
			// Index rows written by a build without FTS5.
			`INSERT INTO elements_fts(elements_fts) VALUES ('rebuild')`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	s.fts = true
	return nil
}

func (s *Store) hasTable(name string) bool {
	var n int
	err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name,
	).Scan(&n)
	return err == nil && n > 0
}

// RecordModel upserts the model row and replaces its elements with md.
// A failed build is recorded without a digest so the next incremental
// build retries it.
func (s *Store) RecordModel(ctx context.Context, m types.Model, md types.Metadata) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	digest := m.SHA256
	if m.Status == types.StatusFailed {
		digest = ""
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO models (slug, name, source_path, sha256, schema_id, updated, status, element_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
			name=excluded.name, source_path=excluded.source_path, sha256=excluded.sha256,
			schema_id=excluded.schema_id, updated=excluded.updated, status=excluded.status,
			element_count=excluded.element_count`,
		m.Slug, m.Name, m.SourcePath, digest, m.Schema,
		m.Updated.UTC().Format(time.RFC3339), string(m.Status), len(md),
	)
	if err != nil {
		return fmt.Errorf("upserting model %s: %w", m.Slug, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE model_slug = ?`, m.Slug); err != nil {
		return fmt.Errorf("deleting old elements: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO elements (guid, model_slug, type, name, tag, storey, psets)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	guids := make([]string, 0, len(md))
	for guid := range md {
		guids = append(guids, guid)
	}
	sort.Strings(guids)

	for _, guid := range guids {
		el := md[guid]
		psetsJSON, err := json.Marshal(el.Psets)
		if err != nil {
			return fmt.Errorf("encoding psets of %s: %w", guid, err)
		}
		if _, err := stmt.ExecContext(ctx,
			guid, m.Slug, el.Type, nullable(el.Name), nullable(el.Tag), nullable(el.Storey), string(psetsJSON),
		); err != nil {
			return fmt.Errorf("inserting element %s: %w", guid, err)
		}
	}

	return tx.Commit()
}

// ModelHash returns the input digest recorded for the last successful
// build of slug. The boolean is false when there is none.
func (s *Store) ModelHash(ctx context.Context, slug string) (string, bool, error) {
	var digest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT sha256 FROM models WHERE slug = ? AND status != ?`, slug, string(types.StatusFailed),
	).Scan(&digest)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up %s: %w", slug, err)
	}
	if !digest.Valid || digest.String == "" {
		return "", false, nil
	}
	return digest.String, true, nil
}

// Model returns the record for slug, or nil when it is not cataloged.
func (s *Store) Model(ctx context.Context, slug string) (*types.Model, error) {
	rows, err := s.db.QueryContext(ctx, modelSelect+` WHERE slug = ?`, slug)
	if err != nil {
		return nil, fmt.Errorf("querying model %s: %w", slug, err)
	}
	models, err := scanModels(rows)
	if err != nil || len(models) == 0 {
		return nil, err
	}
	return &models[0], nil
}

// Models returns every cataloged model ordered by slug.
func (s *Store) Models(ctx context.Context) ([]types.Model, error) {
	rows, err := s.db.QueryContext(ctx, modelSelect+` ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	return scanModels(rows)
}

// RemoveModel deletes slug and its elements.
func (s *Store) RemoveModel(ctx context.Context, slug string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("removing %s: %w", slug, err)
	}
	return nil
}

const modelSelect = `SELECT slug, name, source_path, sha256, schema_id, updated, status, element_count FROM models`

func scanModels(rows *sql.Rows) ([]types.Model, error) {
	defer rows.Close()

	var models []types.Model
	for rows.Next() {
		var (
			m                           types.Model
			source, digest, schema, upd sql.NullString
			status                      string
		)
		if err := rows.Scan(&m.Slug, &m.Name, &source, &digest, &schema, &upd, &status, &m.ElementCount); err != nil {
			return nil, fmt.Errorf("scanning model: %w", err)
		}
		m.SourcePath = source.String
		m.SHA256 = digest.String
		m.Schema = schema.String
		m.Status = types.BuildStatus(status)
		if upd.Valid {
			m.Updated, _ = time.Parse(time.RFC3339, upd.String)
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
