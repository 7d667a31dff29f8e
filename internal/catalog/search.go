// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/ifc-pages/internal/ifc"
	"github.com/pdiddy/ifc-pages/pkg/types"
)

// SearchOptions holds parameters for element queries.
type SearchOptions struct {
	// Query is the FTS5 full-text search string over name, type, tag,
	// storey, and property values.
	Query string

	// Model restricts results to one model slug.
	Model string

	// Type filters by IFC entity, including subtypes (e.g. "IfcWall"
	// also matches IfcWallStandardCase).
	Type string

	// Storey filters by containing storey name.
	Storey string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q SearchOptions) IsEmpty() bool {
	return q.Query == "" && q.Model == "" && q.Type == "" && q.Storey == ""
}

// ElementResult is one element with the model it belongs to.
type ElementResult struct {
	GUID  string `json:"guid" yaml:"guid"`
	Model string `json:"model" yaml:"model"`

	types.Element `yaml:",inline"`
}

// Search queries elements with optional full-text search and filters.
// Full-text results are ranked by relevance; filter-only results (and
// substring matches when FTS5 is unavailable) are ordered by model, type,
// and GUID.
func (s *Store) Search(ctx context.Context, opts SearchOptions) ([]ElementResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		match  = ftsQuery(opts.Query)
		useFTS = match != "" && s.fts
	)

	if useFTS {
		qb.WriteString(
			`SELECT e.guid, e.model_slug, e.type, e.name, e.tag, e.storey, e.psets
			FROM elements_fts
			JOIN elements e ON e.rowid = elements_fts.rowid
			WHERE elements_fts MATCH ?`)
		args = append(args, match)
	} else {
		qb.WriteString(
			`SELECT e.guid, e.model_slug, e.type, e.name, e.tag, e.storey, e.psets
			FROM elements e
			WHERE 1=1`)
		for _, term := range queryTerms(opts.Query) {
			qb.WriteString(` AND (e.name LIKE ? ESCAPE '\' OR e.type LIKE ? ESCAPE '\' OR e.tag LIKE ? ESCAPE '\'` +
				` OR e.storey LIKE ? ESCAPE '\' OR e.psets LIKE ? ESCAPE '\')`)
			like := likePattern(term)
			args = append(args, like, like, like, like, like)
		}
	}

	if opts.Model != "" {
		qb.WriteString(` AND e.model_slug = ?`)
		args = append(args, opts.Model)
	}

	if opts.Type != "" {
		names := ifc.Subtypes(opts.Type)
		qb.WriteString(` AND e.type IN (?` + strings.Repeat(`, ?`, len(names)-1) + `)`)
		for _, n := range names {
			args = append(args, n)
		}
	}

	if opts.Storey != "" {
		qb.WriteString(` AND e.storey = ?`)
		args = append(args, opts.Storey)
	}

	if useFTS {
		qb.WriteString(` ORDER BY elements_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.model_slug, e.type, e.guid`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []ElementResult
	for rows.Next() {
		var (
			r                       ElementResult
			name, tag, storey, pset sql.NullString
		)
		if err := rows.Scan(&r.GUID, &r.Model, &r.Type, &name, &tag, &storey, &pset); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.Name = stringPtr(name)
		r.Tag = stringPtr(tag)
		r.Storey = stringPtr(storey)
		if pset.Valid && pset.String != "" {
			if err := json.Unmarshal([]byte(pset.String), &r.Psets); err != nil {
				return nil, fmt.Errorf("decoding psets of %s: %w", r.GUID, err)
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// TypeCounts returns how many cataloged elements each IFC type has,
// optionally limited to one model.
func (s *Store) TypeCounts(ctx context.Context, model string) (map[string]int, error) {
	q := `SELECT type, count(*) FROM elements`
	var args []any
	if model != "" {
		q += ` WHERE model_slug = ?`
		args = append(args, model)
	}
	q += ` GROUP BY type`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("counting types: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out[typ] = n
	}
	return out, rows.Err()
}

// queryTerms splits a query on whitespace and drops the double quotes
// users put around tags like "W-01".
func queryTerms(q string) []string {
	var terms []string
	for _, f := range strings.Fields(q) {
		if t := strings.Trim(f, `"`); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// ftsQuery turns each term into an FTS5 string so hyphens, dots and
// keywords such as NOT are matched as text instead of query syntax.
// Terms are ANDed.
func ftsQuery(q string) string {
	terms := queryTerms(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches term anywhere, with LIKE wildcards in term taken
// literally.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
