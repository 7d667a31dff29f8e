// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ifc-pages/pkg/types"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	Models   []types.Model   `json:"models" yaml:"models"`
	Elements []ElementResult `json:"elements" yaml:"elements"`
}

const exportLimit = 1000000

// ExportYAML writes the catalog to path, or to export.yaml next to the
// database when path is empty. It supports the same filters as Search and
// returns the path written.
func (s *Store) ExportYAML(ctx context.Context, path string, opts SearchOptions) (string, error) {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return s.writeExport(path, "export.yaml", data)
}

// ExportJSON writes the catalog to path, or to export.json next to the
// database when path is empty. It supports the same filters as Search and
// returns the path written.
func (s *Store) ExportJSON(ctx context.Context, path string, opts SearchOptions) (string, error) {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return s.writeExport(path, "export.json", data)
}

func (s *Store) writeExport(path, name string, data []byte) (string, error) {
	if path == "" {
		path = filepath.Join(filepath.Dir(s.path), name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) export(ctx context.Context, opts SearchOptions) (*Export, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	elements, err := s.Search(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	models, err := s.Models(ctx)
	if err != nil {
		return nil, err
	}
	if opts.Model != "" {
		var kept []types.Model
		for _, m := range models {
			if m.Slug == opts.Model {
				kept = append(kept, m)
			}
		}
		models = kept
	}

	return &Export{Models: models, Elements: elements}, nil
}
