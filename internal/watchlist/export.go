// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes every saved restaurant of the user to w as YAML, oldest
// first.
func (s *Store) ExportYAML(ctx context.Context, userID string, w io.Writer) error {
	entries, err := s.List(ctx, userID, ListOptions{Asc: true})
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes every saved restaurant of the user to w as indented
// JSON, oldest first.
func (s *Store) ExportJSON(ctx context.Context, userID string, w io.Writer) error {
	entries, err := s.List(ctx, userID, ListOptions{Asc: true})
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// ExportFile writes the user's export next to the database as
// export-<user>.yaml or export-<user>.json and returns its path.
func (s *Store) ExportFile(ctx context.Context, userID, format string) (string, error) {
	export := s.ExportYAML
	switch format {
	case "yaml", "":
		format = "yaml"
	case "json":
		export = s.ExportJSON
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}

	path := filepath.Join(s.dir, "export-"+filepath.Base(userID)+"."+format)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	if err := export(ctx, userID, f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
