// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads provider credentials from a directory of plain-text
// files. Each file holds one secret: the filename is the key name and the
// trimmed contents are the value.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/tablescout/pkg/types"
)

// Key file names understood by Apply.
const (
	OpenAIKey         = "openai-api-key"
	GeminiKey         = "gemini-api-key"
	FoursquareKey     = "foursquare-api-key"
	GoogleCSEKey      = "google-cse-api-key"
	GoogleCSEEngineID = "google-cse-engine-id"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("could not read secret", "name", name, "err", err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Apply copies credentials from s into cfg. Values already set in cfg (from
// the config file or environment) take precedence.
func Apply(cfg *types.ProvidersConfig, s map[string]string) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = s[key]
		}
	}
	fill(&cfg.OpenAI.APIKey, OpenAIKey)
	fill(&cfg.Gemini.APIKey, GeminiKey)
	fill(&cfg.Foursquare.APIKey, FoursquareKey)
	fill(&cfg.GoogleCSE.APIKey, GoogleCSEKey)
	fill(&cfg.GoogleCSE.EngineID, GoogleCSEEngineID)
}
