// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tablescout/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OpenAIKey, "  sk-abc123  \n")
				writeFile(t, dir, FoursquareKey, "fsq_xyz789")
				writeFile(t, dir, GoogleCSEEngineID, "cx-001\n")
				return dir
			},
			want: map[string]string{
				OpenAIKey:         "sk-abc123",
				FoursquareKey:     "fsq_xyz789",
				GoogleCSEEngineID: "cx-001",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, GeminiKey, "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{GeminiKey: "valid-key"},
		},
		{
			name: "skips dotfiles and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
				writeFile(t, dir, GoogleCSEKey, "AIza-real")
				return dir
			},
			want: map[string]string{GoogleCSEKey: "AIza-real"},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadNotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plain", "x")

	_, err := Load(filepath.Join(dir, "plain"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading secrets directory")
}

func TestApply(t *testing.T) {
	var cfg types.ProvidersConfig
	cfg.OpenAI.APIKey = "from-config"

	Apply(&cfg, map[string]string{
		OpenAIKey:         "from-file",
		GeminiKey:         "gem",
		FoursquareKey:     "fsq",
		GoogleCSEKey:      "cse",
		GoogleCSEEngineID: "cx",
	})

	assert.Equal(t, "from-config", cfg.OpenAI.APIKey, "configured values win")
	assert.Equal(t, "gem", cfg.Gemini.APIKey)
	assert.Equal(t, "fsq", cfg.Foursquare.APIKey)
	assert.Equal(t, "cse", cfg.GoogleCSE.APIKey)
	assert.Equal(t, "cx", cfg.GoogleCSE.EngineID)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
