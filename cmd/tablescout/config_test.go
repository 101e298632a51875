package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tablescout/internal/secrets"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("TABLESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	loadedSecrets = nil
	cfg, err := loadConfig(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Search.ResultLimit)
	assert.Equal(t, defaultUserAgent, cfg.Search.UserAgent)
	assert.Equal(t, 4*time.Second, cfg.Search.LookupDeadline)
	assert.True(t, cfg.Search.ValidateImages)
	assert.True(t, cfg.Providers.Foursquare.Enabled)
	assert.Equal(t, 12*time.Second, cfg.Providers.OpenAI.Timeout)
	assert.Equal(t, 2, cfg.Providers.GoogleCSE.ImagesPerResult)
	assert.Equal(t, defaultDataDir, cfg.Watchlist.DataDir)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadConfigFileEnvAndSecrets(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "tablescout.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
search:
  result_limit: 8
  enrich_deadline: 20s
providers:
  gemini:
    enabled: false
  google_cse:
    engine_id: from-file
    image_workers: 2
`), 0o644))

	secretsDir := filepath.Join(dir, ".secrets")
	require.NoError(t, os.MkdirAll(secretsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, secrets.OpenAIKey), []byte("sk-secret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(secretsDir, secrets.GoogleCSEEngineID), []byte("from-secret"), 0o600))

	t.Setenv("TABLESCOUT_PROVIDERS_FOURSQUARE_API_KEY", "fsq-env")

	s, err := secrets.Load(secretsDir)
	require.NoError(t, err)
	loadedSecrets = s
	t.Cleanup(func() { loadedSecrets = nil })

	v := newViper(t)
	v.SetConfigFile(cfgFile)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Search.ResultLimit)
	assert.Equal(t, 20*time.Second, cfg.Search.EnrichDeadline)
	assert.False(t, cfg.Providers.Gemini.Enabled)
	assert.Equal(t, 2, cfg.Providers.GoogleCSE.ImageWorkers)
	assert.Equal(t, "fsq-env", cfg.Providers.Foursquare.APIKey)
	assert.Equal(t, "sk-secret", cfg.Providers.OpenAI.APIKey)
	assert.Equal(t, "from-file", cfg.Providers.GoogleCSE.EngineID, "explicit config wins over secrets")
}

func TestBuildAggregatorRegistersEnabledAdapters(t *testing.T) {
	loadedSecrets = nil
	v := newViper(t)
	v.Set("providers.openai.enabled", false)

	cfg, err := loadConfig(v)
	require.NoError(t, err)

	agg, cleanup, err := buildAggregator(cfg)
	require.NoError(t, err)
	defer cleanup()

	var ids []string
	for _, s := range agg.Policy().Snapshot() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"google_cse", "foursquare", "gemini"}, ids)
}

func TestBuildAggregatorNothingEnabled(t *testing.T) {
	loadedSecrets = nil
	v := newViper(t)
	for _, name := range []string{"google_cse", "openai", "gemini", "foursquare"} {
		v.Set("providers."+name+".enabled", false)
	}
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	_, _, err = buildAggregator(cfg)
	assert.Error(t, err)
}
