package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/tablescout/internal/search"
	"github.com/pdiddy/tablescout/internal/secrets"
	"github.com/pdiddy/tablescout/internal/server"
	"github.com/pdiddy/tablescout/pkg/types"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "tablescout/0.1"
	defaultDataDir   = "data"
)

// setDefaults registers every config key so that environment variables
// (TABLESCOUT_PROVIDERS_OPENAI_API_KEY, ...) are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.timeout", defaultTimeout)
	v.SetDefault("search.user_agent", defaultUserAgent)
	v.SetDefault("search.result_limit", types.DefaultResultLimit)
	v.SetDefault("search.lookup_deadline", search.DefaultLookupDeadline)
	v.SetDefault("search.enrich_deadline", search.DefaultEnrichDeadline)
	v.SetDefault("search.hard_failure_statuses", []int{})
	v.SetDefault("search.soft_failure_statuses", []int{})
	v.SetDefault("search.validate_images", true)
	v.SetDefault("search.backfill_images", true)

	provider := func(name string, timeout time.Duration, rps float64) {
		v.SetDefault("providers."+name+".enabled", true)
		v.SetDefault("providers."+name+".api_key", "")
		v.SetDefault("providers."+name+".base_url", "")
		v.SetDefault("providers."+name+".model", "")
		v.SetDefault("providers."+name+".timeout", timeout)
		v.SetDefault("providers."+name+".requests_per_second", rps)
	}
	provider("google_cse", search.DefaultLightweightTimeout, 5)
	provider("openai", search.DefaultRichTimeout, 2)
	provider("gemini", search.DefaultRichTimeout, 2)
	provider("foursquare", search.DefaultStructuredTimeout, 5)
	v.SetDefault("providers.google_cse.engine_id", "")
	v.SetDefault("providers.google_cse.images_per_result", 2)
	v.SetDefault("providers.google_cse.image_workers", 4)

	v.SetDefault("watchlist.data_dir", defaultDataDir)

	v.SetDefault("server.addr", server.DefaultAddr)
	v.SetDefault("server.read_timeout", server.DefaultReadTimeout)
	v.SetDefault("server.write_timeout", server.DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", server.DefaultShutdownTimeout)
}

// loadConfig decodes the merged configuration and fills missing API keys
// from the secrets directory.
func loadConfig(v *viper.Viper) (types.AppConfig, error) {
	var cfg types.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	secrets.Apply(&cfg.Providers, loadedSecrets)
	return cfg, nil
}
