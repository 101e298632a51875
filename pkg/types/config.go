package types

import "time"

// HTTPConfig holds shared HTTP settings used by adapters that make network requests.
type HTTPConfig struct {
	// Timeout is the transport-level HTTP client timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "tablescout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ProviderConfig holds settings for one provider adapter.
type ProviderConfig struct {
	// Enabled controls whether the adapter is registered at all.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// APIKey authenticates against the provider. An empty key makes the
	// adapter fail as misconfigured rather than being silently skipped.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (tests, proxies).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Model selects the generative model for rich providers.
	Model string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`

	// Timeout bounds a single Fetch call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// RequestsPerSecond throttles outgoing calls (0 disables throttling).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// GoogleCSEConfig adds the search engine id required by Google Custom Search.
type GoogleCSEConfig struct {
	ProviderConfig `yaml:",inline" mapstructure:",squash"`

	// EngineID is the programmable search engine identifier ("cx").
	EngineID string `json:"engine_id,omitempty" yaml:"engine_id,omitempty" mapstructure:"engine_id"`

	// ImagesPerResult is how many images are attached to each lookup hit.
	ImagesPerResult int `json:"images_per_result" yaml:"images_per_result" mapstructure:"images_per_result"`

	// ImageWorkers sizes the worker pool used for per-hit image searches.
	ImageWorkers int `json:"image_workers" yaml:"image_workers" mapstructure:"image_workers"`
}

// ProvidersConfig groups the configuration of every known adapter.
type ProvidersConfig struct {
	GoogleCSE  GoogleCSEConfig `json:"google_cse" yaml:"google_cse" mapstructure:"google_cse"`
	OpenAI     ProviderConfig  `json:"openai" yaml:"openai" mapstructure:"openai"`
	Gemini     ProviderConfig  `json:"gemini" yaml:"gemini" mapstructure:"gemini"`
	Foursquare ProviderConfig  `json:"foursquare" yaml:"foursquare" mapstructure:"foursquare"`
}

// SearchConfig holds settings for the lookup and enrichment pipelines.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// ResultLimit is the default bound on returned records (default 5).
	ResultLimit int `json:"result_limit" yaml:"result_limit" mapstructure:"result_limit"`

	// LookupDeadline bounds the whole lookup fan-out (default 4s).
	LookupDeadline time.Duration `json:"lookup_deadline" yaml:"lookup_deadline" mapstructure:"lookup_deadline"`

	// EnrichDeadline bounds the whole enrichment fan-out (default 15s).
	EnrichDeadline time.Duration `json:"enrich_deadline" yaml:"enrich_deadline" mapstructure:"enrich_deadline"`

	// HardFailureStatuses lists HTTP statuses treated as
	// configuration/authorization failures (default 401, 403, 404).
	HardFailureStatuses []int `json:"hard_failure_statuses,omitempty" yaml:"hard_failure_statuses,omitempty" mapstructure:"hard_failure_statuses"`

	// SoftFailureStatuses lists HTTP statuses always treated as transient,
	// even when also listed as hard (default 408, 429).
	SoftFailureStatuses []int `json:"soft_failure_statuses,omitempty" yaml:"soft_failure_statuses,omitempty" mapstructure:"soft_failure_statuses"`

	// ValidateImages drops image URLs that are not direct image links.
	ValidateImages bool `json:"validate_images" yaml:"validate_images" mapstructure:"validate_images"`

	// BackfillImages fetches images for enriched records that have none.
	BackfillImages bool `json:"backfill_images" yaml:"backfill_images" mapstructure:"backfill_images"`
}

// WatchlistConfig holds settings for the saved-restaurant store.
type WatchlistConfig struct {
	// DataDir is the directory holding the SQLite database.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// AppConfig groups all configuration sections.
type AppConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Providers ProvidersConfig `json:"providers" yaml:"providers" mapstructure:"providers"`
	Watchlist WatchlistConfig `json:"watchlist" yaml:"watchlist" mapstructure:"watchlist"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
}
