// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RegistryConfig holds the connection settings for the Elements registry API.
// It is passed explicitly to the registry client; nothing reads it from
// package-level state.
type RegistryConfig struct {
	// Endpoint is the API base URL (e.g. "https://elements.example.edu:8091/secure-api/v5.5").
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Username and Password are the HTTP Basic Auth credential pair.
	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Password string `json:"-" yaml:"-" mapstructure:"password"`

	// ProxyURL routes every request through a fixed proxy when set.
	ProxyURL string `json:"proxy_url,omitempty" yaml:"proxy_url,omitempty" mapstructure:"proxy"`

	// Timeout bounds each individual HTTP call (default 5s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxAttempts caps the total attempts for a transient failure (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// BackoffBase is the first backoff delay; it doubles after every attempt.
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base" mapstructure:"backoff_base"`

	// RateLimit is the steady-state request rate in requests per second.
	// Zero disables the limiter.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// RateBurst is the limiter bucket size (default 1).
	RateBurst int `json:"rate_burst" yaml:"rate_burst" mapstructure:"rate_burst"`

	// MaxPages stops the pager after this many pages (default 500).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// UserAgent is sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig holds settings for the local SQLite store.
type StoreConfig struct {
	// Path is the database file (default "data/elements-sync.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ImportConfig holds settings for the author import.
type ImportConfig struct {
	// Concurrency is the number of authors imported in parallel (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MinYear excludes feed entries published before this year (default 2009).
	MinYear int `json:"min_year" yaml:"min_year" mapstructure:"min_year"`

	// AuthorSalt salts the hash of institutional author IDs.
	AuthorSalt string `json:"-" yaml:"-" mapstructure:"author_salt"`
}

// OutboundConfig holds settings for status updates pushed to the registry.
type OutboundConfig struct {
	// MaxRetries caps the retries chained after the first attempt (default 4).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// BackoffBase is the delay before the first retry; it doubles after
	// every retry (default 2s).
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base" mapstructure:"backoff_base"`

	// Concurrency bounds parallel replays in the resend sweep (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// SyncConfig groups all settings for the synchronization subsystem.
type SyncConfig struct {
	Registry RegistryConfig `json:"registry" yaml:"registry" mapstructure:"registry"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Import   ImportConfig   `json:"import" yaml:"import" mapstructure:"import"`
	Outbound OutboundConfig `json:"outbound" yaml:"outbound" mapstructure:"outbound"`
}
