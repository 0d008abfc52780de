// Package config loads the causality engine's tunables (spec §6) from
// defaults and an optional YAML file, using koanf
// the way the teacher loads its integrations file.
package config

import "time"

// Config holds every tunable enumerated in spec.md §6. All fields have
// working defaults; nothing is required to construct an Engine.
type Config struct {
	CorrelationWindowMs  int64   `koanf:"correlation_window_ms"`
	ConfidenceThreshold  float64 `koanf:"confidence_threshold"`
	AnomalyThreshold     float64 `koanf:"anomaly_threshold"`
	MaxChainDepth        int     `koanf:"max_chain_depth"`
	RetentionWindowMs    int64   `koanf:"retention_window_ms"`
	NodeHighWater        int     `koanf:"node_high_water"`
	ActiveChainsCap      int     `koanf:"active_chains_cap"`
	PatternCap           int     `koanf:"pattern_cap"`
	QueryCacheTTLMs      int64   `koanf:"query_cache_ttl_ms"`
	QueryCacheCap        int     `koanf:"query_cache_cap"`
	QueryDefaultTimeoutMs int64  `koanf:"query_default_timeout_ms"`

	// ExpectedIntervalMs maps "service_id.event_type" to the expected
	// inter-arrival time (ms) used by the temporal-interval anomaly
	// scorer (§4.F). Missing keys fall back to DefaultExpectedIntervalMs.
	ExpectedIntervalMs        map[string]int64 `koanf:"expected_interval_ms"`
	DefaultExpectedIntervalMs int64            `koanf:"default_expected_interval_ms"`
}

// Default returns the configuration with every spec §6 default applied.
func Default() Config {
	return Config{
		CorrelationWindowMs:       5000,
		ConfidenceThreshold:       0.7,
		AnomalyThreshold:          0.9,
		MaxChainDepth:             100,
		RetentionWindowMs:         3_600_000,
		NodeHighWater:             100_000,
		ActiveChainsCap:           1024,
		PatternCap:                10_000,
		QueryCacheTTLMs:           60_000,
		QueryCacheCap:             4096,
		QueryDefaultTimeoutMs:     5000,
		ExpectedIntervalMs:        map[string]int64{},
		DefaultExpectedIntervalMs: 1000,
	}
}

// ExpectedInterval returns the configured inter-arrival expectation for a
// (service, event_type) pair, falling back to the global default.
func (c Config) ExpectedInterval(serviceID, eventType string) time.Duration {
	key := serviceID + "." + eventType
	if ms, ok := c.ExpectedIntervalMs[key]; ok {
		return time.Duration(ms) * time.Millisecond
	}
	return time.Duration(c.DefaultExpectedIntervalMs) * time.Millisecond
}

// Validate rejects out-of-range values.
func (c Config) Validate() error {
	switch {
	case c.CorrelationWindowMs <= 0:
		return newConfigError("correlation_window_ms must be positive")
	case c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1:
		return newConfigError("confidence_threshold must be in (0, 1]")
	case c.AnomalyThreshold <= 0 || c.AnomalyThreshold > 1:
		return newConfigError("anomaly_threshold must be in (0, 1]")
	case c.MaxChainDepth <= 0:
		return newConfigError("max_chain_depth must be positive")
	case c.RetentionWindowMs <= 0:
		return newConfigError("retention_window_ms must be positive")
	case c.NodeHighWater <= 0:
		return newConfigError("node_high_water must be positive")
	case c.ActiveChainsCap <= 0:
		return newConfigError("active_chains_cap must be positive")
	case c.PatternCap <= 0:
		return newConfigError("pattern_cap must be positive")
	case c.QueryCacheTTLMs <= 0:
		return newConfigError("query_cache_ttl_ms must be positive")
	case c.QueryCacheCap <= 0:
		return newConfigError("query_cache_cap must be positive")
	case c.QueryDefaultTimeoutMs <= 0:
		return newConfigError("query_default_timeout_ms must be positive")
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	message string
}

func newConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

func (e *ConfigError) Error() string {
	return e.message
}
