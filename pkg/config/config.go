// Package config loads and validates the decision core's process-wide and
// per-group configuration: YAML file, then SAQSHY_-prefixed environment
// variables, then struct-tag validation.
package config

import (
	"fmt"
	"time"
)

// ProcessConfig is environment/file-level configuration: connection info
// for the shared KV, the messaging platform, the LLM adjudicator, the spam
// database, logging, circuit breakers, and pipeline timeouts.
type ProcessConfig struct {
	KV        KVConfig        `yaml:"kv" koanf:"kv"`
	Messaging MessagingConfig `yaml:"messaging" koanf:"messaging"`
	LLM       LLMConfig       `yaml:"llm" koanf:"llm"`
	SpamDB    SpamDBConfig    `yaml:"spam_db" koanf:"spam_db"`
	Log       LogConfig       `yaml:"log" koanf:"log"`
	Breaker   BreakerConfig   `yaml:"breaker" koanf:"breaker"`
	Timeouts  TimeoutConfig   `yaml:"timeouts" koanf:"timeouts"`
}

// KVConfig points at the shared key-value store and bounds its connection
// pool: one bounded pool per process.
type KVConfig struct {
	URL               string `yaml:"url" koanf:"url" validate:"required"`
	MaxConnections    int    `yaml:"max_connections" koanf:"max_connections" validate:"gte=1"`
	Overflow          int    `yaml:"overflow" koanf:"overflow" validate:"gte=0"`
	AcquireTimeout    string `yaml:"acquire_timeout" koanf:"acquire_timeout"`
	NamespacePrefix   string `yaml:"namespace_prefix" koanf:"namespace_prefix"`
}

// MessagingConfig holds the platform bot token used by the MessagingClient
// adapter, threaded
// through so cmd/saqshy can wire a real adapter.
type MessagingConfig struct {
	Token string `yaml:"token" koanf:"token"`
}

// LLMConfig configures the gray-zone adjudicator adapter.
type LLMConfig struct {
	Provider string `yaml:"provider" koanf:"provider" validate:"omitempty,oneof=openai bedrock"`
	Endpoint string `yaml:"endpoint" koanf:"endpoint"`
	APIKey   string `yaml:"api_key" koanf:"api_key"`
	Model    string `yaml:"model" koanf:"model"`
	Region   string `yaml:"region" koanf:"region"`
}

// SpamDBConfig configures the embedding-based spam-lookup adapter.
type SpamDBConfig struct {
	Endpoint string `yaml:"endpoint" koanf:"endpoint"`
}

// LogConfig configures pkg/logging.Configure.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" koanf:"format" validate:"omitempty,oneof=json text"`
}

// BreakerConfig sets the defaults every pkg/breaker circuit breaker is
// constructed with: N consecutive failures open a breaker for T.
type BreakerConfig struct {
	FailureThreshold int    `yaml:"failure_threshold" koanf:"failure_threshold" validate:"gte=1"`
	OpenTimeout      string `yaml:"open_timeout" koanf:"open_timeout"`
}

// TimeoutConfig holds the pipeline's soft/hard deadlines.
type TimeoutConfig struct {
	AnalyzerSoftDeadline string `yaml:"analyzer_soft_deadline" koanf:"analyzer_soft_deadline"`
	PipelineHardDeadline string `yaml:"pipeline_hard_deadline" koanf:"pipeline_hard_deadline"`
	LLMTimeout           string `yaml:"llm_timeout" koanf:"llm_timeout"`
	OutboundCallTimeout  string `yaml:"outbound_call_timeout" koanf:"outbound_call_timeout"`
}

// Defaults returns a ProcessConfig populated with the documented
// defaults, to be overridden by file/env layers.
func Defaults() ProcessConfig {
	return ProcessConfig{
		KV: KVConfig{
			MaxConnections:  10,
			Overflow:        20,
			AcquireTimeout:  "30s",
			NamespacePrefix: "saqshy:",
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			OpenTimeout:      "30s",
		},
		Timeouts: TimeoutConfig{
			AnalyzerSoftDeadline: "500ms",
			PipelineHardDeadline: "5s",
			LLMTimeout:           "10s",
			OutboundCallTimeout:  "30s",
		},
	}
}

// Validate checks struct-tag constraints plus cross-field invariants that
// validator tags cannot express (duration parsing). Configuration errors
// must fail fast at construction, never at request time.
func (c *ProcessConfig) Validate() error {
	durations := map[string]string{
		"kv.acquire_timeout":           c.KV.AcquireTimeout,
		"breaker.open_timeout":         c.Breaker.OpenTimeout,
		"timeouts.analyzer_soft_deadline": c.Timeouts.AnalyzerSoftDeadline,
		"timeouts.pipeline_hard_deadline": c.Timeouts.PipelineHardDeadline,
		"timeouts.llm_timeout":          c.Timeouts.LLMTimeout,
		"timeouts.outbound_call_timeout": c.Timeouts.OutboundCallTimeout,
	}
	for field, raw := range durations {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("config: invalid duration %s=%q: %w", field, raw, err)
		}
	}
	return nil
}

// Duration parses a config duration string, returning fallback when raw is
// empty or malformed (Validate rejects malformed values up front).
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// GroupConfig is the per-group-overridable option set.
type GroupConfig struct {
	GroupType            string   `yaml:"group_type" koanf:"group_type" validate:"omitempty,oneof=general tech deals crypto"`
	Sensitivity          int      `yaml:"sensitivity" koanf:"sensitivity" validate:"gte=1,lte=10"`
	SandboxEnabled       bool     `yaml:"sandbox_enabled" koanf:"sandbox_enabled"`
	SandboxDurationHours int      `yaml:"sandbox_duration_hours" koanf:"sandbox_duration_hours" validate:"gte=1"`
	LinkedChannelID      int64    `yaml:"linked_channel_id" koanf:"linked_channel_id"`
	LinkWhitelist        []string `yaml:"link_whitelist" koanf:"link_whitelist"`
	Language             string   `yaml:"language" koanf:"language"`
}

// DefaultGroupConfig returns the per-group defaults.
func DefaultGroupConfig() GroupConfig {
	return GroupConfig{
		GroupType:            "general",
		Sensitivity:          5,
		SandboxEnabled:       true,
		SandboxDurationHours: 24,
		Language:             "ru",
	}
}

// Validate checks cross-field invariants beyond the struct tags.
func (g *GroupConfig) Validate() error {
	if g.Sensitivity < 1 || g.Sensitivity > 10 {
		return fmt.Errorf("config: group sensitivity must be in [1,10], got %d", g.Sensitivity)
	}
	if g.SandboxDurationHours < 1 {
		return fmt.Errorf("config: group sandbox_duration_hours must be positive, got %d", g.SandboxDurationHours)
	}
	return nil
}

// Merge overlays non-zero fields of other onto a copy of g, used to apply a
// named group preset over the package defaults. SandboxEnabled is the
// exception: it is always taken from other, since an unset bool cannot be
// told apart from an explicit false.
func (g GroupConfig) Merge(other GroupConfig) GroupConfig {
	out := g
	if other.GroupType != "" {
		out.GroupType = other.GroupType
	}
	if other.Sensitivity != 0 {
		out.Sensitivity = other.Sensitivity
	}
	out.SandboxEnabled = other.SandboxEnabled
	if other.SandboxDurationHours != 0 {
		out.SandboxDurationHours = other.SandboxDurationHours
	}
	if other.LinkedChannelID != 0 {
		out.LinkedChannelID = other.LinkedChannelID
	}
	if len(other.LinkWhitelist) > 0 {
		out.LinkWhitelist = other.LinkWhitelist
	}
	if other.Language != "" {
		out.Language = other.Language
	}
	return out
}
