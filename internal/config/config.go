package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Worker     WorkerConfig
	Log        LogConfig
	Classifier ClassifierConfig
	Router     RouterConfig
	Fusion     FusionConfig
	Synthesis  SynthesisConfig
	Registry   RegistryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the host:port address for redis clients
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Concurrency  int    `mapstructure:"concurrency"`
	QueueDefault string `mapstructure:"queue_default"`
	QueueLow     string `mapstructure:"queue_low"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClassifierConfig holds classification backend configuration.
// The backend is selected once at process start, not swappable mid-process.
type ClassifierConfig struct {
	Backend  string `mapstructure:"backend"` // keyword | http
	BudgetMs int    `mapstructure:"budget_ms"`
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

// Budget returns the classification time budget
func (c ClassifierConfig) Budget() time.Duration {
	return time.Duration(c.BudgetMs) * time.Millisecond
}

// RouterConfig holds target selection and fan-out configuration
type RouterConfig struct {
	PrimaryThreshold   float64 `mapstructure:"primary_threshold"`
	SecondaryThreshold float64 `mapstructure:"secondary_threshold"`
	MaxDomains         int     `mapstructure:"max_domains"`
	PerTargetTimeoutMs int     `mapstructure:"per_target_timeout_ms"`
	QueryTimeoutMs     int     `mapstructure:"query_timeout_ms"`
	DefaultTopK        int     `mapstructure:"default_top_k"`
	MaxQueryChars      int     `mapstructure:"max_query_chars"`
	RewriteTokenBudget int     `mapstructure:"rewrite_token_budget"`
}

// PerTargetTimeout returns the per-target recall deadline
func (c RouterConfig) PerTargetTimeout() time.Duration {
	return time.Duration(c.PerTargetTimeoutMs) * time.Millisecond
}

// QueryTimeout returns the overall query deadline
func (c RouterConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMs) * time.Millisecond
}

// RankWeights holds the composite ranking weights. They must sum to 1.0;
// a violating configuration is rejected at startup, never normalized.
type RankWeights struct {
	Normalized      float64 `mapstructure:"normalized"`
	Corroboration   float64 `mapstructure:"corroboration"`
	Recency         float64 `mapstructure:"recency"`
	DomainRelevance float64 `mapstructure:"domain_relevance"`
	Length          float64 `mapstructure:"length"`
}

// Sum returns the total of all weights
func (w RankWeights) Sum() float64 {
	return w.Normalized + w.Corroboration + w.Recency + w.DomainRelevance + w.Length
}

// FusionConfig holds fusion pipeline configuration
type FusionConfig struct {
	DedupThreshold   float64     `mapstructure:"dedup_threshold"`
	DefaultStrategy  string      `mapstructure:"default_strategy"`
	TieWindowHours   int         `mapstructure:"tie_window_hours"`
	DemotionPenalty  float64     `mapstructure:"demotion_penalty"`
	UnrelatedFloor   float64     `mapstructure:"unrelated_floor"`
	RecencyDecayDays float64     `mapstructure:"recency_decay_days"`
	Weights          RankWeights `mapstructure:"weights"`
}

// TieWindow returns the recency tie window for RECENCY_THEN_FLAG
func (c FusionConfig) TieWindow() time.Duration {
	return time.Duration(c.TieWindowHours) * time.Hour
}

// SynthesisConfig holds narrative synthesis configuration
type SynthesisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	APIKey    string `mapstructure:"api_key"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
	TopN      int    `mapstructure:"top_n"`
	MaxChars  int    `mapstructure:"max_chars"`
}

// Timeout returns the synthesis call timeout
func (c SynthesisConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// RegistryConfig holds agent registry cache configuration
type RegistryConfig struct {
	TTLSeconds             int    `mapstructure:"ttl_seconds"`
	RefreshIntervalSeconds int    `mapstructure:"refresh_interval_seconds"`
	KeyPrefix              string `mapstructure:"key_prefix"`
}

// TTL returns the registration time-to-live
func (c RegistryConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// RefreshInterval returns the snapshot refresh period
func (c RegistryConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}
