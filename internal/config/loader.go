package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/nornweave/nornweave/internal/domain"
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/nornweave")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")

	// Redis
	cfg.Redis.Host = v.GetString("redis_host")
	cfg.Redis.Port = v.GetInt("redis_port")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")

	// Rate limiting
	cfg.RateLimit.Enabled = v.GetBool("rate_limit_enabled")
	cfg.RateLimit.RequestsPerMinute = v.GetInt("rate_limit_requests_per_minute")

	// Worker
	cfg.Worker.Concurrency = v.GetInt("worker_concurrency")
	cfg.Worker.QueueDefault = v.GetString("worker_queue_default")
	cfg.Worker.QueueLow = v.GetString("worker_queue_low")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Classifier
	cfg.Classifier.Backend = v.GetString("classifier_backend")
	cfg.Classifier.BudgetMs = v.GetInt("classifier_budget_ms")
	cfg.Classifier.Endpoint = v.GetString("classifier_endpoint")
	cfg.Classifier.APIKey = v.GetString("classifier_api_key")

	// Router
	cfg.Router.PrimaryThreshold = v.GetFloat64("router_primary_threshold")
	cfg.Router.SecondaryThreshold = v.GetFloat64("router_secondary_threshold")
	cfg.Router.MaxDomains = v.GetInt("router_max_domains")
	cfg.Router.PerTargetTimeoutMs = v.GetInt("router_per_target_timeout_ms")
	cfg.Router.QueryTimeoutMs = v.GetInt("router_query_timeout_ms")
	cfg.Router.DefaultTopK = v.GetInt("router_default_top_k")
	cfg.Router.MaxQueryChars = v.GetInt("router_max_query_chars")
	cfg.Router.RewriteTokenBudget = v.GetInt("router_rewrite_token_budget")

	// Fusion
	cfg.Fusion.DedupThreshold = v.GetFloat64("fusion_dedup_threshold")
	cfg.Fusion.DefaultStrategy = v.GetString("fusion_default_strategy")
	cfg.Fusion.TieWindowHours = v.GetInt("fusion_tie_window_hours")
	cfg.Fusion.DemotionPenalty = v.GetFloat64("fusion_demotion_penalty")
	cfg.Fusion.UnrelatedFloor = v.GetFloat64("fusion_unrelated_floor")
	cfg.Fusion.RecencyDecayDays = v.GetFloat64("fusion_recency_decay_days")
	cfg.Fusion.Weights.Normalized = v.GetFloat64("fusion_weight_normalized")
	cfg.Fusion.Weights.Corroboration = v.GetFloat64("fusion_weight_corroboration")
	cfg.Fusion.Weights.Recency = v.GetFloat64("fusion_weight_recency")
	cfg.Fusion.Weights.DomainRelevance = v.GetFloat64("fusion_weight_domain_relevance")
	cfg.Fusion.Weights.Length = v.GetFloat64("fusion_weight_length")

	// Synthesis
	cfg.Synthesis.Enabled = v.GetBool("synthesis_enabled")
	cfg.Synthesis.Endpoint = v.GetString("synthesis_endpoint")
	cfg.Synthesis.APIKey = v.GetString("synthesis_api_key")
	cfg.Synthesis.TimeoutMs = v.GetInt("synthesis_timeout_ms")
	cfg.Synthesis.TopN = v.GetInt("synthesis_top_n")
	cfg.Synthesis.MaxChars = v.GetInt("synthesis_max_chars")

	// Registry
	cfg.Registry.TTLSeconds = v.GetInt("registry_ttl_seconds")
	cfg.Registry.RefreshIntervalSeconds = v.GetInt("registry_refresh_interval_seconds")
	cfg.Registry.KeyPrefix = v.GetString("registry_key_prefix")

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_env", "development")

	// Redis defaults
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// Rate limiting defaults
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_requests_per_minute", 300)

	// Worker defaults
	v.SetDefault("worker_concurrency", 10)
	v.SetDefault("worker_queue_default", "default")
	v.SetDefault("worker_queue_low", "low")

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Classifier defaults
	v.SetDefault("classifier_backend", "keyword")
	v.SetDefault("classifier_budget_ms", 2000)
	v.SetDefault("classifier_endpoint", "")

	// Router defaults
	v.SetDefault("router_primary_threshold", 0.6)
	v.SetDefault("router_secondary_threshold", 0.3)
	v.SetDefault("router_max_domains", 4)
	v.SetDefault("router_per_target_timeout_ms", 5000)
	v.SetDefault("router_query_timeout_ms", 30000)
	v.SetDefault("router_default_top_k", 20)
	v.SetDefault("router_max_query_chars", 4096)
	v.SetDefault("router_rewrite_token_budget", 128)

	// Fusion defaults
	v.SetDefault("fusion_dedup_threshold", 0.85)
	v.SetDefault("fusion_default_strategy", "RECENCY")
	v.SetDefault("fusion_tie_window_hours", 24)
	v.SetDefault("fusion_demotion_penalty", 0.3)
	v.SetDefault("fusion_unrelated_floor", 0.25)
	v.SetDefault("fusion_recency_decay_days", 90)
	v.SetDefault("fusion_weight_normalized", 0.50)
	v.SetDefault("fusion_weight_corroboration", 0.15)
	v.SetDefault("fusion_weight_recency", 0.15)
	v.SetDefault("fusion_weight_domain_relevance", 0.10)
	v.SetDefault("fusion_weight_length", 0.10)

	// Synthesis defaults
	v.SetDefault("synthesis_enabled", false)
	v.SetDefault("synthesis_endpoint", "")
	v.SetDefault("synthesis_timeout_ms", 10000)
	v.SetDefault("synthesis_top_n", 10)
	v.SetDefault("synthesis_max_chars", 4000)

	// Registry defaults
	v.SetDefault("registry_ttl_seconds", 90)
	v.SetDefault("registry_refresh_interval_seconds", 15)
	v.SetDefault("registry_key_prefix", "nornweave:agents:")
}

func validate(cfg *Config) error {
	if sum := cfg.Fusion.Weights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("fusion ranking weights must sum to 1.0, got %.6f", sum)
	}
	if cfg.Router.PrimaryThreshold < 0 || cfg.Router.PrimaryThreshold > 1 {
		return fmt.Errorf("router primary threshold must be in [0,1], got %f", cfg.Router.PrimaryThreshold)
	}
	if cfg.Router.SecondaryThreshold < 0 || cfg.Router.SecondaryThreshold > 1 {
		return fmt.Errorf("router secondary threshold must be in [0,1], got %f", cfg.Router.SecondaryThreshold)
	}
	if cfg.Router.SecondaryThreshold > cfg.Router.PrimaryThreshold {
		return fmt.Errorf("router secondary threshold (%f) must not exceed primary threshold (%f)",
			cfg.Router.SecondaryThreshold, cfg.Router.PrimaryThreshold)
	}
	if cfg.Router.MaxDomains <= 0 {
		return fmt.Errorf("router max domains must be positive, got %d", cfg.Router.MaxDomains)
	}
	if cfg.Fusion.DedupThreshold <= 0 || cfg.Fusion.DedupThreshold > 1 {
		return fmt.Errorf("fusion dedup threshold must be in (0,1], got %f", cfg.Fusion.DedupThreshold)
	}
	if cfg.Fusion.DemotionPenalty < 0 || cfg.Fusion.DemotionPenalty >= 1 {
		return fmt.Errorf("fusion demotion penalty must be in [0,1), got %f", cfg.Fusion.DemotionPenalty)
	}
	if !domain.ConflictStrategy(cfg.Fusion.DefaultStrategy).IsValid() {
		return fmt.Errorf("unknown default conflict strategy %q", cfg.Fusion.DefaultStrategy)
	}
	switch cfg.Classifier.Backend {
	case "keyword", "http":
	default:
		return fmt.Errorf("unknown classifier backend %q", cfg.Classifier.Backend)
	}
	if cfg.Classifier.Backend == "http" && cfg.Classifier.Endpoint == "" {
		return fmt.Errorf("classifier endpoint is required for the http backend")
	}
	if cfg.Synthesis.Enabled && cfg.Synthesis.Endpoint == "" {
		return fmt.Errorf("synthesis endpoint is required when synthesis is enabled")
	}
	return nil
}
