package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller afterwards.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("HUNTGOAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("huntgoat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".huntgoat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Operations missing from a partial override keep their defaults.
	if cfg.Upstream.Operations == nil {
		cfg.Upstream.Operations = make(map[string]string)
	}
	for op, hash := range DefaultOperations() {
		if cfg.Upstream.Hash(op) == "" {
			cfg.Upstream.Operations[op] = hash
		}
	}

	if cfg.Enrich.APIKey == "" {
		cfg.Enrich.APIKey = ProviderKeyFromEnv(cfg.Enrich.Provider)
	}

	return cfg, nil
}

// ProviderKeyFromEnv returns the conventional API key variable for a provider.
func ProviderKeyFromEnv(provider string) string {
	switch provider {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("upstream.endpoint", cfg.Upstream.Endpoint)
	v.SetDefault("upstream.site_url", cfg.Upstream.SiteURL)
	v.SetDefault("upstream.user_agent", cfg.Upstream.UserAgent)
	v.SetDefault("upstream.request_timeout", cfg.Upstream.RequestTimeout)
	v.SetDefault("upstream.max_body_size", cfg.Upstream.MaxBodySize)
	v.SetDefault("upstream.operations", cfg.Upstream.Operations)

	v.SetDefault("crawl.delay", cfg.Crawl.Delay)
	v.SetDefault("crawl.launch_delay", cfg.Crawl.LaunchDelay)
	v.SetDefault("crawl.page_size", cfg.Crawl.PageSize)
	v.SetDefault("crawl.reply_page_size", cfg.Crawl.ReplyPageSize)
	v.SetDefault("crawl.max_reply_attempts", cfg.Crawl.MaxReplyAttempts)
	v.SetDefault("crawl.reviews_limit", cfg.Crawl.ReviewsLimit)
	v.SetDefault("crawl.threads_limit", cfg.Crawl.ThreadsLimit)
	v.SetDefault("crawl.comments_limit", cfg.Crawl.CommentsLimit)
	v.SetDefault("crawl.launches_limit", cfg.Crawl.LaunchesLimit)
	v.SetDefault("crawl.review_order", cfg.Crawl.ReviewOrder)
	v.SetDefault("crawl.comment_order", cfg.Crawl.CommentOrder)

	v.SetDefault("enrich.enabled", cfg.Enrich.Enabled)
	v.SetDefault("enrich.provider", cfg.Enrich.Provider)
	v.SetDefault("enrich.model", cfg.Enrich.Model)
	v.SetDefault("enrich.endpoint", cfg.Enrich.Endpoint)
	v.SetDefault("enrich.api_key", cfg.Enrich.APIKey)
	v.SetDefault("enrich.batch_size", cfg.Enrich.BatchSize)
	v.SetDefault("enrich.temperature", cfg.Enrich.Temperature)
	v.SetDefault("enrich.built", cfg.Enrich.Built)
	v.SetDefault("enrich.sentiment", cfg.Enrich.Sentiment)

	v.SetDefault("storage.types", cfg.Storage.Types)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.postgres_dsn", cfg.Storage.PostgresDSN)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
