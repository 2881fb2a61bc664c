package config

import (
	"fmt"
	"net/url"
	"regexp"
)

var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9\-_.]*$`)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := validateHTTPURL("upstream.endpoint", cfg.Upstream.Endpoint); err != nil {
		return err
	}
	if err := validateHTTPURL("upstream.site_url", cfg.Upstream.SiteURL); err != nil {
		return err
	}
	if cfg.Upstream.RequestTimeout <= 0 {
		return fmt.Errorf("upstream.request_timeout must be > 0")
	}
	if cfg.Upstream.MaxBodySize <= 0 {
		return fmt.Errorf("upstream.max_body_size must be > 0")
	}
	for op := range DefaultOperations() {
		if cfg.Upstream.Hash(op) == "" {
			return fmt.Errorf("upstream.operations.%s must have a persisted query hash", op)
		}
	}

	if cfg.Crawl.Delay < 0 || cfg.Crawl.LaunchDelay < 0 {
		return fmt.Errorf("crawl.delay and crawl.launch_delay must be >= 0")
	}
	if cfg.Crawl.PageSize < 1 {
		return fmt.Errorf("crawl.page_size must be >= 1, got %d", cfg.Crawl.PageSize)
	}
	if cfg.Crawl.ReplyPageSize < 1 {
		return fmt.Errorf("crawl.reply_page_size must be >= 1, got %d", cfg.Crawl.ReplyPageSize)
	}
	if cfg.Crawl.MaxReplyAttempts < 1 {
		return fmt.Errorf("crawl.max_reply_attempts must be >= 1, got %d", cfg.Crawl.MaxReplyAttempts)
	}
	for name, limit := range map[string]int{
		"reviews_limit":  cfg.Crawl.ReviewsLimit,
		"threads_limit":  cfg.Crawl.ThreadsLimit,
		"comments_limit": cfg.Crawl.CommentsLimit,
		"launches_limit": cfg.Crawl.LaunchesLimit,
	} {
		if limit < 0 {
			return fmt.Errorf("crawl.%s must be >= 0 (0 = unlimited), got %d", name, limit)
		}
	}

	if cfg.Enrich.Enabled {
		validProviders := map[string]bool{
			"gemini": true, "openai": true, "ollama": true, "regex": true,
		}
		if !validProviders[cfg.Enrich.Provider] {
			return fmt.Errorf("enrich.provider must be gemini/openai/ollama/regex, got %q", cfg.Enrich.Provider)
		}
		if cfg.Enrich.BatchSize < 1 {
			return fmt.Errorf("enrich.batch_size must be >= 1, got %d", cfg.Enrich.BatchSize)
		}
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongodb": true, "postgres": true,
	}
	if len(cfg.Storage.Types) == 0 {
		return fmt.Errorf("storage.types must list at least one backend")
	}
	for _, t := range cfg.Storage.Types {
		if !validStorageTypes[t] {
			return fmt.Errorf("storage type %q is not supported (valid: json, jsonl, csv, mongodb, postgres)", t)
		}
		if t == "mongodb" && cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for the mongodb backend")
		}
		if t == "postgres" && cfg.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateSlug checks that a product identifier is usable in upstream variables and paths.
func ValidateSlug(slug string) error {
	if !slugRe.MatchString(slug) {
		return fmt.Errorf("invalid product slug %q", slug)
	}
	return nil
}

func validateHTTPURL(field, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s: invalid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: URL scheme must be http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: URL must have a host", field)
	}
	return nil
}
