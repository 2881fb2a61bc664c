package config

import (
	"strings"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Operation names understood by the upstream GraphQL endpoint.
const (
	OpProductReviews  = "ProductReviewsPage"
	OpForumThreads    = "ProductForumThreads"
	OpThreadComments  = "DiscussionThreadComments"
	OpCommentReplies  = "CommentReplies"
	OpProductLaunches = "ProductLaunches"
	OpLaunchPage      = "PostPage"
	OpLaunchComments  = "PostPageComments"
	OpProductDetails  = "ProductPage"
	OpProductMakers   = "ProductMakers"
)

// Config is the root configuration for HuntGoat.
type Config struct {
	Upstream UpstreamConfig `mapstructure:"upstream" yaml:"upstream"`
	Crawl    CrawlConfig    `mapstructure:"crawl"    yaml:"crawl"`
	Enrich   EnrichConfig   `mapstructure:"enrich"   yaml:"enrich"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// UpstreamConfig describes the GraphQL endpoint and its persisted queries.
type UpstreamConfig struct {
	Endpoint       string            `mapstructure:"endpoint"        yaml:"endpoint"`
	SiteURL        string            `mapstructure:"site_url"        yaml:"site_url"`
	UserAgent      string            `mapstructure:"user_agent"      yaml:"user_agent"`
	RequestTimeout time.Duration     `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxBodySize    int64             `mapstructure:"max_body_size"   yaml:"max_body_size"`
	Operations     map[string]string `mapstructure:"operations"      yaml:"operations"`
}

// Hash returns the persisted-query hash for an operation. Keys are matched
// case-insensitively because viper lowercases map keys.
func (u UpstreamConfig) Hash(op string) string {
	if h, ok := u.Operations[strings.ToLower(op)]; ok {
		return h
	}
	return u.Operations[op]
}

// CrawlConfig controls pagination limits and throttling.
type CrawlConfig struct {
	Delay            time.Duration `mapstructure:"delay"              yaml:"delay"`
	LaunchDelay      time.Duration `mapstructure:"launch_delay"       yaml:"launch_delay"`
	PageSize         int           `mapstructure:"page_size"          yaml:"page_size"`
	ReplyPageSize    int           `mapstructure:"reply_page_size"    yaml:"reply_page_size"`
	MaxReplyAttempts int           `mapstructure:"max_reply_attempts" yaml:"max_reply_attempts"`
	ReviewsLimit     int           `mapstructure:"reviews_limit"      yaml:"reviews_limit"`
	ThreadsLimit     int           `mapstructure:"threads_limit"      yaml:"threads_limit"`
	CommentsLimit    int           `mapstructure:"comments_limit"     yaml:"comments_limit"`
	LaunchesLimit    int           `mapstructure:"launches_limit"     yaml:"launches_limit"`
	ReviewOrder      string        `mapstructure:"review_order"       yaml:"review_order"`
	CommentOrder     string        `mapstructure:"comment_order"      yaml:"comment_order"`
}

// EnrichConfig controls the review enrichment pass.
type EnrichConfig struct {
	Enabled     bool    `mapstructure:"enabled"     yaml:"enabled"`
	Provider    string  `mapstructure:"provider"    yaml:"provider"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	Endpoint    string  `mapstructure:"endpoint"    yaml:"endpoint"`
	APIKey      string  `mapstructure:"api_key"     yaml:"api_key"`
	BatchSize   int     `mapstructure:"batch_size"  yaml:"batch_size"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	Built       bool    `mapstructure:"built"       yaml:"built"`
	Sentiment   bool    `mapstructure:"sentiment"   yaml:"sentiment"`
}

// StorageConfig controls output backends.
type StorageConfig struct {
	Types         []string `mapstructure:"types"          yaml:"types"`
	OutputPath    string   `mapstructure:"output_path"    yaml:"output_path"`
	MongoURI      string   `mapstructure:"mongo_uri"      yaml:"mongo_uri"`
	MongoDatabase string   `mapstructure:"mongo_database" yaml:"mongo_database"`
	PostgresDSN   string   `mapstructure:"postgres_dsn"   yaml:"postgres_dsn"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultOperations returns the persisted-query hashes the crawler was last
// verified against. They change whenever upstream redeploys its web client;
// override them under upstream.operations.
func DefaultOperations() map[string]string {
	return map[string]string{
		OpProductReviews:  "e6b1c9e0a2f64f7e9d3f0b7c4d2a1e8f5b3c6d9e0f1a2b3c4d5e6f7a8b9c0d1e",
		OpForumThreads:    "4c2f6a8b0d1e3f5a7b9c1d3e5f7a9b1c3d5e7f9a1b3c5d7e9f1a3b5c7d9e1f3a",
		OpThreadComments:  "9a8b7c6d5e4f3a2b1c0d9e8f7a6b5c4d3e2f1a0b9c8d7e6f5a4b3c2d1e0f9a8b",
		OpCommentReplies:  "1f2e3d4c5b6a79880f1e2d3c4b5a69788f9e0d1c2b3a49586f7e8d9c0b1a2f3e",
		OpProductLaunches: "7d6c5b4a3f2e1d0c9b8a7f6e5d4c3b2a1f0e9d8c7b6a5f4e3d2c1b0a9f8e7d6c",
		OpLaunchPage:      "3b4a5f6e7d8c9b0a1f2e3d4c5b6a7f8e9d0c1b2a3f4e5d6c7b8a9f0e1d2c3b4a",
		OpLaunchComments:  "5e4d3c2b1a0f9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2f1e0d9c8b7a6f5e4d",
		OpProductDetails:  "8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f0a1b2c3d4e5f6a7b8c9d",
		OpProductMakers:   "2a1b0c9d8e7f6a5b4c3d2e1f0a9b8c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3f2a1b",
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			Endpoint:       "https://www.producthunt.com/frontend/graphql",
			SiteURL:        "https://www.producthunt.com",
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			Operations:     DefaultOperations(),
		},
		Crawl: CrawlConfig{
			Delay:            1 * time.Second,
			LaunchDelay:      2 * time.Second,
			PageSize:         10,
			ReplyPageSize:    10,
			MaxReplyAttempts: 5,
			ReviewOrder:      "BEST",
			CommentOrder:     "VOTES",
		},
		Enrich: EnrichConfig{
			Enabled:     false,
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			BatchSize:   10,
			Temperature: 0.2,
			Built:       true,
			Sentiment:   true,
		},
		Storage: StorageConfig{
			Types:         []string{"json"},
			OutputPath:    "./output",
			MongoDatabase: "huntgoat",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
