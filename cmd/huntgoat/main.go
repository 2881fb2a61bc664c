package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/HuntGoat/internal/config"
)

var (
	cfgFile       string
	verbose       bool
	outputPath    string
	outputTypes   string
	delay         string
	launchDelay   string
	reviewsLimit  int
	threadsLimit  int
	commentsLimit int
	launchesLimit int
	enrichFlag    bool
	provider      string
	slugFile      string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "huntgoat",
		Short: "HuntGoat crawls Product Hunt products into normalized records",
		Long: `HuntGoat collects reviews, forum threads, launches, product details and
makers for Product Hunt products through the site's GraphQL endpoint,
expands nested replies, optionally enriches reviews with an LLM, and
writes the results to files or a database.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(crawlCmd())
	root.AddCommand(crawlAllCmd())
	root.AddCommand(versionCmd())
	root.AddCommand(configCmd())
	return root
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "HuntGoat %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			printConfig(cmd, cfg)
			return nil
		},
	}
}

func printConfig(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Upstream:\n")
	fmt.Fprintf(out, "  Endpoint:          %s\n", cfg.Upstream.Endpoint)
	fmt.Fprintf(out, "  Site URL:          %s\n", cfg.Upstream.SiteURL)
	fmt.Fprintf(out, "  Request Timeout:   %s\n", cfg.Upstream.RequestTimeout)
	fmt.Fprintf(out, "  Operations:        %d configured\n", len(cfg.Upstream.Operations))
	fmt.Fprintf(out, "\nCrawl:\n")
	fmt.Fprintf(out, "  Delay:             %s\n", cfg.Crawl.Delay)
	fmt.Fprintf(out, "  Launch Delay:      %s\n", cfg.Crawl.LaunchDelay)
	fmt.Fprintf(out, "  Page Size:         %d\n", cfg.Crawl.PageSize)
	fmt.Fprintf(out, "  Reply Attempts:    %d\n", cfg.Crawl.MaxReplyAttempts)
	fmt.Fprintf(out, "  Limits:            reviews=%d threads=%d comments=%d launches=%d\n",
		cfg.Crawl.ReviewsLimit, cfg.Crawl.ThreadsLimit, cfg.Crawl.CommentsLimit, cfg.Crawl.LaunchesLimit)
	fmt.Fprintf(out, "\nEnrich:\n")
	fmt.Fprintf(out, "  Enabled:           %v\n", cfg.Enrich.Enabled)
	fmt.Fprintf(out, "  Provider:          %s\n", cfg.Enrich.Provider)
	fmt.Fprintf(out, "  Model:             %s\n", cfg.Enrich.Model)
	fmt.Fprintf(out, "  API Key:           %s\n", mask(cfg.Enrich.APIKey))
	fmt.Fprintf(out, "  Batch Size:        %d\n", cfg.Enrich.BatchSize)
	fmt.Fprintf(out, "\nStorage:\n")
	fmt.Fprintf(out, "  Types:             %s\n", strings.Join(cfg.Storage.Types, ", "))
	fmt.Fprintf(out, "  Output Path:       %s\n", cfg.Storage.OutputPath)
	fmt.Fprintf(out, "\nMetrics:\n")
	fmt.Fprintf(out, "  Enabled:           %v\n", cfg.Metrics.Enabled)
	fmt.Fprintf(out, "  Port:              %d\n", cfg.Metrics.Port)
}

func mask(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return "********"
}

// setupLogger builds the process logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// addCrawlFlags registers the overrides shared by crawl and crawl-all.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&outputTypes, "format", "f", "", "comma-separated backends: json, jsonl, csv, mongodb, postgres")
	cmd.Flags().StringVar(&delay, "delay", "", "delay between requests of a product")
	cmd.Flags().StringVar(&launchDelay, "launch-delay", "", "delay between launches")
	cmd.Flags().IntVar(&reviewsLimit, "reviews-limit", -1, "maximum reviews per product (0 = unlimited)")
	cmd.Flags().IntVar(&threadsLimit, "threads-limit", -1, "maximum forum threads per product (0 = unlimited)")
	cmd.Flags().IntVar(&commentsLimit, "comments-limit", -1, "maximum top-level comments per thread or launch (0 = unlimited)")
	cmd.Flags().IntVar(&launchesLimit, "launches-limit", -1, "maximum launches per product (0 = unlimited)")
	cmd.Flags().BoolVar(&enrichFlag, "enrich", false, "enable review enrichment")
	cmd.Flags().StringVar(&provider, "provider", "", "enrichment provider: gemini, openai, ollama, regex")
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) error {
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if outputTypes != "" {
		var types []string
		for _, t := range strings.Split(outputTypes, ",") {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				types = append(types, t)
			}
		}
		cfg.Storage.Types = types
	}
	if delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid --delay: %w", err)
		}
		cfg.Crawl.Delay = d
	}
	if launchDelay != "" {
		d, err := time.ParseDuration(launchDelay)
		if err != nil {
			return fmt.Errorf("invalid --launch-delay: %w", err)
		}
		cfg.Crawl.LaunchDelay = d
	}
	if reviewsLimit >= 0 {
		cfg.Crawl.ReviewsLimit = reviewsLimit
	}
	if threadsLimit >= 0 {
		cfg.Crawl.ThreadsLimit = threadsLimit
	}
	if commentsLimit >= 0 {
		cfg.Crawl.CommentsLimit = commentsLimit
	}
	if launchesLimit >= 0 {
		cfg.Crawl.LaunchesLimit = launchesLimit
	}
	if enrichFlag {
		cfg.Enrich.Enabled = true
	}
	if provider != "" {
		cfg.Enrich.Provider = strings.ToLower(provider)
	}
	return nil
}
