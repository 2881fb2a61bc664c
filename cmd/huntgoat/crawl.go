package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/HuntGoat/internal/ai"
	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/crawler"
	"github.com/IshaanNene/HuntGoat/internal/enrich"
	"github.com/IshaanNene/HuntGoat/internal/fetcher"
	"github.com/IshaanNene/HuntGoat/internal/observability"
	"github.com/IshaanNene/HuntGoat/internal/orchestrator"
	"github.com/IshaanNene/HuntGoat/internal/pipeline"
	"github.com/IshaanNene/HuntGoat/internal/storage"
)

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [slug...]",
		Short: "Crawl one or more products",
		Long:  "Crawl every resource of the given product slugs, one product at a time.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, args)
		},
	}
	addCrawlFlags(cmd)
	return cmd
}

// crawlAllCmd creates the "crawl-all" subcommand, reading slugs from a file.
func crawlAllCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl-all",
		Short: "Crawl every product listed in a file",
		Long:  "Crawl the product slugs listed one per line in --file. Lines starting with # are ignored.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(slugFile)
			if err != nil {
				return fmt.Errorf("open slug file: %w", err)
			}
			slugs, err := orchestrator.ReadSlugs(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("read slug file: %w", err)
			}
			return runCrawl(cmd, slugs)
		},
	}
	cmd.Flags().StringVar(&slugFile, "file", "products.txt", "file with one product slug per line")
	addCrawlFlags(cmd)
	return cmd
}

func runCrawl(cmd *cobra.Command, slugs []string) error {
	if len(slugs) == 0 {
		return orchestrator.ErrNoProducts
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyCLIOverrides(cfg); err != nil {
		return err
	}
	if cfg.Enrich.APIKey == "" {
		cfg.Enrich.APIKey = config.ProviderKeyFromEnv(cfg.Enrich.Provider)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting crawl",
		"products", len(slugs),
		"storage", strings.Join(cfg.Storage.Types, ","),
		"output", cfg.Storage.OutputPath,
		"enrich", cfg.Enrich.Enabled,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)
	if cfg.Metrics.Enabled {
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	gql, err := fetcher.NewGraphQLClient(&cfg.Upstream, metrics, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer gql.Close()

	pipe, err := buildPipeline(cfg, metrics, logger)
	if err != nil {
		return err
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("storage close failed", "error", err)
		}
	}()

	deps := crawler.NewDeps(cfg, gql, metrics, logger)
	orch := orchestrator.New(orchestrator.Sources{
		Reviews:  crawler.NewReviews(deps),
		Threads:  crawler.NewThreads(deps),
		Launches: crawler.NewLaunches(deps),
		Details:  crawler.NewDetails(deps),
		Makers:   crawler.NewMakers(deps),
	}, pipe, store, cfg.Crawl.Delay, metrics, logger)

	start := time.Now()
	summaries, err := orch.RunAll(ctx, slugs)
	printSummary(cmd.OutOrStdout(), summaries)

	stats := metrics.Snapshot()
	logger.Info("crawl complete",
		"run_id", orch.RunID(),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"requests", stats["requests_total"],
		"failed_requests", stats["requests_failed"],
		"records", stats["records_stored"],
	)
	if err != nil {
		return fmt.Errorf("crawl interrupted: %w", err)
	}
	return nil
}

// buildPipeline assembles the post-fetch stages. Enrichment stages are only
// added when enabled; regex extraction has no sentiment counterpart.
func buildPipeline(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*pipeline.Pipeline, error) {
	pipe := pipeline.New(logger)
	pipe.Use(pipeline.DedupStage{})

	if cfg.Enrich.Enabled {
		x, err := ai.New(cfg.Enrich, logger)
		if err != nil {
			return nil, fmt.Errorf("create extractor: %w", err)
		}
		var sentiment ai.Extractor
		if cfg.Enrich.Provider != "regex" {
			sentiment = x
		}
		e := enrich.New(x, sentiment, cfg.Enrich.BatchSize, cfg.Crawl.Delay, metrics, logger)
		if cfg.Enrich.Built {
			pipe.Use(pipeline.BuiltStage{Enricher: e})
		}
		if cfg.Enrich.Sentiment && sentiment != nil {
			pipe.Use(pipeline.SentimentStage{Enricher: e})
		}
	}

	pipe.Use(pipeline.CorrelateStage{})
	return pipe, nil
}

func printSummary(w io.Writer, summaries []orchestrator.Summary) {
	if len(summaries) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Product", "Reviews", "Threads", "Comments", "Launches", "Launch Comments", "Makers", "Details", "Incomplete", "Duration", "Status"})

	var failed int
	for _, s := range summaries {
		status := "ok"
		switch {
		case s.Err != nil:
			status = "failed: " + s.Err.Error()
			failed++
		case len(s.Errors) > 0:
			status = fmt.Sprintf("partial (%d errors)", len(s.Errors))
		}
		t.AppendRow(table.Row{
			s.Product, s.Reviews, s.Threads, s.ThreadComments, s.Launches,
			s.LaunchComments, s.Makers, s.HasDetails, s.Incomplete,
			s.Duration.Round(time.Millisecond), status,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "", "", "", "failed", failed})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
