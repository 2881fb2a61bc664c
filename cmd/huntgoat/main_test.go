package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/HuntGoat/internal/config"
	"github.com/IshaanNene/HuntGoat/internal/orchestrator"
)

func resetFlags() {
	outputPath, outputTypes, delay, launchDelay, provider = "", "", "", "", ""
	reviewsLimit, threadsLimit, commentsLimit, launchesLimit = -1, -1, -1, -1
	enrichFlag = false
}

func TestApplyCLIOverrides(t *testing.T) {
	resetFlags()
	defer resetFlags()

	outputPath = "/tmp/out"
	outputTypes = "JSON, csv,"
	delay = "250ms"
	reviewsLimit = 0
	launchesLimit = 3
	enrichFlag = true
	provider = "Regex"

	cfg := config.DefaultConfig()
	cfg.Crawl.ReviewsLimit = 50
	require.NoError(t, applyCLIOverrides(cfg))

	assert.Equal(t, "/tmp/out", cfg.Storage.OutputPath)
	assert.Equal(t, []string{"json", "csv"}, cfg.Storage.Types)
	assert.Equal(t, 250*time.Millisecond, cfg.Crawl.Delay)
	assert.Equal(t, 2*time.Second, cfg.Crawl.LaunchDelay)
	assert.Equal(t, 0, cfg.Crawl.ReviewsLimit)
	assert.Equal(t, 3, cfg.Crawl.LaunchesLimit)
	assert.True(t, cfg.Enrich.Enabled)
	assert.Equal(t, "regex", cfg.Enrich.Provider)
}

func TestApplyCLIOverridesBadDelay(t *testing.T) {
	resetFlags()
	defer resetFlags()

	delay = "soon"
	assert.Error(t, applyCLIOverrides(config.DefaultConfig()))
}

func TestBuildPipeline(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.DefaultConfig()
	pipe, err := buildPipeline(cfg, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, pipe.Len(), "dedup and correlate only")

	cfg.Enrich.Enabled = true
	cfg.Enrich.Provider = "regex"
	pipe, err = buildPipeline(cfg, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, 3, pipe.Len(), "regex has no sentiment stage")

	cfg.Enrich.Provider = "ollama"
	pipe, err = buildPipeline(cfg, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, 4, pipe.Len())

	cfg.Enrich.Provider = "carrier-pigeon"
	_, err = buildPipeline(cfg, nil, logger)
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, []orchestrator.Summary{
		{Product: "notion", Reviews: 12, Threads: 2, Errors: []string{"makers: boom"}},
		{Product: "linear", Err: errors.New("store linear: disk full")},
	})
	out := buf.String()
	assert.Contains(t, out, "notion")
	assert.Contains(t, out, "partial (1 errors)")
	assert.Contains(t, out, "failed: store linear: disk full")

	buf.Reset()
	printSummary(&buf, nil)
	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)
	assert.Equal(t, "HuntGoat "+config.Version+"\n", buf.String())
}
