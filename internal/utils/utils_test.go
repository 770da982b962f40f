package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"msescraper/internal/fetch"
	"msescraper/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, 10, config.Scraper.Workers)
	assert.Equal(t, 10, config.Scraper.Years)
	assert.Equal(t, 365, config.Scraper.WindowDays)
	assert.Equal(t, FetcherHTTP, config.Scraper.Fetcher)
	assert.Equal(t, "issuers.csv", config.Output.IssuersFile)
	assert.Equal(t, "all_issuers_data_last_10_years.csv", config.Output.DataFile)
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
scraper:
  workers: 4
  fetcher: browser
  headers:
    Accept-Language: mk
output:
  dataFile: out/data.csv
`), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, 4, config.Scraper.Workers)
	assert.Equal(t, FetcherBrowser, config.Scraper.Fetcher)
	assert.Equal(t, "mk", config.Scraper.Headers["Accept-Language"])
	assert.Equal(t, "out/data.csv", config.Output.DataFile)
	// untouched keys keep their defaults
	assert.Equal(t, 365, config.Scraper.WindowDays)
	assert.Equal(t, fetch.DefaultUserAgent, config.Scraper.UserAgent)
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"workers", func(c *Config) { c.Scraper.Workers = 0 }},
		{"years", func(c *Config) { c.Scraper.Years = -1 }},
		{"window", func(c *Config) { c.Scraper.WindowDays = 0 }},
		{"timeout", func(c *Config) { c.Scraper.Timeout = 0 }},
		{"fetcher", func(c *Config) { c.Scraper.Fetcher = "curl" }},
		{"output", func(c *Config) { c.Output.DataFile = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			require.Error(t, config.Validate())
		})
	}
}

func TestIssuersCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "issuers.csv")
	require.NoError(t, WriteIssuersCSV(path, []models.IssuerCode{"KMB", "ALK"}))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Issuer\nKMB\nALK\n", string(contents))

	issuers, err := ReadIssuersFromCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []models.IssuerCode{"KMB", "ALK"}, issuers)
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false)

	logger.Info("hello %s", "world")
	logger.Debug("hidden")
	logger.Warn("careful")
	logger.Error("broken %d", 1)

	out := buf.String()
	assert.Contains(t, out, "INFO: ")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "WARN: ")
	assert.Contains(t, out, "broken 1")
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 3, strings.Count(out, "\n"))
}

func TestLoggerDropsChromeCookieNoise(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, true)

	// chromedp passes the event text as an argument, not in the format
	logger.Debug("%s", `could not unmarshal event: parse error: unknown cookiePart value "Partitioned"`)
	logger.Debug("ERROR: %v", "could not unmarshal event: cookiePart")
	logger.Debug("could not unmarshal event: cookiePart")
	logger.Debug("could not unmarshal event: %s", "targetInfo")
	logger.Debug("cookiePart %s", "kept")

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "\n"))
	assert.Contains(t, out, "could not unmarshal event: targetInfo")
	assert.Contains(t, out, "cookiePart kept")
}

func TestLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, true)
	require.NoError(t, err)
	logger.console = nil
	logger.Debug("to file")
	require.NoError(t, logger.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	contents, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "DEBUG: ")
	assert.Contains(t, string(contents), "to file")
}

func TestPerformanceTrackerConcurrent(t *testing.T) {
	pt := NewPerformanceTracker()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pt.Record("fetch", time.Duration(i+1)*time.Millisecond)
		}()
	}
	wg.Wait()
	pt.Record("parse", time.Millisecond)

	aggs := pt.Aggregates()
	require.Len(t, aggs, 2)
	assert.Equal(t, "fetch", aggs[0].StepName)
	assert.Equal(t, 20, aggs[0].Count)
	assert.Equal(t, time.Millisecond, aggs[0].Min)
	assert.Equal(t, 20*time.Millisecond, aggs[0].Max)
	assert.Equal(t, 210*time.Millisecond, aggs[0].Total)

	report := pt.GenerateAggregateReport()
	assert.Contains(t, report, "Aggregate Performance Report")
	assert.Contains(t, report, "fetch")
	assert.Contains(t, report, "parse")
}

func TestPerformanceTrackerTrack(t *testing.T) {
	pt := NewPerformanceTracker()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pt.now = func() time.Time { return clock }

	stop := pt.Track("step")
	clock = clock.Add(250 * time.Millisecond)
	stop()

	aggs := pt.Aggregates()
	require.Len(t, aggs, 1)
	assert.Equal(t, 250*time.Millisecond, aggs[0].Total)
}
