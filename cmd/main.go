// Package main provides the entry point for the issuer history scraper.
// Run without arguments it collects every issuer listed on the Macedonian
// Stock Exchange and writes ten years of their trading history to one CSV file.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"msescraper/internal/fetch"
	"msescraper/internal/scraper"
	"msescraper/internal/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	workers    int
	noLogFile  bool
)

var rootCmd = &cobra.Command{
	Use:   "msescraper",
	Short: "Scrapes ten years of trading history for every MSE issuer into a CSV file.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		startTime := time.Now()

		config, logger := setup()
		defer logger.Close()

		logger.Info("Starting MSE issuer scraper")

		s, err := initializeScraper(cmd.Context(), logger, config)
		if err != nil {
			logger.Fatal("Failed to initialize scraper: %v", err)
		}
		// Ensure cleanup happens before the logger is closed
		defer s.Close()

		// Run preflight checks
		if err := s.PreflightCheck(); err != nil {
			s.Close()
			logger.Fatal("Preflight check failed: %v", err)
		}

		summary, err := s.Run(cmd.Context())
		if err != nil {
			s.Close()
			logger.Fatal("Scraping failed: %v", err)
		}

		// Generate and log aggregate performance report
		logger.Info("Aggregate Performance Report:%s", s.GetPerformanceTracker().GenerateAggregateReport())

		if summary.Failed > 0 {
			logger.Warn("%d of %d issuers failed, see errors above", summary.Failed, summary.Issuers)
		}

		logger.Info("Scraping completed in %.2f seconds", time.Since(startTime).Seconds())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config (default $CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noLogFile, "no-log-file", false, "Log to the console only")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "Number of issuers fetched in parallel (overrides config)")
}

// setup loads .env and the configuration and opens the logger.
// It exits the process on failure.
//
// Returns:
//   - *utils.Config: Configuration with flag overrides applied
//   - *utils.Logger: Logger for the run
func setup() (*utils.Config, *utils.Logger) {
	// .env is optional
	_ = godotenv.Load()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	config, err := utils.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if workers > 0 {
		config.Scraper.Workers = workers
	}

	var logger *utils.Logger
	if noLogFile {
		logger = utils.NewLoggerTo(os.Stdout, config.Log.Debug)
	} else {
		logger, err = utils.NewLogger(config.Log.Dir, config.Log.Debug)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	return config, logger
}

// initializeScraper builds the fetcher selected by the configuration and
// wraps it in a scraper.
//
// Parameters:
//   - ctx: Context that bounds the browser's lifetime, when one is used
//   - logger: Logger for tracking the initialization process
//   - config: Configuration for the scraper
//
// Returns:
//   - *scraper.Scraper: Configured scraper instance
//   - error: Any error that occurred during initialization
func initializeScraper(ctx context.Context, logger *utils.Logger, config *utils.Config) (*scraper.Scraper, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := config.FetchOptions()
	opts.Logf = logger.Debug

	var fetcher fetch.Fetcher
	switch config.Scraper.Fetcher {
	case utils.FetcherBrowser:
		logger.Debug("Initializing headless Chrome")
		browser, err := fetch.NewBrowserClient(ctx, opts, fetch.BrowserOptions{
			Headless: config.Scraper.Browser.Headless,
			Debug:    config.Scraper.Browser.Debug,
		})
		if err != nil {
			return nil, err
		}
		fetcher = browser
	default:
		fetcher = fetch.NewHTTPClient(opts)
	}

	return scraper.NewScraper(logger, fetcher, config), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
