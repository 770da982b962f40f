// Package scraper collects the exchange's issuer list and each issuer's
// trading history, and merges the histories into one CSV file.
package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"msescraper/internal/fetch"
	"msescraper/internal/utils"
)

type Scraper struct {
	logger      *utils.Logger
	fetcher     fetch.Fetcher
	config      *utils.Config
	perfTracker *utils.PerformanceTracker
	now         func() time.Time
}

func NewScraper(logger *utils.Logger, fetcher fetch.Fetcher, config *utils.Config) *Scraper {
	return &Scraper{
		logger:      logger,
		fetcher:     fetcher,
		config:      config,
		perfTracker: utils.NewPerformanceTracker(),
		now:         time.Now,
	}
}

// GetPerformanceTracker returns the step timings recorded by Run.
func (s *Scraper) GetPerformanceTracker() *utils.PerformanceTracker {
	return s.perfTracker
}

// Close releases the fetcher if it holds resources (the browser fetcher does).
func (s *Scraper) Close() {
	if c, ok := s.fetcher.(interface{ Close() }); ok {
		s.logger.Debug("Closing fetcher")
		c.Close()
	}
}

// PreflightCheck verifies all dependencies and configurations
func (s *Scraper) PreflightCheck() error {
	checks := []struct {
		name  string
		check func() error
	}{
		{"Config Validation", s.validateConfig},
		{"Directory Structure", s.checkDirectories},
		{"Browser Launch", s.testBrowserLaunch},
	}

	for _, c := range checks {
		s.logger.Debug("Running preflight check: %s", c.name)
		if err := c.check(); err != nil {
			return fmt.Errorf("%s check failed: %w", c.name, err)
		}
		s.logger.Debug("%s check passed", c.name)
	}

	return nil
}

func (s *Scraper) validateConfig() error {
	return s.config.Validate()
}

func (s *Scraper) checkDirectories() error {
	dirs := []string{
		filepath.Dir(s.config.Output.IssuersFile),
		filepath.Dir(s.config.Output.DataFile),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return nil
}

func (s *Scraper) testBrowserLaunch() error {
	p, ok := s.fetcher.(interface{ Ping() error })
	if !ok {
		return nil
	}
	return p.Ping()
}
