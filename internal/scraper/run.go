package scraper

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"msescraper/models"

	"golang.org/x/sync/errgroup"
)

// Summary describes a finished run.
type Summary struct {
	Issuers   int
	Succeeded int
	Failed    int
	Records   int
	Duration  time.Duration
	// Written is false when no issuers were found and no data file was produced.
	Written bool
}

// Run collects the issuer list, fetches every issuer's history on a bounded
// pool of workers and writes the merged records to the data file. A failed
// issuer is logged and skipped; only a failure to fetch the issuer list, or
// to write the output, is returned. A cancelled ctx leaves any existing data
// file untouched and returns the context's error.
func (s *Scraper) Run(ctx context.Context) (summary Summary, err error) {
	startTime := time.Now()
	defer func() {
		summary.Duration = time.Since(startTime)
	}()

	if s.config.Scraper.Workers <= 0 {
		return summary, fmt.Errorf("invalid workers value %d", s.config.Scraper.Workers)
	}

	issuers, err := s.CollectIssuers(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to collect issuers: %w", err)
	}
	summary.Issuers = len(issuers)
	if len(issuers) == 0 {
		s.logger.Info("No issuers found, exiting.")
		return summary, nil
	}

	s.logger.Info("Starting to process %d issuers with %d workers", len(issuers), s.config.Scraper.Workers)

	var (
		mu      sync.Mutex
		allData []models.TradingRecord
	)

	g := new(errgroup.Group)
	g.SetLimit(s.config.Scraper.Workers)
	for _, code := range issuers {
		g.Go(func() error {
			issuerData, err := s.CollectIssuerData(ctx, code)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				s.logger.Error("Error collecting data for issuer %s: %v", code, err)
				return nil
			}
			summary.Succeeded++
			allData = append(allData, issuerData...)
			s.logger.Info("Data collected for issuer: %s (%d records)", code, len(issuerData))
			return nil
		})
	}
	// workers report failures through the log, never through the group
	_ = g.Wait()

	// interrupted issuers were logged as failures; the merged set is partial
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run cancelled after %d/%d issuers: %w", summary.Succeeded, summary.Issuers, err)
	}

	// arrival order depends on scheduling; order by issuer so identical
	// responses always produce an identical file
	slices.SortStableFunc(allData, func(a, b models.TradingRecord) int {
		return strings.Compare(string(a.IssuerCode), string(b.IssuerCode))
	})

	file := s.config.Output.DataFile
	if err := WriteRecordsCSV(file, allData); err != nil {
		return summary, err
	}
	summary.Records = len(allData)
	summary.Written = true

	s.logger.Info("Data collection complete. Saved %d records from %d/%d issuers to %s.",
		summary.Records, summary.Succeeded, summary.Issuers, file)
	s.logger.Info("Total execution time: %v", time.Since(startTime).Round(time.Millisecond))

	return summary, nil
}
