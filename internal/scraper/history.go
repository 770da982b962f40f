package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"msescraper/internal/fetch"
	"msescraper/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	resultsSelector = "table#resultsTable"
	// cells per results row: date followed by eight price and volume columns
	recordCells = 9
)

// HistorySpan returns the [start, end] dates covering years back from now,
// counted in 365-day years. Both are truncated to midnight.
func HistorySpan(now time.Time, years int) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return end.AddDate(0, 0, -365*years), end
}

// Windows splits [start, end] into contiguous windows of at most windowDays+1
// calendar days. Each window starts the day after the previous one ends.
func Windows(start, end time.Time, windowDays int) []models.DateRange {
	var windows []models.DateRange
	for start.Before(end) {
		chunkEnd := start.AddDate(0, 0, windowDays)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		windows = append(windows, models.DateRange{Start: start, End: chunkEnd})
		start = chunkEnd.AddDate(0, 0, 1)
	}
	return windows
}

// CollectIssuerData fetches the issuer's history window by window. Windows
// without a results table contribute nothing. The first network error stops
// the issuer and is returned.
func (s *Scraper) CollectIssuerData(ctx context.Context, code models.IssuerCode) ([]models.TradingRecord, error) {
	defer s.perfTracker.Track("collect issuer")()

	start, end := HistorySpan(s.now(), s.config.Scraper.Years)

	var issuerData []models.TradingRecord
	for _, window := range Windows(start, end, s.config.Scraper.WindowDays) {
		records, err := s.collectWindow(ctx, code, window)
		if err != nil {
			return nil, err
		}
		issuerData = append(issuerData, records...)
	}

	return issuerData, nil
}

func (s *Scraper) historyURL(code models.IssuerCode) string {
	base := strings.TrimSuffix(s.config.Scraper.HistoryURL, "/")
	return base + "/" + url.PathEscape(string(code))
}

func (s *Scraper) collectWindow(ctx context.Context, code models.IssuerCode, window models.DateRange) ([]models.TradingRecord, error) {
	from := window.Start.Format(models.DateLayout)
	to := window.End.Format(models.DateLayout)

	form := url.Values{}
	form.Set("Code", string(code))
	form.Set("FromDate", from)
	form.Set("ToDate", to)
	form.Set("action", s.config.Scraper.Action)

	stop := s.perfTracker.Track("fetch window")
	body, err := fetch.PostForm(ctx, s.fetcher, s.historyURL(code), form)
	stop()
	if err != nil {
		return nil, err
	}

	stop = s.perfTracker.Track("parse window")
	records, found, err := ParseHistoryTable(code, body)
	stop()
	if err != nil {
		return nil, fmt.Errorf("failed to parse history for %s %s: %w", code, window, err)
	}
	if !found {
		s.logger.Info("No data available for %s from %s to %s", code, from, to)
		return nil, nil
	}

	s.logger.Debug("Extracted %d records for %s from %s to %s", len(records), code, from, to)
	return records, nil
}

// ParseHistoryTable reads the results table out of a history page. The first
// row is the header; rows with fewer than nine cells are skipped. found is
// false when the page has no results table.
func ParseHistoryTable(code models.IssuerCode, body []byte) (records []models.TradingRecord, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}

	table := doc.Find(resultsSelector).First()
	if table.Length() == 0 {
		return nil, false, nil
	}

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() < recordCells {
			return
		}
		text := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}
		records = append(records, models.TradingRecord{
			IssuerCode:          code,
			Date:                text(0),
			LastPrice:           text(1),
			Max:                 text(2),
			Min:                 text(3),
			AveragePrice:        text(4),
			PercentChange:       text(5),
			Quantity:            text(6),
			TradingVolumeDenars: text(7),
			TotalVolumeDenars:   text(8),
		})
	})

	return records, true, nil
}
