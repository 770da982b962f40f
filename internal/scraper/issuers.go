package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"msescraper/internal/fetch"
	"msescraper/internal/utils"
	"msescraper/models"

	"github.com/PuerkitoBio/goquery"
)

const issuerSelector = "select#Code"

// CollectIssuers fetches the listing page and returns the equity issuer codes
// from its dropdown, saving them to the configured issuers file. A page
// without the dropdown yields an empty list and no error.
func (s *Scraper) CollectIssuers(ctx context.Context) ([]models.IssuerCode, error) {
	defer s.perfTracker.Track("collect issuers")()

	link := s.config.Scraper.ListURL
	body, err := fetch.Get(ctx, s.fetcher, link)
	if err != nil {
		return nil, err
	}

	issuers, found, err := ParseIssuerList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", link, err)
	}
	if !found {
		s.logger.Warn("Issuer dropdown not found on the page %s", link)
		return []models.IssuerCode{}, nil
	}

	file := s.config.Output.IssuersFile
	if err := utils.WriteIssuersCSV(file, issuers); err != nil {
		return nil, err
	}
	s.logger.Info("%d issuer codes saved to %s", len(issuers), file)

	return issuers, nil
}

// ParseIssuerList extracts the issuer dropdown's option values. Values that
// are empty or contain a digit are skipped, as are repeats. found is false
// when the page has no dropdown.
func ParseIssuerList(body []byte) (issuers []models.IssuerCode, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}

	dropdown := doc.Find(issuerSelector).First()
	if dropdown.Length() == 0 {
		return nil, false, nil
	}

	issuers = []models.IssuerCode{}
	seen := make(map[models.IssuerCode]bool)
	dropdown.Find("option").Each(func(_ int, option *goquery.Selection) {
		value, ok := option.Attr("value")
		if !ok || !models.ValidIssuerCode(value) {
			return
		}
		code := models.IssuerCode(strings.TrimSpace(value))
		if seen[code] {
			return
		}
		seen[code] = true
		issuers = append(issuers, code)
	})

	return issuers, true, nil
}
