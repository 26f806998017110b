// Package scraper downloads and parses the festival lineup page.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lineup_bot/internal/model"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Scraper fetches the lineup page and extracts announced bands from it.
type Scraper struct {
	client  HTTPClient
	pageURL string
	origin  string
	timeout time.Duration
}

// New creates a Scraper for the given lineup page URL.
func New(client HTTPClient, pageURL string) (*Scraper, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse lineup url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("lineup url %q must be absolute", pageURL)
	}
	return &Scraper{
		client:  client,
		pageURL: pageURL,
		origin:  u.Scheme + "://" + u.Host,
		timeout: 30 * time.Second,
	}, nil
}

// Scrape downloads the lineup page and returns every announced band, in page
// order. Band blocks missing a name or a detail link are skipped.
func (s *Scraper) Scrape(ctx context.Context) ([]model.Band, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "LineupNotifyBot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var bands []model.Band
	doc.Find("div.BandBlock").Each(func(_ int, block *goquery.Selection) {
		band, err := s.bandFromBlock(block)
		if err != nil {
			return
		}
		bands = append(bands, band)
	})
	return bands, nil
}

// bandFromBlock extracts one band from a lineup block. The block's relative
// detail link is resolved against the site origin.
func (s *Scraper) bandFromBlock(block *goquery.Selection) (model.Band, error) {
	name := strings.TrimSpace(block.Find("span").First().Text())
	href, ok := block.Find("a.BandBlock-link").First().Attr("href")
	if name == "" || !ok {
		return model.Band{}, fmt.Errorf("%w: band block missing name or link", model.ErrBadFormat)
	}
	if !strings.Contains(href, "://") {
		href = s.origin + href
	}
	return model.Band{Name: name, URL: href}, nil
}
