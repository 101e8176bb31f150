// Package web fetches documentation pages over HTTP, discovering them
// through the site's sitemap.
package web

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bookrag-labs/bookrag-cli/internal/core/ports/driven"
	"github.com/bookrag-labs/bookrag-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.PageSource = (*Connector)(nil)

// Default configuration values.
const (
	DefaultRequestsPerSecond = 2.0
	DefaultTimeout           = 30 * time.Second
	DefaultUserAgent         = "bookrag/1.0"

	// maxSitemapDepth bounds nested sitemap index recursion.
	maxSitemapDepth = 3
)

// Config holds configuration for the web connector.
type Config struct {
	// BaseURL is the documentation site root (required). The sitemap is
	// expected at BaseURL/sitemap.xml.
	BaseURL string

	// RequestsPerSecond caps the fetch rate (default: 2).
	RequestsPerSecond float64

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// UserAgent identifies the crawler (default: bookrag/1.0).
	UserAgent string

	// Retry overrides the default retry policy when set.
	Retry *RetryPolicy
}

// Connector downloads book pages politely: rate limited, retried on
// transient failures, and identifying itself with a stable user agent.
type Connector struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	retry     RetryPolicy
}

// NewConnector creates a web connector for one documentation site.
func NewConnector(cfg Config) (*Connector, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("web: base URL is required")
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	retry := DefaultRetryPolicy()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}

	return &Connector{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		retry:     retry,
	}, nil
}

// sitemap covers both sitemap formats: a urlset of pages and a sitemapindex
// of nested sitemaps.
type sitemap struct {
	URLs     []loc `xml:"url"`
	Sitemaps []loc `xml:"sitemap"`
}

type loc struct {
	Loc string `xml:"loc"`
}

// DiscoverURLs reads the site's sitemap and returns all page URLs. Nested
// sitemap indexes are followed up to a fixed depth; duplicate URLs collapse
// to one entry, first occurrence wins.
func (c *Connector) DiscoverURLs(ctx context.Context) ([]string, error) {
	logger.Section("Page Discovery")

	seen := make(map[string]struct{})
	var urls []string

	var walk func(sitemapURL string, depth int) error
	walk = func(sitemapURL string, depth int) error {
		if depth > maxSitemapDepth {
			logger.Warn("Sitemap nesting exceeds depth %d, skipping %s", maxSitemapDepth, sitemapURL)
			return nil
		}

		body, err := c.get(ctx, sitemapURL)
		if err != nil {
			return fmt.Errorf("fetch sitemap %s: %w", sitemapURL, err)
		}

		var sm sitemap
		if err := xml.Unmarshal(body, &sm); err != nil {
			return fmt.Errorf("parse sitemap %s: %w", sitemapURL, err)
		}

		for _, nested := range sm.Sitemaps {
			if err := walk(strings.TrimSpace(nested.Loc), depth+1); err != nil {
				return err
			}
		}
		for _, u := range sm.URLs {
			page := strings.TrimSpace(u.Loc)
			if page == "" {
				continue
			}
			if _, ok := seen[page]; ok {
				continue
			}
			seen[page] = struct{}{}
			urls = append(urls, page)
		}
		return nil
	}

	if err := walk(c.baseURL+"/sitemap.xml", 0); err != nil {
		return nil, err
	}

	logger.Info("Discovered %d pages", len(urls))
	return urls, nil
}

// FetchPage downloads one page.
func (c *Connector) FetchPage(ctx context.Context, url string) (*driven.RawPage, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	return &driven.RawPage{URL: url, Content: body}, nil
}

// get performs one rate-limited, retried GET. Server errors and 429 are
// transient; other non-2xx statuses fail permanently.
func (c *Connector) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("status %d from %s", resp.StatusCode, url)
		default:
			return Permanent(fmt.Errorf("status %d from %s", resp.StatusCode, url))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
