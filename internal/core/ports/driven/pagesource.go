package driven

import "context"

// RawPage is a fetched page before extraction.
type RawPage struct {
	URL     string
	Content []byte
}

// PageSource discovers and fetches book pages. Implementations own their
// transient-fault handling (retry with backoff, rate limiting); the
// retrieval core never retries.
type PageSource interface {
	// DiscoverURLs returns all page URLs for the configured site.
	DiscoverURLs(ctx context.Context) ([]string, error)

	// FetchPage downloads one page.
	FetchPage(ctx context.Context, url string) (*RawPage, error)
}
