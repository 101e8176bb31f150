package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bookrag-labs/bookrag-cli/internal/connectors/web"
	"github.com/bookrag-labs/bookrag-cli/internal/core/domain"
	"github.com/bookrag-labs/bookrag-cli/internal/extractor"
	"github.com/bookrag-labs/bookrag-cli/internal/logger"
)

var (
	ingestBaseURL   string
	ingestChunkSize int
	ingestOverlap   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [url...]",
	Short: "Ingest documentation pages into the vector index",
	Long: `Downloads pages, extracts their text, chunks it and stores the embedded
chunks in the vector index. With no arguments, pages are discovered through
the site's sitemap; explicit URLs skip discovery.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestBaseURL, "base-url", "", "documentation site root (overrides config)")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "target chunk size in characters (overrides config)")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", -1, "chunk overlap in characters (overrides config)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestBaseURL != "" {
		cfg.Source.BaseURL = ingestBaseURL
	}
	if ingestChunkSize > 0 {
		cfg.Chunking.ChunkSize = ingestChunkSize
	}
	if ingestOverlap >= 0 {
		cfg.Chunking.Overlap = ingestOverlap
	}
	if cfg.Source.BaseURL == "" && len(args) == 0 {
		return fmt.Errorf("no pages to ingest: pass URLs or set source.base_url")
	}

	b, err := openBackends()
	if err != nil {
		return err
	}
	defer b.Close()

	baseURL := cfg.Source.BaseURL
	if baseURL == "" {
		// Explicit URLs only; the connector still needs a base for its
		// user agent and rate limiter scope.
		baseURL = args[0]
	}
	source, err := web.NewConnector(web.Config{
		BaseURL:           baseURL,
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()

	urls := args
	if len(urls) == 0 {
		urls, err = source.DiscoverURLs(ctx)
		if err != nil {
			return fmt.Errorf("discover pages: %w", err)
		}
		if len(urls) == 0 {
			return fmt.Errorf("sitemap lists no pages")
		}
	}

	var pages []domain.ContentChunk
	for _, url := range urls {
		raw, err := source.FetchPage(ctx, url)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", url, err)
		}
		pages = append(pages, extractor.PageDocument(raw))
		logger.Debug("Fetched %s (%d bytes)", url, len(raw.Content))
	}

	summary, err := newIngestService(b).IngestPages(ctx, pages)
	if err != nil {
		return err
	}

	cmd.Printf("Ingested %d pages (%d replaced), %d chunks stored\n",
		summary.PagesIngested, summary.PagesReplaced, summary.ChunksStored)
	return nil
}
