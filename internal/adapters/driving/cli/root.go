// Package cli wires the retrieval services into cobra commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bookrag-labs/bookrag-cli/internal/adapters/driven/embedding/cohere"
	"github.com/bookrag-labs/bookrag-cli/internal/adapters/driven/storage/sqlite"
	"github.com/bookrag-labs/bookrag-cli/internal/adapters/driven/vector/qdrant"
	"github.com/bookrag-labs/bookrag-cli/internal/config"
	"github.com/bookrag-labs/bookrag-cli/internal/core/services"
	"github.com/bookrag-labs/bookrag-cli/internal/logger"
)

var (
	version = "dev"

	verbose    bool
	configPath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bookrag",
	Short: "Retrieval pipeline for documentation books",
	Long: `bookrag ingests a documentation site into a vector index and answers
natural-language queries against it, with retrieval quality validation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// backends bundles the driven adapters behind the services, with one Close
// for all of them.
type backends struct {
	embedder *cohere.EmbeddingService
	index    *qdrant.Index
	store    *sqlite.Store
}

func (b *backends) Close() {
	if b.store != nil {
		_ = b.store.Close()
	}
	if b.index != nil {
		_ = b.index.Close()
	}
	if b.embedder != nil {
		_ = b.embedder.Close()
	}
}

// openBackends validates the configuration and connects the external
// services.
func openBackends() (*backends, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := cohere.NewEmbeddingService(cohere.Config{
		APIKey: cfg.Cohere.APIKey,
		Model:  cfg.Cohere.Model,
	})
	if err != nil {
		return nil, err
	}

	index, err := qdrant.NewIndex(qdrant.Config{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Qdrant.Collection,
	})
	if err != nil {
		embedder.Close()
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		embedder.Close()
		index.Close()
		return nil, err
	}

	return &backends{embedder: embedder, index: index, store: store}, nil
}

func newQueryService(b *backends) *services.QueryService {
	return services.NewQueryService(b.embedder, b.index)
}

func newValidationService(b *backends) *services.ValidationService {
	return services.NewValidationService(newQueryService(b))
}

func newIngestService(b *backends) *services.IngestService {
	return services.NewIngestService(b.embedder, b.index, b.store, services.IngestOptions{
		ChunkSize: cfg.Chunking.ChunkSize,
		Overlap:   cfg.Chunking.Overlap,
	})
}
