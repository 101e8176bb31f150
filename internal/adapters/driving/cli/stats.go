package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show ingestion statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	b, err := openBackends()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx := context.Background()

	stats, err := b.store.Stats(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Pages ingested: %d\n", stats.Pages)
	cmd.Printf("Chunks recorded: %d\n", stats.TotalChunks)

	points, err := b.index.Count(ctx)
	if err != nil {
		cmd.Printf("Vector index: unreachable (%v)\n", err)
		return nil
	}
	cmd.Printf("Vector index points: %d (collection %s)\n", points, b.index.Collection())
	return nil
}
