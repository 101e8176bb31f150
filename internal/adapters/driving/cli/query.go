package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookrag-labs/bookrag-cli/internal/core/domain"
)

var (
	queryTopK     int
	queryMinScore float64
	queryFilters  []string
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Query the ingested documentation",
	Long: `Embeds the question and retrieves the most relevant chunks from the
vector index. Filters restrict results by payload fields, for example
--filter page_title=Introduction.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", domain.DefaultTopK, "number of chunks to retrieve (1-100)")
	queryCmd.Flags().Float64Var(&queryMinScore, "min-score", -1, "similarity floor in [0,1]")
	queryCmd.Flags().StringArrayVar(&queryFilters, "filter", nil, "payload filter as field=value (repeatable)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

// parseFilters turns repeated field=value flags into the filter mapping.
// Repeating a field collects its values into an any-of match.
func parseFilters(raw []string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	filters := make(map[string]any)
	for _, item := range raw {
		field, value, ok := strings.Cut(item, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q: expected field=value", item)
		}
		switch existing := filters[field].(type) {
		case nil:
			filters[field] = value
		case []any:
			filters[field] = append(existing, value)
		default:
			filters[field] = []any{existing, value}
		}
	}
	return filters, nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	filters, err := parseFilters(queryFilters)
	if err != nil {
		return err
	}

	b, err := openBackends()
	if err != nil {
		return err
	}
	defer b.Close()

	req := domain.NewQueryRequest(args[0])
	req.TopK = queryTopK
	req.Filters = filters
	if queryMinScore >= 0 {
		minScore := queryMinScore
		req.MinScore = &minScore
	}

	result, err := newQueryService(b).Process(context.Background(), req)
	if err != nil {
		return err
	}

	if queryJSON {
		return outputQueryJSON(cmd, result)
	}
	outputQueryText(cmd, result)
	return nil
}

func outputQueryJSON(cmd *cobra.Command, result *domain.RetrievalResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, result *domain.RetrievalResult) {
	if len(result.Chunks) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Printf("Retrieved %d chunks in %.2fms\n\n", len(result.Chunks), result.RetrievalTimeMS)
	for i, chunk := range result.Chunks {
		title := chunk.PageTitle
		if title == "" {
			title = chunk.ID
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, title, chunk.RelevanceScore)
		if chunk.SourceURL != "" {
			cmd.Printf("      Source: %s\n", chunk.SourceURL)
		}
		cmd.Printf("      %s\n\n", snippet(chunk.Text, 200))
	}
}

// snippet truncates text to limit runes on a rune boundary.
func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
