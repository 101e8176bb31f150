package cli

import (
	"context"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bookrag-labs/bookrag-cli/internal/core/domain"
)

var (
	validateTopK int
	validateRuns int
)

// Verdict styles.
var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1"))
	warnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8"))
)

var validateCmd = &cobra.Command{
	Use:   "validate [question]",
	Short: "Run a query and score its retrieval quality",
	Long: `Runs the query and scores the result on precision, traceability,
consistency and latency, printing a validation report with a PASS, WARNING
or FAIL verdict. With --runs above 1, the query is repeated to measure
cross-run stability.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().IntVarP(&validateTopK, "top-k", "k", domain.DefaultTopK, "number of chunks to retrieve (1-100)")
	validateCmd.Flags().IntVar(&validateRuns, "runs", 1, "repeat the query this many times for a cross-run consistency score")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	b, err := openBackends()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx := context.Background()
	validator := newValidationService(b)

	req := domain.NewQueryRequest(args[0])
	req.TopK = validateTopK
	result, err := newQueryService(b).Process(ctx, req)
	if err != nil {
		return err
	}

	v := validator.Validate(result)
	cmd.Println(validator.Report(v))
	cmd.Println(styleVerdict(v.Verdict()))

	if validateRuns > 1 {
		stability, err := validator.CheckConsistency(ctx, args[0], validateRuns, validateTopK)
		if err != nil {
			return err
		}
		cmd.Printf("\nCross-run stability over %d runs: %.3f\n", validateRuns, stability)
	}
	return nil
}

func styleVerdict(verdict string) string {
	switch verdict {
	case "PASS":
		return passStyle.Render("✓ " + verdict)
	case "WARNING":
		return warnStyle.Render("! " + verdict)
	default:
		return failStyle.Render("✗ " + verdict)
	}
}
