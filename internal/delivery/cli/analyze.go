package cli

import (
	"strings"

	"github.com/doclens/backend/internal/domain"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(rt *runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "analyze <file|url>",
		Short: "Analyze a document against the catalog",
		Long: `Extract the text of a local file (.txt, .md, .html, .docx, .pdf) or a
remote document and score every catalog product it mentions.

Examples:
  doclens analyze relatorio.docx
  doclens analyze https://example.com/review.html --format text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := outputFormat(format); err != nil {
				return err
			}

			target := args[0]
			var (
				analysis *domain.Analysis
				err      error
			)
			if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
				analysis, err = rt.app.Analyses.AnalyzeURL(cmd.Context(), target)
			} else {
				analysis, err = rt.app.Analyses.AnalyzeFile(cmd.Context(), target)
			}
			if err != nil {
				return err
			}

			return writeAnalysis(cmd.OutOrStdout(), analysis, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or text")
	return cmd
}
