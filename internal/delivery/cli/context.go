package cli

import (
	"github.com/doclens/backend/internal/usecase"
	"github.com/spf13/cobra"
)

func newContextCmd(rt *runtime) *cobra.Command {
	var words int

	cmd := &cobra.Command{
		Use:   "context <file> <product name>",
		Short: "Show where a product is mentioned in a document",
		Long: `Print up to three snippets of the document's normalized text around
whole-word mentions of the product name.

Example:
  doclens context relatorio.pdf "Papel A4" --words 5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, text, err := rt.app.Extractor.ExtractFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if words <= 0 {
				words = rt.app.Config.Analysis.ContextWords
			}

			out := cmd.OutOrStdout()
			contexts := usecase.ExtractContext(text, args[1], words)
			if len(contexts) == 0 {
				writeln(out, "%q is not mentioned", args[1])
				return nil
			}
			for _, c := range contexts {
				writeln(out, "%s", c)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&words, "words", "w", 0, "Context window parameter (default analysis.context_words)")
	return cmd
}
