package cli

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(rt *runtime) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := outputFormat(format); err != nil {
				return err
			}

			analyses, err := rt.app.Analyses.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, analyses)
			}

			if len(analyses) == 0 {
				writeln(out, "No analyses found")
				return nil
			}
			for _, a := range analyses {
				top := "-"
				if len(a.Results) > 0 {
					top = a.Results[0].ProductName
				}
				writeln(out, "%s  %s  %-30s  %d product(s), top: %s",
					a.ID, a.CreatedAt.Local().Format("2006-01-02 15:04"), a.Source, len(a.Results), top)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of analyses to show")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: json or text")
	return cmd
}
