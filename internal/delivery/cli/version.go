package cli

import (
	goruntime "runtime"

	"github.com/doclens/backend/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			writeln(cmd.OutOrStdout(), "doclens version %s (%s)", version.Version, goruntime.Version())
		},
	}
}
