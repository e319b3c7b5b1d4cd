package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Start the DocLens HTTP API.

Examples:
  # Use the configured port
  doclens serve

  # Override the port
  doclens serve --port 9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				rt.app.Config.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return rt.app.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (overrides server.port)")
	return cmd
}
