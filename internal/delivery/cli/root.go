// Package cli implements the doclens command line.
package cli

import (
	"fmt"
	"io"

	"github.com/doclens/backend/config"
	"github.com/doclens/backend/internal/app"
	"github.com/doclens/backend/internal/logging"
	"github.com/spf13/cobra"
)

// runtime is the state shared by subcommands of one invocation
type runtime struct {
	configFile string
	logLevel   string
	app        *app.App
}

// Execute runs the CLI with os.Args
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree. Each call returns independent
// state, so tests can run commands side by side.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "doclens",
		Short: "Score documents against a product catalog",
		Long: `DocLens finds catalog products mentioned in a document and scores each
one by the positive and negative keywords found in the text.

Examples:
  # Register a product
  doclens products add --name "Papel A4" --positive "resistente, branco" --negative "amassado"

  # Analyze a local file or a URL
  doclens analyze relatorio.pdf
  doclens analyze https://example.com/review.html --format text

  # Analyze every document dropped into a folder
  doclens watch ./inbox

  # Run the HTTP API
  doclens serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip initialization for commands that need no services
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return rt.open()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.close()
		},
	}

	root.PersistentFlags().StringVarP(&rt.configFile, "config", "c", "",
		"Path to config file (default: ./config.yaml, ./config/config.yaml, /etc/doclens/config.yaml)")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "",
		"Override log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(rt),
		newAnalyzeCmd(rt),
		newProductsCmd(rt),
		newHistoryCmd(rt),
		newContextCmd(rt),
		newWatchCmd(rt),
		newVersionCmd(),
	)

	// Commands that fail in RunE skip PersistentPostRunE
	cobra.OnFinalize(func() { rt.close() })

	return root
}

func (rt *runtime) open() error {
	if rt.app != nil {
		return nil
	}

	cfg, err := config.LoadFile(rt.configFile)
	if err != nil {
		return err
	}
	if rt.logLevel != "" {
		cfg.Log.Level = rt.logLevel
	}

	application, err := app.Build(cfg, logging.New(cfg.Log))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	rt.app = application
	return nil
}

func (rt *runtime) close() error {
	if rt.app == nil {
		return nil
	}
	err := rt.app.Close()
	rt.app = nil
	return err
}

// outputFormat validates a --format flag value
func outputFormat(format string) error {
	if format != "json" && format != "text" {
		return fmt.Errorf("unknown format %q (want json or text)", format)
	}
	return nil
}

func writeln(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}
