package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/doclens/backend/internal/domain"
	"github.com/doclens/backend/internal/infrastructure/extract"
	"github.com/doclens/backend/internal/infrastructure/watch"
	"github.com/doclens/backend/internal/worker"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newWatchCmd(rt *runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Analyze documents as they are dropped into a directory",
		Long: `Watch a directory and analyze every supported document created or
rewritten in it. Runs until interrupted.

Example:
  doclens watch ./inbox --format text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := outputFormat(format); err != nil {
				return err
			}

			log := rt.app.Logger.WithField("component", "watch")
			watcher, err := watch.New(args[0], watch.DefaultSettle, extract.Supported, log)
			if err != nil {
				return err
			}

			// A bulk copy settles many files at once; they wait for a
			// worker instead of being turned away.
			jobs, err := worker.NewJobRunner(rt.app.Config.Analysis.WorkerPoolSize,
				rt.app.Config.Analysis.JobRetention, log, worker.WithQueue(0))
			if err != nil {
				return err
			}
			defer jobs.Release(10 * time.Second)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.WithField("dir", args[0]).Info("watching for documents")
			return runWatch(ctx, watcher, jobs, rt.app.Analyses.AnalyzeFile, cmd.OutOrStdout(), format, log)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: json or text")
	return cmd
}

// analyzeFunc scores one file on disk
type analyzeFunc func(ctx context.Context, path string) (*domain.Analysis, error)

// runWatch hands each settled file to jobs and prints every analysis to out.
// The runner's pool bounds how many documents are analyzed at once.
func runWatch(ctx context.Context, watcher *watch.Watcher, jobs *worker.JobRunner, analyze analyzeFunc, out io.Writer, format string, log *logrus.Entry) error {
	var outMu sync.Mutex

	return watcher.Run(ctx, func(path string) {
		task := func(jobCtx context.Context) (*domain.Analysis, error) {
			analysis, err := analyze(jobCtx, path)
			if err != nil {
				log.WithError(err).WithField("file", path).Warn("analysis failed")
				return nil, err
			}

			outMu.Lock()
			defer outMu.Unlock()
			if err := writeAnalysis(out, analysis, format); err != nil {
				log.WithError(err).Warn("write failed")
			}
			return analysis, nil
		}

		if _, err := jobs.Submit(ctx, task); err != nil {
			log.WithError(err).WithField("file", path).Warn("could not queue analysis")
		}
	})
}
