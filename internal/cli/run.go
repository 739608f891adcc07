package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AbdelazizMoustafa10m/StepBar/internal/logging"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/workflow"
)

// runFlags holds parsed flags for the run command.
type runFlags struct {
	sessionFlags
	JSON bool
}

var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all steps once and print progress",
		Long: `Run every configured step in order and print a line as each step
starts and finishes, followed by a summary bar.

With --json, every controller event (including the periodic elapsed-time
samples) is written to stdout as one JSON object per line, followed by a
final summary object.

Examples:
  stepbar run
  stepbar run --only 'Scan*' --only 'Save data'
  stepbar run --interval 250ms --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, flags)
		},
	}

	registerSessionFlags(cmd, &flags.sessionFlags)
	cmd.Flags().BoolVar(&flags.JSON, "json", false, "Write events and the final snapshot as NDJSON")
	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// registerSessionFlags adds the flags shared by run and watch.
func registerSessionFlags(cmd *cobra.Command, f *sessionFlags) {
	cmd.Flags().StringArrayVar(&f.Only, "only", nil, "Run only steps whose name matches this glob (repeatable)")
	cmd.Flags().StringVar(&f.Name, "name", "", "Run name shown in output (env: STEPBAR_RUN_NAME)")
	cmd.Flags().StringVar(&f.Interval, "interval", "", "Elapsed-time sample interval, e.g. 100ms (env: STEPBAR_SAMPLE_INTERVAL)")
}

func runRun(cmd *cobra.Command, flags runFlags) error {
	// The printer takes every event through the observer callback rather
	// than a subscription, which drops events when the writer falls behind.
	queue := newEventQueue()
	s, err := newSession(flags.sessionFlags, cmd.ErrOrStderr(), workflow.WithObserver(queue.push))
	if err != nil {
		return err
	}
	logger := logging.New("run")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	total := len(s.ctrl.Steps())
	printer := newPrinter(cmd.OutOrStdout(), flags.JSON, s.resolved.Config.Run.Name, total, flagNoColor)

	logger.Info("starting run", "name", s.resolved.Config.Run.Name, "steps", total, "fingerprint", s.fingerprint)

	var final workflow.RunSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			ev, ok := queue.next()
			if !ok {
				return nil
			}
			if err := printer.Print(ev); err != nil {
				return fmt.Errorf("writing progress: %w", err)
			}
		}
	})
	g.Go(func() error {
		defer queue.close()
		defer s.ctrl.Dispose()
		runErr := s.ctrl.Run(gctx)
		final = s.ctrl.Snapshot()
		return runErr
	})

	runErr := g.Wait()
	if err := printer.Summary(final); err != nil && runErr == nil {
		runErr = fmt.Errorf("writing summary: %w", err)
	}

	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Run cancelled.")
	}
	return runErr
}
