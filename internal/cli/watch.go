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

	"github.com/AbdelazizMoustafa10m/StepBar/internal/buildinfo"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/logging"
	"github.com/AbdelazizMoustafa10m/StepBar/internal/tui"
)

// errNotTerminal is returned when watch is started without a terminal.
var errNotTerminal = errors.New("watch needs an interactive terminal; use \"stepbar run\" instead")

// watchFlags holds parsed flags for the watch command.
type watchFlags struct {
	sessionFlags
	Run bool
}

var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the interactive progress view",
		Long: `Open a full-screen view listing every step with its live elapsed time,
an overall progress bar and the total elapsed time.

Keys:
  r / enter  start a run (rejected while one is in progress)
  ?          toggle key help
  q / ctrl+c quit; a run still in flight is cancelled`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, flags)
		},
	}

	registerSessionFlags(cmd, &flags.sessionFlags)
	cmd.Flags().BoolVar(&flags.Run, "run", false, "Start a run immediately")
	return cmd
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, flags watchFlags) error {
	if !isStdoutTTY() {
		return errNotTerminal
	}

	s, err := newSession(flags.sessionFlags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger := logging.New("watch")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events, unsubscribe := s.ctrl.Subscribe(eventBuffer)
	defer unsubscribe()

	appCfg := tui.AppConfig{
		Version: buildinfo.GetInfo().Version,
		Title:   s.resolved.Config.Run.Name,
		AutoRun: flags.Run,
		NoColor: flagNoColor,
	}
	logger.Info("launching watch view", "name", appCfg.Title, "steps", len(s.ctrl.Steps()), "fingerprint", s.fingerprint)

	g, gctx := errgroup.WithContext(ctx)
	uiCtx, stopUI := context.WithCancel(gctx)
	g.Go(func() error {
		defer stopUI()
		return tui.Run(uiCtx, appCfg, s.ctrl, events)
	})
	g.Go(func() error {
		// Quitting the view cancels uiCtx, which also cancels a run started
		// from it; disposing then releases the steps and event channels.
		<-uiCtx.Done()
		s.ctrl.Dispose()
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
