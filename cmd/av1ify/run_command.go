package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"av1ify/internal/history"
	"av1ify/internal/logging"
	"av1ify/internal/queue"
	"av1ify/internal/services/abav1"
	"av1ify/internal/worker"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the queue until it is empty or stopped",
		Long: "Process queue items one at a time. The first interrupt finishes the\n" +
			"current item and stops; a second interrupt aborts the in-flight encode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			client, err := abav1.New(cfg, logger)
			if err != nil {
				return err
			}

			hist := history.NewStore(cfg.HistoryPath(), logger)
			if err := hist.Load(); err != nil {
				return err
			}

			store, err := queue.Open(cfg.QueueDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			session := &worker.Session{}
			w := worker.New(cfg, store, hist, client, client, session, logger)
			if isatty.IsTerminal(os.Stdout.Fd()) {
				w.OnProgress = printProgress
			}

			signals := make(chan os.Signal, 2)
			signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(signals)
			go func() {
				<-signals
				fmt.Fprintln(cmd.ErrOrStderr(), "\nStopping after the current item (interrupt again to abort it)")
				session.RequestStop()
				<-signals
				fmt.Fprintln(cmd.ErrOrStderr(), "\nAborting the in-flight operation")
				session.RequestForceStop()
			}()

			if err := w.Run(cmd.Context()); err != nil {
				return err
			}
			// Leftover partial line from the progress display.
			if w.OnProgress != nil {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

// printProgress rewrites a single status line in place.
func printProgress(item *queue.Item, file string, p abav1.Progress) {
	phase := p.Phase
	if phase == "" {
		phase = "working"
	}
	fmt.Printf("\r\033[K#%d %s: %s %.1f%%", item.ID, file, phase, p.Percent)
}
