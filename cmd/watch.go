package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/fleet-carrier-cli/internal/adapters/watch"
	"github.com/bnema/fleet-carrier-cli/internal/application"
	"github.com/spf13/cobra"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the journal and print carrier status changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.load(ctx); err != nil {
				return err
			}
			if !quiet {
				if err := writeCarriersOutput(cmd, app, app.tracker.Carriers(app.now()), app.now(), false); err != nil {
					return err
				}
			}

			var triggers <-chan string
			watcher, err := watch.NewWatcher(app.cfg.Journal.Roots, app.cfg.Journal.Prefix, watch.WithLogger(app.logger))
			if err != nil {
				return err
			}
			if err := watcher.Start(); err != nil {
				app.logger.Warn("journal watcher unavailable, polling only", "err", err)
			} else {
				defer watcher.Stop()
				triggers = watcher.Changes
			}

			changes, unsubscribe := app.tracker.Subscribe()
			defer unsubscribe()

			printed := make(chan struct{})
			go func() {
				defer close(printed)
				for change := range changes {
					app.logger.Info("status changed",
						"carrier", change.CarrierID,
						"callsign", change.Callsign,
						"from", change.From,
						"to", change.To,
					)
					_ = writeStatusChange(cmd.OutOrStdout(), change)
				}
			}()

			err = app.tracker.Run(ctx, triggers)
			<-printed
			return err
		},
	}

	cmd.Flags().BoolVar(&quiet, "quiet", false, "do not print the initial status")

	return cmd
}

func writeStatusChange(w io.Writer, change application.StatusChange) error {
	name := change.Name
	if name == "" {
		name = change.Callsign
	}
	_, err := fmt.Fprintf(w, "%s  %s (%s): %s -> %s\n",
		change.At.Local().Format("15:04:05"), name, change.Callsign, change.From.Label(), change.To.Label())
	return err
}
