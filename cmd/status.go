package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	statusadapter "github.com/bnema/fleet-carrier-cli/internal/adapters/render/status"
	"github.com/bnema/fleet-carrier-cli/internal/application"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON  bool
		rebuild bool
		at      string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show every known carrier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd, opts)
			if err != nil {
				return err
			}
			now, err := evaluationTime(app, at)
			if err != nil {
				return err
			}

			if asJSON {
				err = app.load(cmd.Context())
			} else {
				err = loadWithSpinner(cmd.Context(), cmd.ErrOrStderr(), app)
			}
			if err != nil {
				return err
			}
			if rebuild {
				if err := app.tracker.Rebuild(cmd.Context()); err != nil {
					return fmt.Errorf("rebuild carriers: %w", err)
				}
			}

			if err := writeCarriersOutput(cmd, app, app.tracker.Carriers(now), now, asJSON); err != nil {
				return err
			}
			app.save(cmd.Context())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print carrier views as JSON")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "reconcile every retained event from scratch")
	cmd.Flags().StringVar(&at, "at", "", "evaluate statuses at this RFC3339 time instead of now")

	return cmd
}

func evaluationTime(app *app, at string) (time.Time, error) {
	if at == "" {
		return app.now(), nil
	}
	parsed, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --at: %w", err)
	}
	return parsed, nil
}

func writeCarriersOutput(cmd *cobra.Command, app *app, views []application.CarrierView, now time.Time, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, views)
	}

	rendered, err := app.statusRenderer(views, statusadapter.RenderOptions{Now: now})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
