package cmd

import (
	"fmt"

	tomlreport "github.com/bnema/fleet-carrier-cli/internal/adapters/report/toml"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a TOML report of every carrier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exporter, err := tomlreport.NewExporter(out)
			if err != nil {
				return err
			}
			app, err := wireApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := loadWithSpinner(cmd.Context(), cmd.ErrOrStderr(), app); err != nil {
				return err
			}

			now := app.now()
			views := app.tracker.Carriers(now)
			if err := exporter.Export(cmd.Context(), views, now); err != nil {
				return fmt.Errorf("export carriers: %w", err)
			}
			app.save(cmd.Context())

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d carriers to %s\n", len(views), exporter.Path())
			return err
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "report file to write")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
