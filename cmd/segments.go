package cmd

import (
	"fmt"

	statusadapter "github.com/bnema/fleet-carrier-cli/internal/adapters/render/status"
	"github.com/spf13/cobra"
)

func newSegmentsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "segments",
		Short: "List journal segments and how far they have been read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := app.load(cmd.Context()); err != nil {
				return err
			}

			segments := app.tracker.Segments()
			app.save(cmd.Context())
			if asJSON {
				return writeJSON(cmd, segments)
			}
			rendered, err := statusadapter.RenderSegments(segments, statusadapter.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render segments: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print segments as JSON")

	return cmd
}
