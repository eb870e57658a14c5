package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the snapshot cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the snapshot cache so the next run rescans the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd, opts)
			if err != nil {
				return err
			}
			if app.cachePath == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "cache disabled, nothing to clear")
				return err
			}
			if err := app.tracker.ClearCache(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", app.cachePath)
			return err
		},
	})

	return cacheCmd
}
