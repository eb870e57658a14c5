package cmd

import "github.com/spf13/cobra"

type rootOptions struct {
	configPath string
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "fc",
		Short:         "Fleet carrier tracker (fc): follow carriers from the game journal",
		Long:          "fc tails the Elite Dangerous journal, reconstructs the state of every fleet carrier it mentions, and reports jump timers, fuel, finances, and trade orders.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default <user config dir>/fleet-carrier/config.toml)")
	flags.StringSlice("journal-dir", nil, "journal directory; repeat or comma-separate for several roots")
	flags.String("cache-dir", "", "directory holding the snapshot cache")
	flags.Bool("no-cache", false, "ignore and do not write the snapshot cache")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newStatusCmd(opts),
		newCarrierCmd(opts),
		newWatchCmd(opts),
		newSegmentsCmd(opts),
		newExportCmd(opts),
		newCacheCmd(opts),
	)

	return rootCmd
}
