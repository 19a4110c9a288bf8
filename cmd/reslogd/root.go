package main

import (
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/reslog/internal/config"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	flagged := config.Default()

	root := &cobra.Command{
		Use:           "reslogd",
		Short:         "Log system resource usage to a resumable TSV file",
		Long:          "reslogd polls kernel counters on a fixed interval and appends one tab-separated record per tick.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), flagged)
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg)
		},
	}
	config.BindFlags(root.PersistentFlags(), &flagged)

	root.AddCommand(newSourcesCommand(&flagged))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("reslogd " + version)
		},
	})
	return root
}
