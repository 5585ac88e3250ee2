package main

import (
	"github.com/spf13/cobra"

	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/startup"
)

func newRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "webm-trimmer",
		Short:         "Trim and transcode videos to WebM with ffmpeg",
		Version:       startup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				logging.SetLevel(logging.LevelDebug)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newEncodeCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newPasswordCommand())

	return rootCmd
}
