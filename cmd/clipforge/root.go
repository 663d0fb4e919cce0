package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var backendFlag string
	var userFlag string

	cc := newCommandContext(&backendFlag, &userFlag)

	rootCmd := &cobra.Command{
		Use:           "clipforge",
		Short:         "Clipforge CLI: submit, track and manage AI video generations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Generation backend base URL (overrides BACKEND_BASE_URL)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Owning user id")

	rootCmd.AddCommand(newGenerateCommand(cc))
	rootCmd.AddCommand(newResumeCommand(cc))
	rootCmd.AddCommand(newVideosCommand(cc))
	rootCmd.AddCommand(newQueueCommand(cc))
	rootCmd.AddCommand(newChannelsCommand(cc))
	rootCmd.AddCommand(newScheduleCommand(cc))
	rootCmd.AddCommand(newHealthCommand(cc))

	return rootCmd
}
