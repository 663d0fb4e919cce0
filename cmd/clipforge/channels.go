package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChannelsCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Manage publishing channels",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the user's channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.ensure(); err != nil {
				return err
			}
			userID, err := cc.userID()
			if err != nil {
				return err
			}
			gw, closePool, err := cc.gateway(cmd.Context())
			if err != nil {
				return err
			}
			defer closePool()

			channels, err := gw.ListChannels(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if len(channels) == 0 {
				fmt.Println("no channels")
				return nil
			}
			rows := make([][]string, 0, len(channels))
			for _, c := range channels {
				rows = append(rows, []string{
					c.ID,
					c.Name,
					displayLabel(c.Platform),
					c.Handle,
					displayLabel(c.DefaultVoice),
				})
			}
			fmt.Println(renderTable(
				[]string{"ID", "Name", "Platform", "Handle", "Default Voice"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.AddCommand(list)
	return cmd
}
