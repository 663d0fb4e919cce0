package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScheduleCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect scheduled publications",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List scheduled videos in publish order",
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

			schedules, err := gw.ListSchedules(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if len(schedules) == 0 {
				fmt.Println("nothing scheduled")
				return nil
			}
			rows := make([][]string, 0, len(schedules))
			for _, sv := range schedules {
				rows = append(rows, []string{
					sv.ID,
					sv.VideoID,
					sv.ChannelID,
					sv.PublishAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Println(renderTable(
				[]string{"ID", "Video", "Channel", "Publish At"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.AddCommand(list)
	return cmd
}
