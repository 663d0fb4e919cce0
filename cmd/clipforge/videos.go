package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newVideosCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "videos",
		Short: "Manage the video library",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the user's videos",
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

			videos, err := gw.ListVideos(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if len(videos) == 0 {
				fmt.Println("no videos")
				return nil
			}
			rows := make([][]string, 0, len(videos))
			for _, v := range videos {
				rows = append(rows, []string{
					v.ID,
					v.Title,
					displayLabel(v.Voice),
					strconv.Itoa(v.DurationSeconds),
					string(v.Status),
					strconv.Itoa(v.ProcessingProgress) + "%",
					v.CreatedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Println(renderTable(
				[]string{"ID", "Title", "Voice", "Secs", "Status", "Progress", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <video-id>",
		Short: "Delete a video",
		Args:  cobra.ExactArgs(1),
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

			if err := gw.DeleteVideo(cmd.Context(), args[0], userID); err != nil {
				return err
			}
			fmt.Println("deleted", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, rm)
	return cmd
}
