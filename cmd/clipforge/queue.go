package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newQueueCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the deferred generation queue",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List queued requests in position order",
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

			items, err := gw.ListQueue(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println("queue is empty")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{
					strconv.Itoa(it.Position),
					it.ID,
					it.Prompt,
					displayLabel(it.Voice),
					strconv.Itoa(it.Duration),
				})
			}
			fmt.Println(renderTable(
				[]string{"#", "ID", "Prompt", "Voice", "Secs"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Remove a queued request",
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

			if err := gw.DeleteQueueItem(cmd.Context(), args[0], userID); err != nil {
				return err
			}
			fmt.Println("removed", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, rm)
	return cmd
}
