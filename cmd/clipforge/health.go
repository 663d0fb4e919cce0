package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the generation backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.ensure(); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if !cc.client.CheckHealth(ctx) {
				return fmt.Errorf("backend %s is unreachable", cc.cfg.BackendBaseURL)
			}
			fmt.Println("backend is healthy")
			return nil
		},
	}
}
