package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clipforge/internal/generation"
)

func newResumeCommand(cc *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Re-attach to an ongoing generation after a restart",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := cc.ensure(); err != nil {
				return err
			}
			userID, err := cc.userID()
			if err != nil {
				return err
			}
			if err := cc.waitForBackend(ctx); err != nil {
				return err
			}

			gw, closePool, err := cc.gateway(ctx)
			if err != nil {
				return err
			}
			defer closePool()
			go func() {
				if err := gw.Run(ctx); err != nil && ctx.Err() == nil {
					cc.logger.Error().Err(err).Msg("realtime watcher stopped")
				}
			}()

			updates := make(chan generation.Snapshot, 64)
			ctrl, err := generation.NewController(generation.Config{
				Backend: cc.client,
				Records: gw,
				Logger:  cc.logger,
				OnChange: func(s generation.Snapshot) {
					select {
					case updates <- s:
					default:
					}
				},
			})
			if err != nil {
				return err
			}
			defer ctrl.Reset()

			if err := ctrl.ResumeIfOngoing(ctx, userID); err != nil {
				return err
			}
			if ctrl.Snapshot().Job.Status == generation.StatusIdle {
				fmt.Println("no ongoing generation")
				return nil
			}

			// No original request survives a restart, so there is nothing
			// to retry here; failures are terminal.
			snap, err := followJob(ctx, ctrl, updates, false)
			if err != nil {
				return err
			}
			fmt.Printf("completed: %s\n", snap.ArtifactURL)
			return nil
		},
	}
	return cmd
}
