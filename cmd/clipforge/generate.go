package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/domain"
	"clipforge/internal/generation"
	"clipforge/internal/transport"
)

func newGenerateCommand(cc *commandContext) *cobra.Command {
	var prompt, voice, title, description string
	var duration int
	var save, noRetry bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Submit a video generation and follow it to the artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := cc.ensure(); err != nil {
				return err
			}
			if err := cc.waitForBackend(ctx); err != nil {
				return err
			}

			req := transport.Request{
				Prompt:      prompt,
				Voice:       voice,
				Duration:    duration,
				Title:       title,
				Description: description,
			}

			updates := make(chan generation.Snapshot, 64)
			ctrl, err := generation.NewController(generation.Config{
				Backend: cc.client,
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

			if err := ctrl.StartGeneration(ctx, req); err != nil {
				return err
			}

			snap, err := followJob(ctx, ctrl, updates, !noRetry)
			if err != nil {
				return err
			}

			fmt.Printf("completed: %s\n", snap.ArtifactURL)

			if save {
				if err := saveVideo(ctx, cc, req, snap); err != nil {
					return fmt.Errorf("video generated but not saved: %w", err)
				}
				fmt.Println("saved to library")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "What the video should be about")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice id for the narration")
	cmd.Flags().IntVarP(&duration, "duration", "d", 60, "Target duration in seconds")
	cmd.Flags().StringVar(&title, "title", "", "Optional title")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the completed video to the library")
	cmd.Flags().BoolVar(&noRetry, "no-retry", false, "Do not retry automatically on failure")
	_ = cmd.MarkFlagRequired("prompt")
	_ = cmd.MarkFlagRequired("voice")

	return cmd
}

// followJob renders progress until the job finishes, retrying failed
// attempts (with the controller's backoff) while the budget allows.
func followJob(ctx context.Context, ctrl *generation.Controller, updates <-chan generation.Snapshot, autoRetry bool) (generation.Snapshot, error) {
	for {
		snap, err := waitTerminal(ctx, ctrl, updates)
		if err != nil {
			return snap, err
		}
		if snap.Job.Status == generation.StatusCompleted {
			return snap, nil
		}

		failure := snap.Retry.LastError
		if failure == "" {
			failure = snap.Job.Message
		}
		if !autoRetry || !snap.Retry.CanRetry() {
			return snap, fmt.Errorf("generation failed: %s", failure)
		}

		if err := ctrl.Retry(ctx); err != nil {
			return snap, err
		}
		attempt := ctrl.Snapshot().Retry.Attempts
		fmt.Printf("attempt failed (%s); retrying %d of %d\n", failure, attempt, generation.MaxRetryAttempts)
		if err := waitRestart(ctx, ctrl, generation.RetryDelay(attempt)); err != nil {
			return ctrl.Snapshot(), err
		}
	}
}

// waitTerminal consumes snapshots until the job reaches a terminal state.
// After completion it lingers briefly for the artifact URL fetch.
func waitTerminal(ctx context.Context, ctrl *generation.Controller, updates <-chan generation.Snapshot) (generation.Snapshot, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	last := ctrl.Snapshot()
	var lastLine string
	var completedAt time.Time

	for {
		line := formatProgress(last)
		if line != lastLine && line != "" {
			fmt.Println(line)
			lastLine = line
		}

		switch last.Job.Status {
		case generation.StatusCompleted:
			if last.ArtifactURL != "" {
				return last, nil
			}
			if completedAt.IsZero() {
				completedAt = time.Now()
			}
			if time.Since(completedAt) > 5*time.Second {
				// Preview lookup never landed; report completion without it.
				return last, nil
			}
		case generation.StatusFailed:
			return last, nil
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case snap := <-updates:
			last = snap
		case <-ticker.C:
			last = ctrl.Snapshot()
		}
	}
}

// waitRestart waits for the scheduled retry to resubmit (the job leaves the
// failed state) or gives up shortly after the backoff delay has passed.
func waitRestart(ctx context.Context, ctrl *generation.Controller, delay time.Duration) error {
	deadline := time.Now().Add(delay + 5*time.Second)
	for {
		if ctrl.Snapshot().Job.Status != generation.StatusFailed {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("retry did not resubmit in time")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func formatProgress(snap generation.Snapshot) string {
	job := snap.Job
	if job.Status == generation.StatusIdle {
		return ""
	}
	parts := make([]string, 0, 2)
	if job.Step != "" {
		parts = append(parts, displayLabel(job.Step))
	}
	if job.Message != "" {
		parts = append(parts, job.Message)
	}
	return fmt.Sprintf("%-10s %3d%%  %s", job.Status, job.Progress, strings.Join(parts, " - "))
}

// saveVideo persists the completed generation as a library record.
func saveVideo(ctx context.Context, cc *commandContext, req transport.Request, snap generation.Snapshot) error {
	userID, err := cc.userID()
	if err != nil {
		return err
	}
	gw, closePool, err := cc.gateway(ctx)
	if err != nil {
		return err
	}
	defer closePool()

	rec := &domain.VideoRecord{
		UserID:             userID,
		Title:              req.Title,
		Prompt:             req.Prompt,
		Voice:              req.Voice,
		DurationSeconds:    req.Duration,
		Status:             domain.VideoStatusCompleted,
		ProcessingProgress: 100,
		VideoURL:           snap.ArtifactURL,
	}
	return gw.CreateVideo(ctx, rec)
}
