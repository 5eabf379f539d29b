package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/service"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record one message without the UI",
	Long: fmt.Sprintf(`Record from the microphone until Enter or Ctrl+C is pressed (or the
%d second limit is reached), send the recording and play the reply.`, audio.MaxDurationSeconds),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		noPlay, _ := cmd.Flags().GetBool("no-play")
		ctx := cmd.Context()

		opts := []service.Option{service.WithPhaseReporter(phasePrinter(os.Stdout))}
		if noPlay {
			opts = append(opts, service.WithPlayer(mutedPlayer{}))
		}
		svc, err := service.New(cfg, opts...)
		if err != nil {
			return err
		}
		defer svc.Close()

		slog.Debug("Record command started")
		res, err := svc.ToggleRecording(ctx)
		if err != nil {
			return fmt.Errorf("failed to start recording: %s", backend.UserMessage(err))
		}

		// Handle interruption
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		enter := make(chan struct{})
		go func() {
			_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
			close(enter)
		}()

		fmt.Printf("● Recording... press Enter to stop (%ds left)", audio.MaxDurationSeconds)
		waitForStop(svc, res.Session.ID, enter, sigChan)
		fmt.Println()

		stopped, err := svc.ToggleRecording(context.WithoutCancel(ctx))
		if err != nil {
			return fmt.Errorf("failed to stop recording: %s", backend.UserMessage(err))
		}
		slog.Info("Recording finished", "duration", stopped.Artifact.Duration, "bytes", stopped.Artifact.Size)

		result, err := svc.Submit(ctx, stopped.Artifact)
		if err != nil {
			return userError(err)
		}
		return presentReply(svc, result, sigChan)
	},
}

// waitForStop drives the one-second countdown until the user stops the
// recording or the session reaches its limit.
func waitForStop(svc *service.Service, sessionID string, enter <-chan struct{}, sigChan <-chan os.Signal) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-enter:
			return
		case <-sigChan:
			return
		case <-ticker.C:
			tr := svc.Recorder.Tick(sessionID)
			if tr.Stale {
				return
			}
			fmt.Printf("\r● Recording... press Enter to stop (%ds left) ", tr.Session.Remaining())
			if tr.CapReached {
				fmt.Printf("\nReached the %d second limit.", audio.MaxDurationSeconds)
				return
			}
		}
	}
}

func init() {
	recordCmd.Flags().Bool("no-play", false, "do not play the reply")
}
