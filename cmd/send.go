package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/adityanavgire01/walkie-talkie/internal/play"
	"github.com/adityanavgire01/walkie-talkie/internal/service"
	"github.com/adityanavgire01/walkie-talkie/internal/upload"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [audio-file]",
	Short: "Send an existing recording to the assistant",
	Long: `Upload an audio file (wav, mp3, ogg, webm, m4a, flac) as if it had been
recorded, print the transcript and the reply, and play the reply.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		noPlay, _ := cmd.Flags().GetBool("no-play")

		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("cannot read %s: %w", path, err)
		}

		opts := []service.Option{service.WithPhaseReporter(phasePrinter(os.Stdout))}
		if noPlay {
			opts = append(opts, service.WithPlayer(mutedPlayer{}))
		}
		svc, err := service.New(cfg, opts...)
		if err != nil {
			return err
		}
		defer svc.Close()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		slog.Info("Sending audio file", "file", path)
		result, err := svc.SendFile(cmd.Context(), path)
		if err != nil {
			return userError(err)
		}
		return presentReply(svc, result, sigChan)
	},
}

// presentReply prints the exchange and blocks until the autoplayed reply
// finishes or the user interrupts it.
func presentReply(svc *service.Service, result upload.Result, sigChan <-chan os.Signal) error {
	fmt.Printf("You: %s\n", result.Conversation.UserText)
	fmt.Printf("Assistant: %s\n", result.Conversation.AIText)

	if result.ReloadErr != nil {
		slog.Warn("History refresh failed", "error", result.ReloadErr)
	}
	if result.AutoplayErr != nil {
		fmt.Fprintf(os.Stderr, "Could not play the reply: %v\n", result.AutoplayErr)
		return nil
	}
	if result.Playback == nil {
		return nil
	}

	select {
	case <-result.Playback.Done:
		svc.Playback.Ended(result.Playback.ID)
	case <-sigChan:
		svc.Playback.ForceStop()
	}
	return nil
}

// phasePrinter writes the label of each upload phase to w as it is reached.
func phasePrinter(w io.Writer) func(upload.Phase) {
	return func(p upload.Phase) {
		if label := p.Label(); label != "" {
			fmt.Fprintln(w, label)
		}
	}
}

// mutedPlayer satisfies play.Player without producing sound.
type mutedPlayer struct{}

func (mutedPlayer) Start(ctx context.Context, sourceURL string) (play.Playback, error) {
	slog.Debug("Reply not played", "url", sourceURL)
	return mutedPlayback{}, nil
}

type mutedPlayback struct{}

var finished = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func (mutedPlayback) Pause() error          { return nil }
func (mutedPlayback) Resume() error         { return nil }
func (mutedPlayback) Stop() error           { return nil }
func (mutedPlayback) Done() <-chan struct{} { return finished }

func init() {
	sendCmd.Flags().Bool("no-play", false, "do not play the reply")
}
