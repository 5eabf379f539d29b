package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/service"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [conversation-id]",
	Short: "Play the audio of a past exchange",
	Long: `Play the assistant's reply of the given conversation, or with --input
the user's original recording. IDs are shown by 'walkie-talkie history'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid conversation id %q", args[0])
		}
		input, _ := cmd.Flags().GetBool("input")

		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		view, err := svc.ReloadHistory(cmd.Context())
		if err != nil {
			return userError(err)
		}

		block, ok := findBlock(view, id, input)
		if !ok {
			return fmt.Errorf("conversation %d not found", id)
		}
		if block.AudioURL == "" {
			return fmt.Errorf("conversation %d has no audio", id)
		}

		sess, _, err := svc.TogglePlayback(cmd.Context(), block)
		if err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}
		fmt.Printf("Playing %s\n", block.AudioURL)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case <-sess.Done:
			svc.Playback.Ended(sess.ID)
		case <-sigChan:
			svc.Playback.ForceStop()
		}
		return nil
	},
}

func findBlock(view history.View, id int, input bool) (history.Block, bool) {
	for _, e := range view.Entries {
		if e.ID != id {
			continue
		}
		if input {
			return e.User, true
		}
		return e.Assistant, true
	}
	return history.Block{}, false
}

func init() {
	playCmd.Flags().Bool("input", false, "play the user's recording instead of the reply")
}
