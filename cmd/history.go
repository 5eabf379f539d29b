package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/service"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past exchanges, newest first",
	Long: `Fetch the conversation list from the backend and print it newest first.
With --offline the copy cached by the last successful fetch is shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")

		svc, err := service.New(cfg)
		if err != nil {
			return err
		}
		defer svc.Close()

		var view history.View
		if offline {
			view = svc.History.Cached()
		} else {
			view, err = svc.ReloadHistory(cmd.Context())
			if err != nil {
				slog.Warn("Falling back to cached history", "error", err)
				fmt.Fprintf(os.Stderr, "%s Showing cached history.\n", backend.UserMessage(err))
				view = svc.History.Cached()
			}
		}

		printView(os.Stdout, view)
		return nil
	},
}

func printView(w io.Writer, view history.View) {
	if line := view.StatsLine(); line != "" {
		fmt.Fprintf(w, "Memory: %s\n\n", line)
	}
	if view.Empty() {
		fmt.Fprintln(w, view.Placeholder)
		return
	}
	for _, e := range view.Entries {
		fmt.Fprintf(w, "#%d\n", e.ID)
		fmt.Fprintf(w, "  You:       %s\n", e.User.Text)
		fmt.Fprintf(w, "  Assistant: %s\n\n", e.Assistant.Text)
	}
}

func init() {
	historyCmd.Flags().Bool("offline", false, "show the locally cached history without contacting the backend")
}
