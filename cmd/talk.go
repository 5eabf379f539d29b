package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adityanavgire01/walkie-talkie/internal/app"
	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/service"
	"github.com/adityanavgire01/walkie-talkie/internal/upload"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var talkCmd = &cobra.Command{
	Use:   "talk",
	Short: "Open the interactive push-to-talk UI",
	Long: `Open the full-screen terminal UI. Press space to start and stop a
recording; the reply is played automatically when it arrives.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTalk(cmd.Context())
	},
}

func runTalk(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	phaseCh := make(chan upload.Phase, 16)
	svc, err := service.New(cfg, service.WithPhaseReporter(app.ReportTo(phaseCh)))
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Warn("Failed to close service", "error", err)
		}
	}()

	p := tea.NewProgram(app.New(ctx, svc, phaseCh), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	// Quitting mid-recording must still release the microphone.
	if svc.Recorder.Status() == audio.StatusCapturing {
		if a, err := svc.Recorder.StopCapture(context.Background()); err == nil {
			_ = a.Remove()
		}
	}

	if runErr != nil {
		return fmt.Errorf("terminal UI: %w", runErr)
	}
	return nil
}
