package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/play"
	"github.com/adityanavgire01/walkie-talkie/internal/service"
	"github.com/adityanavgire01/walkie-talkie/internal/settings"
	"github.com/adityanavgire01/walkie-talkie/internal/upload"
)

// statusTimeout is how long transient status lines stay visible.
const statusTimeout = 4 * time.Second

// ReportTo returns an upload phase reporter that feeds ch.
func ReportTo(ch chan<- upload.Phase) func(upload.Phase) {
	return func(p upload.Phase) { ch <- p }
}

// waitForPhase blocks until the upload pipeline reports a phase.
func waitForPhase(ch <-chan upload.Phase) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return PhaseMsg{Phase: p}
	}
}

func startRecordingCmd(ctx context.Context, svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		s, err := svc.Recorder.BeginCapture(ctx)
		if err != nil {
			return RecordFailedMsg{Err: err}
		}
		return RecordStartedMsg{Session: s}
	}
}

// tickCmd schedules the next one-second countdown step.
func tickCmd(sessionID string) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TimerTickMsg{SessionID: sessionID}
	})
}

func stopRecordingCmd(ctx context.Context, svc *service.Service, auto bool) tea.Cmd {
	return func() tea.Msg {
		a, err := svc.Recorder.StopCapture(ctx)
		return CaptureCompleteMsg{Artifact: a, Auto: auto, Err: err}
	}
}

func uploadCmd(ctx context.Context, svc *service.Service, a audio.Artifact) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Submit(ctx, a)
		return UploadCompleteMsg{Result: res, Err: err}
	}
}

func reloadHistoryCmd(ctx context.Context, svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		v, err := svc.History.Reload(ctx)
		return HistoryLoadedMsg{View: v, Err: err}
	}
}

func clearHistoryCmd(ctx context.Context, svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		v, err := svc.ClearHistory(ctx)
		return HistoryLoadedMsg{View: v, Err: err}
	}
}

func togglePlaybackCmd(ctx context.Context, svc *service.Service, b history.Block) tea.Cmd {
	return func() tea.Msg {
		s, started, err := svc.TogglePlayback(ctx, b)
		return PlaybackToggledMsg{Session: s, Started: started, Err: err}
	}
}

// watchPlaybackCmd reports the natural end of a playback session.
func watchPlaybackCmd(s play.Session) tea.Cmd {
	if s.Done == nil {
		return nil
	}
	return func() tea.Msg {
		<-s.Done
		return PlaybackEndedMsg{SessionID: s.ID}
	}
}

func loadSettingsCmd(ctx context.Context, svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		s, err := svc.Settings.Load(ctx)
		return SettingsLoadedMsg{State: s, Err: err}
	}
}

func selectPresetCmd(ctx context.Context, svc *service.Service, size int) tea.Cmd {
	return func() tea.Msg {
		s, err := svc.Settings.SelectPreset(ctx, size)
		return SettingsChangedMsg{State: s, Err: err}
	}
}

func submitCustomCmd(ctx context.Context, svc *service.Service, size, key string) tea.Cmd {
	return func() tea.Msg {
		s, err := svc.Settings.SubmitCustom(ctx, size, key)
		return SettingsChangedMsg{State: s, Err: err, Custom: true}
	}
}

func setUseContextCmd(ctx context.Context, svc *service.Service, on bool) tea.Cmd {
	return func() tea.Msg {
		s, err := svc.Settings.SetUseContext(ctx, on)
		return SettingsChangedMsg{State: s, Err: err}
	}
}

func resetKeyCmd(ctx context.Context, svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		s, msg, err := svc.Settings.ResetKey(ctx)
		return KeyResetMsg{State: s, Message: msg, Err: err}
	}
}

func closeSurfaceCmd() tea.Cmd {
	return tea.Tick(settings.ResetDelay, func(time.Time) tea.Msg {
		return CloseSurfaceMsg{}
	})
}

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
