// Package app is the interactive terminal client. Its bubbletea Model is
// the single dispatcher for key presses, timer ticks, capture and upload
// completions and playback events.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/service"
	"github.com/adityanavgire01/walkie-talkie/internal/settings"
	"github.com/adityanavgire01/walkie-talkie/internal/store"
	"github.com/adityanavgire01/walkie-talkie/internal/ui"
	"github.com/adityanavgire01/walkie-talkie/internal/upload"
)

type mode int

const (
	modeNormal mode = iota
	modeCustom
	modeConfirmClear
)

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	svc     *service.Service
	phaseCh <-chan upload.Phase
	theme   ui.Theme

	// Recording state
	recStatus audio.Status
	recording audio.Session

	// Upload hint
	phase upload.Phase

	// History
	view     history.View
	selected int

	// Settings
	settings settings.State
	mode     mode
	custom   *customForm

	// UI state
	width  int
	height int

	// Messages
	status    string
	statusSeq int
	errMsg    string
	// alert is a blocking error that must be dismissed.
	alert string
}

// New creates the model. phaseCh is the channel the upload pipeline
// reports to (see ReportTo); it may be nil.
func New(ctx context.Context, svc *service.Service, phaseCh <-chan upload.Phase) Model {
	return Model{
		ctx:       ctx,
		svc:       svc,
		phaseCh:   phaseCh,
		theme:     ui.ForName(svc.Theme()),
		recStatus: audio.StatusIdle,
		view:      svc.History.Cached(),
		settings:  svc.Settings.LoadCached(),
	}
}

// Init reconciles history and settings with the backend.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		reloadHistoryCmd(m.ctx, m.svc),
		loadSettingsCmd(m.ctx, m.svc),
		waitForPhase(m.phaseCh),
	)
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case RecordStartedMsg:
		m.recStatus = audio.StatusCapturing
		m.recording = msg.Session
		m.errMsg = ""
		return m, tickCmd(msg.Session.ID)

	case RecordFailedMsg:
		m.recStatus = m.svc.Recorder.Status()
		if errors.Is(msg.Err, audio.ErrAlreadyCapturing) || errors.Is(msg.Err, audio.ErrBusy) {
			return m, nil
		}
		text := errorText(msg.Err)
		m.alert = text
		m.svc.Notifier.Alert(text)
		return m, nil

	case TimerTickMsg:
		if m.recStatus != audio.StatusCapturing {
			return m, nil
		}
		res := m.svc.Recorder.Tick(msg.SessionID)
		if res.Stale {
			return m, nil
		}
		m.recording = res.Session
		if res.CapReached {
			slog.Info("Recording reached the duration cap", "session", msg.SessionID)
			m.recStatus = audio.StatusStopping
			return m, stopRecordingCmd(m.ctx, m.svc, true)
		}
		return m, tickCmd(msg.SessionID)

	case CaptureCompleteMsg:
		if errors.Is(msg.Err, audio.ErrBusy) {
			// another stop is already packaging this session
			return m, nil
		}
		m.recStatus = audio.StatusIdle
		m.recording = audio.Session{}
		if msg.Auto {
			m.svc.Notifier.Info(fmt.Sprintf("Recording stopped at the %d second limit", audio.MaxDurationSeconds))
		}
		if msg.Err != nil {
			if errors.Is(msg.Err, audio.ErrEmptyRecording) {
				return m.setStatus("No audio was captured.")
			}
			m.errMsg = errorText(msg.Err)
			return m, nil
		}
		m.phase = upload.PhaseTranscribing
		return m, uploadCmd(m.ctx, m.svc, msg.Artifact)

	case PhaseMsg:
		m.phase = msg.Phase
		return m, waitForPhase(m.phaseCh)

	case UploadCompleteMsg:
		m.phase = upload.PhaseIdle
		if msg.Err != nil {
			text := backend.UserMessage(msg.Err)
			m.alert = text
			m.svc.Notifier.Alert(text)
			return m, nil
		}
		res := msg.Result
		if res.ReloadErr == nil {
			m.setView(res.View)
			m.selected = 0
		}
		var cmd tea.Cmd
		if res.Playback != nil {
			cmd = watchPlaybackCmd(*res.Playback)
		}
		if res.AutoplayErr != nil {
			m.errMsg = fmt.Sprintf("Could not play the reply: %v", res.AutoplayErr)
		}
		return m, cmd

	case HistoryLoadedMsg:
		if msg.Err != nil {
			m.errMsg = errorText(msg.Err)
			return m, nil
		}
		m.setView(msg.View)
		return m, nil

	case PlaybackToggledMsg:
		if msg.Err != nil {
			m.errMsg = errorText(msg.Err)
			return m, nil
		}
		if msg.Started {
			return m, watchPlaybackCmd(msg.Session)
		}
		return m, nil

	case PlaybackEndedMsg:
		m.svc.Playback.Ended(msg.SessionID)
		return m, nil

	case SettingsLoadedMsg:
		if msg.Err != nil {
			slog.Warn("Failed to load settings", "error", msg.Err)
			return m, nil
		}
		m.settings = msg.State
		return m, nil

	case SettingsChangedMsg:
		return m.handleSettingsChanged(msg)

	case KeyResetMsg:
		m.settings = msg.State
		if m.custom != nil {
			m.custom.busy = false
			if msg.Err != nil {
				m.custom.errMsg = errorText(msg.Err)
				m.custom.infoMsg = ""
				return m, nil
			}
			m.custom.infoMsg = msg.Message
			m.custom.closing = true
			m.setView(m.svc.History.Last())
			return m, closeSurfaceCmd()
		}
		if msg.Err != nil {
			m.errMsg = errorText(msg.Err)
			return m, nil
		}
		return m.setStatus(msg.Message)

	case CloseSurfaceMsg:
		if m.custom != nil && m.custom.closing {
			return m.closeCustom(), nil
		}
		return m, nil

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleSettingsChanged(msg SettingsChangedMsg) (tea.Model, tea.Cmd) {
	m.settings = msg.State

	if msg.Custom && m.custom != nil {
		m.custom.busy = false
		if msg.Err != nil {
			m.custom.errMsg = errorText(msg.Err)
			m.custom.infoMsg = ""
			return m, nil
		}
		m = m.closeCustom()
		m.setView(m.svc.History.Last())
		return m.setStatus(fmt.Sprintf("Custom mode enabled. Memory size %d.", msg.State.Size))
	}

	if msg.Err != nil {
		m.errMsg = errorText(msg.Err)
		return m, nil
	}
	m.errMsg = ""
	m.setView(m.svc.History.Last())
	return m.setStatus("Settings updated.")
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == KeyCtrlC {
		return m, tea.Quit
	}

	if m.alert != "" {
		switch key {
		case KeyEnter, KeyEsc, KeySpace:
			m.alert = ""
		}
		return m, nil
	}

	switch m.mode {
	case modeCustom:
		return m.updateCustom(msg)
	case modeConfirmClear:
		m.mode = modeNormal
		if key == KeyConfirm {
			return m, clearHistoryCmd(m.ctx, m.svc)
		}
		return m.setStatus("Clear cancelled.")
	}

	switch key {
	case KeyQuit:
		return m, tea.Quit

	case KeySpace:
		switch m.recStatus {
		case audio.StatusIdle:
			return m, startRecordingCmd(m.ctx, m.svc)
		case audio.StatusCapturing:
			m.recStatus = audio.StatusStopping
			return m, stopRecordingCmd(m.ctx, m.svc, false)
		}
		return m, nil

	case KeyUp, KeyK:
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case KeyDown, KeyJ:
		if n := len(m.view.Blocks()); m.selected < n-1 {
			m.selected++
		}
		return m, nil

	case KeyEnter, KeyPlay:
		blocks := m.view.Blocks()
		if m.selected >= len(blocks) {
			return m, nil
		}
		return m, togglePlaybackCmd(m.ctx, m.svc, blocks[m.selected])

	case KeyStopAudio:
		m.svc.Playback.ForceStop()
		return m, nil

	case KeyPreset1, KeyPreset2, KeyPreset3:
		i, _ := strconv.Atoi(key)
		return m, selectPresetCmd(m.ctx, m.svc, settings.Presets[i-1])

	case KeyCustom:
		return m.openCustom()

	case KeyUseContext:
		return m, setUseContextCmd(m.ctx, m.svc, !m.settings.UseContext)

	case KeyTheme:
		m.theme = m.theme.Toggle()
		if err := m.svc.SetTheme(m.theme.Name); err != nil {
			slog.Warn("Failed to persist theme", "error", err)
		}
		return m, nil

	case KeyReload:
		m.svc.Playback.ForceStop()
		return m, reloadHistoryCmd(m.ctx, m.svc)

	case KeyClear:
		m.mode = modeConfirmClear
		return m, nil
	}

	return m, nil
}

func (m *Model) setView(v history.View) {
	m.view = v
	if n := len(v.Blocks()); m.selected >= n {
		m.selected = max(0, n-1)
	}
}

func (m Model) setStatus(text string) (Model, tea.Cmd) {
	m.statusSeq++
	m.status = text
	return m, clearStatusCmd(m.statusSeq)
}

// errorText is the user-facing text for any error the TUI shows.
func errorText(err error) string {
	switch {
	case errors.Is(err, audio.ErrEmptyRecording):
		return "No audio was captured."
	case errors.Is(err, audio.ErrBusy):
		return "Still finishing the last recording."
	}
	return backend.UserMessage(err)
}

// ThemeName returns the active theme name.
func (m Model) ThemeName() string {
	if m.theme.Name == "" {
		return store.DefaultTheme
	}
	return m.theme.Name
}

func itoa(n int) string { return strconv.Itoa(n) }
