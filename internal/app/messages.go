package app

import (
	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/play"
	"github.com/adityanavgire01/walkie-talkie/internal/settings"
	"github.com/adityanavgire01/walkie-talkie/internal/upload"
)

// RecordStartedMsg is sent when the microphone was acquired.
type RecordStartedMsg struct {
	Session audio.Session
}

// RecordFailedMsg is sent when a capture could not start.
type RecordFailedMsg struct {
	Err error
}

// TimerTickMsg advances the countdown of one recording session.
type TimerTickMsg struct {
	SessionID string
}

// CaptureCompleteMsg carries the packaged recording.
type CaptureCompleteMsg struct {
	Artifact audio.Artifact
	// Auto is set when the duration cap stopped the capture.
	Auto bool
	Err  error
}

// UploadCompleteMsg carries the outcome of an upload.
type UploadCompleteMsg struct {
	Result upload.Result
	Err    error
}

// PhaseMsg carries an upload progress hint.
type PhaseMsg struct {
	Phase upload.Phase
}

// HistoryLoadedMsg carries a freshly rendered history.
type HistoryLoadedMsg struct {
	View history.View
	Err  error
}

// PlaybackToggledMsg is the result of a playback toggle.
type PlaybackToggledMsg struct {
	Session play.Session
	Started bool
	Err     error
}

// PlaybackEndedMsg is sent when a playback finishes on its own.
type PlaybackEndedMsg struct {
	SessionID string
}

// SettingsLoadedMsg carries settings fetched from the backend.
type SettingsLoadedMsg struct {
	State settings.State
	Err   error
}

// SettingsChangedMsg carries the result of a preset, custom or context change.
type SettingsChangedMsg struct {
	State settings.State
	Err   error
	// Custom is set when the change came from the custom entry surface.
	Custom bool
}

// KeyResetMsg carries the result of a key reset.
type KeyResetMsg struct {
	State   settings.State
	Message string
	Err     error
}

// CloseSurfaceMsg closes the custom entry surface after the reset delay.
type CloseSurfaceMsg struct{}

// ClearStatusMsg clears a transient status line.
type ClearStatusMsg struct {
	Seq int
}
