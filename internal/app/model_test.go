package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/config"
	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/play"
	"github.com/adityanavgire01/walkie-talkie/internal/service"
	"github.com/adityanavgire01/walkie-talkie/internal/settings"
	"github.com/adityanavgire01/walkie-talkie/internal/upload"
)

type stubMic struct{ err error }

func (m stubMic) Open(context.Context, audio.Format) (audio.Capture, error) {
	if m.err != nil {
		return nil, m.err
	}
	return stubCapture{}, nil
}

type stubCapture struct{}

func (stubCapture) Stop() ([][]byte, error) { return [][]byte{make([]byte, 1600)}, nil }

type stubPlayer struct{}

func (stubPlayer) Start(context.Context, string) (play.Playback, error) {
	return &stubPlayback{done: make(chan struct{})}, nil
}

type stubPlayback struct {
	done   chan struct{}
	closed bool
}

func (p *stubPlayback) Pause() error  { return nil }
func (p *stubPlayback) Resume() error { return nil }
func (p *stubPlayback) Stop() error {
	if !p.closed {
		p.closed = true
		close(p.done)
	}
	return nil
}
func (p *stubPlayback) Done() <-chan struct{} { return p.done }

const conversationJSON = `{"id": 1, "user_text": "<b>hi</b>", "ai_text": "hello", "input_audio_url": "/audio/input_1.wav", "output_audio_url": "/audio/output_1.mp3"}`

func newTestModel(t *testing.T, mic audio.Microphone) (Model, *int64) {
	t.Helper()

	var hits int64
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		switch r.URL.Path {
		case "/api/process":
			fmt.Fprint(w, conversationJSON)
		case "/api/conversations":
			fmt.Fprint(w, "["+conversationJSON+"]")
		case "/api/stats":
			fmt.Fprint(w, `{"count": 1, "limit": 5}`)
		default:
			fmt.Fprint(w, `{"status": "ok"}`)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Server.URL = srv.URL
	cfg.Store.Path = filepath.Join(t.TempDir(), "state.sqlite")
	cfg.UI.Notifications = false

	svc, err := service.New(cfg, service.WithMicrophone(mic), service.WithPlayer(stubPlayer{}))
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	return New(context.Background(), svc, nil), &hits
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func startRecording(t *testing.T, m Model) (Model, audio.Session) {
	t.Helper()
	m, cmd := update(t, m, key(" "))
	if cmd == nil {
		t.Fatal("space should start a recording")
	}
	started, ok := cmd().(RecordStartedMsg)
	if !ok {
		t.Fatal("expected RecordStartedMsg")
	}
	m, cmd = update(t, m, started)
	if cmd == nil {
		t.Fatal("a started recording should schedule a tick")
	}
	return m, started.Session
}

func TestNewModel(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})
	if m.recStatus != audio.StatusIdle {
		t.Errorf("recStatus = %s, want IDLE", m.recStatus)
	}
	if m.settings != settings.Preset(settings.DefaultSize) {
		t.Errorf("settings = %+v, want default preset", m.settings)
	}
	if m.ThemeName() != "dark" {
		t.Errorf("theme = %s, want dark", m.ThemeName())
	}
}

func TestEmptyHistoryShowsPlaceholder(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})
	if !strings.Contains(m.View(), history.EmptyPlaceholder) {
		t.Error("empty history should render the placeholder")
	}
}

func TestRecordingLifecycleUntilCap(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})
	m, session := startRecording(t, m)

	if m.recStatus != audio.StatusCapturing {
		t.Fatalf("recStatus = %s, want CAPTURING", m.recStatus)
	}

	var cmd tea.Cmd
	for i := 1; i < audio.MaxDurationSeconds; i++ {
		m, cmd = update(t, m, TimerTickMsg{SessionID: session.ID})
		if m.recording.ElapsedSeconds != i {
			t.Fatalf("elapsed = %d after %d ticks", m.recording.ElapsedSeconds, i)
		}
		if m.recStatus != audio.StatusCapturing {
			t.Fatalf("stopped early at tick %d", i)
		}
	}

	m, cmd = update(t, m, TimerTickMsg{SessionID: session.ID})
	if m.recStatus != audio.StatusStopping {
		t.Fatalf("recStatus = %s after cap, want STOPPING", m.recStatus)
	}
	complete, ok := cmd().(CaptureCompleteMsg)
	if !ok {
		t.Fatal("cap should stop the capture")
	}
	if !complete.Auto || complete.Err != nil {
		t.Fatalf("unexpected capture result: %+v", complete)
	}

	m, cmd = update(t, m, complete)
	if m.recStatus != audio.StatusIdle {
		t.Errorf("countdown should reset immediately, got %s", m.recStatus)
	}
	if m.phase != upload.PhaseTranscribing {
		t.Errorf("phase = %q, want transcribing", m.phase)
	}

	done, ok := cmd().(UploadCompleteMsg)
	if !ok {
		t.Fatal("expected UploadCompleteMsg")
	}
	if done.Err != nil {
		t.Fatalf("upload failed: %v", done.Err)
	}

	m, _ = update(t, m, done)
	if m.phase != upload.PhaseIdle {
		t.Errorf("phase should clear after upload, got %q", m.phase)
	}
	if len(m.view.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(m.view.Entries))
	}
	if !strings.Contains(m.View(), "&lt;b&gt;hi&lt;/b&gt;") {
		t.Error("message text should be shown escaped")
	}
}

func TestStaleTickIgnored(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})
	m, _ = startRecording(t, m)

	m, cmd := update(t, m, TimerTickMsg{SessionID: "some-old-session"})
	if cmd != nil {
		t.Error("stale tick should not schedule anything")
	}
	if m.recording.ElapsedSeconds != 0 {
		t.Errorf("elapsed = %d, want 0", m.recording.ElapsedSeconds)
	}
}

func TestSpaceWhileStoppingIsIgnored(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})
	m, _ = startRecording(t, m)

	m, cmd := update(t, m, key(" "))
	if cmd == nil || m.recStatus != audio.StatusStopping {
		t.Fatal("second space should stop the recording")
	}
	_, cmd = update(t, m, key(" "))
	if cmd != nil {
		t.Error("space during teardown should be a no-op")
	}
}

func TestDeviceFailureShowsAlert(t *testing.T) {
	m, _ := newTestModel(t, stubMic{err: errors.New("permission denied")})

	m, cmd := update(t, m, key(" "))
	m, _ = update(t, m, cmd())

	if m.alert == "" {
		t.Fatal("device failure should raise an alert")
	}
	if m.recStatus != audio.StatusIdle {
		t.Errorf("recStatus = %s, want IDLE", m.recStatus)
	}

	m, _ = update(t, m, key("enter"))
	if m.alert != "" {
		t.Error("enter should dismiss the alert")
	}
}

func TestUploadFailureIsBlocking(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})
	m.phase = upload.PhaseProcessing

	m, _ = update(t, m, UploadCompleteMsg{Err: &backend.RejectionError{Endpoint: "/process", StatusCode: 400, Message: "No speech detected"}})
	if m.alert != "No speech detected" {
		t.Errorf("alert = %q", m.alert)
	}
	if m.phase != upload.PhaseIdle {
		t.Error("phase must clear on failure")
	}

	// Other keys are swallowed until the alert is dismissed.
	m, cmd := update(t, m, key(" "))
	if cmd != nil || m.alert == "" {
		t.Error("alert should block input")
	}
}

func TestCustomLocalValidationMakesNoRequest(t *testing.T) {
	m, hits := newTestModel(t, stubMic{})
	m, _ = update(t, m, key("c"))
	if m.mode != modeCustom || m.custom == nil {
		t.Fatal("c should open the custom surface")
	}
	if m.settings.Mode != settings.ModePreset {
		t.Error("opening the surface must not change the mode")
	}

	before := atomic.LoadInt64(hits)
	m.custom.sizeInput.SetValue("101")
	m.custom.keyInput.SetValue("sk-abc123")
	m, cmd := update(t, m, key("enter"))
	if cmd != nil {
		t.Error("invalid size must not reach the network")
	}
	if m.custom.errMsg == "" {
		t.Error("expected an inline error")
	}

	m.custom.sizeInput.SetValue("10")
	m.custom.keyInput.SetValue("abc123")
	m, cmd = update(t, m, key("enter"))
	if cmd != nil || m.custom.errMsg == "" {
		t.Error("key without prefix must be rejected locally")
	}
	if atomic.LoadInt64(hits) != before {
		t.Error("no request expected")
	}

	m, _ = update(t, m, key("esc"))
	if m.mode != modeNormal {
		t.Error("esc should close the surface")
	}
}

func TestResetKeyClosesSurfaceAfterDelay(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})
	m, _ = update(t, m, key("c"))

	m, cmd := update(t, m, key("ctrl+r"))
	if cmd == nil {
		t.Fatal("ctrl+r should reset the key")
	}
	reset, ok := cmd().(KeyResetMsg)
	if !ok {
		t.Fatal("expected KeyResetMsg")
	}

	m, cmd = update(t, m, reset)
	if m.settings != settings.Preset(5) {
		t.Errorf("settings = %+v, want Preset(5)", m.settings)
	}
	if m.custom == nil || !m.custom.closing || m.custom.infoMsg == "" {
		t.Fatal("confirmation should stay visible until the delay passes")
	}
	if cmd == nil {
		t.Fatal("expected delayed close")
	}

	m, _ = update(t, m, CloseSurfaceMsg{})
	if m.mode != modeNormal || m.custom != nil {
		t.Error("surface should close")
	}
}

func TestPresetFailureShowsError(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})

	m, _ = update(t, m, SettingsChangedMsg{
		State: settings.Preset(5),
		Err:   &backend.RejectionError{Endpoint: "/memory-size", StatusCode: 400, Message: "Invalid memory size"},
	})
	if m.errMsg != "Invalid memory size" {
		t.Errorf("errMsg = %q", m.errMsg)
	}
	if m.settings.Label() != "5" {
		t.Errorf("label = %q, want unchanged", m.settings.Label())
	}
}

func TestPresetKeys(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})

	_, cmd := update(t, m, key("3"))
	changed, ok := cmd().(SettingsChangedMsg)
	if !ok {
		t.Fatal("expected SettingsChangedMsg")
	}
	if changed.Err != nil || changed.State != settings.Preset(20) {
		t.Errorf("unexpected result: %+v", changed)
	}
}

func TestThemeToggle(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})
	m, _ = update(t, m, key("t"))
	if m.ThemeName() != "light" {
		t.Errorf("theme = %s, want light", m.ThemeName())
	}
	if m.svc.Theme() != "light" {
		t.Error("theme should be persisted")
	}
}

func TestClearNeedsConfirmation(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})

	m, cmd := update(t, m, key("D"))
	if cmd != nil || m.mode != modeConfirmClear {
		t.Fatal("D should ask for confirmation")
	}
	m, _ = update(t, m, key("n"))
	if m.mode != modeNormal {
		t.Error("any other key cancels")
	}
	if m.status != "Clear cancelled." {
		t.Errorf("status = %q", m.status)
	}
}

func TestPlaybackSelectionAndEnd(t *testing.T) {
	m, _ := newTestModel(t, stubMic{})
	m, _ = update(t, m, HistoryLoadedMsg{View: history.Render([]backend.Conversation{
		{ID: 1, UserText: "a", AIText: "b", InputAudioURL: "/in.wav", OutputAudioURL: "/out.mp3"},
	}, m.svc.Client().ResolveURL)})

	m, _ = update(t, m, key("j"))
	if m.selected != 1 {
		t.Fatalf("selected = %d, want 1", m.selected)
	}
	m, cmd := update(t, m, key("enter"))
	toggled, ok := cmd().(PlaybackToggledMsg)
	if !ok || toggled.Err != nil || !toggled.Started {
		t.Fatalf("unexpected toggle result: %+v", toggled)
	}
	if !m.svc.Playback.Playing(history.OutputHandle(1)) {
		t.Error("reply block should show as playing")
	}

	m, _ = update(t, m, PlaybackEndedMsg{SessionID: toggled.Session.ID})
	if m.svc.Playback.Playing(history.OutputHandle(1)) {
		t.Error("ended playback should reset the indicator")
	}
}
