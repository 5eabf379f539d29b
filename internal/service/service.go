// Package service wires the walkie-talkie components together for the CLI
// commands and the TUI.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/adityanavgire01/walkie-talkie/internal/audio"
	"github.com/adityanavgire01/walkie-talkie/internal/backend"
	"github.com/adityanavgire01/walkie-talkie/internal/config"
	"github.com/adityanavgire01/walkie-talkie/internal/history"
	"github.com/adityanavgire01/walkie-talkie/internal/notify"
	"github.com/adityanavgire01/walkie-talkie/internal/play"
	"github.com/adityanavgire01/walkie-talkie/internal/settings"
	"github.com/adityanavgire01/walkie-talkie/internal/store"
	"github.com/adityanavgire01/walkie-talkie/internal/upload"
)

// Service owns one instance of every component.
type Service struct {
	cfg    *config.Config
	client *backend.Client
	store  *store.Store

	Playback *play.Manager
	Recorder *audio.Controller
	History  *history.Reloader
	Settings *settings.Controller
	Uploads  *upload.Pipeline
	Notifier *notify.Notifier

	// Error tracking
	lastError      string
	lastErrorMutex sync.RWMutex
}

type options struct {
	mic      audio.Microphone
	player   play.Player
	reporter func(upload.Phase)
}

// Option customizes New.
type Option func(*options)

// WithMicrophone replaces the host microphone.
func WithMicrophone(m audio.Microphone) Option {
	return func(o *options) { o.mic = m }
}

// WithPlayer replaces the host audio player.
func WithPlayer(p play.Player) Option {
	return func(o *options) { o.player = p }
}

// WithPhaseReporter receives upload phase changes.
func WithPhaseReporter(fn func(upload.Phase)) Option {
	return func(o *options) { o.reporter = fn }
}

// New opens the local store and builds every component from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	client := backend.New(cfg.Server.URL, cfg.Server.APIPrefix)

	player := o.player
	if player == nil {
		player = play.NewExecPlayer(cfg.Playback)
	}
	mic := o.mic
	if mic == nil {
		mic = audio.NewMicrophone(cfg.Audio)
	}

	s := &Service{
		cfg:      cfg,
		client:   client,
		store:    st,
		Playback: play.NewManager(player),
		Notifier: notify.New(cfg.UI.Notifications),
	}
	s.History = history.NewReloader(client, st)
	s.Settings = settings.NewController(client, st, stoppingReloader{s})
	s.Recorder = audio.NewController(mic, s.Playback, audio.Format{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
	})

	var uploadOpts []upload.Option
	if o.reporter != nil {
		uploadOpts = append(uploadOpts, upload.WithReporter(o.reporter))
	}
	s.Uploads = upload.New(client, s.History, s.Playback, uploadOpts...)

	slog.Debug("Service created", "server", cfg.APIBaseURL(), "store", cfg.Store.Path)
	return s, nil
}

// Close stops playback and closes the store.
func (s *Service) Close() error {
	s.Playback.ForceStop()
	return s.store.Close()
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Client returns the backend client.
func (s *Service) Client() *backend.Client {
	return s.client
}

// ToggleRecording starts or stops the recording session.
func (s *Service) ToggleRecording(ctx context.Context) (audio.ToggleResult, error) {
	res, err := s.Recorder.Toggle(ctx)
	if err != nil {
		s.setLastError(fmt.Sprintf("Recording failed: %s", backend.UserMessage(err)))
		return res, err
	}
	s.clearLastError()
	return res, nil
}

// Submit uploads a finished recording.
func (s *Service) Submit(ctx context.Context, a audio.Artifact) (upload.Result, error) {
	res, err := s.Uploads.Submit(ctx, a)
	if err != nil {
		s.setLastError(backend.UserMessage(err))
		return res, err
	}
	s.clearLastError()
	return res, nil
}

// SendFile uploads an existing audio file.
func (s *Service) SendFile(ctx context.Context, path string) (upload.Result, error) {
	res, err := s.Uploads.SubmitFile(ctx, path)
	if err != nil {
		s.setLastError(backend.UserMessage(err))
		return res, err
	}
	s.clearLastError()
	return res, nil
}

// TogglePlayback plays, pauses or resumes the audio of a history block.
func (s *Service) TogglePlayback(ctx context.Context, b history.Block) (play.Session, bool, error) {
	sess, started, err := s.Playback.Toggle(ctx, b.AudioURL, b.Handle)
	if err != nil {
		s.setLastError(fmt.Sprintf("Playback failed: %v", err))
	}
	return sess, started, err
}

// ClearHistory stops playback and deletes all conversations.
func (s *Service) ClearHistory(ctx context.Context) (history.View, error) {
	s.Playback.ForceStop()
	view, err := s.History.Clear(ctx)
	if err != nil {
		s.setLastError(backend.UserMessage(err))
		return view, err
	}
	return view, nil
}

// ReloadHistory stops playback and fetches the conversation list.
func (s *Service) ReloadHistory(ctx context.Context) (history.View, error) {
	s.Playback.ForceStop()
	return s.History.Reload(ctx)
}

// stoppingReloader lets the settings controller refresh the list through
// ReloadHistory, so a settings change never leaves old audio playing.
type stoppingReloader struct{ s *Service }

func (r stoppingReloader) Reload(ctx context.Context) (history.View, error) {
	return r.s.ReloadHistory(ctx)
}

// Theme returns the persisted theme name.
func (s *Service) Theme() string {
	theme, err := s.store.Theme()
	if err != nil {
		slog.Warn("Failed to read theme", "error", err)
		return store.DefaultTheme
	}
	return theme
}

// SetTheme persists the theme name.
func (s *Service) SetTheme(theme string) error {
	return s.store.SetTheme(theme)
}

// GetLastError returns the last error message
func (s *Service) GetLastError() string {
	s.lastErrorMutex.RLock()
	defer s.lastErrorMutex.RUnlock()
	return s.lastError
}

// setLastError sets the last error message
func (s *Service) setLastError(msg string) {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = msg
	slog.Debug("Service error recorded", "error", msg)
}

// clearLastError clears the last error message
func (s *Service) clearLastError() {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = ""
}
